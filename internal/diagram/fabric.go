package diagram

import (
	"fmt"
	"strings"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/model"
)

// GenerateFabric renders the data-fabric graph as a Mermaid flowchart.
// Profiled clusters are boxes, unknown peers are rounded and buckets are
// cylinders grouped in an object-storage subgraph.
func GenerateFabric(g cdf.Graph) model.DiagramResult {
	result := model.DiagramResult{ID: "fabric", Title: "Cross-Cluster Data Fabric", Type: "mermaid"}
	if len(g.Nodes) == 0 {
		result.Content = "graph LR\n  empty[\"No clusters\"]\n"
		return result
	}

	var b strings.Builder
	b.WriteString("graph LR\n")

	var buckets []int
	for i, n := range g.Nodes {
		id := nodeID(i, n)
		switch n.Kind {
		case model.NodeProfiledCluster:
			label := n.Name
			if n.Address != "" {
				label += "<br/>" + n.Address
			}
			b.WriteString(fmt.Sprintf("  %s[%s]\n", id, quote(label)))
		case model.NodeUnknownCluster:
			b.WriteString(fmt.Sprintf("  %s(%s)\n", id, quote(n.Label()+"<br/><small>not profiled</small>")))
		case model.NodeObjectBucket:
			buckets = append(buckets, i)
		}
	}
	if len(buckets) > 0 {
		b.WriteString("  subgraph objects[\"Object storage\"]\n")
		for _, i := range buckets {
			n := g.Nodes[i]
			label := n.Bucket + "<br/>" + n.Address
			if n.Region != nil {
				label += "<br/>" + *n.Region
			}
			b.WriteString(fmt.Sprintf("    %s[(%s)]\n", nodeID(i, n), quote(label)))
		}
		b.WriteString("  end\n")
	}

	b.WriteString("\n")
	for _, e := range g.Edges {
		if e.From < 0 || e.From >= len(g.Nodes) || e.To < 0 || e.To >= len(g.Nodes) {
			continue
		}
		from, to := nodeID(e.From, g.Nodes[e.From]), nodeID(e.To, g.Nodes[e.To])
		switch e.Kind {
		case model.EdgePortal:
			b.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", from, quote(portalLabel(e.Portal)), to))
		case model.EdgeReplication:
			b.WriteString(fmt.Sprintf("  %s ==>|%s| %s\n", from, quote(replicationLabel(e.Replication)), to))
		case model.EdgeObjectReplication:
			b.WriteString(fmt.Sprintf("  %s -.->|%s| %s\n", from, quote(objectLabel(e.Object)), to))
		}
	}

	b.WriteString("\n  classDef unknown stroke-dasharray: 5 5\n")
	for i, n := range g.Nodes {
		if n.Kind == model.NodeUnknownCluster {
			b.WriteString(fmt.Sprintf("  class %s unknown\n", nodeID(i, n)))
		}
	}

	result.Content = b.String()
	return result
}

// nodeID is unique per index and readable for profiled clusters.
func nodeID(i int, n model.CdfNode) string {
	if n.Kind == model.NodeProfiledCluster && n.Name != "" {
		return fmt.Sprintf("c%d_%s", i, sanitizeID(n.Name))
	}
	return fmt.Sprintf("n%d", i)
}

func portalLabel(p *model.PortalEdge) string {
	if p == nil {
		return "portal"
	}
	label := "portal"
	if t := humanEnum(p.Type, "PORTAL_"); t != "" {
		label += " " + strings.ToLower(t)
	}
	if s := humanEnum(p.Status, "PORTAL_"); s != "" {
		label += "<br/>" + s
	}
	return label
}

func replicationLabel(r *model.ReplicationEdge) string {
	if r == nil {
		return "replication"
	}
	label := r.SourcePath + " → " + r.TargetPath
	if r.Mode != nil {
		label += "<br/>" + humanEnum(*r.Mode, "REPLICATION_")
	}
	if r.State != "" {
		label += "<br/>" + humanEnum(r.State, "")
	}
	return label
}

func objectLabel(o *model.ObjectReplicationEdge) string {
	if o == nil {
		return "object"
	}
	label := humanEnum(o.Direction, "")
	if o.LocalPath != "" {
		label += "<br/>" + o.LocalPath
	}
	return label
}
