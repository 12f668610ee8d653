package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/model"
)

// Fabric writes the data-fabric graph: a node list and one table per edge
// kind. With detail set, relationship ids, paths and recovery points are
// included.
func Fabric(w io.Writer, g cdf.Graph, detail bool) {
	fmt.Fprintln(w, titleStyle.Render("Cross-cluster data fabric"))
	fmt.Fprintln(w)
	if len(g.Nodes) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No relationships found."))
		return
	}

	nodes := newTable("NODE", "KIND", "ADDRESS", "UUID")
	for _, n := range g.Nodes {
		nodes.Row(n.Label(), nodeKind(n.Kind), orDash(n.Address), orDash(n.UUID))
	}
	fmt.Fprintln(w, nodes.Render())

	portals, repls, objects := splitEdges(g.Edges)
	if len(g.Edges) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No edges."))
		return
	}

	if len(portals) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Portals (%d)", len(portals))))
		headers := []string{"HUB", "SPOKE", "TYPE", "STATE", "STATUS"}
		if detail {
			headers = append(headers, "HUB ID", "SPOKE ID", "HUB ROOT", "SPOKE ROOT")
		}
		t := newTable(headers...)
		for _, e := range portals {
			p := e.Portal
			row := []string{nodeName(g, e.From), nodeName(g, e.To),
				Enum(p.Type, "PORTAL_"), Enum(p.State, "PORTAL_STATE_"), Enum(p.Status, "PORTAL_")}
			if detail {
				row = append(row, optUint(p.HubID), optUint(p.SpokeID), orDash(p.HubRoot), orDash(p.SpokeRoot))
			}
			t.Row(row...)
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(repls) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Replication (%d)", len(repls))))
		headers := []string{"SOURCE", "TARGET", "PATHS", "MODE", "STATE", "ENABLED"}
		if detail {
			headers = append(headers, "ID", "RECOVERY POINT", "END REASON")
		}
		t := newTable(headers...)
		for _, e := range repls {
			r := e.Replication
			mode := "-"
			if r.Mode != nil {
				mode = Enum(*r.Mode, "REPLICATION_")
			}
			row := []string{nodeName(g, e.From), nodeName(g, e.To),
				r.SourcePath + " -> " + r.TargetPath, mode, Enum(r.State, "REPLICATION_"), optBool(r.Enabled)}
			if detail {
				row = append(row, orDash(r.RelationshipID), orDash(r.RecoveryPoint), orDash(r.EndReason))
			}
			t.Row(row...)
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(objects) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Object replication (%d)", len(objects))))
		headers := []string{"FROM", "TO", "DIRECTION", "LOCAL PATH", "STATE"}
		if detail {
			headers = append(headers, "ID", "FOLDER")
		}
		t := newTable(headers...)
		for _, e := range objects {
			o := e.Object
			row := []string{nodeName(g, e.From), nodeName(g, e.To),
				Enum(o.Direction, ""), orDash(o.LocalPath), Enum(o.State, "REPLICATION_")}
			if detail {
				row = append(row, orDash(o.RelationshipID), orDash(o.Folder))
			}
			t.Row(row...)
		}
		fmt.Fprintln(w, t.Render())
	}
}

func splitEdges(edges []model.CdfEdge) (portals, repls, objects []model.CdfEdge) {
	for _, e := range edges {
		switch e.Kind {
		case model.EdgePortal:
			portals = append(portals, e)
		case model.EdgeReplication:
			repls = append(repls, e)
		case model.EdgeObjectReplication:
			objects = append(objects, e)
		}
	}
	return portals, repls, objects
}

func nodeName(g cdf.Graph, i int) string {
	if i < 0 || i >= len(g.Nodes) {
		return fmt.Sprintf("#%d", i)
	}
	return g.Nodes[i].Label()
}

func nodeKind(k model.CdfNodeKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}

func optUint(v *uint64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func optBool(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "yes"
	default:
		return "no"
	}
}
