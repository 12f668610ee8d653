package cdf

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fredericrous/qontrol/internal/model"
)

// jsonNode writes each node kind with exactly its own fields. Optional
// fields are always present and null when unknown.
type jsonNode struct {
	ID int
	model.CdfNode
}

func (n jsonNode) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case model.NodeProfiledCluster:
		return json.Marshal(struct {
			ID      int               `json:"id"`
			Kind    model.CdfNodeKind `json:"kind"`
			Name    string            `json:"name"`
			UUID    *string           `json:"uuid"`
			Address string            `json:"address"`
		}{n.ID, n.Kind, n.Name, optional(n.UUID), n.Address})
	case model.NodeObjectBucket:
		return json.Marshal(struct {
			ID      int               `json:"id"`
			Kind    model.CdfNodeKind `json:"kind"`
			Address string            `json:"address"`
			Bucket  string            `json:"bucket"`
			Region  *string           `json:"region"`
		}{n.ID, n.Kind, n.Address, n.Bucket, n.Region})
	}
	return json.Marshal(struct {
		ID      int               `json:"id"`
		Kind    model.CdfNodeKind `json:"kind"`
		Address string            `json:"address"`
		UUID    *string           `json:"uuid"`
	}{n.ID, n.Kind, n.Address, optional(n.UUID)})
}

type jsonGraph struct {
	Nodes []jsonNode      `json:"nodes"`
	Edges []model.CdfEdge `json:"edges"`
}

// MarshalJSON emits {nodes: [{id, ...}], edges: [...]} where edge
// endpoints are node ids.
func (g Graph) MarshalJSON() ([]byte, error) {
	out := jsonGraph{Nodes: make([]jsonNode, len(g.Nodes)), Edges: g.Edges}
	for i, n := range g.Nodes {
		out.Nodes[i] = jsonNode{ID: i, CdfNode: n}
	}
	if out.Edges == nil {
		out.Edges = []model.CdfEdge{}
	}
	return json.Marshal(out)
}

// WriteSummary prints one line per node and per edge.
func WriteSummary(w io.Writer, g Graph) error {
	for i, n := range g.Nodes {
		if _, err := fmt.Fprintf(w, "node %d %s %s\n", i, n.Kind, describeNode(n)); err != nil {
			return err
		}
	}
	for _, e := range g.Edges {
		if _, err := fmt.Fprintf(w, "edge %s %s -> %s%s\n", e.Kind, label(g, e.From), label(g, e.To), describeEdge(e)); err != nil {
			return err
		}
	}
	return nil
}

func label(g Graph, i int) string {
	if i < 0 || i >= len(g.Nodes) {
		return fmt.Sprintf("#%d", i)
	}
	return g.Nodes[i].Label()
}

func describeNode(n model.CdfNode) string {
	switch n.Kind {
	case model.NodeProfiledCluster:
		return fmt.Sprintf("%s uuid=%s address=%s", n.Name, orDash(n.UUID), orDash(n.Address))
	case model.NodeUnknownCluster:
		return fmt.Sprintf("address=%s uuid=%s", orDash(n.Address), orDash(n.UUID))
	case model.NodeObjectBucket:
		region := "-"
		if n.Region != nil {
			region = *n.Region
		}
		return fmt.Sprintf("bucket=%s address=%s region=%s", n.Bucket, n.Address, region)
	}
	return n.Address
}

func describeEdge(e model.CdfEdge) string {
	var parts []string
	switch {
	case e.Portal != nil:
		p := e.Portal
		parts = append(parts, "hub_id="+optID(p.HubID), "spoke_id="+optID(p.SpokeID), "state="+orDash(p.State))
		if p.HubRoot != "" || p.SpokeRoot != "" {
			parts = append(parts, p.HubRoot+"=>"+p.SpokeRoot)
		}
	case e.Replication != nil:
		r := e.Replication
		mode := "-"
		if r.Mode != nil {
			mode = *r.Mode
		}
		parts = append(parts, r.SourcePath+"=>"+r.TargetPath, "mode="+mode, "state="+orDash(r.State))
	case e.Object != nil:
		o := e.Object
		parts = append(parts, "direction="+orDash(o.Direction), o.LocalPath+"<=>"+o.Folder, "state="+orDash(o.State))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func optID(id *uint64) string {
	if id == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
