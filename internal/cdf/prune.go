package cdf

import (
	"strings"

	"github.com/fredericrous/qontrol/internal/model"
)

// Prune keeps the profiled clusters named name (case-insensitive) and their
// one-hop neighbours in either direction. Every edge between two kept
// nodes survives, including edges between neighbours. Node indices are
// renumbered.
func Prune(g Graph, name string) Graph {
	center := make(map[int]bool)
	for i, n := range g.Nodes {
		if n.Kind == model.NodeProfiledCluster && strings.EqualFold(n.Name, name) {
			center[i] = true
		}
	}

	keep := make(map[int]bool, len(center))
	for i := range center {
		keep[i] = true
	}
	for _, e := range g.Edges {
		if center[e.From] || center[e.To] {
			keep[e.From] = true
			keep[e.To] = true
		}
	}

	out := Graph{Nodes: []model.CdfNode{}, Edges: []model.CdfEdge{}}
	remap := make(map[int]int, len(keep))
	for i, n := range g.Nodes {
		if keep[i] {
			remap[i] = len(out.Nodes)
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if !keep[e.From] || !keep[e.To] {
			continue
		}
		e.From, e.To = remap[e.From], remap[e.To]
		out.Edges = append(out.Edges, e)
	}
	return out
}
