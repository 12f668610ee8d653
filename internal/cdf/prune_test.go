package cdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

func TestPruneNeighbourhood(t *testing.T) {
	clusters := replicationPair()
	clusters = append(clusters, cluster("C", uuidC, "10.0.0.3"))

	g := Prune(Build(clusters), "a")

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "A", g.Nodes[0].Name)
	assert.Equal(t, "B", g.Nodes[1].Name)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 0, g.Edges[0].From)
	assert.Equal(t, 1, g.Edges[0].To)
}

func TestPruneKeepsInboundNeighboursAndRemaps(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	c := cluster("C", uuidC, "10.0.0.3")
	// C replicates into B; A is unrelated; a bucket feeds B.
	c.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "r", TargetAddress: "10.0.0.2", SourceRootPath: "/s", TargetRootPath: "/t"}}
	b.ObjectRelationshipStatuses = []api.ObjectRelationshipStatus{{ID: "o", Direction: model.DirectionCopyFromObject, ObjectStoreAddress: "s3", Bucket: "in"}}
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "x", TargetAddress: "10.9.9.9", SourceRootPath: "/p", TargetRootPath: "/q"}}

	g := Prune(Build([]ClusterData{a, b, c}), "B")

	var names []string
	for _, n := range g.Nodes {
		names = append(names, n.Label())
	}
	assert.ElementsMatch(t, []string{"B", "C", "s3://in (s3)"}, names)
	require.Len(t, g.Edges, 2)
	for _, e := range g.Edges {
		assert.Equal(t, "B", g.Nodes[e.To].Name)
	}
}

func TestPruneKeepsEdgesBetweenNeighbours(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	c := cluster("C", uuidC, "10.0.0.3")
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{
		{ID: "1", TargetAddress: "10.0.0.2", SourceRootPath: "/1", TargetRootPath: "/1"},
		{ID: "2", TargetAddress: "10.0.0.3", SourceRootPath: "/2", TargetRootPath: "/2"},
	}
	b.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "3", TargetAddress: "10.0.0.3", SourceRootPath: "/3", TargetRootPath: "/3"}}

	g := Prune(Build([]ClusterData{a, b, c}), "A")
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 3)

	var neighbourEdge bool
	for _, e := range g.Edges {
		if g.Nodes[e.From].Name == "B" && g.Nodes[e.To].Name == "C" {
			neighbourEdge = true
		}
	}
	assert.True(t, neighbourEdge, "B -> C survives because both ends are kept")
}

func TestPruneDropsEdgesToRemovedNodes(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	c := cluster("C", uuidC, "10.0.0.3")
	// A -> B, B -> C: C is two hops from A.
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "1", TargetAddress: "10.0.0.2", SourceRootPath: "/1", TargetRootPath: "/1"}}
	b.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "2", TargetAddress: "10.0.0.3", SourceRootPath: "/2", TargetRootPath: "/2"}}

	g := Prune(Build([]ClusterData{a, b, c}), "A")
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "A", g.Nodes[g.Edges[0].From].Name)
	assert.Equal(t, "B", g.Nodes[g.Edges[0].To].Name)
}

func TestPruneUnknownName(t *testing.T) {
	g := Prune(Build(replicationPair()), "nope")
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}
