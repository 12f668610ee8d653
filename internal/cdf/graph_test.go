package cdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

const (
	uuidA = "aaaaaaaa-0000-4000-8000-000000000001"
	uuidB = "bbbbbbbb-0000-4000-8000-000000000002"
	uuidC = "cccccccc-0000-4000-8000-000000000003"
)

func cluster(name, uuid, addr string) ClusterData {
	return ClusterData{ProfileName: name, ClusterName: name, UUID: uuid, Address: addr}
}

func portalPair() []ClusterData {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	a.PortalHubs = []api.PortalHub{{ID: 1, Type: "PORTAL_READ_WRITE", State: "ACCEPTED", Status: "ACTIVE",
		SpokeAddress: "10.0.0.2", SpokeClusterUUID: uuidB, HubRoot: "/hub", SpokeRoot: "/spoke"}}
	b.PortalSpokes = []api.PortalSpoke{{ID: 7, Type: "PORTAL_READ_WRITE", State: "ACCEPTED", Status: "ACTIVE",
		HubAddress: "10.0.0.1", HubClusterUUID: uuidA, HubRoot: "/hub", SpokeRoot: "/spoke"}}
	return []ClusterData{a, b}
}

func TestBuildPortalDedup(t *testing.T) {
	for _, order := range []string{"hub first", "spoke first"} {
		t.Run(order, func(t *testing.T) {
			clusters := portalPair()
			if order == "spoke first" {
				clusters[0], clusters[1] = clusters[1], clusters[0]
			}
			g := Build(clusters)

			require.Len(t, g.Nodes, 2)
			require.Len(t, g.Edges, 1)
			e := g.Edges[0]
			assert.Equal(t, model.EdgePortal, e.Kind)
			assert.Equal(t, "A", g.Nodes[e.From].Name)
			assert.Equal(t, "B", g.Nodes[e.To].Name)
			require.NotNil(t, e.Portal.HubID)
			require.NotNil(t, e.Portal.SpokeID)
			assert.Equal(t, uint64(1), *e.Portal.HubID)
			assert.Equal(t, uint64(7), *e.Portal.SpokeID)
		})
	}
}

func TestBuildPortalSeenOnce(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	a.PortalHubs = []api.PortalHub{{ID: 3, SpokeHost: "far.example.com"}}

	g := Build([]ClusterData{a})

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, model.NodeUnknownCluster, g.Nodes[1].Kind)
	assert.Equal(t, "far.example.com", g.Nodes[1].Address)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, uint64(3), *g.Edges[0].Portal.HubID)
	assert.Nil(t, g.Edges[0].Portal.SpokeID)
}

func TestBuildPortalPeerMatchedByAddress(t *testing.T) {
	clusters := portalPair()
	clusters[1].PortalSpokes[0].HubClusterUUID = ""

	g := Build(clusters)
	require.Len(t, g.Edges, 1)
	require.NotNil(t, g.Edges[0].Portal.SpokeID)
	assert.Equal(t, uint64(7), *g.Edges[0].Portal.SpokeID)
}

func TestBuildTwoPortalsBetweenSamePair(t *testing.T) {
	clusters := portalPair()
	clusters[0].PortalHubs = append(clusters[0].PortalHubs, api.PortalHub{ID: 7,
		SpokeAddress: "10.0.0.2", SpokeClusterUUID: uuidB, HubRoot: "/hub2", SpokeRoot: "/spoke2"})
	clusters[1].PortalSpokes = append(clusters[1].PortalSpokes, api.PortalSpoke{ID: 1,
		HubAddress: "10.0.0.1", HubClusterUUID: uuidA, HubRoot: "/hub2", SpokeRoot: "/spoke2"})

	g := Build(clusters)
	assert.Len(t, g.Edges, 2)
}

func replicationPair() []ClusterData {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "r1", TargetAddress: "10.0.0.2",
		TargetClusterUUID: uuidB, SourceRootPath: "/data", TargetRootPath: "/replica",
		State: "ESTABLISHED", ReplicationMode: "REPLICATION_CONTINUOUS"}}
	b.ReplicationTargetStatuses = []api.ReplicationTargetStatus{{ID: "r1", SourceAddress: "10.0.0.1",
		SourceClusterUUID: uuidA, SourceRootPath: "/data", TargetRootPath: "/replica", State: "ESTABLISHED"}}
	return []ClusterData{a, b}
}

func TestBuildReplicationDedup(t *testing.T) {
	g := Build(replicationPair())

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	e := g.Edges[0]
	assert.Equal(t, model.EdgeReplication, e.Kind)
	assert.Equal(t, "A", g.Nodes[e.From].Name)
	assert.Equal(t, "B", g.Nodes[e.To].Name)
	require.NotNil(t, e.Replication.Mode)
	assert.Equal(t, "REPLICATION_CONTINUOUS", *e.Replication.Mode)
}

func TestBuildReplicationTargetReportedFirst(t *testing.T) {
	clusters := replicationPair()
	clusters[0], clusters[1] = clusters[1], clusters[0]

	g := Build(clusters)
	require.Len(t, g.Edges, 1)
	e := g.Edges[0]
	assert.Equal(t, "A", g.Nodes[e.From].Name)
	assert.Equal(t, "B", g.Nodes[e.To].Name)
	assert.Nil(t, e.Replication.Mode, "target side carries no mode")
}

func TestBuildReplicationModeFromSourceList(t *testing.T) {
	clusters := replicationPair()
	clusters[0].ReplicationSourceStatuses[0].ReplicationMode = ""
	clusters[0].ReplicationSources = []api.ReplicationSource{{ID: "r1", ReplicationMode: "REPLICATION_SNAPSHOT_POLICY"}}

	g := Build(clusters)
	require.Len(t, g.Edges, 1)
	require.NotNil(t, g.Edges[0].Replication.Mode)
	assert.Equal(t, "REPLICATION_SNAPSHOT_POLICY", *g.Edges[0].Replication.Mode)
}

func TestBuildReplicationSourceWithoutStatus(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	a.ReplicationSources = []api.ReplicationSource{{ID: "r9", TargetAddress: "10.0.0.9", SourceRootPath: "/x", TargetRootPath: "/y"}}

	g := Build([]ClusterData{a})
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "10.0.0.9", g.Nodes[g.Edges[0].To].Address)
}

func TestBuildInternsByAddressAndUUID(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "b.example.com")
	// Address differs from B's profile but the uuid matches.
	// A later reference by that new address alone lands on B too.
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{
		{ID: "r1", TargetAddress: "10.0.0.2", TargetClusterUUID: strings.ToUpper(uuidB), SourceRootPath: "/1", TargetRootPath: "/2"},
		{ID: "r1b", TargetAddress: "10.0.0.2", SourceRootPath: "/5", TargetRootPath: "/6"},
	}
	// Unknown peer seen by uuid, then by address plus uuid.
	b.ReplicationSourceStatuses = []api.ReplicationSourceStatus{
		{ID: "r2", TargetClusterUUID: uuidC, SourceRootPath: "/a", TargetRootPath: "/b"},
		{ID: "r3", TargetAddress: "10.0.0.3", TargetClusterUUID: uuidC, SourceRootPath: "/c", TargetRootPath: "/d"},
	}

	g := Build([]ClusterData{a, b})

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, model.NodeUnknownCluster, g.Nodes[2].Kind)
	assert.Equal(t, uuidC, g.Nodes[2].UUID)
	require.Len(t, g.Edges, 4)
	for _, e := range g.Edges[:2] {
		assert.Equal(t, "B", g.Nodes[e.To].Name)
	}
	assert.Equal(t, 2, g.Edges[2].To)
	assert.Equal(t, 2, g.Edges[3].To)
}

func TestBuildSkipsReferenceWithoutIdentity(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	a.ReplicationSourceStatuses = []api.ReplicationSourceStatus{{ID: "r1", SourceRootPath: "/x"}}
	a.PortalSpokes = []api.PortalSpoke{{ID: 2}}

	g := Build([]ClusterData{a})
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestBuildObjectReplication(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	a.ObjectRelationshipStatuses = []api.ObjectRelationshipStatus{
		{ID: "o1", Direction: "COPY_TO_OBJECT", ObjectStoreAddress: "s3.us-east-1.amazonaws.com", Bucket: "backups", Region: "us-east-1", LocalDirectoryPath: "/data", ObjectFolder: "daily/"},
		{ID: "o2", Direction: "COPY_FROM_OBJECT", ObjectStoreAddress: "s3.us-east-1.amazonaws.com", Bucket: "backups", LocalDirectoryPath: "/restore"},
		{ID: "o3", Direction: "", ObjectStoreAddress: "minio.local", Bucket: "x"},
	}
	a.ObjectRelationships = []api.ObjectRelationship{
		{ID: "o1", Direction: "COPY_TO_OBJECT", ObjectStoreAddress: "s3.us-east-1.amazonaws.com", Bucket: "backups"},
	}

	g := Build([]ClusterData{a})

	require.Len(t, g.Nodes, 3)
	bucket := g.Nodes[1]
	assert.Equal(t, model.NodeObjectBucket, bucket.Kind)
	require.NotNil(t, bucket.Region)
	assert.Equal(t, "us-east-1", *bucket.Region)
	assert.Nil(t, g.Nodes[2].Region)

	require.Len(t, g.Edges, 3)
	assert.Equal(t, [2]int{0, 1}, [2]int{g.Edges[0].From, g.Edges[0].To})
	assert.Equal(t, [2]int{1, 0}, [2]int{g.Edges[1].From, g.Edges[1].To}, "copy from object points at the cluster")
	assert.Equal(t, [2]int{0, 2}, [2]int{g.Edges[2].From, g.Edges[2].To}, "unknown direction defaults to copy-to")
}

func TestBuildObjectEdgesNotDeduplicated(t *testing.T) {
	a := cluster("A", uuidA, "10.0.0.1")
	b := cluster("B", uuidB, "10.0.0.2")
	rel := api.ObjectRelationshipStatus{ID: "o1", Direction: "COPY_TO_OBJECT", ObjectStoreAddress: "s3", Bucket: "shared"}
	a.ObjectRelationshipStatuses = []api.ObjectRelationshipStatus{rel}
	b.ObjectRelationshipStatuses = []api.ObjectRelationshipStatus{rel}

	g := Build([]ClusterData{a, b})
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
}

func TestBuildIsIdempotent(t *testing.T) {
	clusters := append(portalPair(), replicationPair()...)
	clusters = append(clusters, cluster("C", uuidC, "10.0.0.3"))

	first := Build(clusters)
	second := Build(clusters)
	assert.Equal(t, first, second)
}

func TestBuildNodeLabelsResolveToOneNode(t *testing.T) {
	clusters := append(portalPair(), replicationPair()...)
	g := Build(clusters)

	seen := map[string]int{}
	for i, n := range g.Nodes {
		for _, label := range []string{n.Address, n.UUID} {
			if label == "" {
				continue
			}
			if prev, ok := seen[label]; ok {
				t.Errorf("label %q on nodes %d and %d", label, prev, i)
			}
			seen[label] = i
		}
	}
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 2)
}
