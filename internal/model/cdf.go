package model

import "fmt"

// CdfNodeKind discriminates the variants of CdfNode.
type CdfNodeKind string

const (
	NodeProfiledCluster CdfNodeKind = "profiled_cluster"
	NodeUnknownCluster  CdfNodeKind = "unknown_cluster"
	NodeObjectBucket    CdfNodeKind = "object_bucket"
)

// CdfNode is a vertex of the data-fabric graph. Which fields are meaningful
// depends on Kind:
//
//	profiled_cluster: Name, UUID, Address
//	unknown_cluster:  Address, UUID (may be empty)
//	object_bucket:    Address, Bucket, Region (may be nil)
type CdfNode struct {
	Kind    CdfNodeKind `json:"kind"`
	Name    string      `json:"name,omitempty"`
	UUID    string      `json:"uuid"`
	Address string      `json:"address"`
	Bucket  string      `json:"bucket,omitempty"`
	Region  *string     `json:"region"`
}

func ProfiledCluster(name, uuid, address string) CdfNode {
	return CdfNode{Kind: NodeProfiledCluster, Name: name, UUID: uuid, Address: address}
}

func UnknownCluster(address, uuid string) CdfNode {
	return CdfNode{Kind: NodeUnknownCluster, Address: address, UUID: uuid}
}

func ObjectBucket(address, bucket string, region *string) CdfNode {
	return CdfNode{Kind: NodeObjectBucket, Address: address, Bucket: bucket, Region: region}
}

// Label is a short human-readable name for the node.
func (n CdfNode) Label() string {
	switch n.Kind {
	case NodeProfiledCluster:
		return n.Name
	case NodeUnknownCluster:
		if n.Address != "" {
			return n.Address
		}
		return n.UUID
	case NodeObjectBucket:
		return fmt.Sprintf("s3://%s (%s)", n.Bucket, n.Address)
	}
	return n.Address
}

// CdfEdgeKind discriminates the variants of CdfEdge.
type CdfEdgeKind string

const (
	EdgePortal            CdfEdgeKind = "portal"
	EdgeReplication       CdfEdgeKind = "replication"
	EdgeObjectReplication CdfEdgeKind = "object_replication"
)

// CdfEdge is a directed relationship between two node indices. Exactly one
// of Portal, Replication and Object is set, matching Kind.
type CdfEdge struct {
	From        int                    `json:"from"`
	To          int                    `json:"to"`
	Kind        CdfEdgeKind            `json:"kind"`
	Portal      *PortalEdge            `json:"portal,omitempty"`
	Replication *ReplicationEdge       `json:"replication,omitempty"`
	Object      *ObjectReplicationEdge `json:"object_replication,omitempty"`
}

// PortalEdge always points from hub to spoke. A nil id means the peer's
// relationship id was not observed.
type PortalEdge struct {
	HubID     *uint64 `json:"hub_id"`
	SpokeID   *uint64 `json:"spoke_id"`
	Type      string  `json:"type"`
	State     string  `json:"state"`
	Status    string  `json:"status"`
	HubRoot   string  `json:"hub_root"`
	SpokeRoot string  `json:"spoke_root"`
}

// ReplicationEdge points from replication source to target. Mode is only
// reported by the source side.
type ReplicationEdge struct {
	RelationshipID string  `json:"relationship_id"`
	SourcePath     string  `json:"source_path"`
	TargetPath     string  `json:"target_path"`
	Mode           *string `json:"mode"`
	State          string  `json:"state"`
	Enabled        *bool   `json:"enabled"`
	EndReason      string  `json:"end_reason"`
	RecoveryPoint  string  `json:"recovery_point"`
}

// Object replication directions as reported by the cluster.
const (
	DirectionCopyToObject   = "COPY_TO_OBJECT"
	DirectionCopyFromObject = "COPY_FROM_OBJECT"
)

type ObjectReplicationEdge struct {
	RelationshipID string `json:"relationship_id"`
	Direction      string `json:"direction"`
	LocalPath      string `json:"local_path"`
	Folder         string `json:"folder"`
	State          string `json:"state"`
}

// DiagramResult holds a generated diagram.
type DiagramResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"` // "mermaid"
	Content string `json:"content"`
}
