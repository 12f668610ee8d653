package model

import (
	"strings"
	"time"
)

// ClusterKind identifies the platform a cluster runs on.
type ClusterKind string

const (
	KindOnPrem ClusterKind = "on_prem"
	KindAzure  ClusterKind = "azure" // Azure-native
	KindAWS    ClusterKind = "aws"   // cloud-native on AWS
)

// ClusterType is the detected platform of a cluster. Models is only
// populated for on-prem clusters and holds the distinct hardware models,
// sorted.
type ClusterType struct {
	Kind   ClusterKind `json:"kind"`
	Models []string    `json:"models"`
}

// OnPrem returns an on-prem cluster type with the given models.
func OnPrem(models []string) ClusterType {
	if models == nil {
		models = []string{}
	}
	return ClusterType{Kind: KindOnPrem, Models: models}
}

// IsCloud reports whether the cluster runs on a cloud platform.
func (t ClusterType) IsCloud() bool {
	return t.Kind == KindAzure || t.Kind == KindAWS
}

func (t ClusterType) String() string {
	switch t.Kind {
	case KindAzure:
		return "Azure"
	case KindAWS:
		return "AWS"
	case KindOnPrem:
		if len(t.Models) == 0 {
			return "on-prem"
		}
		return "on-prem (" + strings.Join(t.Models, ", ") + ")"
	}
	return string(t.Kind)
}

// ClusterStatus is the canonical per-cluster record produced by a probe or
// served from the status cache.
type ClusterStatus struct {
	ProfileName string      `json:"profile_name"`
	ClusterName string      `json:"cluster_name"`
	ClusterUUID string      `json:"cluster_uuid"`
	Version     string      `json:"version"`
	ClusterType ClusterType `json:"cluster_type"`
	Reachable   bool        `json:"reachable"`
	Stale       bool        `json:"stale"`
	LatencyMs   uint64      `json:"latency_ms"`

	Nodes    NodeStatus     `json:"nodes"`
	Capacity CapacityStatus `json:"capacity"`
	Activity ActivityStatus `json:"activity"`
	Files    FileStats      `json:"files"`
	Health   HealthStatus   `json:"health"`
}

// NodeStatus summarises node liveness.
type NodeStatus struct {
	Total      int               `json:"total"`
	Online     int               `json:"online"`
	OfflineIDs []uint64          `json:"offline_ids"`
	PerNode    []NodeNetworkInfo `json:"per_node"`
}

// NodeNetworkInfo holds per-node connection counts and NIC measurements.
// Link speed is unknown on cloud clusters; utilization is only derived when
// both throughput and link speed are known.
type NodeNetworkInfo struct {
	NodeID              uint64         `json:"node_id"`
	Connections         int            `json:"connections"`
	ConnectionBreakdown map[string]int `json:"connection_breakdown"`
	NICThroughputBps    *float64       `json:"nic_throughput_bps"`
	NICLinkSpeedBps     *uint64        `json:"nic_link_speed_bps"`
	NICUtilizationPct   *float64       `json:"nic_utilization_pct"`
}

type CapacityStatus struct {
	TotalBytes    uint64              `json:"total_bytes"`
	UsedBytes     uint64              `json:"used_bytes"`
	FreeBytes     uint64              `json:"free_bytes"`
	SnapshotBytes uint64              `json:"snapshot_bytes"`
	UsedPct       float64             `json:"used_pct"`
	Projection    *CapacityProjection `json:"projection"`
}

// Confidence grades a capacity projection by its regression fit.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// CapacityProjection is emitted only for growing clusters, so
// GrowthRateBytesPerDay is always positive.
type CapacityProjection struct {
	GrowthRateBytesPerDay float64    `json:"growth_rate_bytes_per_day"`
	DaysUntilFull         *uint64    `json:"days_until_full"`
	Confidence            Confidence `json:"confidence"`
}

type ActivityStatus struct {
	ReadIOPS           float64 `json:"read_iops"`
	WriteIOPS          float64 `json:"write_iops"`
	ReadThroughputBps  float64 `json:"read_throughput_bps"`
	WriteThroughputBps float64 `json:"write_throughput_bps"`
	Connections        int     `json:"connections"`
	IsIdle             bool    `json:"is_idle"`
}

type FileStats struct {
	TotalFiles       uint64 `json:"total_files"`
	TotalDirectories uint64 `json:"total_directories"`
	TotalSnapshots   uint64 `json:"total_snapshots"`
}

// HealthStatus collects hardware and data-protection signals.
type HealthStatus struct {
	DisksUnhealthy         int          `json:"disks_unhealthy"`
	PSUsUnhealthy          int          `json:"psus_unhealthy"`
	DataAtRisk             bool         `json:"data_at_risk"`
	RemainingNodeFailures  *int         `json:"remaining_node_failures"`
	RemainingDriveFailures *int         `json:"remaining_drive_failures"`
	ProtectionType         *string      `json:"protection_type"`
	UnhealthyDiskDetails   []DiskDetail `json:"unhealthy_disk_details"`
	UnhealthyPSUDetails    []PSUDetail  `json:"unhealthy_psu_details"`
}

type DiskDetail struct {
	NodeID   uint64 `json:"node_id"`
	Slot     uint64 `json:"slot"`
	State    string `json:"state"`
	DiskType string `json:"disk_type"`
	Model    string `json:"model"`
}

type PSUDetail struct {
	NodeID   uint64 `json:"node_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	State    string `json:"state"`
}

// CachedClusterData is one entry of the status cache.
type CachedClusterData struct {
	Profile  string        `json:"profile"`
	Data     ClusterStatus `json:"data"`
	CachedAt string        `json:"cached_at"`
}

// EnvironmentStatus is the consolidated fleet view emitted by `status`.
type EnvironmentStatus struct {
	Timestamp  time.Time       `json:"timestamp"`
	Aggregates Aggregates      `json:"aggregates"`
	Alerts     []Alert         `json:"alerts"`
	Clusters   []ClusterStatus `json:"clusters"`
}

// Aggregates are fleet-wide rollups. Latency bounds only consider clusters
// that answered during this run.
type Aggregates struct {
	ClusterCount     int               `json:"cluster_count"`
	ReachableCount   int               `json:"reachable_count"`
	StaleCount       int               `json:"stale_count"`
	UnreachableCount int               `json:"unreachable_count"`
	TotalNodes       int               `json:"total_nodes"`
	OnlineNodes      int               `json:"online_nodes"`
	OfflineNodes     int               `json:"offline_nodes"`
	Capacity         CapacityAggregate `json:"capacity"`
	Files            FileStats         `json:"files"`
	Activity         ActivityAggregate `json:"activity"`
	LatencyMinMs     *uint64           `json:"latency_min_ms"`
	LatencyMaxMs     *uint64           `json:"latency_max_ms"`
}

type CapacityAggregate struct {
	TotalBytes    uint64  `json:"total_bytes"`
	UsedBytes     uint64  `json:"used_bytes"`
	FreeBytes     uint64  `json:"free_bytes"`
	SnapshotBytes uint64  `json:"snapshot_bytes"`
	UsedPct       float64 `json:"used_pct"`
}

type ActivityAggregate struct {
	ReadIOPS           float64 `json:"read_iops"`
	WriteIOPS          float64 `json:"write_iops"`
	ReadThroughputBps  float64 `json:"read_throughput_bps"`
	WriteThroughputBps float64 `json:"write_throughput_bps"`
	Connections        int     `json:"connections"`
}
