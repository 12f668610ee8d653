package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Uint decodes integers the cluster encodes either as JSON numbers or as
// decimal strings.
type Uint uint64

func (u *Uint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f < 0 {
			return fmt.Errorf("invalid integer %s", b)
		}
		v = uint64(f)
	}
	*u = Uint(v)
	return nil
}

// Float decodes floats encoded as numbers or strings.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*f = Float(v)
	return nil
}

// StripEnumPrefix removes the conventional upper-case type prefix from an
// enum value, e.g. "CONNECTION_TYPE_NFS" with prefix "CONNECTION_TYPE_".
func StripEnumPrefix(v, prefix string) string {
	return strings.TrimPrefix(v, prefix)
}

type ClusterSettings struct {
	ClusterName string `json:"cluster_name"`
}

type VersionInfo struct {
	RevisionID string `json:"revision_id"`
	BuildID    string `json:"build_id"`
}

type Node struct {
	ID           uint64 `json:"id"`
	NodeName     string `json:"node_name"`
	NodeStatus   string `json:"node_status"`
	ModelNumber  string `json:"model_number"`
	SerialNumber string `json:"serial_number"`
}

// Online reports whether the node status is "online".
func (n Node) Online() bool {
	return strings.EqualFold(n.NodeStatus, "online")
}

type FileSystem struct {
	TotalSizeBytes    Uint `json:"total_size_bytes"`
	FreeSizeBytes     Uint `json:"free_size_bytes"`
	SnapshotSizeBytes Uint `json:"snapshot_size_bytes"`
}

type CapacityHistoryPoint struct {
	CapacityUsed    Uint `json:"capacity_used"`
	TotalUsable     Uint `json:"total_usable"`
	PeriodStartTime Uint `json:"period_start_time"`
}

// Activity rate types reported by the current-activity endpoint.
const (
	ActivityFileIOPSRead        = "file-iops-read"
	ActivityMetadataIOPSRead    = "metadata-iops-read"
	ActivityFileIOPSWrite       = "file-iops-write"
	ActivityMetadataIOPSWrite   = "metadata-iops-write"
	ActivityFileThroughputRead  = "file-throughput-read"
	ActivityFileThroughputWrite = "file-throughput-write"
)

type Activity struct {
	Entries []ActivityEntry `json:"entries"`
}

type ActivityEntry struct {
	IP   string `json:"ip"`
	ID   string `json:"id"`
	Rate Float  `json:"rate"`
	Type string `json:"type"`
}

type NodeConnections struct {
	ID          uint64       `json:"id"`
	Connections []Connection `json:"connections"`
}

type Connection struct {
	Type           string `json:"type"`
	NetworkAddress string `json:"network_address"`
}

type NodeNetworkStatus struct {
	NodeID  uint64          `json:"node_id"`
	Devices []NetworkDevice `json:"devices"`
}

type NetworkDevice struct {
	Name           string         `json:"name"`
	BytesSent      Uint           `json:"bytes_sent"`
	BytesReceived  Uint           `json:"bytes_received"`
	Speed          Uint           `json:"speed"` // Mbit/s; zero when unknown
	NetworkDetails NetworkDetails `json:"network_details"`
}

type NetworkDetails struct {
	UseFor string `json:"use_for"`
}

type ProtectionStatus struct {
	RemainingNodeFailures  *int   `json:"remaining_node_failures"`
	RemainingDriveFailures *int   `json:"remaining_drive_failures"`
	ProtectionType         string `json:"protection_type"`
}

type RestriperStatus struct {
	InProgress bool `json:"in_progress"`
	DataAtRisk bool `json:"data_at_risk"`
}

type Chassis struct {
	ID          uint64      `json:"id"`
	PSUStatuses []PSUStatus `json:"psu_statuses"`
}

type PSUStatus struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	State    string `json:"state"`
}

type Slot struct {
	ID        string `json:"id"`
	NodeID    uint64 `json:"node_id"`
	Slot      uint64 `json:"slot"`
	State     string `json:"state"`
	DiskType  string `json:"disk_type"`
	DiskModel string `json:"disk_model"`
}

type NodeState struct {
	NodeID    uint64 `json:"node_id"`
	ClusterID string `json:"cluster_id"`
	State     string `json:"state"`
}

type FileAggregates struct {
	TotalFiles       Uint `json:"total_files"`
	TotalDirectories Uint `json:"total_directories"`
}

type Snapshot struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Timestamp     string `json:"timestamp"`
	Expiration    string `json:"expiration"`
	DirectoryName string `json:"directory_name"`
	PolicyID      *int   `json:"policy_id"`
}

type DirectoryEntry struct {
	Name             string `json:"name"`
	Path             string `json:"path"`
	Type             string `json:"type"`
	Size             Uint   `json:"size"`
	ModificationTime string `json:"modification_time"`
}

// Data-fabric relationship types.

type PortalHub struct {
	ID               uint64 `json:"id"`
	Type             string `json:"type"`
	State            string `json:"state"`
	Status           string `json:"status"`
	SpokeHost        string `json:"spoke_host"`
	SpokeAddress     string `json:"spoke_address"`
	SpokeClusterUUID string `json:"spoke_cluster_uuid"`
	SpokeClusterName string `json:"spoke_cluster_name"`
	HubRoot          string `json:"hub_root"`
	SpokeRoot        string `json:"spoke_root"`
}

// PeerAddress is the spoke's address, preferring the numeric address.
func (h PortalHub) PeerAddress() string {
	if h.SpokeAddress != "" {
		return h.SpokeAddress
	}
	return h.SpokeHost
}

type PortalSpoke struct {
	ID             uint64 `json:"id"`
	Type           string `json:"type"`
	State          string `json:"state"`
	Status         string `json:"status"`
	HubAddress     string `json:"hub_address"`
	HubPort        uint64 `json:"hub_port"`
	HubClusterUUID string `json:"hub_cluster_uuid"`
	HubClusterName string `json:"hub_cluster_name"`
	HubRoot        string `json:"hub_root"`
	SpokeRoot      string `json:"spoke_root"`
}

type ReplicationSource struct {
	ID                 string `json:"id"`
	TargetAddress      string `json:"target_address"`
	TargetPort         uint64 `json:"target_port"`
	SourceRootPath     string `json:"source_root_path"`
	TargetRootPath     string `json:"target_root_path"`
	ReplicationMode    string `json:"replication_mode"`
	ReplicationEnabled *bool  `json:"replication_enabled"`
}

type ReplicationSourceStatus struct {
	ID                 string `json:"id"`
	TargetClusterName  string `json:"target_cluster_name"`
	TargetClusterUUID  string `json:"target_cluster_uuid"`
	TargetAddress      string `json:"target_address"`
	SourceRootPath     string `json:"source_root_path"`
	TargetRootPath     string `json:"target_root_path"`
	State              string `json:"state"`
	EndReason          string `json:"end_reason"`
	RecoveryPoint      string `json:"recovery_point"`
	ReplicationMode    string `json:"replication_mode"`
	ReplicationEnabled *bool  `json:"replication_enabled"`
}

type ReplicationTargetStatus struct {
	ID                 string `json:"id"`
	SourceClusterName  string `json:"source_cluster_name"`
	SourceClusterUUID  string `json:"source_cluster_uuid"`
	SourceAddress      string `json:"source_address"`
	SourceRootPath     string `json:"source_root_path"`
	TargetRootPath     string `json:"target_root_path"`
	State              string `json:"state"`
	EndReason          string `json:"end_reason"`
	RecoveryPoint      string `json:"recovery_point"`
	ReplicationEnabled *bool  `json:"replication_enabled"`
}

type ObjectRelationship struct {
	ID                 string `json:"id"`
	Direction          string `json:"direction"`
	ObjectStoreAddress string `json:"object_store_address"`
	Bucket             string `json:"bucket"`
	ObjectFolder       string `json:"object_folder"`
	Region             string `json:"region"`
	LocalDirectoryPath string `json:"local_directory_path"`
}

type ObjectRelationshipStatus struct {
	ID                 string `json:"id"`
	Direction          string `json:"direction"`
	ObjectStoreAddress string `json:"object_store_address"`
	Bucket             string `json:"bucket"`
	ObjectFolder       string `json:"object_folder"`
	Region             string `json:"region"`
	LocalDirectoryPath string `json:"local_directory_path"`
	State              string `json:"state"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	BearerToken string `json:"bearer_token"`
}

type whoAmI struct {
	ID   Uint   `json:"id"`
	Name string `json:"name"`
}

type accessTokenRequest struct {
	User accessTokenUser `json:"user"`
}

type accessTokenUser struct {
	AuthID string `json:"auth_id"`
}

type accessTokenResponse struct {
	ID          string `json:"id"`
	BearerToken string `json:"bearer_token"`
}

// paged is the envelope of paginated list endpoints.
type paged[T any] struct {
	Entries []T `json:"entries"`
	Paging  struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// decodeList decodes a list endpoint that may be either paginated or a bare
// array.
func decodeList[T any](body []byte) ([]T, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", err
		}
		return items, "", nil
	}
	var p paged[T]
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, "", err
	}
	return p.Entries, p.Paging.Next, nil
}
