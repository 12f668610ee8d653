package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Endpoint paths.
const (
	PathClusterSettings   = "/v1/cluster/settings"
	PathVersion           = "/v1/version"
	PathNodes             = "/v1/cluster/nodes/"
	PathFileSystem        = "/v1/file-system"
	PathCapacityHistory   = "/v1/analytics/capacity-history/"
	PathActivity          = "/v1/analytics/activity/current"
	PathConnections       = "/v2/network/connections/"
	PathNetworkStatus     = "/v3/network/status/"
	PathProtectionStatus  = "/v1/cluster/protection/status"
	PathRestriperStatus   = "/v1/cluster/restriper/status"
	PathChassis           = "/v1/cluster/nodes/chassis/"
	PathSlots             = "/v1/cluster/slots/"
	PathNodeState         = "/v1/node/state"
	PathRootAggregates    = "/v1/files/%2F/aggregates/"
	PathSnapshots         = "/v2/snapshots/"
	PathPortalHubs        = "/v2/portal/hubs/"
	PathPortalSpokes      = "/v2/portal/spokes/"
	PathReplSources       = "/v2/replication/source-relationships/"
	PathReplSourceStatus  = "/v2/replication/source-relationships/status/"
	PathReplTargetStatus  = "/v2/replication/target-relationships/status/"
	PathObjectRelations   = "/v3/replication/object-relationships/"
	PathObjectRelStatuses = "/v3/replication/object-relationships/status/"
	PathLogin             = "/v1/session/login"
	PathWhoAmI            = "/v1/session/who-am-i"
	PathAccessTokens      = "/v1/auth/access-tokens/"
)

func (c *Client) ClusterSettings(ctx context.Context) (*ClusterSettings, error) {
	var out ClusterSettings
	if err := c.getJSON(ctx, PathClusterSettings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := c.getJSON(ctx, PathVersion, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	var out []Node
	if err := c.getJSON(ctx, PathNodes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FileSystem(ctx context.Context) (*FileSystem, error) {
	var out FileSystem
	if err := c.getJSON(ctx, PathFileSystem, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CapacityHistory returns daily capacity samples since begin. The response
// only changes once a day, so it is served from the API cache when one is
// configured.
func (c *Client) CapacityHistory(ctx context.Context, begin time.Time, cacheTTL time.Duration) ([]CapacityHistoryPoint, error) {
	q := url.Values{}
	q.Set("begin-time", fmt.Sprintf("%d", begin.Unix()))
	q.Set("interval", "daily")
	path := PathCapacityHistory + "?" + q.Encode()

	body, err := c.GetCached(ctx, path, cacheTTL)
	if err != nil {
		return nil, err
	}
	var out []CapacityHistoryPoint
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", PathCapacityHistory, err)
	}
	return out, nil
}

func (c *Client) Activity(ctx context.Context) (*Activity, error) {
	var out Activity
	if err := c.getJSON(ctx, PathActivity, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NetworkConnections(ctx context.Context) ([]NodeConnections, error) {
	var out []NodeConnections
	if err := c.getJSON(ctx, PathConnections, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NetworkStatus(ctx context.Context) ([]NodeNetworkStatus, error) {
	var out []NodeNetworkStatus
	if err := c.getJSON(ctx, PathNetworkStatus, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProtectionStatus(ctx context.Context) (*ProtectionStatus, error) {
	var out ProtectionStatus
	if err := c.getJSON(ctx, PathProtectionStatus, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestriperStatus(ctx context.Context) (*RestriperStatus, error) {
	var out RestriperStatus
	if err := c.getJSON(ctx, PathRestriperStatus, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chassis(ctx context.Context) ([]Chassis, error) {
	var out []Chassis
	if err := c.getJSON(ctx, PathChassis, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Slots(ctx context.Context) ([]Slot, error) {
	var out []Slot
	if err := c.getJSON(ctx, PathSlots, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) NodeState(ctx context.Context) (*NodeState, error) {
	var out NodeState
	if err := c.getJSON(ctx, PathNodeState, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RootAggregates(ctx context.Context) (*FileAggregates, error) {
	var out FileAggregates
	if err := c.getJSON(ctx, PathRootAggregates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Snapshots(ctx context.Context) ([]Snapshot, error) {
	return getList[Snapshot](ctx, c, PathSnapshots)
}

// DirectoryEntries lists a directory by absolute path.
func (c *Client) DirectoryEntries(ctx context.Context, dir string) ([]DirectoryEntry, error) {
	path := "/v1/files/" + url.PathEscape(dir) + "/entries/"
	var page struct {
		Files  []DirectoryEntry `json:"files"`
		Paging struct {
			Next string `json:"next"`
		} `json:"paging"`
	}
	var all []DirectoryEntry
	for next := path; next != ""; next = relativeNext(page.Paging.Next) {
		page.Files, page.Paging.Next = nil, ""
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Files...)
	}
	return all, nil
}

func (c *Client) PortalHubs(ctx context.Context) ([]PortalHub, error) {
	return getList[PortalHub](ctx, c, PathPortalHubs)
}

func (c *Client) PortalSpokes(ctx context.Context) ([]PortalSpoke, error) {
	return getList[PortalSpoke](ctx, c, PathPortalSpokes)
}

func (c *Client) ReplicationSources(ctx context.Context) ([]ReplicationSource, error) {
	return getList[ReplicationSource](ctx, c, PathReplSources)
}

func (c *Client) ReplicationSourceStatuses(ctx context.Context) ([]ReplicationSourceStatus, error) {
	return getList[ReplicationSourceStatus](ctx, c, PathReplSourceStatus)
}

func (c *Client) ReplicationTargetStatuses(ctx context.Context) ([]ReplicationTargetStatus, error) {
	return getList[ReplicationTargetStatus](ctx, c, PathReplTargetStatus)
}

func (c *Client) ObjectRelationships(ctx context.Context) ([]ObjectRelationship, error) {
	return getList[ObjectRelationship](ctx, c, PathObjectRelations)
}

func (c *Client) ObjectRelationshipStatuses(ctx context.Context) ([]ObjectRelationshipStatus, error) {
	return getList[ObjectRelationshipStatus](ctx, c, PathObjectRelStatuses)
}
