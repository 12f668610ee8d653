package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/model"
)

const (
	// historyWindow is how far back capacity history is fetched.
	historyWindow = 30 * 24 * time.Hour
	// historyCacheTTL covers daily samples; the newest point changes at
	// most once a day.
	historyCacheTTL = time.Hour

	// Below these rates a cluster is shown as idle.
	idleIOPS          = 1.0
	idleThroughputBps = 1024.0
)

// ProbeError is the per-cluster failure of a probe: the cluster is
// unreachable, or a required endpoint returned something unusable.
type ProbeError struct {
	Profile string
	Reason  string
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Profile, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Prober collects one ClusterStatus per profile.
type Prober struct {
	Timeout time.Duration
	// SampleInterval separates the two NIC reads. Zero means one second.
	SampleInterval time.Duration
	// APICache, when set, serves slow-changing responses such as capacity
	// history.
	APICache api.Cache
	// OnClusterUUID is called when a profile with no stored UUID learns
	// it. Calls come from concurrent probes; the callee serializes.
	OnClusterUUID func(profile, uuid string)

	now func() time.Time
}

func (p *Prober) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Probe queries one cluster. Settings, version and node list are
// required; every other signal is best-effort and degrades to zero or
// absence.
func (p *Prober) Probe(ctx context.Context, prof config.Profile) (model.ClusterStatus, error) {
	start := p.clock()
	client := api.New(api.Config{
		BaseURL:     prof.URL(),
		Token:       prof.Token,
		Insecure:    prof.Insecure,
		Timeout:     p.Timeout,
		ClusterUUID: prof.ClusterUUID,
		Cache:       p.APICache,
	})

	settings, err := client.ClusterSettings(ctx)
	if err != nil {
		return model.ClusterStatus{}, probeFailure(prof.Name, err)
	}
	version, err := client.Version(ctx)
	if err != nil {
		return model.ClusterStatus{}, probeFailure(prof.Name, err)
	}
	nodes, err := client.Nodes(ctx)
	if err != nil {
		return model.ClusterStatus{}, probeFailure(prof.Name, err)
	}
	latency := p.clock().Sub(start)

	st := model.ClusterStatus{
		ProfileName: prof.Name,
		ClusterName: settings.ClusterName,
		ClusterUUID: prof.ClusterUUID,
		Version:     version.RevisionID,
		ClusterType: DetectClusterType(nodes),
		Reachable:   true,
		LatencyMs:   uint64(latency.Milliseconds()),
		Nodes:       nodeStatus(nodes),
	}

	st.Capacity = p.capacity(ctx, client, prof.Name, prof.ClusterUUID != "")
	st.Activity = activity(ctx, client, prof.Name)
	st.Files = files(ctx, client, prof.Name)

	conns, err := client.NetworkConnections(ctx)
	if err != nil {
		degraded(prof.Name, api.PathConnections, err)
	}
	for _, c := range conns {
		st.Activity.Connections += len(c.Connections)
	}
	nics, err := sampleNICs(ctx, client.NetworkStatus, p.SampleInterval, st.ClusterType.IsCloud())
	if err != nil {
		degraded(prof.Name, api.PathNetworkStatus, err)
	}
	st.Nodes.PerNode = perNodeNetwork(nodes, conns, nics)

	st.Health = health(ctx, client, prof.Name)

	if st.ClusterUUID == "" {
		st.ClusterUUID = p.backfillUUID(ctx, client, prof.Name)
	}
	return st, nil
}

func probeFailure(profile string, err error) *ProbeError {
	return &ProbeError{Profile: profile, Reason: shortReason(err), Err: err}
}

// shortReason trims transport errors down to the part an operator can act
// on.
func shortReason(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("HTTP %d from %s", se.Code, se.Path)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "timed out"
		}
		var op *net.OpError
		if errors.As(ue.Err, &op) {
			return op.Err.Error()
		}
		return ue.Err.Error()
	}
	return err.Error()
}

func degraded(profile, endpoint string, err error) {
	slog.Warn("best-effort call failed", "profile", profile, "endpoint", endpoint, "error", err)
}

func nodeStatus(nodes []api.Node) model.NodeStatus {
	ns := model.NodeStatus{Total: len(nodes), OfflineIDs: []uint64{}}
	for _, n := range nodes {
		if n.Online() {
			ns.Online++
		} else {
			ns.OfflineIDs = append(ns.OfflineIDs, n.ID)
		}
	}
	return ns
}

func (p *Prober) capacity(ctx context.Context, client *api.Client, profile string, uuidKnown bool) model.CapacityStatus {
	var cs model.CapacityStatus
	fs, err := client.FileSystem(ctx)
	if err != nil {
		degraded(profile, api.PathFileSystem, err)
		return cs
	}
	cs.TotalBytes = uint64(fs.TotalSizeBytes)
	cs.FreeBytes = min(uint64(fs.FreeSizeBytes), cs.TotalBytes)
	cs.UsedBytes = cs.TotalBytes - cs.FreeBytes
	cs.SnapshotBytes = uint64(fs.SnapshotSizeBytes)
	if cs.TotalBytes > 0 {
		cs.UsedPct = float64(cs.UsedBytes) / float64(cs.TotalBytes) * 100
	}

	ttl := time.Duration(0)
	if uuidKnown {
		ttl = historyCacheTTL
	}
	// Truncated so the request path, and with it the cache key, is stable
	// within a day.
	begin := p.clock().Add(-historyWindow).Truncate(24 * time.Hour)
	history, err := client.CapacityHistory(ctx, begin, ttl)
	if err != nil {
		degraded(profile, api.PathCapacityHistory, err)
		return cs
	}
	cs.Projection = ProjectCapacity(HistoryPoints(history), cs.UsedBytes, cs.TotalBytes)
	return cs
}

func activity(ctx context.Context, client *api.Client, profile string) model.ActivityStatus {
	var as model.ActivityStatus
	act, err := client.Activity(ctx)
	if err != nil {
		degraded(profile, api.PathActivity, err)
		as.IsIdle = true
		return as
	}
	for _, e := range act.Entries {
		rate := float64(e.Rate)
		switch e.Type {
		case api.ActivityFileIOPSRead, api.ActivityMetadataIOPSRead:
			as.ReadIOPS += rate
		case api.ActivityFileIOPSWrite, api.ActivityMetadataIOPSWrite:
			as.WriteIOPS += rate
		case api.ActivityFileThroughputRead:
			as.ReadThroughputBps += rate
		case api.ActivityFileThroughputWrite:
			as.WriteThroughputBps += rate
		}
	}
	as.IsIdle = as.ReadIOPS+as.WriteIOPS < idleIOPS &&
		as.ReadThroughputBps+as.WriteThroughputBps < idleThroughputBps
	return as
}

func files(ctx context.Context, client *api.Client, profile string) model.FileStats {
	var fst model.FileStats
	if agg, err := client.RootAggregates(ctx); err != nil {
		degraded(profile, api.PathRootAggregates, err)
	} else {
		fst.TotalFiles = uint64(agg.TotalFiles)
		fst.TotalDirectories = uint64(agg.TotalDirectories)
	}
	if snaps, err := client.Snapshots(ctx); err != nil {
		degraded(profile, api.PathSnapshots, err)
	} else {
		fst.TotalSnapshots = uint64(len(snaps))
	}
	return fst
}

func health(ctx context.Context, client *api.Client, profile string) model.HealthStatus {
	var in healthInputs
	var err error
	if in.protection, err = client.ProtectionStatus(ctx); err != nil {
		degraded(profile, api.PathProtectionStatus, err)
	}
	if in.restriper, err = client.RestriperStatus(ctx); err != nil {
		degraded(profile, api.PathRestriperStatus, err)
	}
	if in.chassis, err = client.Chassis(ctx); err != nil {
		degraded(profile, api.PathChassis, err)
	}
	if in.slots, err = client.Slots(ctx); err != nil {
		degraded(profile, api.PathSlots, err)
	}
	return deriveHealth(in)
}

// backfillUUID asks the node for its cluster id. Failures leave the UUID
// empty.
func (p *Prober) backfillUUID(ctx context.Context, client *api.Client, profile string) string {
	state, err := client.NodeState(ctx)
	if err != nil {
		slog.Debug("cluster uuid backfill failed", "profile", profile, "error", err)
		return ""
	}
	id := model.NormalizeUUID(state.ClusterID)
	if id == "" {
		return ""
	}
	client.SetClusterUUID(id)
	if p.OnClusterUUID != nil {
		p.OnClusterUUID(profile, id)
	}
	return id
}
