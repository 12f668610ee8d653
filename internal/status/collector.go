package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fredericrous/qontrol/internal/cache"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/model"
)

// ProbeFunc produces the status of one profile.
type ProbeFunc func(ctx context.Context, prof config.Profile) (model.ClusterStatus, error)

// Collector fans probes out across the working set and folds the results,
// cached fallbacks and alerts into one EnvironmentStatus.
type Collector struct {
	Probe ProbeFunc
	// Cache is the status fallback store. Nil behaves like NoCache.
	Cache   *cache.Store
	NoCache bool

	now func() time.Time
}

type probeResult struct {
	status model.ClusterStatus
	err    error
}

// Collect probes every profile in parallel. Output clusters follow the
// order of profiles, not completion order. Per-cluster failures become
// alerts; only an empty working set is an error.
func (c *Collector) Collect(ctx context.Context, profiles []config.Profile) (*model.EnvironmentStatus, error) {
	if len(profiles) == 0 {
		return nil, config.ErrNoProfiles
	}

	results := make([]probeResult, len(profiles))
	var g errgroup.Group
	for i, prof := range profiles {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("probe panicked", "profile", prof.Name, "panic", r)
					results[i] = probeResult{err: &ProbeError{Profile: prof.Name, Reason: "thread panicked"}}
				}
			}()
			st, err := c.Probe(ctx, prof)
			results[i] = probeResult{status: st, err: err}
			return nil
		})
	}
	_ = g.Wait()

	useCache := c.Cache != nil && !c.NoCache
	var (
		clusters    []model.ClusterStatus
		seed        []model.Alert
		unreachable int
	)
	for i, res := range results {
		name := profiles[i].Name
		if res.err == nil {
			st := res.status
			st.Reachable = true
			st.Stale = false
			if useCache {
				c.Cache.Write(name, st)
			}
			clusters = append(clusters, st)
			continue
		}

		unreachable++
		reason := res.err.Error()
		if pe, ok := res.err.(*ProbeError); ok {
			reason = pe.Reason
		}
		slog.Info("cluster unreachable", "profile", name, "reason", reason)

		if useCache {
			if cached, ok := c.Cache.Read(name); ok {
				st := cached.Data
				st.ProfileName = name
				st.Reachable = false
				st.Stale = true
				clusters = append(clusters, st)
				seed = append(seed, model.Alert{
					Severity:    model.SeverityWarning,
					ClusterName: displayName(st.ClusterName, name),
					Message:     fmt.Sprintf("unreachable (%s); showing cached data from %s", reason, cached.CachedAt),
					Category:    model.CategoryConnectivity,
				})
				continue
			}
		}
		seed = append(seed, model.Alert{
			Severity:    model.SeverityCritical,
			ClusterName: name,
			Message:     fmt.Sprintf("unreachable: %s", reason),
			Category:    model.CategoryConnectivity,
		})
	}

	if clusters == nil {
		clusters = []model.ClusterStatus{}
	}
	return &model.EnvironmentStatus{
		Timestamp:  c.clock().UTC(),
		Aggregates: ComputeAggregates(clusters, unreachable),
		Alerts:     BuildAlerts(clusters, seed),
		Clusters:   clusters,
	}, nil
}

func (c *Collector) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func displayName(clusterName, profile string) string {
	if clusterName != "" {
		return clusterName
	}
	return profile
}
