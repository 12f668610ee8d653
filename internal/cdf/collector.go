// Package cdf maps the cross-cluster data fabric: portals, file
// replication and object replication between the clusters of a fleet.
package cdf

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/model"
)

// ClusterData is one cluster's identity and its view of every
// relationship it takes part in.
type ClusterData struct {
	ProfileName string
	ClusterName string
	UUID        string
	Address     string

	PortalHubs                 []api.PortalHub
	PortalSpokes               []api.PortalSpoke
	ReplicationSources         []api.ReplicationSource
	ReplicationSourceStatuses  []api.ReplicationSourceStatus
	ReplicationTargetStatuses  []api.ReplicationTargetStatus
	ObjectRelationships        []api.ObjectRelationship
	ObjectRelationshipStatuses []api.ObjectRelationshipStatus
}

// Collector gathers relationship data from every profile in parallel.
type Collector struct {
	Timeout  time.Duration
	APICache api.Cache
}

// Collect returns one ClusterData per profile, in profile order. It never
// fails: unreachable clusters contribute their profile identity and empty
// lists.
func (c *Collector) Collect(ctx context.Context, profiles []config.Profile) []ClusterData {
	out := make([]ClusterData, len(profiles))
	var g errgroup.Group
	for i, prof := range profiles {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("cdf collection panicked", "profile", prof.Name, "panic", r)
					out[i] = fallbackIdentity(prof)
				}
			}()
			out[i] = c.collectOne(ctx, prof)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fallbackIdentity(prof config.Profile) ClusterData {
	return ClusterData{ProfileName: prof.Name, ClusterName: prof.Name, Address: prof.Host}
}

func (c *Collector) collectOne(ctx context.Context, prof config.Profile) ClusterData {
	client := api.New(api.Config{
		BaseURL:     prof.URL(),
		Token:       prof.Token,
		Insecure:    prof.Insecure,
		Timeout:     c.Timeout,
		ClusterUUID: prof.ClusterUUID,
		Cache:       c.APICache,
	})

	d := fallbackIdentity(prof)
	settings, err := client.ClusterSettings(ctx)
	if err != nil {
		slog.Warn("cluster identity unavailable, using profile", "profile", prof.Name, "error", err)
	} else {
		if settings.ClusterName != "" {
			d.ClusterName = settings.ClusterName
		}
		d.UUID = model.NormalizeUUID(prof.ClusterUUID)
		if d.UUID == "" {
			if st, err := client.NodeState(ctx); err == nil {
				d.UUID = model.NormalizeUUID(st.ClusterID)
			}
		}
	}

	d.PortalHubs = fetchList(ctx, prof.Name, api.PathPortalHubs, client.PortalHubs)
	d.PortalSpokes = fetchList(ctx, prof.Name, api.PathPortalSpokes, client.PortalSpokes)
	d.ReplicationSources = fetchList(ctx, prof.Name, api.PathReplSources, client.ReplicationSources)
	d.ReplicationSourceStatuses = fetchList(ctx, prof.Name, api.PathReplSourceStatus, client.ReplicationSourceStatuses)
	d.ReplicationTargetStatuses = fetchList(ctx, prof.Name, api.PathReplTargetStatus, client.ReplicationTargetStatuses)
	d.ObjectRelationships = fetchList(ctx, prof.Name, api.PathObjectRelations, client.ObjectRelationships)
	d.ObjectRelationshipStatuses = fetchList(ctx, prof.Name, api.PathObjectRelStatuses, client.ObjectRelationshipStatuses)
	return d
}

// fetchList runs one list fetch, turning a failure into an empty list and
// a warning.
func fetchList[T any](ctx context.Context, profile, endpoint string, fetch func(context.Context) ([]T, error)) []T {
	items, err := fetch(ctx)
	if err != nil {
		slog.Warn("cdf endpoint failed", "profile", profile, "endpoint", endpoint, "error", err)
		return nil
	}
	return items
}

// normAddress is the interning key of a host name or address.
func normAddress(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}
