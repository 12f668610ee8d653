package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fredericrous/qontrol/internal/model"
)

// BuildAlerts derives alerts from cluster signals, merges them with seed
// (connectivity) alerts and sorts by severity. The sort is stable, so
// within a severity seeds come first and cluster alerts keep collection
// order. Stale clusters only carry their connectivity alert.
func BuildAlerts(clusters []model.ClusterStatus, seed []model.Alert) []model.Alert {
	alerts := make([]model.Alert, 0, len(seed))
	alerts = append(alerts, seed...)
	for _, c := range clusters {
		if c.Stale {
			continue
		}
		alerts = append(alerts, clusterAlerts(c)...)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
	return alerts
}

func clusterAlerts(c model.ClusterStatus) []model.Alert {
	name := displayName(c.ClusterName, c.ProfileName)
	var out []model.Alert
	add := func(sev model.Severity, cat model.AlertCategory, msg string) {
		out = append(out, model.Alert{Severity: sev, ClusterName: name, Message: msg, Category: cat})
	}

	if c.Nodes.Online < c.Nodes.Total {
		if len(c.Nodes.OfflineIDs) > 0 {
			for _, id := range c.Nodes.OfflineIDs {
				add(model.SeverityCritical, model.CategoryNodeOffline, fmt.Sprintf("node %d: OFFLINE", id))
			}
		} else {
			add(model.SeverityCritical, model.CategoryNodeOffline,
				fmt.Sprintf("%d of %d nodes offline", c.Nodes.Total-c.Nodes.Online, c.Nodes.Total))
		}
	}

	h := c.Health
	if h.DataAtRisk {
		add(model.SeverityCritical, model.CategoryDataAtRisk, "data at risk: restriper is rebuilding unprotected data")
	}

	if h.DisksUnhealthy > 0 {
		msg := fmt.Sprintf("%d unhealthy disk(s)", h.DisksUnhealthy)
		if len(h.UnhealthyDiskDetails) > 0 {
			parts := make([]string, 0, len(h.UnhealthyDiskDetails))
			for _, d := range h.UnhealthyDiskDetails {
				parts = append(parts, fmt.Sprintf("node %d slot %d (%s)", d.NodeID, d.Slot, strings.ToLower(d.State)))
			}
			msg += ": " + strings.Join(parts, ", ")
		}
		add(model.SeverityWarning, model.CategoryDiskUnhealthy, msg)
	}

	if h.PSUsUnhealthy > 0 {
		if len(h.UnhealthyPSUDetails) > 0 {
			for _, p := range h.UnhealthyPSUDetails {
				add(model.SeverityWarning, model.CategoryPSUUnhealthy,
					fmt.Sprintf("node %d: PSU %s (%s) %s", p.NodeID, p.Name, p.Location, p.State))
			}
		} else {
			add(model.SeverityWarning, model.CategoryPSUUnhealthy, fmt.Sprintf("%d unhealthy PSU(s)", h.PSUsUnhealthy))
		}
	}

	if h.RemainingNodeFailures != nil && *h.RemainingNodeFailures == 0 {
		add(model.SeverityWarning, model.CategoryProtectionDegraded, "no remaining node failure tolerance")
	}
	if h.RemainingDriveFailures != nil && *h.RemainingDriveFailures == 0 {
		add(model.SeverityWarning, model.CategoryProtectionDegraded, "no remaining drive failure tolerance")
	}

	if p := c.Capacity.Projection; p != nil && p.DaysUntilFull != nil && *p.DaysUntilFull < warnDays(c.ClusterType) {
		add(model.SeverityWarning, model.CategoryCapacityProjection,
			fmt.Sprintf("projected full in %d days at %.2f TB/day (%s confidence)",
				*p.DaysUntilFull, p.GrowthRateBytesPerDay/1e12, p.Confidence))
	}
	return out
}
