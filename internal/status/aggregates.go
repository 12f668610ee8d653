package status

import "github.com/fredericrous/qontrol/internal/model"

// ComputeAggregates rolls clusters up into fleet totals. Node, capacity and
// file totals include stale clusters; activity and latency only count
// clusters that answered this run. unreachable is the number of failed
// probes, whether or not they were served from cache.
func ComputeAggregates(clusters []model.ClusterStatus, unreachable int) model.Aggregates {
	agg := model.Aggregates{
		ClusterCount:     len(clusters),
		UnreachableCount: unreachable,
	}
	for _, c := range clusters {
		if c.Stale {
			agg.StaleCount++
		}
		agg.TotalNodes += c.Nodes.Total
		agg.OnlineNodes += c.Nodes.Online

		agg.Capacity.TotalBytes += c.Capacity.TotalBytes
		agg.Capacity.UsedBytes += c.Capacity.UsedBytes
		agg.Capacity.FreeBytes += c.Capacity.FreeBytes
		agg.Capacity.SnapshotBytes += c.Capacity.SnapshotBytes

		agg.Files.TotalFiles += c.Files.TotalFiles
		agg.Files.TotalDirectories += c.Files.TotalDirectories
		agg.Files.TotalSnapshots += c.Files.TotalSnapshots

		if !c.Reachable {
			continue
		}
		agg.ReachableCount++
		agg.Activity.ReadIOPS += c.Activity.ReadIOPS
		agg.Activity.WriteIOPS += c.Activity.WriteIOPS
		agg.Activity.ReadThroughputBps += c.Activity.ReadThroughputBps
		agg.Activity.WriteThroughputBps += c.Activity.WriteThroughputBps
		agg.Activity.Connections += c.Activity.Connections

		lat := c.LatencyMs
		if agg.LatencyMinMs == nil || lat < *agg.LatencyMinMs {
			agg.LatencyMinMs = &lat
		}
		if agg.LatencyMaxMs == nil || lat > *agg.LatencyMaxMs {
			v := lat
			agg.LatencyMaxMs = &v
		}
	}
	agg.OfflineNodes = agg.TotalNodes - agg.OnlineNodes
	if agg.Capacity.TotalBytes > 0 {
		agg.Capacity.UsedPct = float64(agg.Capacity.UsedBytes) / float64(agg.Capacity.TotalBytes) * 100
	}
	return agg
}
