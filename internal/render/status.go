package render

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fredericrous/qontrol/internal/model"
	"github.com/fredericrous/qontrol/internal/versions"
)

// Status writes the fleet report: header, aggregates, alerts, the cluster
// table and the version summary.
func Status(w io.Writer, env *model.EnvironmentStatus) {
	fmt.Fprintln(w, titleStyle.Render("qontrol fleet status"))
	fmt.Fprintln(w, dimStyle.Render(env.Timestamp.Local().Format(time.RFC1123)))
	fmt.Fprintln(w)

	Aggregates(w, env.Aggregates)
	fmt.Fprintln(w)
	Alerts(w, env.Alerts)
	fmt.Fprintln(w)

	if len(env.Clusters) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No cluster data."))
		return
	}
	Clusters(w, env.Clusters)
	fmt.Fprintln(w)
	Versions(w, versions.Summary(env.Clusters))
}

// Aggregates writes the fleet rollup lines.
func Aggregates(w io.Writer, a model.Aggregates) {
	fmt.Fprintln(w, sectionStyle.Render("Fleet"))

	clusters := fmt.Sprintf("%d clusters: %d reachable", a.ClusterCount, a.ReachableCount)
	if a.StaleCount > 0 {
		clusters += fmt.Sprintf(", %d cached", a.StaleCount)
	}
	if a.UnreachableCount > 0 {
		clusters += ", " + criticalStyle.Render(fmt.Sprintf("%d unreachable", a.UnreachableCount))
	}
	fmt.Fprintln(w, "  "+clusters)

	nodes := fmt.Sprintf("%d nodes: %d online", a.TotalNodes, a.OnlineNodes)
	if a.OfflineNodes > 0 {
		nodes += ", " + criticalStyle.Render(fmt.Sprintf("%d offline", a.OfflineNodes))
	}
	fmt.Fprintln(w, "  "+nodes)

	c := a.Capacity
	fmt.Fprintf(w, "  capacity: %s used of %s (%s), %s free, %s in snapshots\n",
		Bytes(c.UsedBytes), Bytes(c.TotalBytes), pct(c.UsedPct), Bytes(c.FreeBytes), Bytes(c.SnapshotBytes))

	act := a.Activity
	fmt.Fprintf(w, "  activity: %s read / %s write IOPS, %s read / %s write, %d connections\n",
		iops(act.ReadIOPS), iops(act.WriteIOPS), Rate(act.ReadThroughputBps), Rate(act.WriteThroughputBps), act.Connections)

	fmt.Fprintf(w, "  files: %d files, %d directories, %d snapshots\n",
		a.Files.TotalFiles, a.Files.TotalDirectories, a.Files.TotalSnapshots)

	if a.LatencyMinMs != nil && a.LatencyMaxMs != nil {
		fmt.Fprintf(w, "  latency: %d-%d ms\n", *a.LatencyMinMs, *a.LatencyMaxMs)
	}
}

// Alerts writes one line per alert, already sorted by severity.
func Alerts(w io.Writer, alerts []model.Alert) {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Alerts (%d)", len(alerts))))
	if len(alerts) == 0 {
		fmt.Fprintln(w, "  "+okStyle.Render("no alerts"))
		return
	}
	for _, a := range alerts {
		sev := severityStyle(a.Severity).Render(fmt.Sprintf("%-8s", strings.ToUpper(string(a.Severity))))
		fmt.Fprintf(w, "  %s %s: %s\n", sev, a.ClusterName, a.Message)
	}
}

// Clusters writes the per-cluster table.
func Clusters(w io.Writer, clusters []model.ClusterStatus) {
	t := newTable("CLUSTER", "TYPE", "VERSION", "NODES", "USED", "TOTAL", "IOPS R/W", "THROUGHPUT R/W", "CONN", "LATENCY", "FULL IN")
	for _, c := range clusters {
		name := c.ClusterName
		if c.Stale {
			name += " " + dimStyle.Render("(cached)")
		}
		nodes := fmt.Sprintf("%d/%d", c.Nodes.Online, c.Nodes.Total)
		if c.Nodes.Online < c.Nodes.Total {
			nodes = criticalStyle.Render(nodes)
		}
		t.Row(
			name,
			c.ClusterType.String(),
			orDash(c.Version),
			nodes,
			fmt.Sprintf("%s (%s)", Bytes(c.Capacity.UsedBytes), pct(c.Capacity.UsedPct)),
			Bytes(c.Capacity.TotalBytes),
			iops(c.Activity.ReadIOPS)+"/"+iops(c.Activity.WriteIOPS),
			Rate(c.Activity.ReadThroughputBps)+"/"+Rate(c.Activity.WriteThroughputBps),
			strconv.Itoa(c.Activity.Connections),
			latency(c),
			fullIn(c.Capacity.Projection),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func latency(c model.ClusterStatus) string {
	if c.Stale {
		return "-"
	}
	return fmt.Sprintf("%dms", c.LatencyMs)
}

func fullIn(p *model.CapacityProjection) string {
	if p == nil || p.DaysUntilFull == nil {
		return "-"
	}
	s := fmt.Sprintf("%dd", *p.DaysUntilFull)
	if p.Confidence == model.ConfidenceLow {
		s += "?"
	}
	return s
}

// Versions writes the distinct software versions, newest first.
func Versions(w io.Writer, groups []versions.Group) {
	fmt.Fprintln(w, sectionStyle.Render("Versions"))
	if len(groups) == 0 {
		fmt.Fprintln(w, "  "+dimStyle.Render("no version data"))
		return
	}
	for _, g := range groups {
		line := fmt.Sprintf("  %s: %s", g.Version, strings.Join(g.Clusters, ", "))
		if g.Latest {
			line += " " + okStyle.Render("(latest)")
		}
		fmt.Fprintln(w, line)
	}
}

// ClusterDetail writes everything known about a single cluster.
func ClusterDetail(w io.Writer, c model.ClusterStatus) {
	fmt.Fprintln(w, titleStyle.Render(c.ClusterName))
	rows := [][2]string{
		{"Profile", c.ProfileName},
		{"UUID", orDash(c.ClusterUUID)},
		{"Version", orDash(c.Version)},
		{"Type", c.ClusterType.String()},
		{"Nodes", fmt.Sprintf("%d/%d online", c.Nodes.Online, c.Nodes.Total)},
		{"Capacity", fmt.Sprintf("%s used of %s (%s)", Bytes(c.Capacity.UsedBytes), Bytes(c.Capacity.TotalBytes), pct(c.Capacity.UsedPct))},
		{"Snapshots", fmt.Sprintf("%d (%s)", c.Files.TotalSnapshots, Bytes(c.Capacity.SnapshotBytes))},
		{"Files", fmt.Sprintf("%d files, %d directories", c.Files.TotalFiles, c.Files.TotalDirectories)},
		{"Protection", orDash(deref(c.Health.ProtectionType))},
		{"Tolerance", fmt.Sprintf("%s node(s), %s drive(s)", ptrInt(c.Health.RemainingNodeFailures), ptrInt(c.Health.RemainingDriveFailures))},
	}
	if p := c.Capacity.Projection; p != nil {
		rows = append(rows, [2]string{"Growth", fmt.Sprintf("%s/day, full in %s (%s confidence)",
			Bytes(uint64(p.GrowthRateBytesPerDay)), fullIn(p), p.Confidence)})
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-11s %s\n", r[0]+":", r[1])
	}

	if len(c.Nodes.PerNode) > 0 {
		fmt.Fprintln(w)
		t := newTable("NODE", "CONNECTIONS", "BREAKDOWN", "NIC", "LINK", "UTIL")
		for _, n := range c.Nodes.PerNode {
			t.Row(
				strconv.FormatUint(n.NodeID, 10),
				strconv.Itoa(n.Connections),
				breakdown(n.ConnectionBreakdown),
				optBits(n.NICThroughputBps),
				optLink(n.NICLinkSpeedBps),
				optPct(n.NICUtilizationPct),
			)
		}
		fmt.Fprintln(w, t.Render())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func breakdown(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func optBits(v *float64) string {
	if v == nil {
		return "-"
	}
	return Bits(*v)
}

func optLink(v *uint64) string {
	if v == nil {
		return "-"
	}
	return Bits(float64(*v))
}

func optPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return pct(*v)
}
