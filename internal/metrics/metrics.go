// Package metrics exposes the fleet status as Prometheus gauges, either
// scraped from `qontrol serve` or written as a node_exporter textfile.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fredericrous/qontrol/internal/model"
)

const namespace = "qontrol"

// Fleet holds the gauges of one collection run. Each Update resets the
// per-cluster vectors so clusters removed from the working set disappear.
type Fleet struct {
	registry *prometheus.Registry

	Up            *prometheus.GaugeVec
	Stale         *prometheus.GaugeVec
	LatencyMs     *prometheus.GaugeVec
	CapacityBytes *prometheus.GaugeVec
	Nodes         *prometheus.GaugeVec
	IOPS          *prometheus.GaugeVec
	Throughput    *prometheus.GaugeVec
	DaysUntilFull *prometheus.GaugeVec
	Alerts        *prometheus.GaugeVec
	LastRun       prometheus.Gauge
}

// New creates a Fleet registered on its own registry.
func New() *Fleet {
	clusterLabels := []string{"profile", "cluster"}
	f := &Fleet{
		registry: prometheus.NewRegistry(),
		Up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "up",
			Help: "1 if the cluster answered during the last run",
		}, clusterLabels),
		Stale: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "stale",
			Help: "1 if the cluster is shown from the status cache",
		}, clusterLabels),
		LatencyMs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "latency_milliseconds",
			Help: "Round-trip time of the first API call",
		}, clusterLabels),
		CapacityBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "capacity", Name: "bytes",
			Help: "Cluster capacity by kind (total, used, free, snapshot)",
		}, append(clusterLabels, "kind")),
		Nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cluster", Name: "nodes",
			Help: "Node count by state (online, offline)",
		}, append(clusterLabels, "state")),
		IOPS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "activity", Name: "iops",
			Help: "Operations per second by direction",
		}, append(clusterLabels, "direction")),
		Throughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "activity", Name: "throughput_bytes_per_second",
			Help: "Throughput by direction",
		}, append(clusterLabels, "direction")),
		DaysUntilFull: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "capacity", Name: "days_until_full",
			Help: "Projected days until the cluster is full, when growing",
		}, clusterLabels),
		Alerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "alerts",
			Help: "Active alerts by severity",
		}, []string{"severity"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time of the last collection",
		}),
	}
	f.registry.MustRegister(
		f.Up, f.Stale, f.LatencyMs, f.CapacityBytes, f.Nodes,
		f.IOPS, f.Throughput, f.DaysUntilFull, f.Alerts, f.LastRun,
	)
	return f
}

// Registry returns the registry the gauges live on.
func (f *Fleet) Registry() *prometheus.Registry { return f.registry }

// Update replaces every gauge with the values of env.
func (f *Fleet) Update(env *model.EnvironmentStatus) {
	for _, v := range []*prometheus.GaugeVec{
		f.Up, f.Stale, f.LatencyMs, f.CapacityBytes, f.Nodes,
		f.IOPS, f.Throughput, f.DaysUntilFull, f.Alerts,
	} {
		v.Reset()
	}
	if env == nil {
		return
	}
	f.LastRun.Set(float64(env.Timestamp.Unix()))

	for _, c := range env.Clusters {
		p, n := c.ProfileName, c.ClusterName
		f.Up.WithLabelValues(p, n).Set(boolGauge(c.Reachable && !c.Stale))
		f.Stale.WithLabelValues(p, n).Set(boolGauge(c.Stale))
		f.LatencyMs.WithLabelValues(p, n).Set(float64(c.LatencyMs))

		f.CapacityBytes.WithLabelValues(p, n, "total").Set(float64(c.Capacity.TotalBytes))
		f.CapacityBytes.WithLabelValues(p, n, "used").Set(float64(c.Capacity.UsedBytes))
		f.CapacityBytes.WithLabelValues(p, n, "free").Set(float64(c.Capacity.FreeBytes))
		f.CapacityBytes.WithLabelValues(p, n, "snapshot").Set(float64(c.Capacity.SnapshotBytes))

		f.Nodes.WithLabelValues(p, n, "online").Set(float64(c.Nodes.Online))
		f.Nodes.WithLabelValues(p, n, "offline").Set(float64(c.Nodes.Total - c.Nodes.Online))

		f.IOPS.WithLabelValues(p, n, "read").Set(c.Activity.ReadIOPS)
		f.IOPS.WithLabelValues(p, n, "write").Set(c.Activity.WriteIOPS)
		f.Throughput.WithLabelValues(p, n, "read").Set(c.Activity.ReadThroughputBps)
		f.Throughput.WithLabelValues(p, n, "write").Set(c.Activity.WriteThroughputBps)

		if proj := c.Capacity.Projection; proj != nil && proj.DaysUntilFull != nil {
			f.DaysUntilFull.WithLabelValues(p, n).Set(float64(*proj.DaysUntilFull))
		}
	}

	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo} {
		f.Alerts.WithLabelValues(string(sev)).Set(0)
	}
	for _, a := range env.Alerts {
		f.Alerts.WithLabelValues(string(a.Severity)).Inc()
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (f *Fleet) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, f.registry)
}

// Handler serves the registry for scraping.
func (f *Fleet) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
