package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/model"
)

func sampleEnv() *model.EnvironmentStatus {
	days := uint64(12)
	return &model.EnvironmentStatus{
		Timestamp: time.Unix(1_700_000_000, 0),
		Clusters: []model.ClusterStatus{
			{
				ProfileName: "prod", ClusterName: "gravytrain", Reachable: true, LatencyMs: 40,
				Nodes: model.NodeStatus{Total: 4, Online: 3},
				Capacity: model.CapacityStatus{
					TotalBytes: 100, UsedBytes: 60, FreeBytes: 40,
					Projection: &model.CapacityProjection{GrowthRateBytesPerDay: 1, DaysUntilFull: &days, Confidence: model.ConfidenceHigh},
				},
				Activity: model.ActivityStatus{ReadIOPS: 10, WriteIOPS: 5, ReadThroughputBps: 1000},
			},
			{ProfileName: "dr", ClusterName: "iss", Reachable: false, Stale: true},
		},
		Alerts: []model.Alert{
			{Severity: model.SeverityWarning},
			{Severity: model.SeverityWarning},
			{Severity: model.SeverityCritical},
		},
	}
}

func TestUpdate(t *testing.T) {
	f := New()
	f.Update(sampleEnv())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.Up.WithLabelValues("prod", "gravytrain")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.Up.WithLabelValues("dr", "iss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.Stale.WithLabelValues("dr", "iss")))
	assert.Equal(t, 60.0, testutil.ToFloat64(f.CapacityBytes.WithLabelValues("prod", "gravytrain", "used")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.Nodes.WithLabelValues("prod", "gravytrain", "offline")))
	assert.Equal(t, 12.0, testutil.ToFloat64(f.DaysUntilFull.WithLabelValues("prod", "gravytrain")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.Alerts.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.Alerts.WithLabelValues("critical")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.Alerts.WithLabelValues("info")))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(f.LastRun))
}

func TestUpdateDropsRemovedClusters(t *testing.T) {
	f := New()
	f.Update(sampleEnv())
	require.Equal(t, 2, testutil.CollectAndCount(f.Up))

	env := sampleEnv()
	env.Clusters = env.Clusters[:1]
	f.Update(env)
	assert.Equal(t, 1, testutil.CollectAndCount(f.Up))
}

func TestDaysUntilFullOnlyWhenProjected(t *testing.T) {
	f := New()
	env := sampleEnv()
	env.Clusters[0].Capacity.Projection = nil
	f.Update(env)
	assert.Equal(t, 0, testutil.CollectAndCount(f.DaysUntilFull))
}

func TestWriteTextfile(t *testing.T) {
	f := New()
	f.Update(sampleEnv())
	path := filepath.Join(t.TempDir(), "qontrol.prom")

	require.NoError(t, f.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `qontrol_cluster_up{cluster="gravytrain",profile="prod"} 1`)
	assert.Contains(t, string(data), `qontrol_alerts{severity="warning"} 2`)
}

func TestHandler(t *testing.T) {
	f := New()
	f.Update(sampleEnv())

	rec := httptest.NewRecorder()
	f.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "qontrol_capacity_bytes")
}
