package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/model"
)

func fleet() *model.EnvironmentStatus {
	return &model.EnvironmentStatus{
		Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Alerts:    []model.Alert{},
		Clusters: []model.ClusterStatus{{
			ProfileName: "prod", ClusterName: "alpha", Version: "7.2.3", Reachable: true,
			ClusterType: model.OnPrem(nil),
			Capacity:    model.CapacityStatus{TotalBytes: 10e12, UsedBytes: 4e12},
		}},
	}
}

func fabric() cdf.Graph {
	return cdf.Graph{
		Nodes: []model.CdfNode{
			model.ProfiledCluster("alpha", "u-a", "10.0.0.1"),
			model.ProfiledCluster("beta", "u-b", "10.0.0.2"),
			model.UnknownCluster("10.9.9.9", ""),
		},
		Edges: []model.CdfEdge{
			{From: 0, To: 1, Kind: model.EdgePortal, Portal: &model.PortalEdge{}},
			{From: 1, To: 2, Kind: model.EdgeReplication, Replication: &model.ReplicationEdge{SourcePath: "/a", TargetPath: "/b"}},
		},
	}
}

func newTestServer(t *testing.T, statusErr error) (*Server, *int) {
	t.Helper()
	recorded := 0
	s, err := New(Config{
		Status: func(context.Context) (*model.EnvironmentStatus, error) {
			if statusErr != nil {
				return nil, statusErr
			}
			return fleet(), nil
		},
		Fabric: func(context.Context) (cdf.Graph, error) { return fabric(), nil },
		Recorder: func(context.Context, *model.EnvironmentStatus) error {
			recorded++
			return nil
		},
	})
	require.NoError(t, err)
	return s, &recorded
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewRequiresCollectors(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestInitializingBeforeFirstRefresh(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/status").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/cdf").Code)
}

func TestServesLastSnapshot(t *testing.T) {
	s, recorded := newTestServer(t, nil)
	s.refresh(context.Background())
	h := s.Handler()

	assert.Equal(t, 1, *recorded)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/health").Code)

	rec := get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var env model.EnvironmentStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Clusters, 1)
	assert.Equal(t, "alpha", env.Clusters[0].ClusterName)

	rec = get(t, h, "/api/cdf")
	require.Equal(t, http.StatusOK, rec.Code)
	var g struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
}

func TestFabricPrunedByQuery(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.refresh(context.Background())

	rec := get(t, s.Handler(), "/api/cdf?cluster=alpha")
	require.Equal(t, http.StatusOK, rec.Code)
	var g struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestDiagramsAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.refresh(context.Background())
	h := s.Handler()

	rec := get(t, h, "/api/diagrams")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Diagrams []model.DiagramResult `json:"diagrams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	ids := make([]string, 0, len(resp.Diagrams))
	for _, d := range resp.Diagrams {
		ids = append(ids, d.ID)
	}
	assert.Contains(t, ids, "fabric")

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `qontrol_cluster_up{cluster="alpha",profile="prod"} 1`)
}

func TestFailedRefreshKeepsPrevious(t *testing.T) {
	s, recorded := newTestServer(t, nil)
	s.refresh(context.Background())

	s.cfg.Status = func(context.Context) (*model.EnvironmentStatus, error) {
		return nil, errors.New("no profiles configured")
	}
	s.refresh(context.Background())

	assert.Equal(t, 1, *recorded)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/status").Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/status", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
