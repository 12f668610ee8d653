package cdf

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredericrous/qontrol/internal/model"
)

func TestGraphJSON(t *testing.T) {
	g := Build(portalPair())

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Nodes, 2)
	assert.Equal(t, float64(0), decoded.Nodes[0]["id"])
	assert.Equal(t, "profiled_cluster", decoded.Nodes[0]["kind"])
	assert.Equal(t, "A", decoded.Nodes[0]["name"])
	require.Len(t, decoded.Edges, 1)
	assert.Equal(t, float64(0), decoded.Edges[0]["from"])
	assert.Equal(t, float64(1), decoded.Edges[0]["to"])
	assert.Equal(t, "portal", decoded.Edges[0]["kind"])
}

func TestGraphJSONNodeShapes(t *testing.T) {
	region := "eu-west-1"
	g := Graph{Nodes: []model.CdfNode{
		model.ProfiledCluster("O", "", "10.0.0.9"),
		model.ObjectBucket("s3", "bk", nil),
		model.ObjectBucket("s3", "logs", &region),
		model.UnknownCluster("10.9.9.9", ""),
		model.UnknownCluster("", uuidB),
	}}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Nodes, 5)

	tests := []struct {
		name string
		want string
	}{
		{"profiled without uuid", `{"id":0,"kind":"profiled_cluster","name":"O","uuid":null,"address":"10.0.0.9"}`},
		{"bucket without region", `{"id":1,"kind":"object_bucket","address":"s3","bucket":"bk","region":null}`},
		{"bucket with region", `{"id":2,"kind":"object_bucket","address":"s3","bucket":"logs","region":"eu-west-1"}`},
		{"unknown by address", `{"id":3,"kind":"unknown_cluster","address":"10.9.9.9","uuid":null}`},
		{"unknown by uuid", `{"id":4,"kind":"unknown_cluster","address":"","uuid":"` + uuidB + `"}`},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(decoded.Nodes[i]))
		})
	}
}

func TestEmptyGraphJSON(t *testing.T) {
	data, err := json.Marshal(Graph{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(data))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, Build(replicationPair())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "node 0 profiled_cluster A uuid="+uuidA+" address=10.0.0.1", lines[0])
	assert.Equal(t, "edge replication A -> B [/data=>/replica mode=REPLICATION_CONTINUOUS state=ESTABLISHED]", lines[2])
}
