package status

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

// DefaultSampleInterval separates the two network-status reads used to
// derive NIC throughput.
const DefaultSampleInterval = time.Second

const connectionTypePrefix = "CONNECTION_TYPE_"

// nicReading is the primary frontend interface of one node at one instant.
type nicReading struct {
	bytes     uint64 // sent + received
	speedMbps uint64
}

// primaryDevice picks the interface that carries client traffic: a
// frontend-only device, then a shared one, then bond0, eth0, and finally
// whatever is listed first.
func primaryDevice(devices []api.NetworkDevice) (api.NetworkDevice, bool) {
	if len(devices) == 0 {
		return api.NetworkDevice{}, false
	}
	prefs := []func(api.NetworkDevice) bool{
		func(d api.NetworkDevice) bool { return useFor(d) == "FRONTEND" },
		func(d api.NetworkDevice) bool { return useFor(d) == "FRONTEND_AND_BACKEND" },
		func(d api.NetworkDevice) bool { return d.Name == "bond0" },
		func(d api.NetworkDevice) bool { return d.Name == "eth0" },
	}
	for _, match := range prefs {
		for _, d := range devices {
			if match(d) {
				return d, true
			}
		}
	}
	return devices[0], true
}

func useFor(d api.NetworkDevice) string {
	v := strings.ToUpper(strings.TrimSpace(d.NetworkDetails.UseFor))
	return strings.TrimPrefix(v, "NETWORK_USE_FOR_")
}

func readNICs(statuses []api.NodeNetworkStatus) map[uint64]nicReading {
	out := make(map[uint64]nicReading, len(statuses))
	for _, st := range statuses {
		d, ok := primaryDevice(st.Devices)
		if !ok {
			continue
		}
		out[st.NodeID] = nicReading{
			bytes:     uint64(d.BytesSent) + uint64(d.BytesReceived),
			speedMbps: uint64(d.Speed),
		}
	}
	return out
}

// nicSample is the derived per-node measurement.
type nicSample struct {
	throughputBps *float64
	linkSpeedBps  *uint64
	utilPct       *float64
}

// sampleNICs reads network status twice, interval apart, and derives
// per-node throughput. A failed first read yields nothing; a failed or
// cancelled second read yields link speed only. Link speed is never
// reported for cloud clusters.
func sampleNICs(ctx context.Context, fetch func(context.Context) ([]api.NodeNetworkStatus, error), interval time.Duration, cloud bool) (map[uint64]nicSample, error) {
	first, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	before := readNICs(first)

	out := make(map[uint64]nicSample, len(before))
	for id, r := range before {
		out[id] = nicSample{linkSpeedBps: linkSpeed(r, cloud)}
	}

	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return out, nil
	case <-timer.C:
	}

	second, err := fetch(ctx)
	if err != nil {
		return out, nil
	}
	for id, r2 := range readNICs(second) {
		r1, ok := before[id]
		if !ok || r2.bytes < r1.bytes {
			// New node or counter reset: no meaningful delta.
			continue
		}
		tp := float64(r2.bytes-r1.bytes) * 8 / interval.Seconds()
		s := out[id]
		s.throughputBps = &tp
		if s.linkSpeedBps != nil && *s.linkSpeedBps > 0 {
			util := tp / float64(*s.linkSpeedBps) * 100
			s.utilPct = &util
		}
		out[id] = s
	}
	return out, nil
}

func linkSpeed(r nicReading, cloud bool) *uint64 {
	if cloud || r.speedMbps == 0 {
		return nil
	}
	bps := r.speedMbps * 1_000_000
	return &bps
}

// perNodeNetwork merges the node list, connection counts and NIC samples
// into one entry per node, ordered by node id.
func perNodeNetwork(nodes []api.Node, conns []api.NodeConnections, nics map[uint64]nicSample) []model.NodeNetworkInfo {
	byNode := make(map[uint64]api.NodeConnections, len(conns))
	for _, c := range conns {
		byNode[c.ID] = c
	}

	out := make([]model.NodeNetworkInfo, 0, len(nodes))
	for _, n := range nodes {
		info := model.NodeNetworkInfo{NodeID: n.ID, ConnectionBreakdown: map[string]int{}}
		for _, c := range byNode[n.ID].Connections {
			info.Connections++
			info.ConnectionBreakdown[api.StripEnumPrefix(c.Type, connectionTypePrefix)]++
		}
		if s, ok := nics[n.ID]; ok {
			info.NICThroughputBps = s.throughputBps
			info.NICLinkSpeedBps = s.linkSpeedBps
			info.NICUtilizationPct = s.utilPct
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
