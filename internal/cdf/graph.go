package cdf

import (
	"log/slog"
	"strings"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

// Graph is a directed multigraph. Edges reference nodes by index into
// Nodes.
type Graph struct {
	Nodes []model.CdfNode `json:"nodes"`
	Edges []model.CdfEdge `json:"edges"`
}

// portalKey identifies one portal report: the unordered node pair plus the
// relationship id as known on the reporting node.
type portalKey struct {
	lo, hi   int
	reporter int
	id       uint64
}

// replKey identifies one replication relationship regardless of which
// side reported it.
type replKey struct {
	lo, hi         int
	loPath, hiPath string
}

type bucketKey struct {
	address, bucket string
}

type builder struct {
	g         Graph
	clusters  []ClusterData
	byAddress map[string]int
	byUUID    map[string]int
	byBucket  map[bucketKey]int
	// clusterAt maps a profiled node index to its ClusterData.
	clusterAt map[int]int

	portalSeen map[portalKey]bool
	replSeen   map[replKey]bool
}

// Build folds per-cluster relationship lists into one deduplicated graph.
// It is deterministic: the same input always yields the same graph.
func Build(clusters []ClusterData) Graph {
	b := &builder{
		g:          Graph{Nodes: []model.CdfNode{}, Edges: []model.CdfEdge{}},
		clusters:   clusters,
		byAddress:  map[string]int{},
		byUUID:     map[string]int{},
		byBucket:   map[bucketKey]int{},
		clusterAt:  map[int]int{},
		portalSeen: map[portalKey]bool{},
		replSeen:   map[replKey]bool{},
	}

	self := make([]int, len(clusters))
	for i, c := range clusters {
		self[i] = b.addProfiled(i, c)
	}
	for i, c := range clusters {
		b.addPortals(self[i], c)
		b.addReplication(self[i], c)
		b.addObjectReplication(self[i], c)
	}
	return b.g
}

func (b *builder) addNode(n model.CdfNode) int {
	b.g.Nodes = append(b.g.Nodes, n)
	return len(b.g.Nodes) - 1
}

// index records address and uuid as labels of node i. Labels already taken
// keep their first owner.
func (b *builder) index(i int, address, uuid string) {
	if a := normAddress(address); a != "" {
		if _, ok := b.byAddress[a]; !ok {
			b.byAddress[a] = i
		}
	}
	if u := model.NormalizeUUID(uuid); u != "" {
		if _, ok := b.byUUID[u]; !ok {
			b.byUUID[u] = i
		}
	}
}

func (b *builder) addProfiled(ci int, c ClusterData) int {
	// Two profiles pointing at the same cluster share one node.
	if i, ok := b.lookup(c.Address, c.UUID); ok && b.g.Nodes[i].Kind == model.NodeProfiledCluster {
		slog.Debug("profiles share a cluster", "profile", c.ProfileName, "node", b.g.Nodes[i].Name)
		b.index(i, c.Address, c.UUID)
		return i
	}
	i := b.addNode(model.ProfiledCluster(c.ClusterName, model.NormalizeUUID(c.UUID), c.Address))
	b.index(i, c.Address, c.UUID)
	b.clusterAt[i] = ci
	return i
}

func (b *builder) lookup(address, uuid string) (int, bool) {
	if a := normAddress(address); a != "" {
		if i, ok := b.byAddress[a]; ok {
			return i, true
		}
	}
	if u := model.NormalizeUUID(uuid); u != "" {
		if i, ok := b.byUUID[u]; ok {
			return i, true
		}
	}
	return 0, false
}

// resolveCluster finds the node a peer reference points at, synthesizing
// an unknown cluster when nothing matches. A reference with neither
// address nor uuid resolves to nothing.
func (b *builder) resolveCluster(address, uuid string) (int, bool) {
	if i, ok := b.lookup(address, uuid); ok {
		b.index(i, address, uuid)
		return i, true
	}
	if normAddress(address) == "" && model.NormalizeUUID(uuid) == "" {
		return 0, false
	}
	i := b.addNode(model.UnknownCluster(strings.TrimSpace(address), model.NormalizeUUID(uuid)))
	b.index(i, address, uuid)
	return i, true
}

func (b *builder) resolveBucket(address, bucket, region string) int {
	key := bucketKey{address: normAddress(address), bucket: bucket}
	if i, ok := b.byBucket[key]; ok {
		return i
	}
	var r *string
	if region != "" {
		r = &region
	}
	i := b.addNode(model.ObjectBucket(strings.TrimSpace(address), bucket, r))
	b.byBucket[key] = i
	return i
}

// peerData returns the ClusterData behind a profiled node.
func (b *builder) peerData(node int) (ClusterData, bool) {
	ci, ok := b.clusterAt[node]
	if !ok {
		return ClusterData{}, false
	}
	return b.clusters[ci], true
}

func sortedPair(a, c int) (int, int) {
	if a <= c {
		return a, c
	}
	return c, a
}

func (b *builder) addPortals(self int, c ClusterData) {
	for _, h := range c.PortalHubs {
		spoke, ok := b.resolveCluster(h.PeerAddress(), h.SpokeClusterUUID)
		if !ok {
			slog.Debug("portal hub without peer", "cluster", c.ClusterName, "id", h.ID)
			continue
		}
		hubID := h.ID
		edge := &model.PortalEdge{
			HubID: &hubID, Type: h.Type, State: h.State, Status: h.Status,
			HubRoot: h.HubRoot, SpokeRoot: h.SpokeRoot,
		}
		var peerID *uint64
		if peer, ok := b.peerData(spoke); ok {
			peerID = matchSpoke(peer.PortalSpokes, c, h)
		}
		edge.SpokeID = peerID
		b.emitPortal(self, spoke, self, h.ID, spoke, peerID, edge)
	}

	for _, s := range c.PortalSpokes {
		hub, ok := b.resolveCluster(s.HubAddress, s.HubClusterUUID)
		if !ok {
			slog.Debug("portal spoke without peer", "cluster", c.ClusterName, "id", s.ID)
			continue
		}
		spokeID := s.ID
		edge := &model.PortalEdge{
			SpokeID: &spokeID, Type: s.Type, State: s.State, Status: s.Status,
			HubRoot: s.HubRoot, SpokeRoot: s.SpokeRoot,
		}
		var peerID *uint64
		if peer, ok := b.peerData(hub); ok {
			peerID = matchHub(peer.PortalHubs, c, s)
		}
		edge.HubID = peerID
		b.emitPortal(hub, self, self, s.ID, hub, peerID, edge)
	}
}

// emitPortal inserts a hub-to-spoke edge unless either side's report was
// already seen. The reporter's key and, when known, the peer's key are
// both marked.
func (b *builder) emitPortal(hub, spoke, reporter int, id uint64, peer int, peerID *uint64, edge *model.PortalEdge) {
	lo, hi := sortedPair(hub, spoke)
	key := portalKey{lo: lo, hi: hi, reporter: reporter, id: id}
	if b.portalSeen[key] {
		slog.Debug("duplicate portal report", "key", key)
		return
	}
	b.portalSeen[key] = true
	if peerID != nil {
		b.portalSeen[portalKey{lo: lo, hi: hi, reporter: peer, id: *peerID}] = true
	}
	b.g.Edges = append(b.g.Edges, model.CdfEdge{From: hub, To: spoke, Kind: model.EdgePortal, Portal: edge})
}

// matchSpoke finds the spoke-side id of hub h (reported by hubCluster)
// among the peer's spokes: uuid match with the same roots, then any uuid
// match, then address match.
func matchSpoke(spokes []api.PortalSpoke, hubCluster ClusterData, h api.PortalHub) *uint64 {
	uuid := model.NormalizeUUID(hubCluster.UUID)
	addr := normAddress(hubCluster.Address)
	byUUID := func(s api.PortalSpoke) bool {
		return uuid != "" && model.NormalizeUUID(s.HubClusterUUID) == uuid
	}
	return firstID(spokes, func(s api.PortalSpoke) uint64 { return s.ID },
		func(s api.PortalSpoke) bool { return byUUID(s) && s.HubRoot == h.HubRoot && s.SpokeRoot == h.SpokeRoot },
		byUUID,
		func(s api.PortalSpoke) bool { return addr != "" && normAddress(s.HubAddress) == addr },
	)
}

// matchHub is the mirror of matchSpoke.
func matchHub(hubs []api.PortalHub, spokeCluster ClusterData, s api.PortalSpoke) *uint64 {
	uuid := model.NormalizeUUID(spokeCluster.UUID)
	addr := normAddress(spokeCluster.Address)
	byUUID := func(h api.PortalHub) bool {
		return uuid != "" && model.NormalizeUUID(h.SpokeClusterUUID) == uuid
	}
	return firstID(hubs, func(h api.PortalHub) uint64 { return h.ID },
		func(h api.PortalHub) bool { return byUUID(h) && h.HubRoot == s.HubRoot && h.SpokeRoot == s.SpokeRoot },
		byUUID,
		func(h api.PortalHub) bool {
			return addr != "" && (normAddress(h.SpokeAddress) == addr || normAddress(h.SpokeHost) == addr)
		},
	)
}

func firstID[T any](items []T, id func(T) uint64, preds ...func(T) bool) *uint64 {
	for _, pred := range preds {
		for _, it := range items {
			if pred(it) {
				v := id(it)
				return &v
			}
		}
	}
	return nil
}

func (b *builder) addReplication(self int, c ClusterData) {
	sources := make(map[string]api.ReplicationSource, len(c.ReplicationSources))
	for _, s := range c.ReplicationSources {
		sources[s.ID] = s
	}

	reported := make(map[string]bool, len(c.ReplicationSourceStatuses))
	for _, st := range c.ReplicationSourceStatuses {
		reported[st.ID] = true
		target, ok := b.resolveCluster(st.TargetAddress, st.TargetClusterUUID)
		if !ok {
			continue
		}
		mode, enabled := st.ReplicationMode, st.ReplicationEnabled
		if src, ok := sources[st.ID]; ok {
			if mode == "" {
				mode = src.ReplicationMode
			}
			if enabled == nil {
				enabled = src.ReplicationEnabled
			}
		}
		b.emitReplication(self, target, &model.ReplicationEdge{
			RelationshipID: st.ID,
			SourcePath:     st.SourceRootPath,
			TargetPath:     st.TargetRootPath,
			Mode:           optional(mode),
			State:          st.State,
			Enabled:        enabled,
			EndReason:      st.EndReason,
			RecoveryPoint:  st.RecoveryPoint,
		})
	}

	// Relationships whose status could not be read still show up.
	for _, src := range c.ReplicationSources {
		if reported[src.ID] {
			continue
		}
		target, ok := b.resolveCluster(src.TargetAddress, "")
		if !ok {
			continue
		}
		b.emitReplication(self, target, &model.ReplicationEdge{
			RelationshipID: src.ID,
			SourcePath:     src.SourceRootPath,
			TargetPath:     src.TargetRootPath,
			Mode:           optional(src.ReplicationMode),
			Enabled:        src.ReplicationEnabled,
		})
	}

	for _, st := range c.ReplicationTargetStatuses {
		source, ok := b.resolveCluster(st.SourceAddress, st.SourceClusterUUID)
		if !ok {
			continue
		}
		b.emitReplication(source, self, &model.ReplicationEdge{
			RelationshipID: st.ID,
			SourcePath:     st.SourceRootPath,
			TargetPath:     st.TargetRootPath,
			State:          st.State,
			Enabled:        st.ReplicationEnabled,
			EndReason:      st.EndReason,
			RecoveryPoint:  st.RecoveryPoint,
		})
	}
}

// emitReplication inserts a source-to-target edge unless the relationship
// was already reported from the other side. The first report wins.
func (b *builder) emitReplication(source, target int, edge *model.ReplicationEdge) {
	key := replKey{lo: source, hi: target, loPath: edge.SourcePath, hiPath: edge.TargetPath}
	if source > target {
		key = replKey{lo: target, hi: source, loPath: edge.TargetPath, hiPath: edge.SourcePath}
	}
	if b.replSeen[key] {
		slog.Debug("duplicate replication report", "id", edge.RelationshipID)
		return
	}
	b.replSeen[key] = true
	b.g.Edges = append(b.g.Edges, model.CdfEdge{From: source, To: target, Kind: model.EdgeReplication, Replication: edge})
}

func (b *builder) addObjectReplication(self int, c ClusterData) {
	reported := make(map[string]bool, len(c.ObjectRelationshipStatuses))
	for _, st := range c.ObjectRelationshipStatuses {
		reported[st.ID] = true
		b.emitObject(self, st.ObjectStoreAddress, st.Bucket, st.Region, &model.ObjectReplicationEdge{
			RelationshipID: st.ID,
			Direction:      st.Direction,
			LocalPath:      st.LocalDirectoryPath,
			Folder:         st.ObjectFolder,
			State:          st.State,
		})
	}
	for _, rel := range c.ObjectRelationships {
		if reported[rel.ID] {
			continue
		}
		b.emitObject(self, rel.ObjectStoreAddress, rel.Bucket, rel.Region, &model.ObjectReplicationEdge{
			RelationshipID: rel.ID,
			Direction:      rel.Direction,
			LocalPath:      rel.LocalDirectoryPath,
			Folder:         rel.ObjectFolder,
		})
	}
}

func (b *builder) emitObject(self int, address, bucket, region string, edge *model.ObjectReplicationEdge) {
	bi := b.resolveBucket(address, bucket, region)
	from, to := self, bi
	if copiesFromObject(edge.Direction) {
		from, to = bi, self
	}
	b.g.Edges = append(b.g.Edges, model.CdfEdge{From: from, To: to, Kind: model.EdgeObjectReplication, Object: edge})
}

// copiesFromObject reports whether data flows from the bucket into the
// cluster. Unknown directions count as copy-to-object.
func copiesFromObject(direction string) bool {
	d := strings.ToUpper(strings.TrimSpace(direction))
	return strings.HasSuffix(d, model.DirectionCopyFromObject)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
