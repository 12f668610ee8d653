// Package cache keeps the last successfully collected ClusterStatus per
// profile so an unreachable cluster can still be shown, marked stale.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fredericrous/qontrol/internal/model"
)

const fileName = "status_cache.json"

type envelope struct {
	Clusters map[string]model.CachedClusterData `json:"clusters"`
}

// Store is a whole-file JSON cache. Reads never fail (errors are misses) and
// writes never propagate errors.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName), now: time.Now}
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

// Read returns the cached record for profile.
func (s *Store) Read(profile string) (*model.CachedClusterData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		slog.Debug("status cache unreadable", "path", s.path, "error", err)
		return nil, false
	}
	entry, ok := env.Clusters[profile]
	if !ok {
		return nil, false
	}
	return &entry, true
}

// ReadAll returns the cached records of profiles, in order, skipping misses.
func (s *Store) ReadAll(profiles []string) []model.CachedClusterData {
	var out []model.CachedClusterData
	for _, p := range profiles {
		if entry, ok := s.Read(p); ok {
			out = append(out, *entry)
		}
	}
	return out
}

// Write replaces the entry of profile. Failures are logged and dropped.
func (s *Store) Write(profile string, status model.ClusterStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future write.
		env = &envelope{}
	}
	if env.Clusters == nil {
		env.Clusters = make(map[string]model.CachedClusterData)
	}
	env.Clusters[profile] = model.CachedClusterData{
		Profile:  profile,
		Data:     status,
		CachedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.save(env); err != nil {
		slog.Warn("failed to write status cache", "profile", profile, "path", s.path, "error", err)
	}
}

func (s *Store) load() (*envelope, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &envelope{}, nil
		}
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return &env, nil
}

func (s *Store) save(env *envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".status-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
