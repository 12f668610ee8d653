// Package apicache stores raw API responses with a per-entry TTL. Keys are
// scoped by cluster UUID so two clusters serving the same path never share
// an entry.
package apicache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// entry is the stored value.
type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	TTLSecs  uint64          `json:"ttl_secs"`
	Response json.RawMessage `json:"response"`
}

func (e entry) fresh(now time.Time) bool {
	return now.Before(e.CachedAt.Add(time.Duration(e.TTLSecs) * time.Second))
}

// Cache is a badger-backed response cache.
type Cache struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the cache under dir. Badger holds a directory
// lock, so a concurrent qontrol process gets an error here and should run
// without the cache.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithSyncWrites(false)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open api cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// OpenInMemory returns a cache that lives only for the process.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory api cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Key builds the storage key for a cluster and request path.
func Key(clusterUUID, path string) string {
	return clusterUUID + ":" + path
}

// Get returns the cached response for path if it has not expired.
func (c *Cache) Get(clusterUUID, path string) ([]byte, bool) {
	if clusterUUID == "" {
		return nil, false
	}
	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(clusterUUID, path)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			slog.Debug("api cache read failed", "key", Key(clusterUUID, path), "error", err)
		}
		return nil, false
	}
	if !e.fresh(c.now()) {
		return nil, false
	}
	return e.Response, true
}

// Put stores response under (clusterUUID, path) for ttl. Responses that are
// not valid JSON are stored as JSON strings.
func (c *Cache) Put(clusterUUID, path string, response []byte, ttl time.Duration) error {
	if clusterUUID == "" {
		return errors.New("api cache: cluster uuid is required")
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	raw := json.RawMessage(response)
	if !json.Valid(response) {
		quoted, err := json.Marshal(string(response))
		if err != nil {
			return err
		}
		raw = quoted
	}
	val, err := json.Marshal(entry{
		CachedAt: c.now().UTC(),
		TTLSecs:  uint64(ttl / time.Second),
		Response: raw,
	})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(Key(clusterUUID, path)), val).WithTTL(ttl))
	})
}

// Purge removes every entry of one cluster.
func (c *Cache) Purge(clusterUUID string) error {
	return c.db.DropPrefix([]byte(clusterUUID + ":"))
}

func (c *Cache) Close() error {
	return c.db.Close()
}
