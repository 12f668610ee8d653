package apicache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put("uuid-a", "/v1/version", []byte(`{"revision_id":"7.2.3"}`), time.Minute))

	got, ok := c.Get("uuid-a", "/v1/version")
	require.True(t, ok)
	assert.JSONEq(t, `{"revision_id":"7.2.3"}`, string(got))
}

func TestKeysAreScopedByCluster(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put("uuid-a", "/v1/version", []byte(`"a"`), time.Minute))
	require.NoError(t, c.Put("uuid-b", "/v1/version", []byte(`"b"`), time.Minute))

	a, ok := c.Get("uuid-a", "/v1/version")
	require.True(t, ok)
	b, ok := c.Get("uuid-b", "/v1/version")
	require.True(t, ok)
	assert.Equal(t, `"a"`, string(a))
	assert.Equal(t, `"b"`, string(b))
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := openTestCache(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Put("uuid-a", "/p", []byte(`1`), 10*time.Second))

	c.now = func() time.Time { return base.Add(9 * time.Second) }
	_, ok := c.Get("uuid-a", "/p")
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(11 * time.Second) }
	_, ok = c.Get("uuid-a", "/p")
	assert.False(t, ok)
}

func TestEmptyUUIDNeverCaches(t *testing.T) {
	c := openTestCache(t)

	assert.Error(t, c.Put("", "/p", []byte(`1`), time.Minute))
	_, ok := c.Get("", "/p")
	assert.False(t, ok)
}

func TestNonJSONResponseStoredAsString(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put("u", "/raw", []byte("plain text"), time.Minute))
	got, ok := c.Get("u", "/raw")
	require.True(t, ok)
	assert.Equal(t, `"plain text"`, string(got))
}

func TestPurge(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("u", "/a", []byte(`1`), time.Minute))
	require.NoError(t, c.Put("v", "/a", []byte(`2`), time.Minute))

	require.NoError(t, c.Purge("u"))

	_, ok := c.Get("u", "/a")
	assert.False(t, ok)
	_, ok = c.Get("v", "/a")
	assert.True(t, ok)
}
