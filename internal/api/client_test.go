package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, cache Cache, uuid string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Token: "tok", ClusterUUID: uuid, Cache: cache})
}

func TestClientSendsBearerToken(t *testing.T) {
	headers := make(chan http.Header, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		fmt.Fprint(w, `{"cluster_name":"east"}`)
	}, nil, "")

	s, err := c.ClusterSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "east", s.ClusterName)
	h := <-headers
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Accept"))
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}, nil, "")

	_, err := c.Version(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, PathVersion, se.Path)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestClientDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cluster_name":`)
	}, nil, "")

	_, err := c.ClusterSettings(context.Background())
	assert.ErrorContains(t, err, "decoding "+PathClusterSettings)
}

func TestGetListFollowsPaging(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("after") {
		case "":
			// Absolute link, as some releases return.
			fmt.Fprintf(w, `{"entries":[{"id":1},{"id":2}],"paging":{"next":"%s%s?after=2"}}`, srvURL, PathSnapshots)
		case "2":
			fmt.Fprintf(w, `{"entries":[{"id":3}],"paging":{"next":"%s?after=3"}}`, PathSnapshots[1:])
		default:
			fmt.Fprint(w, `{"entries":[],"paging":{"next":""}}`)
		}
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c := New(Config{BaseURL: srv.URL, Token: "tok"})

	snaps, err := c.Snapshots(context.Background())
	require.NoError(t, err)
	ids := make([]uint64, 0, len(snaps))
	for _, s := range snaps {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLen  int
		wantNext string
		wantErr  bool
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, "", false},
		{"paged", `{"entries":[{"id":1}],"paging":{"next":"/v2/snapshots/?after=1"}}`, 1, "/v2/snapshots/?after=1", false},
		{"empty page", `{"entries":[]}`, 0, "", false},
		{"garbage", `nope`, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, next, err := decodeList[Snapshot]([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantLen)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}

func TestUintAndFloat(t *testing.T) {
	var v struct {
		A Uint  `json:"a"`
		B Uint  `json:"b"`
		C Uint  `json:"c"`
		D Float `json:"d"`
		E Float `json:"e"`
		F Uint  `json:"f"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"605000000000000","b":42,"c":null,"d":"25.5","e":3,"f":"1e3"}`), &v))
	assert.Equal(t, Uint(605000000000000), v.A)
	assert.Equal(t, Uint(42), v.B)
	assert.Equal(t, Uint(0), v.C)
	assert.InDelta(t, 25.5, float64(v.D), 1e-9)
	assert.InDelta(t, 3, float64(v.E), 1e-9)
	assert.Equal(t, Uint(1000), v.F)

	var bad struct {
		A Uint `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a":"-5"}`), &bad))
}

func TestRelativeNext(t *testing.T) {
	tests := map[string]string{
		"":                                   "",
		"https://h:8000/v2/snapshots/?a=1":   "/v2/snapshots/?a=1",
		"v2/snapshots/?a=1":                  "/v2/snapshots/?a=1",
		"/v1/files/%2Fhome/entries/?after=x": "/v1/files/%2Fhome/entries/?after=x",
	}
	for in, want := range tests {
		assert.Equal(t, want, relativeNext(in), in)
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func (m *memCache) Get(uuid, path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[uuid+path]
	return b, ok
}

func (m *memCache) Put(uuid, path string, body []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[uuid+path] = body
	m.ttl = ttl
	return nil
}

func TestGetCached(t *testing.T) {
	var hits atomic.Int32
	h := func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"ok":true}`)
	}

	t.Run("stores and serves with a known uuid", func(t *testing.T) {
		hits.Store(0)
		mc := &memCache{data: map[string][]byte{}}
		c := newTestClient(t, h, mc, "uuid-1")
		for range 3 {
			body, err := c.GetCached(context.Background(), "/v1/x", time.Hour)
			require.NoError(t, err)
			assert.JSONEq(t, `{"ok":true}`, string(body))
		}
		assert.EqualValues(t, 1, hits.Load())
		assert.Equal(t, time.Hour, mc.ttl)
	})

	t.Run("bypassed without a uuid", func(t *testing.T) {
		hits.Store(0)
		c := newTestClient(t, h, &memCache{data: map[string][]byte{}}, "")
		for range 2 {
			_, err := c.GetCached(context.Background(), "/v1/x", time.Hour)
			require.NoError(t, err)
		}
		assert.EqualValues(t, 2, hits.Load())
	})

	t.Run("bypassed with zero ttl", func(t *testing.T) {
		hits.Store(0)
		c := newTestClient(t, h, &memCache{data: map[string][]byte{}}, "uuid-1")
		for range 2 {
			_, err := c.GetCached(context.Background(), "/v1/x", 0)
			require.NoError(t, err)
		}
		assert.EqualValues(t, 2, hits.Load())
	})
}

func TestCreateAccessToken(t *testing.T) {
	authIDs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathLogin:
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Username != "admin" || req.Password != "pw" {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"bearer_token":"session"}`)
		case PathWhoAmI:
			if r.Header.Get("Authorization") != "Bearer session" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, `{"id":"500","name":"admin"}`)
		case PathAccessTokens:
			var req accessTokenRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			authIDs <- req.User.AuthID
			fmt.Fprint(w, `{"id":"t1","bearer_token":"access-token"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	tok, err := CreateAccessToken(context.Background(), Config{BaseURL: srv.URL}, "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "access-token", tok)
	assert.Equal(t, "500", <-authIDs)

	_, err = CreateAccessToken(context.Background(), Config{BaseURL: srv.URL}, "admin", "wrong")
	assert.ErrorContains(t, err, "logging in")
}

func TestClientRejectsOversizedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathVersion {
			http.Error(w, `{"error":"nope, this body is long"}`, http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"cluster_name":"a-name-longer-than-the-limit"}`)
	}, nil, "")
	c.maxBody = 16

	_, err := c.ClusterSettings(context.Background())
	require.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Contains(t, err.Error(), PathClusterSettings)

	// Error responses still surface as StatusError, with the body cut at the limit.
	_, err = c.Version(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Len(t, se.Body, 16)

	c.maxBody = maxBodyBytes
	s, err := c.ClusterSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a-name-longer-than-the-limit", s.ClusterName)
}
