package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"k8s.io/client-go/util/flowcontrol"
)

const (
	DefaultTimeout = 30 * time.Second

	// Per-profile request budget. Probes issue a short burst of sequential
	// calls; the bucket only smooths tight loops like pagination.
	defaultQPS   = 20
	defaultBurst = 40

	maxBodyBytes = 64 << 20
)

// Cache is the subset of the API-response cache the client uses.
type Cache interface {
	Get(clusterUUID, path string) ([]byte, bool)
	Put(clusterUUID, path string, response []byte, ttl time.Duration) error
}

// Config describes how to reach one cluster.
type Config struct {
	BaseURL  string
	Token    string
	Insecure bool
	Timeout  time.Duration
	// ClusterUUID scopes API-cache keys. Caching is disabled while empty.
	ClusterUUID string
	Cache       Cache
}

// ErrResponseTooLarge is returned when a response body exceeds the
// client's size limit.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Code, body)
}

// Client is a bearer-token REST client for a single cluster.
type Client struct {
	baseURL     string
	token       string
	http        *http.Client
	limiter     flowcontrol.RateLimiter
	clusterUUID string
	cache       Cache
	maxBody     int64
}

// New builds a client. TLS verification is disabled iff cfg.Insecure.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per profile
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		http:        &http.Client{Timeout: timeout, Transport: transport},
		limiter:     flowcontrol.NewTokenBucketRateLimiter(defaultQPS, defaultBurst),
		clusterUUID: cfg.ClusterUUID,
		cache:       cfg.Cache,
		maxBody:     maxBodyBytes,
	}
}

// SetClusterUUID enables API-cache scoping once the UUID is known.
func (c *Client) SetClusterUUID(uuid string) {
	c.clusterUUID = uuid
}

// Get performs a GET and returns the raw body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// GetCached returns a cached body for path when one is fresh, otherwise
// fetches it and stores it for ttl.
func (c *Client) GetCached(ctx context.Context, path string, ttl time.Duration) ([]byte, error) {
	if c.cache == nil || c.clusterUUID == "" || ttl <= 0 {
		return c.Get(ctx, path)
	}
	if body, ok := c.cache.Get(c.clusterUUID, path); ok {
		return body, nil
	}
	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(c.clusterUUID, path, body, ttl); err != nil {
		slog.Debug("api cache write failed", "path", path, "error", err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tooLarge := int64(len(body)) > c.maxBody
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Path: path, Body: string(body[:min(int64(len(body)), c.maxBody)])}
	}
	if tooLarge {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", path, ErrResponseTooLarge, c.maxBody)
	}
	return body, nil
}

// getList fetches a list endpoint, following pagination links.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	next := path
	for pages := 0; next != "" && pages < 1000; pages++ {
		body, err := c.Get(ctx, next)
		if err != nil {
			return nil, err
		}
		items, n, err := decodeList[T](body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		all = append(all, items...)
		next = relativeNext(n)
	}
	return all, nil
}

// relativeNext turns an absolute paging link into a request path.
func relativeNext(next string) string {
	if next == "" {
		return ""
	}
	if u, err := url.Parse(next); err == nil && u.IsAbs() {
		p := u.EscapedPath()
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p
	}
	if !strings.HasPrefix(next, "/") {
		return "/" + next
	}
	return next
}
