package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/diagram"
	"github.com/fredericrous/qontrol/internal/metrics"
	"github.com/fredericrous/qontrol/internal/model"
)

// StatusFunc collects the fleet status.
type StatusFunc func(ctx context.Context) (*model.EnvironmentStatus, error)

// FabricFunc collects the data-fabric graph.
type FabricFunc func(ctx context.Context) (cdf.Graph, error)

// Config holds server configuration.
type Config struct {
	Port            int
	RefreshInterval time.Duration
	Status          StatusFunc
	Fabric          FabricFunc
	// Recorder, when set, receives every fleet snapshot.
	Recorder func(ctx context.Context, env *model.EnvironmentStatus) error
}

// Server periodically collects the fleet and serves the last result.
type Server struct {
	cfg     Config
	metrics *metrics.Fleet

	mu       sync.RWMutex
	env      *model.EnvironmentStatus
	graph    *cdf.Graph
	diagrams []model.DiagramResult
	lastGen  time.Time
}

// New creates a new Server.
func New(cfg Config) (*Server, error) {
	if cfg.Status == nil || cfg.Fabric == nil {
		return nil, errors.New("server: status and fabric collectors are required")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	return &Server{cfg: cfg, metrics: metrics.New()}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/cdf", s.handleFabric)
	mux.HandleFunc("GET /api/diagrams", s.handleDiagrams)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return withCORS(mux)
}

// Start begins serving HTTP and starts the background refresh loop.
func (s *Server) Start(ctx context.Context) error {
	// Initial generation
	s.refresh(ctx)

	go s.refreshLoop(ctx)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	slog.Info("starting server", "addr", addr, "refresh", s.cfg.RefreshInterval)

	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs both collectors. A failing collector keeps its previous
// result.
func (s *Server) refresh(ctx context.Context) {
	slog.Info("refreshing fleet data")
	start := time.Now()

	env, err := s.cfg.Status(ctx)
	if err != nil {
		slog.Warn("status collection failed", "error", err)
	}
	graph, gerr := s.cfg.Fabric(ctx)
	if gerr != nil {
		slog.Warn("data fabric collection failed", "error", gerr)
	}

	s.mu.Lock()
	if err == nil {
		s.env = env
		s.metrics.Update(env)
	}
	if gerr == nil {
		s.graph = &graph
	}
	s.diagrams = s.buildDiagrams()
	s.lastGen = time.Now()
	s.mu.Unlock()

	if err == nil && s.cfg.Recorder != nil {
		if rerr := s.cfg.Recorder(ctx, env); rerr != nil {
			slog.Warn("failed to record fleet snapshot", "error", rerr)
		}
	}

	slog.Info("refresh complete", "duration", time.Since(start))
}

// buildDiagrams must be called with s.mu held.
func (s *Server) buildDiagrams() []model.DiagramResult {
	var out []model.DiagramResult
	if s.graph != nil {
		out = append(out, diagram.GenerateFabric(*s.graph))
	}
	if s.env != nil {
		out = append(out, diagram.GenerateCapacity(s.env), diagram.GenerateVersions(s.env))
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	env := s.env
	s.mu.RUnlock()
	if env == nil {
		writeInitializing(w)
		return
	}
	writeJSON(w, env)
}

func (s *Server) handleFabric(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	graph := s.graph
	s.mu.RUnlock()
	if graph == nil {
		writeInitializing(w)
		return
	}
	g := *graph
	if name := r.URL.Query().Get("cluster"); name != "" {
		g = cdf.Prune(g, name)
	}
	writeJSON(w, g)
}

func (s *Server) handleDiagrams(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := struct {
		Diagrams    []model.DiagramResult `json:"diagrams"`
		GeneratedAt time.Time             `json:"generated_at"`
	}{
		Diagrams:    s.diagrams,
		GeneratedAt: s.lastGen,
	}
	writeJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasData := s.env != nil
	s.mu.RUnlock()

	if !hasData {
		writeInitializing(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeInitializing(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"status":"initializing"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
