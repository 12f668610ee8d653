// Package cli is the qontrol command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/apicache"
	"github.com/fredericrous/qontrol/internal/cache"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// ExitError ends the process with Code without printing a message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// app carries the global flags and the lazily opened stores shared by
// every command.
type app struct {
	configDir string
	cacheDir  string
	logLevel  string
	profile   string

	store    *config.Store
	apiCache *apicache.Cache
	uuidMu   sync.Mutex
}

// newRootCmd builds a fresh command tree. The returned app must be closed
// after execution, whether or not the command succeeded.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "qontrol",
		Short: "Fleet-wide operator CLI for scale-out NAS clusters",
		Long: `qontrol probes every configured cluster in parallel and reports fleet health,
capacity, activity and the cross-cluster data fabric (portals, replication and
object replication) in one view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "profile store directory (default $QONTROL_CONFIG_DIR, $XDG_CONFIG_HOME/qontrol or ~/.config/qontrol)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	root.PersistentFlags().StringVarP(&a.profile, "profile", "p", "", "profile to use for single-cluster commands")

	root.AddCommand(
		newStatusCmd(a),
		newCdfCmd(a),
		newHealthCmd(a),
		newProfileCmd(a),
		newAPICmd(a),
		newClusterCmd(a),
		newSnapshotCmd(a),
		newFsCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func (a *app) setup(logOut io.Writer) error {
	level := a.logLevel
	if level == "" {
		level = os.Getenv(config.EnvLogLevel)
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: lvl})))

	if a.configDir == "" {
		a.configDir = config.ConfigDir()
	}
	a.cacheDir = config.CacheDir()
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}

func (a *app) close() {
	if a.apiCache != nil {
		if err := a.apiCache.Close(); err != nil {
			slog.Debug("closing api cache", "error", err)
		}
		a.apiCache = nil
	}
}

// loadStore reads the profile store once per invocation.
func (a *app) loadStore() (*config.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := config.Load(filepath.Join(a.configDir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	a.store = s
	return s, nil
}

// selectProfiles returns the fleet working set. Long-running commands call
// it once per cycle so UUIDs recorded by earlier cycles are picked up.
func (a *app) selectProfiles(filter []string) ([]config.Profile, error) {
	s, err := a.loadStore()
	if err != nil {
		return nil, err
	}
	a.uuidMu.Lock()
	profiles, err := s.Select(filter)
	a.uuidMu.Unlock()
	if errors.Is(err, config.ErrNoProfiles) {
		return nil, fmt.Errorf("%w; run `qontrol profile add <name>` first", err)
	}
	return profiles, err
}

// resolveProfile returns the single profile of -p, QONTROL_PROFILE or the
// default.
func (a *app) resolveProfile() (config.Profile, error) {
	s, err := a.loadStore()
	if err != nil {
		return config.Profile{}, err
	}
	return s.Resolve(a.profile)
}

// responseCache opens the badger API cache. Another running qontrol holds
// the directory lock, in which case commands run uncached.
func (a *app) responseCache() api.Cache {
	if a.apiCache != nil {
		return a.apiCache
	}
	c, err := apicache.Open(filepath.Join(a.cacheDir, "api"))
	if err != nil {
		slog.Info("api cache unavailable, continuing without it", "error", err)
		return nil
	}
	a.apiCache = c
	return c
}

func (a *app) statusCache() *cache.Store {
	return cache.New(a.cacheDir)
}

// recordUUID persists a backfilled cluster UUID. Probes call it
// concurrently.
func (a *app) recordUUID(profile, uuid string) {
	a.uuidMu.Lock()
	defer a.uuidMu.Unlock()
	s, err := a.loadStore()
	if err != nil {
		return
	}
	if !s.SetClusterUUID(profile, model.NormalizeUUID(uuid)) {
		return
	}
	if err := s.Save(); err != nil {
		slog.Warn("failed to save backfilled cluster uuid", "profile", profile, "error", err)
		return
	}
	slog.Info("recorded cluster uuid", "profile", profile, "uuid", uuid)
}

func (a *app) client(p config.Profile, timeout time.Duration) *api.Client {
	var c api.Cache
	if uuid := model.NormalizeUUID(p.ClusterUUID); uuid != "" {
		c = a.responseCache()
	}
	return api.New(api.Config{
		BaseURL:     p.URL(),
		Token:       p.Token,
		Insecure:    p.Insecure,
		Timeout:     timeout,
		ClusterUUID: model.NormalizeUUID(p.ClusterUUID),
		Cache:       c,
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
