package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/history"
	"github.com/fredericrous/qontrol/internal/metrics"
	"github.com/fredericrous/qontrol/internal/model"
	"github.com/fredericrous/qontrol/internal/render"
	"github.com/fredericrous/qontrol/internal/status"
	"github.com/fredericrous/qontrol/internal/tui"
)

type statusOptions struct {
	clusters    []string
	asJSON      bool
	output      string
	watch       bool
	interval    int
	noCache     bool
	timeout     int
	metricsFile string
	historyDSN  string
}

func newStatusCmd(a *app) *cobra.Command {
	o := &statusOptions{}
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st", "dashboard"},
		Short:   "Show fleet health, capacity, activity and alerts",
		Long: `Probe every profile (or those named with --cluster) in parallel and print one
consolidated report. Clusters that cannot be reached are shown from the
status cache, marked as cached, with a connectivity alert.

Alerts never change the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, a, o)
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&o.clusters, "cluster", "c", nil, "profile to include (repeatable; default all)")
	f.BoolVar(&o.asJSON, "json", false, "print the structured report as JSON")
	f.StringVarP(&o.output, "output", "o", "", "output format: text, json, yaml")
	f.BoolVarP(&o.watch, "watch", "w", false, "re-collect every --interval seconds")
	f.IntVar(&o.interval, "interval", 10, "watch interval in seconds")
	f.BoolVar(&o.noCache, "no-cache", false, "do not fall back to cached data for unreachable clusters")
	f.IntVar(&o.timeout, "timeout", 30, "per-request timeout in seconds")
	f.StringVar(&o.metricsFile, "metrics-file", "", "also write Prometheus textfile-collector metrics to this path")
	f.StringVar(&o.historyDSN, "history-dsn", "", "also record the run into this Postgres database (postgres:// URL)")
	return cmd
}

func runStatus(cmd *cobra.Command, a *app, o *statusOptions) error {
	format, err := parseFormat(o.asJSON, o.output)
	if err != nil {
		return err
	}
	if o.interval < 1 {
		return fmt.Errorf("--interval must be at least 1 second")
	}
	// Fail on an empty or unknown selection before any output.
	if _, err := a.selectProfiles(o.clusters); err != nil {
		return err
	}

	ctx := cmd.Context()
	collect := a.fleetStatus(o.timeout, o.noCache, o.clusters)
	sinks, closeSinks, err := a.statusSinks(ctx, o)
	if err != nil {
		return err
	}
	defer closeSinks()

	run := func(ctx context.Context) (*model.EnvironmentStatus, error) {
		env, err := collect(ctx)
		if err != nil {
			return nil, err
		}
		sinks(ctx, env)
		return env, nil
	}

	out := cmd.OutOrStdout()
	if !o.watch {
		env, err := run(ctx)
		if err != nil {
			return err
		}
		return printStatus(out, format, env)
	}

	interval := seconds(o.interval)
	if format == formatText && isTerminal(out) {
		return tui.Run(ctx, run, interval)
	}
	return watchPlain(ctx, out, format, interval, run)
}

// fleetCollector wires the prober, status cache and UUID backfill.
func (a *app) fleetCollector(timeout int, noCache bool) func(context.Context, []config.Profile) (*model.EnvironmentStatus, error) {
	prober := &status.Prober{
		Timeout:       seconds(timeout),
		APICache:      a.responseCache(),
		OnClusterUUID: a.recordUUID,
	}
	c := &status.Collector{
		Probe:   prober.Probe,
		Cache:   a.statusCache(),
		NoCache: noCache,
	}
	return c.Collect
}

// fleetStatus collects the profiles matching filter. The working set is
// re-read from the store on every call.
func (a *app) fleetStatus(timeout int, noCache bool, filter []string) func(context.Context) (*model.EnvironmentStatus, error) {
	collect := a.fleetCollector(timeout, noCache)
	return func(ctx context.Context) (*model.EnvironmentStatus, error) {
		profiles, err := a.selectProfiles(filter)
		if err != nil {
			return nil, err
		}
		return collect(ctx, profiles)
	}
}

// statusSinks returns the optional per-run exporters (metrics textfile,
// Postgres history). Exporter failures are logged, never fatal.
func (a *app) statusSinks(ctx context.Context, o *statusOptions) (func(context.Context, *model.EnvironmentStatus), func(), error) {
	var fleet *metrics.Fleet
	if o.metricsFile != "" {
		fleet = metrics.New()
	}
	var rec *history.Recorder
	if o.historyDSN != "" {
		r, err := history.Open(ctx, o.historyDSN)
		if err != nil {
			return nil, nil, err
		}
		rec = r
	}

	sink := func(ctx context.Context, env *model.EnvironmentStatus) {
		if fleet != nil {
			fleet.Update(env)
			if err := fleet.WriteTextfile(o.metricsFile); err != nil {
				slog.Warn("failed to write metrics file", "path", o.metricsFile, "error", err)
			}
		}
		if rec != nil {
			if err := rec.Record(ctx, env); err != nil {
				slog.Warn("failed to record fleet snapshot", "error", err)
			}
		}
	}
	closer := func() {
		if rec != nil {
			rec.Close()
		}
	}
	return sink, closer, nil
}

func printStatus(w io.Writer, format outputFormat, env *model.EnvironmentStatus) error {
	if format == formatText {
		render.Status(w, env)
		return nil
	}
	return writeStructured(w, format, env)
}

// watchPlain reprints the report every interval until ctx is done. A
// failed cycle is reported and the loop continues.
func watchPlain(ctx context.Context, w io.Writer, format outputFormat, interval time.Duration,
	run func(context.Context) (*model.EnvironmentStatus, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		env, err := run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("status collection failed", "error", err)
		} else if err := printStatus(w, format, env); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
