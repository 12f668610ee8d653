package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/history"
	"github.com/fredericrous/qontrol/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port       int
		refresh    time.Duration
		timeout    int
		historyDSN string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Collect the fleet periodically and serve it over HTTP",
		Long: `Run the fleet and data-fabric collectors every --refresh and serve the last
result:

  GET /api/status     fleet status (same schema as status --json)
  GET /api/cdf        data-fabric graph (?cluster=<name> to focus)
  GET /api/diagrams   Mermaid diagrams of the fabric, capacity and versions
  GET /api/health     200 once the first collection finished
  GET /metrics        Prometheus exposition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.selectProfiles(nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			cfg := server.Config{
				Port:            port,
				RefreshInterval: refresh,
				Status:          a.fleetStatus(timeout, false, nil),
				Fabric: func(ctx context.Context) (cdf.Graph, error) {
					profiles, err := a.selectProfiles(nil)
					if err != nil {
						return cdf.Graph{}, err
					}
					return a.fabric(ctx, profiles, timeout, "")
				},
			}
			if historyDSN != "" {
				rec, err := history.Open(ctx, historyDSN)
				if err != nil {
					return err
				}
				defer rec.Close()
				cfg.Recorder = rec.Record
			}

			slog.Info("qontrol serve starting", "port", port, "profiles", len(profiles), "refresh", refresh)
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().DurationVar(&refresh, "refresh", 5*time.Minute, "collection interval")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "per-request timeout in seconds")
	cmd.Flags().StringVar(&historyDSN, "history-dsn", "", "record every collection into this Postgres database")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qontrol version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "qontrol version %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
