// Package history appends one row per cluster per collection run to a
// Postgres table so fleet trends can be queried later.
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fredericrous/qontrol/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

const table = "cluster_snapshots"

var columns = []string{
	"collected_at", "profile", "cluster_name", "cluster_uuid", "version",
	"reachable", "stale", "latency_ms", "nodes_total", "nodes_online",
	"total_bytes", "used_bytes", "snapshot_bytes", "read_iops", "write_iops",
	"days_until_full", "critical_alerts", "warning_alerts",
}

// Recorder writes snapshots through a connection pool.
type Recorder struct {
	pool *pgxpool.Pool
}

// Open migrates the schema and connects. dsn is a postgres:// URL.
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	if err := Migrate(dsn); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return &Recorder{pool: pool}, nil
}

// Migrate applies the embedded migrations up to the latest version.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a libpq URL to the scheme the pgx/v5 migrate driver
// registers.
func migrateURL(dsn string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

// Record inserts the clusters of env in a single COPY.
func (r *Recorder) Record(ctx context.Context, env *model.EnvironmentStatus) error {
	rows := snapshotRows(env)
	if len(rows) == 0 {
		return nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("record snapshots: %w", err)
	}
	slog.Debug("recorded fleet snapshot", "rows", n)
	return nil
}

func (r *Recorder) Close() {
	r.pool.Close()
}

func snapshotRows(env *model.EnvironmentStatus) [][]any {
	if env == nil {
		return nil
	}
	critical := map[string]int{}
	warning := map[string]int{}
	for _, a := range env.Alerts {
		switch a.Severity {
		case model.SeverityCritical:
			critical[a.ClusterName]++
		case model.SeverityWarning:
			warning[a.ClusterName]++
		}
	}

	at := env.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	rows := make([][]any, 0, len(env.Clusters))
	for _, c := range env.Clusters {
		var daysUntilFull *int64
		if p := c.Capacity.Projection; p != nil && p.DaysUntilFull != nil {
			d := int64(*p.DaysUntilFull)
			daysUntilFull = &d
		}
		rows = append(rows, []any{
			at.UTC(), c.ProfileName, c.ClusterName, c.ClusterUUID, c.Version,
			c.Reachable, c.Stale, int64(c.LatencyMs), int32(c.Nodes.Total), int32(c.Nodes.Online),
			int64(c.Capacity.TotalBytes), int64(c.Capacity.UsedBytes), int64(c.Capacity.SnapshotBytes),
			c.Activity.ReadIOPS, c.Activity.WriteIOPS,
			daysUntilFull, int32(critical[c.ClusterName]), int32(warning[c.ClusterName]),
		})
	}
	return rows
}
