package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/cdf"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/diagram"
	"github.com/fredericrous/qontrol/internal/render"
)

type cdfOptions struct {
	cluster string
	detail  bool
	asJSON  bool
	output  string
	mermaid bool
	summary bool
	timeout int
}

func newCdfCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdf",
		Short: "Cross-cluster data fabric",
	}
	cmd.AddCommand(newCdfStatusCmd(a))
	return cmd
}

func newCdfStatusCmd(a *app) *cobra.Command {
	o := &cdfOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show portals, replication and object replication across the fleet",
		Long: `Query the relationship endpoints of every profile in parallel and merge them
into one graph. A relationship reported by both of its ends appears once.
Peers that are not configured as profiles appear as unknown clusters.

With --cluster, only that cluster and its direct neighbours are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCdfStatus(cmd, a, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.cluster, "cluster", "c", "", "focus on one cluster (profile or cluster name)")
	f.BoolVar(&o.detail, "detail", false, "include relationship ids, roots and recovery points")
	f.BoolVar(&o.asJSON, "json", false, "print the graph as JSON")
	f.StringVarP(&o.output, "output", "o", "", "output format: text, json, yaml")
	f.BoolVar(&o.mermaid, "mermaid", false, "print the graph as a Mermaid flowchart")
	f.BoolVar(&o.summary, "summary", false, "print one line per node and edge")
	f.IntVar(&o.timeout, "timeout", 30, "per-request timeout in seconds")
	return cmd
}

func runCdfStatus(cmd *cobra.Command, a *app, o *cdfOptions) error {
	format, err := parseFormat(o.asJSON, o.output)
	if err != nil {
		return err
	}
	profiles, err := a.selectProfiles(nil)
	if err != nil {
		return err
	}

	g, err := a.fabric(cmd.Context(), profiles, o.timeout, o.cluster)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case format != formatText:
		return writeStructured(out, format, g)
	case o.mermaid:
		_, err := io.WriteString(out, diagram.GenerateFabric(g).Content+"\n")
		return err
	case o.summary:
		return cdf.WriteSummary(out, g)
	}
	render.Fabric(out, g, o.detail)
	return nil
}

// fabric collects and builds the graph, pruned to focus when set.
func (a *app) fabric(ctx context.Context, profiles []config.Profile, timeout int, focus string) (cdf.Graph, error) {
	collector := &cdf.Collector{Timeout: seconds(timeout), APICache: a.responseCache()}
	clusters := collector.Collect(ctx, profiles)
	g := cdf.Build(clusters)
	slog.Debug("built data fabric", "nodes", len(g.Nodes), "edges", len(g.Edges))

	if focus == "" {
		return g, nil
	}
	name := focus
	found := false
	for _, c := range clusters {
		// Accept the profile name as well as the cluster name.
		if strings.EqualFold(c.ProfileName, focus) || strings.EqualFold(c.ClusterName, focus) {
			name = c.ClusterName
			found = true
			break
		}
	}
	if !found {
		return cdf.Graph{}, fmt.Errorf("%w: %s", config.ErrProfileNotFound, focus)
	}
	return cdf.Prune(g, name), nil
}
