package cli

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/render"
	"github.com/fredericrous/qontrol/internal/status"
)

func newAPICmd(a *app) *cobra.Command {
	var (
		cacheTTL int
		timeout  int
		raw      bool
	)
	get := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a raw REST API path and print the JSON response",
		Example: `  qontrol api get /v1/cluster/settings
  qontrol -p prod api get /v1/file-system --cache-ttl 300`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProfile()
			if err != nil {
				return err
			}
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			client := a.client(p, seconds(timeout))
			body, err := client.GetCached(cmd.Context(), path, seconds(cacheTTL))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !raw && json.Valid(body) {
				var buf bytes.Buffer
				if err := json.Indent(&buf, body, "", "  "); err == nil {
					body = buf.Bytes()
				}
			}
			if len(body) == 0 || body[len(body)-1] != '\n' {
				body = append(body, '\n')
			}
			_, err = out.Write(body)
			return err
		},
	}
	get.Flags().IntVar(&cacheTTL, "cache-ttl", 0, "serve from / store in the response cache for this many seconds (needs a known cluster uuid)")
	get.Flags().IntVar(&timeout, "timeout", 30, "request timeout in seconds")
	get.Flags().BoolVar(&raw, "raw", false, "print the body exactly as received")

	cmd := &cobra.Command{Use: "api", Short: "Raw REST API access"}
	cmd.AddCommand(get)
	return cmd
}

func newClusterCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		timeout int
	)
	info := &cobra.Command{
		Use:   "info",
		Short: "Show everything known about one cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProfile()
			if err != nil {
				return err
			}
			prober := &status.Prober{Timeout: seconds(timeout), APICache: a.responseCache(), OnClusterUUID: a.recordUUID}
			st, err := prober.Probe(cmd.Context(), p)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			render.ClusterDetail(cmd.OutOrStdout(), st)
			return nil
		},
	}
	info.Flags().BoolVar(&asJSON, "json", false, "print the cluster status as JSON")
	info.Flags().IntVar(&timeout, "timeout", 30, "per-request timeout in seconds")

	cmd := &cobra.Command{Use: "cluster", Short: "Single-cluster queries"}
	cmd.AddCommand(info)
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots of one cluster",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProfile()
			if err != nil {
				return err
			}
			snaps, err := a.client(p, 0).Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snaps)
			}
			render.Snapshots(cmd.OutOrStdout(), snaps)
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd := &cobra.Command{Use: "snapshot", Aliases: []string{"snap"}, Short: "Snapshot queries"}
	cmd.AddCommand(list)
	return cmd
}

func newFsCmd(a *app) *cobra.Command {
	var asJSON bool
	ls := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory on one cluster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 1 {
				dir = args[0]
			}
			p, err := a.resolveProfile()
			if err != nil {
				return err
			}
			entries, err := a.client(p, 0).DirectoryEntries(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			render.Directory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	ls.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd := &cobra.Command{Use: "fs", Short: "File system browsing"}
	cmd.AddCommand(ls)
	return cmd
}
