package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/model"
	"github.com/fredericrous/qontrol/internal/render"
)

type clusterHealth struct {
	Profile     string             `json:"profile"`
	ClusterName string             `json:"cluster_name"`
	Reachable   bool               `json:"reachable"`
	Health      model.HealthStatus `json:"health"`
}

func newHealthCmd(a *app) *cobra.Command {
	var (
		clusters []string
		asJSON   bool
		timeout  int
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "List unhealthy disks and power supplies across the fleet",
		Long: `Probe the fleet and list every disk and PSU that is not healthy.
Exits 1 when any unhealthy entity is found. Cached data is never used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.selectProfiles(clusters)
			if err != nil {
				return err
			}
			env, err := a.fleetCollector(timeout, true)(cmd.Context(), profiles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			unhealthy := 0
			report := make([]clusterHealth, 0, len(env.Clusters))
			for _, c := range env.Clusters {
				unhealthy += c.Health.DisksUnhealthy + c.Health.PSUsUnhealthy
				report = append(report, clusterHealth{
					Profile: c.ProfileName, ClusterName: c.ClusterName, Reachable: c.Reachable, Health: c.Health,
				})
			}

			if asJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				render.Health(out, env.Clusters)
				for _, al := range env.Alerts {
					if al.Category == model.CategoryConnectivity {
						fmt.Fprintf(out, "%s: %s\n", al.ClusterName, al.Message)
					}
				}
			}
			if unhealthy > 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&clusters, "cluster", "c", nil, "profile to include (repeatable; default all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print per-cluster health as JSON")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "per-request timeout in seconds")
	return cmd
}
