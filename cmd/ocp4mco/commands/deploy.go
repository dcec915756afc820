package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocp4mco/ocp4mco/cmd/ocp4mco/handlers"
)

// Deploy returns the command running every enabled deployment stage.
//
// Required flags:
//
//	--config, -c: Path to the run configuration YAML file
func Deploy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the clusters and configure disaster recovery",
		Long: `Deploy the configured clusters and configure Regional-DR between them.

Stages run in order: ocp, acm, odf, mco, submariner, import, gitops, ssl,
dr and notify. Clusters that already serve their API are not reinstalled,
so a failed run can be repeated.

Stages can be disabled for every cluster under deployment.stages or for a
single cluster with its skip list.

Examples:
  # Deploy everything described in ocp4mco.yaml
  ocp4mco deploy -c ocp4mco.yaml

  # Same run with debug logs
  OCP4MCO_DEBUG=true ocp4mco deploy -c ocp4mco.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
