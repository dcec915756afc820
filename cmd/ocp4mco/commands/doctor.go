package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocp4mco/ocp4mco/cmd/ocp4mco/handlers"
)

// Doctor returns the command diagnosing a configuration.
func Doctor() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check client tools and cluster reachability",
		Long: `Validate the configuration, check that the client tools are installed
and report which clusters already serve their API.

Exits non-zero when a required tool is missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
