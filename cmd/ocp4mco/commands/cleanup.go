package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocp4mco/ocp4mco/cmd/ocp4mco/handlers"
)

// Cleanup returns the command destroying the clusters of a run.
func Cleanup() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Destroy the clusters and delete run artifacts",
		Long: `Destroy every configured cluster that was installed by ocp4mco,
then delete the run artifact directory and the archived report.

Clusters without installer metadata in their directory are left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cleanup(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
