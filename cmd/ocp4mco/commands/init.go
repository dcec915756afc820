package commands

import (
	"github.com/spf13/cobra"

	"github.com/ocp4mco/ocp4mco/cmd/ocp4mco/handlers"
)

// Init returns the command writing a sample configuration.
func Init() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration",
		Long: `Write a three cluster Regional-DR configuration with a dedicated hub.

Edit cluster names, base domains and the pull secret path before running
'ocp4mco deploy'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "ocp4mco.yaml", "Output file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
