// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to the handlers package.
package commands

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/logging"
)

// Root returns the root command for the ocp4mco CLI. It installs the process
// logger into the command context before any subcommand runs.
func Root() *cobra.Command {
	var (
		verbosity int
		debug     bool
	)

	cmd := &cobra.Command{
		Use:           "ocp4mco",
		Short:         "Deploy multi-cluster OpenShift with Regional Disaster Recovery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := logging.New(logging.FromEnv(logging.Options{
				Verbosity:   verbosity,
				Development: debug,
			}))
			cmd.SetContext(log.IntoContext(cmd.Context(), logger))
		},
	}

	cmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "Log verbosity, higher is more detailed")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Human readable development logs")

	cmd.AddCommand(Init())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Cleanup())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())

	return cmd
}
