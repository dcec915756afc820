// Package main is the entry point for the ocp4mco CLI.
//
// ocp4mco deploys a set of OpenShift clusters and wires them for
// Regional Disaster Recovery: ACM on the hub, ODF on the data plane
// clusters, cluster import, GitOps, certificate exchange and the DR policy.
//
// Commands: init, deploy, cleanup, version.
//
// For detailed usage information, run:
//
//	ocp4mco --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ocp4mco/ocp4mco/cmd/ocp4mco/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
