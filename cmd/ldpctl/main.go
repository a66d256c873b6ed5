// Package main is the entry point for the ldpctl CLI.
//
// ldpctl deploys a lakehouse data platform onto an existing Kubernetes
// cluster: secrets engine, object store, Hive metastore, query gateway,
// workflow orchestrator, GitOps registration, ingress, and an optional
// observability stack. It is stateless; every run derives its view from
// the live cluster.
//
// Commands: init, deploy, status, cleanup, doctor, version, completion.
//
// For detailed usage information, run:
//
//	ldpctl --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/commands"
	"github.com/anhhoangdev/ldpctl/cmd/ldpctl/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// An interrupt cancels the command context so long-running modes
	// (deploy --converge, status --watch) unwind cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(handlers.ExitCode(err))
	}
}
