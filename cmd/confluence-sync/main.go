// Package main provides the entry point for the confluence-sync CLI tool.
package main

import (
	"os"

	"github.com/shouhanzen/confluence-sync/cmd/confluence-sync/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// Cancel in-flight requests on interrupt so a partial batch still
	// leaves the store consistent.
	ctx, cancel := app.ContextWithSignals()
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
