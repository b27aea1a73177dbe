// Command stash saves links annotated with a title, summary and tags.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/stash/internal/cli"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: buildDate}, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
