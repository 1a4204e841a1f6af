// Command dailycode generates, saves and browses short educational code
// snippets. Run "dailycode serve" for the HTTP API or any other subcommand
// for a one-shot action; see "dailycode --help".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/daily-code/internal/cli"
)

func main() {
	// Ctrl+C or SIGTERM cancels the context: serve shuts down gracefully and
	// a running generation is aborted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dailycode:", err)
		stop()
		os.Exit(1)
	}
}
