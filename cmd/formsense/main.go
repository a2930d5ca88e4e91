// Command formsense classifies HTML form fields with the matching engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/vulntor/formsense/cmd/formsense/commands"
	"github.com/vulntor/formsense/cmd/formsense/internal/format"
	"github.com/vulntor/formsense/pkg/matching"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewCommand().ExecuteContext(ctx); err != nil {
		out := format.New(os.Stdout, os.Stderr, format.ModeTable, !color.NoColor)
		_ = out.PrintError(err, matching.Suggestions(err))
		return matching.ExitCode(err)
	}
	return 0
}
