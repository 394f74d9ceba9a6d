package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/bonnie/internal/cli"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/scripts"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		var exit *scripts.ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, errs.UserMessage(err))
		}
		os.Exit(cli.ExitCode(err))
	}
}
