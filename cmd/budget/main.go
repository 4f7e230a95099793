// Command budget is the terminal client of the budget tracker backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/budgettracker/budget-tracker/internal/cli"
	"github.com/budgettracker/budget-tracker/internal/pkg/config"
	"github.com/budgettracker/budget-tracker/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	config.LoadDotEnv()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "budget",
	})

	app, closeStore, err := cli.Build(ctx, cfg, log, os.Stdin, os.Stdout, os.Stderr)
	defer func() {
		if cerr := closeStore(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close token store")
		}
	}()
	if err != nil {
		log.Error().Err(err).Msg("failed to start")
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}

	return app.Run(ctx, args)
}
