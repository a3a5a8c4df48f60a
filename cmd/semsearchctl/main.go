package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/semsearch/internal/app"
	"github.com/kailas-cloud/semsearch/internal/config"
	logpkg "github.com/kailas-cloud/semsearch/internal/logger"
	"github.com/kailas-cloud/semsearch/internal/transport/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Command output goes to stdout; logs stay at warn unless configured.
	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a *app.App
	defer func() {
		if a != nil {
			a.Close()
		}
	}()

	cli.SetBootstrap(func(ctx context.Context) error {
		var err error
		a, err = app.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}
		cli.SetServices(a.Seed, a.Eval, a.Search)
		return nil
	})
	return cli.Execute(ctx)
}
