package main

import (
	"context"
	"errors"
	"os"

	"budgify/internal/cli"
	applog "budgify/internal/log"
	"budgify/internal/services"
	"budgify/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.Fatal(applog.New(applog.DefaultConfig()), "Configuration validation failed", err)
	}
	logger, err := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	if err != nil {
		cli.Fatal(applog.New(applog.DefaultConfig()), "Failed to set up logging", err)
	}
	logger.Info("Starting budgify-worker")

	res, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	}()

	// The worker republishes month.updated for what it repairs, so the API
	// and the worker share one event stream.
	opts := []services.Option{}
	if res.Events != nil {
		opts = append(opts, services.WithEvents(res.Events))
	}
	repairer := worker.NewRepairWorker(services.NewBudgetService(res.Store, opts...), cfg.WorkerConcurrency, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	logger.Info("Performing startup sweep...")
	if err := repairer.StartupCheck(ctx); err != nil {
		// Don't exit, the periodic sweep retries.
		logger.Error("Failed startup sweep", applog.FieldError, err)
	}

	if res.Events != nil {
		go func() {
			err := res.Events.Consume(ctx, cfg.AMQPQueue, worker.Bindings, repairer.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping event consumption, AMQP is not configured")
	}

	go repairer.Run(ctx, cfg.RepairInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "events_handled", repairer.Handled())
}
