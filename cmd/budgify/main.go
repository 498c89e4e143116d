package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"budgify/internal/auth"
	"budgify/internal/cli"
	"budgify/internal/config"
	apphttp "budgify/internal/http"
	applog "budgify/internal/log"
	"budgify/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		bootstrap := applog.New(applog.DefaultConfig())
		cli.Fatal(bootstrap, "Configuration validation failed", err)
	}

	logger, err := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)
	if err != nil {
		cli.Fatal(applog.New(applog.DefaultConfig()), "Failed to set up logging", err)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.WithComponent(applog.ComponentSecurity).Warn("JWT_SECRET is not set, using the development secret")
	}

	res, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}

	opts := []services.Option{}
	if res.Events != nil {
		opts = append(opts, services.WithEvents(res.Events))
	}
	svc := services.NewBudgetService(res.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), apphttp.Options{
		ClientOrigins:      cfg.ClientOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CookieSecure:       cfg.CookieSecure,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting budgify server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Events != nil,
		"origins", cfg.ClientOrigins)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if cerr := res.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup error", applog.FieldError, cerr)
		}
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", applog.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
