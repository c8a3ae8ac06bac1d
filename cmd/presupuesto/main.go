package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"presupuesto/internal/cli"
	"presupuesto/internal/config"
	apphttp "presupuesto/internal/http"
	applog "presupuesto/internal/log"
	"presupuesto/internal/services"
)

func main() {
	boot := cli.BootstrapLogger()
	cfg := cli.LoadAndValidateConfig(boot, (*config.Config).Validate)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	loc := cli.Location(logger, cfg)

	result := cli.InitBackend(context.Background(), logger, cfg, false)
	analysis := services.NewAnalysisService(result.Store, loc)

	srv := apphttp.NewServer(":"+cfg.Port, result.Entries, analysis, apphttp.Options{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		Logger:      logger,
		Location:    loc,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting presupuesto server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", loc.String(),
		"amqp_enabled", result.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = result.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
