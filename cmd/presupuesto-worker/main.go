package main

import (
	"context"
	"errors"
	"os"

	"presupuesto/internal/cli"
	"presupuesto/internal/config"
	applog "presupuesto/internal/log"
	gsheet "presupuesto/internal/sheets/google"
	"presupuesto/internal/worker"
)

func main() {
	boot := cli.BootstrapLogger()
	cfg := cli.LoadAndValidateConfig(boot, func(c *config.Config) error {
		return errors.Join(c.Validate(), c.ValidateWorker())
	})
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	loc := cli.Location(logger, cfg)

	logger.Info("Starting presupuesto-worker")

	result := cli.InitBackend(context.Background(), logger, cfg, true)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	}()

	creds, err := cfg.ServiceAccountJSON()
	if err != nil {
		logger.Error("Failed to read Google credentials", applog.FieldError, err)
		os.Exit(1)
	}
	sheet, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: creds,
		Location:        loc,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	mirror := worker.NewMirrorWorker(result.Store, sheet, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	if err := mirror.Prepare(ctx); err != nil {
		// The header is cosmetic; rows can still be appended.
		logger.Error("Failed to write sheet header", applog.FieldError, err)
	}

	if err := result.AMQP.Consume(ctx, mirror.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
