package main

import (
	"context"
	"errors"
	"os"
	"time"

	"brankas/internal/amqp"
	"brankas/internal/backend"
	"brankas/internal/cli"
	"brankas/internal/log"
	"brankas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting brankas-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ledger, err := backend.NewLedger(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(ledger, logger)

	consumed := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		select {
		case <-consumed:
		case <-shutdownCtx.Done():
		}
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	go func() {
		defer close(consumed)
		err := consumer.ConsumeTransactionEvents(ctx, mirror.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption stopped", log.FieldError, err, log.FieldOperation, log.OpConsume)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
