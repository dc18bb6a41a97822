package main

import (
	"context"
	"errors"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/cli"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
	"budgeteer/internal/worker"
)

const auditInterval = 24 * time.Hour

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Configuration validation failed", errors.New("AMQP_URL is required for the worker"))
	}

	logger.Info("Starting budgeteer-worker", log.FieldBackend, cfg.DataBackend, log.FieldUserID, cfg.UserID)

	res, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		_ = res.Cleanup()
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", log.FieldError, err)
		}
	})

	auditor := services.NewAuditor(res.Backend, logger.WithComponent(log.ComponentAuditor))
	auditWorker := worker.NewAuditWorker(auditor, logger, nil)

	// Problems persisted while the worker was down
	logger.Info("Performing startup audit...")
	if err := auditWorker.StartupAudit(ctx, []string{cfg.UserID}); err != nil {
		logger.Error("Startup audit failed", log.FieldError, err)
	}

	go func() {
		err := amqpClient.ConsumeMonthChanged(ctx, auditWorker.HandleMonthChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	go func() {
		ticker := time.NewTicker(auditInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := auditWorker.StartupAudit(ctx, []string{cfg.UserID}); err != nil {
					logger.Error("Periodic audit failed", log.FieldError, err)
				}
			}
		}
	}()

	<-done
}
