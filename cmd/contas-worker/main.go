package main

import (
	"os"

	"contas/internal/amqp"
	"contas/internal/cli"
	applog "contas/internal/log"
	"contas/internal/services"
)

// contas-worker consumes ledger change signals from the broker and logs the
// recomputed due alerts for each change, giving a broker-driven view of the
// ledger without polling.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting contas-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	result := cli.InitBackend(logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Cleanup failed", applog.FieldError, err)
			}
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	dashboards := services.NewDashboardService(result.Repo)
	cancelWatch := dashboards.WatchChanges(result.Bus)
	defer cancelWatch()

	logger.Info("Consuming ledger changes", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
		logger.InfoContext(ctx, "Ledger changed", applog.FieldCollection, msg.Collection)

		// The write happened in another process, so the local bus never saw
		// it; drop the snapshot cache before recomputing.
		dashboards.Cache().Purge()
		d, err := dashboards.Current(ctx)
		if err != nil {
			return err
		}
		for _, alert := range d.Alerts.Alerts {
			logger.InfoContext(ctx, alert.Message,
				applog.FieldBillID, alert.Bill.ID,
				applog.FieldBillName, alert.Bill.Name,
				applog.FieldDaysUntil, alert.DaysUntil,
				applog.FieldUrgency, string(alert.Urgency))
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}
