package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/cli"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	logger.Info("Starting contas")

	cfg := cli.LoadAndValidateConfig(logger)
	result := cli.InitBackend(logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Cleanup failed", applog.FieldError, err)
			}
		}
	}()

	ctx, stop := cli.SignalContext()
	defer stop()

	// Backfill payment history for bills persisted before payments were
	// tracked explicitly. Runs once per process, before any reads.
	migrated, err := services.NewMigrator(result.Repo).Run(ctx)
	if err != nil {
		logger.Error("Legacy migration failed", applog.FieldError, err)
		os.Exit(1)
	}
	if migrated > 0 {
		logger.Info("Migrated legacy bills", applog.FieldMigrated, migrated)
	}

	dashboards := services.NewDashboardService(result.Repo)
	cancelWatch := dashboards.WatchChanges(result.Bus)
	defer cancelWatch()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return refreshLoop(ctx, logger, dashboards, cfg.RefreshInterval)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if removed := dashboards.Cache().CleanExpired(); removed > 0 {
					logger.Debug("Expired dashboard snapshots removed", "count", removed)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker group stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}

// refreshLoop recomputes the current month's dashboard on an interval and
// logs due alerts, so the operator sees urgency changes as days tick over
// even when no write arrives.
func refreshLoop(ctx context.Context, logger *applog.Logger, dashboards *services.DashboardService, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logDashboard(ctx, logger, dashboards)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			logDashboard(ctx, logger, dashboards)
		}
	}
}

func logDashboard(ctx context.Context, logger *applog.Logger, dashboards *services.DashboardService) {
	d, err := dashboards.Current(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build dashboard", applog.FieldError, err)
		return
	}

	logger.InfoContext(ctx, "Ledger summary",
		applog.FieldYear, d.Year,
		applog.FieldMonth, d.Month,
		"bills", d.Summary.BillCount,
		"balance", core.FormatBRL(d.Summary.Balance),
		"month_spend", core.FormatBRL(d.Summary.MonthSpend),
		"month_income", core.FormatBRL(d.Summary.MonthIncome))

	if d.Alerts.NextMonth && len(d.Alerts.Alerts) > 0 {
		logger.InfoContext(ctx, "All bills settled this month, showing next month", "month", d.Alerts.MonthLabel)
	}
	for _, alert := range d.Alerts.Alerts {
		logger.InfoContext(ctx, alert.Message,
			applog.FieldBillID, alert.Bill.ID,
			applog.FieldBillName, alert.Bill.Name,
			applog.FieldDaysUntil, alert.DaysUntil,
			applog.FieldUrgency, string(alert.Urgency))
	}
}
