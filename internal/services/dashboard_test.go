package services

import (
	"context"
	"testing"
	"time"

	"contas/internal/bus"
	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage/memory"
)

func newTestDashboard(t *testing.T) (*DashboardService, *LedgerService, *bus.Bus) {
	t.Helper()
	b := bus.New()
	repo := ledger.NewRepository(memory.New(), b)
	clock := func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.Local) }
	dash := NewDashboardService(repo).WithClock(clock)
	svc := NewLedgerService(repo).WithClock(clock)
	return dash, svc, b
}

func TestDashboardReflectsLedger(t *testing.T) {
	ctx := context.Background()
	dash, svc, _ := newTestDashboard(t)

	if _, err := svc.AddIncome(ctx, NewIncome{Name: "Salario", Amount: "3000"}); err != nil {
		t.Fatal(err)
	}
	bill, err := svc.AddBill(ctx, NewBill{Name: "Luz", Amount: "150", DueDate: "2024-01-22", Installments: 1, Category: "outros"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Pay(ctx, bill.ID); err != nil {
		t.Fatal(err)
	}

	d, err := dash.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Year != 2024 || d.Month != 1 {
		t.Errorf("dashboard month = %d-%d", d.Year, d.Month)
	}
	if d.Summary.Balance.Cents != 285000 {
		t.Errorf("balance = %d, want 285000", d.Summary.Balance.Cents)
	}
	if d.Summary.MonthSpend.Cents != 15000 {
		t.Errorf("month spend = %d, want 15000", d.Summary.MonthSpend.Cents)
	}
	if len(d.Weeks) != 5 {
		t.Errorf("weeks = %d, want 5", len(d.Weeks))
	}
	// Jan 20 lands in week 3.
	if d.Weeks[2].Total.Cents != 15000 {
		t.Errorf("week 3 total = %d", d.Weeks[2].Total.Cents)
	}
}

func TestDashboardCachePurgedOnChange(t *testing.T) {
	ctx := context.Background()
	dash, svc, b := newTestDashboard(t)
	cancel := dash.WatchChanges(b)
	defer cancel()

	if _, err := svc.AddIncome(ctx, NewIncome{Name: "Salario", Amount: "1000"}); err != nil {
		t.Fatal(err)
	}
	first, err := dash.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Summary.Balance.Cents != 100000 {
		t.Fatalf("balance = %d", first.Summary.Balance.Cents)
	}
	if dash.Cache().Size() != 1 {
		t.Fatalf("cache size = %d, want 1", dash.Cache().Size())
	}

	// The write publishes a change event, which must drop the cached snapshot
	// so the next read sees the new income.
	if _, err := svc.AddIncome(ctx, NewIncome{Name: "Extra", Amount: "500"}); err != nil {
		t.Fatal(err)
	}
	if dash.Cache().Size() != 0 {
		t.Fatalf("cache size after change = %d, want 0", dash.Cache().Size())
	}

	second, err := dash.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Summary.Balance.Cents != 150000 {
		t.Errorf("balance after change = %d, want 150000", second.Summary.Balance.Cents)
	}
}

func TestDashboardCacheHitWithoutChanges(t *testing.T) {
	ctx := context.Background()
	dash, svc, b := newTestDashboard(t)
	cancel := dash.WatchChanges(b)
	defer cancel()

	if _, err := svc.AddIncome(ctx, NewIncome{Name: "Salario", Amount: "1000"}); err != nil {
		t.Fatal(err)
	}
	if _, err := dash.Current(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := dash.Current(ctx); err != nil {
		t.Fatal(err)
	}
	if dash.Cache().Size() != 1 {
		t.Errorf("cache size = %d, want 1", dash.Cache().Size())
	}
}

func TestDashboardAlertsSettledFallThrough(t *testing.T) {
	ctx := context.Background()
	dash, svc, _ := newTestDashboard(t)

	if _, err := svc.AddIncome(ctx, NewIncome{Name: "Salario", Amount: "1000"}); err != nil {
		t.Fatal(err)
	}
	jan, err := svc.AddBill(ctx, NewBill{Name: "Luz", Amount: "100", DueDate: "2024-01-25", Installments: 1, Category: "outros"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddBill(ctx, NewBill{Name: "Agua", Amount: "80", DueDate: "2024-02-05", Installments: 1, Category: "outros"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Pay(ctx, jan.ID); err != nil {
		t.Fatal(err)
	}

	d, err := dash.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Alerts.NextMonth {
		t.Fatal("expected next-month alerts once january is settled")
	}
	if d.Alerts.MonthLabel != "fevereiro de 2024" {
		t.Errorf("month label = %q", d.Alerts.MonthLabel)
	}
	if len(d.Alerts.Alerts) != 1 || d.Alerts.Alerts[0].Bill.Name != "Agua" {
		t.Errorf("alerts = %+v", d.Alerts.Alerts)
	}
	if got := core.FormatBRL(d.Alerts.Alerts[0].Bill.Amount); got != "R$ 80,00" {
		t.Errorf("amount = %q", got)
	}
}
