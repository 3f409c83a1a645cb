package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage/memory"
)

func newTestService(t *testing.T) (*LedgerService, *ledger.Repository) {
	t.Helper()
	repo := ledger.NewRepository(memory.New(), nil)
	svc := NewLedgerService(repo).WithClock(func() time.Time {
		return time.Date(2024, 1, 20, 12, 0, 0, 0, time.Local)
	})
	return svc, repo
}

func seedBill(t *testing.T, svc *LedgerService) core.Bill {
	t.Helper()
	bill, err := svc.AddBill(context.Background(), NewBill{
		Name:         "Financiamento",
		Amount:       "100",
		DueDate:      "2024-01-15",
		Installments: 3,
		Category:     "divida",
	})
	if err != nil {
		t.Fatalf("add bill: %v", err)
	}
	return bill
}

func seedIncome(t *testing.T, svc *LedgerService, amount string) {
	t.Helper()
	if _, err := svc.AddIncome(context.Background(), NewIncome{
		Name:   "Salario",
		Amount: amount,
		Date:   "2024-01-01",
	}); err != nil {
		t.Fatalf("add income: %v", err)
	}
}

func TestPayHappyPath(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	bill := seedBill(t, svc)
	seedIncome(t, svc, "500")

	paid, ok, err := svc.Pay(ctx, bill.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !ok {
		t.Fatal("payment should have been applied")
	}
	if paid.InstallmentsPaid != 1 {
		t.Errorf("installmentsPaid = %d, want 1", paid.InstallmentsPaid)
	}
	if len(paid.Payments) != 1 || paid.Payments[0].Amount.Cents != 10000 {
		t.Errorf("payments = %+v", paid.Payments)
	}
	if want := core.NewDate(2024, 2, 15); !paid.EffectiveDueDate().Equal(want.Time) {
		t.Errorf("due date = %v, want %v", paid.EffectiveDueDate(), want)
	}
}

func TestPayInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	bill := seedBill(t, svc)
	seedIncome(t, svc, "50")

	_, ok, err := svc.Pay(ctx, bill.ID)
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if ok {
		t.Error("payment must not be applied")
	}

	// Nothing was mutated.
	bills, _ := repo.Bills(ctx)
	if bills[0].InstallmentsPaid != 0 || len(bills[0].Payments) != 0 {
		t.Errorf("state mutated on rejection: %+v", bills[0])
	}
}

func TestPaySettledBillIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	bill := seedBill(t, svc)
	seedIncome(t, svc, "1000")

	for i := 0; i < 3; i++ {
		if _, ok, err := svc.Pay(ctx, bill.ID); err != nil || !ok {
			t.Fatalf("pay %d: ok=%v err=%v", i+1, ok, err)
		}
	}

	got, ok, err := svc.Pay(ctx, bill.ID)
	if err != nil {
		t.Fatalf("pay settled: %v", err)
	}
	if ok {
		t.Error("payment on settled bill must be a no-op")
	}
	if got.InstallmentsPaid != 3 {
		t.Errorf("installmentsPaid = %d, want 3", got.InstallmentsPaid)
	}
	bills, _ := repo.Bills(ctx)
	if len(bills[0].Payments) != 3 {
		t.Errorf("payments = %d, want 3", len(bills[0].Payments))
	}
}

func TestPayUnknownBill(t *testing.T) {
	svc, _ := newTestService(t)
	if _, _, err := svc.Pay(context.Background(), "nope"); !errors.Is(err, core.ErrBillNotFound) {
		t.Errorf("err = %v, want ErrBillNotFound", err)
	}
}

func TestUndoRestoresPriorState(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	bill := seedBill(t, svc)
	seedIncome(t, svc, "500")

	svc.Pay(ctx, bill.ID)
	undone, ok, err := svc.UndoPayment(ctx, bill.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !ok {
		t.Fatal("undo should have been applied")
	}
	if undone.InstallmentsPaid != 0 || len(undone.Payments) != 0 {
		t.Errorf("undo did not restore: %+v", undone)
	}
	if want := core.NewDate(2024, 1, 15); !undone.EffectiveDueDate().Equal(want.Time) {
		t.Errorf("due date = %v, want %v", undone.EffectiveDueDate(), want)
	}

	bills, _ := repo.Bills(ctx)
	if bills[0].InstallmentsPaid != 0 {
		t.Errorf("persisted state = %+v", bills[0])
	}
}

func TestUndoWithNoPaymentsIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	bill := seedBill(t, svc)

	got, ok, err := svc.UndoPayment(ctx, bill.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if ok {
		t.Error("undo with no payments must be a no-op")
	}
	if got.InstallmentsPaid != 0 {
		t.Errorf("bill changed: %+v", got)
	}
}

func TestAddBillNormalizesInput(t *testing.T) {
	svc, _ := newTestService(t)
	bill, err := svc.AddBill(context.Background(), NewBill{
		Name:         "  Mercado  ",
		Amount:       "1.234,56",
		DueDate:      "31/12/24",
		Installments: 0, // floors to 1
		Category:     "nonsense",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if bill.ID == "" {
		t.Error("bill must get a stable ID at creation")
	}
	if bill.Name != "Mercado" {
		t.Errorf("name = %q", bill.Name)
	}
	if bill.Amount.Cents != 123456 {
		t.Errorf("amount = %d", bill.Amount.Cents)
	}
	if !bill.DueDate.Equal(core.NewDate(2024, 12, 31).Time) {
		t.Errorf("due date = %v", bill.DueDate)
	}
	if bill.Installments != 1 {
		t.Errorf("installments = %d, want 1", bill.Installments)
	}
	if bill.Category != core.CategoryOther {
		t.Errorf("category = %q, want outros", bill.Category)
	}
}

func TestAddBillRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name string
		in   NewBill
	}{
		{"bad date", NewBill{Name: "x", Amount: "10", DueDate: "nope", Installments: 1}},
		{"zero amount", NewBill{Name: "x", Amount: "bad", DueDate: "2024-01-01", Installments: 1}},
		{"empty name", NewBill{Name: "  ", Amount: "10", DueDate: "2024-01-01", Installments: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddBill(context.Background(), tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRemoveBillAndIncome(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	bill := seedBill(t, svc)
	income, err := svc.AddIncome(ctx, NewIncome{Name: "Extra", Amount: "10", Date: "2024-01-02"})
	if err != nil {
		t.Fatalf("add income: %v", err)
	}

	if err := svc.RemoveBill(ctx, bill.ID); err != nil {
		t.Fatalf("remove bill: %v", err)
	}
	if err := svc.RemoveBill(ctx, bill.ID); !errors.Is(err, core.ErrBillNotFound) {
		t.Errorf("second remove err = %v, want ErrBillNotFound", err)
	}

	if err := svc.RemoveIncome(ctx, income.ID); err != nil {
		t.Fatalf("remove income: %v", err)
	}
	if err := svc.RemoveIncome(ctx, income.ID); !errors.Is(err, core.ErrIncomeNotFound) {
		t.Errorf("second remove err = %v, want ErrIncomeNotFound", err)
	}

	bills, _ := repo.Bills(ctx)
	incomes, _ := repo.Incomes(ctx)
	if len(bills) != 0 || len(incomes) != 0 {
		t.Errorf("collections not empty: %d bills, %d incomes", len(bills), len(incomes))
	}
}
