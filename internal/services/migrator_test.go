package services

import (
	"context"
	"testing"

	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage/memory"
)

// countingKV wraps the in-memory store and counts writes, so tests can assert
// that a migration run persists at most once.
type countingKV struct {
	*memory.Store
	sets int
}

func (c *countingKV) Set(ctx context.Context, collection string, payload []byte) error {
	c.sets++
	return c.Store.Set(ctx, collection, payload)
}

func TestBackfillPaymentsLegacyBill(t *testing.T) {
	legacy := core.Bill{
		ID:               "fin",
		Name:             "Financiamento",
		Amount:           core.Money{Cents: 5000},
		DueDate:          core.NewDate(2024, 1, 1),
		Installments:     4,
		InstallmentsPaid: 2,
	}

	out, count := BackfillPayments([]core.Bill{legacy})
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	payments := out[0].Payments
	if len(payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(payments))
	}
	wantDates := []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1)}
	for i, p := range payments {
		if p.Amount.Cents != 5000 {
			t.Errorf("payment %d amount = %d, want 5000", i, p.Amount.Cents)
		}
		if !p.Date.Equal(wantDates[i].Time) {
			t.Errorf("payment %d date = %v, want %v", i, p.Date, wantDates[i])
		}
	}
}

func TestBackfillPaymentsIdempotent(t *testing.T) {
	legacy := core.Bill{
		ID: "a", Name: "a", Amount: core.Money{Cents: 5000},
		DueDate: core.NewDate(2024, 1, 1), Installments: 4, InstallmentsPaid: 2,
	}
	once, count := BackfillPayments([]core.Bill{legacy})
	if count != 1 {
		t.Fatalf("first run count = %d", count)
	}
	twice, count := BackfillPayments(once)
	if count != 0 {
		t.Errorf("second run count = %d, want 0", count)
	}
	if len(twice[0].Payments) != 2 {
		t.Errorf("payments = %d after second run, want 2", len(twice[0].Payments))
	}
}

func TestBackfillPaymentsSkipsModernAndUnpaid(t *testing.T) {
	bills := []core.Bill{
		// Empty-but-present payments list marks a modern bill.
		{ID: "modern", InstallmentsPaid: 1, Payments: []core.Payment{}},
		{ID: "unpaid", Installments: 3},
	}
	out, count := BackfillPayments(bills)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if len(out[0].Payments) != 0 || out[1].Payments != nil {
		t.Errorf("bills were touched: %+v", out)
	}
}

func TestBackfillPaymentsZeroDueDate(t *testing.T) {
	bills := []core.Bill{
		{ID: "nodate", Amount: core.Money{Cents: 100}, InstallmentsPaid: 2},
	}
	out, count := BackfillPayments(bills)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if len(out[0].Payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(out[0].Payments))
	}
	for i, p := range out[0].Payments {
		if !p.Date.IsZero() {
			t.Errorf("payment %d should carry a zero timestamp, got %v", i, p.Date)
		}
	}
}

func TestMigratorRunPersistsOnce(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{Store: memory.New()}
	repo := ledger.NewRepository(kv, nil)

	seed := []core.Bill{
		{ID: "a", Name: "a", Amount: core.Money{Cents: 5000}, DueDate: core.NewDate(2024, 1, 1), Installments: 4, InstallmentsPaid: 2},
		{ID: "b", Name: "b", Amount: core.Money{Cents: 3000}, DueDate: core.NewDate(2024, 3, 10), Installments: 2, InstallmentsPaid: 1},
	}
	if err := repo.SaveBills(ctx, seed); err != nil {
		t.Fatal(err)
	}
	kv.sets = 0

	count, err := NewMigrator(repo).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("migrated = %d, want 2", count)
	}
	if kv.sets != 1 {
		t.Errorf("writes = %d, want 1", kv.sets)
	}

	// Persisted bills now carry explicit payments.
	bills, err := repo.Bills(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range bills {
		if len(b.Payments) != b.InstallmentsPaid {
			t.Errorf("bill %s: payments = %d, counter = %d", b.ID, len(b.Payments), b.InstallmentsPaid)
		}
	}

	// A second run finds explicit payment lists everywhere and writes nothing.
	count, err = NewMigrator(repo).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 || kv.sets != 1 {
		t.Errorf("second run migrated %d with %d writes, want 0 and 1", count, kv.sets)
	}
}
