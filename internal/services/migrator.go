package services

import (
	"context"
	"log/slog"

	"contas/internal/core"
	"contas/internal/ledger"
)

// Migrator backfills payment history for bills persisted by app generations
// that only tracked an installment counter. It runs once at ledger load and
// is idempotent: a bill that already carries a payments list, even an empty
// one, is left untouched.
type Migrator struct {
	repo *ledger.Repository
}

func NewMigrator(repo *ledger.Repository) *Migrator {
	return &Migrator{repo: repo}
}

// Run migrates the persisted bills collection. The ledger is written back
// exactly once, and only if at least one bill was migrated.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	bills, err := m.repo.Bills(ctx)
	if err != nil {
		return 0, err
	}

	migrated, count := BackfillPayments(bills)
	if count == 0 {
		slog.InfoContext(ctx, "Legacy migration: nothing to do", "bills", len(bills))
		return 0, nil
	}

	if err := m.repo.SaveBills(ctx, migrated); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Legacy migration complete", "migrated", count, "bills", len(bills))
	return count, nil
}

// BackfillPayments synthesizes payment records for legacy bills: one payment
// per already-counted installment, timestamped at the base due date advanced
// by i months, at the unit installment amount. When the base due date is
// unparseable the payments get zero timestamps so the counter/payments
// invariant still holds; aggregation already excludes zero dates.
//
// Returns the (possibly rewritten) list and how many bills were migrated.
func BackfillPayments(bills []core.Bill) ([]core.Bill, int) {
	count := 0
	out := make([]core.Bill, len(bills))
	for i, b := range bills {
		if b.Payments != nil || b.InstallmentsPaid <= 0 {
			out[i] = b
			continue
		}
		payments := make([]core.Payment, 0, b.InstallmentsPaid)
		for n := 0; n < b.InstallmentsPaid; n++ {
			paidAt := core.AddMonths(b.DueDate, n)
			payments = append(payments, core.Payment{
				Amount: b.Amount,
				Date:   core.NewFlexTime(paidAt.Time),
			})
		}
		b.Payments = payments
		out[i] = b
		count++
	}
	return out, count
}
