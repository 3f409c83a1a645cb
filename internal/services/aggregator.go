// Package services holds the business logic over ledger snapshots: paying
// and undoing installments, balance and period aggregation, due-date
// classification, legacy migration and dashboard assembly.
//
// Every service method re-reads the store; nothing here caches a snapshot,
// because independent writers may replace the collections between calls.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"contas/internal/core"
	"contas/internal/ledger"
)

// Aggregator derives balances and period totals from the full ledger.
type Aggregator struct {
	repo *ledger.Repository
}

func NewAggregator(repo *ledger.Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// TotalBalance reads a fresh snapshot and returns income minus everything
// paid, floored at zero: the ledger reports funds available, not debt.
func (a *Aggregator) TotalBalance(ctx context.Context) (core.Money, error) {
	bills, incomes, err := a.snapshot(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return TotalBalance(bills, incomes), nil
}

// MonthFlow sums payments or income entries falling in the given calendar
// month. Entries with unparseable dates contribute nothing.
func (a *Aggregator) MonthFlow(ctx context.Context, kind core.FlowKind, year, month int) (core.Money, error) {
	bills, incomes, err := a.snapshot(ctx)
	if err != nil {
		return core.Money{}, err
	}
	switch kind {
	case core.FlowPayment:
		return MonthSpend(bills, year, month), nil
	case core.FlowIncome:
		return MonthIncome(incomes, year, month), nil
	default:
		return core.Money{}, fmt.Errorf("unknown flow kind: %s", kind)
	}
}

// WeeklyBuckets splits the month's payments into the five week buckets.
func (a *Aggregator) WeeklyBuckets(ctx context.Context, year, month int) ([]core.WeekBucket, error) {
	bills, err := a.repo.Bills(ctx)
	if err != nil {
		return nil, err
	}
	return WeeklyBuckets(bills, year, month), nil
}

// CategoryTotals groups the month's payments by bill category.
func (a *Aggregator) CategoryTotals(ctx context.Context, year, month int) ([]core.CategoryAmount, error) {
	bills, err := a.repo.Bills(ctx)
	if err != nil {
		return nil, err
	}
	return CategoryTotals(bills, year, month), nil
}

// Summary builds the overview cards for the month containing now.
func (a *Aggregator) Summary(ctx context.Context, now time.Time) (core.LedgerSummary, error) {
	bills, incomes, err := a.snapshot(ctx)
	if err != nil {
		return core.LedgerSummary{}, err
	}
	return Summarize(bills, incomes, now), nil
}

func (a *Aggregator) snapshot(ctx context.Context) ([]core.Bill, []core.IncomeEntry, error) {
	bills, err := a.repo.Bills(ctx)
	if err != nil {
		return nil, nil, err
	}
	incomes, err := a.repo.Incomes(ctx)
	if err != nil {
		return nil, nil, err
	}
	return bills, incomes, nil
}

// TotalBalance is sum of income minus sum of all recorded payments, never
// negative.
func TotalBalance(bills []core.Bill, incomes []core.IncomeEntry) core.Money {
	var cents int64
	for _, in := range incomes {
		cents += in.Amount.Cents
	}
	for _, b := range bills {
		cents -= b.TotalPaid().Cents
	}
	if cents < 0 {
		cents = 0
	}
	return core.Money{Cents: cents}
}

// PaymentAllowed is the funds guard: a bill's unit amount must fit in the
// current balance.
func PaymentAllowed(bill core.Bill, bills []core.Bill, incomes []core.IncomeEntry) bool {
	return bill.Amount.Cents <= TotalBalance(bills, incomes).Cents
}

// MonthSpend sums payments whose timestamp falls in the given month.
func MonthSpend(bills []core.Bill, year, month int) core.Money {
	var cents int64
	for _, b := range bills {
		for _, p := range b.Payments {
			if p.Date.IsZero() {
				continue
			}
			if core.SameMonth(p.Date.Time, year, month) {
				cents += p.Amount.Cents
			}
		}
	}
	return core.Money{Cents: cents}
}

// MonthIncome sums income entries whose date falls in the given month.
func MonthIncome(incomes []core.IncomeEntry, year, month int) core.Money {
	var cents int64
	for _, in := range incomes {
		if in.Date.IsZero() {
			continue
		}
		if core.SameMonth(in.Date.Time, year, month) {
			cents += in.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// WeeklyBuckets always returns exactly five buckets; the sum of their totals
// equals MonthSpend for the same month. Each bucket keeps its contributing
// payments for drill-down.
func WeeklyBuckets(bills []core.Bill, year, month int) []core.WeekBucket {
	buckets := make([]core.WeekBucket, 5)
	for i := range buckets {
		buckets[i].Week = i + 1
	}
	for _, b := range bills {
		for _, p := range b.Payments {
			if p.Date.IsZero() || !core.SameMonth(p.Date.Time, year, month) {
				continue
			}
			w := core.WeekOfMonth(p.Date.Time)
			buckets[w-1].Total.Cents += p.Amount.Cents
			buckets[w-1].Payments = append(buckets[w-1].Payments, core.PaymentDetail{
				BillID:   b.ID,
				BillName: b.Name,
				Category: b.Category,
				Amount:   p.Amount,
				Date:     p.Date.Time,
			})
		}
	}
	return buckets
}

// CategoryTotals groups the month's payments by the owning bill's category,
// ordered by descending amount for stable display.
func CategoryTotals(bills []core.Bill, year, month int) []core.CategoryAmount {
	sums := make(map[core.Category]int64)
	for _, b := range bills {
		cat := b.Category
		if !cat.IsValid() {
			cat = core.CategoryOther
		}
		for _, p := range b.Payments {
			if p.Date.IsZero() || !core.SameMonth(p.Date.Time, year, month) {
				continue
			}
			sums[cat] += p.Amount.Cents
		}
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for cat, cents := range sums {
		out = append(out, core.CategoryAmount{Category: cat, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summarize builds the overview cards: bill count, totals and the current
// month's flows.
func Summarize(bills []core.Bill, incomes []core.IncomeEntry, now time.Time) core.LedgerSummary {
	var paid, committed int64
	for _, b := range bills {
		paid += b.TotalPaid().Cents
		committed += b.Amount.Cents * int64(b.Installments)
	}
	remaining := committed - paid
	if remaining < 0 {
		remaining = 0
	}
	year, month := now.Year(), int(now.Month())
	return core.LedgerSummary{
		BillCount:      len(bills),
		TotalPaid:      core.Money{Cents: paid},
		TotalRemaining: core.Money{Cents: remaining},
		Balance:        TotalBalance(bills, incomes),
		MonthSpend:     MonthSpend(bills, year, month),
		MonthIncome:    MonthIncome(incomes, year, month),
	}
}
