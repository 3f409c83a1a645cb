package core

import "time"

// FlowKind selects which side of the ledger a period aggregate reads.
type FlowKind string

const (
	FlowPayment FlowKind = "payment"
	FlowIncome  FlowKind = "income"
)

// CategoryAmount is an amount aggregated by bill category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// PaymentDetail is one payment annotated with its owning bill, used for
// week-bucket drill-down.
type PaymentDetail struct {
	BillID   string
	BillName string
	Category Category
	Amount   Money
	Date     time.Time
}

// WeekBucket is one of the five per-month spending buckets. Zero-valued
// buckets are still materialized so a five-slot display is always possible.
type WeekBucket struct {
	Week     int // 1-5
	Total    Money
	Payments []PaymentDetail
}

// LedgerSummary is the compact overview shown on the ledger's summary cards.
type LedgerSummary struct {
	BillCount      int
	TotalPaid      Money
	TotalRemaining Money
	Balance        Money
	MonthSpend     Money
	MonthIncome    Money
}
