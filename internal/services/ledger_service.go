package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/ledger"
)

// LedgerService owns the read-mutate-write cycle for bills and income
// entries. Mutations target bills by their stable ID, never by list index or
// name, so they stay unambiguous across reloads.
type LedgerService struct {
	repo  *ledger.Repository
	clock func() time.Time
}

func NewLedgerService(repo *ledger.Repository) *LedgerService {
	return &LedgerService{repo: repo, clock: time.Now}
}

// WithClock overrides the service clock, for tests.
func (s *LedgerService) WithClock(clock func() time.Time) *LedgerService {
	s.clock = clock
	return s
}

// NewBill is the creation input for a bill; amounts and dates arrive as raw
// strings from the outside world and go through the normalizer here.
type NewBill struct {
	Name         string
	Amount       string
	DueDate      string
	Installments int
	Category     string
}

// NewIncome is the creation input for an income entry.
type NewIncome struct {
	Name   string
	Amount string
	Date   string
}

// AddBill normalizes the input, assigns a stable ID and appends the bill.
func (s *LedgerService) AddBill(ctx context.Context, in NewBill) (core.Bill, error) {
	dueDate, ok := core.ParseDateFlex(in.DueDate)
	if !ok {
		return core.Bill{}, core.ErrInvalidDueDate
	}
	installments := in.Installments
	if installments < 1 {
		installments = 1
	}
	bill := core.Bill{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Amount:       core.ParseMoney(in.Amount),
		DueDate:      dueDate,
		Installments: installments,
		Category:     core.ParseCategory(in.Category),
		Payments:     []core.Payment{},
	}
	if err := bill.Validate(); err != nil {
		return core.Bill{}, fmt.Errorf("validate bill: %w", err)
	}

	bills, err := s.repo.Bills(ctx)
	if err != nil {
		return core.Bill{}, err
	}
	bills = append(bills, bill)
	if err := s.repo.SaveBills(ctx, bills); err != nil {
		return core.Bill{}, err
	}

	slog.InfoContext(ctx, "Bill added",
		"bill_id", bill.ID,
		"name", bill.Name,
		"amount_cents", bill.Amount.Cents,
		"installments", bill.Installments,
		"category", bill.Category)
	return bill, nil
}

// RemoveBill deletes a bill by ID.
func (s *LedgerService) RemoveBill(ctx context.Context, id string) error {
	bills, err := s.repo.Bills(ctx)
	if err != nil {
		return err
	}
	idx := findBill(bills, id)
	if idx < 0 {
		return core.ErrBillNotFound
	}
	bills = append(bills[:idx], bills[idx+1:]...)
	if err := s.repo.SaveBills(ctx, bills); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Bill removed", "bill_id", id)
	return nil
}

// AddIncome normalizes the input, assigns a stable ID and appends the entry.
func (s *LedgerService) AddIncome(ctx context.Context, in NewIncome) (core.IncomeEntry, error) {
	when, ok := core.ParseTimeFlex(in.Date)
	if !ok {
		when = s.clock()
	}
	entry := core.IncomeEntry{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(in.Name),
		Amount: core.ParseMoney(in.Amount),
		Date:   core.NewFlexTime(when),
	}
	if err := entry.Validate(); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("validate income: %w", err)
	}

	incomes, err := s.repo.Incomes(ctx)
	if err != nil {
		return core.IncomeEntry{}, err
	}
	incomes = append(incomes, entry)
	if err := s.repo.SaveIncomes(ctx, incomes); err != nil {
		return core.IncomeEntry{}, err
	}

	slog.InfoContext(ctx, "Income added",
		"income_id", entry.ID,
		"name", entry.Name,
		"amount_cents", entry.Amount.Cents)
	return entry, nil
}

// RemoveIncome deletes an income entry by ID.
func (s *LedgerService) RemoveIncome(ctx context.Context, id string) error {
	incomes, err := s.repo.Incomes(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range incomes {
		if incomes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.ErrIncomeNotFound
	}
	incomes = append(incomes[:idx], incomes[idx+1:]...)
	if err := s.repo.SaveIncomes(ctx, incomes); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Income removed", "income_id", id)
	return nil
}

// Pay records one installment payment on the bill with the given ID.
//
// The outcome is three-way: (bill, true, nil) when the payment was applied,
// (bill, false, nil) when the bill is already settled (a no-op, the bill is
// returned unchanged), and (zero, false, err) for insufficient funds or a
// missing bill. An insufficient-funds rejection mutates nothing.
func (s *LedgerService) Pay(ctx context.Context, id string) (core.Bill, bool, error) {
	bills, err := s.repo.Bills(ctx)
	if err != nil {
		return core.Bill{}, false, err
	}
	incomes, err := s.repo.Incomes(ctx)
	if err != nil {
		return core.Bill{}, false, err
	}

	idx := findBill(bills, id)
	if idx < 0 {
		return core.Bill{}, false, core.ErrBillNotFound
	}
	bill := bills[idx]

	if bill.Settled() {
		slog.InfoContext(ctx, "Payment blocked: bill already settled", "bill_id", id)
		return bill, false, nil
	}

	// The funds guard is a precondition checked against the same snapshot
	// the payment will mutate.
	if !PaymentAllowed(bill, bills, incomes) {
		slog.InfoContext(ctx, "Payment rejected: insufficient funds",
			"bill_id", id,
			"amount_cents", bill.Amount.Cents,
			"balance_cents", TotalBalance(bills, incomes).Cents)
		return core.Bill{}, false, core.ErrInsufficientFunds
	}

	updated, ok := bill.RecordPayment(s.clock())
	if !ok {
		return bill, false, nil
	}
	bills[idx] = updated
	if err := s.repo.SaveBills(ctx, bills); err != nil {
		return core.Bill{}, false, err
	}

	slog.InfoContext(ctx, "Installment paid",
		"bill_id", id,
		"installment", updated.InstallmentsPaid,
		"of", updated.Installments,
		"next_due", updated.EffectiveDueDate().Format("2006-01-02"))
	return updated, true, nil
}

// UndoPayment removes the most recent payment from the bill with the given
// ID. With no payments recorded it is a no-op returning the bill unchanged.
func (s *LedgerService) UndoPayment(ctx context.Context, id string) (core.Bill, bool, error) {
	bills, err := s.repo.Bills(ctx)
	if err != nil {
		return core.Bill{}, false, err
	}
	idx := findBill(bills, id)
	if idx < 0 {
		return core.Bill{}, false, core.ErrBillNotFound
	}

	updated, ok := bills[idx].UndoLastPayment()
	if !ok {
		slog.InfoContext(ctx, "Undo blocked: no payments to undo", "bill_id", id)
		return bills[idx], false, nil
	}
	bills[idx] = updated
	if err := s.repo.SaveBills(ctx, bills); err != nil {
		return core.Bill{}, false, err
	}

	slog.InfoContext(ctx, "Payment undone",
		"bill_id", id,
		"installments_paid", updated.InstallmentsPaid)
	return updated, true, nil
}

func findBill(bills []core.Bill, id string) int {
	for i := range bills {
		if bills[i].ID == id {
			return i
		}
	}
	return -1
}
