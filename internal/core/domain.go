package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	CategoryFood      Category = "alimentacao"
	CategoryTransport Category = "transporte"
	CategoryLeisure   Category = "lazer"
	CategoryDebt      Category = "divida"
	CategorySalary    Category = "salario"
	CategoryOther     Category = "outros"
)

type (
	// Category is the closed set of bill categories. Unrecognized persisted
	// values collapse to CategoryOther.
	Category string

	// Payment is one settled installment. Payments are append-only: the only
	// removal ever performed is popping the most recent one (undo).
	Payment struct {
		Amount Money    `json:"amount"`
		Date   FlexTime `json:"date"`
	}

	// Bill is a recurring obligation paid in fixed monthly installments.
	// The effective due date is derived from DueDate and InstallmentsPaid,
	// never stored mutated.
	Bill struct {
		ID               string    `json:"id"`
		Name             string    `json:"name"`
		Amount           Money     `json:"amount"`
		DueDate          Date      `json:"dueDate"`
		Installments     int       `json:"installments"`
		InstallmentsPaid int       `json:"installmentsPaid"`
		Category         Category  `json:"category"`
		Payments         []Payment `json:"payments"`
	}

	// IncomeEntry is a single income event with no installment semantics.
	IncomeEntry struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Amount Money    `json:"amount"`
		Date   FlexTime `json:"date"`
	}
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidDueDate      = errors.New("invalid due date")
	ErrBillNotFound        = errors.New("bill not found")
	ErrIncomeNotFound      = errors.New("income entry not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
)

// UnmarshalJSON normalizes legacy persisted shapes: a missing or zero
// installment count means a single-installment bill, and an unrecognized
// category collapses to CategoryOther, so old records stay pending and
// payable. A nil payments list survives as nil; that is how the migrator
// recognizes records that predate payment tracking.
func (b *Bill) UnmarshalJSON(data []byte) error {
	type plain Bill
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Installments < 1 {
		p.Installments = 1
	}
	p.Category = ParseCategory(string(p.Category))
	*b = Bill(p)
	return nil
}

// ParseCategory maps raw input to a known category, falling back to
// CategoryOther for anything unrecognized.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// IsValid returns true if the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryLeisure, CategoryDebt, CategorySalary, CategoryOther:
		return true
	default:
		return false
	}
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if b.Installments < 1 {
		return ErrInvalidInstallments
	}
	if b.DueDate.IsZero() {
		return ErrInvalidDueDate
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}
