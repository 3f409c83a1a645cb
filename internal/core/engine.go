package core

import "time"

// EffectiveDueDate is the due date of the next unpaid installment: the first
// due date advanced by one calendar month per installment already paid. It is
// derived, never stored, so pay/undo sequences stay consistent.
func (b Bill) EffectiveDueDate() Date {
	return AddMonths(b.DueDate, b.InstallmentsPaid)
}

// Settled reports whether every installment has been paid.
func (b Bill) Settled() bool {
	return b.InstallmentsPaid >= b.Installments
}

// Progress returns completion as a percentage in [0,100].
func (b Bill) Progress() int {
	if b.Installments < 1 {
		return 0
	}
	p := b.InstallmentsPaid * 100 / b.Installments
	if p > 100 {
		p = 100
	}
	return p
}

// RecordPayment appends a payment of the unit installment amount timestamped
// at now and increments the installment counter, which implicitly advances
// the effective due date by one month. On a settled bill nothing happens and
// ok is false.
//
// The funds check is the caller's precondition, not part of this contract.
func (b Bill) RecordPayment(now time.Time) (Bill, bool) {
	if b.InstallmentsPaid >= b.Installments {
		return b, false
	}
	payments := make([]Payment, len(b.Payments), len(b.Payments)+1)
	copy(payments, b.Payments)
	b.Payments = append(payments, Payment{Amount: b.Amount, Date: NewFlexTime(now)})
	b.InstallmentsPaid++
	return b, true
}

// UndoLastPayment removes the most recent payment (strictly a stack pop) and
// decrements the installment counter, rewinding the effective due date one
// month. With no payments recorded nothing happens and ok is false.
func (b Bill) UndoLastPayment() (Bill, bool) {
	if len(b.Payments) == 0 {
		return b, false
	}
	payments := make([]Payment, len(b.Payments)-1)
	copy(payments, b.Payments[:len(b.Payments)-1])
	b.Payments = payments
	if b.InstallmentsPaid > 0 {
		b.InstallmentsPaid--
	}
	return b, true
}

// TotalPaid sums the bill's recorded payments.
func (b Bill) TotalPaid() Money {
	var cents int64
	for _, p := range b.Payments {
		cents += p.Amount.Cents
	}
	return Money{Cents: cents}
}
