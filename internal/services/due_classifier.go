package services

import (
	"fmt"
	"math"
	"sort"

	"contas/internal/core"
)

// Urgency is the classification bucket for an unpaid installment's due date.
type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyDueToday Urgency = "due-today"
	UrgencyDueSoon  Urgency = "due-soon" // within 3 days
	UrgencyUpcoming Urgency = "upcoming" // within 5 days
	UrgencyNormal   Urgency = "normal"
)

// BillAlert is one classified entry on the alert surface.
type BillAlert struct {
	Bill      core.Bill
	DaysUntil int
	Urgency   Urgency
	Message   string
}

// AlertReport is the alert surface for a given day. When every current-month
// bill is settled, Alerts holds next month's due bills and NextMonth is set
// so the caller can render the distinct heading.
type AlertReport struct {
	Alerts     []BillAlert
	NextMonth  bool
	MonthLabel string
}

// DaysUntil counts whole days from today to the due date on date-only
// values, so time-of-day can never shift the count.
func DaysUntil(due, today core.Date) int {
	d := core.DateOf(due.Time)
	t := core.DateOf(today.Time)
	return int(math.Round(d.Sub(t.Time).Hours() / 24))
}

// Classify assigns the urgency tier for a due date seen from today.
func Classify(due, today core.Date) (Urgency, int) {
	days := DaysUntil(due, today)
	switch {
	case days < 0:
		return UrgencyOverdue, days
	case days == 0:
		return UrgencyDueToday, days
	case days <= 3:
		return UrgencyDueSoon, days
	case days <= 5:
		return UrgencyUpcoming, days
	default:
		return UrgencyNormal, days
	}
}

// AlertMessage is the user-facing day-count message.
func AlertMessage(days int) string {
	switch {
	case days < 0:
		return "Conta vencida, pague imediatamente"
	case days == 0:
		return "Sua conta vence hoje, pague imediatamente"
	default:
		return fmt.Sprintf("Sua conta vence em %d dia(s)", days)
	}
}

// DueAlerts builds the alert surface: all bills whose next unpaid
// installment is due in today's month, sorted ascending by days until due.
// If none remain it falls back to next calendar month's due bills under the
// NextMonth heading. Settled bills never appear in either view, and bills
// with unparseable due dates are excluded rather than pinned to an epoch.
func DueAlerts(bills []core.Bill, today core.Date) AlertReport {
	pending := make([]core.Bill, 0, len(bills))
	for _, b := range bills {
		if !b.Settled() && !b.EffectiveDueDate().IsZero() {
			pending = append(pending, b)
		}
	}

	year, month := today.Year(), int(today.Month())
	report := AlertReport{Alerts: collectMonth(pending, today, year, month)}

	if len(report.Alerts) == 0 {
		next := core.AddMonths(core.NewDate(year, month, 1), 1)
		report.Alerts = collectMonth(pending, today, next.Year(), int(next.Month()))
		if len(report.Alerts) > 0 {
			report.NextMonth = true
			report.MonthLabel = monthLabel(next)
		}
	}

	sort.SliceStable(report.Alerts, func(i, j int) bool {
		return report.Alerts[i].DaysUntil < report.Alerts[j].DaysUntil
	})
	return report
}

func collectMonth(pending []core.Bill, today core.Date, year, month int) []BillAlert {
	var alerts []BillAlert
	for _, b := range pending {
		due := b.EffectiveDueDate()
		if !core.SameMonth(due.Time, year, month) {
			continue
		}
		urgency, days := Classify(due, today)
		alerts = append(alerts, BillAlert{
			Bill:      b,
			DaysUntil: days,
			Urgency:   urgency,
			Message:   AlertMessage(days),
		})
	}
	return alerts
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func monthLabel(d core.Date) string {
	return fmt.Sprintf("%s de %d", monthNames[int(d.Month())-1], d.Year())
}
