package leases

import (
	"time"

	"propertyops-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Installment is one generated payment of a lease schedule.
type Installment struct {
	Sequence int             `json:"sequence"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
}

// GenerateSchedule returns one installment per billing month from start up
// to (not including) end. Due dates keep start's day of month, clamped to the
// month length, and are always derived from start so a 31st never drifts.
// A partial trailing period still gets an installment.
func GenerateSchedule(start, end time.Time, rent decimal.Decimal) []Installment {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	var out []Installment
	for i := 0; ; i++ {
		due := AddMonthsClamped(start, i)
		if !due.Before(end) {
			break
		}
		out = append(out, Installment{Sequence: i + 1, DueDate: due, Amount: rent})
	}
	return out
}

// AddMonthsClamped adds months to t, clamping the day to the target month.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
