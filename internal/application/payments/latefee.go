package payments

import (
	"time"

	"propertyops-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// LateFeePolicy is the grace period and surcharge rate applied to late payments.
type LateFeePolicy struct {
	GraceDays int
	Rate      decimal.Decimal
}

// DefaultPolicy is 5 days of grace, then 5%.
func DefaultPolicy() LateFeePolicy {
	return LateFeePolicy{GraceDays: 5, Rate: decimal.RequireFromString("0.05")}
}

// DaysOverdue counts whole calendar days (UTC) from due to now; never negative.
func DaysOverdue(due, now time.Time) int {
	days := int(domain.DateOnly(now).Sub(domain.DateOnly(due)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// CalculateLateFee is pure: zero within the grace period, otherwise
// amount * rate rounded half-up to cents. Grace is counted in whole UTC
// calendar days and is inclusive: any time on due+GraceDays is still free.
func CalculateLateFee(p LateFeePolicy, due, now time.Time, amount decimal.Decimal) decimal.Decimal {
	if DaysOverdue(due, now) <= p.GraceDays || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(p.Rate).Round(2)
}
