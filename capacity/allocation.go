/*
allocation.go - Revenue attributable to one line item in one month

PURPOSE:
  Allocate is the leaf computation of the engine: given a single contract
  line item and a target month, how much revenue does that item recognize
  in that month?

RECURRING ITEMS:
  Contribute the full monthly value iff the item is active in the month:
  IsActive is true, AND the item has not started after the month's last
  day, AND has not ended before the month's first day. Termination is
  signaled by the presence of EndDate, not by flipping IsActive - an item
  whose EndDate has passed but whose flag is still true simply stops
  contributing to later months. That asymmetry is deliberate and must not
  be "fixed" here; it is how contract termination is recorded upstream.

ONE-OFF ITEMS:
  Treated as a project pro-rated across its fixed window. MonthlyValue is
  the TOTAL contract value; the month's share is value * overlap/total
  using day-exact inclusive counts, so summing allocations across every
  month the window touches returns the full value with no drift for
  windows that don't align to month boundaries.

DEGRADATION:
  Missing dates on a one-off item, or an end date before the start date
  (either billing type), contribute zero. Nothing here raises or panics.

SEE ALSO:
  - calendar.go: OverlapDays / TotalDays
  - aggregate.go: groups these allocations per month
*/
package capacity

import (
	"github.com/shopspring/decimal"
)

// Allocate returns the revenue the line item contributes to the month
// containing the given date. The result is never negative for
// well-formed input and is exactly zero for items outside their window.
func Allocate(item LineItem, month Date) decimal.Decimal {
	// Defensive clamp: a window that ends before it starts contributes
	// zero regardless of billing type.
	if item.StartDate != nil && item.EndDate != nil && item.EndDate.Before(*item.StartDate) {
		return decimal.Zero
	}

	mr := MonthRange(month)

	switch item.BillingType {
	case BillingRecurring:
		if !item.IsActive {
			return decimal.Zero
		}
		if !activeInMonth(item, mr) {
			return decimal.Zero
		}
		return item.MonthlyValue

	case BillingOneOff:
		// Both dates required for proration; no fallback guess.
		if item.StartDate == nil || item.EndDate == nil {
			return decimal.Zero
		}
		window := DateRange{Start: *item.StartDate, End: *item.EndDate}
		overlap := OverlapDays(window, mr)
		if overlap == 0 {
			return decimal.Zero
		}
		total := window.TotalDays()
		return item.MonthlyValue.
			Mul(decimal.NewFromInt(int64(overlap))).
			Div(decimal.NewFromInt(int64(total)))

	default:
		return decimal.Zero
	}
}

// activeInMonth is the literal rule: not started after month-end AND not
// ended before month-start. Nil dates leave that side unbounded.
func activeInMonth(item LineItem, mr DateRange) bool {
	if item.StartDate != nil && item.StartDate.After(mr.End) {
		return false
	}
	if item.EndDate != nil && item.EndDate.Before(mr.Start) {
		return false
	}
	return true
}
