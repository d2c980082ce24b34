/*
Package capacity is the billing capacity and forecast engine.

PURPOSE:
  This package turns a set of client contract line items (recurring
  retainers and one-off projects, each with its own start/end window)
  into:
  - recognized revenue for any calendar month (allocation)
  - percentage-of-target capacity scores per service, team, or member
    (aggregation)
  - a rolling multi-month forecast (forecast)

KEY CONCEPTS IN THIS FILE (types.go):
  - LineItem: one billable component of a client contract
  - Targets: aggregation key -> target monthly amount
  - MonthlyCapacity / GroupCapacity: the aggregation output
  - ForecastPoint: one month on the forecast timeline

DESIGN PRINCIPLES:
  1. Purity: no I/O, no clock reads, no shared state. Callers fetch line
     items and targets; the engine only computes.
  2. Precision: decimal.Decimal for all money, never float64.
  3. Degradation over failure: malformed input (missing dates, end before
     start, zero targets) contributes zero instead of raising. The engine
     feeds dashboards, not a billing system of record.
  4. Determinism: identical input produces identical output, including
     group ordering.

USAGE:
  agg := capacity.NewAggregator("account-management")
  monthly := agg.Aggregate(items, month, capacity.GroupByService, targets)
  points := capacity.Forecast(items, start, 6, capacity.GroupByService,
      targets, capacity.ModeAmounts, agg)

SEE ALSO:
  - calendar.go: day-count and month-boundary arithmetic
  - allocation.go: single item x single month revenue
  - aggregate.go: grouping, targets, percentages
  - forecast.go: rolling multi-month series
*/
package capacity

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LineItemID string
type ClientID string
type MemberID string

// =============================================================================
// LINE ITEM - One billable component of a client contract
// =============================================================================

type BillingType string

const (
	// BillingRecurring bills a steady monthly rate while the item is active.
	BillingRecurring BillingType = "recurring"

	// BillingOneOff spreads a fixed total value across a bounded window.
	// MonthlyValue holds the TOTAL contract value, not a monthly rate.
	BillingOneOff BillingType = "one-off"
)

// LineItem is one billable component of a client contract. StartDate and
// EndDate bound the active window; nil means unbounded on that side. For
// one-off items both dates are required to compute proration - if either
// is missing the item contributes zero, with no fallback guess.
type LineItem struct {
	ID           LineItemID
	ClientID     ClientID
	Service      string
	BillingType  BillingType
	MonthlyValue decimal.Decimal
	IsActive     bool
	StartDate    *Date
	EndDate      *Date
	AssigneeID   MemberID
}

// GroupKeyFunc selects the aggregation dimension for a line item.
type GroupKeyFunc func(LineItem) string

// GroupByService groups allocations by service slug.
func GroupByService(item LineItem) string { return item.Service }

// UnassignedKey groups member-dimension allocations for items that have
// no assignee, so per-member totals still reconcile with the team total.
const UnassignedKey = "unassigned"

// GroupByAssignee groups allocations by the responsible team member.
func GroupByAssignee(item LineItem) string {
	if item.AssigneeID == "" {
		return UnassignedKey
	}
	return string(item.AssigneeID)
}

// =============================================================================
// TARGETS - Aggregation key -> target monthly amount
// =============================================================================

// TeamTotalKey is the reserved targets key for the aggregate team target.
// Callers may supply it explicitly or derive it as the sum of per-service
// targets; the engine treats it as just another key.
const TeamTotalKey = "team-total"

// Targets maps aggregation keys to target monthly amounts. A missing or
// zero entry means "undefined capacity" and yields a 0 percentage, never
// a division by zero.
type Targets map[string]decimal.Decimal

// Total sums every target in the map, whether or not the key produced
// billing this month. A target with no current billing still counts
// toward total capacity.
func (t Targets) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range t {
		total = total.Add(v)
	}
	return total
}

// =============================================================================
// DERIVED RESULTS
// =============================================================================

// GroupCapacity is the computed capacity for one aggregation key in one
// month. Clients lists distinct contributing client IDs in first-seen
// order; a client with several line items in the group appears once but
// all its amounts are summed.
type GroupCapacity struct {
	Key     string
	Actual  decimal.Decimal
	Target  decimal.Decimal
	Percent decimal.Decimal
	Clients []ClientID
}

// MonthlyCapacity is the full aggregation result for one month. Groups
// are sorted by descending actual amount with a stable first-seen
// tie-break; the ordering is load-bearing for UI consumers.
type MonthlyCapacity struct {
	Month        Date
	Groups       []GroupCapacity
	TotalActual  decimal.Decimal
	TotalTarget  decimal.Decimal
	TotalPercent decimal.Decimal
}

// ForecastMode selects the magnitude scale of forecast output.
type ForecastMode string

const (
	// ModeAmounts returns raw currency amounts.
	ModeAmounts ForecastMode = "amounts"

	// ModePercent divides every magnitude - the total and each breakdown
	// entry - by the overall target, so breakdown bars sum to the visible
	// total bar when the forecast is scoped to a single effective target.
	ModePercent ForecastMode = "percent"
)

// BreakdownEntry is one group's mode-scaled magnitude on a forecast point.
type BreakdownEntry struct {
	Key   string
	Value decimal.Decimal
}

// ForecastPoint is one month on the forecast timeline: the full monthly
// capacity in raw amounts plus mode-scaled total and breakdown values.
type ForecastPoint struct {
	Month     Date
	Capacity  MonthlyCapacity
	Total     decimal.Decimal
	Breakdown []BreakdownEntry
}

// =============================================================================
// SHARED ARITHMETIC
// =============================================================================

var hundred = decimal.NewFromInt(100)

// percentOf returns actual/target*100, or zero when the target is not
// positive. Every division in the engine goes through a guard like this
// so NaN/Infinity can never reach a presentation layer.
func percentOf(actual, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return actual.Div(target).Mul(hundred)
}
