/*
forecast.go - Rolling multi-month capacity series

PURPOSE:
  Forecast runs the aggregator over a window of consecutive months and
  assembles the time series dashboards use to flag over/under-staffing
  before it happens.

MODES:
  ModeAmounts returns raw currency magnitudes. ModePercent divides every
  magnitude - the total AND each per-group breakdown value - by the
  month's overall target. Callers scoped to a single team or member pass
  a single effective target, so each group's bar is scaled by that one
  target and the breakdown bars sum to the visible total bar.

ANCHORING:
  The start month is an explicit parameter, normalized to the first day
  of its month. The engine never reads the system clock; "current month"
  defaulting belongs to the caller.

PURITY:
  Calling Forecast twice with identical arguments produces identical
  output, and the items and targets collections are never mutated.
*/
package capacity

// Forecast produces monthCount consecutive ForecastPoints beginning at
// the month containing startMonth. monthCount values below 1 yield an
// empty series. The returned slice is freshly allocated on every call.
func Forecast(items []LineItem, startMonth Date, monthCount int, keyFn GroupKeyFunc, targets Targets, mode ForecastMode, agg *Aggregator) []ForecastPoint {
	if agg == nil {
		agg = NewAggregator()
	}
	if monthCount < 1 {
		return []ForecastPoint{}
	}

	start := StartOfMonth(startMonth)
	points := make([]ForecastPoint, 0, monthCount)

	for i := 0; i < monthCount; i++ {
		month := start.AddMonths(i)
		monthly := agg.Aggregate(items, month, keyFn, targets)

		point := ForecastPoint{
			Month:    month,
			Capacity: monthly,
		}

		switch mode {
		case ModePercent:
			point.Total = percentOf(monthly.TotalActual, monthly.TotalTarget)
			point.Breakdown = make([]BreakdownEntry, 0, len(monthly.Groups))
			for _, g := range monthly.Groups {
				point.Breakdown = append(point.Breakdown, BreakdownEntry{
					Key:   g.Key,
					Value: percentOf(g.Actual, monthly.TotalTarget),
				})
			}
		default:
			point.Total = monthly.TotalActual
			point.Breakdown = make([]BreakdownEntry, 0, len(monthly.Groups))
			for _, g := range monthly.Groups {
				point.Breakdown = append(point.Breakdown, BreakdownEntry{
					Key:   g.Key,
					Value: g.Actual,
				})
			}
		}

		points = append(points, point)
	}

	return points
}
