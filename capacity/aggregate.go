/*
aggregate.go - Grouping allocations into per-key capacity scores

PURPOSE:
  Aggregate takes a collection of line items, a month, a grouping key
  function (service, team, or member) and a targets map, and produces the
  MonthlyCapacity for that month: per-group actual/target/percentage rows
  plus overall totals.

EXCLUSIONS:
  Some services are never counted against delivery capacity (an account
  management category, for instance). The exclusion set is configuration
  supplied at construction, not computed.

ORDERING:
  Groups are sorted by descending actual amount with a stable tie-break
  on first-seen order. Dashboards render rows in this order, so it must
  be deterministic for identical input.

TOTALS:
  Overall actual is the sum of group actuals. Overall target is the sum
  of every entry in the targets map, not just keys that billed this
  month - a target with no current billing still counts toward total
  capacity.

SEE ALSO:
  - allocation.go: the per-item computation
  - forecast.go: runs this over a rolling window
*/
package capacity

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator groups monthly allocations by an aggregation key and scores
// them against targets. Zero value is usable; NewAggregator adds the
// excluded-service set.
type Aggregator struct {
	excluded map[string]bool
}

// NewAggregator creates an aggregator that skips line items whose
// service is in the given exclusion list.
func NewAggregator(excludedServices ...string) *Aggregator {
	excluded := make(map[string]bool, len(excludedServices))
	for _, s := range excludedServices {
		excluded[s] = true
	}
	return &Aggregator{excluded: excluded}
}

// Excluded reports whether a service is excluded from capacity accounting.
func (a *Aggregator) Excluded(service string) bool {
	return a.excluded[service]
}

// group accumulates one aggregation bucket while preserving first-seen
// order for the deterministic tie-break.
type group struct {
	key         string
	actual      decimal.Decimal
	clients     []ClientID
	seenClients map[ClientID]bool
}

// Aggregate computes the MonthlyCapacity for the month containing the
// given date. It never raises for well-formed input and never mutates
// items or targets.
func (a *Aggregator) Aggregate(items []LineItem, month Date, keyFn GroupKeyFunc, targets Targets) MonthlyCapacity {
	var (
		order   []string
		buckets = make(map[string]*group)
	)

	for _, item := range items {
		if a.excluded[item.Service] {
			continue
		}
		amount := Allocate(item, month)
		// Zero allocations must not create buckets with empty
		// contributor lists.
		if amount.IsZero() {
			continue
		}

		key := keyFn(item)
		g, ok := buckets[key]
		if !ok {
			g = &group{key: key, actual: decimal.Zero, seenClients: make(map[ClientID]bool)}
			buckets[key] = g
			order = append(order, key)
		}
		g.actual = g.actual.Add(amount)
		if !g.seenClients[item.ClientID] {
			g.seenClients[item.ClientID] = true
			g.clients = append(g.clients, item.ClientID)
		}
	}

	// Descending actual; sort.SliceStable keeps first-seen order on ties.
	sort.SliceStable(order, func(i, j int) bool {
		return buckets[order[i]].actual.GreaterThan(buckets[order[j]].actual)
	})

	groups := make([]GroupCapacity, 0, len(order))
	totalActual := decimal.Zero
	for _, key := range order {
		g := buckets[key]
		target := decimal.Zero
		if t, ok := targets[key]; ok {
			target = t
		}
		groups = append(groups, GroupCapacity{
			Key:     g.key,
			Actual:  g.actual,
			Target:  target,
			Percent: percentOf(g.actual, target),
			Clients: g.clients,
		})
		totalActual = totalActual.Add(g.actual)
	}

	totalTarget := targets.Total()

	return MonthlyCapacity{
		Month:        StartOfMonth(month),
		Groups:       groups,
		TotalActual:  totalActual,
		TotalTarget:  totalTarget,
		TotalPercent: percentOf(totalActual, totalTarget),
	}
}
