/*
planner.go - Capacity and forecast queries over stored contracts

PURPOSE:
  Planner is the stateless-engine caller: it fetches line items and
  targets, resolves the grouping dimension, and invokes the capacity
  engine. Results are memoized in an explicit keyed cache - the
  replacement for the original dashboard's habit of re-fetching and
  re-deriving on every render. The cache key is (grouping, scope, start
  month, month count, mode) and every write path invalidates it.

TARGET RESOLUTION:
  The target store allows either an explicit team-total entry or none.
  When absent, the planner derives it as the sum of per-service targets
  before handing the map to the engine; the engine assumes targets
  arrive already resolved.

SCOPED FORECASTS:
  Team- and member-scoped forecasts filter line items to the scope and
  pass a single effective target, so percent-mode breakdown bars divide
  by that one target and sum to the total bar.

SEE ALSO:
  - capacity/aggregate.go, capacity/forecast.go: the engine
  - store.go: the persistence interfaces consumed here
*/
package planner

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
)

// =============================================================================
// PLANNER
// =============================================================================

// Planner answers capacity and forecast queries from stored contracts.
// Safe for concurrent use.
type Planner struct {
	store Store
	agg   *capacity.Aggregator

	mu    sync.Mutex
	cache map[cacheKey][]capacity.ForecastPoint
}

// New creates a planner over the given store. excludedServices is the
// fixed set of services never counted against delivery capacity.
func New(store Store, excludedServices ...string) *Planner {
	return &Planner{
		store: store,
		agg:   capacity.NewAggregator(excludedServices...),
		cache: make(map[cacheKey][]capacity.ForecastPoint),
	}
}

type cacheKey struct {
	grouping GroupingMode
	scope    string
	start    string
	months   int
	mode     capacity.ForecastMode
}

// Invalidate drops all memoized results. Called after any write to
// clients, line items, or targets.
func (p *Planner) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[cacheKey][]capacity.ForecastPoint)
}

// =============================================================================
// QUERIES
// =============================================================================

// ForecastQuery describes one forecast request. TeamID and MemberID are
// mutually exclusive scopes; both empty means the whole agency.
type ForecastQuery struct {
	Grouping   GroupingMode
	Start      capacity.Date
	MonthCount int
	Mode       capacity.ForecastMode
	TeamID     string
	MemberID   capacity.MemberID
}

// Capacity computes the MonthlyCapacity for one month across the whole
// agency in the requested grouping dimension.
func (p *Planner) Capacity(ctx context.Context, month capacity.Date, grouping GroupingMode) (capacity.MonthlyCapacity, error) {
	if !grouping.Valid() {
		return capacity.MonthlyCapacity{}, ErrUnknownGrouping
	}

	items, err := p.store.ListLineItems(ctx)
	if err != nil {
		return capacity.MonthlyCapacity{}, err
	}
	targets, err := p.targetsFor(ctx, grouping)
	if err != nil {
		return capacity.MonthlyCapacity{}, err
	}
	keyFn, err := p.groupKeyFn(ctx, grouping)
	if err != nil {
		return capacity.MonthlyCapacity{}, err
	}

	return p.agg.Aggregate(items, month, keyFn, targets), nil
}

// Forecast computes (or returns the memoized) forecast for the query.
func (p *Planner) Forecast(ctx context.Context, q ForecastQuery) ([]capacity.ForecastPoint, error) {
	if !q.Grouping.Valid() {
		return nil, ErrUnknownGrouping
	}

	key := cacheKey{
		grouping: q.Grouping,
		scope:    q.TeamID + "/" + string(q.MemberID),
		start:    capacity.StartOfMonth(q.Start).String(),
		months:   q.MonthCount,
		mode:     q.Mode,
	}

	p.mu.Lock()
	if cached, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	points, err := p.computeForecast(ctx, q)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = points
	p.mu.Unlock()
	return points, nil
}

func (p *Planner) computeForecast(ctx context.Context, q ForecastQuery) ([]capacity.ForecastPoint, error) {
	items, err := p.store.ListLineItems(ctx)
	if err != nil {
		return nil, err
	}
	keyFn, err := p.groupKeyFn(ctx, q.Grouping)
	if err != nil {
		return nil, err
	}

	var targets capacity.Targets
	switch {
	case q.MemberID != "":
		items = filterItems(items, func(it capacity.LineItem) bool {
			return it.AssigneeID == q.MemberID
		})
		targets, err = p.scopedTargets(ctx, string(q.MemberID))

	case q.TeamID != "":
		var members map[capacity.ClientID]bool
		members, err = p.teamClients(ctx, q.TeamID)
		if err != nil {
			return nil, err
		}
		items = filterItems(items, func(it capacity.LineItem) bool {
			return members[it.ClientID]
		})
		targets, err = p.scopedTargets(ctx, q.TeamID)

	default:
		targets, err = p.targetsFor(ctx, q.Grouping)
	}
	if err != nil {
		return nil, err
	}

	return capacity.Forecast(items, q.Start, q.MonthCount, keyFn, targets, q.Mode, p.agg), nil
}

// =============================================================================
// RESOLUTION HELPERS
// =============================================================================

// targetsFor shapes the stored targets for a grouping dimension. The
// engine sums every key in the map it receives as the overall target, so
// the map must carry each target exactly once:
//   - service grouping gets the per-service entries (the reserved
//     team-total key is dropped to avoid double counting)
//   - team and member grouping get the single team-total entry, supplied
//     explicitly by the store or derived as the sum of per-service
//     targets; per-group lookups then miss and report 0%, per the
//     missing-target rule
func (p *Planner) targetsFor(ctx context.Context, grouping GroupingMode) (capacity.Targets, error) {
	stored, err := p.store.GetTargets(ctx)
	if err != nil {
		return nil, err
	}

	if grouping == GroupByService {
		targets := make(capacity.Targets, len(stored))
		for k, v := range stored {
			if k == capacity.TeamTotalKey {
				continue
			}
			targets[k] = v
		}
		return targets, nil
	}

	return capacity.Targets{capacity.TeamTotalKey: teamTotal(stored)}, nil
}

// teamTotal returns the explicit team-total target when present,
// otherwise the sum of per-service targets.
func teamTotal(stored capacity.Targets) decimal.Decimal {
	if t, ok := stored[capacity.TeamTotalKey]; ok {
		return t
	}
	total := decimal.Zero
	for _, v := range stored {
		total = total.Add(v)
	}
	return total
}

// groupKeyFn builds the grouping key function for the dimension. The
// team dimension needs the client->team membership map, resolved here
// so the engine stays free of store knowledge.
func (p *Planner) groupKeyFn(ctx context.Context, grouping GroupingMode) (capacity.GroupKeyFunc, error) {
	switch grouping {
	case GroupByService:
		return capacity.GroupByService, nil

	case GroupByMember:
		return capacity.GroupByAssignee, nil

	case GroupByTeam:
		clients, err := p.store.ListClients(ctx)
		if err != nil {
			return nil, err
		}
		teamOf := make(map[capacity.ClientID]string, len(clients))
		for _, c := range clients {
			teamOf[c.ID] = c.TeamID
		}
		return func(item capacity.LineItem) string {
			if team, ok := teamOf[item.ClientID]; ok && team != "" {
				return team
			}
			return capacity.UnassignedKey
		}, nil

	default:
		return nil, ErrUnknownGrouping
	}
}

// teamClients returns the set of client IDs belonging to a team.
func (p *Planner) teamClients(ctx context.Context, teamID string) (map[capacity.ClientID]bool, error) {
	clients, err := p.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	members := make(map[capacity.ClientID]bool)
	for _, c := range clients {
		if c.TeamID == teamID {
			members[c.ID] = true
		}
	}
	return members, nil
}

// scopedTargets builds the single effective target for a scoped
// forecast: the scope's own stored entry when present, otherwise the
// team total. Percent-mode forecasts then divide every magnitude by
// this one target.
func (p *Planner) scopedTargets(ctx context.Context, scopeKey string) (capacity.Targets, error) {
	stored, err := p.store.GetTargets(ctx)
	if err != nil {
		return nil, err
	}
	if t, ok := stored[scopeKey]; ok {
		return capacity.Targets{scopeKey: t}, nil
	}
	return capacity.Targets{capacity.TeamTotalKey: teamTotal(stored)}, nil
}

func filterItems(items []capacity.LineItem, keep func(capacity.LineItem) bool) []capacity.LineItem {
	out := make([]capacity.LineItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
