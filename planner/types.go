/*
Package planner connects the capacity engine to the rest of the dashboard.

PURPOSE:
  The engine in capacity/ is pure: it computes from whatever line items
  and targets it is handed. This package is the caller side of that
  contract. It:
  - loads clients, line items, and targets from a store
  - resolves the grouping dimension (service, team via client membership,
    or member via assignee)
  - derives the team-total target as the sum of per-service targets when
    the store has no explicit entry
  - memoizes results in an explicit keyed cache invalidated on writes

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: a dashboard client record with team membership
  - GroupingMode: which aggregation dimension a caller wants
  - Snapshot: a persisted forecast run for month-over-month drift

SEE ALSO:
  - store.go: persistence interfaces
  - planner.go: the Planner itself
  - store/memory.go: in-memory Store for tests and dev
*/
package planner

import (
	"time"

	"github.com/airsocial/mission-control/capacity"
)

// =============================================================================
// DASHBOARD RECORDS
// =============================================================================

// Client is a dashboard client record. TeamID resolves the client->team
// membership used by team-dimension grouping.
type Client struct {
	ID     capacity.ClientID
	Name   string
	TeamID string
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupingMode selects the aggregation dimension.
type GroupingMode string

const (
	GroupByService GroupingMode = "service"
	GroupByTeam    GroupingMode = "team"
	GroupByMember  GroupingMode = "member"
)

// Valid reports whether the mode is one of the known dimensions.
func (m GroupingMode) Valid() bool {
	switch m {
	case GroupByService, GroupByTeam, GroupByMember:
		return true
	}
	return false
}

// =============================================================================
// FORECAST SNAPSHOT - A persisted forecast run
// =============================================================================

// Snapshot records one scheduled forecast computation so the dashboard
// can show drift between runs without recomputing history.
type Snapshot struct {
	ID          string
	Grouping    GroupingMode
	Mode        capacity.ForecastMode
	StartMonth  capacity.Date
	MonthCount  int
	Status      string // "completed" or "failed"
	Error       string
	PayloadJSON string // serialized []capacity.ForecastPoint
	TakenAt     time.Time
}
