/*
store.go - Persistence interfaces for dashboard records

PURPOSE:
  Defines the interface between the planner and the database. The
  contract store is the external collaborator of the capacity engine: it
  owns clients, line items, and targets, and is responsible for
  returning only non-deleted records. The engine itself never sees a
  store.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - planner/store/memory.go: in-memory for tests and dev

SEE ALSO:
  - planner.go: consumes these interfaces
  - errors.go: sentinel errors implementations return
*/
package planner

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ContractStore persists clients and contract line items.
type ContractStore interface {
	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id capacity.ClientID) (*Client, error)
	SaveClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id capacity.ClientID) error

	ListLineItems(ctx context.Context) ([]capacity.LineItem, error)
	ListLineItemsByClient(ctx context.Context, clientID capacity.ClientID) ([]capacity.LineItem, error)
	GetLineItem(ctx context.Context, id capacity.LineItemID) (*capacity.LineItem, error)
	SaveLineItem(ctx context.Context, item capacity.LineItem) error
	DeleteLineItem(ctx context.Context, id capacity.LineItemID) error
}

// TargetStore persists capacity targets keyed by service slug plus the
// reserved team-total key.
type TargetStore interface {
	GetTargets(ctx context.Context) (capacity.Targets, error)
	SetTarget(ctx context.Context, key string, amount decimal.Decimal) error
	ReplaceTargets(ctx context.Context, targets capacity.Targets) error
}

// SnapshotStore persists scheduled forecast runs.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}

// Store is the full persistence surface the dashboard needs.
type Store interface {
	ContractStore
	TargetStore
	SnapshotStore
}
