// Package store provides planner.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	clients   map[capacity.ClientID]planner.Client
	items     map[capacity.LineItemID]capacity.LineItem
	itemOrder []capacity.LineItemID
	targets   capacity.Targets
	snapshots []planner.Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		clients: make(map[capacity.ClientID]planner.Client),
		items:   make(map[capacity.LineItemID]capacity.LineItem),
		targets: make(capacity.Targets),
	}
}

// =============================================================================
// CLIENTS
// =============================================================================

func (m *Memory) ListClients(_ context.Context) ([]planner.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := make([]planner.Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

func (m *Memory) GetClient(_ context.Context, id capacity.ClientID) (*planner.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, &planner.NotFoundError{Kind: "client", ID: string(id)}
	}
	return &c, nil
}

func (m *Memory) SaveClient(_ context.Context, c planner.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) DeleteClient(_ context.Context, id capacity.ClientID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[id]; !ok {
		return &planner.NotFoundError{Kind: "client", ID: string(id)}
	}
	delete(m.clients, id)
	return nil
}

// =============================================================================
// LINE ITEMS
// =============================================================================

func (m *Memory) ListLineItems(_ context.Context) ([]capacity.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]capacity.LineItem, 0, len(m.itemOrder))
	for _, id := range m.itemOrder {
		if item, ok := m.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *Memory) ListLineItemsByClient(_ context.Context, clientID capacity.ClientID) ([]capacity.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []capacity.LineItem
	for _, id := range m.itemOrder {
		if item, ok := m.items[id]; ok && item.ClientID == clientID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *Memory) GetLineItem(_ context.Context, id capacity.LineItemID) (*capacity.LineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, &planner.NotFoundError{Kind: "line item", ID: string(id)}
	}
	return &item, nil
}

func (m *Memory) SaveLineItem(_ context.Context, item capacity.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; !ok {
		m.itemOrder = append(m.itemOrder, item.ID)
	}
	m.items[item.ID] = item
	return nil
}

func (m *Memory) DeleteLineItem(_ context.Context, id capacity.LineItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return &planner.NotFoundError{Kind: "line item", ID: string(id)}
	}
	delete(m.items, id)
	return nil
}

// =============================================================================
// TARGETS
// =============================================================================

func (m *Memory) GetTargets(_ context.Context) (capacity.Targets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := make(capacity.Targets, len(m.targets))
	for k, v := range m.targets {
		targets[k] = v
	}
	return targets, nil
}

func (m *Memory) SetTarget(_ context.Context, key string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets[key] = amount
	return nil
}

func (m *Memory) ReplaceTargets(_ context.Context, targets capacity.Targets) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.targets = make(capacity.Targets, len(targets))
	for k, v := range targets {
		m.targets[k] = v
	}
	return nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (m *Memory) SaveSnapshot(_ context.Context, s planner.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return nil
}

func (m *Memory) ListSnapshots(_ context.Context, limit int) ([]planner.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest first.
	out := make([]planner.Snapshot, len(m.snapshots))
	copy(out, m.snapshots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
