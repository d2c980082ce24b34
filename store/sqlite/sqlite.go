/*
Package sqlite provides a SQLite-backed implementation of planner.Store.

PURPOSE:
  Persists the dashboard records the capacity engine consumes: clients,
  contract line items, capacity targets, and forecast snapshots. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  clients:            Client records with team membership
  line_items:         Contract line items (the engine's input)
  capacity_targets:   Aggregation key -> target monthly amount
  forecast_snapshots: Scheduled forecast runs

MONEY COLUMNS:
  Amounts are stored as TEXT and parsed with shopspring/decimal, never
  as REAL, so the conservation property of the proration math survives
  the round trip.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/mission-control.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - planner/store.go: interface definitions
  - planner/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
)

// Store implements planner.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		team_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS line_items (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		service TEXT NOT NULL,
		billing_type TEXT NOT NULL,
		monthly_value TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		start_date TEXT,
		end_date TEXT,
		assignee_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_line_items_client
		ON line_items(client_id);
	CREATE INDEX IF NOT EXISTS idx_line_items_service
		ON line_items(service);
	CREATE INDEX IF NOT EXISTS idx_line_items_assignee
		ON line_items(assignee_id);

	CREATE TABLE IF NOT EXISTS capacity_targets (
		group_key TEXT PRIMARY KEY,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS forecast_snapshots (
		id TEXT PRIMARY KEY,
		grouping TEXT NOT NULL,
		mode TEXT NOT NULL,
		start_month TEXT NOT NULL,
		month_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		payload_json TEXT,
		taken_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_forecast_snapshots_taken_at
		ON forecast_snapshots(taken_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) ListClients(ctx context.Context) ([]planner.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, team_id FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []planner.Client
	for rows.Next() {
		var c planner.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.TeamID); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id capacity.ClientID) (*planner.Client, error) {
	var c planner.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, team_id FROM clients WHERE id = ?`, string(id)).
		Scan(&c.ID, &c.Name, &c.TeamID)
	if err == sql.ErrNoRows {
		return nil, &planner.NotFoundError{Kind: "client", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveClient(ctx context.Context, c planner.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, team_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, team_id = excluded.team_id`,
		string(c.ID), c.Name, c.TeamID)
	return err
}

func (s *Store) DeleteClient(ctx context.Context, id capacity.ClientID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &planner.NotFoundError{Kind: "client", ID: string(id)}
	}
	return nil
}

// =============================================================================
// LINE ITEMS
// =============================================================================

const lineItemColumns = `id, client_id, service, billing_type, monthly_value, is_active, start_date, end_date, assignee_id`

func (s *Store) ListLineItems(ctx context.Context) ([]capacity.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lineItemColumns+` FROM line_items ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLineItems(rows)
}

func (s *Store) ListLineItemsByClient(ctx context.Context, clientID capacity.ClientID) ([]capacity.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lineItemColumns+` FROM line_items WHERE client_id = ? ORDER BY created_at, id`,
		string(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLineItems(rows)
}

func (s *Store) GetLineItem(ctx context.Context, id capacity.LineItemID) (*capacity.LineItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lineItemColumns+` FROM line_items WHERE id = ?`, string(id))

	item, err := scanLineItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &planner.NotFoundError{Kind: "line item", ID: string(id)}
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) SaveLineItem(ctx context.Context, item capacity.LineItem) error {
	var start, end interface{}
	if item.StartDate != nil {
		start = item.StartDate.String()
	}
	if item.EndDate != nil {
		end = item.EndDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO line_items (id, client_id, service, billing_type, monthly_value, is_active, start_date, end_date, assignee_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			service = excluded.service,
			billing_type = excluded.billing_type,
			monthly_value = excluded.monthly_value,
			is_active = excluded.is_active,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			assignee_id = excluded.assignee_id`,
		string(item.ID), string(item.ClientID), item.Service, string(item.BillingType),
		item.MonthlyValue.String(), boolToInt(item.IsActive), start, end,
		string(item.AssigneeID), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) DeleteLineItem(ctx context.Context, id capacity.LineItemID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM line_items WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &planner.NotFoundError{Kind: "line item", ID: string(id)}
	}
	return nil
}

func scanLineItems(rows *sql.Rows) ([]capacity.LineItem, error) {
	var items []capacity.LineItem
	for rows.Next() {
		item, err := scanLineItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanLineItem(scan func(...interface{}) error) (*capacity.LineItem, error) {
	var (
		item       capacity.LineItem
		value      string
		active     int
		start, end sql.NullString
	)
	if err := scan(&item.ID, &item.ClientID, &item.Service, &item.BillingType,
		&value, &active, &start, &end, &item.AssigneeID); err != nil {
		return nil, err
	}

	monthlyValue, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly_value %q: %w", value, err)
	}
	item.MonthlyValue = monthlyValue
	item.IsActive = active != 0

	if start.Valid {
		d, err := capacity.ParseDate(start.String)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date %q: %w", start.String, err)
		}
		item.StartDate = &d
	}
	if end.Valid {
		d, err := capacity.ParseDate(end.String)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date %q: %w", end.String, err)
		}
		item.EndDate = &d
	}
	return &item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// TARGETS
// =============================================================================

func (s *Store) GetTargets(ctx context.Context) (capacity.Targets, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_key, amount FROM capacity_targets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := make(capacity.Targets)
	for rows.Next() {
		var key, amount string
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid target amount %q: %w", amount, err)
		}
		targets[key] = d
	}
	return targets, rows.Err()
}

func (s *Store) SetTarget(ctx context.Context, key string, amount decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capacity_targets (group_key, amount) VALUES (?, ?)
		ON CONFLICT(group_key) DO UPDATE SET amount = excluded.amount`,
		key, amount.String())
	return err
}

func (s *Store) ReplaceTargets(ctx context.Context, targets capacity.Targets) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM capacity_targets`); err != nil {
		return err
	}
	for key, amount := range targets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO capacity_targets (group_key, amount) VALUES (?, ?)`,
			key, amount.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Store) SaveSnapshot(ctx context.Context, snap planner.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forecast_snapshots (id, grouping, mode, start_month, month_count, status, error, payload_json, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, string(snap.Grouping), string(snap.Mode), snap.StartMonth.String(),
		snap.MonthCount, snap.Status, snap.Error, snap.PayloadJSON,
		snap.TakenAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]planner.Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grouping, mode, start_month, month_count, status, error, payload_json, taken_at
		FROM forecast_snapshots ORDER BY taken_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []planner.Snapshot
	for rows.Next() {
		var (
			snap             planner.Snapshot
			startMonth       string
			errText, payload sql.NullString
			takenAt          string
		)
		if err := rows.Scan(&snap.ID, &snap.Grouping, &snap.Mode, &startMonth,
			&snap.MonthCount, &snap.Status, &errText, &payload, &takenAt); err != nil {
			return nil, err
		}
		d, err := capacity.ParseDate(startMonth)
		if err != nil {
			return nil, fmt.Errorf("invalid start_month %q: %w", startMonth, err)
		}
		snap.StartMonth = d
		snap.Error = errText.String
		snap.PayloadJSON = payload.String
		t, err := time.Parse(time.RFC3339, takenAt)
		if err != nil {
			return nil, fmt.Errorf("invalid taken_at %q: %w", takenAt, err)
		}
		snap.TakenAt = t
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
