package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

const timeLayout = time.RFC3339Nano

// Store persists the cycle journal and the fuel-sale cooldown state.
type Store struct {
	db *sql.DB
}

type CycleRecord struct {
	ID          string
	Account     string
	TakenAt     time.Time
	Status      string
	Liquidity   string
	FuelKind    string
	ReserveKind string
	Report      string
	Error       string
}

type RecommendationRecord struct {
	CycleID   string
	Seq       int
	Component string
	Kind      string
	Detail    string
}

type CycleWithMeta struct {
	CycleRecord
	RowID     int64
	CreatedAt string
	UpdatedAt string
}

type RecommendationWithMeta struct {
	RecommendationRecord
	CreatedAt string
}

// Open opens (or creates) the sqlite database at path. Pragmas go in the
// DSN so every pooled connection gets them; foreign_keys is per connection.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", filepath.Dir(path), err)
	}

	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=3000&_synchronous=NORMAL&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    account TEXT NOT NULL,
    taken_at TEXT NOT NULL,
    status TEXT NOT NULL,
    liquidity_status TEXT NOT NULL DEFAULT '',
    fuel_kind TEXT NOT NULL DEFAULT '',
    reserve_kind TEXT NOT NULL DEFAULT '',
    report TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS recommendations (
    cycle_id TEXT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    component TEXT NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (cycle_id, seq)
);

CREATE TABLE IF NOT EXISTS cooldowns (
    key TEXT PRIMARY KEY,
    last_sale_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_account_taken ON cycles(account, taken_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// SaveCycle upserts a cycle and replaces its recommendations in one
// transaction.
func (s *Store) SaveCycle(ctx context.Context, cycle CycleRecord, recs []RecommendationRecord) error {
	if strings.TrimSpace(cycle.ID) == "" {
		return fmt.Errorf("cycle id is required")
	}
	if cycle.Status == "" {
		cycle.Status = StatusDone
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cycle tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO cycles (id, account, taken_at, status, liquidity_status, fuel_kind, reserve_kind, report, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status=excluded.status,
    liquidity_status=excluded.liquidity_status,
    fuel_kind=excluded.fuel_kind,
    reserve_kind=excluded.reserve_kind,
    report=excluded.report,
    error=excluded.error,
    updated_at=CURRENT_TIMESTAMP
`, cycle.ID, cycle.Account, cycle.TakenAt.UTC().Format(timeLayout), cycle.Status,
		cycle.Liquidity, cycle.FuelKind, cycle.ReserveKind, cycle.Report, cycle.Error)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE cycle_id = ?`, cycle.ID); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}
	for _, rec := range recs {
		if rec.Seq <= 0 {
			return fmt.Errorf("recommendation seq must be positive")
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO recommendations (cycle_id, seq, component, kind, detail)
VALUES (?, ?, ?, ?, ?)
`, cycle.ID, rec.Seq, rec.Component, rec.Kind, rec.Detail)
		if err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle: %w", err)
	}
	return nil
}

func (s *Store) MarkCycleStatus(ctx context.Context, cycleID, status, errMsg string) error {
	if strings.TrimSpace(cycleID) == "" {
		return nil
	}
	if status == "" {
		status = StatusDone
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE cycles
SET status = ?,
    error = CASE WHEN ? <> '' THEN ? ELSE error END,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, status, errMsg, errMsg, cycleID)
	if err != nil {
		return fmt.Errorf("update cycle status: %w", err)
	}
	return nil
}

// ListCycles pages through cycles newest first. cursor is the rowid of the
// last cycle already seen, or 0.
func (s *Store) ListCycles(ctx context.Context, cursor int64, limit int) ([]CycleWithMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT rowid, id, account, taken_at, status, liquidity_status, fuel_kind, reserve_kind, report, error, created_at, updated_at
FROM cycles
WHERE (? = 0 OR rowid < ?)
ORDER BY rowid DESC
LIMIT ?
`, cursor, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []CycleWithMeta
	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cycles rows: %w", err)
	}
	return cycles, nil
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (*CycleWithMeta, error) {
	if strings.TrimSpace(cycleID) == "" {
		return nil, fmt.Errorf("cycle id is required")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT rowid, id, account, taken_at, status, liquidity_status, fuel_kind, reserve_kind, report, error, created_at, updated_at
FROM cycles
WHERE id = ?
LIMIT 1
`, cycleID)

	rec, err := scanCycle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *Store) ListRecommendations(ctx context.Context, cycleID string) ([]RecommendationWithMeta, error) {
	if strings.TrimSpace(cycleID) == "" {
		return nil, fmt.Errorf("cycle id is required")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT cycle_id, seq, component, kind, detail, created_at
FROM recommendations
WHERE cycle_id = ?
ORDER BY seq ASC
`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []RecommendationWithMeta
	for rows.Next() {
		var rec RecommendationWithMeta
		if err := rows.Scan(&rec.CycleID, &rec.Seq, &rec.Component, &rec.Kind, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recommendations rows: %w", err)
	}
	return recs, nil
}

// LastSale returns when the sale guarded by key last happened.
func (s *Store) LastSale(ctx context.Context, key string) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_sale_at FROM cooldowns WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("get last sale: %w", err)
	}
	at, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last sale %q: %w", raw, err)
	}
	return at, true, nil
}

// SetLastSale records a sale time for key.
func (s *Store) SetLastSale(ctx context.Context, key string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cooldowns (key, last_sale_at) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET last_sale_at=excluded.last_sale_at
`, key, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("set last sale: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*CycleWithMeta, error) {
	var rec CycleWithMeta
	var takenAt string
	if err := row.Scan(&rec.RowID, &rec.ID, &rec.Account, &takenAt, &rec.Status, &rec.Liquidity,
		&rec.FuelKind, &rec.ReserveKind, &rec.Report, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cycle: %w", err)
	}
	at, err := time.Parse(timeLayout, takenAt)
	if err != nil {
		return nil, fmt.Errorf("parse cycle time %q: %w", takenAt, err)
	}
	rec.TakenAt = at
	return &rec, nil
}
