/*
Package sqlite provides a SQLite-backed workbook implementing registry.TableStore.

PURPOSE:
  Lets the engine run against a local file instead of a hosted spreadsheet.
  Each sheet is a set of rows; each row is stored as a JSON array of cells so
  ragged rows and mixed cell types (numbers, text) survive a round trip.

KEY TABLES:
  sheets:      one row per sheet name
  sheet_rows:  (sheet, row_index) -> cells_json; row_index 0 is the header

WRITE SEMANTICS:
  WriteRange touches only the rows it covers (read-modify-write inside one
  transaction). A Replace range deletes the sheet's rows first. AppendRow
  writes after the last non-empty row.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL so readers (API preview) don't block a sync.

USAGE:
  st, err := sqlite.New("./data/workbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - registry/store.go: TableStore contract
  - store/grid.go: shared cell-grid arithmetic
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/store"
)

// Store implements registry.TableStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A :memory: database lives per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheets (
		name TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sheet_rows (
		sheet TEXT NOT NULL REFERENCES sheets(name) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		cells_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (sheet, row_index)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// TABLE STORE (registry.TableStore interface)
// =============================================================================

// ReadTable loads a sheet.
func (s *Store) ReadTable(ctx context.Context, sheet string) (registry.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheets WHERE name = ?`, sheet).Scan(&exists)
	if err != nil {
		return registry.Table{}, err
	}
	if exists == 0 {
		return registry.Table{}, registry.ErrSheetNotFound
	}

	g, err := loadGrid(ctx, s.db, sheet)
	if err != nil {
		return registry.Table{}, err
	}
	return g.Table(), nil
}

// WriteRange overwrites the rows covered by r.
func (s *Store) WriteRange(ctx context.Context, r registry.Range, cells [][]any) error {
	return s.withTx(ctx, r.Sheet, func(tx *sql.Tx) error {
		if r.Replace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, r.Sheet); err != nil {
				return err
			}
			return saveRows(ctx, tx, r.Sheet, 0, store.Grid(nil).Write(r, store.PlainRows(cells)))
		}

		g, err := loadGrid(ctx, tx, r.Sheet)
		if err != nil {
			return err
		}
		updated := g.Write(r, store.PlainRows(cells))
		return saveRows(ctx, tx, r.Sheet, r.Row, updated[r.Row:r.Row+len(cells)])
	})
}

// AppendRow writes cells after the last non-empty row.
func (s *Store) AppendRow(ctx context.Context, sheet string, cells []any) error {
	return s.withTx(ctx, sheet, func(tx *sql.Tx) error {
		g, err := loadGrid(ctx, tx, sheet)
		if err != nil {
			return err
		}
		appended := g.Append(store.PlainRows([][]any{cells})[0])
		at := len(appended) - 1

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sheet_rows WHERE sheet = ? AND row_index >= ?`, sheet, at); err != nil {
			return err
		}
		return saveRows(ctx, tx, sheet, at, appended[at:])
	})
}

// EnsureSheet creates the sheet if missing.
func (s *Store) EnsureSheet(ctx context.Context, sheet string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ensureSheet(ctx, s.db, sheet)
}

// Sheets lists sheet names in creation order.
func (s *Store) Sheets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, sheet string, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := ensureSheet(ctx, tx, sheet); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureSheet(ctx context.Context, db execQuerier, sheet string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sheets (name, created_at) VALUES (?, ?)`,
		sheet, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func loadGrid(ctx context.Context, db execQuerier, sheet string) (store.Grid, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT row_index, cells_json FROM sheet_rows WHERE sheet = ? ORDER BY row_index`, sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var g store.Grid
	for rows.Next() {
		var idx int
		var raw string
		if err := rows.Scan(&idx, &raw); err != nil {
			return nil, err
		}
		var cells []any
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("row %d of %q: %w", idx, sheet, err)
		}
		for len(g) <= idx {
			g = append(g, nil)
		}
		g[idx] = cells
	}
	return g, rows.Err()
}

func saveRows(ctx context.Context, db execQuerier, sheet string, from int, rows store.Grid) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for i, row := range rows {
		if row == nil {
			row = []any{}
		}
		raw, err := json.Marshal(row)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO sheet_rows (sheet, row_index, cells_json, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(sheet, row_index) DO UPDATE SET
				cells_json = excluded.cells_json,
				updated_at = excluded.updated_at
		`, sheet, from+i, string(raw), now)
		if err != nil {
			return err
		}
	}
	return nil
}

var _ registry.TableStore = (*Store)(nil)
