package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"portal/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  customerId TEXT NOT NULL,
  kind TEXT NOT NULL,
  outcome TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  totalMs REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_customer ON runs(customerId, id);

CREATE TABLE IF NOT EXISTS lookups (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  customerId TEXT NOT NULL,
  productId TEXT NOT NULL,
  outcome TEXT NOT NULL,
  company TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_lookups_customer ON lookups(customerId, id);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRow) error {
	countsJSON, _ := json.Marshal(run.Counts)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, customerId, kind, outcome, countsJson, totalMs)
VALUES (?, ?, ?, ?, ?, ?)
`, run.TraceID, run.CustomerID, string(run.Kind), run.Outcome, string(countsJSON), run.TotalMs)
	return err
}

// ListRuns returns the newest runs first. An empty customerID lists all customers.
func (d *DB) ListRuns(customerID string, limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, customerId, kind, outcome, countsJson, totalMs, createdAt
FROM runs
WHERE ? = '' OR customerId = ?
ORDER BY id DESC
LIMIT ?
`, customerID, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		var kind, countsJSON string
		if err := rows.Scan(&row.ID, &row.TraceID, &row.CustomerID, &kind, &row.Outcome, &countsJSON, &row.TotalMs, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.Kind = internal.RunKind(kind)
		_ = json.Unmarshal([]byte(countsJSON), &row.Counts)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) InsertLookup(customerID, productID string, outcome internal.LookupOutcome, company *string) error {
	_, err := d.conn.Exec(`
INSERT INTO lookups (customerId, productId, outcome, company)
VALUES (?, ?, ?, ?)
`, customerID, productID, string(outcome), company)
	return err
}

func (d *DB) ListLookups(customerID string, limit int) ([]internal.LookupRow, error) {
	rows, err := d.conn.Query(`
SELECT id, customerId, productId, outcome, company, createdAt
FROM lookups
WHERE customerId = ?
ORDER BY id DESC
LIMIT ?
`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LookupRow
	for rows.Next() {
		var row internal.LookupRow
		var outcome string
		if err := rows.Scan(&row.ID, &row.CustomerID, &row.ProductID, &outcome, &row.Company, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.Outcome = internal.LookupOutcome(outcome)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
