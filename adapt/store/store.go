// Package store persists decision records and policy snapshots in SQLite,
// letting a controller resume a learned policy across restarts. The
// controller core never reads this back mid-run; persistence is a
// collaborator on the outside of the loop.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/resilient-edge/resilient-edge/adapt/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	cycle      INTEGER NOT NULL,
	ts         TEXT NOT NULL,
	state      TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	epsilon    REAL NOT NULL,
	reward     REAL NOT NULL,
	next_state TEXT NOT NULL,
	success    INTEGER NOT NULL DEFAULT 0,
	stale      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS policy (
	state    TEXT NOT NULL,
	strategy TEXT NOT NULL,
	qvalue   REAL NOT NULL,
	PRIMARY KEY (state, strategy)
);

CREATE TABLE IF NOT EXISTS run_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Snapshot is a persisted policy table together with the learning progress
// it was saved at.
type Snapshot struct {
	Policy  map[string]map[string]float64
	Epsilon float64
	Cycles  int64
	SavedAt time.Time
}

// Store wraps the SQLite decision database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendDecisions writes records in one transaction. Records carry unique
// IDs, so replaying an overlapping batch is harmless.
func (s *Store) AppendDecisions(records []trace.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO decisions (id, cycle, ts, state, strategy, kind, epsilon, reward, next_state, success, stale)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(r.ID, r.Cycle, r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.State, r.Strategy, r.Kind, r.Epsilon, r.Reward, r.NextState,
			boolToInt(r.Success), boolToInt(r.Stale))
		if err != nil {
			return fmt.Errorf("insert decision %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decisions: %w", err)
	}
	return nil
}

// DecisionCount returns the number of stored decision records.
func (s *Store) DecisionCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// Decisions returns stored records in cycle order. A limit of 0 returns
// everything.
func (s *Store) Decisions(limit int) ([]trace.Record, error) {
	query := `SELECT id, cycle, ts, state, strategy, kind, epsilon, reward, next_state, success, stale
	          FROM decisions ORDER BY cycle`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []trace.Record
	for rows.Next() {
		var r trace.Record
		var ts string
		var success, stale int
		if err := rows.Scan(&r.ID, &r.Cycle, &ts, &r.State, &r.Strategy, &r.Kind,
			&r.Epsilon, &r.Reward, &r.NextState, &success, &stale); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse decision timestamp %q: %w", ts, err)
		}
		r.Success = success != 0
		r.Stale = stale != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSnapshot replaces the persisted policy with the given snapshot in one
// transaction.
func (s *Store) SaveSnapshot(policy map[string]map[string]float64, epsilon float64, cycles int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM policy`); err != nil {
		return fmt.Errorf("clear policy: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO policy (state, strategy, qvalue) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare policy insert: %w", err)
	}
	defer stmt.Close()
	for state, row := range policy {
		for strategy, q := range row {
			if _, err := stmt.Exec(state, strategy, q); err != nil {
				return fmt.Errorf("insert policy %s/%s: %w", state, strategy, err)
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, kv := range [][2]string{
		{"epsilon", fmt.Sprintf("%g", epsilon)},
		{"cycles", fmt.Sprintf("%d", cycles)},
		{"saved_at", now},
	} {
		if _, err := tx.Exec(
			`INSERT INTO run_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			kv[0], kv[1]); err != nil {
			return fmt.Errorf("save meta %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted policy, or nil when the database holds
// none yet.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	rows, err := s.db.Query(`SELECT state, strategy, qvalue FROM policy`)
	if err != nil {
		return nil, fmt.Errorf("query policy: %w", err)
	}
	defer rows.Close()

	policy := make(map[string]map[string]float64)
	for rows.Next() {
		var state, strategy string
		var q float64
		if err := rows.Scan(&state, &strategy, &q); err != nil {
			return nil, fmt.Errorf("scan policy row: %w", err)
		}
		if policy[state] == nil {
			policy[state] = make(map[string]float64)
		}
		policy[state][strategy] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(policy) == 0 {
		return nil, nil
	}

	snap := &Snapshot{Policy: policy}
	var epsilonStr, cyclesStr, savedAtStr string
	for _, m := range []struct {
		key string
		dst *string
	}{
		{"epsilon", &epsilonStr},
		{"cycles", &cyclesStr},
		{"saved_at", &savedAtStr},
	} {
		err := s.db.QueryRow(`SELECT value FROM run_meta WHERE key = ?`, m.key).Scan(m.dst)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("load meta %s: %w", m.key, err)
		}
	}
	if epsilonStr != "" {
		if _, err := fmt.Sscanf(epsilonStr, "%g", &snap.Epsilon); err != nil {
			return nil, fmt.Errorf("parse meta epsilon %q: %w", epsilonStr, err)
		}
	}
	if cyclesStr != "" {
		if _, err := fmt.Sscanf(cyclesStr, "%d", &snap.Cycles); err != nil {
			return nil, fmt.Errorf("parse meta cycles %q: %w", cyclesStr, err)
		}
	}
	if savedAtStr != "" {
		if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAtStr); err != nil {
			return nil, fmt.Errorf("parse meta saved_at %q: %w", savedAtStr, err)
		}
	}
	return snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
