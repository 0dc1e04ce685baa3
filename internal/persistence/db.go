// Package persistence provides SQLite-based storage of planning runs:
// run records, best-path transactions, the per-step log and run metadata.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tradesim/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Parallel repeats share one store; serialise writers.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		policy TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		step_budget INTEGER NOT NULL,
		catalog_digest TEXT NOT NULL,
		initial_utility REAL NOT NULL,
		best_utility REAL NOT NULL DEFAULT 0,
		best_depth INTEGER NOT NULL DEFAULT 0,
		steps INTEGER NOT NULL DEFAULT 0,
		commits INTEGER NOT NULL DEFAULT 0,
		backtracks INTEGER NOT NULL DEFAULT 0,
		terminated INTEGER NOT NULL DEFAULT 0,
		finished INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS transactions (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		actor TEXT NOT NULL,
		target TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity REAL NOT NULL,
		score REAL NOT NULL,
		global_utility REAL NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		global_util REAL NOT NULL,
		depth INTEGER NOT NULL,
		count_remaining INTEGER NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one planning run as stored.
type Run struct {
	ID             string  `db:"id" json:"id"`
	Seed           int64   `db:"seed" json:"seed"`
	Policy         string  `db:"policy" json:"policy"`
	MaxDepth       int     `db:"max_depth" json:"max_depth"`
	StepBudget     int     `db:"step_budget" json:"step_budget"`
	CatalogDigest  string  `db:"catalog_digest" json:"catalog_digest"`
	InitialUtility float64 `db:"initial_utility" json:"initial_utility"`
	BestUtility    float64 `db:"best_utility" json:"best_utility"`
	BestDepth      int     `db:"best_depth" json:"best_depth"`
	Steps          int     `db:"steps" json:"steps"`
	Commits        int     `db:"commits" json:"commits"`
	Backtracks     int     `db:"backtracks" json:"backtracks"`
	Terminated     bool    `db:"terminated" json:"terminated"`
	Finished       bool    `db:"finished" json:"finished"`
	Error          string  `db:"error" json:"error,omitempty"` // Set when the run failed
	StartedAt      int64   `db:"started_at" json:"started_at"`   // Unix milliseconds
	FinishedAt     int64   `db:"finished_at" json:"finished_at"` // Unix milliseconds, 0 while running
}

// Started returns the start time.
func (r Run) Started() time.Time { return time.UnixMilli(r.StartedAt) }

// Transaction is one step of a run's best path.
type Transaction struct {
	RunID         string  `db:"run_id" json:"-"`
	Seq           int     `db:"seq" json:"seq"`
	Depth         int     `db:"depth" json:"depth"`
	ActionType    string  `db:"action_type" json:"action_type"`
	Actor         string  `db:"actor" json:"actor"`
	Target        string  `db:"target" json:"target"`
	Action        string  `db:"action" json:"action"`
	Quantity      float64 `db:"quantity" json:"quantity"`
	Score         float64 `db:"score" json:"score"`
	GlobalUtility float64 `db:"global_utility" json:"global_utility"`
}

// StepRow is one entry of the per-step progress log.
type StepRow struct {
	Step           int     `db:"step"`
	GlobalUtil     float64 `db:"global_util"`
	Depth          int     `db:"depth"`
	CountRemaining int     `db:"count_remaining"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveRun inserts a new run record. StartedAt is set when zero.
func (db *DB) SaveRun(r Run) error {
	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixMilli()
	}
	_, err := db.conn.Exec(`INSERT INTO runs
		(id, seed, policy, max_depth, step_budget, catalog_digest, initial_utility, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Seed, r.Policy, r.MaxDepth, r.StepBudget, r.CatalogDigest, r.InitialUtility, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun records a run's outcome.
func (db *DB) FinishRun(id string, sum engine.Summary) error {
	return db.finish(id, sum, "")
}

// FailRun marks a run finished with the error that stopped it. Progress up
// to the failure is kept.
func (db *DB) FailRun(id string, sum engine.Summary, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return db.finish(id, sum, msg)
}

func (db *DB) finish(id string, sum engine.Summary, errMsg string) error {
	var bestUtil float64
	var bestDepth int
	if sum.Best != nil {
		bestUtil = sum.Best.GlobalUtility
		bestDepth = sum.Best.Depth
	}
	res, err := db.conn.Exec(`UPDATE runs SET
		best_utility = ?, best_depth = ?, steps = ?, commits = ?, backtracks = ?,
		terminated = ?, finished = 1, error = ?, finished_at = ?
		WHERE id = ?`,
		bestUtil, bestDepth, sum.Stats.Steps, sum.Stats.Commits, sum.Stats.Backtracks,
		boolInt(sum.Terminated), errMsg, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: no such run", id)
	}
	return nil
}

// SaveTransactions writes a run's best path (full replace).
func (db *DB) SaveTransactions(runID string, path []engine.Transaction) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM transactions WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO transactions
		(run_id, seq, depth, action_type, actor, target, action, quantity, score, global_utility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range path {
		_, err := stmt.Exec(runID, i, t.Depth, t.ActionType, t.Actor, t.Target, t.Action,
			t.Quantity, t.Score, t.GlobalUtility)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// SaveSteps appends a batch of step-log rows.
func (db *DB) SaveSteps(runID string, rows []StepRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO steps
		(run_id, step, global_util, depth, count_remaining) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(runID, r.Step, r.GlobalUtil, r.Depth, r.CountRemaining); err != nil {
			return fmt.Errorf("insert step %d: %w", r.Step, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair for a run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}

// Run returns one run record.
func (db *DB) Run(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id)
	return r, err
}

// Runs returns the most recent N runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// Transactions returns a run's best path in order.
func (db *DB) Transactions(runID string) ([]Transaction, error) {
	var txs []Transaction
	err := db.conn.Select(&txs,
		"SELECT * FROM transactions WHERE run_id = ? ORDER BY seq",
		runID,
	)
	return txs, err
}

// Steps returns a run's step log in order.
func (db *DB) Steps(runID string) ([]StepRow, error) {
	var rows []StepRow
	err := db.conn.Select(&rows,
		"SELECT step, global_util, depth, count_remaining FROM steps WHERE run_id = ? ORDER BY step",
		runID,
	)
	return rows, err
}

// SaveResult stores the outcome of a finished run: summary, best path and
// metadata, in that order.
func (db *DB) SaveResult(runID string, sum engine.Summary, meta map[string]string) error {
	slog.Debug("saving run", "run_id", runID, "steps", sum.Stats.Steps)

	if err := db.FinishRun(runID, sum); err != nil {
		return err
	}
	if sum.Best != nil {
		if err := db.SaveTransactions(runID, engine.Transactions(sum.Best.Path)); err != nil {
			return fmt.Errorf("save transactions: %w", err)
		}
	}
	for k, v := range meta {
		if err := db.SaveMeta(runID, k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}
	return nil
}
