package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
)

// SQLiteRecorder persists emissions and cycle reports to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logrus.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS metric_emissions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			name        TEXT NOT NULL,
			account     TEXT,
			dimensions  TEXT,
			kind        TEXT,
			numerator   REAL,
			denominator REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emissions_name_ts ON metric_emissions(name, timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycle_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			done        INTEGER,
			failed      INTEGER,
			skipped     INTEGER,
			canceled    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycle_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS account_results (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     TEXT NOT NULL,
			account      TEXT NOT NULL,
			status       TEXT NOT NULL,
			step         TEXT,
			category     TEXT,
			error        TEXT,
			credits      INTEGER,
			listed_count INTEGER,
			club_value   INTEGER,
			purchased    INTEGER,
			outbid       INTEGER,
			sold         INTEGER,
			relisted     INTEGER,
			reclaimed    INTEGER,
			listed       INTEGER,
			bids_placed  INTEGER,
			bids_skipped INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_cycle ON account_results(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Emit(e metrics.Emission) error {
	dims, err := json.Marshal(e.Dimensions)
	if err != nil {
		return fmt.Errorf("encode dimensions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO metric_emissions
		(timestamp, name, account, dimensions, kind, numerator, denominator)
		VALUES (?,?,?,?,?,?,?)`,
		e.At.Unix(), e.Name, e.Dimensions[metrics.DimAccount], string(dims),
		string(e.Value.Kind), e.Value.Numerator, e.Value.Denominator,
	)
	return err
}

// RecordCycle stores the cycle and its per-account results in one transaction.
func (r *SQLiteRecorder) RecordCycle(rep *model.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO cycle_runs
		(id, started_at, finished_at, done, failed, skipped, canceled)
		VALUES (?,?,?,?,?,?,?)`,
		rep.ID, rep.StartedAt.Unix(), rep.FinishedAt.Unix(),
		rep.Count(model.AccountDone), rep.Count(model.AccountFailed),
		rep.Count(model.AccountSkipped), rep.Count(model.AccountCanceled),
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, a := range rep.Accounts {
		if _, err := tx.Exec(`INSERT INTO account_results
			(cycle_id, account, status, step, category, error,
			 credits, listed_count, club_value,
			 purchased, outbid, sold, relisted, reclaimed, listed, bids_placed, bids_skipped)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rep.ID, a.Account, string(a.Status), a.Step, a.Category, a.Error,
			a.Credits, a.ListedCount, a.ClubValue,
			a.Purchased, a.Outbid, a.Sold, a.Relisted, a.Reclaimed, a.Listed, a.BidsPlaced, a.BidsSkipped,
		); err != nil {
			return fmt.Errorf("insert account %s: %w", a.Account, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentCycles(limit int) ([]CycleSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, started_at, finished_at, done, failed, skipped, canceled
		FROM cycle_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleSummary
	for rows.Next() {
		var c CycleSummary
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.FinishedAt, &c.Done, &c.Failed, &c.Skipped, &c.Canceled); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logrus.Info("closing sqlite recorder")
	return r.db.Close()
}
