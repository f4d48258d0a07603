package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sensex-pulse/internal/models"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the archive database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		as_of DATE NOT NULL,
		generated_at DATETIME NOT NULL,
		universe_size INTEGER NOT NULL,
		evaluated INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		score REAL NOT NULL,
		last_close REAL NOT NULL,
		entry_low REAL NOT NULL,
		entry_high REAL NOT NULL,
		stop_loss REAL NOT NULL,
		target REAL NOT NULL,
		risk_level TEXT NOT NULL,
		probability_pct REAL NOT NULL,
		reasons TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS skips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_as_of ON runs(as_of);
	CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id);
	CREATE INDEX IF NOT EXISTS idx_skips_run ON skips(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun archives one evaluation run and returns its id. The run row,
// its candidates and its skips land in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, result models.EvaluationResult, universeSize int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (as_of, generated_at, universe_size, evaluated, skipped)
		VALUES (?, ?, ?, ?, ?)
	`, result.AsOf, time.Now().UTC(), universeSize, result.Evaluated, len(result.Skipped))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (run_id, symbol, direction, score, last_close, entry_low, entry_high, stop_loss, target, risk_level, probability_pct, reasons)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range result.Candidates {
		reasons, _ := json.Marshal(c.Signal.Reasons)
		_, err := stmt.ExecContext(ctx, runID, c.Symbol, string(c.Signal.Direction), c.Signal.Score,
			c.LastClose, c.Risk.EntryZoneLow, c.Risk.EntryZoneHigh, c.Risk.StopLoss, c.Risk.TargetPrice,
			string(c.Risk.RiskLevel), c.Probability.ProbabilityPct, string(reasons))
		if err != nil {
			return 0, fmt.Errorf("failed to insert candidate: %w", err)
		}
	}

	skipStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skips (run_id, symbol, reason) VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer skipStmt.Close()

	for _, sk := range result.Skipped {
		if _, err := skipStmt.ExecContext(ctx, runID, sk.Symbol, sk.Reason); err != nil {
			return 0, fmt.Errorf("failed to insert skip: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, as_of, generated_at, universe_size, evaluated, skipped
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.AsOf, &r.GeneratedAt, &r.UniverseSize, &r.Evaluated, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// RunCandidates returns the candidates of one run in rank order.
// A run id that was never saved yields ErrNotFound.
func (s *SQLiteStore) RunCandidates(ctx context.Context, runID int64) ([]Candidate, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, symbol, direction, score, last_close, entry_low, entry_high, stop_loss, target, risk_level, probability_pct, reasons
		FROM candidates
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var reasonsJSON string
		if err := rows.Scan(&c.RunID, &c.Symbol, &c.Direction, &c.Score, &c.LastClose,
			&c.EntryLow, &c.EntryHigh, &c.StopLoss, &c.Target, &c.RiskLevel,
			&c.ProbabilityPct, &reasonsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		json.Unmarshal([]byte(reasonsJSON), &c.Reasons)
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}
