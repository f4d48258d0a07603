// Package store archives evaluation runs in SQLite for later review.
package store

import (
	"context"
	"errors"
	"time"

	"sensex-pulse/internal/models"
)

// ErrNotFound is returned when the requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is the summary row of one archived evaluation run.
type Run struct {
	ID           int64
	AsOf         time.Time
	GeneratedAt  time.Time
	UniverseSize int
	Evaluated    int
	Skipped      int
}

// Candidate is one archived actionable signal, flattened to what the
// report showed. Rows come back in their original rank order.
type Candidate struct {
	RunID          int64
	Symbol         string
	Direction      string
	Score          float64
	LastClose      float64
	EntryLow       float64
	EntryHigh      float64
	StopLoss       float64
	Target         float64
	RiskLevel      string
	ProbabilityPct float64
	Reasons        []string
}

// Store is the run archive. It is write-mostly: the scoring pipeline
// never reads from it, only the history command does.
type Store interface {
	SaveRun(ctx context.Context, result models.EvaluationResult, universeSize int) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	RunCandidates(ctx context.Context, runID int64) ([]Candidate, error)
	Close() error
}
