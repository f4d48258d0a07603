// Package report turns an evaluation result into the daily deliverable:
// console output, CSV and XLSX files, and an optional model-written
// market wrap.
package report

import (
	"fmt"
	"strings"
	"time"

	"sensex-pulse/internal/models"
)

// Options controls report assembly.
type Options struct {
	// SnapshotSize is the number of entries per market-snapshot list.
	SnapshotSize int
	// IndexSymbol is pulled out of the overview and shown as the
	// benchmark in the report header instead of competing in the
	// snapshot lists.
	IndexSymbol string
}

// Row is one actionable idea, column for column as it appears in every
// output format.
type Row struct {
	Symbol         string  `csv:"Stock Name"`
	Direction      string  `csv:"Signal (BUY/SELL)"`
	LastClose      float64 `csv:"Current Price"`
	EntryZone      string  `csv:"Entry Zone"`
	TargetPrice    float64 `csv:"Target Price"`
	StopLoss       float64 `csv:"Stop Loss"`
	RiskLevel      string  `csv:"Risk Level"`
	ProbabilityPct float64 `csv:"Probability (%)"`
	Reasons        string  `csv:"Reason"`
}

// signalHeaders are the column labels, in row order, shared by the
// console table and the XLSX Signals sheet. They match the CSV tags.
var signalHeaders = []string{
	"Stock Name", "Signal (BUY/SELL)", "Current Price", "Entry Zone",
	"Target Price", "Stop Loss", "Risk Level", "Probability (%)", "Reason",
}

// Report is the assembled daily report, ready for any renderer.
type Report struct {
	AsOf        time.Time
	GeneratedAt time.Time
	Benchmark   *models.SymbolOverview
	Rows        []Row
	Snapshot    Snapshot
	Skipped     []models.SkippedSymbol
	Evaluated   int
	Commentary  string
}

// Build assembles the report from an evaluation result. Candidate order
// is preserved: the orchestrator already ranks BUY ideas ahead of SELL
// ideas, strongest first.
func Build(result *models.EvaluationResult, opts Options) *Report {
	if opts.SnapshotSize <= 0 {
		opts.SnapshotSize = 5
	}

	rows := make([]Row, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		rows = append(rows, rowFrom(c))
	}

	var benchmark *models.SymbolOverview
	overview := result.Overview
	if opts.IndexSymbol != "" {
		overview = make([]models.SymbolOverview, 0, len(result.Overview))
		for _, o := range result.Overview {
			if o.Symbol == opts.IndexSymbol {
				bench := o
				benchmark = &bench
				continue
			}
			overview = append(overview, o)
		}
	}

	return &Report{
		AsOf:        result.AsOf,
		GeneratedAt: time.Now(),
		Benchmark:   benchmark,
		Rows:        rows,
		Snapshot:    BuildSnapshot(overview, opts.SnapshotSize),
		Skipped:     result.Skipped,
		Evaluated:   result.Evaluated,
	}
}

func rowFrom(c models.RankedCandidate) Row {
	return Row{
		Symbol:         c.Symbol,
		Direction:      string(c.Signal.Direction),
		LastClose:      c.LastClose,
		EntryZone:      fmt.Sprintf("%.2f - %.2f", c.Risk.EntryZoneLow, c.Risk.EntryZoneHigh),
		TargetPrice:    c.Risk.TargetPrice,
		StopLoss:       c.Risk.StopLoss,
		RiskLevel:      string(c.Risk.RiskLevel),
		ProbabilityPct: c.Probability.ProbabilityPct,
		Reasons:        strings.Join(c.Signal.Reasons, "; "),
	}
}
