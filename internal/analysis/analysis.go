// Package analysis runs the evaluation pipeline: per-symbol indicators,
// signal generation, risk assessment and probability estimation in
// parallel, then a cross-symbol ranking pass.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/analysis/probability"
	"sensex-pulse/internal/analysis/rank"
	"sensex-pulse/internal/analysis/risk"
	"sensex-pulse/internal/analysis/signal"
	"sensex-pulse/internal/models"
)

// PriceProvider supplies the daily series the pipeline consumes.
type PriceProvider interface {
	Fetch(ctx context.Context, symbol string, lookbackDays int) (models.PriceSeries, error)
}

// Stages bundles the per-symbol pipeline stages.
type Stages struct {
	Indicators  *indicators.Engine
	Signals     *signal.Generator
	Risk        *risk.Engine
	Probability *probability.Estimator
}

// Config controls the evaluation run.
type Config struct {
	LookbackDays int      // calendar days of history requested per symbol
	MinBars      int      // bars a series needs to be evaluated at all
	Concurrency  int      // parallel symbol evaluations
	TopPerSide   int      // ranked candidates kept per direction
	OverviewOnly []string // symbols tracked in the overview but never ranked
}

// Engine evaluates a symbol universe into a ranked daily report input.
type Engine struct {
	provider     PriceProvider
	stages       Stages
	cfg          Config
	overviewOnly map[string]bool
	log          zerolog.Logger
}

// NewEngine creates an evaluation engine.
func NewEngine(provider PriceProvider, stages Stages, cfg Config, log zerolog.Logger) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = 1
	}
	overviewOnly := make(map[string]bool, len(cfg.OverviewOnly))
	for _, s := range cfg.OverviewOnly {
		overviewOnly[normalizeSymbol(s)] = true
	}
	return &Engine{
		provider:     provider,
		stages:       stages,
		cfg:          cfg,
		overviewOnly: overviewOnly,
		log:          log,
	}
}

type symbolOutcome struct {
	overview  *models.SymbolOverview
	candidate *models.RankedCandidate
	skip      *models.SkippedSymbol
}

// Evaluate runs the pipeline for every symbol as of the given session and
// returns ranked candidates plus the market overview. Symbols whose data
// cannot be fetched are recorded as skipped; they never fail the run.
// The result is deterministic for identical inputs regardless of symbol
// order or worker interleaving.
func (e *Engine) Evaluate(ctx context.Context, symbols []string, asOf time.Time) (*models.EvaluationResult, error) {
	symbols = normalizeUniverse(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to evaluate")
	}

	started := time.Now()
	e.log.Info().Int("symbols", len(symbols)).Time("as_of", asOf).Msg("starting evaluation")

	workChan := make(chan string, len(symbols))
	for _, s := range symbols {
		workChan <- s
	}
	close(workChan)

	resultChan := make(chan symbolOutcome, len(symbols))
	var wg sync.WaitGroup

	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- e.evaluateSymbol(ctx, symbol, asOf)
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	result := &models.EvaluationResult{AsOf: asOf}
	var candidates []models.RankedCandidate
	for outcome := range resultChan {
		if outcome.overview != nil {
			result.Overview = append(result.Overview, *outcome.overview)
		}
		if outcome.candidate != nil {
			candidates = append(candidates, *outcome.candidate)
		}
		if outcome.skip != nil {
			result.Skipped = append(result.Skipped, *outcome.skip)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(result.Overview, func(i, j int) bool {
		return result.Overview[i].Symbol < result.Overview[j].Symbol
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Symbol < result.Skipped[j].Symbol
	})

	result.Candidates = rank.Select(candidates, e.cfg.TopPerSide)
	result.Evaluated = len(result.Overview)

	e.log.Info().
		Int("evaluated", result.Evaluated).
		Int("candidates", len(result.Candidates)).
		Int("skipped", len(result.Skipped)).
		Dur("took", time.Since(started)).
		Msg("evaluation finished")

	return result, nil
}

// evaluateSymbol runs the full per-symbol pipeline. Every return path
// yields either an overview row, a skip entry, or both when prices were
// fine but a later stage failed.
func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, asOf time.Time) symbolOutcome {
	series, err := e.provider.Fetch(ctx, symbol, e.cfg.LookbackDays)
	if err != nil {
		e.log.Warn().Str("symbol", symbol).Err(err).Msg("skipping symbol")
		return symbolOutcome{skip: &models.SkippedSymbol{Symbol: symbol, Reason: err.Error()}}
	}

	if !asOf.IsZero() {
		series = series.Until(asOf)
	}
	if len(series.Candles) == 0 {
		return symbolOutcome{skip: &models.SkippedSymbol{Symbol: symbol, Reason: "no price data in range"}}
	}
	if len(series.Candles) < e.cfg.MinBars {
		return symbolOutcome{skip: &models.SkippedSymbol{
			Symbol: symbol,
			Reason: fmt.Sprintf("only %d bars of history, need %d", len(series.Candles), e.cfg.MinBars),
		}}
	}

	ind := e.stages.Indicators.Compute(series)
	sig := e.stages.Signals.Generate(ind)

	last := series.Candles[len(series.Candles)-1]
	overview := models.SymbolOverview{
		Symbol:    symbol,
		LastClose: last.Close,
		Volume:    last.Volume,
	}
	if prev, ok := ind.PrevClose.Get(); ok && prev != 0 {
		overview.ChangePct = (last.Close - prev) / prev * 100
		overview.HasChange = true
	}

	outcome := symbolOutcome{overview: &overview}

	e.log.Debug().
		Str("symbol", symbol).
		Str("direction", string(sig.Direction)).
		Float64("score", sig.Score).
		Int("bars", len(series.Candles)).
		Msg("symbol evaluated")

	if !sig.Direction.Actionable() || e.overviewOnly[symbol] {
		return outcome
	}

	riskMetrics, err := e.stages.Risk.Assess(series, sig.Direction)
	if err != nil {
		e.log.Warn().Str("symbol", symbol).Err(err).Msg("dropping candidate")
		outcome.skip = &models.SkippedSymbol{
			Symbol: symbol,
			Reason: fmt.Sprintf("risk assessment failed: %v", err),
		}
		return outcome
	}

	prob := e.stages.Probability.Estimate(sig, riskMetrics)

	outcome.candidate = &models.RankedCandidate{
		Symbol:      symbol,
		LastClose:   last.Close,
		Signal:      sig,
		Risk:        riskMetrics,
		Probability: prob,
	}
	return outcome
}

// normalizeUniverse uppercases, trims, dedupes and sorts the symbol list.
func normalizeUniverse(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := normalizeSymbol(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
