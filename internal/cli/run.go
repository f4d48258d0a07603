package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sensex-pulse/internal/analysis"
	"sensex-pulse/internal/analysis/indicators"
	"sensex-pulse/internal/analysis/probability"
	"sensex-pulse/internal/analysis/risk"
	"sensex-pulse/internal/analysis/signal"
	"sensex-pulse/internal/config"
	"sensex-pulse/internal/logging"
	"sensex-pulse/internal/marketdata"
	"sensex-pulse/internal/models"
	"sensex-pulse/internal/notify"
	"sensex-pulse/internal/report"
	"sensex-pulse/internal/store"
	"sensex-pulse/pkg/utils"
)

// runOptions are the resolved settings for one evaluation run, config
// values with the command-line overrides already applied.
type runOptions struct {
	symbols    []string // explicit universe; empty resolves the configured one
	session    time.Time
	deliver    bool
	archive    bool
	formats    []string
	outputDir  string
	topPerSide int
}

func newRunCmd(app *App) *cobra.Command {
	var (
		email     bool
		top       int
		outDir    string
		asOf      string
		noArchive bool
		formats   []string
	)

	cmd := &cobra.Command{
		Use:   "run [symbols...]",
		Short: "Evaluate the universe and produce the daily report",
		Long: `Run evaluates every symbol in the universe as of the last completed
session, ranks the actionable BUY/SELL candidates and writes the report
in the configured formats.

Pass symbols to evaluate an explicit list instead of the configured
universe. Use --as-of to rebuild the report for an earlier session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveRunOptions(app.Config, args, asOf, email, noArchive, top, outDir, formats)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), app, NewOutput(cmd), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&email, "email", false, "deliver the report over the configured channels")
	cmd.Flags().IntVar(&top, "top", 0, "candidates kept per side (overrides ranking.top_per_side)")
	cmd.Flags().StringVar(&outDir, "out", "", "report output directory (overrides report.output_dir)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this session (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "skip archiving the run")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "report formats: console, csv, xlsx")

	return cmd
}

// resolveRunOptions folds the command-line flags over the configured
// defaults.
func resolveRunOptions(cfg *config.Config, args []string, asOf string, email, noArchive bool, top int, outDir string, formats []string) (runOptions, error) {
	opts := runOptions{
		symbols:    args,
		deliver:    email,
		archive:    cfg.Store.Enabled && !noArchive,
		formats:    cfg.Report.Formats,
		outputDir:  cfg.Report.OutputDir,
		topPerSide: cfg.Ranking.TopPerSide,
	}

	if asOf != "" {
		session, err := time.ParseInLocation("2006-01-02", asOf, utils.IndiaLocation)
		if err != nil {
			return runOptions{}, fmt.Errorf("parsing --as-of %q: expected YYYY-MM-DD", asOf)
		}
		opts.session = session
	} else {
		opts.session = utils.LastCompletedSession(time.Now())
	}

	if top > 0 {
		opts.topPerSide = top
	}
	if outDir != "" {
		opts.outputDir = outDir
	}
	if len(formats) > 0 {
		for _, f := range formats {
			switch f {
			case "console", "csv", "xlsx":
			default:
				return runOptions{}, fmt.Errorf("unknown report format: %q", f)
			}
		}
		opts.formats = formats
	}

	return opts, nil
}

// executeRun is the full pipeline behind both 'pulse run' and the
// scheduled job: resolve the universe, evaluate, report, archive,
// deliver.
func executeRun(ctx context.Context, app *App, out *Output, console io.Writer, opts runOptions) error {
	cfg := app.Config

	symbols := opts.symbols
	if len(symbols) == 0 {
		source := marketdata.NewUniverseSource(marketdata.UniverseConfig{
			Symbols:                  cfg.Universe.Symbols,
			IndexSymbol:              cfg.Universe.IndexSymbol,
			IncludeIndexConstituents: cfg.Universe.IncludeIndexConstituents,
			Timeout:                  time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		}, app.Logger)
		symbols = source.Resolve(ctx)
	} else if cfg.Universe.IndexSymbol != "" {
		symbols = append(append([]string{}, symbols...), cfg.Universe.IndexSymbol)
	}

	provider, err := buildProvider(cfg, app.Logger)
	if err != nil {
		return err
	}

	engine := analysis.NewEngine(provider, buildStages(cfg), analysis.Config{
		LookbackDays: cfg.Universe.LookbackDays,
		MinBars:      cfg.Universe.MinBars,
		Concurrency:  cfg.Fetch.Concurrency,
		TopPerSide:   opts.topPerSide,
		OverviewOnly: overviewOnly(cfg.Universe.IndexSymbol),
	}, app.Logger)

	logging.LogRunStarted(app.Logger, opts.session, len(symbols))
	started := time.Now()

	result, err := engine.Evaluate(ctx, symbols, utils.MarketClose(opts.session))
	if err != nil {
		return err
	}

	rep := report.Build(result, report.Options{
		SnapshotSize: cfg.Ranking.SnapshotSize,
		IndexSymbol:  cfg.Universe.IndexSymbol,
	})

	attachCommentary(ctx, app, rep)

	logging.LogRunCompleted(app.Logger, len(rep.Rows), rep.Evaluated, len(rep.Skipped), time.Since(started))

	attachments, err := writeReports(app, out, console, rep, opts)
	if err != nil {
		return err
	}

	if opts.archive {
		archiveRun(ctx, app, out, result, len(symbols))
	}

	if opts.deliver {
		if err := deliverReport(ctx, app, rep, attachments); err != nil {
			return err
		}
		out.Success("Report delivered.")
	}

	return nil
}

// attachCommentary asks the configured model for a market wrap. The
// report goes out without one when the call fails.
func attachCommentary(ctx context.Context, app *App, rep *report.Report) {
	cfg := app.Config.Report
	if !cfg.Commentary {
		return
	}
	if cfg.OpenAIKey == "" {
		app.Logger.Warn().Msg("commentary enabled but OPENAI_API_KEY is not set")
		return
	}

	commentator := report.NewCommentator(cfg.OpenAIKey, cfg.CommentaryModel)
	summary, err := commentator.Summarize(ctx, rep)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("commentary unavailable")
		return
	}
	rep.Commentary = summary
}

// writeReports renders every requested format and returns the file
// attachments for delivery.
func writeReports(app *App, out *Output, console io.Writer, rep *report.Report, opts runOptions) ([]notify.Attachment, error) {
	var attachments []notify.Attachment
	jsonDone := false

	for _, format := range opts.formats {
		switch format {
		case "console":
			if out.IsJSON() {
				if !jsonDone {
					if err := out.JSON(rep); err != nil {
						return nil, err
					}
					jsonDone = true
				}
				continue
			}
			report.RenderConsole(console, rep)

		case "csv":
			path := filepath.Join(opts.outputDir, report.CSVFileName(rep.AsOf))
			if err := report.WriteCSV(rep, path); err != nil {
				return nil, err
			}
			logging.LogReportWritten(app.Logger, "csv", path)
			att, err := notify.FileAttachment(path)
			if err != nil {
				return nil, err
			}
			attachments = append(attachments, att)

		case "xlsx":
			path := filepath.Join(opts.outputDir, report.XLSXFileName(rep.AsOf))
			if err := report.WriteXLSX(rep, path); err != nil {
				return nil, err
			}
			logging.LogReportWritten(app.Logger, "xlsx", path)
			att, err := notify.FileAttachment(path)
			if err != nil {
				return nil, err
			}
			attachments = append(attachments, att)
		}
	}

	return attachments, nil
}

// archiveRun stores the run. Archive failures never fail a run whose
// report already rendered; they are logged and shown as a warning.
func archiveRun(ctx context.Context, app *App, out *Output, result *models.EvaluationResult, universeSize int) {
	st, err := store.NewSQLiteStore(app.Config.Store.Path)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("run archive unavailable")
		out.Warning("Run not archived: %v", err)
		return
	}
	defer st.Close()

	runID, err := st.SaveRun(ctx, *result, universeSize)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("archiving run failed")
		out.Warning("Run not archived: %v", err)
		return
	}
	runLogger := logging.WithRun(app.Logger, runID)
	runLogger.Info().Msg("run archived")
}

func deliverReport(ctx context.Context, app *App, rep *report.Report, attachments []notify.Attachment) error {
	cfg := app.Config
	notifier := notify.FromConfig(cfg.Email, cfg.Telegram, cfg.Webhook)

	msg := notify.Message{
		Subject:     fmt.Sprintf("Daily Sensex Trade Report - %s", rep.AsOf.Format("2006-01-02")),
		Body:        "Attached is your daily Sensex trade report.",
		Attachments: attachments,
	}
	if rep.Commentary != "" {
		msg.Body = rep.Commentary
	}

	if err := notifier.Send(ctx, msg); err != nil {
		return err
	}
	logging.LogEmailSent(app.Logger, msg.Subject, len(cfg.Email.Recipients))
	return nil
}

// buildProvider selects the price source from fetch.provider.
func buildProvider(cfg *config.Config, logger zerolog.Logger) (analysis.PriceProvider, error) {
	switch cfg.Fetch.Provider {
	case "kite":
		return marketdata.NewKiteProvider(marketdata.KiteConfig{
			APIKey:      cfg.Kite.APIKey,
			AccessToken: cfg.Kite.AccessToken,
		}, logger), nil
	case "yahoo", "":
		yc := marketdata.DefaultYahooConfig()
		if cfg.Fetch.BaseURL != "" {
			yc.BaseURL = cfg.Fetch.BaseURL
		}
		if cfg.Fetch.TimeoutSec > 0 {
			yc.Timeout = time.Duration(cfg.Fetch.TimeoutSec) * time.Second
		}
		if cfg.Fetch.RatePerSec > 0 {
			yc.RequestsPerSecond = cfg.Fetch.RatePerSec
		}
		if cfg.Fetch.Burst > 0 {
			yc.Burst = cfg.Fetch.Burst
		}
		if cfg.Fetch.MaxRetries > 0 {
			yc.Retry.MaxAttempts = cfg.Fetch.MaxRetries
		}
		return marketdata.NewYahooProvider(yc, logger), nil
	default:
		return nil, fmt.Errorf("unknown fetch provider: %q", cfg.Fetch.Provider)
	}
}

// buildStages maps the configuration onto the pipeline stages.
func buildStages(cfg *config.Config) analysis.Stages {
	return analysis.Stages{
		Indicators: indicators.NewEngine(indicators.Options{
			VWAPWindow: cfg.Indicators.VWAPWindowSessions,
		}),
		Signals: signal.NewGenerator(signal.Config{
			Weights: signal.Weights{
				TrendAlignment: cfg.Signals.Weights.TrendAlignment,
				RSIExtreme:     cfg.Signals.Weights.RSIExtreme,
				MACDFlip:       cfg.Signals.Weights.MACDFlip,
				Momentum5D:     cfg.Signals.Weights.Momentum5D,
				VWAPStretch:    cfg.Signals.Weights.VWAPStretch,
				VolumeSurge:    cfg.Signals.Weights.VolumeSurge,
				VWAPConfirm:    cfg.Signals.Weights.VWAPConfirm,
			},
			Params: signal.Params{
				RSIOversold:      cfg.Signals.Params.RSIOversold,
				RSIOverbought:    cfg.Signals.Params.RSIOverbought,
				RSINeutralLow:    cfg.Signals.Params.RSINeutralLow,
				RSINeutralHigh:   cfg.Signals.Params.RSINeutralHigh,
				VolumeSurgeRatio: cfg.Signals.Params.VolumeSurgeRatio,
				VWAPBandPct:      cfg.Signals.Params.VWAPBandPct,
				Momentum5DPct:    cfg.Signals.Params.Momentum5DPct,
			},
			BuyThreshold:             cfg.Signals.BuyThreshold,
			SellThreshold:            cfg.Signals.SellThreshold,
			InsufficientDataFraction: cfg.Signals.InsufficientDataFraction,
		}),
		Risk: risk.NewEngine(risk.Config{
			VolatilityWindow:  cfg.Risk.VolWindow,
			DrawdownWindow:    cfg.Risk.DrawdownWindow,
			AnnualizationDays: cfg.Risk.Annualization,
			StopAlpha:         cfg.Risk.StopAlpha,
			RewardBeta:        cfg.Risk.RewardBeta,
			MinStopVolatility: cfg.Risk.MinStopVol,
			EntryBandPct:      cfg.Risk.EntryBandPct,
			VolatilityCap:     cfg.Risk.VolCap,
			DrawdownCap:       cfg.Risk.DrawdownCap,
			VolatilityWeight:  cfg.Risk.WeightVol,
			DrawdownWeight:    cfg.Risk.WeightDrawdown,
			StabilityWeight:   cfg.Risk.WeightStability,
			MediumCutoff:      cfg.Risk.LowCutoff,
			HighCutoff:        cfg.Risk.HighCutoff,
		}),
		Probability: probability.NewEstimator(probability.Config{
			Base:                 cfg.Probability.Base,
			ScoreCap:             cfg.Probability.ScoreCap,
			ScoreNorm:            cfg.Probability.ScoreNorm,
			ConfluenceBase:       cfg.Probability.ConfluenceBase,
			ConfluenceDecay:      cfg.Probability.ConfluenceDecay,
			ConfluenceCap:        cfg.Probability.ConfluenceCap,
			ContradictionPenalty: cfg.Probability.ContradictionPenalty,
			MediumRiskPenalty:    cfg.Probability.PenaltyMedium,
			HighRiskPenalty:      cfg.Probability.PenaltyHigh,
			Floor:                cfg.Probability.Floor,
			Ceiling:              cfg.Probability.Ceiling,
		}),
	}
}

// overviewOnly lists symbols carried in the overview but never ranked.
func overviewOnly(indexSymbol string) []string {
	if indexSymbol == "" {
		return nil
	}
	return []string{indexSymbol}
}
