package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sensex-pulse/internal/schedule"
	"sensex-pulse/pkg/utils"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the post-market report on a cron schedule",
		Long: `Schedule keeps the process in the foreground and generates the daily
report after every market close, delivering it over the configured
channels. Stop it with Ctrl+C; a report in flight finishes first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, app)
		},
	}
	return cmd
}

func runSchedule(cmd *cobra.Command, app *App) error {
	cfg := app.Config
	out := NewOutput(cmd)

	loc := utils.IndiaLocation
	if cfg.Schedule.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			app.Logger.Warn().Err(err).Str("timezone", cfg.Schedule.Timezone).
				Msg("unknown timezone, using Asia/Kolkata")
		} else {
			loc = parsed
		}
	}

	spec := cfg.Schedule.Cron
	if spec == "" {
		spec = schedule.DefaultSpec
	}

	sched := schedule.New(loc, app.Logger)
	err := sched.Add("daily-report", spec, func(ctx context.Context) error {
		opts := runOptions{
			session:    utils.LastCompletedSession(time.Now()),
			deliver:    true,
			archive:    cfg.Store.Enabled,
			formats:    cfg.Report.Formats,
			outputDir:  cfg.Report.OutputDir,
			topPerSide: cfg.Ranking.TopPerSide,
		}
		return executeRun(ctx, app, out, cmd.OutOrStdout(), opts)
	})
	if err != nil {
		return err
	}

	sched.Start()
	out.Info("Scheduler running (%s, %s). Press Ctrl+C to stop.", spec, loc)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		app.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-cmd.Context().Done():
		app.Logger.Info().Msg("shutting down")
	}

	sched.Stop()
	out.Info("Scheduler stopped.")
	return nil
}
