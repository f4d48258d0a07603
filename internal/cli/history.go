package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sensex-pulse/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(runs)
			}

			if len(runs) == 0 {
				out.Info("No archived runs.")
				return nil
			}

			table := NewTable(out, "Run", "As Of", "Generated", "Universe", "Evaluated", "Skipped")
			for _, run := range runs {
				table.AddRow(
					strconv.FormatInt(run.ID, 10),
					FormatDate(run.AsOf),
					FormatDateTime(run.GeneratedAt),
					strconv.Itoa(run.UniverseSize),
					strconv.Itoa(run.Evaluated),
					strconv.Itoa(run.Skipped),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list")
	cmd.AddCommand(newHistoryShowCmd(app))

	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the archived signals of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id: %q", args[0])
			}

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			candidates, err := st.RunCandidates(cmd.Context(), runID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("run %d not found", runID)
				}
				return err
			}

			if out.IsJSON() {
				return out.JSON(candidates)
			}

			if len(candidates) == 0 {
				out.Info("No actionable signals in run %d.", runID)
				return nil
			}

			table := NewTable(out, "Symbol", "Signal", "Close", "Entry Zone", "Target", "Stop", "Risk", "Prob %", "Reason")
			for _, c := range candidates {
				table.AddRow(
					c.Symbol,
					c.Direction,
					FormatIndianCurrency(c.LastClose),
					fmt.Sprintf("%.2f - %.2f", c.EntryLow, c.EntryHigh),
					FormatIndianCurrency(c.Target),
					FormatIndianCurrency(c.StopLoss),
					c.RiskLevel,
					fmt.Sprintf("%.1f", c.ProbabilityPct),
					TruncateString(strings.Join(c.Reasons, "; "), 48),
				)
			}
			table.Render()
			return nil
		},
	}
}

func openStore(app *App) (store.Store, error) {
	if !app.Config.Store.Enabled {
		return nil, fmt.Errorf("run archive is disabled (store.enabled = false)")
	}
	return store.NewSQLiteStore(app.Config.Store.Path)
}
