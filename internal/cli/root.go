// Package cli implements the pulse command tree.
package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sensex-pulse/internal/config"
	"sensex-pulse/internal/logging"
)

// App holds the dependencies shared across commands.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Version string
}

// Execute loads the configuration, builds the command tree and runs it.
func Execute(version string) error {
	cfg, err := config.Load(configDirFromArgs(os.Args[1:]))
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	return NewRootCmd(cfg, logger, version).Execute()
}

// configDirFromArgs pre-scans the arguments for --config. The config
// file decides how logging is set up, so it must be read before cobra
// parses anything.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger, version string) *cobra.Command {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}

	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Post-market trade report generator for Indian equities",
		Long: `Sensex Pulse evaluates NSE/BSE equities after the market close and
produces a ranked, actionable daily report.

Each run fetches daily history, computes technical indicators, scores
BUY/SELL signals, sizes entry, target and stop levels, and writes the
report to the console, CSV and XLSX. Reports can be emailed and every
run is archived for review with 'pulse history'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/sensex-pulse)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newScheduleCmd(app))
	rootCmd.AddCommand(newSymbolsCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newVersionCmd(app))

	return rootCmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": app.Version})
				return
			}
			output.Printf("sensex-pulse v%s\n", app.Version)
		},
	}
}
