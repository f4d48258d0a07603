package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sensex-pulse/internal/marketdata"
)

func newSymbolsCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Show the resolved symbol universe",
		Long: `Symbols prints the universe the next run would evaluate, after merging
the configured list, the optional index constituents and the benchmark
index symbol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			out := NewOutput(cmd)

			source := marketdata.NewUniverseSource(marketdata.UniverseConfig{
				Symbols:                  cfg.Universe.Symbols,
				IndexSymbol:              cfg.Universe.IndexSymbol,
				IncludeIndexConstituents: cfg.Universe.IncludeIndexConstituents || refresh,
				Timeout:                  time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
			}, app.Logger)

			symbols := source.Resolve(cmd.Context())

			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"symbols": symbols,
					"count":   len(symbols),
				})
			}

			table := NewTable(out, "#", "Symbol")
			for i, symbol := range symbols {
				table.AddRow(strconv.Itoa(i+1), symbol)
			}
			table.Render()
			out.Printf("\n%d symbols\n", len(symbols))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "scrape the index constituents even when disabled in config")

	return cmd
}
