package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const defaultConstituentsURL = "https://en.wikipedia.org/wiki/BSE_SENSEX"

// Broad liquid NSE names analyzed even when the constituent scrape is
// unavailable.
var defaultNSESymbols = []string{
	"RELIANCE.NS",
	"TCS.NS",
	"HDFCBANK.NS",
	"INFY.NS",
	"ICICIBANK.NS",
	"HINDUNILVR.NS",
	"SBIN.NS",
	"BHARTIARTL.NS",
	"ITC.NS",
	"LT.NS",
	"KOTAKBANK.NS",
	"HCLTECH.NS",
	"ASIANPAINT.NS",
	"AXISBANK.NS",
	"MARUTI.NS",
	"BAJFINANCE.NS",
	"SUNPHARMA.NS",
	"TATAMOTORS.NS",
	"NTPC.NS",
	"POWERGRID.NS",
}

// DefaultSymbols returns the built-in NSE large-cap universe.
func DefaultSymbols() []string {
	out := make([]string, len(defaultNSESymbols))
	copy(out, defaultNSESymbols)
	return out
}

// UniverseConfig controls how the per-run symbol universe is assembled.
type UniverseConfig struct {
	// Symbols is the configured base list. Empty falls back to
	// DefaultSymbols.
	Symbols []string
	// IndexSymbol is always included when set, e.g. ^BSESN.
	IndexSymbol string
	// IncludeIndexConstituents merges in the scraped SENSEX members.
	IncludeIndexConstituents bool
	ConstituentsURL          string
	Timeout                  time.Duration
}

// UniverseSource resolves the symbol set for a run, optionally scraping
// the SENSEX constituents table and converting members to .BO tickers.
type UniverseSource struct {
	cfg    UniverseConfig
	client *http.Client
	log    zerolog.Logger
}

// NewUniverseSource creates a resolver, filling zero config fields with
// defaults.
func NewUniverseSource(cfg UniverseConfig, log zerolog.Logger) *UniverseSource {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols()
	}
	if cfg.ConstituentsURL == "" {
		cfg.ConstituentsURL = defaultConstituentsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &UniverseSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "universe").Logger(),
	}
}

// Resolve returns the sorted, deduplicated symbol universe. A failed
// constituent scrape degrades to the configured list with a warning.
func (u *UniverseSource) Resolve(ctx context.Context) []string {
	set := make(map[string]bool)
	add := func(symbol string) {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			set[symbol] = true
		}
	}

	for _, symbol := range u.cfg.Symbols {
		add(symbol)
	}

	if u.cfg.IncludeIndexConstituents {
		constituents, err := u.scrapeConstituents(ctx)
		if err != nil {
			u.log.Warn().Err(err).Msg("constituent scrape failed, using configured symbols")
		}
		for _, symbol := range constituents {
			add(symbol)
		}
	}

	if u.cfg.IndexSymbol != "" {
		add(u.cfg.IndexSymbol)
	}

	symbols := make([]string, 0, len(set))
	for symbol := range set {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	u.log.Info().Int("symbols", len(symbols)).Msg("universe resolved")
	return symbols
}

// scrapeConstituents pulls the SENSEX members from the Wikipedia
// constituents table. The table layout shifts over time, so the symbol
// column is located by header text.
func (u *UniverseSource) scrapeConstituents(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.cfg.ConstituentsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("constituents page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	var symbols []string
	doc.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			switch strings.TrimSpace(th.Text()) {
			case "Symbol", "Ticker":
				col = i
			}
		})
		if col < 0 {
			return true
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= col {
				return
			}
			symbol := strings.TrimSpace(cells.Eq(col).Text())
			// Strip footnote markers like "RELIANCE[a]".
			if idx := strings.IndexByte(symbol, '['); idx >= 0 {
				symbol = strings.TrimSpace(symbol[:idx])
			}
			if symbol == "" {
				return
			}
			if !strings.HasSuffix(symbol, ".BO") {
				symbol += ".BO"
			}
			symbols = append(symbols, symbol)
		})
		return false
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbol column found in constituents page")
	}

	u.log.Info().Int("constituents", len(symbols)).Msg("scraped index constituents")
	return symbols, nil
}
