package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Sensex Pulse Configuration

[universe]
# Symbols to evaluate. Empty uses the built-in NSE large-cap list.
symbols = []
# Benchmark index, always included in the market snapshot.
index_symbol = "^BSESN"
# Merge the scraped SENSEX constituents (.BO tickers) into the universe.
include_index_constituents = false
# Calendar days of daily history to request per symbol.
lookback_days = 365
# Minimum bars a series needs to be evaluated at all.
min_bars = 1

[fetch]
# Market data provider: "yahoo" or "kite"
provider = "yahoo"
# Override the provider base URL (testing/proxies). Empty uses the default.
base_url = ""
timeout_sec = 15
rate_per_sec = 4.0
burst = 2
max_retries = 3
# Symbols evaluated in parallel.
concurrency = 8

[kite]
# Kite Connect credentials for provider = "kite". Also settable via
# KITE_API_KEY / KITE_ACCESS_TOKEN.
api_key = ""
access_token = ""

[indicators]
# Trailing sessions for VWAP; 0 uses the full fetched series.
vwap_window_sessions = 0

[signals]
buy_threshold = 2.5
sell_threshold = -2.5
# Share of core indicators that may be missing before the verdict is
# forced to NONE.
insufficient_data_fraction = 0.5

[signals.weights]
# Rule weights. Zero disables a rule.
trend_alignment = 2.0
rsi_extreme = 1.5
macd_flip = 1.5
momentum_5d = 1.0
vwap_stretch = 1.0
volume_surge = 1.0
vwap_confirm = 0.5

[signals.params]
rsi_oversold = 30.0
rsi_overbought = 70.0
rsi_neutral_low = 45.0
rsi_neutral_high = 55.0
volume_surge_ratio = 1.3
vwap_band_pct = 0.01
momentum_5d_pct = 3.0

[risk]
vol_window = 20
drawdown_window = 60
annualization = 252
stop_alpha = 2.0
reward_beta = 1.5
min_stop_vol = 0.005
entry_band_pct = 0.01
vol_cap = 0.60
drawdown_cap = 0.35
weight_vol = 0.45
weight_drawdown = 0.45
weight_stability = 0.10
low_cutoff = 0.33
high_cutoff = 0.66

[probability]
base = 50.0
score_cap = 20.0
score_norm = 5.0
confluence_base = 6.0
confluence_decay = 0.75
confluence_cap = 15.0
contradiction_penalty = 3.0
penalty_medium = 8.0
penalty_high = 16.0
floor = 5.0
ceiling = 95.0

[ranking]
# Ranked candidates kept per side (BUY / SELL).
top_per_side = 10
# Rows per market snapshot board (gainers, losers, volume).
snapshot_size = 5

[report]
output_dir = "reports"
# Any of: "console", "csv", "xlsx"
formats = ["console", "csv", "xlsx"]
# Append an LLM market wrap to the report. Needs OPENAI_API_KEY.
commentary = false
commentary_model = "gpt-4o-mini"

[email]
enabled = false
host = ""
port = 587
sender = ""
password = ""
recipients = []

[telegram]
enabled = false
bot_token = ""
chat_id = ""

[webhook]
enabled = false
url = ""

[schedule]
# Seconds-resolution cron, default 15:45 IST on trading weekdays.
cron = "0 45 15 * * MON-FRI"
timezone = "Asia/Kolkata"

[store]
enabled = true
path = "pulse.db"

[logging]
# Level: trace, debug, info, warn, error
level = "info"
# Format: "console" or "json"
format = "console"
# Output: "stdout", "stderr" or "file"
output = "stdout"
file_path = ""
max_size_mb = 20
max_backups = 5
max_age_days = 30
compress = true
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
