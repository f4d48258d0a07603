// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Universe    UniverseConfig    `mapstructure:"universe"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Kite        KiteConfig        `mapstructure:"kite"`
	Indicators  IndicatorsConfig  `mapstructure:"indicators"`
	Signals     SignalsConfig     `mapstructure:"signals"`
	Risk        RiskConfig        `mapstructure:"risk"`
	Probability ProbabilityConfig `mapstructure:"probability"`
	Ranking     RankingConfig     `mapstructure:"ranking"`
	Report      ReportConfig      `mapstructure:"report"`
	Email       EmailConfig       `mapstructure:"email"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Store       StoreConfig       `mapstructure:"store"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// UniverseConfig selects the symbols each run evaluates.
type UniverseConfig struct {
	// Symbols is the base list. Empty uses the built-in NSE large caps.
	Symbols                  []string `mapstructure:"symbols"`
	IndexSymbol              string   `mapstructure:"index_symbol"`
	IncludeIndexConstituents bool     `mapstructure:"include_index_constituents"`
	LookbackDays             int      `mapstructure:"lookback_days"`
	MinBars                  int      `mapstructure:"min_bars"`
}

// FetchConfig tunes the market data provider.
type FetchConfig struct {
	Provider    string  `mapstructure:"provider"` // "yahoo" or "kite"
	BaseURL     string  `mapstructure:"base_url"`
	TimeoutSec  int     `mapstructure:"timeout_sec"`
	RatePerSec  float64 `mapstructure:"rate_per_sec"`
	Burst       int     `mapstructure:"burst"`
	MaxRetries  int     `mapstructure:"max_retries"`
	Concurrency int     `mapstructure:"concurrency"`
}

// KiteConfig holds Kite Connect credentials for the optional kite
// provider. Also settable via KITE_API_KEY / KITE_ACCESS_TOKEN.
type KiteConfig struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// IndicatorsConfig tunes indicator computation.
type IndicatorsConfig struct {
	// VWAPWindowSessions restricts VWAP to the trailing n sessions;
	// 0 uses the full series.
	VWAPWindowSessions int `mapstructure:"vwap_window_sessions"`
}

// SignalsConfig holds rule weights, parameters and verdict thresholds.
type SignalsConfig struct {
	BuyThreshold             float64       `mapstructure:"buy_threshold"`
	SellThreshold            float64       `mapstructure:"sell_threshold"`
	InsufficientDataFraction float64       `mapstructure:"insufficient_data_fraction"`
	Weights                  SignalWeights `mapstructure:"weights"`
	Params                   SignalParams  `mapstructure:"params"`
}

// SignalWeights assigns a magnitude to each scoring rule. Zero disables
// the rule.
type SignalWeights struct {
	TrendAlignment float64 `mapstructure:"trend_alignment"`
	RSIExtreme     float64 `mapstructure:"rsi_extreme"`
	MACDFlip       float64 `mapstructure:"macd_flip"`
	Momentum5D     float64 `mapstructure:"momentum_5d"`
	VWAPStretch    float64 `mapstructure:"vwap_stretch"`
	VolumeSurge    float64 `mapstructure:"volume_surge"`
	VWAPConfirm    float64 `mapstructure:"vwap_confirm"`
}

// SignalParams holds rule trigger levels.
type SignalParams struct {
	RSIOversold      float64 `mapstructure:"rsi_oversold"`
	RSIOverbought    float64 `mapstructure:"rsi_overbought"`
	RSINeutralLow    float64 `mapstructure:"rsi_neutral_low"`
	RSINeutralHigh   float64 `mapstructure:"rsi_neutral_high"`
	VolumeSurgeRatio float64 `mapstructure:"volume_surge_ratio"`
	VWAPBandPct      float64 `mapstructure:"vwap_band_pct"`
	Momentum5DPct    float64 `mapstructure:"momentum_5d_pct"`
}

// RiskConfig tunes the risk assessment stage.
type RiskConfig struct {
	VolWindow       int     `mapstructure:"vol_window"`
	DrawdownWindow  int     `mapstructure:"drawdown_window"`
	Annualization   int     `mapstructure:"annualization"`
	StopAlpha       float64 `mapstructure:"stop_alpha"`
	RewardBeta      float64 `mapstructure:"reward_beta"`
	MinStopVol      float64 `mapstructure:"min_stop_vol"`
	EntryBandPct    float64 `mapstructure:"entry_band_pct"`
	VolCap          float64 `mapstructure:"vol_cap"`
	DrawdownCap     float64 `mapstructure:"drawdown_cap"`
	WeightVol       float64 `mapstructure:"weight_vol"`
	WeightDrawdown  float64 `mapstructure:"weight_drawdown"`
	WeightStability float64 `mapstructure:"weight_stability"`
	LowCutoff       float64 `mapstructure:"low_cutoff"`
	HighCutoff      float64 `mapstructure:"high_cutoff"`
}

// ProbabilityConfig tunes the probability estimate.
type ProbabilityConfig struct {
	Base                 float64 `mapstructure:"base"`
	ScoreCap             float64 `mapstructure:"score_cap"`
	ScoreNorm            float64 `mapstructure:"score_norm"`
	ConfluenceBase       float64 `mapstructure:"confluence_base"`
	ConfluenceDecay      float64 `mapstructure:"confluence_decay"`
	ConfluenceCap        float64 `mapstructure:"confluence_cap"`
	ContradictionPenalty float64 `mapstructure:"contradiction_penalty"`
	PenaltyMedium        float64 `mapstructure:"penalty_medium"`
	PenaltyHigh          float64 `mapstructure:"penalty_high"`
	Floor                float64 `mapstructure:"floor"`
	Ceiling              float64 `mapstructure:"ceiling"`
}

// RankingConfig bounds the report size.
type RankingConfig struct {
	TopPerSide   int `mapstructure:"top_per_side"`
	SnapshotSize int `mapstructure:"snapshot_size"`
}

// ReportConfig selects output formats and the optional commentary.
type ReportConfig struct {
	OutputDir       string   `mapstructure:"output_dir"`
	Formats         []string `mapstructure:"formats"` // console, csv, xlsx
	Commentary      bool     `mapstructure:"commentary"`
	CommentaryModel string   `mapstructure:"commentary_model"`
	// OpenAIKey comes from the OPENAI_API_KEY environment variable.
	OpenAIKey string `mapstructure:"-"`
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Sender     string   `mapstructure:"sender"`
	Password   string   `mapstructure:"password"`
	Recipients []string `mapstructure:"recipients"`
}

// TelegramConfig holds Telegram bot delivery settings.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// WebhookConfig holds webhook delivery settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// ScheduleConfig holds the post-market trigger.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// StoreConfig holds the run archive settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	Output     string `mapstructure:"output"` // stdout, stderr or file
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/sensex-pulse"
	}
	return filepath.Join(home, ".config", "sensex-pulse")
}

// Load reads config.toml from the given directory, applying defaults,
// environment overrides and validation. If configDir is empty, the
// default config directory is used. A missing file is materialized as
// a commented template and the defaults are used for this run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if templErr := createTemplateConfig(configDir); templErr != nil {
				return nil, templErr
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("universe.symbols", []string{})
	v.SetDefault("universe.index_symbol", "^BSESN")
	v.SetDefault("universe.include_index_constituents", false)
	v.SetDefault("universe.lookback_days", 365)
	v.SetDefault("universe.min_bars", 1)

	v.SetDefault("fetch.provider", "yahoo")
	v.SetDefault("fetch.base_url", "")
	v.SetDefault("fetch.timeout_sec", 15)
	v.SetDefault("fetch.rate_per_sec", 4.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.concurrency", 8)

	v.SetDefault("kite.api_key", "")
	v.SetDefault("kite.access_token", "")

	v.SetDefault("indicators.vwap_window_sessions", 0)

	v.SetDefault("signals.buy_threshold", 2.5)
	v.SetDefault("signals.sell_threshold", -2.5)
	v.SetDefault("signals.insufficient_data_fraction", 0.5)
	v.SetDefault("signals.weights.trend_alignment", 2.0)
	v.SetDefault("signals.weights.rsi_extreme", 1.5)
	v.SetDefault("signals.weights.macd_flip", 1.5)
	v.SetDefault("signals.weights.momentum_5d", 1.0)
	v.SetDefault("signals.weights.vwap_stretch", 1.0)
	v.SetDefault("signals.weights.volume_surge", 1.0)
	v.SetDefault("signals.weights.vwap_confirm", 0.5)
	v.SetDefault("signals.params.rsi_oversold", 30.0)
	v.SetDefault("signals.params.rsi_overbought", 70.0)
	v.SetDefault("signals.params.rsi_neutral_low", 45.0)
	v.SetDefault("signals.params.rsi_neutral_high", 55.0)
	v.SetDefault("signals.params.volume_surge_ratio", 1.3)
	v.SetDefault("signals.params.vwap_band_pct", 0.01)
	v.SetDefault("signals.params.momentum_5d_pct", 3.0)

	v.SetDefault("risk.vol_window", 20)
	v.SetDefault("risk.drawdown_window", 60)
	v.SetDefault("risk.annualization", 252)
	v.SetDefault("risk.stop_alpha", 2.0)
	v.SetDefault("risk.reward_beta", 1.5)
	v.SetDefault("risk.min_stop_vol", 0.005)
	v.SetDefault("risk.entry_band_pct", 0.01)
	v.SetDefault("risk.vol_cap", 0.60)
	v.SetDefault("risk.drawdown_cap", 0.35)
	v.SetDefault("risk.weight_vol", 0.45)
	v.SetDefault("risk.weight_drawdown", 0.45)
	v.SetDefault("risk.weight_stability", 0.10)
	v.SetDefault("risk.low_cutoff", 0.33)
	v.SetDefault("risk.high_cutoff", 0.66)

	v.SetDefault("probability.base", 50.0)
	v.SetDefault("probability.score_cap", 20.0)
	v.SetDefault("probability.score_norm", 5.0)
	v.SetDefault("probability.confluence_base", 6.0)
	v.SetDefault("probability.confluence_decay", 0.75)
	v.SetDefault("probability.confluence_cap", 15.0)
	v.SetDefault("probability.contradiction_penalty", 3.0)
	v.SetDefault("probability.penalty_medium", 8.0)
	v.SetDefault("probability.penalty_high", 16.0)
	v.SetDefault("probability.floor", 5.0)
	v.SetDefault("probability.ceiling", 95.0)

	v.SetDefault("ranking.top_per_side", 10)
	v.SetDefault("ranking.snapshot_size", 5)

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.formats", []string{"console", "csv", "xlsx"})
	v.SetDefault("report.commentary", false)
	v.SetDefault("report.commentary_model", "gpt-4o-mini")

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.sender", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.recipients", []string{})

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.url", "")

	v.SetDefault("schedule.cron", "0 45 15 * * MON-FRI")
	v.SetDefault("schedule.timezone", "Asia/Kolkata")

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "pulse.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Email.Port = port
		}
	}
	if v := os.Getenv("SMTP_SENDER"); v != "" {
		cfg.Email.Sender = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("SMTP_RECIPIENT"); v != "" {
		cfg.Email.Recipients = splitList(v)
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Report.OpenAIKey = v
	}

	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Kite.AccessToken = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Universe.LookbackDays < 1 {
		return fmt.Errorf("universe.lookback_days must be at least 1")
	}
	if c.Universe.MinBars < 1 {
		return fmt.Errorf("universe.min_bars must be at least 1")
	}

	switch c.Fetch.Provider {
	case "yahoo", "kite":
	default:
		return fmt.Errorf("unknown fetch provider: %q (must be 'yahoo' or 'kite')", c.Fetch.Provider)
	}
	if c.Fetch.Provider == "kite" && (c.Kite.APIKey == "" || c.Kite.AccessToken == "") {
		return fmt.Errorf("kite provider requires api_key and access_token")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}

	if c.Indicators.VWAPWindowSessions < 0 {
		return fmt.Errorf("indicators.vwap_window_sessions must be non-negative")
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"trend_alignment", c.Signals.Weights.TrendAlignment},
		{"rsi_extreme", c.Signals.Weights.RSIExtreme},
		{"macd_flip", c.Signals.Weights.MACDFlip},
		{"momentum_5d", c.Signals.Weights.Momentum5D},
		{"vwap_stretch", c.Signals.Weights.VWAPStretch},
		{"volume_surge", c.Signals.Weights.VolumeSurge},
		{"vwap_confirm", c.Signals.Weights.VWAPConfirm},
	}
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("signals.weights.%s must be non-negative", w.name)
		}
	}
	if c.Signals.BuyThreshold <= 0 {
		return fmt.Errorf("signals.buy_threshold must be positive")
	}
	if c.Signals.SellThreshold >= 0 {
		return fmt.Errorf("signals.sell_threshold must be negative")
	}
	if c.Signals.InsufficientDataFraction < 0 || c.Signals.InsufficientDataFraction > 1 {
		return fmt.Errorf("signals.insufficient_data_fraction must be within [0,1]")
	}
	p := c.Signals.Params
	if !(0 <= p.RSIOversold && p.RSIOversold < p.RSINeutralLow &&
		p.RSINeutralLow < p.RSINeutralHigh && p.RSINeutralHigh < p.RSIOverbought &&
		p.RSIOverbought <= 100) {
		return fmt.Errorf("signals.params rsi bands must be ordered within [0,100]")
	}
	if p.VolumeSurgeRatio <= 1 {
		return fmt.Errorf("signals.params.volume_surge_ratio must be greater than 1")
	}

	if c.Risk.VolWindow < 2 {
		return fmt.Errorf("risk.vol_window must be at least 2")
	}
	if c.Risk.DrawdownWindow < 2 {
		return fmt.Errorf("risk.drawdown_window must be at least 2")
	}
	if c.Risk.StopAlpha <= 0 {
		return fmt.Errorf("risk.stop_alpha must be positive")
	}
	if c.Risk.RewardBeta <= 1 {
		return fmt.Errorf("risk.reward_beta must be greater than 1")
	}
	if !(0 < c.Risk.LowCutoff && c.Risk.LowCutoff < c.Risk.HighCutoff && c.Risk.HighCutoff < 1) {
		return fmt.Errorf("risk cutoffs must satisfy 0 < low_cutoff < high_cutoff < 1")
	}
	if c.Risk.WeightVol < 0 || c.Risk.WeightDrawdown < 0 || c.Risk.WeightStability < 0 {
		return fmt.Errorf("risk blend weights must be non-negative")
	}
	if c.Risk.WeightVol+c.Risk.WeightDrawdown+c.Risk.WeightStability <= 0 {
		return fmt.Errorf("risk blend weights must sum to a positive value")
	}

	if !(0 <= c.Probability.Floor && c.Probability.Floor < c.Probability.Base &&
		c.Probability.Base < c.Probability.Ceiling && c.Probability.Ceiling <= 100) {
		return fmt.Errorf("probability must satisfy 0 <= floor < base < ceiling <= 100")
	}

	if c.Ranking.TopPerSide < 1 {
		return fmt.Errorf("ranking.top_per_side must be at least 1")
	}
	if c.Ranking.SnapshotSize < 1 {
		return fmt.Errorf("ranking.snapshot_size must be at least 1")
	}

	for _, format := range c.Report.Formats {
		switch format {
		case "console", "csv", "xlsx":
		default:
			return fmt.Errorf("unknown report format: %q", format)
		}
	}

	if c.Email.Enabled {
		if c.Email.Host == "" || c.Email.Sender == "" || len(c.Email.Recipients) == 0 {
			return fmt.Errorf("email delivery requires host, sender and recipients")
		}
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram delivery requires bot_token and chat_id")
	}
	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return fmt.Errorf("webhook delivery requires a url")
	}

	return nil
}
