package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/slipstream/market"
	"github.com/rustyeddy/slipstream/sim"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLIPSTREAM_"

// Config represents the complete simulation configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Trader  TraderConfig  `json:"trader" yaml:"trader"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency      string  `json:"currency" yaml:"currency"`
	InitialEquity float64 `json:"initial_equity" yaml:"initial_equity"`
}

// TraderConfig holds the matching engine parameters. Durations are strings
// such as "1ms" or "10s".
type TraderConfig struct {
	ContractCount     int     `json:"contract_count" yaml:"contract_count"`
	TradeCost         float64 `json:"trade_cost" yaml:"trade_cost"`
	PriceSlip         float64 `json:"price_slip" yaml:"price_slip"`
	PriceMultiplier   float64 `json:"price_multiplier" yaml:"price_multiplier"`
	SyntheticDelay    string  `json:"synthetic_delay" yaml:"synthetic_delay"`
	MinOrderFillDelay string  `json:"min_order_fill_delay" yaml:"min_order_fill_delay"`
	IDSeed            int64   `json:"id_seed" yaml:"id_seed"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	ResultsDir string `json:"results_dir,omitempty" yaml:"results_dir,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

type MetricsConfig struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// TradesPath is the CSV trade log path. Without an explicit trades_file it
// is a timestamped file in the results directory.
func (j JournalConfig) TradesPath(now time.Time) string {
	if j.TradesFile != "" {
		return j.TradesFile
	}
	dir := j.ResultsDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "trades_"+now.Format("20060102_150405")+".csv")
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays SLIPSTREAM_* environment variables. envFile is loaded
// first when given, else an optional .env in the working directory.
// Variables already set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	strs := map[string]*string{
		"CURRENCY":             &c.Account.Currency,
		"SYNTHETIC_DELAY":      &c.Trader.SyntheticDelay,
		"MIN_ORDER_FILL_DELAY": &c.Trader.MinOrderFillDelay,
		"JOURNAL_TYPE":         &c.Journal.Type,
		"RESULTS_DIR":          &c.Journal.ResultsDir,
		"TRADES_FILE":          &c.Journal.TradesFile,
		"EQUITY_FILE":          &c.Journal.EquityFile,
		"DB_PATH":              &c.Journal.DBPath,
		"LOG_LEVEL":            &c.Log.Level,
		"LOG_FILE":             &c.Log.File,
		"METRICS_FILE":         &c.Metrics.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"INITIAL_EQUITY":   &c.Account.InitialEquity,
		"TRADE_COST":       &c.Trader.TradeCost,
		"PRICE_SLIP":       &c.Trader.PriceSlip,
		"PRICE_MULTIPLIER": &c.Trader.PriceMultiplier,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "CONTRACT_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONTRACT_COUNT: %w", EnvPrefix, err)
		}
		c.Trader.ContractCount = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ID_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sID_SEED: %w", EnvPrefix, err)
		}
		c.Trader.IDSeed = n
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.InitialEquity <= 0 {
		return fmt.Errorf("account.initial_equity must be positive")
	}
	if c.Trader.ContractCount <= 0 {
		return fmt.Errorf("trader.contract_count must be positive")
	}
	if c.Trader.TradeCost < 0 {
		return fmt.Errorf("trader.trade_cost must not be negative")
	}
	if c.Trader.PriceSlip < 0 {
		return fmt.Errorf("trader.price_slip must not be negative")
	}
	if c.Trader.PriceMultiplier <= 0 {
		return fmt.Errorf("trader.price_multiplier must be positive")
	}
	if d, err := parseDuration(c.Trader.SyntheticDelay); err != nil {
		return fmt.Errorf("trader.synthetic_delay: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("trader.synthetic_delay must be positive")
	}
	if d, err := parseDuration(c.Trader.MinOrderFillDelay); err != nil {
		return fmt.Errorf("trader.min_order_fill_delay: %w", err)
	} else if d < 0 {
		return fmt.Errorf("trader.min_order_fill_delay must not be negative")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// EngineConfig maps the trader and account sections onto the engine.
// Call it on a validated config.
func (c *Config) EngineConfig() (sim.EngineConfig, error) {
	syn, err := parseDuration(c.Trader.SyntheticDelay)
	if err != nil {
		return sim.EngineConfig{}, fmt.Errorf("trader.synthetic_delay: %w", err)
	}
	minFill, err := parseDuration(c.Trader.MinOrderFillDelay)
	if err != nil {
		return sim.EngineConfig{}, fmt.Errorf("trader.min_order_fill_delay: %w", err)
	}
	return sim.EngineConfig{
		ContractCount:     c.Trader.ContractCount,
		TradeCost:         c.Trader.TradeCost,
		PriceSlip:         c.Trader.PriceSlip,
		PriceMultiplier:   c.Trader.PriceMultiplier,
		InitialEquity:     c.Account.InitialEquity,
		Currency:          market.Currency(c.Account.Currency),
		SyntheticDelay:    syn,
		MinOrderFillDelay: minFill,
		IDSeed:            c.Trader.IDSeed,
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:      string(market.USD),
			InitialEquity: sim.DefaultInitialEquity,
		},
		Trader: TraderConfig{
			ContractCount:     sim.DefaultContractCount,
			TradeCost:         sim.DefaultTradeCost,
			PriceMultiplier:   sim.DefaultSimMultiplier,
			SyntheticDelay:    sim.DefaultSyntheticDelay.String(),
			MinOrderFillDelay: sim.DefaultMinOrderFillDelay.String(),
		},
		Journal: JournalConfig{
			Type:       "csv",
			ResultsDir: os.TempDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
