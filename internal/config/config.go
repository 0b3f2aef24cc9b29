// Package config loads the immutable engine configuration. All settings
// are read once at startup and passed into component constructors; no
// component reads configuration after construction.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Evaluation  struct {
		NSplits    int           `yaml:"n_splits"`
		Gap        time.Duration `yaml:"gap"`
		TestWindow time.Duration `yaml:"test_window"`
	} `yaml:"evaluation"`
	Model struct {
		Backend string `yaml:"backend"` // LOGISTIC or STUMPS
		Name    string `yaml:"name"`
	} `yaml:"model"`
	Signal struct {
		Threshold float64 `yaml:"threshold"`
		TopN      int     `yaml:"top_n"`
	} `yaml:"signal"`
	Stake struct {
		RiskPct       float64 `yaml:"risk_pct"`
		MinStake      float64 `yaml:"min_stake"`
		MaxPosition   float64 `yaml:"max_position"`
		KellyFraction float64 `yaml:"kelly_fraction"`
		KellyMaxRatio float64 `yaml:"kelly_max_ratio"`
		Budget        float64 `yaml:"budget"`
		UnitCost      float64 `yaml:"unit_cost"`
		MaxPerLeg     int     `yaml:"max_per_leg"`
		Unit          float64 `yaml:"unit"`
	} `yaml:"stake"`
	Backtest struct {
		InitialBalance      float64 `yaml:"initial_balance"`
		AnnualizationFactor int     `yaml:"annualization_factor"`
		StopLoss            float64 `yaml:"stop_loss"`
		TakeProfit          float64 `yaml:"take_profit"`
	} `yaml:"backtest"`
	Storage struct {
		Driver        string `yaml:"driver"` // memory or database
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Default returns a configuration with working defaults for every
// numeric knob. Callers still pick a model name and storage driver.
func Default() *Config {
	c := &Config{}
	c.Environment = "development"
	c.Evaluation.NSplits = 5
	c.Evaluation.Gap = 24 * time.Hour
	c.Evaluation.TestWindow = 30 * 24 * time.Hour
	c.Model.Backend = "STUMPS"
	c.Signal.Threshold = 0.55
	c.Signal.TopN = 10
	c.Stake.RiskPct = 2.0
	c.Stake.MinStake = 100
	c.Stake.MaxPosition = 100000
	c.Stake.KellyFraction = 0.25
	c.Stake.KellyMaxRatio = 0.2
	c.Stake.Budget = 10000
	c.Stake.UnitCost = 100
	c.Stake.MaxPerLeg = 8
	c.Stake.Unit = 100
	c.Backtest.InitialBalance = 1000000
	c.Backtest.AnnualizationFactor = 252
	c.Backtest.StopLoss = 0.5
	c.Backtest.TakeProfit = 1.0
	c.Storage.Driver = "memory"
	c.Log.Level = "info"
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("MODEL_BACKEND"); v != "" {
		c.Model.Backend = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Evaluation.NSplits < 1 {
		return fmt.Errorf("evaluation.n_splits must be >= 1")
	}
	if c.Evaluation.Gap < 0 {
		return fmt.Errorf("evaluation.gap must be >= 0")
	}
	if c.Evaluation.TestWindow <= 0 {
		return fmt.Errorf("evaluation.test_window must be > 0")
	}
	if c.Model.Backend != "LOGISTIC" && c.Model.Backend != "STUMPS" {
		return fmt.Errorf("model.backend must be LOGISTIC or STUMPS, got %q", c.Model.Backend)
	}
	if c.Signal.Threshold < 0.5 || c.Signal.Threshold > 1.0 {
		return fmt.Errorf("signal.threshold must be in [0.5, 1.0]")
	}
	if c.Signal.TopN <= 0 {
		return fmt.Errorf("signal.top_n must be > 0")
	}
	if c.Stake.RiskPct <= 0 || c.Stake.RiskPct > 100 {
		return fmt.Errorf("stake.risk_pct must be in (0, 100]")
	}
	if c.Stake.KellyFraction <= 0 || c.Stake.KellyFraction > 1 {
		return fmt.Errorf("stake.kelly_fraction must be in (0, 1]")
	}
	if c.Stake.Budget <= 0 || c.Stake.UnitCost <= 0 {
		return fmt.Errorf("stake.budget and stake.unit_cost must be > 0")
	}
	if c.Stake.MaxPerLeg < 1 {
		return fmt.Errorf("stake.max_per_leg must be >= 1")
	}
	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be > 0")
	}
	if c.Backtest.AnnualizationFactor <= 0 {
		return fmt.Errorf("backtest.annualization_factor must be > 0")
	}
	if c.Storage.Driver != "memory" && c.Storage.Driver != "database" {
		return fmt.Errorf("storage.driver must be memory or database, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "database" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("storage.postgres_dsn is required with the database driver")
	}
	return nil
}
