package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
environment: test
evaluation:
  n_splits: 3
  gap: 24h
  test_window: 168h
model:
  backend: LOGISTIC
  name: jra-win
signal:
  threshold: 0.6
stake:
  risk_pct: 1.5
  budget: 5000
  unit_cost: 100
backtest:
  initial_balance: 500000
storage:
  driver: memory
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validYAML)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Evaluation.NSplits != 3 {
		t.Errorf("expected n_splits 3, got %d", c.Evaluation.NSplits)
	}
	if c.Model.Backend != "LOGISTIC" || c.Model.Name != "jra-win" {
		t.Errorf("unexpected model config: %+v", c.Model)
	}
	if c.Signal.Threshold != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", c.Signal.Threshold)
	}
	if c.Stake.RiskPct != 1.5 {
		t.Errorf("expected risk_pct 1.5, got %v", c.Stake.RiskPct)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, validYAML)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Backtest.AnnualizationFactor != 252 {
		t.Errorf("expected default annualization 252, got %d", c.Backtest.AnnualizationFactor)
	}
	if c.Stake.KellyFraction != 0.25 {
		t.Errorf("expected default kelly fraction 0.25, got %v", c.Stake.KellyFraction)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"threshold below half", "environment: test\nsignal:\n  threshold: 0.4\n"},
		{"bad backend", "environment: test\nmodel:\n  backend: XGBOOST\n"},
		{"zero splits", "environment: test\nevaluation:\n  n_splits: 0\n"},
		{"risk pct above 100", "environment: test\nstake:\n  risk_pct: 150\n"},
		{"database without dsn", "environment: test\nstorage:\n  driver: database\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Setenv("MODEL_BACKEND", "STUMPS")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model.Backend != "STUMPS" {
		t.Errorf("expected env override STUMPS, got %s", c.Model.Backend)
	}
	if c.Log.Level != "debug" {
		t.Errorf("expected env override debug, got %s", c.Log.Level)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}
