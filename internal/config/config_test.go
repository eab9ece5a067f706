package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.SurrealDBNamespace != "ledgerly" {
		t.Errorf("SurrealDBNamespace = %q, want ledgerly", cfg.SurrealDBNamespace)
	}
	if cfg.DateToleranceDays != 3 {
		t.Errorf("DateToleranceDays = %d, want 3", cfg.DateToleranceDays)
	}
	if cfg.AmountTolerancePercent != 0.01 {
		t.Errorf("AmountTolerancePercent = %v, want 0.01", cfg.AmountTolerancePercent)
	}
	if cfg.IngestMaxAttempts != 3 || cfg.ReconcileMaxAttempts != 2 {
		t.Errorf("attempt defaults = %d/%d, want 3/2", cfg.IngestMaxAttempts, cfg.ReconcileMaxAttempts)
	}
	if cfg.ReconcileCooldown != 120*time.Second {
		t.Errorf("ReconcileCooldown = %v, want 2m", cfg.ReconcileCooldown)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEDGERLY_DATE_TOLERANCE_DAYS", "7")
	t.Setenv("LEDGERLY_AMOUNT_TOLERANCE_PCT", "0.05")
	t.Setenv("LEDGERLY_LLM_PROVIDER", "anthropic")
	t.Setenv("LEDGERLY_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.DateToleranceDays != 7 {
		t.Errorf("DateToleranceDays = %d, want 7", cfg.DateToleranceDays)
	}
	if cfg.AmountTolerancePercent != 0.05 {
		t.Errorf("AmountTolerancePercent = %v, want 0.05", cfg.AmountTolerancePercent)
	}
	if cfg.LLMProvider != ProviderAnthropic {
		t.Errorf("LLMProvider = %q, want anthropic", cfg.LLMProvider)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerly.yaml")
	content := "llm_model: mistral-small-latest\ndate_tolerance_days: 5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(Load(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.LLMModel != "mistral-small-latest" {
		t.Errorf("LLMModel = %q, want mistral-small-latest", cfg.LLMModel)
	}
	if cfg.DateToleranceDays != 5 {
		t.Errorf("DateToleranceDays = %d, want 5", cfg.DateToleranceDays)
	}
	// Untouched key keeps the env default
	if cfg.SurrealDBDatabase != "main" {
		t.Errorf("SurrealDBDatabase = %q, want main", cfg.SurrealDBDatabase)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(Load(), "/nonexistent/ledgerly.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("pipeline started", "run_id", "abc123")

	if !strings.Contains(stderr.String(), "pipeline started") {
		t.Error("stderr output missing log message")
	}
	if !strings.Contains(file.String(), `"run_id":"abc123"`) {
		t.Errorf("file output missing JSON attribute: %s", file.String())
	}
}
