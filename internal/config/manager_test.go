package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 3
	cfg.DeepThinkLLM = "o3"

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.MaxDebateRounds != 3 {
		t.Fatalf("expected 3 debate rounds, got %d", updated.MaxDebateRounds)
	}
	if updated.DeepThinkLLM != "o3" {
		t.Fatalf("expected model o3, got %s", updated.DeepThinkLLM)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 0
	if err := mgr.Update(cfg); err == nil {
		t.Fatal("expected validation error for zero debate rounds")
	}

	if mgr.Get().MaxDebateRounds == 0 {
		t.Fatal("invalid config was applied")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- cfg
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.MaxRiskDiscussRounds = 4
	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.MaxRiskDiscussRounds != 4 {
			t.Fatalf("expected 4 risk rounds after reload, got %d", got.MaxRiskDiscussRounds)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire on config change")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TRADECOUNCIL_MAX_DEBATE_ROUNDS", "5")
	t.Setenv("TRADECOUNCIL_LLM_PROVIDER", "deepseek")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxDebateRounds != 5 {
		t.Fatalf("expected 5 debate rounds from env, got %d", cfg.MaxDebateRounds)
	}
	if cfg.LLMProvider != "deepseek" {
		t.Fatalf("expected deepseek provider from env, got %s", cfg.LLMProvider)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"max_debate_rounds": 2, "quick_think_llm": "gpt-4o"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxDebateRounds != 2 {
		t.Fatalf("expected 2 debate rounds, got %d", cfg.MaxDebateRounds)
	}
	if cfg.QuickThinkLLM != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %s", cfg.QuickThinkLLM)
	}
	// Unset fields keep their defaults.
	if cfg.MaxRecurLimit != 100 {
		t.Fatalf("expected default recursion limit, got %d", cfg.MaxRecurLimit)
	}
}

func TestValidateBounds(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.MaxRecurLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero recursion limit")
	}
}
