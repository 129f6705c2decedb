package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is an immutable snapshot passed by value into every run. Changing
// configuration means building a new Config and starting a new run; nothing
// mutates a Config visible to an in-flight pipeline.
type Config struct {
	ProjectDir   string `json:"project_dir" mapstructure:"project_dir"`
	ResultsDir   string `json:"results_dir" mapstructure:"results_dir"`
	DataDir      string `json:"data_dir" mapstructure:"data_dir"`
	DataCacheDir string `json:"data_cache_dir" mapstructure:"data_cache_dir"`
	MemoryDBPath string `json:"memory_db_path" mapstructure:"memory_db_path"`

	LLMProvider   string `json:"llm_provider" mapstructure:"llm_provider"`
	DeepThinkLLM  string `json:"deep_think_llm" mapstructure:"deep_think_llm"`
	QuickThinkLLM string `json:"quick_think_llm" mapstructure:"quick_think_llm"`
	BackendURL    string `json:"backend_url" mapstructure:"backend_url"`
	APIKey        string `json:"api_key" mapstructure:"api_key"`
	MaxTokens     int    `json:"max_tokens" mapstructure:"max_tokens"`

	EmbeddingModel      string `json:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingBackendURL string `json:"embedding_backend_url" mapstructure:"embedding_backend_url"`

	MaxDebateRounds      int `json:"max_debate_rounds" mapstructure:"max_debate_rounds"`
	MaxRiskDiscussRounds int `json:"max_risk_discuss_rounds" mapstructure:"max_risk_discuss_rounds"`
	MaxRecurLimit        int `json:"max_recur_limit" mapstructure:"max_recur_limit"`
	StageTimeoutSec      int `json:"stage_timeout_sec" mapstructure:"stage_timeout_sec"`

	ParallelAnalysts bool `json:"parallel_analysts" mapstructure:"parallel_analysts"`
	OnlineTools      bool `json:"online_tools" mapstructure:"online_tools"`
	Debug            bool `json:"debug" mapstructure:"debug"`

	FinnhubAPIKey string `json:"finnhub_api_key" mapstructure:"finnhub_api_key"`
	CacheEnabled  bool   `json:"cache_enabled" mapstructure:"cache_enabled"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	return DefaultConfigWithRoot(currentDir)
}

func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		ResultsDir:   filepath.Join(root, "results"),
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),
		MemoryDBPath: filepath.Join(root, "data", "memory.db"),

		LLMProvider:   "openai",
		DeepThinkLLM:  "o4-mini",
		QuickThinkLLM: "gpt-4o-mini",
		BackendURL:    "https://api.openai.com/v1",
		MaxTokens:     8192,

		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingBackendURL: "https://api.openai.com/v1",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxRecurLimit:        100,
		StageTimeoutSec:      300,

		ParallelAnalysts: false,
		OnlineTools:      true,
		Debug:            false,

		CacheEnabled: true,
	}
}

// Load builds a Config from defaults, an optional config file (json or
// yaml) and TRADECOUNCIL_* environment variables, in that precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("TRADECOUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range allKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func allKeys() map[string]struct{} {
	keys := []string{
		"project_dir", "results_dir", "data_dir", "data_cache_dir", "memory_db_path",
		"llm_provider", "deep_think_llm", "quick_think_llm", "backend_url", "api_key", "max_tokens",
		"embedding_model", "embedding_backend_url",
		"max_debate_rounds", "max_risk_discuss_rounds", "max_recur_limit", "stage_timeout_sec",
		"parallel_analysts", "online_tools", "debug",
		"finnhub_api_key", "cache_enabled",
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (c *Config) Validate() error {
	if c.MaxDebateRounds < 1 {
		return fmt.Errorf("max_debate_rounds must be at least 1, got %d", c.MaxDebateRounds)
	}
	if c.MaxRiskDiscussRounds < 1 {
		return fmt.Errorf("max_risk_discuss_rounds must be at least 1, got %d", c.MaxRiskDiscussRounds)
	}
	if c.MaxRecurLimit < 1 {
		return fmt.Errorf("max_recur_limit must be at least 1, got %d", c.MaxRecurLimit)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.ResultsDir,
		c.DataDir,
		c.DataCacheDir,
		filepath.Dir(c.MemoryDBPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
