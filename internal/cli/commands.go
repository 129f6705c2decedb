package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradecouncil/internal/config"
	"tradecouncil/internal/trading"
)

const version = "0.1.0"

// NewRootCmd builds the CLI. With no subcommand it drops into the
// interactive prompt loop.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tradecouncil",
		Short: "TradeCouncil - multi-agent trading deliberation",
		Long: `TradeCouncil runs a structured deliberation over a stock: analyst reports,
a bull/bear research debate, a trading plan and a three-way risk review,
ending in a BUY, HOLD or SELL decision.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			mgr, err := newConfigManager(configPath, cfg)
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), mgr)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file path (json or yaml)")

	rootCmd.AddCommand(newAnalyzeCmd(&configPath))
	rootCmd.AddCommand(newReflectCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var dateStr string
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run a full deliberation for a stock symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			date := time.Now()
			if dateStr != "" {
				date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", dateStr, err)
				}
			}
			return runAnalysis(cmd.Context(), cfg, args[0], date)
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "trade date in YYYY-MM-DD format (default: today)")
	return cmd
}

func newReflectCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reflect SYMBOL DATE RETURNS",
		Short: "Record lessons from a completed run given its realized return",
		Long: `Reflect loads the saved deliberation for SYMBOL on DATE, judges it by the
realized fractional RETURNS (e.g. 0.05 for +5%), and stores one lesson per
learning role for recall in future similar situations.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			returns, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid returns %q: %w", args[2], err)
			}
			if _, err := time.Parse("2006-01-02", args[1]); err != nil {
				return fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", args[1], err)
			}
			return runReflection(cmd.Context(), cfg, args[0], args[1], returns)
		},
	}
	return cmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			if cfg.FinnhubAPIKey == "" {
				fmt.Println("warning: finnhub API key not configured, news tools fall back to scraping")
			}
			if cfg.APIKey == "" {
				fmt.Println("warning: LLM API key not configured")
			}
			return nil
		},
	})
	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tradecouncil %s\n", version)
		},
	}
}

// newConfigManager backs the interactive session with the persistent config
// file, seeded from the already-loaded config when no file exists yet. The
// manager persists json, so a yaml --config is loaded once and the watch
// stays on the default path.
func newConfigManager(configPath string, cfg *config.Config, opts ...config.ManagerOption) (*config.Manager, error) {
	opts = append(opts, config.WithInitialConfig(cfg))
	if strings.EqualFold(filepath.Ext(configPath), ".json") {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	return config.NewManager(opts...)
}

func runAnalysis(ctx context.Context, cfg *config.Config, symbol string, date time.Time) error {
	svc, err := trading.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	printRunHeader(symbol, date)
	result, err := svc.Analyze(ctx, symbol, date)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	printRunResult(result)
	return nil
}

func runReflection(ctx context.Context, cfg *config.Config, symbol, date string, returns float64) error {
	svc, err := trading.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Reflect(ctx, symbol, date, returns); err != nil {
		return fmt.Errorf("reflection failed: %w", err)
	}
	fmt.Printf("lessons recorded for %s on %s (returns %.4f)\n", symbol, date, returns)
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Printf("Results Directory:     %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:        %s\n", cfg.DataDir)
	fmt.Printf("Memory DB:             %s\n", cfg.MemoryDBPath)
	fmt.Println()
	fmt.Printf("LLM Provider:          %s\n", cfg.LLMProvider)
	fmt.Printf("Deep Think Model:      %s\n", cfg.DeepThinkLLM)
	fmt.Printf("Quick Think Model:     %s\n", cfg.QuickThinkLLM)
	fmt.Printf("Backend URL:           %s\n", cfg.BackendURL)
	fmt.Printf("Embedding Model:       %s\n", cfg.EmbeddingModel)
	fmt.Println()
	fmt.Printf("Max Debate Rounds:     %d\n", cfg.MaxDebateRounds)
	fmt.Printf("Max Risk Rounds:       %d\n", cfg.MaxRiskDiscussRounds)
	fmt.Printf("Step Budget:           %d\n", cfg.MaxRecurLimit)
	fmt.Printf("Stage Timeout:         %ds\n", cfg.StageTimeoutSec)
	fmt.Println()
	fmt.Printf("Parallel Analysts:     %t\n", cfg.ParallelAnalysts)
	fmt.Printf("Online Tools:          %t\n", cfg.OnlineTools)
	fmt.Printf("Cache Enabled:         %t\n", cfg.CacheEnabled)
	if cfg.FinnhubAPIKey != "" {
		fmt.Println("Finnhub API:           configured")
	} else {
		fmt.Println("Finnhub API:           not configured")
	}
}
