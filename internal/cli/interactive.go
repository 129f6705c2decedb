package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"tradecouncil/internal/config"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// runInteractive loops prompting for a symbol and date, running a full
// deliberation for each, until the user quits. Every run takes a fresh
// config snapshot, so an edit to the config file between runs applies to
// the next run without touching one in flight.
func runInteractive(ctx context.Context, mgr *config.Manager) error {
	printWelcome()
	if err := mgr.Watch(ctx, func(config.Config) {
		fmt.Printf("configuration reloaded from %s, applies to the next run\n", mgr.Path())
	}); err != nil {
		return err
	}
	for {
		symbol, err := promptForTicker()
		if err != nil {
			return err
		}
		if symbol == "" {
			fmt.Println("goodbye")
			return nil
		}
		date, err := promptForDate()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		if err := runAnalysis(ctx, &cfg, symbol, date); err != nil {
			printError(err)
		}
	}
}

func promptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Stock ticker symbol (empty to quit):",
		Help:    "E.g. AAPL, MSFT, NVDA",
	}
	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if str == "" {
			return nil
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker too long (max 10 characters)")
		}
		if !tickerRe.MatchString(str) {
			return fmt.Errorf("invalid ticker format")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

func promptForDate() (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Trade date (YYYY-MM-DD):",
		Default: time.Now().Format("2006-01-02"),
	}
	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("trade date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", dateStr)
}
