// leumi logs in to Bank Leumi business web banking and prints every
// account's transactions since the configured start date.
//
// Usage:
//
//	LEUMI_USERNAME=... LEUMI_PASSWORD=... go run ./cmd/leumi
//	go run ./cmd/leumi -json
//	go run ./cmd/leumi -json -normalized
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/acounter/leumi-scraper/internal/config"
	"github.com/acounter/leumi-scraper/internal/logger"
	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/acounter/leumi-scraper/internal/scraper/bank/leumi"
	"github.com/acounter/leumi-scraper/internal/scraper/browser"
)

func main() {
	jsonOut := flag.Bool("json", false, "Print accounts as JSON instead of a summary table")
	normalized := flag.Bool("normalized", false, "With -json, print the cross-bank transaction shape")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, *jsonOut, *normalized); err != nil {
		fmt.Fprintf(os.Stderr, "leumi: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, jsonOut, normalized bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Debug)
	defer func() { _ = log.Sync() }()

	creds := cfg.Credentials()
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w (set LEUMI_USERNAME and LEUMI_PASSWORD)", err)
	}

	opts, err := cfg.ScraperOptions()
	if err != nil {
		return err
	}
	opts = append(opts, leumi.WithLogger(log))

	launchOpts := cfg.LaunchOptions()
	b, err := browser.Launch(launchOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close browser", zap.Error(err))
		}
	}()

	rp, err := browser.OpenPage(b, launchOpts)
	if err != nil {
		return err
	}
	page := browser.NewPage(rp,
		browser.WithHumanTyping(cfg.Browser.HumanTyping),
		browser.WithLogger(log),
	)

	scraper, err := leumi.Open(ctx, page, creds, opts...)
	if err != nil {
		_ = page.Close()
		return err
	}
	defer func() { _ = scraper.Release() }()

	accounts, err := scraper.FetchTransactions(ctx)
	var partial *bank.AccountErrors
	switch {
	case errors.As(err, &partial):
		log.Warn("some accounts failed", zap.Int("failed", len(partial.Failures)), zap.Error(err))
	case err != nil:
		return err
	}

	if !jsonOut {
		writeSummary(out, accounts)
		return nil
	}
	if normalized {
		return writeJSON(out, leumi.NormalizeAll(accounts))
	}
	return writeJSON(out, accounts)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSummary prints one row per account.
func writeSummary(w io.Writer, accounts []leumi.AccountData) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Account", "Balance", "Pending", "Completed", "Latest"})

	for _, acc := range accounts {
		balance := "N/A"
		if acc.Balance != nil {
			balance = acc.Balance.StringFixed(2)
		}

		var pending, completed int
		latest := "-"
		for _, txn := range acc.Transactions {
			if txn.Status == bank.StatusPending {
				pending++
			} else {
				completed++
			}
			if d := txn.Date.Format("2006-01-02"); latest == "-" || d > latest {
				latest = d
			}
		}

		table.Append([]string{
			acc.AccountNumber,
			balance,
			fmt.Sprint(pending),
			fmt.Sprint(completed),
			latest,
		})
	}

	table.Render()
}
