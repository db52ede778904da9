package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/schedulefa/fareport/internal/config"
	"github.com/schedulefa/fareport/internal/database"
	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/export"
	"github.com/schedulefa/fareport/internal/external"
	"github.com/schedulefa/fareport/internal/fx"
	"github.com/schedulefa/fareport/internal/ledger"
	"github.com/schedulefa/fareport/internal/store"
	"github.com/schedulefa/fareport/internal/valuation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "fareport",
		Usage: "year-by-year foreign stock valuation and capital gains reports",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "run the simulation over a ledger directory and export reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ledger-dir",
						Usage:    "directory of account and transaction CSV files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "path of the XLSX workbook to write",
						Value: "schedule_fa.xlsx",
					},
					&cli.IntFlag{
						Name:  "final-year",
						Usage: "last calendar year to simulate (default: current year)",
					},
				},
				Action: func(c *cli.Context) error {
					return generate(c.Context, c.String("ledger-dir"), c.String("output"), c.Int("final-year"))
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, ledgerDir, output string, finalYear int) error {
	cfg := config.Load()

	led, err := ledger.LoadDir(ledgerDir)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	slog.Info("ledger loaded", "accounts", len(led.Accounts), "transactions", len(led.Transactions))

	lowerBound, err := dates.Parse(cfg.RatesLowerBound)
	if err != nil {
		return fmt.Errorf("parsing RATES_LOWER_BOUND: %w", err)
	}

	ratesClient := external.NewRatesClient(cfg.RatesURL, cfg.HTTPRetryBaseDelay, cfg.HTTPRetryMax)
	samples, err := ratesClient.FetchSamples(ctx)
	if err != nil {
		return fmt.Errorf("fetching reference rates: %w", err)
	}
	rates, err := fx.NewTable(samples, lowerBound)
	if err != nil {
		return fmt.Errorf("building rate table: %w", err)
	}
	slog.Info("rate table ready", "samples", len(samples))

	chart := external.NewChartClient(cfg.ChartURL, cfg.HTTPRetryBaseDelay, cfg.HTTPRetryMax)

	sim := valuation.New(rates, chart, led.Transactions)
	sim.PrefetchWorkers = cfg.PrefetchWorkers
	if finalYear > 0 {
		sim.FinalYear = finalYear
	}

	var runRepo store.Repository
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.Migrate(ctx, pool, migrationsSub); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		barRepo := external.NewPgBarRepository(pool)
		sim = valuation.New(rates, external.NewCachingBarProvider(chart, barRepo), led.Transactions)
		sim.PrefetchWorkers = cfg.PrefetchWorkers
		if finalYear > 0 {
			sim.FinalYear = finalYear
		}
		runRepo = store.NewPgRepository(pool)
	}

	run, err := sim.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating reports: %w", err)
	}

	xlsx := export.NewXLSXWriter(output)
	if err := xlsx.Write(ctx, run); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	slog.Info("workbook written", "path", output)

	if cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentials != "" {
		sheets, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		if err := sheets.Write(ctx, run); err != nil {
			return fmt.Errorf("writing spreadsheet: %w", err)
		}
		slog.Info("spreadsheet updated", "spreadsheet", cfg.SheetsSpreadsheetID)
	}

	if runRepo != nil {
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("encoding run: %w", err)
		}
		if err := runRepo.Save(ctx, time.Now().UTC(), data); err != nil {
			return fmt.Errorf("persisting run: %w", err)
		}
		slog.Info("run persisted")
	}

	return nil
}
