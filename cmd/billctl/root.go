package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"billreminder/internal/backend"
	"billreminder/internal/cli"
	"billreminder/internal/config"
	"billreminder/internal/core"
	"billreminder/internal/log"
	"billreminder/internal/services"
)

var (
	appConfig *config.Config
	logger    *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "billctl",
	Short:         "Administer the bill reminder service",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		if db, _ := cmd.Flags().GetString("db"); db != "" {
			cfg.SQLiteDBPath = db
			cfg.DataBackend = string(backend.SQLiteBackend)
		}
		appConfig = cfg
		logger = cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
}

// openService builds a bill service over the configured storage without
// caching or notifications.
func openService(ctx context.Context) (*services.BillService, error) {
	bcfg, err := backend.FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	bcfg.CacheSize = 0

	store, err := backend.NewFactory(logger, nil, nil).CreateStorage(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	return services.NewBillService(store.Repository, nil, logger), nil
}

// today is the current date in the configured time zone.
func today() core.Date {
	return core.DateOf(time.Now().In(appConfig.Location()))
}

// rangeFlags reads --from and --to, defaulting to the last month.
func rangeFlags(cmd *cobra.Command) (core.DateRange, error) {
	rng := core.DefaultReportRange(today())
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("--from: %w", err)
		}
		rng.From = d
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("--to: %w", err)
		}
		rng.To = d
	}
	return rng, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
