package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"billreminder/internal/storage"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().IntP("steps", "n", 1, "Number of migrations to roll back")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.RunMigrations(appConfig.SQLiteDBPath); err != nil {
			return err
		}
		return printVersion(cmd)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("steps")
		if n < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		if err := storage.MigrateDown(appConfig.SQLiteDBPath, n); err != nil {
			return err
		}
		return printVersion(cmd)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd)
	},
}

func printVersion(cmd *cobra.Command) error {
	v, dirty, err := storage.MigrationVersion(appConfig.SQLiteDBPath)
	if err != nil {
		return err
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d%s\n", v, suffix)
	return nil
}
