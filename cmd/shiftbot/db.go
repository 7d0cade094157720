package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goodjobs/shiftbot/internal/config"
	"github.com/goodjobs/shiftbot/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database",
		Long:  "Migrates all tables and seeds the bootstrap management account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.DB.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedAdmin(gormDB, cfg.Admin); err != nil {
		return err
	}
	if cfg.Admin.Password != "" {
		fmt.Fprintf(out, "Management account %q ready\n", cfg.Admin.Username)
	}

	fmt.Fprintln(out, "\nDatabase initialized successfully.")
	return nil
}
