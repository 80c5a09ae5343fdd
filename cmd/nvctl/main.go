package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/novelverse/cmd/nvctl/ui"
	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/config"
	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/migrate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "nvctl",
		Short:        "NovelVerse maintenance tool",
		Long:         "Apply database migrations and purge expired sessions and verification codes.",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  withMigrator(func(ctx context.Context, m *migrate.Migrator) error { return m.Up(ctx) }, "Migrations applied"),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE:  withMigrator(func(ctx context.Context, m *migrate.Migrator) error { return m.Down(ctx) }, "Rolled back one migration"),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE:  withMigrator(runStatus, ""),
		},
	)

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions and verification codes",
		RunE:  runPurge,
	}
	purgeCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	rootCmd.AddCommand(migrateCmd, purgeCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// openDB connects to Postgres using the database settings alone
func openDB(ctx context.Context) (*sql.DB, error) {
	dbCfg := config.LoadDatabase()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.OpenSQL(ctx, dbCfg.ConnectionString())
}

func withMigrator(fn func(context.Context, *migrate.Migrator) error, done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sqlDB, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		m, err := migrate.NewMigrator(sqlDB)
		if err != nil {
			return err
		}

		if err := fn(ctx, m); err != nil {
			return err
		}
		if done != "" {
			ui.PrintSuccess(done)
		}
		return nil
	}
}

func runStatus(ctx context.Context, m *migrate.Migrator) error {
	if err := m.Status(ctx); err != nil {
		return err
	}

	current, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	latest, err := migrate.LatestVersion()
	if err != nil {
		return err
	}

	fmt.Println()
	ui.PrintTitle("Schema")
	ui.PrintField("Current version", current)
	ui.PrintField("Latest version", latest)
	if current < latest {
		ui.PrintHint("Run `nvctl migrate up` to apply pending migrations.")
	}
	return nil
}

func runPurge(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes {
		ok, err := ui.Confirm("Purge expired rows?", "Expired sessions and verification codes will be deleted.")
		if err != nil {
			return err
		}
		if !ok {
			ui.PrintHint("Aborted.")
			return nil
		}
	}

	ctx := cmd.Context()
	sqlDB, err := openDB(ctx)
	if err != nil {
		return err
	}
	db := database.NewBunDB(sqlDB)
	defer db.Close()

	res, err := purgeExpired(ctx,
		auth.NewSessionManager(auth.NewSessionStore(db), false),
		auth.NewVerifier(auth.NewVerificationStore(db), nil),
	)
	if err != nil {
		return err
	}

	ui.PrintTitle("Purge")
	ui.PrintField("Sessions deleted", res.sessions)
	ui.PrintField("Codes deleted", res.codes)
	ui.PrintSuccess("Done")
	return nil
}

// expiredPurger deletes rows that can no longer be used
type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type purgeResult struct {
	sessions int64
	codes    int64
}

func purgeExpired(ctx context.Context, sessions, codes expiredPurger) (purgeResult, error) {
	var res purgeResult
	var err error

	if res.sessions, err = sessions.PurgeExpired(ctx); err != nil {
		return res, fmt.Errorf("failed to purge sessions: %w", err)
	}
	if res.codes, err = codes.PurgeExpired(ctx); err != nil {
		return res, fmt.Errorf("failed to purge verification codes: %w", err)
	}

	return res, nil
}
