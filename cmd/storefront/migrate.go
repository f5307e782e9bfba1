package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/repo"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pkgconfig.Load()
			pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
			cancel()
			if err != nil {
				return fmt.Errorf("db open: %w", err)
			}
			defer pkgdb.Close(db)

			if err := repo.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}
