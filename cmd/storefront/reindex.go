package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func reindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the product search index from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Read()
			pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
			if !cfg.SearchEnabled() {
				return errors.New("ES_URL is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
			cancel()
			if err != nil {
				return fmt.Errorf("db open: %w", err)
			}
			defer pkgdb.Close(db)

			es, err := search.NewElastic(cfg.Search)
			if err != nil {
				return err
			}

			r := &repo.GormRepo{DB: db}
			svc := &service.CatalogService{
				Repo:     r,
				Settings: &service.SettingsService{Repo: r},
				Index:    es,
			}

			logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "cmd", "reindex")
			n, err := svc.Reindex(logging.IntoContext(cmd.Context(), logger))
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Printf("indexed %d products\n", n)
			return nil
		},
	}
}
