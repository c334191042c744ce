// Command seed replaces the configured storage contents with demo users and
// saved books.
package main

import (
	"context"
	"log"

	"github.com/patric-chuzhbe/bookbuddy/internal/app"
	"github.com/patric-chuzhbe/bookbuddy/internal/catalog"
	"github.com/patric-chuzhbe/bookbuddy/internal/config"
	"github.com/patric-chuzhbe/bookbuddy/internal/hasher"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/seed"
)

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	passwordHasher, err := hasher.New(cfg.BcryptWorkFactor)
	if err != nil {
		return err
	}

	var searcher catalog.Searcher = catalog.Stub{}
	if cfg.CatalogURL != "" {
		searcher = catalog.NewGoogleBooks(cfg.CatalogURL, cfg.CatalogAPIKey, cfg.CatalogTimeout)
	}

	summary, err := seed.New(db, passwordHasher, searcher).Run(ctx)
	if err != nil {
		return err
	}

	logger.Log.Infow(
		"database seeded",
		"users", summary.Users,
		"savedBooks", summary.SavedBooks,
		"comments", summary.Comments,
	)

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
