// Package main is the entry point for the book list API server.
// It wires together configuration, the record store, the book list
// controller and the HTTP router.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	playground "github.com/go-playground/validator/v10"

	"github.com/aoideee/bookshelf/internal/config"
	"github.com/aoideee/bookshelf/internal/controller"
	"github.com/aoideee/bookshelf/internal/data"
	"github.com/aoideee/bookshelf/internal/i18n"
)

// appVersion is the current version of the API, shown in logs.
const appVersion = "1.0.0"

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config *config.Config         // Configuration loaded from file, env and flags
	logger *slog.Logger           // Structured logger
	models data.Models            // Record store
	books  *controller.Controller // Book list controller over models.Books
	i18n   *i18n.Translator       // Localized messages for error envelopes
	inputs *playground.Validate   // Struct-tag checks on request bodies
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	// Command-line flags override file and environment settings.
	flag.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Environment, "env", cfg.Server.Environment, "Environment(development|staging|production)")
	flag.StringVar(&cfg.Store.Driver, "db-driver", cfg.Store.Driver, "Store driver (sqlite|postgres)")
	flag.StringVar(&cfg.Store.DSN, "db-dsn", cfg.Store.DSN, "Store DSN (file path for sqlite)")
	flag.Parse()

	logger := config.NewLogger(cfg.Log, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	app, err := newApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer app.models.Books.Close()

	logger.Info("book store opened", "driver", cfg.Store.Driver, "books", len(app.books.Search(context.Background(), "")))

	if err := app.serve(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// newApplication opens the store and builds every dependency the handlers use.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*applicationDependencies, error) {
	books, err := data.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}

	tr, err := i18n.New()
	if err != nil {
		books.Close()
		return nil, err
	}

	models := data.NewModels(books)
	return &applicationDependencies{
		config: cfg,
		logger: logger,
		models: models,
		books:  controller.New(logger, models.Books),
		i18n:   tr,
		inputs: newInputValidator(),
	}, nil
}
