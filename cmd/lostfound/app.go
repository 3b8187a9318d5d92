package main

import (
	"fmt"
	"log/slog"

	"github.com/lostfound/registry/internal/config"
	"github.com/lostfound/registry/internal/db"
	"github.com/lostfound/registry/internal/lostfound"
	"github.com/lostfound/registry/internal/media"
	"github.com/lostfound/registry/internal/store"
)

// app bundles everything a command needs.
type app struct {
	cfg    *config.Config
	db     *db.DB
	users  *store.Users
	tokens *store.Tokens
	items  *store.Items
	blobs  *media.Store
	svc    *lostfound.Service

	closeLog func()
}

// openApp loads configuration, sets up logging and opens the database with
// its schema in place.
func openApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		closeLog()
		return nil, err
	}

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		closeLog()
		return nil, err
	}

	slog.Info("database ready", "driver", cfg.Database.Driver)

	a := &app{
		cfg:      cfg,
		db:       database,
		users:    &store.Users{DB: database},
		tokens:   &store.Tokens{DB: database},
		items:    &store.Items{DB: database},
		blobs:    media.New(cfg.Media.Root),
		closeLog: closeLog,
	}
	a.svc = lostfound.New(lostfound.Params{
		Users:    a.users,
		Tokens:   a.tokens,
		Items:    a.items,
		Blobs:    a.blobs,
		PageSize: cfg.Server.PageSize,
		Logger:   slog.Default(),
	})
	return a, nil
}

func (a *app) Close() {
	a.db.Close()
	a.closeLog()
}
