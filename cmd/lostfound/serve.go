package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lostfound/registry/internal/api"
)

// apiPrefix is where the item API is mounted.
const apiPrefix = "/api/items"

type serveCommand struct {
	options *Options
}

func (c *serveCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ensureAdmin(context.Background(), a); err != nil {
		slog.Error("failed to create admin account", "error", err)
		return err
	}

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           newHandler(a),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", a.cfg.Server.Addr, "media", a.cfg.Media.Root)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newHandler mounts the item API and the photo store.
func newHandler(a *app) http.Handler {
	apiRouter := api.NewRouter(a.svc, api.Options{
		MediaURL:       a.cfg.Media.URL,
		BaseURL:        a.cfg.Server.BaseURL,
		MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
	})
	mediaPrefix := strings.TrimSuffix(a.cfg.Media.URL, "/")

	mux := http.NewServeMux()
	mux.Handle(apiPrefix+"/", http.StripPrefix(apiPrefix, apiRouter))
	mux.Handle(mediaPrefix+"/", http.StripPrefix(mediaPrefix, api.NewMediaRouter(a.blobs)))

	return api.LoggingMiddleware(mux)
}

// ensureAdmin creates the configured admin account if it does not exist
// yet and prints its generated password once.
func ensureAdmin(ctx context.Context, a *app) error {
	username := a.cfg.Admin.Username
	existing, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	password, err := createStaffUser(ctx, a, username, "")
	if err != nil {
		return err
	}

	slog.Info("admin account created", "user", username)
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println()
	return nil
}
