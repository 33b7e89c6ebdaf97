package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/payland/gateway/internal/auth"
	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/config"
	"github.com/payland/gateway/internal/db"
	"github.com/payland/gateway/internal/flow"
	httphandler "github.com/payland/gateway/internal/http"
	"github.com/payland/gateway/internal/http/handlers"
	"github.com/payland/gateway/internal/notify"
	"github.com/payland/gateway/internal/repo"
	"github.com/payland/gateway/internal/session"
	"github.com/payland/gateway/internal/view"

	_ "github.com/lib/pq"
)

func main() {
	// Load .env from CWD so it works during local development (env vars override)
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// The durable session area uses Postgres when DATABASE_URL is set,
	// otherwise "remember me" sessions live in memory and die with the process.
	var durable session.Area = session.NewMemoryArea(session.DurableTTL)
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()

		if err := runMigrations(database); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		pgArea := repo.NewPgSessionArea(database, session.DurableTTL)
		startSessionPurge(pgArea)
		durable = pgArea
	}
	scoped := session.NewMemoryArea(session.ScopedTTL)
	sessions := session.NewManager(durable, scoped)

	// Upstream API client and auth plumbing
	client := backend.NewClient(cfg.UpstreamURL)
	cookies := auth.NewCookieService(cfg.SessionSecret)
	flows := flow.NewManager(client)

	// Working collections and navbar background fetchers
	contacts := view.NewContactList(client)
	users := view.NewUserList(client)
	poller := notify.NewPoller(client, cfg.PollInterval)
	poller.Start()
	defer poller.Stop()
	search := notify.NewSearchIndex(client)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(client, sessions, cookies, flows, poller, search)
	contactsHandler := handlers.NewContactsHandler(contacts)
	usersHandler := handlers.NewUsersHandler(users, client, sessions)
	dashboardHandler := handlers.NewDashboardHandler(client, poller, search)

	// Create router
	router := httphandler.NewRouter(authHandler, contactsHandler, usersHandler, dashboardHandler, cookies, sessions)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second, // export downloads can be slow
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Gateway starting on port %s (upstream %s)", cfg.Port, cfg.UpstreamURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// startSessionPurge deletes expired durable sessions hourly.
func startSessionPurge(area *repo.PgSessionArea) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := area.PurgeExpired(context.Background()); err != nil {
				log.Printf("session purge: %v", err)
			} else if n > 0 {
				log.Printf("session purge: removed %d expired sessions", n)
			}
		}
	}()
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	absDir, _ := filepath.Abs(migrationDir)
	log.Printf("Running migrations from %s", absDir)

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
