package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "participa/docs" // This is for Swagger
	"participa/internal/auth"
	"participa/internal/config"
	"participa/internal/database"
	"participa/internal/logger"
	"participa/internal/vault"
)

// @title Participa API
// @version 1.0
// @description Civic participation ledger: participation records, proposal votes and participatory budget allocations

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// JWTKeyField is the field of the Vault secret holding the PEM key
const JWTKeyField = "private_key"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	authService, err := loadAuthService(cfg)
	if err != nil {
		slog.Error("Failed to initialize token validation", "error", err)
		os.Exit(1)
	}

	app, err := newApplication(cfg, db.DB, db, authService)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.rateLimiter.Stop()

	app.scheduler.Start()
	defer app.scheduler.Stop()

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		os.Exit(1)
	}

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server stopped")
}

// loadAuthService builds token validation from JWT_SECRET, or from the PEM
// key stored in Vault when Vault is enabled and no secret is set
func loadAuthService(cfg *config.Config) (*auth.Service, error) {
	if !cfg.Vault.Enabled || cfg.JWT.Secret != "" {
		return auth.NewService(&cfg.JWT)
	}

	slog.Info("Vault is enabled - reading JWT key", "vault_addr", cfg.Vault.Address, "path", cfg.Vault.JWTKeyRef)
	vaultClient, err := vault.NewClient(&vault.Config{
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		KVMount: cfg.Vault.KVMount,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := vaultClient.Health(ctx); err != nil {
		return nil, err
	}
	key, err := vaultClient.GetString(ctx, cfg.Vault.JWTKeyRef, JWTKeyField)
	if err != nil {
		return nil, err
	}
	return auth.NewServiceFromPEM([]byte(key), &cfg.JWT)
}
