package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/JonMunkholm/registrar/internal/database"
	"github.com/JonMunkholm/registrar/internal/filestore"
	"github.com/JonMunkholm/registrar/internal/metrics"
	"github.com/JonMunkholm/registrar/internal/web"
	"github.com/spf13/cobra"
)

const poolStatsInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"storage_backend", cfg.Storage.Backend,
		"register_max_files", cfg.Register.MaxFiles,
		"register_max_concurrent", cfg.Register.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database.URL); err != nil {
			return err
		}
		slog.Info("database schema up to date")
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	repo, err := database.NewRepository(pool)
	if err != nil {
		return err
	}

	store, err := filestore.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}

	service, err := core.NewService(repo, store, cfg.Register)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	metrics.Init(Version, cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go metrics.NewDBCollector(pool).Run(ctx, poolStatsInterval)

	server := web.NewServer(service, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Wait for active registrations so their files and rows stay consistent
	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for registrations to complete", "active", status.Active)
		if err := service.WaitForRegistrations(shutdownCtx); err != nil {
			slog.Warn("registrations did not complete in time", "error", err)
		} else {
			slog.Info("all registrations completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
