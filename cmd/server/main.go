package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
	_ "github.com/JonMunkholm/rollcall/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/metrics"
	"github.com/JonMunkholm/rollcall/internal/store"
	"github.com/JonMunkholm/rollcall/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"export_schedule", cfg.Export.Schedule,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	m := metrics.New()
	sessions := core.NewSessionStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
	service := core.NewService(st, sessions, core.ServiceConfig{
		FetchTimeout:         cfg.Database.FetchTimeout,
		Metrics:              m,
		MaxConcurrentExports: cfg.Export.MaxConcurrent,
		ExportWait:           cfg.Export.Wait,
	})

	slog.Info("tables registered",
		"count", core.TableCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("table group", "group", group, "tables", len(core.ByGroup(group)))
	}

	server := web.NewServer(service, cfg, m)

	var scheduler *core.ExportScheduler
	if cfg.Export.Schedule != "" {
		scheduler = core.NewExportScheduler(service, core.FileSink{Dir: cfg.Export.Dir}, cfg.Export.Tables)
		if err := scheduler.Start(cfg.Export.Schedule); err != nil {
			slog.Error("failed to start export scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				slog.Warn("scheduled export cut short at shutdown", "error", err)
			}
		}
		if err := service.DrainExports(shutdownCtx); err != nil {
			slog.Warn("exports still running at shutdown", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
