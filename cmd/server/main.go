package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tutorlab/liveboard/internal/server/handlers"
	"github.com/tutorlab/liveboard/internal/server/hub"
	"github.com/tutorlab/liveboard/internal/server/middleware"
	"github.com/tutorlab/liveboard/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	shutdownTimeout = 10 * time.Second

	// uploadRateLimit лимит запросов загрузки изображений на IP в минуту
	uploadRateLimit = 30
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "liveboard.db", "Path to SQLite database")
	uploadDir := flag.String("upload-dir", "uploads", "Directory for uploaded images")
	baseURL := flag.String("base-url", "/uploads", "Public URL prefix for uploaded images")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := run(logger, *addr, *dbPath, *uploadDir, *baseURL); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath, uploadDir, baseURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	sessionHub := hub.New(logger, store)

	wsHandler := handlers.NewWSHandler(logger, sessionHub)
	uploadHandler := handlers.NewUploadHandler(logger, uploadDir, baseURL)
	healthHandler := handlers.NewHealthHandler(logger, store, Version)

	uploadLimiter := middleware.RateLimitMiddleware(uploadRateLimit, time.Minute, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/api/v1/upload", uploadLimiter(http.HandlerFunc(uploadHandler.HandleUpload)))
	mux.HandleFunc("/api/v1/health", healthHandler.Health)
	mux.Handle("/uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(uploadDir))))

	// Websocket не логируем: hijacked-соединение живет часами
	// и ломает подсчет статуса ответа
	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingWithSkip(logger, []string{"/ws", "/api/v1/health"})(mux))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"addr", addr,
			"version", Version,
			"db", dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Liveboard Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
