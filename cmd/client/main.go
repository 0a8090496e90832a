package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/tutorlab/liveboard/internal/board"
	"github.com/tutorlab/liveboard/internal/client/cli"
	"github.com/tutorlab/liveboard/internal/client/iocli"
	"github.com/tutorlab/liveboard/internal/client/session"
	"github.com/tutorlab/liveboard/internal/client/storage/boltdb"
	"github.com/tutorlab/liveboard/internal/client/upload"
	"github.com/tutorlab/liveboard/internal/client/ws"
	"github.com/tutorlab/liveboard/internal/validation"
	"github.com/tutorlab/liveboard/internal/viewport"
	"github.com/tutorlab/liveboard/pkg/api"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	sessionID := flag.String("session", "", "Lesson session ID")
	roleFlag := flag.String("role", "viewer", "Participant role: author or viewer")
	dbPath := flag.String("db", "liveboard-client.db", "Path to local database")
	width := flag.Float64("width", 1920, "Device canvas width in pixels")
	height := flag.Float64("height", 1080, "Device canvas height in pixels")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := validation.ValidateSessionID(*sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --session: %v\n\n", err)
		cli.PrintUsage()
		os.Exit(1)
	}

	var role ws.Role
	switch *roleFlag {
	case "author":
		role = ws.RoleAuthor
	case "viewer":
		role = ws.RoleViewer
	default:
		fmt.Fprintf(os.Stderr, "Invalid --role: must be author or viewer\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := run(logger, *serverURL, *sessionID, *dbPath, role, *width, *height); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, serverURL, sessionID, dbPath string, role ws.Role, width, height float64) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boltStorage, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	b := board.New()
	vp := viewport.New(width, height)
	stdio := iocli.NewStdio()

	var svc *session.Service

	channel, err := ws.New(logger, ws.Config{
		ServerURL: serverURL,
		SessionID: sessionID,
		ClientID:  uuid.NewString(),
		Role:      role,
		OnMessage: func(msg api.Message) {
			svc.HandleMessage(ctx, msg)
		},
		OnState: func(s ws.State) {
			stdio.Printf("\n[connection: %s]\n", s)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create sync channel: %w", err)
	}

	svc = session.NewService(logger, session.Config{
		SessionID: sessionID,
		Role:      role,
		Board:     b,
		Channel:   channel,
		Storage:   boltStorage,
		OnSessionEnd: func() {
			stdio.Println("\n[session ended by the author]")
		},
	})

	// Локальное состояние доски переживает перезапуск клиента
	if err := svc.Restore(ctx); err != nil {
		logger.Warn("failed to restore board state", "error", err)
	}

	go channel.Run(ctx)
	defer channel.Close()

	console := cli.New(stdio, svc, b, vp, channel, upload.NewClient(serverURL), role)
	return console.Run(ctx)
}

func printVersion() {
	fmt.Printf("Liveboard Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
