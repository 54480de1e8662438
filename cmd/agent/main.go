package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipwatch/clipwatch/internal/agent"
	"github.com/clipwatch/clipwatch/internal/classifier"
	"github.com/clipwatch/clipwatch/internal/stats"
	"github.com/clipwatch/clipwatch/internal/syncer"
	"github.com/google/uuid"
)

func main() {
	debug := os.Getenv("DEBUG") == "true"

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Stdout carries nothing but logs; the event stream arrives on stdin.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	dataDir := getEnvOrDefault("DATA_DIR", defaultDataDir())
	serverURL := getEnvOrDefault("SERVER_URL", "http://localhost:8080")
	editorVersion := os.Getenv("EDITOR_VERSION")
	userID := os.Getenv("USER_ID")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		slog.Error("Failed to create data directory", "dir", dataDir, "error", err)
		os.Exit(1)
	}

	if userID == "" {
		id, err := loadOrCreateUserID(dataDir)
		if err != nil {
			slog.Error("Failed to establish user identity", "error", err)
			os.Exit(1)
		}
		userID = id
	}

	store, err := stats.NewStore(dataDir, userID)
	if err != nil {
		slog.Error("Failed to open stats store", "error", err)
		os.Exit(1)
	}

	cfg := classifier.DefaultConfig()
	cfg.Debug = debug
	cls := classifier.New(cfg)
	defer cls.Close()

	sync := syncer.NewSyncer(syncer.NewClient(serverURL, dataDir), 30*time.Second)
	sync.Start()
	defer sync.Stop()

	session := agent.NewSession(agent.Config{
		UserID:        userID,
		EditorVersion: editorVersion,
		Debug:         debug,
	}, cls, store, sync, agent.NewCommandClipboard())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Agent started", "user_id", userID, "server", serverURL, "data_dir", dataDir)

	if err := session.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		slog.Error("Event loop failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Agent exited")
}

// loadOrCreateUserID reads the persisted identity, minting one on first run
func loadOrCreateUserID(dataDir string) (string, error) {
	path := dataDir + "/user_id"

	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return home + "/.clipwatch"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
