package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipforge/clipforge-server/internal/api"
	"github.com/clipforge/clipforge-server/internal/assets"
	"github.com/clipforge/clipforge-server/internal/config"
	"github.com/clipforge/clipforge-server/internal/db"
	"github.com/clipforge/clipforge-server/internal/editor"
	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/logging"
	"github.com/clipforge/clipforge-server/internal/playback"
	"github.com/clipforge/clipforge-server/internal/project"
	"github.com/clipforge/clipforge-server/internal/render"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipforge server", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 CLIPFORGE SERVER v%-8s                ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	var executor export.Executor
	var prober render.Prober

	ffmpeg, err := render.NewFFmpeg(render.Config{
		FFmpegPath:  cfg.FFmpegPath(),
		FFprobePath: cfg.FFprobePath(),
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("ffmpeg unavailable, exports will produce placeholder output", "error", err)
		stub := render.NewStub(logger)
		executor = stub
		prober = stub
	} else {
		executor = ffmpeg
		prober = ffmpeg
	}

	store, err := assets.NewStore(cfg.UploadsDir(), prober, cfg.ProbeTimeout(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize asset store: %w", err)
	}

	sessions := editor.NewManager(repo, cfg.AutosaveWindow(), &editor.RealClock{}, logger)
	planner := export.NewPlanner(store, executor, cfg.ExportTimeout(), logger)
	streamer := playback.NewStreamer(store, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Repo:      repo,
		Sessions:  sessions,
		Assets:    store,
		Planner:   planner,
		Streamer:  streamer,
		Logger:    logger,
		StartTime: startTime,
		Version:   config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		close(quitCh)
	}()

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	// Flush any debounced timeline edits before the database closes.
	sessions.CloseAll(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
