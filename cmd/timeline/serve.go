package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/api"
	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/db"
	"github.com/heimdex/heimdex-timeline/internal/drag"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/media"
	"github.com/heimdex/heimdex-timeline/internal/playback"
	"github.com/heimdex/heimdex-timeline/internal/settings"
	"github.com/heimdex/heimdex-timeline/internal/ui"
	"github.com/spf13/cobra"
)

const deviceIDKey = "device_id"

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the timeline API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	startTime := time.Now()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting heimdex timeline", "version", Version, "data_dir", cfg.DataDir(), "config", cfg.Source())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := settings.NewRepository(database.Conn())

	deviceID, err := ensureSecret(repo, deviceIDKey, 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureSecret(repo, api.AuthTokenKey, 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 HEIMDEX TIMELINE v%-24s║\n", Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	mapper := coords.NewMapper(coords.Config{
		PixelsPerSecond: cfg.PixelsPerSecond(),
		MinScale:        cfg.MinScale(),
		MaxScale:        cfg.MaxScale(),
		SnapThreshold:   cfg.SnapThreshold(),
	}, repo, logging.WithComponent(logger, "coords"))

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	view := mapper.Load(loadCtx)
	loadCancel()
	logger.Info("timeline settings loaded", "scale", view.Scale, "snap", view.SnapEnabled)

	session := api.NewSession(api.SessionConfig{
		HistorySize: cfg.HistorySize(),
		Mapper:      mapper,
		Drag: drag.Config{
			TrackSwitchThreshold: cfg.TrackSwitchThreshold(),
			EdgeThreshold:        cfg.EdgeThreshold(),
			MaxScrollSpeed:       cfg.MaxScrollSpeed(),
			AutoScroll:           true,
		},
		Logger: logger,
	})
	defer session.Close()

	var prober media.Prober
	probeCfg := media.DefaultFFprobeConfig(logging.WithComponent(logger, "ffprobe"))
	probeCfg.Binary = cfg.FFprobePath()
	probeCfg.Timeout = cfg.ProbeTimeout()
	if ff, err := media.NewFFprobe(probeCfg); err != nil {
		logger.Warn("ffprobe unavailable, media metadata disabled", "error", err)
		prober = media.NewStubProber(logger)
	} else {
		prober = ff
	}
	metadata := media.NewCache(prober, cfg.MetadataCacheTTL(), logging.WithComponent(logger, "media"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Session:   session,
		Settings:  repo,
		Metadata:  metadata,
		Sources:   playback.NewServer(logging.WithComponent(logger, "playback")),
		Logger:    logger,
		StartTime: startTime,
		DeviceID:  deviceID,
		Version:   Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	var tray *ui.Tray
	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Session: session,
			Logger:  logger,
			OnQuit:  quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	if tray != nil {
		tray.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureSecret returns the stored value for key, generating and storing a
// random hex string of n bytes on first use.
func ensureSecret(repo settings.Repository, key string, n int) (string, error) {
	ctx := context.Background()

	existing, err := repo.Get(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.Set(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
