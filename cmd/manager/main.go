package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/wolfrage76/dusk-manager/internal/anomaly"
	"github.com/wolfrage76/dusk-manager/internal/config"
	"github.com/wolfrage76/dusk-manager/internal/dashboard"
	"github.com/wolfrage76/dusk-manager/internal/display"
	"github.com/wolfrage76/dusk-manager/internal/engine"
	"github.com/wolfrage76/dusk-manager/internal/epoch"
	"github.com/wolfrage76/dusk-manager/internal/executor"
	"github.com/wolfrage76/dusk-manager/internal/logger"
	"github.com/wolfrage76/dusk-manager/internal/market"
	"github.com/wolfrage76/dusk-manager/internal/metrics"
	"github.com/wolfrage76/dusk-manager/internal/notify"
	"github.com/wolfrage76/dusk-manager/internal/poller"
	"github.com/wolfrage76/dusk-manager/internal/recorder"
	"github.com/wolfrage76/dusk-manager/internal/state"
	"github.com/wolfrage76/dusk-manager/internal/wallet"
)

//go:embed config.example.yml
var configExample []byte

func main() {
	logger.Init()

	configFile := flag.String("config", "", "path to config file")
	dataDir := flag.String("data-dir", "", "path to data directory")
	flag.Parse()

	configPath, baseDir, err := resolveConfigPath(*configFile)
	if err != nil {
		logger.Error("INIT", "Failed to resolve config path: %v", err)
		os.Exit(1)
	}

	if err := ensureDefaultConfig(configPath, configExample); err != nil {
		logger.Error("INIT", "Failed to ensure default config: %v", err)
		os.Exit(1)
	}

	if *dataDir == "" {
		*dataDir = filepath.Join(baseDir, "data")
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Error("INIT", "Failed to create data directory: %v", err)
		os.Exit(1)
	}

	logger.Info("INIT", "Loading config from %s...", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("INIT", "Failed to load config: %v", err)
		os.Exit(1)
	}
	applyDataDirDefaults(cfg, *dataDir)

	// Only one instance may drive the wallet at a time.
	lock := flock.New(filepath.Join(*dataDir, "manager.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("INIT", "Failed to acquire instance lock: %v", err)
		os.Exit(1)
	}
	if !locked {
		logger.Error("INIT", "Another instance is already running (lock held)")
		os.Exit(1)
	}
	defer lock.Unlock()

	if err := logger.SetLogFile(cfg.Advanced.ActionLog); err != nil {
		logger.Warn("INIT", "Failed to open action log %s: %v", cfg.Advanced.ActionLog, err)
	}

	password, err := cfg.Password()
	if err != nil {
		logger.Error("INIT", "%v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display.PrintBanner(cfg)

	runner := executor.NewShell(password)
	walletClient := wallet.NewClient(runner, cfg.General.WalletCmd, cfg.General.QueryCmd, password, cfg.General.UseSudo)
	marketClient := market.NewClient(cfg.Advanced.PriceFeedURL)

	store := state.NewStore()
	detector := anomaly.NewDetector(cfg.General.MinPeers)
	notifier := notify.NewNotifier(cfg.Notifications)
	exporter := metrics.NewExporter(cfg.Advanced.MetricsPrefix)

	rec := openRecorder(cfg.Advanced.SQLitePath)
	defer rec.Close()

	dash := dashboard.NewServer(cfg.Dashboard, store)
	dash.Start(ctx)

	var wg sync.WaitGroup

	poll := poller.New(walletClient, marketClient, store, detector, notifier, exporter, dash)
	poll.Start(ctx, &wg)

	renderer := display.NewRenderer(store, cfg.StatusBar, cfg.General.EnableTmux, runner)
	renderer.Start(ctx, &wg)

	eng := engine.New(engine.SettingsFromConfig(cfg.General), walletClient, store, epoch.NewCountdown(store), notifier, rec, exporter)
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	logger.Info("SYS", "Dusk Manager started (epoch: %d blocks, buffer: %d)", epoch.Blocks, cfg.General.BufferBlocks)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("SYS", "Shutting down gracefully...")
	cancel()

	// Join all three loops. An in-flight wallet command is allowed to
	// finish its current call before its loop observes the cancel.
	wg.Wait()
	logger.Info("SYS", "Shutdown complete")
}

func resolveConfigPath(configFile string) (string, string, error) {
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return "", "", err
		}
		return abs, filepath.Dir(abs), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	baseDir := filepath.Join(home, ".dusk-manager")
	return filepath.Join(baseDir, "config.yml"), baseDir, nil
}

func ensureDefaultConfig(path string, example []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if len(example) == 0 {
		return fmt.Errorf("embedded config.example.yml is empty")
	}

	return os.WriteFile(path, example, 0o644)
}

func applyDataDirDefaults(cfg *config.Config, dataDir string) {
	if !filepath.IsAbs(cfg.Advanced.ActionLog) {
		cfg.Advanced.ActionLog = filepath.Join(dataDir, cfg.Advanced.ActionLog)
	}
	if cfg.Advanced.SQLitePath != "" && !filepath.IsAbs(cfg.Advanced.SQLitePath) {
		cfg.Advanced.SQLitePath = filepath.Join(dataDir, cfg.Advanced.SQLitePath)
	}
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		logger.Warn("INIT", "Failed to open action database: %v, continuing without it", err)
		return recorder.NewNoopRecorder()
	}
	return rec
}
