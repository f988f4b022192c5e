package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/telistry/switchboard/dialog"
	"github.com/telistry/switchboard/gateway"
	"github.com/telistry/switchboard/observability"
)

// fileConfig is the on-disk config layout: the dialog config at the top
// level, the gateway section under "gateway".
type fileConfig struct {
	dialog.Config
	Gateway gateway.Config `json:"gateway"`
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to service config JSON file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		sessionDB  = flag.String("session-db", "", "Path to session SQLite database; empty keeps sessions in memory (overrides config)")
		memoryDB   = flag.String("memory-db", "", "Path to caller memory SQLite database; empty disables memory (overrides config)")
		toolsFile  = flag.String("tools", "", "Path to tool definitions JSON file (overrides config)")
		maxTurns   = flag.Int("max-turns", 0, "Maximum conversation turns per call (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg, gatewayCfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *addr != "" {
		gatewayCfg.Addr = *addr
	}
	if *sessionDB != "" {
		cfg.Session.Path = *sessionDB
	}
	if *memoryDB != "" {
		cfg.Memory.Path = *memoryDB
	}
	if *toolsFile != "" {
		cfg.ToolsPath = *toolsFile
	}
	if *maxTurns > 0 {
		cfg.MaxTurns = *maxTurns
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	observer := observability.NewSlogObserver(logger)

	svc, err := dialog.New(cfg, dialog.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create dialog service: %v", err)
	}

	server := gateway.NewServer(svc, gatewayCfg, observer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	logger.Info("switchboard listening", "addr", gatewayCfg.Addr)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	case <-ctx.Done():
	}
	// Restore default signal handling so a second signal kills the process.
	stop()

	logger.Info("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if err := svc.Close(); err != nil {
		logger.Error("close failed", "error", err)
	}
}

// loadConfig reads the service config file, merging it over defaults. An
// empty filename selects pure defaults.
func loadConfig(filename string) (*dialog.Config, gateway.Config, error) {
	cfg := dialog.DefaultConfig()
	gatewayCfg := gateway.DefaultConfig()
	if filename == "" {
		return &cfg, gatewayCfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, gatewayCfg, fmt.Errorf("failed to read config file: %w", err)
	}
	var loaded fileConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, gatewayCfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded.Config)
	gatewayCfg.Merge(&loaded.Gateway)
	return &cfg, gatewayCfg, nil
}
