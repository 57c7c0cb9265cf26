package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stagegate/internal/catalog"
	"stagegate/internal/config"
	"stagegate/internal/daemon"
	"stagegate/internal/loan"
	"stagegate/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Deployment overrides (STAGEGATE_CONFIG, STAGEGATE_API_TOKEN) may live in
	// a local .env file.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load(os.Getenv("STAGEGATE_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.LogFilePath(),
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := loan.Open(cfg)
	if err != nil {
		logger.Error("open loan store", logging.Error(err))
		os.Exit(1)
	}

	c, err := catalog.Resolve(cfg.Catalog.File)
	if err != nil {
		logger.Error("load stage catalog", logging.Error(err))
		_ = store.Close()
		os.Exit(1)
	}

	d, err := daemon.New(cfg, store, c, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("stagegated shutting down")
}
