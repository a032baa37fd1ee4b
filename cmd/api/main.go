package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/engage-protocol/ep-indexer/internal/api"
	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

func main() {
	var configFile string
	var envPath string
	flag.StringVar(&configFile, "c", "", "path to config file")
	flag.StringVar(&envPath, "e", "", "path to env directory")
	flag.Parse()

	cfg, err := config.LoadAPIConfig(configFile, envPath)
	if err != nil {
		panic(err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "api"},
	}); err != nil {
		panic(err)
	}
	defer logger.Flush(2 * time.Second)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	server := api.NewServer(store.NewPGStore(db), cfg)

	go func() {
		logger.Info("api server started",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}
}
