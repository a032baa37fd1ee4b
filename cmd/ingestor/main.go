package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/engage-protocol/ep-indexer/internal/adapter"
	"github.com/engage-protocol/ep-indexer/internal/chain"
	"github.com/engage-protocol/ep-indexer/internal/config"
	"github.com/engage-protocol/ep-indexer/internal/consumer"
	"github.com/engage-protocol/ep-indexer/internal/ingest"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

func main() {
	var configFile string
	var envPath string
	flag.StringVar(&configFile, "c", "", "path to config file")
	flag.StringVar(&envPath, "e", "", "path to env directory")
	flag.Parse()

	cfg, err := config.LoadIngestorConfig(configFile, envPath)
	if err != nil {
		panic(err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "ingestor"},
	}); err != nil {
		panic(err)
	}
	defer logger.Flush(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	pgStore := store.NewPGStore(db)
	if err := pgStore.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.Fatal("failed to dial rpc endpoint", zap.Error(err))
	}
	reader := chain.NewEthReader(ethClient, cfg.Ethereum.MulticallAddress)
	defer reader.Close()

	engine := ingest.NewEngine(pgStore, reader)

	natsConn, js, err := adapter.NewNatsJetStream().Connect(cfg.NATS.URL,
		nats.Name(cfg.NATS.ConnectionName),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		logger.Fatal("failed to connect to nats", zap.Error(err))
	}
	defer natsConn.Close()

	cons := consumer.New(js, adapter.NewJSON(), engine, cfg.NATS)
	consumeCtx, err := cons.Start(ctx)
	if err != nil {
		logger.Fatal("failed to start consumer", zap.Error(err))
	}

	pruner := ingest.NewPruner(pgStore, adapter.NewClock(), cfg.Maintenance)
	go pruner.Run(ctx)

	logger.Info("ingestor started",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName),
		zap.String("chain", string(cfg.Ethereum.ChainID)))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down ingestor")
	cancel()
	consumeCtx.Drain()
	<-consumeCtx.Closed()
}

func openDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return db, nil
}
