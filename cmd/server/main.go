package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/townhall-labs/community-ledger/internal/config"
	"github.com/townhall-labs/community-ledger/internal/engine"
	"github.com/townhall-labs/community-ledger/internal/events/kafka"
	"github.com/townhall-labs/community-ledger/internal/interfaces"
	"github.com/townhall-labs/community-ledger/internal/ledger"
	"github.com/townhall-labs/community-ledger/internal/storage/file"
	"github.com/townhall-labs/community-ledger/internal/storage/postgres"
	"github.com/townhall-labs/community-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if err := logger.Initialize(); err != nil {
		log.Fatalf("error starting logger: %v", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("error opening store", logger.Error(err))
	}
	defer closeStore()

	accounts, err := ledger.NewAccountLedger(store)
	if err != nil {
		logger.Log.Fatal("error loading account ledger", logger.Error(err))
	}
	businesses, err := ledger.NewBusinessRegistry(store)
	if err != nil {
		logger.Log.Fatal("error loading business registry", logger.Error(err))
	}
	reserve, err := ledger.NewBankReserve(store)
	if err != nil {
		logger.Log.Fatal("error loading bank reserve", logger.Error(err))
	}
	settings, err := ledger.NewSettings(store)
	if err != nil {
		logger.Log.Fatal("error loading settings", logger.Error(err))
	}

	var publisher interfaces.EventPublisher = logPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	}

	eng := engine.New(accounts, businesses, reserve, settings,
		ledger.NewLockTable(cfg.LockWait), publisher)

	a := &api{engine: eng, staffToken: cfg.StaffToken}
	server := &http.Server{Addr: cfg.Addr, Handler: a.router()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("starting server", logger.String("address", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server error", logger.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("error shutting down server", logger.Error(err))
	}
	logger.Log.Info("shutdown complete")
}

func openStore(cfg *config.Config) (interfaces.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		s, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Log.Error("error closing database", logger.Error(err))
			}
		}, nil
	}
	s, err := file.New(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// logPublisher stands in for Kafka when no broker is configured; events land in
// the server log instead of a topic.
type logPublisher struct{}

func (logPublisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.Log.Info("event",
		logger.String("topic", topic), logger.String("payload", string(data)))
	return nil
}
