package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RiceCakess/holoclips/internal/cache"
	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/handler"
	"github.com/RiceCakess/holoclips/internal/history"
	"github.com/RiceCakess/holoclips/internal/hub"
	"github.com/RiceCakess/holoclips/internal/kafka"
	"github.com/RiceCakess/holoclips/internal/persist"
	"github.com/RiceCakess/holoclips/internal/registry"
	"github.com/RiceCakess/holoclips/internal/repository"
	"github.com/RiceCakess/holoclips/internal/service"
	"github.com/RiceCakess/holoclips/pkg/log"
)

func main() {
	root := &cobra.Command{
		Use:   "holoclips",
		Short: "Live translation relay and persistence for stream transcripts",
	}

	root.AddCommand(relayCommand(), persistCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func relayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Serve websocket rooms and the history API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay()
		},
	}
}

func persistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "persist",
		Short: "Drain the entry topic into the durable store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPersist()
		},
	}
}

func runRelay() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "relay"})
	l := log.L()

	repo, err := repository.NewCassandraMessageRepository(cfg.Cassandra)
	if err != nil {
		return fmt.Errorf("failed to connect to cassandra: %w", err)
	}
	defer repo.Close()

	pageCache, err := cache.NewRedisPageCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis cache: %w", err)
	}
	defer pageCache.Close()

	reg, err := registry.NewRedisRegistry(cfg.Redis, uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to connect to redis registry: %w", err)
	}
	defer reg.Close()
	reg.StartHeartbeat()
	defer reg.StopHeartbeat()

	producer, err := kafka.NewConfluentProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	h := hub.NewHub(cfg.WebSocket)
	go h.Run()

	hist := history.NewService(repo, pageCache, cfg.History)
	svc := service.NewTLService(h, hist, producer, reg)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	handler.NewWSHandler(h, svc, cfg.WebSocket).RegisterRoutes(engine)
	handler.NewHTTPHandler(hist).RegisterRoutes(engine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", addr).Msg("relay listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server shutdown incomplete")
	}

	return nil
}

func runPersist() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "persist"})
	l := log.L()

	repo, err := repository.NewCassandraMessageRepository(cfg.Cassandra)
	if err != nil {
		return fmt.Errorf("failed to connect to cassandra: %w", err)
	}
	defer repo.Close()

	consumer, err := persist.NewConsumer(cfg.Kafka, repo)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil {
		return err
	}

	l.Info().Msg("persist worker stopped")
	return nil
}
