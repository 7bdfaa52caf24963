package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-cluster-service/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/quake-cluster-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-cluster-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-cluster-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-cluster-service/internal/config"
	"github.com/couchcryptid/quake-cluster-service/internal/domain"
	"github.com/couchcryptid/quake-cluster-service/internal/observability"
	"github.com/couchcryptid/quake-cluster-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := catalog.NewStore(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to open catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	fetcher := usgs.NewClient(cfg, metrics, logger)
	syncer := pipeline.NewSynchronizer(store, logger)

	// Announcements are feature-flagged via KAFKA_ENABLED.
	var announcer pipeline.ChangeAnnouncer
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		announcer = writer
		logger.Info("kafka announcements enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka announcements disabled")
	}

	p := pipeline.New(fetcher, syncer, announcer, logger, metrics, clockwork.NewRealClock(), pipeline.Params{
		Cluster: domain.ClusterParams{
			MaxDistanceKm: cfg.MaxDistanceKm,
			MinMembers:    cfg.MinMembers,
		},
		Quantization: domain.Quantization{
			TimeBucket:  time.Duration(cfg.TimeBucketHours) * time.Hour,
			GeoDecimals: cfg.GeoBucketDecimalPlaces,
		},
		MinSignificantMagnitude: cfg.MinSignificantMagnitude,
		Interval:                cfg.RunInterval,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start clustering pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("catalog close error", "error", err)
	}

	logger.Info("shutdown complete")
}
