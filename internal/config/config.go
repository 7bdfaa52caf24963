package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Default USGS rolling-window feed. Operators point FEED_URL at whichever
// window they schedule against (all_hour, all_day, all_week).
const defaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL     string
	FeedWindow  time.Duration
	FeedTimeout time.Duration
	RunInterval time.Duration

	// Clustering and identity knobs.
	MaxDistanceKm           float64
	MinMembers              int
	MinSignificantMagnitude float64
	TimeBucketHours         int
	GeoBucketDecimalPlaces  int

	CatalogPath string

	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := durationEnv("FEED_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	feedWindow, err := durationEnv("FEED_WINDOW", 72*time.Hour)
	if err != nil {
		return nil, err
	}
	runInterval, err := durationEnv("RUN_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	maxDistanceKm, err := floatEnv("MAX_DISTANCE_KM", 100)
	if err != nil {
		return nil, err
	}
	minMembers, err := intEnv("MIN_MEMBERS", 3)
	if err != nil {
		return nil, err
	}
	minSignificantMagnitude, err := floatEnv("MIN_SIGNIFICANT_MAGNITUDE", 2.5)
	if err != nil {
		return nil, err
	}
	timeBucketHours, err := intEnv("TIME_BUCKET_HOURS", 6)
	if err != nil {
		return nil, err
	}
	geoDecimals, err := intEnv("GEO_BUCKET_DECIMAL_PLACES", 1)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		FeedURL:     sharedcfg.EnvOrDefault("FEED_URL", defaultFeedURL),
		FeedWindow:  feedWindow,
		FeedTimeout: feedTimeout,
		RunInterval: runInterval,

		MaxDistanceKm:           maxDistanceKm,
		MinMembers:              minMembers,
		MinSignificantMagnitude: minSignificantMagnitude,
		TimeBucketHours:         timeBucketHours,
		GeoBucketDecimalPlaces:  geoDecimals,

		CatalogPath: sharedcfg.EnvOrDefault("CATALOG_PATH", "./clusters.db"),

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "quake-cluster-changes"),
		KafkaEnabled:   kafkaEnabled,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL is required")
	}
	if cfg.FeedTimeout <= 0 {
		return nil, errors.New("FEED_TIMEOUT must be positive")
	}
	if cfg.RunInterval <= 0 {
		return nil, errors.New("RUN_INTERVAL must be positive")
	}
	if cfg.MaxDistanceKm <= 0 {
		return nil, errors.New("MAX_DISTANCE_KM must be positive")
	}
	if cfg.MinMembers < 1 {
		return nil, errors.New("MIN_MEMBERS must be at least 1")
	}
	if cfg.TimeBucketHours < 1 {
		return nil, errors.New("TIME_BUCKET_HOURS must be at least 1")
	}
	if cfg.GeoBucketDecimalPlaces < 0 {
		return nil, errors.New("GEO_BUCKET_DECIMAL_PLACES must not be negative")
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("CATALOG_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
