package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-cluster-service/internal/config"
	"github.com/couchcryptid/quake-cluster-service/internal/domain"
)

// Writer announces committed catalog changes on a Kafka topic so downstream
// consumers (detail pages, sitemap builder) can react without polling the
// catalog. It implements pipeline.ChangeAnnouncer.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// AnnounceBatch serializes and publishes the run's catalog changes in a
// single WriteMessages call. Messages are keyed by stable key so updates to
// the same cluster land on the same partition in order.
func (w *Writer) AnnounceBatch(ctx context.Context, changes []domain.CatalogChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a catalog change into a Kafka message.
func serializeToMessage(change domain.CatalogChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize catalog change: %w", err)
	}
	def := change.Definition
	return kafkago.Message{
		Key:   []byte(def.StableKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(change.Action)},
			{Key: "slug", Value: []byte(def.Slug)},
			{Key: "version", Value: []byte(strconv.FormatInt(def.Version, 10))},
			{Key: "updated_at", Value: []byte(def.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
