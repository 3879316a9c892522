package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces radar bundles to a Kafka topic.
// It implements pipeline.Publisher.
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

// Publish serializes and writes one site's bundle to the sink topic. Bundles
// for a site share a message key so they land on one partition in order.
func (w *Writer) Publish(ctx context.Context, site domain.Site, bundle domain.RadarBundle) error {
	msg, err := serializeToMessage(site, bundle)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// bundlePayload is the wire shape of one published bundle.
type bundlePayload struct {
	Historical domain.HistoricalBundle `json:"historical"`
	Prediction domain.PredictionBundle `json:"prediction"`
}

// serializeToMessage marshals a site's bundle into a Kafka message.
func serializeToMessage(site domain.Site, bundle domain.RadarBundle) (kafkago.Message, error) {
	data, err := json.Marshal(bundlePayload{
		Historical: bundle.Historical,
		Prediction: bundle.Prediction,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize radar bundle: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(site.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "site_id", Value: []byte(site.ID)},
			{Key: "generated_at", Value: []byte(bundle.Prediction.PredictionTimestamp)},
		},
	}, nil
}
