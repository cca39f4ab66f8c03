package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// Change kinds carried in the "change" header.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
)

// Writer produces event changes to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and publishes the changes in a single WriteMessages
// call. Messages are keyed by event key so every version of an event lands
// on the same partition.
func (w *Writer) Publish(ctx context.Context, changes []domain.EventChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i], domain.Now())
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d event messages: %w", len(msgs), err)
	}
	w.logger.Debug("events published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an event change into a Kafka message.
func serializeToMessage(ch domain.EventChange, at time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(ch.Event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %d: %w", ch.Event.ID, err)
	}
	kind := ChangeUpdated
	if ch.Created {
		kind = ChangeCreated
	}
	return kafkago.Message{
		Key:   []byte(ch.Event.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "change", Value: []byte(kind)},
			{Key: "disaster_type", Value: []byte(ch.Event.HazardType)},
			{Key: "published_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}, nil
}
