package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// Reader consumes event changes from a Kafka topic.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer of topic in group. An empty group reads the
// single partition 0 from the latest offset.
func NewReader(brokers []string, topic, group string, logger *slog.Logger) *Reader {
	cfg := kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	if group == "" {
		cfg.StartOffset = kafkago.LastOffset
	}
	return &Reader{reader: kafkago.NewReader(cfg), logger: logger}
}

// Next blocks until the next change arrives or ctx ends. Messages that do
// not decode are logged and skipped.
func (r *Reader) Next(ctx context.Context) (domain.EventChange, error) {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			return domain.EventChange{}, fmt.Errorf("read event message: %w", err)
		}
		ch, err := decodeMessage(msg)
		if err != nil {
			r.logger.Warn("skipping undecodable event message",
				"error", err, "partition", msg.Partition, "offset", msg.Offset)
			continue
		}
		return ch, nil
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func decodeMessage(msg kafkago.Message) (domain.EventChange, error) {
	var ch domain.EventChange
	if err := json.Unmarshal(msg.Value, &ch.Event); err != nil {
		return ch, fmt.Errorf("decode event: %w", err)
	}
	for _, h := range msg.Headers {
		if h.Key == "change" {
			ch.Created = string(h.Value) == ChangeCreated
		}
	}
	return ch, nil
}
