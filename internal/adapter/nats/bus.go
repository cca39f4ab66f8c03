// Package nats relays new-event notices between the ingestion service and
// the read API over NATS core subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// Bus publishes and receives new-event notices on one subject.
type Bus struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// Connect dials url and returns a Bus bound to subject. Reconnects are
// unlimited.
func Connect(url, subject, name string, logger *slog.Logger) (*Bus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Bus{nc: nc, subject: subject, logger: logger}, nil
}

// Publish sends one notice per created event. Updates are not announced.
// It implements pipeline.Publisher.
func (b *Bus) Publish(_ context.Context, changes []domain.EventChange) error {
	payloads, err := encodeNotices(changes)
	if err != nil {
		return err
	}
	for _, p := range payloads {
		if err := b.nc.Publish(b.subject, p); err != nil {
			return fmt.Errorf("publish notice to %s: %w", b.subject, err)
		}
	}
	if len(payloads) > 0 {
		return b.nc.Flush()
	}
	return nil
}

// Subscribe delivers every notice on the subject to handler until ctx ends,
// then drains the subscription.
func (b *Bus) Subscribe(ctx context.Context, handler func(domain.Notice)) error {
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		n, err := decodeNotice(msg.Data)
		if err != nil {
			b.logger.Warn("dropping malformed notice", "subject", msg.Subject, "error", err)
			return
		}
		handler(n)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}
	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

// CheckReadiness reports whether the connection is up.
func (b *Bus) CheckReadiness(_ context.Context) error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats not connected: %s", b.nc.Status())
	}
	return nil
}

func (b *Bus) Close() {
	b.nc.Close()
}

func encodeNotices(changes []domain.EventChange) ([][]byte, error) {
	var out [][]byte
	for i := range changes {
		if !changes[i].Created {
			continue
		}
		data, err := json.Marshal(domain.NewEventNotice(&changes[i].Event))
		if err != nil {
			return nil, fmt.Errorf("encode notice for event %d: %w", changes[i].Event.ID, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func decodeNotice(data []byte) (domain.Notice, error) {
	var n domain.Notice
	if err := json.Unmarshal(data, &n); err != nil {
		return n, err
	}
	if n.Type == "" || n.EventID == 0 {
		return n, fmt.Errorf("notice missing type or event id")
	}
	return n, nil
}
