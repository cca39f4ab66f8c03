package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

func testEvent() domain.Event {
	deaths := 3
	return domain.Event{
		ID:         7,
		Key:        "storm|Quảng Ninh|202409070800",
		Title:      "Bão Yagi đổ bộ Quảng Ninh",
		HazardType: domain.HazardStorm,
		Province:   "Quảng Ninh",
		StartedAt:  time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC),
		Deaths:     &deaths,
		Confidence: 0.95,
	}
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestSerializeToMessage(t *testing.T) {
	at := time.Date(2024, 9, 7, 9, 0, 0, 0, time.UTC)
	msg, err := serializeToMessage(domain.EventChange{Event: testEvent(), Created: true}, at)
	require.NoError(t, err)

	assert.Equal(t, "storm|Quảng Ninh|202409070800", string(msg.Key))
	assert.Equal(t, ChangeCreated, header(msg, "change"))
	assert.Equal(t, domain.HazardStorm, header(msg, "disaster_type"))
	assert.Equal(t, "2024-09-07T09:00:00Z", header(msg, "published_at"))

	var got domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.Deaths)
	assert.Equal(t, 3, *got.Deaths)
}

func TestSerializeToMessage_Updated(t *testing.T) {
	msg, err := serializeToMessage(domain.EventChange{Event: testEvent()}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, ChangeUpdated, header(msg, "change"))
}

func TestDecodeMessage(t *testing.T) {
	msg, err := serializeToMessage(domain.EventChange{Event: testEvent(), Created: true}, time.Now())
	require.NoError(t, err)

	ch, err := decodeMessage(msg)
	require.NoError(t, err)
	assert.True(t, ch.Created)
	assert.Equal(t, "Bão Yagi đổ bộ Quảng Ninh", ch.Event.Title)
	assert.InDelta(t, 0.95, ch.Event.Confidence, 1e-9)
}

func TestDecodeMessage_Invalid(t *testing.T) {
	_, err := decodeMessage(kafkago.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
