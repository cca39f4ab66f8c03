package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerTo(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"default", "", false, true},
		{"debug", "debug", true, true},
		{"warning alias", "WARNING", false, false},
		{"unknown falls back to info", "verbose", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, tt.level)
			logger.Debug("debug line")
			logger.Info("info line")
			logger.Error("error line", "source", "vnexpress")

			out := buf.String()
			assert.Equal(t, tt.debugSeen, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.infoSeen, strings.Contains(out, "info line"))
			assert.Contains(t, out, "source=vnexpress")
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.FetchRequests.WithLabelValues("ok").Inc()
	m.FetchRequests.WithLabelValues("ok").Inc()
	m.DedupDrops.WithLabelValues("url").Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.FetchRequests.WithLabelValues("ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DedupDrops.WithLabelValues("url")), 1e-9)

	// Fresh collectors each call.
	assert.Zero(t, testutil.ToFloat64(NewMetricsForTesting().FetchRequests.WithLabelValues("ok")))
}
