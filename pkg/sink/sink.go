// Package sink delivers an enriched snapshot to its consumers: a JSON stream
// (stdout by default) and, optionally, Redis.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/userposts/pkg/metrics"
	"github.com/Sternrassler/userposts/pkg/model"
)

var (
	factory = promauto.With(metrics.Registry)

	// SinkWrites tracks successful snapshot writes by sink
	SinkWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userposts_sink_writes_total",
			Help: "Total number of snapshots written by sink",
		},
		[]string{"sink"}, // "writer", "redis"
	)

	// SinkErrors tracks failed snapshot writes by sink
	SinkErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userposts_sink_errors_total",
			Help: "Total number of failed snapshot writes by sink",
		},
		[]string{"sink"},
	)

	// SinkBytes holds the size of the last snapshot written by sink
	SinkBytes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "userposts_sink_bytes",
			Help: "Size in bytes of the last snapshot written",
		},
		[]string{"sink"},
	)
)

// Sink receives the result of one run.
type Sink interface {
	Write(ctx context.Context, runID string, users []model.EnrichedUser) error
}

// Writer encodes snapshots as JSON to an io.Writer.
type Writer struct {
	out    io.Writer
	indent bool
}

// NewWriter returns a Writer; indent selects two-space pretty printing.
func NewWriter(out io.Writer, indent bool) *Writer {
	return &Writer{out: out, indent: indent}
}

// Write implements Sink.
func (w *Writer) Write(_ context.Context, _ string, users []model.EnrichedUser) error {
	data, err := encode(users, w.indent)
	if err != nil {
		SinkErrors.WithLabelValues("writer").Inc()
		return err
	}
	data = append(data, '\n')

	if _, err := w.out.Write(data); err != nil {
		SinkErrors.WithLabelValues("writer").Inc()
		return fmt.Errorf("write snapshot: %w", err)
	}

	SinkWrites.WithLabelValues("writer").Inc()
	SinkBytes.WithLabelValues("writer").Set(float64(len(data)))
	return nil
}

func encode(users []model.EnrichedUser, indent bool) ([]byte, error) {
	if users == nil {
		users = []model.EnrichedUser{}
	}

	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(users, "", "  ")
	} else {
		data, err = json.Marshal(users)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Multi fans a snapshot out to every sink in order and stops at the first error.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, runID string, users []model.EnrichedUser) error {
	for _, s := range m {
		if err := s.Write(ctx, runID, users); err != nil {
			return err
		}
	}
	return nil
}
