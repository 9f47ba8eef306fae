// Package metrics exposes the Prometheus registry the module's collectors are
// registered with and writes it out for batch runs.
//
// Collectors live next to the code they measure (pkg/client, pkg/sink) and
// register through promauto.With(Registry).
//
// Fetch metrics (pkg/client):
//   - userposts_requests_total{endpoint, status} (Counter)
//   - userposts_request_duration_seconds{endpoint} (Histogram)
//   - userposts_errors_total{class} (Counter): network, server, client, parse
//   - userposts_retries_total{error_class} (Counter)
//   - userposts_retry_exhausted_total{error_class} (Counter)
//
// Sink metrics (pkg/sink):
//   - userposts_sink_writes_total{sink} (Counter)
//   - userposts_sink_errors_total{sink} (Counter)
//   - userposts_sink_bytes{sink} (Gauge): size of the last snapshot written
//
// A CLI run has no listener to scrape, so the registry is dumped in the
// text exposition format for node_exporter's textfile collector:
//
//	userposts run --config userposts.yaml   # metrics.textfile: /var/lib/node_exporter/userposts.prom
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer all collectors of this module use. It is read
// once, when pkg/client and pkg/sink initialize their collectors.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

// Gatherer reads back what Registry collected.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric family to path atomically.
// An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
