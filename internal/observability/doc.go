// Package observability owns the process-wide telemetry runtime of the
// translator service.
//
// It provides:
//   - Runtime: the tracer, meter and logger, built exactly once by Initialize
//   - Instruments: the named counters and histograms recorded by the service
//   - ProcessorChain: ordered span observers isolated from each other's panics
//   - AsyncCallProcessor: a span observer that turns a finished span into a
//     background call of a handler
//
// Exporters are chosen at initialization: OTLP when a collector endpoint is
// configured, otherwise spans stay in process and metrics are served for
// Prometheus scraping.
package observability
