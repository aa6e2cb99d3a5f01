// Package metric provides Prometheus metrics for minikv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, server metrics and HTTP handler
//   - collector.go: Collector reporting the live key count
//
// Metrics include:
//
//   - Connection counters and the active connection gauge
//   - Per-command counters and latency histograms
//   - Protocol error counter
//   - Key count
//
// Every recording method is safe to call on a nil *Registry, so components
// can run with metrics disabled.
package metric
