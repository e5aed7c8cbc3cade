// Package metrics defines the Prometheus metrics exported by the video
// vault application.
//
// Metrics cover:
//   - HTTP request counts, durations and in-flight gauge
//   - Database query counts and durations
//   - Ingest pipeline stage durations and upload outcomes
//   - Thumbnail generation outcomes
//
// All metrics are registered via promauto at package load time. Call
// InitializeMetrics once at startup so every expected label combination
// is exported from the first scrape.
package metrics
