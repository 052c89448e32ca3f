// Package metrics declares the Prometheus collectors exported by the
// photo browsing service.
//
// Metric groups:
//   - HTTP: request counters, durations, in-flight gauge
//   - Database: query counts/durations by operation, open connections
//   - Pagination: pages served by direction, locate hits/misses,
//     empty-slice retries, window evictions, dedup drops
//   - Collection gauges: photos, projects, tags (refreshed by Collector)
//
// All collectors are registered on the default registry via promauto
// and served from the /metrics endpoint.
package metrics
