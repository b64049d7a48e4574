// Package metrics exposes Prometheus collectors for a mock engine.
//
// The engine serves them at /__admin/metrics:
//
//	mockscope_requests_total{method,matched}
//	mockscope_request_duration_seconds{matched}
//	mockscope_unmatched_requests_total
//	mockscope_stubs
//	mockscope_engine_starts_total
package metrics
