package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider gives access to the registry holding the clone engine's
// counters, so callers can expose them next to their own metrics.
type RegistryProvider interface {
	// Registry returns the Prometheus registry containing deepclone metrics.
	Registry() *prometheus.Registry
}
