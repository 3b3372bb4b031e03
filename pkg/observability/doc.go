// Package observability exposes the Prometheus metrics of the publish and
// score services.
//
// Metrics are registered on an injected prometheus.Registerer so tests and
// embedded uses can keep their own registry; the zero value of *Metrics
// (nil) records nothing.
package observability
