// Package middleware provides HTTP middleware for Ripple servers:
// Prometheus request metrics and OpenTelemetry tracing.
package middleware
