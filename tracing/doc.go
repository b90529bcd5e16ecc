// Package tracing is a thin wrapper around OpenTelemetry used to instrument
// scheduling decisions. It is kept separate so applications embedding the
// scheduler without observability needs pay nothing: until Init is called
// every span is a no-op.
package tracing
