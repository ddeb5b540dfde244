// Package middleware provides composable middleware for command
// execution. Middleware wraps the shell runner call synchronously and
// can modify execution (recover from panics, log, record metrics, add
// tracing).
//
// The worker's Executor composes its middleware with [Chain] and runs
// every claimed job through the resulting wrapper. Metrics and tracing
// use the global OpenTelemetry providers and degrade to no-ops when
// none is installed.
package middleware
