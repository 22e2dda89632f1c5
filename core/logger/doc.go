// Package logger provides structured logging based on Zap.
//
// New builds a logger from configuration: console encoding with colored
// levels for local use, JSON for deployments. WithRayID attaches the
// request id from a Fiber context so all log lines of one request can be
// correlated.
package logger
