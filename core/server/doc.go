// Package server holds configuration for the HTTP server: listen port,
// API key, and the warehouse identifier this instance serves.
package server
