package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Warehouse identifies the warehouse this instance serves. It is passed
	// explicitly into every feature; there is no ambient scope.
	Warehouse string `mapstructure:"warehouse" default:"main"`
}

// Validate checks that the configured warehouse identifier is usable.
func (c Config) Validate() bool {
	return strings.TrimSpace(c.Warehouse) != ""
}
