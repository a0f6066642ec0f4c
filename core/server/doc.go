// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key and the request timeouts.
// It is embedded by core/config and consumed by the serve command.
package server
