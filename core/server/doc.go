// Package server holds the ops HTTP server configuration.
//
// The daemon command handles the actual server startup; this package only
// defines the configuration structure for it.
//
// # Configuration
//
// The Config struct defines the HTTP port and the API key protecting the
// operational endpoints. An empty key disables authentication, which is
// the default for local use.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server
// settings and by the daemon command to wire middleware.
package server
