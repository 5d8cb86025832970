package server

// Config holds configuration for the ops HTTP server exposed in daemon mode.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	// When empty, authentication is disabled (liveness probes stay open either way).
	ApiKey string `mapstructure:"api_key" default:""`
}
