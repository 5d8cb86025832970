package awsapi

// Config holds configuration for AWS API access.
// Credentials come from the default chain (environment, shared config,
// instance role); only the home region is configured here.
type Config struct {
	// Region is the home region: where the registry lives and the default
	// source region for mappings that do not specify one.
	Region string `mapstructure:"region" default:"us-east-1"`
}
