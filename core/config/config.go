package config

import (
	"reflect"
	"strings"

	"sg2pl/core/awsapi"
	"sg2pl/core/database"
	"sg2pl/core/logger"
	"sg2pl/core/reconcile"
	"sg2pl/core/server"
	"sg2pl/core/storage"
	"sg2pl/feature/onboard"
	"sg2pl/feature/registry"
	"sg2pl/feature/report"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// AWS holds the home region for API access.
	AWS awsapi.Config `mapstructure:"aws"`
	// Sync tunes the reconcile engine (batching, backoff, fan-out).
	Sync reconcile.Options `mapstructure:"sync"`
	// Registry selects and parameterizes the mapping store backend.
	Registry registry.Config `mapstructure:"registry"`
	// Database holds connection details for the mysql registry backend.
	Database database.Config `mapstructure:"database"`
	// Storage holds credentials for the report archive object store.
	Storage storage.Config `mapstructure:"storage"`
	// Report configures outcome delivery (SNS topic, archive).
	Report report.Config `mapstructure:"report"`
	// Onboard tunes how new prefix lists are sized.
	Onboard onboard.Config `mapstructure:"onboard"`
	// Server holds configuration for the ops HTTP server in daemon mode.
	Server server.Config `mapstructure:"server"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_INTERVAL -> sync.interval)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
