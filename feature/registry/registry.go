package registry

import (
	"context"
	"errors"
	"fmt"

	"sg2pl/core/awsapi"
	"sg2pl/core/database"
	"sg2pl/core/reconcile"

	"go.uber.org/zap"
)

// ErrAlreadyRegistered means a mapping for the same security group and
// prefix list region already exists.
var ErrAlreadyRegistered = errors.New("mapping already registered")

// Config selects and parameterizes the mapping store backend.
type Config struct {
	// Backend picks the store implementation: "ssm" or "mysql".
	Backend string `mapstructure:"backend" default:"ssm"`

	// SSMPath is the parameter path prefix holding the mappings when the
	// ssm backend is active.
	SSMPath string `mapstructure:"ssm_path" default:"/sg2pl/mappings"`
}

// Store is the durable registry of security-group-to-prefix-list mappings.
// Sync runs only ever read it; onboarding and operator commands write it.
type Store interface {
	reconcile.Registry

	// Put registers a new mapping. Registering the same security group and
	// prefix list region twice returns ErrAlreadyRegistered.
	Put(ctx context.Context, m reconcile.Mapping) error

	// Delete removes the mapping for a security group in a prefix list
	// region. A missing mapping returns reconcile.ErrNotFound.
	Delete(ctx context.Context, securityGroupID, prefixListRegion string) error
}

// Open builds the configured store backend.
func Open(cfg Config, dbCfg database.Config, provider awsapi.Provider, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "ssm":
		return NewSSMStore(provider, cfg.SSMPath, log), nil
	case "mysql":
		db, err := database.Connect(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connecting mapping database: %w", err)
		}
		store := NewSQLStore(db, log)
		if err := store.Migrate(); err != nil {
			return nil, fmt.Errorf("migrating mapping table: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}
