package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sg2pl/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mappingRecord is the relational shape of a mapping. One row per security
// group per prefix list region.
type mappingRecord struct {
	ID               uint      `gorm:"primarykey"`
	SecurityGroupID  string    `gorm:"size:64;uniqueIndex:idx_mapping,priority:1"`
	SourceRegion     string    `gorm:"size:32;uniqueIndex:idx_mapping,priority:2"`
	PrefixListRegion string    `gorm:"size:32;uniqueIndex:idx_mapping,priority:3"`
	PrefixListID     string    `gorm:"size:64"`
	CreatedAt        time.Time
}

func (mappingRecord) TableName() string {
	return "sg2pl_mappings"
}

// SQLStore keeps mappings in a relational table. Unlike the parameter store
// backend it records the source region explicitly, so groups from any
// region can be synced.
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLStore creates a database backed registry.
func NewSQLStore(db *gorm.DB, logger *zap.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// Migrate creates or updates the mapping table.
func (s *SQLStore) Migrate() error {
	return s.db.AutoMigrate(&mappingRecord{})
}

// ListMappings returns every registered mapping, sorted by mapping key.
func (s *SQLStore) ListMappings(ctx context.Context) ([]reconcile.Mapping, error) {
	var records []mappingRecord
	err := s.db.WithContext(ctx).
		Order("security_group_id, source_region, prefix_list_region").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	mappings := make([]reconcile.Mapping, 0, len(records))
	for _, r := range records {
		mappings = append(mappings, reconcile.Mapping{
			SecurityGroupID:  r.SecurityGroupID,
			SourceRegion:     r.SourceRegion,
			PrefixListID:     r.PrefixListID,
			PrefixListRegion: r.PrefixListRegion,
		})
	}
	return mappings, nil
}

// Put registers a mapping. The unique index turns double registration into
// ErrAlreadyRegistered.
func (s *SQLStore) Put(ctx context.Context, m reconcile.Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}

	record := mappingRecord{
		SecurityGroupID:  m.SecurityGroupID,
		SourceRegion:     m.SourceRegion,
		PrefixListRegion: m.PrefixListRegion,
		PrefixListID:     m.PrefixListID,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s in %s: %w", m.SecurityGroupID, m.PrefixListRegion, ErrAlreadyRegistered)
		}
		return fmt.Errorf("storing mapping: %w", err)
	}

	s.logger.Info("registered mapping", zap.String("mapping", m.Key()))
	return nil
}

// Delete removes a mapping.
func (s *SQLStore) Delete(ctx context.Context, securityGroupID, prefixListRegion string) error {
	res := s.db.WithContext(ctx).
		Where("security_group_id = ? AND prefix_list_region = ?", securityGroupID, prefixListRegion).
		Delete(&mappingRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting mapping: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s in %s: %w", securityGroupID, prefixListRegion, reconcile.ErrNotFound)
	}

	s.logger.Info("removed mapping",
		zap.String("security_group_id", securityGroupID),
		zap.String("prefix_list_region", prefixListRegion),
	)
	return nil
}
