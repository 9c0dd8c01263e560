package repositories

import (
	"context"
	"errors"

	"healthmate/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvEntryRepository implements KeyValueRepository on the kv_entries table
type kvEntryRepository struct {
	db        *gorm.DB
	namespace string
}

// NewKVEntryRepository creates a new gorm backed repository. Rows are scoped
// by namespace so several installations can share one database.
func NewKVEntryRepository(db *gorm.DB, namespace string) KeyValueRepository {
	return &kvEntryRepository{db: db, namespace: namespace}
}

// Get gets a value by key
func (r *kvEntryRepository) Get(ctx context.Context, key string) (string, error) {
	var entry models.KVEntry
	err := r.db.WithContext(ctx).
		Where("namespace = ?", r.namespace).
		Where("entry_key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// Set upserts a value
func (r *kvEntryRepository) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Namespace: r.namespace, Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

// Delete removes keys; missing keys are ignored
func (r *kvEntryRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("namespace = ?", r.namespace).
		Where("entry_key IN ?", keys).
		Delete(&models.KVEntry{}).Error
}

// Close is a no-op; the connection is owned by the caller
func (r *kvEntryRepository) Close() error {
	return nil
}
