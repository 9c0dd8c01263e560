package models

import (
	"time"

	"gorm.io/gorm"
)

// KVEntry represents kv_entries table
type KVEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Namespace string    `gorm:"size:64;not null;uniqueIndex:idx_kv_namespace_key" json:"namespace"`
	Key       string    `gorm:"column:entry_key;size:128;not null;uniqueIndex:idx_kv_namespace_key" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// AutoMigrate creates or updates the tables used by the mysql storage driver
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&KVEntry{})
}
