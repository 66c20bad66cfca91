// Package sqlitestore persists the translation cache snapshot in SQLite
// through GORM.
package sqlitestore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/orbitsmeet/livetl/cache"
)

// Snapshot is one persisted cache blob.
type Snapshot struct {
	Key       string `gorm:"column:storage_key;primaryKey;size:255"`
	Blob      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Snapshot) TableName() string {
	return "cache_snapshots"
}

// Store is a GORM-backed cache.Store.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	return New(db)
}

// New wraps an existing GORM connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("migrating cache_snapshots: %w", err)
	}
	return &Store{db: db}, nil
}

// Load implements cache.Store.
func (s *Store) Load(key string) ([]byte, bool, error) {
	var snap Snapshot
	err := s.db.Where("storage_key = ?", key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap.Blob, true, nil
}

// Save implements cache.Store.
func (s *Store) Save(key string, blob []byte) error {
	snap := Snapshot{
		Key:       key,
		Blob:      blob,
		UpdatedAt: time.Now(),
	}

	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at"}),
	}).Create(&snap).Error
}

// Remove implements cache.Store.
func (s *Store) Remove(key string) error {
	return s.db.Where("storage_key = ?", key).Delete(&Snapshot{}).Error
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ cache.Store = (*Store)(nil)
