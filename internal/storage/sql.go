package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileEntry is one key of one profile in the SQL backends.
type ProfileEntry struct {
	ProfileID string    `gorm:"primaryKey;size:128"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:128"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (ProfileEntry) TableName() string {
	return "profile_entries"
}

// SQLKV stores profile entries in a relational database through gorm.
type SQLKV struct {
	db    *gorm.DB
	quota int64
}

// NewSQLKV migrates the entries table and returns the store.
func NewSQLKV(db *gorm.DB, quota int64) (*SQLKV, error) {
	if err := db.AutoMigrate(&ProfileEntry{}); err != nil {
		return nil, fmt.Errorf("auto migrate profile entries: %w", err)
	}
	return &SQLKV{db: db, quota: quota}, nil
}

func (s *SQLKV) Get(ctx context.Context, profileID, key string) ([]byte, error) {
	var entry ProfileEntry
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND entry_key = ?", profileID, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return entry.Value, nil
}

// Set checks the quota and upserts inside one transaction, so a refused or failed
// write leaves the stored row untouched.
func (s *SQLKV) Set(ctx context.Context, profileID, key string, value []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.quota > 0 {
			var used int64
			err := tx.Model(&ProfileEntry{}).
				Select("COALESCE(SUM(LENGTH(entry_key) + LENGTH(value)), 0)").
				Where("profile_id = ? AND entry_key <> ?", profileID, key).
				Scan(&used).Error
			if err != nil {
				return fmt.Errorf("measure profile usage: %w", err)
			}
			used += entrySize(key, value)
			if used > s.quota {
				return fmt.Errorf("profile %s needs %d of %d bytes: %w", profileID, used, s.quota, ErrQuotaExceeded)
			}
		}

		entry := ProfileEntry{ProfileID: profileID, Key: key, Value: value}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
		if err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}
		return nil
	})
}

func (s *SQLKV) Delete(ctx context.Context, profileID, key string) error {
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND entry_key = ?", profileID, key).
		Delete(&ProfileEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (s *SQLKV) Clear(ctx context.Context, profileID string) error {
	err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Delete(&ProfileEntry{}).Error
	if err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

func (s *SQLKV) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
