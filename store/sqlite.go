package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ModelArtifact is a stored model row
type ModelArtifact struct {
	Key       string `gorm:"column:key;primaryKey"`
	Blob      []byte `gorm:"column:blob"`
	UpdatedAt time.Time
}

func (ModelArtifact) TableName() string {
	return "model_artifacts"
}

// SQLiteBackend stores blobs in the model_artifacts table, upserting on save
type SQLiteBackend struct {
	db *gorm.DB
}

// OpenSQLiteBackend opens the sqlite database at path, ":memory:" for an in-memory database,
// and migrates the model_artifacts table.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database, %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to get underlying database, %w", err)
	}
	// sqlite allows a single writer and every in-memory connection is its own database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return NewSQLiteBackend(db)
}

func NewSQLiteBackend(db *gorm.DB) (*SQLiteBackend, error) {
	if err := db.AutoMigrate(&ModelArtifact{}); err != nil {
		return nil, fmt.Errorf("unable to migrate model artifacts, %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var artifact ModelArtifact
	err := s.db.WithContext(ctx).Where(&ModelArtifact{Key: key}).First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return artifact.Blob, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, key string, data []byte) error {
	artifact := ModelArtifact{Key: key, Blob: data}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"blob", "updated_at"}),
	}).Create(&artifact).Error
}

func (s *SQLiteBackend) Location(key string) string {
	return "sqlite://model_artifacts/" + key
}

// Close closes the underlying database
func (s *SQLiteBackend) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
