// Package store persists training-job records in Postgres so trainings are
// listable across the API and survive server restarts (backends that keep
// job state externally can be re-resolved by id).
package store

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/trainops/trainerd/training"
)

// Store handles training-record database operations.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&TrainingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	log.Println("Training record store initialized")
	return &Store{db: db}, nil
}

// Create inserts a new training record.
func (s *Store) Create(rec *TrainingRecord) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create training record: %w", err)
	}
	return nil
}

// Get retrieves a training record by composite id.
func (s *Store) Get(id string) (*TrainingRecord, error) {
	var rec TrainingRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// List lists training records, newest first, optionally filtered by trainer
// instance name and by owner.
func (s *Store) List(trainer, owner string) ([]TrainingRecord, error) {
	var recs []TrainingRecord
	query := s.db.Order("created_at DESC")
	if trainer != "" {
		query = query.Where("trainer = ?", trainer)
	}
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// ListActive lists records whose status is not terminal.
func (s *Store) ListActive() ([]TrainingRecord, error) {
	terminal := []string{
		string(training.StatusCompleted),
		string(training.StatusCanceled),
		string(training.StatusErrored),
	}

	var recs []TrainingRecord
	err := s.db.Where("status NOT IN (?)", terminal).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateStatus updates a record's status and message.
func (s *Store) UpdateStatus(id string, status training.Status, message string) error {
	return s.db.Model(&TrainingRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"message":    message,
			"updated_at": time.Now(),
		}).Error
}

// Delete soft deletes a training record.
func (s *Store) Delete(id string) error {
	return s.db.Where("id = ?", id).Delete(&TrainingRecord{}).Error
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	sqlDB, err := s.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}
