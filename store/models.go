package store

import (
	"time"

	"gorm.io/gorm"
)

// TrainingRecord is the persisted row for one training job. The composite
// training id is the primary key; live status flows in from the monitor.
type TrainingRecord struct {
	ID       string `gorm:"primaryKey"`
	Trainer  string `gorm:"index"`
	JobID    string `gorm:"index"`
	Module   string `gorm:"index"`
	Owner    string `gorm:"index"`
	Status   string `gorm:"index"`
	Message  string `gorm:"type:text"`
	SavePath string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the table name.
func (TrainingRecord) TableName() string {
	return "training_records"
}
