package models

import "time"

// ReferenceCounter holds the last issued sequence number per (variant, year)
type ReferenceCounter struct {
	Variant   RequestVariant `gorm:"size:20;primaryKey"`
	Year      int            `gorm:"primaryKey;autoIncrement:false"`
	LastSeq   int            `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName specifies the table name for ReferenceCounter model
func (ReferenceCounter) TableName() string {
	return "reference_counters"
}
