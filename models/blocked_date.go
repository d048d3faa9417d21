package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockedDate is a day on which the mairie takes no appointments, such as a public
// holiday. A nil AppointmentTypeID closes every appointment type.
type BlockedDate struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Date              string  `gorm:"column:blocked_date;size:10;not null;index" json:"date"` // YYYY-MM-DD
	AppointmentTypeID *string `gorm:"type:uuid;index" json:"type_rdv,omitempty"`
	Reason            string  `gorm:"size:200" json:"motif"`
	CreatedByID       *string `gorm:"type:uuid" json:"-"`

	// Relationships
	AppointmentType *AppointmentType `gorm:"foreignKey:AppointmentTypeID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (b *BlockedDate) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for BlockedDate model
func (BlockedDate) TableName() string {
	return "blocked_dates"
}

// Blocks reports whether this closure applies to the given appointment type
func (b *BlockedDate) Blocks(appointmentTypeID string) bool {
	return b.AppointmentTypeID == nil || *b.AppointmentTypeID == appointmentTypeID
}
