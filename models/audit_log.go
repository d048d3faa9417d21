package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of operation performed
type AuditAction string

const (
	AuditActionTransition AuditAction = "TRANSITION" // civil request status change
	AuditActionUpdate     AuditAction = "UPDATE"     // complaint handled by an agent
	AuditActionDownload   AuditAction = "DOWNLOAD"   // identity document downloaded
	AuditActionExport     AuditAction = "EXPORT"     // register exported
	AuditActionLogin      AuditAction = "LOGIN"
	AuditActionLogout     AuditAction = "LOGOUT"
)

// Audited resource types
const (
	AuditResourceCivilRequest = "CivilRequest"
	AuditResourceRegister     = "CivilRegister"
	AuditResourceComplaint    = "Complaint"
	AuditResourceNewsletter   = "Newsletter"
	AuditResourceUser         = "User"
)

// ErrAuditLogImmutable is returned by any attempt to update or delete an audit entry
var ErrAuditLogImmutable = errors.New("audit logs are immutable")

// AuditLog is an immutable record of an agent operation inside a mairie partition
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	// Actor identification, denormalized for historical accuracy
	UserID   *string `gorm:"type:uuid;index:idx_audit_user" json:"user_id,omitempty"`
	UserName string  `gorm:"not null" json:"user_name"`
	UserRole string  `gorm:"not null" json:"user_role"`

	// Target resource
	ResourceType string `gorm:"not null;index:idx_audit_resource" json:"resource_type"` // one of the AuditResource constants
	ResourceID   string `gorm:"not null;index:idx_audit_resource" json:"resource_id"`
	ResourceName string `json:"resource_name,omitempty"` // e.g. reference number

	Action      AuditAction `gorm:"not null;index:idx_audit_action" json:"action"`
	Description string      `gorm:"type:text" json:"description,omitempty"`

	OldValues string `gorm:"type:text" json:"old_values,omitempty"` // JSON encoded
	NewValues string `gorm:"type:text" json:"new_values,omitempty"` // JSON encoded

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `gorm:"size:64;index" json:"request_id,omitempty"` // matches the request_id of the access log
}

// StatusChange is the before and after status recorded by a transition entry
type StatusChange struct {
	From string
	To   string
	Note string
}

// StatusChange reads the status move out of OldValues and NewValues.
// It returns nil for entries that did not change a status.
func (a *AuditLog) StatusChange() *StatusChange {
	var before, after map[string]string
	if a.OldValues == "" || a.NewValues == "" {
		return nil
	}
	if json.Unmarshal([]byte(a.OldValues), &before) != nil || json.Unmarshal([]byte(a.NewValues), &after) != nil {
		return nil
	}
	if after["status"] == "" || before["status"] == after["status"] {
		return nil
	}
	return &StatusChange{From: before["status"], To: after["status"], Note: after["note"]}
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
