package services

import (
	"encoding/json"
	"fmt"

	"e_mairie_go/logger"
	"e_mairie_go/models"

	"gorm.io/gorm"
)

// AuditContext identifies who performed an operation and from where
type AuditContext struct {
	UserID    string
	UserName  string
	UserRole  string
	IPAddress string
	UserAgent string
	RequestID string
}

// AuditContextForUser builds an AuditContext from an authenticated user
func AuditContextForUser(user *models.User, ip, userAgent string) AuditContext {
	if user == nil {
		return AuditContext{UserName: "anonyme", UserRole: "public", IPAddress: ip, UserAgent: userAgent}
	}
	return AuditContext{
		UserID:    user.ID,
		UserName:  user.FullName(),
		UserRole:  user.Role,
		IPAddress: ip,
		UserAgent: userAgent,
	}
}

// AuditEntry describes an operation on a resource
type AuditEntry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// RecordAudit writes an audit entry with db, typically the transaction of the audited change
func RecordAudit(db *gorm.DB, ctx AuditContext, entry AuditEntry) error {
	auditLog := models.AuditLog{
		UserID:       ptrIfNotEmpty(ctx.UserID),
		UserName:     ctx.UserName,
		UserRole:     ctx.UserRole,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
		OldValues:    marshalAuditValues(entry.OldValues),
		NewValues:    marshalAuditValues(entry.NewValues),
		IPAddress:    ctx.IPAddress,
		UserAgent:    ctx.UserAgent,
		RequestID:    ctx.RequestID,
	}
	if err := db.Create(&auditLog).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// LogAuditEvent records an audit entry in the background, logging failures
func LogAuditEvent(db *gorm.DB, ctx AuditContext, entry AuditEntry) {
	go func() {
		if err := RecordAudit(db, ctx, entry); err != nil {
			logger.L().Error("Audit log failed", "resource", entry.ResourceType, "id", entry.ResourceID, "error", err)
		}
	}()
}

func marshalAuditValues(v interface{}) string {
	if v == nil {
		return ""
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory retrieves the audit history of a resource, newest first
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
