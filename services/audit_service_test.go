package services

import (
	"testing"
	"time"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAudit(t *testing.T) {
	conn := setupTenantDB(t)
	agent := createTestAgent(t, conn, models.RoleCivilRegistryAgent)
	ctx := AuditContextForUser(agent, "10.0.0.1", "Mozilla/5.0")
	ctx.RequestID = "req-7f3a"

	err := RecordAudit(conn, ctx, AuditEntry{
		Action:       models.AuditActionTransition,
		ResourceType: models.AuditResourceCivilRequest,
		ResourceID:   "req-1",
		ResourceName: "NAIS-2026-00001",
		Description:  "validate: pending -> validated",
		OldValues:    map[string]string{"status": "pending"},
		NewValues:    map[string]string{"status": "validated"},
	})
	require.NoError(t, err)

	logs, err := GetResourceAuditHistory(conn, "CivilRequest", "req-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)

	entry := logs[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, agent.ID, *entry.UserID)
	assert.Equal(t, agent.FullName(), entry.UserName)
	assert.Equal(t, models.RoleCivilRegistryAgent, entry.UserRole)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Equal(t, "req-7f3a", entry.RequestID)

	change := entry.StatusChange()
	require.NotNil(t, change)
	assert.Equal(t, "pending", change.From)
	assert.Equal(t, "validated", change.To)

	t.Run("entries cannot be changed", func(t *testing.T) {
		err := conn.Model(&entry).Update("description", "edited").Error
		assert.ErrorIs(t, err, models.ErrAuditLogImmutable)
		err = conn.Delete(&entry).Error
		assert.ErrorIs(t, err, models.ErrAuditLogImmutable)
	})
}

func TestStatusChangeIgnoresOtherEntries(t *testing.T) {
	assert.Nil(t, (&models.AuditLog{Action: models.AuditActionLogin}).StatusChange())
	assert.Nil(t, (&models.AuditLog{OldValues: `{"status":"pending"}`, NewValues: `{"status":"pending"}`}).StatusChange())
	assert.Nil(t, (&models.AuditLog{OldValues: `{"status":"pending"}`, NewValues: `not json`}).StatusChange())

	change := (&models.AuditLog{OldValues: `{"status":"validated"}`, NewValues: `{"status":"rejected","note":"Pièce illisible"}`}).StatusChange()
	require.NotNil(t, change)
	assert.Equal(t, "Pièce illisible", change.Note)
}

func TestAuditContextForAnonymous(t *testing.T) {
	ctx := AuditContextForUser(nil, "10.0.0.2", "curl")
	assert.Empty(t, ctx.UserID)
	assert.Equal(t, "anonyme", ctx.UserName)
	assert.Equal(t, "public", ctx.UserRole)
}

func TestLogAuditEvent(t *testing.T) {
	conn := setupTenantDB(t)
	LogAuditEvent(conn, AuditContextForUser(nil, "10.0.0.3", "curl"), AuditEntry{
		Action:       models.AuditActionExport,
		ResourceType: "CivilRegister",
		ResourceID:   "2026",
	})

	assert.Eventually(t, func() bool {
		logs, err := GetResourceAuditHistory(conn, "CivilRegister", "2026")
		return err == nil && len(logs) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
