package services

import (
	"context"
	"testing"
	"time"

	"e_mairie_go/models"
	"e_mairie_go/services/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCivilRegister(t *testing.T) {
	require.NoError(t, i18n.Load())
	conn := setupTenantDB(t)
	agent := createTestAgent(t, conn, models.RoleCivilRegistryAgent)

	first, err := CreateCivilRequest(conn, birthInput())
	require.NoError(t, err)
	_, err = CreateCivilRequest(conn, birthInput())
	require.NoError(t, err)
	_, err = TransitionCivilRequest(conn, models.VariantBirth, first.ID, ActionReject, agent, "Acte introuvable", AuditContextForUser(agent, "", ""))
	require.NoError(t, err)

	buf, err := ExportCivilRegister(context.Background(), conn, time.Now().Year())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, len(models.AllVariants))
	assert.Equal(t, models.VariantBirth.Label(), sheets[0])

	rows, err := f.GetRows(models.VariantBirth.Label())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Référence", rows[0][0])
	assert.Equal(t, first.ReferenceNumber, rows[1][0])
	assert.Equal(t, "Acte introuvable", rows[1][8])

	empty, err := f.GetRows(models.VariantDeath.Label())
	require.NoError(t, err)
	assert.Len(t, empty, 1)

	t.Run("other years are empty", func(t *testing.T) {
		buf, err := ExportCivilRegister(context.Background(), conn, 2001)
		require.NoError(t, err)
		f, err := excelize.OpenReader(buf)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(models.VariantBirth.Label())
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestRegisterExportFileName(t *testing.T) {
	assert.Equal(t, "registre_yaounde_1_2026.xlsx", RegisterExportFileName("yaounde_1", 2026))
}

func TestExportNewsletterSubscribers(t *testing.T) {
	require.NoError(t, i18n.Load())
	conn := setupTenantDB(t)

	_, err := SubscribeNewsletter(conn, "Abena@Example.cm", "Abena", "Marie")
	require.NoError(t, err)
	gone, err := SubscribeNewsletter(conn, "parti@example.cm", "Fouda", "Paul")
	require.NoError(t, err)
	_, err = UnsubscribeNewsletter(conn, gone.UnsubscribeToken)
	require.NoError(t, err)

	buf, err := ExportNewsletterSubscribers(context.Background(), conn)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Abonnés")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Adresse e-mail", rows[0][0])
	assert.Equal(t, "abena@example.cm", rows[1][0])
	assert.Equal(t, "Abena", rows[1][1])
}
