package services

import (
	"fmt"
	"testing"
	"time"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBuildReferenceNumber(t *testing.T) {
	assert.Equal(t, "NAIS-2025-00001", BuildReferenceNumber("NAIS", 2025, 1))
	assert.Equal(t, "MAR-2026-00042", BuildReferenceNumber("MAR", 2026, 42))
	assert.Equal(t, "LIV-2026-123456", BuildReferenceNumber("LIV", 2026, 123456))
}

func TestParseReferenceNumber(t *testing.T) {
	c, err := ParseReferenceNumber("DEC-2026-00017")
	require.NoError(t, err)
	assert.Equal(t, "DEC", c.Prefix)
	assert.Equal(t, models.VariantDeath, c.Variant)
	assert.Equal(t, 2026, c.Year)
	assert.Equal(t, 17, c.Seq)

	for _, bad := range []string{"", "NAIS-2026", "XYZ-2026-00001", "NAIS-26-00001", "NAIS-2026-001", "NAIS-2026-00000", "NAIS-2026-abcde"} {
		_, err := ParseReferenceNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextReferenceNumber(t *testing.T) {
	conn := setupTenantDB(t)
	year := time.Now().Year()

	next := func(v models.RequestVariant) string {
		var ref string
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
			var err error
			ref, err = NextReferenceNumber(tx, v, year)
			return err
		}))
		return ref
	}

	t.Run("sequences are per variant", func(t *testing.T) {
		assert.Equal(t, fmt.Sprintf("NAIS-%d-00001", year), next(models.VariantBirth))
		assert.Equal(t, fmt.Sprintf("NAIS-%d-00002", year), next(models.VariantBirth))
		assert.Equal(t, fmt.Sprintf("MAR-%d-00001", year), next(models.VariantMarriage))
	})

	t.Run("counter seeds from existing requests of the year", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			r := &models.CivilRequest{
				ReferenceNumber:    BuildReferenceNumber("DEC", year, i),
				Variant:            models.VariantDeath,
				RequesterLastName:  "Import",
				RequesterFirstName: "Ancien",
				RequesterPhone:     "600000000",
			}
			require.NoError(t, conn.Create(r).Error)
		}
		assert.Equal(t, fmt.Sprintf("DEC-%d-00004", year), next(models.VariantDeath))
	})

	t.Run("a rolled back reservation is not consumed", func(t *testing.T) {
		_ = conn.Transaction(func(tx *gorm.DB) error {
			_, err := NextReferenceNumber(tx, models.VariantFamilyBooklet, year)
			require.NoError(t, err)
			return fmt.Errorf("abort")
		})
		assert.Equal(t, fmt.Sprintf("LIV-%d-00001", year), next(models.VariantFamilyBooklet))
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := NextReferenceNumber(conn, models.RequestVariant("adoption"), year)
		assert.ErrorIs(t, err, ErrUnknownVariant)
	})
}
