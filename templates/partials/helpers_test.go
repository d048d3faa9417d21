package partials

import (
	"testing"
	"time"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 o", FormatFileSize(512))
	assert.Equal(t, "1.5 Ko", FormatFileSize(1536))
	assert.Equal(t, "2.0 Mo", FormatFileSize(2*1024*1024))
}

func TestFormatDates(t *testing.T) {
	d := time.Date(2026, time.March, 9, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "09/03/2026", FormatDate(d))
	assert.Equal(t, "09/03/2026 14:05", FormatDateTime(d))
	assert.Equal(t, "09/03/2026 14:05", FormatDatePtr(&d))
	assert.Empty(t, FormatDatePtr(nil))
	assert.Empty(t, FormatDate(time.Time{}))
}

func TestFormatRelativeTime(t *testing.T) {
	assert.Equal(t, "à l'instant", FormatRelativeTime("fr", time.Now()))
	assert.Equal(t, "il y a 3 heures", FormatRelativeTime("fr", time.Now().Add(-3*time.Hour-time.Minute)))
	assert.Equal(t, "1 day ago", FormatRelativeTime("en", time.Now().Add(-25*time.Hour)))

	old := time.Now().AddDate(0, -2, 0)
	assert.Equal(t, FormatDate(old), FormatRelativeTime("fr", old))
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "Urgente", PriorityLabel(models.ComplaintPriorityUrgent))
	assert.Equal(t, "x", PriorityLabel("x"))
}
