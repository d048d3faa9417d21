package components

import (
	"testing"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	var none []models.BlockedDate
	assert.Equal(t, "[]", JSON(none))

	typeID := "type-1"
	closures := []models.BlockedDate{{ID: "c1", Date: "2030-06-03", AppointmentTypeID: &typeID, Reason: "Fête nationale"}}
	assert.Equal(t, `[{"id":"c1","created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z","date":"2030-06-03","type_rdv":"type-1","motif":"Fête nationale"}]`, JSON(closures))

	assert.Equal(t, "null", JSON(make(chan int)))
}
