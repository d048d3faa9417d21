package services

import (
	"testing"

	"e_mairie_go/models"

	"github.com/stretchr/testify/assert"
)

func TestNextRequestStatus(t *testing.T) {
	tests := []struct {
		from   string
		action RequestAction
		to     string
		ok     bool
	}{
		{models.RequestStatusPending, ActionProcess, models.RequestStatusProcessing, true},
		{models.RequestStatusPending, ActionValidate, models.RequestStatusValidated, true},
		{models.RequestStatusProcessing, ActionValidate, models.RequestStatusValidated, true},
		{models.RequestStatusPending, ActionReject, models.RequestStatusRejected, true},
		{models.RequestStatusReadyForPickup, ActionReject, models.RequestStatusRejected, true},
		{models.RequestStatusValidated, ActionReady, models.RequestStatusReadyForPickup, true},
		{models.RequestStatusReadyForPickup, ActionDelivered, models.RequestStatusDelivered, true},

		{models.RequestStatusPending, ActionReady, "", false},
		{models.RequestStatusPending, ActionDelivered, "", false},
		{models.RequestStatusValidated, ActionProcess, "", false},
		{models.RequestStatusValidated, ActionValidate, "", false},
		{models.RequestStatusRejected, ActionValidate, "", false},
		{models.RequestStatusRejected, ActionReject, "", false},
		{models.RequestStatusDelivered, ActionReject, "", false},
		{models.RequestStatusDelivered, ActionReady, "", false},
		{models.RequestStatusPending, RequestAction("archive"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_"+string(tt.action), func(t *testing.T) {
			to, ok := NextRequestStatus(tt.from, tt.action)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTerminalStatusesHaveNoActions(t *testing.T) {
	assert.Empty(t, AvailableRequestActions(models.RequestStatusRejected))
	assert.Empty(t, AvailableRequestActions(models.RequestStatusDelivered))
	assert.Equal(t, []RequestAction{ActionProcess, ActionValidate, ActionReject}, AvailableRequestActions(models.RequestStatusPending))
	assert.Equal(t, []RequestAction{ActionDelivered, ActionReject}, AvailableRequestActions(models.RequestStatusReadyForPickup))
}

func TestParseRequestAction(t *testing.T) {
	a, ok := ParseRequestAction("Valider")
	assert.True(t, ok)
	assert.Equal(t, ActionValidate, a)

	a, ok = ParseRequestAction(" reject ")
	assert.True(t, ok)
	assert.Equal(t, ActionReject, a)

	_, ok = ParseRequestAction("supprimer")
	assert.False(t, ok)
}
