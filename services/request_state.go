package services

import (
	"strings"

	"e_mairie_go/models"
)

// RequestAction is an agent action on a civil-registry request
type RequestAction string

const (
	ActionProcess   RequestAction = "process"
	ActionValidate  RequestAction = "validate"
	ActionReject    RequestAction = "reject"
	ActionReady     RequestAction = "ready"
	ActionDelivered RequestAction = "delivered"
)

// requestTransition describes which statuses an action applies to and where it leads
type requestTransition struct {
	from []string
	to   string
}

var requestTransitions = map[RequestAction]requestTransition{
	ActionProcess: {
		from: []string{models.RequestStatusPending},
		to:   models.RequestStatusProcessing,
	},
	ActionValidate: {
		from: []string{models.RequestStatusPending, models.RequestStatusProcessing},
		to:   models.RequestStatusValidated,
	},
	ActionReject: {
		from: []string{models.RequestStatusPending, models.RequestStatusProcessing, models.RequestStatusValidated, models.RequestStatusReadyForPickup},
		to:   models.RequestStatusRejected,
	},
	ActionReady: {
		from: []string{models.RequestStatusValidated},
		to:   models.RequestStatusReadyForPickup,
	},
	ActionDelivered: {
		from: []string{models.RequestStatusReadyForPickup},
		to:   models.RequestStatusDelivered,
	},
}

// ParseRequestAction accepts the action names of the agent form, in English or French
func ParseRequestAction(s string) (RequestAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "process", "traiter":
		return ActionProcess, true
	case "validate", "valider":
		return ActionValidate, true
	case "reject", "rejeter":
		return ActionReject, true
	case "ready", "pret":
		return ActionReady, true
	case "delivered", "delivre":
		return ActionDelivered, true
	}
	return "", false
}

// NextRequestStatus returns the status an action leads to from the current status.
// The boolean is false when the action is not allowed from that status.
func NextRequestStatus(current string, action RequestAction) (string, bool) {
	t, ok := requestTransitions[action]
	if !ok {
		return "", false
	}
	for _, from := range t.from {
		if from == current {
			return t.to, true
		}
	}
	return "", false
}

// AvailableRequestActions lists the actions an agent may take from a status, in display order
func AvailableRequestActions(current string) []RequestAction {
	var actions []RequestAction
	for _, a := range []RequestAction{ActionProcess, ActionValidate, ActionReady, ActionDelivered, ActionReject} {
		if _, ok := NextRequestStatus(current, a); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// RequestActionLabel returns the French button label of an action
func RequestActionLabel(a RequestAction) string {
	switch a {
	case ActionProcess:
		return "Prendre en charge"
	case ActionValidate:
		return "Valider"
	case ActionReject:
		return "Rejeter"
	case ActionReady:
		return "Prêt pour retrait"
	case ActionDelivered:
		return "Marquer comme délivré"
	}
	return string(a)
}
