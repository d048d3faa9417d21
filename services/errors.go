package services

import (
	"errors"
	"strings"
)

var (
	ErrUnknownTenant     = errors.New("no active mairie for this host")
	ErrUnknownVariant    = errors.New("unknown civil request variant")
	ErrRequestNotFound   = errors.New("civil request not found")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidTransition = errors.New("action not allowed in the current status")
)

// ValidationError carries user-facing problems found in submitted input
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// ValidationProblems returns the problems of a *ValidationError, or nil
func ValidationProblems(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return nil
}
