package services

import (
	"fmt"
	"unicode"

	"e_mairie_go/models"
)

// Password requirements. Agent accounts need the longer, mixed password.
const (
	MinPasswordLength      = 8
	MinAgentPasswordLength = 12
)

// PasswordProblems lists what a password lacks for an account of role
func PasswordProblems(password, role string) []string {
	if role == models.RoleCitizen || role == "" {
		if len(password) < MinPasswordLength {
			return []string{fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", MinPasswordLength)}
		}
		return nil
	}

	var problems []string
	if len(password) < MinAgentPasswordLength {
		problems = append(problems, fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", MinAgentPasswordLength))
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower {
		problems = append(problems, "Le mot de passe doit mélanger majuscules et minuscules")
	}
	if !hasNumber {
		problems = append(problems, "Le mot de passe doit contenir au moins un chiffre")
	}
	if !hasSpecial {
		problems = append(problems, "Le mot de passe doit contenir au moins un caractère spécial")
	}
	return problems
}
