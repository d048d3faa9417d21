package services

import (
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizeText strips all markup from single-line user input
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(strings.TrimSpace(s))))
}

// SanitizeMultiline strips markup from free text while keeping line breaks
func SanitizeMultiline(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = SanitizeText(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SanitizeRichText keeps safe formatting in agent-authored content (e-mail bodies, responses)
func SanitizeRichText(s string) string {
	return ugcPolicy.Sanitize(s)
}

// IsValidEmail checks a bare address such as "awa@example.cm"
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}
