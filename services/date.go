package services

import (
	"fmt"
	"strings"
	"time"
)

// formDateLayouts are the date formats accepted from forms: HTML5 date inputs, then the French day-first form
var formDateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseDate parses a form date (YYYY-MM-DD or DD/MM/YYYY) at midnight UTC
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range formDateLayouts {
		if parsed, err := time.Parse(layout, dateStr); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD or DD/MM/YYYY")
}

// ParseOptionalDate returns nil for an empty field
func ParseOptionalDate(dateStr string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	parsed, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
