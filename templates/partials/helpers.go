package partials

import (
	"fmt"
	"time"

	"e_mairie_go/models"
)

// FormatFileSize formats a byte count for display
func FormatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f Mo", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f Ko", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d o", bytes)
	}
}

// FormatDate formats a date the way French forms print it
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatDateTime formats a timestamp as "02/01/2006 15:04"
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// FormatDatePtr formats an optional timestamp, "" when unset
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDateTime(*t)
}

// FormatRelativeTime formats how long ago t was, in French or English
func FormatRelativeTime(lang string, t time.Time) string {
	duration := time.Since(t)
	en := lang == "en"

	plural := func(n int, fr, english string) string {
		unit := fr
		if en {
			unit = english
		}
		if n > 1 {
			unit += "s"
		}
		if en {
			return fmt.Sprintf("%d %s ago", n, unit)
		}
		return fmt.Sprintf("il y a %d %s", n, unit)
	}

	switch {
	case duration < time.Minute:
		if en {
			return "just now"
		}
		return "à l'instant"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute", "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "heure", "hour")
	case duration < 7*24*time.Hour:
		return plural(int(duration.Hours()/24), "jour", "day")
	default:
		return FormatDate(t)
	}
}

// PriorityLabel returns the French label of a complaint priority
func PriorityLabel(priority string) string {
	switch priority {
	case models.ComplaintPriorityLow:
		return "Basse"
	case models.ComplaintPriorityNormal:
		return "Normale"
	case models.ComplaintPriorityHigh:
		return "Haute"
	case models.ComplaintPriorityUrgent:
		return "Urgente"
	}
	return priority
}
