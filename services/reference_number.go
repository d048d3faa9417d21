package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"e_mairie_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceNumberComponents contains the parsed parts of a reference number
// Format: {PREFIX}-{YYYY}-{SEQ} where SEQ is zero padded to 5 digits ("NAIS-2025-00042")
type ReferenceNumberComponents struct {
	Prefix  string
	Variant models.RequestVariant
	Year    int
	Seq     int
}

// BuildReferenceNumber formats a reference number. Sequences beyond 99999 keep all their digits.
func BuildReferenceNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}

// ParseReferenceNumber splits a reference number into its components
func ParseReferenceNumber(reference string) (*ReferenceNumberComponents, error) {
	parts := strings.Split(strings.TrimSpace(reference), "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("reference number must have 3 dash-separated parts, got %d", len(parts))
	}

	var variant models.RequestVariant
	for _, v := range models.AllVariants {
		if v.Prefix() == parts[0] {
			variant = v
			break
		}
	}
	if variant == "" {
		return nil, fmt.Errorf("unknown reference prefix %q", parts[0])
	}

	if len(parts[1]) != 4 {
		return nil, fmt.Errorf("reference year must have 4 digits, got %q", parts[1])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid reference year %q", parts[1])
	}

	if len(parts[2]) < 5 {
		return nil, fmt.Errorf("reference sequence must have at least 5 digits, got %q", parts[2])
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return nil, fmt.Errorf("invalid reference sequence %q", parts[2])
	}

	return &ReferenceNumberComponents{Prefix: parts[0], Variant: variant, Year: year, Seq: seq}, nil
}

// NextReferenceNumber reserves the next sequence number for (variant, year) and returns the
// formatted reference. It must run inside the transaction that inserts the request: the counter
// row is seeded with the number of requests of that variant already created that year and then
// incremented atomically, so concurrent submissions never share a number.
func NextReferenceNumber(tx *gorm.DB, variant models.RequestVariant, year int) (string, error) {
	if !variant.IsValid() {
		return "", ErrUnknownVariant
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(1, 0, 0)

	var existing int64
	if err := tx.Model(&models.CivilRequest{}).
		Where("variant = ? AND created_at >= ? AND created_at < ?", variant, start, end).
		Count(&existing).Error; err != nil {
		return "", fmt.Errorf("failed to count %s requests: %w", variant, err)
	}

	seed := &models.ReferenceCounter{Variant: variant, Year: year, LastSeq: int(existing)}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return "", fmt.Errorf("failed to seed reference counter: %w", err)
	}

	if err := tx.Model(&models.ReferenceCounter{}).
		Where("variant = ? AND year = ?", variant, year).
		Update("last_seq", gorm.Expr("last_seq + 1")).Error; err != nil {
		return "", fmt.Errorf("failed to increment reference counter: %w", err)
	}

	var counter models.ReferenceCounter
	if err := tx.Where("variant = ? AND year = ?", variant, year).First(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to read reference counter: %w", err)
	}

	return BuildReferenceNumber(variant.Prefix(), year, counter.LastSeq), nil
}
