package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{name: "ISO date", input: "2026-01-27", expected: time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC)},
		{name: "French date", input: "27/01/2026", expected: time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC)},
		{name: "Surrounding spaces", input: " 2026-01-27 ", expected: time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC)},
		{name: "Invalid format", input: "27-01-2026", wantErr: true},
		{name: "Invalid day", input: "2026-01-32", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate("  ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalDate("2001-09-15")
	require.NoError(t, err)
	assert.Equal(t, 2001, got.Year())

	_, err = ParseOptionalDate("hier")
	assert.Error(t, err)
}
