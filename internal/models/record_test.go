package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveReason(t *testing.T) {
	tests := []struct {
		name     string
		outgoing string
		expected string
	}{
		{"name with reason", "Maria Silva - férias", "Silva - férias"},
		{"single token", "Maria", ""},
		{"empty", "", ""},
		{"spaces only", "   ", ""},
		{"two tokens", "Maria atestado", "atestado"},
		{"extra whitespace", "  Maria   Silva  ", "Silva"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveReason(tt.outgoing))
		})
	}
}

func TestSnapshotRowRecord(t *testing.T) {
	row := SnapshotRow{
		Date:     "21/06/2025",
		Building: "UPA",
		Sector:   "Enfermagem",
		Outgoing: "Maria Silva - férias",
		Incoming: "João Souza",
		Notes:    "cobre o fim de semana",
	}

	record := row.Record()

	assert.Equal(t, "21/06/2025", record.Date)
	assert.Equal(t, "UPA", record.Building)
	assert.Equal(t, "Silva - férias", record.Reason)
	assert.Empty(t, record.CreatedBy, "spreadsheet-sourced rows carry no attribution")
	assert.Zero(t, record.ID)
}
