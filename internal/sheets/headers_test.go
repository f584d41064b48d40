package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldHeader(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Prédio", "predio"},
		{"Predio", "predio"},
		{"  Observações ", "observacoes"},
		{"DATA", "data"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, foldHeader(tt.in))
	}
}

func TestResolveColumns(t *testing.T) {
	t.Run("accented production header", func(t *testing.T) {
		header := []string{"Data", "Prédio", "Setor", "Sai (Motivo)", "Entra", "Observações"}
		cols := resolveColumns(header)

		assert.Equal(t, 0, cols[conceptDate])
		assert.Equal(t, 1, cols[conceptBuilding])
		assert.Equal(t, 2, cols[conceptSector])
		assert.Equal(t, 3, cols[conceptOutgoing])
		assert.Equal(t, 4, cols[conceptIncoming])
		assert.Equal(t, 5, cols[conceptNotes])
	})

	t.Run("lowercase unaccented variant resolves identically", func(t *testing.T) {
		accented := resolveColumns([]string{"Data", "Prédio", "Setor", "Sai (Motivo)", "Entra", "Observações"})
		plain := resolveColumns([]string{"data", "predio", "setor", "sai", "entra", "observacoes"})
		assert.Equal(t, accented, plain)
	})

	t.Run("reordered columns", func(t *testing.T) {
		cols := resolveColumns([]string{"Setor", "Data", "Entra", "Sai", "Prédio"})

		assert.Equal(t, 1, cols[conceptDate])
		assert.Equal(t, 4, cols[conceptBuilding])
		assert.Equal(t, 0, cols[conceptSector])
		assert.Equal(t, 3, cols[conceptOutgoing])
		assert.Equal(t, 2, cols[conceptIncoming])
		assert.Equal(t, absentColumn, cols[conceptNotes])
	})

	t.Run("missing concepts resolve to absent, not error", func(t *testing.T) {
		cols := resolveColumns([]string{"Data"})

		assert.Equal(t, 0, cols[conceptDate])
		for _, c := range []concept{conceptBuilding, conceptSector, conceptOutgoing, conceptIncoming, conceptNotes} {
			assert.Equal(t, absentColumn, cols[c])
		}
	})
}

func TestCellAt(t *testing.T) {
	row := []string{"21/06/2025", " UPA "}

	assert.Equal(t, "21/06/2025", cellAt(row, 0))
	assert.Equal(t, "UPA", cellAt(row, 1), "cells are trimmed")
	assert.Equal(t, "", cellAt(row, 5), "ragged rows resolve to empty")
	assert.Equal(t, "", cellAt(row, absentColumn))
}
