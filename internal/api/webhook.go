package api

import (
	"net/http"
	"strings"

	"github.com/santacasa-ti/plantao-board/internal/models"
)

// handleWebhookIngest receives a full batch pushed by the sheet-side Apps
// Script and applies it through the same full-replace path as a sync. An
// empty batch is rejected instead of wiping the board: the push script sends
// the whole sheet every time, so an empty payload means it is broken
func (s *Server) handleWebhookIngest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []models.SnapshotRow `json:"records"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if len(body.Records) == 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Formato inválido"})
		return
	}

	rows := make([]models.SnapshotRow, 0, len(body.Records))
	for _, row := range body.Records {
		if strings.TrimSpace(row.Date) == "" {
			continue
		}
		rows = append(rows, row)
	}

	result := s.syncer.IngestBatch(r.Context(), rows)
	status := http.StatusOK
	message := "Dados recebidos e salvos com sucesso"
	if !result.Success {
		status = http.StatusInternalServerError
		message = "Erro ao processar dados"
	}
	s.writeJSON(w, status, map[string]any{
		"success": result.Success,
		"count":   result.Count,
		"message": message,
	})
}
