package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/store"
)

// Administrator board auth

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}

	if !s.auth.LoginAdministrator(r.Context(), body.Password) {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	session, _ := s.sessions.Get(r, adminSessionName)
	session.Values["admin"] = true
	if err := session.Save(r, w); err != nil {
		s.logger.Error("Failed to save admin session", "error", err)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAdminChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}

	ok, message := s.auth.ChangeAdministratorPassword(r.Context(), body.Current, body.New)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": ok, "message": message})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, adminSessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Error("Failed to clear admin session", "error", err)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Change records: the viewer list plus the administrator surface

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.ListRecords(r.Context())
	if err != nil {
		// Degrade to an empty board rather than failing the viewers
		s.logger.Error("Failed to list records", "error", err)
		records = nil
	}
	if records == nil {
		records = []models.ChangeRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.syncer.Sync(r.Context()))
}

func (s *Server) handleLastSync(w http.ResponseWriter, r *http.Request) {
	var lastSync *string
	value, err := s.records.GetLastSyncTime(r.Context())
	if err == nil {
		lastSync = &value
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("Failed to read sync checkpoint", "error", err)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"lastSync": lastSync})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	record, err := s.records.GetRecord(r.Context(), id)
	if err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleInsertRecord(w http.ResponseWriter, r *http.Request) {
	var record models.ChangeRecord
	if !s.decodeJSON(w, r, &record) {
		return
	}
	if !s.validateRecord(w, record) {
		return
	}

	if _, err := s.records.InsertRecord(r.Context(), record, ""); err != nil {
		s.logger.Error("Failed to insert record", "error", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var patch models.RecordPatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}

	if err := s.records.UpdateRecord(r.Context(), pathID(r), patch, ""); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.records.DeleteRecord(r.Context(), pathID(r)); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// validateRecord enforces the non-empty invariant on the required fields.
// Reason is absent on purpose: it is derived, never supplied
func (s *Server) validateRecord(w http.ResponseWriter, record models.ChangeRecord) bool {
	var missing []string
	required := []struct{ name, value string }{
		{"date", record.Date},
		{"building", record.Building},
		{"sector", record.Sector},
		{"outgoing", record.Outgoing},
		{"incoming", record.Incoming},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Campos obrigatórios ausentes: " + strings.Join(missing, ", "),
		})
		return false
	}
	return true
}

func (s *Server) respondRecordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Registro não encontrado"})
	case errors.Is(err, store.ErrPermissionDenied):
		s.writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "Sem permissão para alterar este registro"})
	default:
		s.logger.Error("Record operation failed", "error", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}
