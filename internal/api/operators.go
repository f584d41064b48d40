package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/santacasa-ti/plantao-board/internal/auth"
	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/store"
)

func (s *Server) handleOperatorLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}

	profile, ok := s.auth.LoginOperator(r.Context(), body.Username, body.Password)
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Usuário ou senha incorretos"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (s *Server) handleListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := s.operators.ListOperators(r.Context())
	if err != nil {
		s.logger.Error("Failed to list operators", "error", err)
		operators = nil
	}
	if operators == nil {
		operators = []models.Operator{}
	}
	s.writeJSON(w, http.StatusOK, operators)
}

func (s *Server) handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" || body.DisplayName == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Usuário, senha e nome são obrigatórios"})
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		s.logger.Error("Failed to hash operator password", "error", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	if _, err := s.operators.CreateOperator(r.Context(), body.Username, hash, body.DisplayName, body.Email, models.RoleOperator); err != nil {
		s.logger.Error("Failed to create operator", "username", body.Username, "error", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpdateOperator(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName *string `json:"displayName,omitempty"`
		Email       *string `json:"email,omitempty"`
		Active      *bool   `json:"active,omitempty"`
		Password    *string `json:"password,omitempty"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}

	patch := store.OperatorPatch{
		DisplayName: body.DisplayName,
		Email:       body.Email,
		Active:      body.Active,
	}
	if body.Password != nil && *body.Password != "" {
		// Administrator-driven reset, no current-secret check
		hash, err := auth.HashPassword(*body.Password)
		if err != nil {
			s.logger.Error("Failed to hash operator password", "error", err)
			s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}
		patch.PasswordHash = &hash
	}

	if err := s.operators.UpdateOperator(r.Context(), pathID(r), patch); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteOperator(w http.ResponseWriter, r *http.Request) {
	if err := s.operators.DeleteOperator(r.Context(), pathID(r)); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Operator-scoped record surface ("my records")

func (s *Server) handleListOwnRecords(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	records, err := s.records.ListRecordsByCreator(r.Context(), username)
	if err != nil {
		s.logger.Error("Failed to list operator records", "username", username, "error", err)
		records = nil
	}
	if records == nil {
		records = []models.ChangeRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleInsertOwnRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		models.ChangeRecord
		Username string `json:"username"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if body.Username == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Usuário é obrigatório"})
		return
	}
	if !s.validateRecord(w, body.ChangeRecord) {
		return
	}

	if _, err := s.records.InsertRecord(r.Context(), body.ChangeRecord, body.Username); err != nil {
		s.logger.Error("Failed to insert attributed record", "username", body.Username, "error", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpdateOwnRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string             `json:"username"`
		Data     models.RecordPatch `json:"data"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if body.Username == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Usuário é obrigatório"})
		return
	}

	if err := s.records.UpdateOwnedRecord(r.Context(), pathID(r), body.Username, body.Data); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteOwnRecord(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Usuário é obrigatório"})
		return
	}

	if err := s.records.DeleteOwnedRecord(r.Context(), pathID(r), username); err != nil {
		s.respondRecordError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
