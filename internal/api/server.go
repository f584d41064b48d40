package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/store"
)

// RecordStore is the slice of the store the HTTP surface needs for change
// records and the sync checkpoint
type RecordStore interface {
	ListRecords(ctx context.Context) ([]models.ChangeRecord, error)
	ListRecordsByCreator(ctx context.Context, username string) ([]models.ChangeRecord, error)
	GetRecord(ctx context.Context, id int64) (models.ChangeRecord, error)
	InsertRecord(ctx context.Context, r models.ChangeRecord, createdBy string) (int64, error)
	UpdateRecord(ctx context.Context, id int64, patch models.RecordPatch, editedBy string) error
	DeleteRecord(ctx context.Context, id int64) error
	UpdateOwnedRecord(ctx context.Context, id int64, username string, patch models.RecordPatch) error
	DeleteOwnedRecord(ctx context.Context, id int64, username string) error
	GetLastSyncTime(ctx context.Context) (string, error)
}

// OperatorStore is the slice of the store for operator account management
type OperatorStore interface {
	ListOperators(ctx context.Context) ([]models.Operator, error)
	CreateOperator(ctx context.Context, username, passwordHash, displayName, email, role string) (int64, error)
	UpdateOperator(ctx context.Context, id int64, patch store.OperatorPatch) error
	DeleteOperator(ctx context.Context, id int64) error
}

// SyncRunner triggers reconciliation runs
type SyncRunner interface {
	Sync(ctx context.Context) models.SyncResult
	IngestBatch(ctx context.Context, rows []models.SnapshotRow) models.SyncResult
}

// Authenticator validates the three credential kinds
type Authenticator interface {
	LoginAdministrator(ctx context.Context, password string) bool
	ChangeAdministratorPassword(ctx context.Context, current, updated string) (bool, string)
	LoginOperator(ctx context.Context, username, password string) (models.OperatorProfile, bool)
}

const adminSessionName = "plantao-admin"

// Server carries the handler dependencies and builds the router
type Server struct {
	records   RecordStore
	operators OperatorStore
	auth      Authenticator
	syncer    SyncRunner
	sessions  *sessions.CookieStore
	logger    *slog.Logger
}

func NewServer(records RecordStore, operators OperatorStore, auth Authenticator, syncer SyncRunner, sessionKey string, logger *slog.Logger) *Server {
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))
	cookieStore.Options.Path = "/"
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		records:   records,
		operators: operators,
		auth:      auth,
		syncer:    syncer,
		sessions:  cookieStore,
		logger:    logger,
	}
}

// Router wires the RPC surface. Administrator-only routes are a convention
// of the clients, not enforced transport-side, mirroring the board's trust
// model of a small internal tool
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/admin/login", s.handleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/admin/password", s.handleAdminChangePassword).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/api/records", s.handleListRecords).Methods(http.MethodGet)
	r.HandleFunc("/api/records", s.handleInsertRecord).Methods(http.MethodPost)
	r.HandleFunc("/api/records/sync", s.handleSync).Methods(http.MethodPost)
	r.HandleFunc("/api/records/last-sync", s.handleLastSync).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{id:[0-9]+}", s.handleGetRecord).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{id:[0-9]+}", s.handleUpdateRecord).Methods(http.MethodPut)
	r.HandleFunc("/api/records/{id:[0-9]+}", s.handleDeleteRecord).Methods(http.MethodDelete)

	r.HandleFunc("/api/operators/login", s.handleOperatorLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/operators", s.handleListOperators).Methods(http.MethodGet)
	r.HandleFunc("/api/operators", s.handleCreateOperator).Methods(http.MethodPost)
	r.HandleFunc("/api/operators/records", s.handleInsertOwnRecord).Methods(http.MethodPost)
	r.HandleFunc("/api/operators/records/{id:[0-9]+}", s.handleUpdateOwnRecord).Methods(http.MethodPut)
	r.HandleFunc("/api/operators/records/{id:[0-9]+}", s.handleDeleteOwnRecord).Methods(http.MethodDelete)
	r.HandleFunc("/api/operators/{id:[0-9]+}", s.handleUpdateOperator).Methods(http.MethodPut)
	r.HandleFunc("/api/operators/{id:[0-9]+}", s.handleDeleteOperator).Methods(http.MethodDelete)
	r.HandleFunc("/api/operators/{username}/records", s.handleListOwnRecords).Methods(http.MethodGet)

	r.HandleFunc("/api/webhook/records", s.handleWebhookIngest).Methods(http.MethodPost)
	r.HandleFunc("/api/webhook/health", s.handleWebhookHealth).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "JSON inválido"})
		return false
	}
	return true
}

func (s *Server) handleWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
