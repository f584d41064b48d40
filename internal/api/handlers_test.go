package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/store"
)

// memStore is an in-memory stand-in for the Postgres store with the same
// ownership semantics
type memStore struct {
	nextID   int64
	records  map[int64]models.ChangeRecord
	lastSync string
}

func newMemStore() *memStore {
	return &memStore{records: map[int64]models.ChangeRecord{}}
}

func (m *memStore) ListRecords(context.Context) ([]models.ChangeRecord, error) {
	var out []models.ChangeRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListRecordsByCreator(_ context.Context, username string) ([]models.ChangeRecord, error) {
	var out []models.ChangeRecord
	for _, r := range m.records {
		if r.CreatedBy == username {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRecord(_ context.Context, id int64) (models.ChangeRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return models.ChangeRecord{}, fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	return r, nil
}

func (m *memStore) InsertRecord(_ context.Context, r models.ChangeRecord, createdBy string) (int64, error) {
	m.nextID++
	r.ID = m.nextID
	r.CreatedBy = createdBy
	r.Reason = models.DeriveReason(r.Outgoing)
	m.records[r.ID] = r
	return r.ID, nil
}

func applyPatch(r *models.ChangeRecord, patch models.RecordPatch, editedBy string) {
	if patch.Outgoing != nil {
		r.Outgoing = *patch.Outgoing
		r.Reason = models.DeriveReason(*patch.Outgoing)
	}
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}
	if editedBy != "" {
		r.EditedBy = editedBy
	}
}

func (m *memStore) UpdateRecord(_ context.Context, id int64, patch models.RecordPatch, editedBy string) error {
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	applyPatch(&r, patch, editedBy)
	m.records[id] = r
	return nil
}

func (m *memStore) DeleteRecord(_ context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) UpdateOwnedRecord(_ context.Context, id int64, username string, patch models.RecordPatch) error {
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	if r.CreatedBy != username {
		return fmt.Errorf("record %d: %w", id, store.ErrPermissionDenied)
	}
	applyPatch(&r, patch, username)
	m.records[id] = r
	return nil
}

func (m *memStore) DeleteOwnedRecord(_ context.Context, id int64, username string) error {
	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("record %d: %w", id, store.ErrNotFound)
	}
	if r.CreatedBy != username {
		return fmt.Errorf("record %d: %w", id, store.ErrPermissionDenied)
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) GetLastSyncTime(context.Context) (string, error) {
	if m.lastSync == "" {
		return "", fmt.Errorf("checkpoint: %w", store.ErrNotFound)
	}
	return m.lastSync, nil
}

func (m *memStore) ListOperators(context.Context) ([]models.Operator, error) { return nil, nil }
func (m *memStore) CreateOperator(context.Context, string, string, string, string, string) (int64, error) {
	return 1, nil
}
func (m *memStore) UpdateOperator(context.Context, int64, store.OperatorPatch) error { return nil }
func (m *memStore) DeleteOperator(context.Context, int64) error                      { return nil }

type fakeAuth struct {
	adminPassword string
	profiles      map[string]models.OperatorProfile
}

func (f *fakeAuth) LoginAdministrator(_ context.Context, password string) bool {
	return password == f.adminPassword
}

func (f *fakeAuth) ChangeAdministratorPassword(_ context.Context, current, updated string) (bool, string) {
	if current != f.adminPassword {
		return false, "Senha atual incorreta"
	}
	f.adminPassword = updated
	return true, "Senha alterada com sucesso"
}

func (f *fakeAuth) LoginOperator(_ context.Context, username, password string) (models.OperatorProfile, bool) {
	p, ok := f.profiles[username]
	if !ok || password != "s3nha" {
		return models.OperatorProfile{}, false
	}
	return p, true
}

type fakeSyncer struct {
	result   models.SyncResult
	ingested []models.SnapshotRow
}

func (f *fakeSyncer) Sync(context.Context) models.SyncResult { return f.result }
func (f *fakeSyncer) IngestBatch(_ context.Context, rows []models.SnapshotRow) models.SyncResult {
	f.ingested = rows
	return models.SyncResult{Success: true, Count: len(rows)}
}

func newTestServer(records *memStore, syncer SyncRunner) *Server {
	gate := &fakeAuth{
		adminPassword: "admin123",
		profiles: map[string]models.OperatorProfile{
			"alice": {ID: 1, Username: "alice", DisplayName: "Alice", Role: models.RoleOperator},
		},
	}
	return NewServer(records, records, gate, syncer, "test-key", slog.New(slog.DiscardHandler))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func validRecordBody() map[string]any {
	return map[string]any{
		"date": "21/06/2025", "building": "UPA", "sector": "Enfermagem",
		"outgoing": "Maria Silva - férias", "incoming": "João Souza",
	}
}

func TestOwnershipEnforcement(t *testing.T) {
	records := newMemStore()
	router := newTestServer(records, &fakeSyncer{}).Router()

	// alice creates a record through the audited insert
	body := validRecordBody()
	body["username"] = "alice"
	rec, resp := doJSON(t, router, http.MethodPost, "/api/operators/records", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["success"])
	require.Len(t, records.records, 1)

	// bob cannot delete it
	rec, resp = doJSON(t, router, http.MethodDelete, "/api/operators/records/1?username=bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Len(t, records.records, 1, "record survives the denied delete")

	// alice can
	rec, resp = doJSON(t, router, http.MethodDelete, "/api/operators/records/1?username=alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Empty(t, records.records)
}

func TestOwnedUpdateNeverTouchesCreatedBy(t *testing.T) {
	records := newMemStore()
	router := newTestServer(records, &fakeSyncer{}).Router()

	body := validRecordBody()
	body["username"] = "alice"
	doJSON(t, router, http.MethodPost, "/api/operators/records", body)

	rec, _ := doJSON(t, router, http.MethodPut, "/api/operators/records/1", map[string]any{
		"username": "alice",
		"data":     map[string]any{"outgoing": "Pedro Costa - atestado"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := records.records[1]
	assert.Equal(t, "alice", updated.CreatedBy)
	assert.Equal(t, "alice", updated.EditedBy)
	assert.Equal(t, "Costa - atestado", updated.Reason, "reason follows the new outgoing value")
}

func TestInsertRecordValidation(t *testing.T) {
	router := newTestServer(newMemStore(), &fakeSyncer{}).Router()

	body := validRecordBody()
	delete(body, "building")
	body["incoming"] = "  "

	rec, resp := doJSON(t, router, http.MethodPost, "/api/records", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["message"], "building")
	assert.Contains(t, resp["message"], "incoming")
}

func TestAdminLogin(t *testing.T) {
	router := newTestServer(newMemStore(), &fakeSyncer{}).Router()

	rec, resp := doJSON(t, router, http.MethodPost, "/api/auth/admin/login", map[string]any{"password": "admin123"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, rec.Result().Cookies(), "successful login sets the board session cookie")

	rec, resp = doJSON(t, router, http.MethodPost, "/api/auth/admin/login", map[string]any{"password": "nope"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Empty(t, rec.Result().Cookies())
}

func TestOperatorLoginHandler(t *testing.T) {
	router := newTestServer(newMemStore(), &fakeSyncer{}).Router()

	rec, resp := doJSON(t, router, http.MethodPost, "/api/operators/login", map[string]any{"username": "alice", "password": "s3nha"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	profile := resp["profile"].(map[string]any)
	assert.Equal(t, "alice", profile["username"])

	_, resp = doJSON(t, router, http.MethodPost, "/api/operators/login", map[string]any{"username": "alice", "password": "errada"})
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Usuário ou senha incorretos", resp["message"])
}

func TestLastSync(t *testing.T) {
	records := newMemStore()
	router := newTestServer(records, &fakeSyncer{}).Router()

	_, resp := doJSON(t, router, http.MethodGet, "/api/records/last-sync", nil)
	assert.Nil(t, resp["lastSync"], "no sync yet reports null, not an error")

	records.lastSync = "2025-06-21T12:00:00Z"
	_, resp = doJSON(t, router, http.MethodGet, "/api/records/last-sync", nil)
	assert.Equal(t, "2025-06-21T12:00:00Z", resp["lastSync"])
}

func TestSyncEndpoint(t *testing.T) {
	syncer := &fakeSyncer{result: models.SyncResult{Success: true, Count: 7}}
	router := newTestServer(newMemStore(), syncer).Router()

	rec, resp := doJSON(t, router, http.MethodPost, "/api/records/sync", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(7), resp["count"])
}

func TestWebhookIngest(t *testing.T) {
	t.Run("empty batch rejected instead of wiping", func(t *testing.T) {
		syncer := &fakeSyncer{}
		router := newTestServer(newMemStore(), syncer).Router()

		rec, resp := doJSON(t, router, http.MethodPost, "/api/webhook/records", map[string]any{"records": []any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, resp["success"])
		assert.Nil(t, syncer.ingested)
	})

	t.Run("batch applied, dateless rows dropped", func(t *testing.T) {
		syncer := &fakeSyncer{}
		router := newTestServer(newMemStore(), syncer).Router()

		rec, resp := doJSON(t, router, http.MethodPost, "/api/webhook/records", map[string]any{
			"records": []map[string]any{
				{"date": "21/06/2025", "building": "UPA", "sector": "X", "outgoing": "A B", "incoming": "C"},
				{"date": "", "building": "HOB"},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, float64(1), resp["count"])
		require.Len(t, syncer.ingested, 1)
	})
}

func TestListRecordsDegradesToEmpty(t *testing.T) {
	router := newTestServer(newMemStore(), &fakeSyncer{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String(), "empty board is an empty array, never null")
}
