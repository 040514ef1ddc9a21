package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bestea_pos/internal/api"
	"bestea_pos/internal/config"
	"bestea_pos/internal/connectivity"
	"bestea_pos/internal/pos"
	"bestea_pos/internal/register"
	"bestea_pos/internal/shift"
	"bestea_pos/internal/store"
	"bestea_pos/internal/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/keep-alive":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		case "/api/transactions", "/api/expenses", "/api/attendance":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "x-1"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{})
		}
	}))
	t.Cleanup(backend.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{APIBaseURL: backend.URL, BranchID: "branch-1", Timeout: 2 * time.Second, PingInterval: time.Minute}
	client := api.NewClient(cfg, zap.NewNop())
	shiftMgr := shift.NewManager(st, client, zap.NewNop())
	engine := syncer.NewEngine(st, client, shiftMgr, syncer.DefaultRetryPolicy(), zap.NewNop())
	monitor := connectivity.NewMonitor(cfg, client, st, engine, zap.NewNop())
	svc := register.NewService(cfg, client, st, shiftMgr, zap.NewNop())

	return NewRouter(NewHandler(monitor, svc)), st
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	r, st := setupRouter(t)

	_, err := st.Enqueue(pos.QueueItem{
		Kind:    pos.KindExpense,
		Payload: pos.QueuePayload{Expense: &pos.Expense{Category: "ice", Amount: 5000, BranchID: "branch-1"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/v1/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body connectivity.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.PendingCount)
	assert.False(t, body.Syncing)
}

func TestManualSyncDrainsQueue(t *testing.T) {
	r, st := setupRouter(t)

	_, err := st.Enqueue(pos.QueueItem{
		Kind:    pos.KindExpense,
		Payload: pos.QueuePayload{Expense: &pos.Expense{Category: "ice", Amount: 5000, BranchID: "branch-1"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/pos/v1/sync", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rep syncer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Synced)
	assert.Equal(t, 0, rep.Pending)

	count, err := st.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestShiftEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/pos/v1/shift", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Open    bool        `json:"open"`
		Session pos.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Open)
}
