package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valetproj/valet/internal/pairing"
)

func newTestServer(t *testing.T) (*Server, *pairing.Gate) {
	t.Helper()
	store, err := pairing.OpenStore(filepath.Join(t.TempDir(), "pairing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	gate := pairing.NewGate(store)
	return NewServer("127.0.0.1:0", gate), gate
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveAndListAndRevoke(t *testing.T) {
	srv, gate := newTestServer(t)

	code, err := gate.IssueCode("telegram", "42", "Alice")
	require.NoError(t, err)

	body := strings.NewReader(`{"code":"` + code + `","approved_by":"cli"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pairings/approve", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pairings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []pairingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "42", list[0].UserID)
	require.Equal(t, "cli", list[0].ApprovedBy)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/pairings/telegram/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ok, err := gate.IsApproved("telegram", "42")
	require.NoError(t, err)
	require.False(t, ok, "pairing should be gone after revoke")
}

func TestApproveUnknownCode(t *testing.T) {
	srv, _ := newTestServer(t)
	body := strings.NewReader(`{"code":"NOPE99"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pairings/approve", body))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveBadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pairings/approve", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
