package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hireloop/keypool/internal/keypool"
)

func newManager(t *testing.T) (*keypool.Manager, *keypool.Pool[string]) {
	t.Helper()

	pool := keypool.New("completion", []string{"k1", "k2"}, func(cred string) (string, error) {
		return cred, nil
	}, keypool.Options{Cooldown: time.Hour})

	mgr := keypool.NewManager()
	mgr.Register("completion", pool)
	return mgr, pool
}

func TestHandleStatus(t *testing.T) {
	mgr, pool := newManager(t)
	pool.RecordFailure("k1")
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body map[string]keypool.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	snap := body["completion"]
	if snap.Total != 2 || snap.Quarantined != 1 || snap.Available != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHandleReset(t *testing.T) {
	mgr, pool := newManager(t)
	pool.RecordFailure("k1")
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset?service=completion", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if pool.Snapshot().Quarantined != 0 {
		t.Error("pool still quarantined after reset")
	}
}

func TestHandleResetRejectsGet(t *testing.T) {
	mgr, _ := newManager(t)
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reset", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status code = %d, want 405", rec.Code)
	}
}

func TestHandleResetUnknownService(t *testing.T) {
	mgr, _ := newManager(t)
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset?service=ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	mgr, _ := newManager(t)
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200", rec.Code)
	}
}

func TestHandleHealthDegradedWithoutCredentials(t *testing.T) {
	empty := keypool.New("mailer", nil, func(cred string) (string, error) {
		return cred, nil
	}, keypool.Options{})
	mgr := keypool.NewManager()
	mgr.Register("mailer", empty)
	srv := NewServer(mgr, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", rec.Code)
	}
}
