package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
)

func TestNewWiresSQLiteApp(t *testing.T) {
	t.Setenv("LOG_MODE", "test")
	t.Setenv("JWT_SECRET_KEY", "app-test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("WORKER_ENABLED", "false")

	a, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	var n int64
	if err := a.DB.Model(&types.Achievement{}).Count(&n).Error; err != nil {
		t.Fatalf("count achievements: %v", err)
	}
	if n == 0 {
		t.Fatalf("achievement catalog was not seeded")
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/streak/"+"00000000-0000-0000-0000-000000000001", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// reseeding on a second start must not duplicate definitions
	a.Close()
	b, err := New(context.Background())
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer b.Close()
	var again int64
	_ = b.DB.Model(&types.Achievement{}).Count(&again).Error
	if again != n {
		t.Fatalf("catalog duplicated on reseed: %d -> %d", n, again)
	}
}

func TestLoadScoringConfig(t *testing.T) {
	cfg, err := loadScoringConfig("")
	if err != nil || cfg == nil {
		t.Fatalf("default scoring config: %v", err)
	}
	if _, err := loadScoringConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
