package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.ObserveGeneration(1, 2, 3)
	m.AddExpired("ttl", 4)
	m.ObserveJob("sweep", "ok", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil metrics handler: got %d", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/recommendations/generate/:studentId", 200, 5*time.Millisecond)
	m.ObserveGeneration(3, 1, 2)
	m.IncAchievementUnlocked("streak_3")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`personalization_api_requests_total{method="POST",route="/api/recommendations/generate/:studentId",status="200"} 1`,
		`personalization_recommendations_generated_total{outcome="created"} 3`,
		`personalization_achievements_unlocked_total{code="streak_3"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}
