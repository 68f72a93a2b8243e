package personalization

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
)

func TestIngestUsageEventsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	at := f.clock().Add(-2 * time.Hour)
	batch := []UsageEventInput{
		{ClientEventID: "a", ToolName: "Flashcards", Kind: "completed", OccurredAt: at, EnergyLevel: 7, SessionID: "s1"},
		{ClientEventID: "b", ToolName: "flashcards", OccurredAt: at.Add(time.Minute)},
	}
	res, err := f.uc.IngestUsageEvents(as(user), user, batch)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Accepted != 2 || res.Duplicates != 0 {
		t.Fatalf("first batch: %+v", res)
	}
	res, err = f.uc.IngestUsageEvents(as(user), user, batch)
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if res.Accepted != 0 || res.Duplicates != 2 {
		t.Fatalf("second batch: %+v", res)
	}

	var rows []types.UsageEvent
	if err := f.db.Where("user_id = ?", user).Order("occurred_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored %d events", len(rows))
	}
	if rows[0].ToolName != "flashcards" || rows[0].Kind != personalization.UsageCompleted {
		t.Fatalf("event not normalized: %+v", rows[0])
	}
	if rows[0].TimeOfDay != personalization.TimeOfDayForHour(at.Hour()) || rows[0].Weekday != int(at.Weekday()) {
		t.Fatalf("derived fields wrong: %s/%d", rows[0].TimeOfDay, rows[0].Weekday)
	}
	if rows[1].Kind != personalization.UsageUsed {
		t.Fatalf("default kind: %s", rows[1].Kind)
	}
}

func TestIngestUsageEventsValidation(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	at := f.clock().Add(-time.Hour)
	cases := map[string]UsageEventInput{
		"missing tool": {OccurredAt: at},
		"bad kind":     {ToolName: "x", Kind: "poked", OccurredAt: at},
		"energy":       {ToolName: "x", OccurredAt: at, EnergyLevel: 11},
		"future":       {ToolName: "x", OccurredAt: f.clock().Add(time.Hour)},
		"no time":      {ToolName: "x"},
		"neg duration": {ToolName: "x", OccurredAt: at, DurationSeconds: -1},
	}
	for name, ev := range cases {
		_, err := f.uc.IngestUsageEvents(as(user), user, []UsageEventInput{ev})
		if !apierr.IsInvalidInput(err) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
	_, err := f.uc.IngestUsageEvents(as(user), user, nil)
	wantStatus(t, err, apierr.IsInvalidInput, "invalid input")
}

func TestIngestUsesConfiguredLocation(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC-8", -8*3600)
	f.uc.deps.Config.Location = loc
	user := uuid.New()
	at := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)

	if _, err := f.uc.IngestUsageEvents(as(user), user, []UsageEventInput{{ToolName: "notes", OccurredAt: at}}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var row types.UsageEvent
	if err := f.db.Where("user_id = ?", user).First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.TimeOfDay != personalization.LateEvening || row.Weekday != int(time.Monday) {
		t.Fatalf("local bucket: %s/%d", row.TimeOfDay, row.Weekday)
	}
}
