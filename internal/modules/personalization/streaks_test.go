package personalization

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

func TestStreakFromStudySessions(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	now := f.clock()
	ctx := context.Background()

	got, err := f.uc.Streak(as(user), user)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if got.Current != 0 || got.Longest != 0 {
		t.Fatalf("empty history: %+v", got)
	}

	for _, offset := range []int{1, 2, 3, 10, 11, 12, 13} {
		testutil.SeedStudySession(t, ctx, f.db, user, now.AddDate(0, 0, -offset))
	}
	testutil.SeedStudySession(t, ctx, f.db, user, now.AddDate(0, 0, -1))

	got, err = f.uc.Streak(as(user), user)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if got.Current != 3 {
		t.Fatalf("current: got %d want 3 (today not yet active)", got.Current)
	}
	if got.Longest != 4 {
		t.Fatalf("longest: got %d want 4", got.Longest)
	}
	if got.Today != "2026-03-11" || got.LastActive != "2026-03-10" {
		t.Fatalf("dates: today=%s last=%s", got.Today, got.LastActive)
	}

	f.advance(48 * time.Hour)
	got, err = f.uc.Streak(as(user), user)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if got.Current != 0 {
		t.Fatalf("missed day should break streak, got %d", got.Current)
	}
}

func TestRecordStudySession(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	row, err := f.uc.RecordStudySession(as(user), user, StudySessionInput{StudyDate: "2026-03-11", Subject: " Math ", Minutes: 30, Completed: true})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if row.Subject != "math" {
		t.Fatalf("subject not normalized: %q", row.Subject)
	}
	if _, err := f.uc.RecordStudySession(as(user), user, StudySessionInput{StudyDate: "2026-03-12"}); err == nil {
		t.Fatalf("expected future date to be rejected")
	}
	if _, err := f.uc.RecordStudySession(as(user), user, StudySessionInput{StudyDate: "03/11/2026"}); err == nil {
		t.Fatalf("expected malformed date to be rejected")
	}

	got, err := f.uc.Streak(as(user), user)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if got.Current != 1 {
		t.Fatalf("current: got %d want 1", got.Current)
	}
}

func TestIncompleteSessionsDoNotCount(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	if _, err := f.uc.RecordStudySession(as(user), user, StudySessionInput{StudyDate: "2026-03-11", Subject: "math", Minutes: 4}); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := f.uc.Streak(as(user), user)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if got.Current != 0 || got.Longest != 0 {
		t.Fatalf("abandoned session started a streak: %+v", got)
	}

	m, err := f.uc.serverMetrics(as(user), user)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m[personalization.RequirementStudySessions] != 0 || m[personalization.RequirementCurrentStreak] != 0 {
		t.Fatalf("abandoned session counted: %v", m)
	}

	if _, err := f.uc.RecordStudySession(as(user), user, StudySessionInput{StudyDate: "2026-03-11", Subject: "math", Minutes: 30, Completed: true}); err != nil {
		t.Fatalf("record: %v", err)
	}
	m, err = f.uc.serverMetrics(as(user), user)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m[personalization.RequirementStudySessions] != 1 || m[personalization.RequirementCurrentStreak] != 1 {
		t.Fatalf("completed session not counted: %v", m)
	}
}
