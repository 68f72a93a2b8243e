package personalization

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/data/dberr"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

func newRec(studentID, contentID uuid.UUID, score float64, now time.Time) *types.Recommendation {
	return &types.Recommendation{
		ID:           uuid.New(),
		StudentID:    studentID,
		ContentID:    contentID,
		OverallScore: score,
		Status:       personalization.StatusActive,
		IsActive:     true,
		Priority:     personalization.PriorityFor(score),
		GeneratedAt:  now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

func TestRecommendationRepo_ActivePairIsUnique(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	student := uuid.New()
	content := testutil.SeedCandidate(t, ctx, db, "math", 3)
	now := time.Now().UTC()

	first := newRec(student, content.ID, 0.6, now)
	if _, err := repo.Create(dbc, []*types.Recommendation{first}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, []*types.Recommendation{newRec(student, content.ID, 0.7, now)})
	if err == nil {
		t.Fatalf("expected unique violation for second active row")
	}
	if !dberr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	if n, err := repo.Supersede(dbc, []uuid.UUID{first.ID}, now); err != nil || n != 1 {
		t.Fatalf("Supersede: n=%d err=%v", n, err)
	}
	if _, err := repo.Create(dbc, []*types.Recommendation{newRec(student, content.ID, 0.7, now)}); err != nil {
		t.Fatalf("Create after supersede: %v", err)
	}

	old, err := repo.GetByID(dbc, first.ID)
	if err != nil || old == nil {
		t.Fatalf("GetByID: row=%v err=%v", old, err)
	}
	if old.IsActive || old.Status != personalization.StatusExpired || old.ExpiryReason != personalization.ExpirySuperseded {
		t.Fatalf("superseded row: active=%v status=%s reason=%s", old.IsActive, old.Status, old.ExpiryReason)
	}
}

func TestRecommendationRepo_PresentRespondFeedback(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	rec := newRec(uuid.New(), uuid.New(), 0.5, now)
	if _, err := repo.Create(dbc, []*types.Recommendation{rec}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ok, err := repo.SetFeedback(dbc, rec.ID, 4, true); err != nil || ok {
		t.Fatalf("SetFeedback before response: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkPresented(dbc, rec.ID, now); err != nil || !ok {
		t.Fatalf("MarkPresented: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkPresented(dbc, rec.ID, now.Add(time.Minute)); err != nil || ok {
		t.Fatalf("second MarkPresented should be a no-op: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkResponded(dbc, rec.ID, personalization.ActionCompleted, now); err != nil || !ok {
		t.Fatalf("MarkResponded: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.MarkResponded(dbc, rec.ID, personalization.ActionViewed, now); err != nil || ok {
		t.Fatalf("second MarkResponded should not apply: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.SetFeedback(dbc, rec.ID, 5, true); err != nil || !ok {
		t.Fatalf("SetFeedback: ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByID(dbc, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != personalization.StatusResponded || got.ResponseAction != personalization.ActionCompleted {
		t.Fatalf("unexpected state: status=%s action=%s", got.Status, got.ResponseAction)
	}
	if !got.IsActive {
		t.Fatalf("completed row should stay active until TTL")
	}
	if got.FeedbackRating == nil || *got.FeedbackRating != 5 {
		t.Fatalf("feedback rating not stored: %v", got.FeedbackRating)
	}
	if n, err := repo.CountByStudentAndAction(dbc, rec.StudentID, personalization.ActionCompleted); err != nil || n != 1 {
		t.Fatalf("CountByStudentAndAction: n=%d err=%v", n, err)
	}
}

func TestRecommendationRepo_IgnoredDeactivates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	rec := newRec(uuid.New(), uuid.New(), 0.5, now)
	if _, err := repo.Create(dbc, []*types.Recommendation{rec}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok, err := repo.MarkResponded(dbc, rec.ID, personalization.ActionIgnored, now); err != nil || !ok {
		t.Fatalf("MarkResponded: ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(dbc, rec.ID)
	if got.IsActive || got.ExpiryReason != personalization.ExpiryIgnored || got.PresentedAt == nil {
		t.Fatalf("ignored row: active=%v reason=%s presented=%v", got.IsActive, got.ExpiryReason, got.PresentedAt)
	}
}

func TestRecommendationRepo_ExpiryIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	student := uuid.New()

	due := newRec(student, uuid.New(), 0.4, now.Add(-48*time.Hour))
	due.ExpiresAt = now.Add(-time.Hour)

	presented := newRec(student, uuid.New(), 0.4, now.Add(-96*time.Hour))
	presented.ExpiresAt = now.Add(time.Hour)
	presentedAt := now.Add(-80 * time.Hour)
	presented.PresentedAt = &presentedAt

	fresh := newRec(student, uuid.New(), 0.4, now)

	if _, err := repo.Create(dbc, []*types.Recommendation{due, presented, fresh}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if n, err := repo.ExpireDue(dbc, now); err != nil || n != 1 {
		t.Fatalf("ExpireDue: n=%d err=%v", n, err)
	}
	if n, err := repo.ExpireDue(dbc, now); err != nil || n != 0 {
		t.Fatalf("ExpireDue rerun: n=%d err=%v", n, err)
	}
	if n, err := repo.ExpireUnanswered(dbc, now.Add(-72*time.Hour), now); err != nil || n != 1 {
		t.Fatalf("ExpireUnanswered: n=%d err=%v", n, err)
	}
	if n, err := repo.ExpireUnanswered(dbc, now.Add(-72*time.Hour), now); err != nil || n != 0 {
		t.Fatalf("ExpireUnanswered rerun: n=%d err=%v", n, err)
	}

	active, err := repo.ListActiveByStudent(dbc, student, true, now)
	if err != nil {
		t.Fatalf("ListActiveByStudent: %v", err)
	}
	if len(active) != 1 || active[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh row active, got %d rows", len(active))
	}
	got, _ := repo.GetByID(dbc, due.ID)
	if got.Status != personalization.StatusExpired || got.ExpiryReason != personalization.ExpiryTTL {
		t.Fatalf("ttl row: status=%s reason=%s", got.Status, got.ExpiryReason)
	}
	got, _ = repo.GetByID(dbc, presented.ID)
	if got.ExpiryReason != personalization.ExpiryUnanswered {
		t.Fatalf("unanswered row: reason=%s", got.ExpiryReason)
	}
}

func TestRecommendationRepo_StaleRowsLeaveActiveSet(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	student, other := uuid.New(), uuid.New()

	stale := newRec(student, uuid.New(), 0.5, now.Add(-48*time.Hour))
	stale.ExpiresAt = now.Add(-time.Minute)
	live := newRec(student, uuid.New(), 0.5, now)
	otherStale := newRec(other, uuid.New(), 0.5, now.Add(-48*time.Hour))
	otherStale.ExpiresAt = now.Add(-time.Minute)
	if _, err := repo.Create(dbc, []*types.Recommendation{stale, live, otherStale}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	listed, err := repo.ListActiveByStudent(dbc, student, true, now)
	if err != nil {
		t.Fatalf("ListActiveByStudent: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != live.ID {
		t.Fatalf("expected only the live row listed, got %d rows", len(listed))
	}

	if n, err := repo.ExpireDueByStudent(dbc, student, now); err != nil || n != 1 {
		t.Fatalf("ExpireDueByStudent: n=%d err=%v", n, err)
	}
	got, _ := repo.GetByID(dbc, stale.ID)
	if got.IsActive || got.ExpiryReason != personalization.ExpiryTTL {
		t.Fatalf("stale row: active=%v reason=%s", got.IsActive, got.ExpiryReason)
	}
	got, _ = repo.GetByID(dbc, otherStale.ID)
	if !got.IsActive {
		t.Fatalf("another student's row must be left for the sweep")
	}
}
