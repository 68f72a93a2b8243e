package personalization

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

func seedCatalog(t *testing.T, f *fixture, n int) []*types.ContentCandidate {
	t.Helper()
	subjects := []string{"math", "history", "biology", "chemistry", "art"}
	out := make([]*types.ContentCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testutil.SeedCandidate(t, context.Background(), f.db, subjects[i%len(subjects)], 1+i%5))
	}
	return out
}

func countActive(t *testing.T, f *fixture, studentID uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	var rows []types.Recommendation
	if err := f.db.Where("student_id = ? AND is_active = ?", studentID, true).Find(&rows).Error; err != nil {
		t.Fatalf("query active: %v", err)
	}
	out := map[uuid.UUID]int{}
	for _, r := range rows {
		out[r.ContentID]++
	}
	return out
}

func TestGenerateIsStableAcrossRuns(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 6)

	first, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Created != 6 || len(first.Recommendations) != 6 {
		t.Fatalf("first run: created=%d len=%d", first.Created, len(first.Recommendations))
	}
	for i := 1; i < len(first.Recommendations); i++ {
		if first.Recommendations[i-1].OverallScore < first.Recommendations[i].OverallScore {
			t.Fatalf("results not ranked by overall score")
		}
	}

	second, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if second.Created != 0 || second.Superseded != 0 || second.Kept != 6 {
		t.Fatalf("second run: created=%d superseded=%d kept=%d", second.Created, second.Superseded, second.Kept)
	}
	for _, r := range second.Recommendations {
		if !r.Unchanged {
			t.Fatalf("expected kept rows flagged unchanged")
		}
	}
	for content, n := range countActive(t, f, student) {
		if n != 1 {
			t.Fatalf("content %s has %d active rows", content, n)
		}
	}

	msgs := f.bus.Messages()
	if len(msgs) != 1 || msgs[0].Event != realtime.EventRecommendationsGenerated {
		t.Fatalf("expected one generated notification, got %+v", msgs)
	}
}

func TestGenerateSupersedesOnScoreChange(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	cands := seedCatalog(t, f, 3)

	first, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var old *types.Recommendation
	for _, r := range first.Recommendations {
		if r.ContentID == cands[0].ID {
			old = r.Recommendation
		}
	}
	if old == nil {
		t.Fatalf("candidate missing from first run")
	}

	if err := f.db.Model(&types.ContentCandidate{}).Where("id = ?", cands[0].ID).
		Update("success_rate", 0.0).Error; err != nil {
		t.Fatalf("update candidate: %v", err)
	}
	f.advance(time.Minute)

	second, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if second.Superseded != 1 || second.Created != 1 || second.Kept != 2 {
		t.Fatalf("second run: created=%d superseded=%d kept=%d", second.Created, second.Superseded, second.Kept)
	}

	var prev types.Recommendation
	if err := f.db.Where("id = ?", old.ID).First(&prev).Error; err != nil {
		t.Fatalf("load old row: %v", err)
	}
	if prev.IsActive || prev.Status != personalization.StatusExpired || prev.ExpiryReason != personalization.ExpirySuperseded {
		t.Fatalf("old row not superseded: active=%v status=%s reason=%s", prev.IsActive, prev.Status, prev.ExpiryReason)
	}
	if countActive(t, f, student)[cands[0].ID] != 1 {
		t.Fatalf("expected exactly one active row for the changed candidate")
	}
}

func TestGenerateReplacesRowsPastTTL(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 3)

	first, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	f.advance(DefaultConfig().RecommendationTTL + 24*time.Hour)

	listed, err := f.uc.ListRecommendations(as(student), student, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("rows past ttl listed before the sweep: %d", len(listed))
	}

	second, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if second.Created != 3 || second.Kept != 0 || second.Expired != 3 {
		t.Fatalf("second run: created=%d kept=%d expired=%d", second.Created, second.Kept, second.Expired)
	}
	for _, r := range second.Recommendations {
		if r.Unchanged || r.Expired(f.clock()) {
			t.Fatalf("regenerated row %s is stale", r.ID)
		}
		if _, err := f.uc.PresentRecommendation(as(student), r.ID); err != nil {
			t.Fatalf("present regenerated row: %v", err)
		}
	}

	for _, r := range first.Recommendations {
		var prev types.Recommendation
		if err := f.db.Where("id = ?", r.ID).First(&prev).Error; err != nil {
			t.Fatalf("load old row: %v", err)
		}
		if prev.IsActive || prev.ExpiryReason != personalization.ExpiryTTL {
			t.Fatalf("old row: active=%v reason=%s", prev.IsActive, prev.ExpiryReason)
		}
	}
	for content, n := range countActive(t, f, student) {
		if n != 1 {
			t.Fatalf("content %s has %d active rows", content, n)
		}
	}
}

func TestGenerateConcurrentKeepsOneActivePerPair(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.GenerateRecommendations(as(student), student, 0)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent generate: %v", err)
		}
	}
	active := countActive(t, f, student)
	if len(active) != 5 {
		t.Fatalf("expected 5 active pairs, got %d", len(active))
	}
	for content, n := range active {
		if n != 1 {
			t.Fatalf("content %s has %d active rows", content, n)
		}
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	res, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res == nil || len(res.Recommendations) != 0 || res.Created != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestGenerateLimit(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 4)

	res, err := f.uc.GenerateRecommendations(as(student), student, 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Recommendations))
	}
	if res.Recommendations[0].Rank != 1 || res.Recommendations[1].Rank != 2 {
		t.Fatalf("ranks: %d %d", res.Recommendations[0].Rank, res.Recommendations[1].Rank)
	}
	_, err = f.uc.GenerateRecommendations(as(student), student, -1)
	wantStatus(t, err, apierr.IsInvalidInput, "invalid input")
}

func TestGenerateForOtherUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f, 2)
	_, err := f.uc.GenerateRecommendations(as(uuid.New()), uuid.New(), 0)
	wantStatus(t, err, apierr.IsNotFound, "not found")
}

func firstRecommendation(t *testing.T, f *fixture, student uuid.UUID) *types.Recommendation {
	t.Helper()
	res, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Recommendations) == 0 {
		t.Fatalf("no recommendations generated")
	}
	return res.Recommendations[0].Recommendation
}

func TestPresentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 2)
	rec := firstRecommendation(t, f, student)

	got, err := f.uc.PresentRecommendation(as(student), rec.ID)
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	firstAt := *got.PresentedAt

	f.advance(time.Hour)
	again, err := f.uc.PresentRecommendation(as(student), rec.ID)
	if err != nil {
		t.Fatalf("present again: %v", err)
	}
	if !again.PresentedAt.Equal(firstAt) {
		t.Fatalf("presented_at moved: %v -> %v", firstAt, again.PresentedAt)
	}

	hidden, err := f.uc.ListRecommendations(as(student), student, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range hidden {
		if r.ID == rec.ID {
			t.Fatalf("presented row listed without includePresented")
		}
	}
	all, err := f.uc.ListRecommendations(as(student), student, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 active rows, got %d", len(all))
	}
}

func TestRespondLifecycle(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 2)
	rec := firstRecommendation(t, f, student)

	_, err := f.uc.SubmitFeedback(as(student), rec.ID, 4, true)
	wantStatus(t, err, apierr.IsConflict, "conflict")

	got, err := f.uc.RespondToRecommendation(as(student), rec.ID, personalization.ActionViewed)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if got.Status != personalization.StatusResponded || got.ResponseAction != personalization.ActionViewed {
		t.Fatalf("unexpected state %s/%s", got.Status, got.ResponseAction)
	}
	if got.PresentedAt == nil {
		t.Fatalf("responding should imply presentation")
	}
	if !got.IsActive {
		t.Fatalf("viewed row should stay active until ttl")
	}

	var cand types.ContentCandidate
	if err := f.db.Where("id = ?", rec.ContentID).First(&cand).Error; err != nil {
		t.Fatalf("load candidate: %v", err)
	}
	if cand.ViewCount != 1 {
		t.Fatalf("view count: got %d want 1", cand.ViewCount)
	}

	_, err = f.uc.RespondToRecommendation(as(student), rec.ID, personalization.ActionCompleted)
	wantStatus(t, err, apierr.IsConflict, "conflict")

	_, err = f.uc.SubmitFeedback(as(student), rec.ID, 6, true)
	wantStatus(t, err, apierr.IsInvalidInput, "invalid input")

	fb, err := f.uc.SubmitFeedback(as(student), rec.ID, 5, false)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if fb.FeedbackRating == nil || *fb.FeedbackRating != 5 || fb.FeedbackHelpful == nil || *fb.FeedbackHelpful {
		t.Fatalf("feedback not stored: %+v", fb)
	}
	if fb.Status != personalization.StatusResponded {
		t.Fatalf("feedback changed lifecycle state to %s", fb.Status)
	}

	_, err = f.uc.RespondToRecommendation(as(student), rec.ID, types.ResponseAction("liked"))
	wantStatus(t, err, apierr.IsInvalidInput, "invalid input")
}

func TestRespondIgnoredDeactivates(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 1)
	rec := firstRecommendation(t, f, student)

	got, err := f.uc.RespondToRecommendation(as(student), rec.ID, personalization.ActionIgnored)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if got.IsActive || got.ExpiryReason != personalization.ExpiryIgnored {
		t.Fatalf("ignored row: active=%v reason=%s", got.IsActive, got.ExpiryReason)
	}

	again, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if again.Created != 1 {
		t.Fatalf("ignored content should be recommendable again, created=%d", again.Created)
	}
}

func TestRespondOtherStudentIsNotFound(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	seedCatalog(t, f, 1)
	rec := firstRecommendation(t, f, owner)

	intruder := uuid.New()
	_, err := f.uc.RespondToRecommendation(as(intruder), rec.ID, personalization.ActionCompleted)
	wantStatus(t, err, apierr.IsNotFound, "not found")
	_, err = f.uc.SubmitFeedback(as(intruder), rec.ID, 3, true)
	wantStatus(t, err, apierr.IsNotFound, "not found")
	_, err = f.uc.PresentRecommendation(as(intruder), rec.ID)
	wantStatus(t, err, apierr.IsNotFound, "not found")
	_, err = f.uc.RespondToRecommendation(as(owner), uuid.New(), personalization.ActionViewed)
	wantStatus(t, err, apierr.IsNotFound, "not found")

	var row types.Recommendation
	if err := f.db.Where("id = ?", rec.ID).First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.RespondedAt != nil || row.PresentedAt != nil || row.Version != 1 {
		t.Fatalf("row mutated by another user: %+v", row)
	}
}

func TestExpireDue(t *testing.T) {
	f := newFixture(t)
	student := uuid.New()
	seedCatalog(t, f, 3)
	res, err := f.uc.GenerateRecommendations(as(student), student, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	presented := res.Recommendations[0].ID
	responded := res.Recommendations[1].ID
	if _, err := f.uc.PresentRecommendation(as(student), presented); err != nil {
		t.Fatalf("present: %v", err)
	}
	if _, err := f.uc.RespondToRecommendation(as(student), responded, personalization.ActionBookmarked); err != nil {
		t.Fatalf("respond: %v", err)
	}

	f.advance(DefaultConfig().UnansweredGrace + time.Hour)
	got, err := f.uc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if got.TTL != 0 || got.Unanswered != 1 {
		t.Fatalf("grace sweep: %+v", got)
	}

	f.advance(DefaultConfig().RecommendationTTL)
	_, err = f.uc.RespondToRecommendation(as(student), res.Recommendations[2].ID, personalization.ActionViewed)
	wantStatus(t, err, apierr.IsConflict, "conflict")

	got, err = f.uc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if got.TTL != 2 {
		t.Fatalf("ttl sweep: %+v", got)
	}
	again, err := f.uc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("expire again: %v", err)
	}
	if again.TTL != 0 || again.Unanswered != 0 {
		t.Fatalf("sweep not idempotent: %+v", again)
	}

	var row types.Recommendation
	if err := f.db.Where("id = ?", responded).First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.IsActive || row.Status != personalization.StatusResponded {
		t.Fatalf("responded row after ttl: active=%v status=%s", row.IsActive, row.Status)
	}
}
