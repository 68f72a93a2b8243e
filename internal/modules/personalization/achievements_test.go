package personalization

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/achievements"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

func seedAchievementCatalog(t *testing.T, f *fixture) {
	t.Helper()
	defs, err := achievements.LoadCatalog("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if err := f.uc.SeedAchievements(context.Background(), defs); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func codes(rows []*types.UnlockedAchievement) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Achievement.Code)
	}
	return out
}

func TestCheckAchievementsUnlocksOnceInPointsOrder(t *testing.T) {
	f := newFixture(t)
	seedAchievementCatalog(t, f)
	user := uuid.New()
	now := f.clock()
	for _, offset := range []int{0, 1, 2} {
		testutil.SeedStudySession(t, context.Background(), f.db, user, now.AddDate(0, 0, -offset))
	}

	got, err := f.uc.CheckAchievements(as(user), user, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := []string{"streak_3", "first_session"}
	if len(got) != len(want) {
		t.Fatalf("unlocked %v, want %v", codes(got), want)
	}
	for i, c := range codes(got) {
		if c != want[i] {
			t.Fatalf("position %d: got %s want %s", i, c, want[i])
		}
		if !got[i].IsNew {
			t.Fatalf("%s not flagged new", c)
		}
	}

	again, err := f.uc.CheckAchievements(as(user), user, nil)
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-check unlocked %v", codes(again))
	}

	msgs := f.bus.Messages()
	if len(msgs) != 1 || msgs[0].Event != realtime.EventAchievementsUnlocked {
		t.Fatalf("expected one unlock notification, got %+v", msgs)
	}
}

func TestCheckAchievementsConcurrentExactlyOnce(t *testing.T) {
	f := newFixture(t)
	seedAchievementCatalog(t, f)
	user := uuid.New()
	testutil.SeedStudySession(t, context.Background(), f.db, user, f.clock())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := f.uc.CheckAchievements(as(user), user, map[string]int64{"messages_sent": 50})
			if err != nil {
				t.Errorf("check: %v", err)
				return
			}
			mu.Lock()
			total += len(rows)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var n int64
	if err := f.db.Model(&types.UnlockedAchievement{}).Where("user_id = ?", user).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 || total != 2 {
		t.Fatalf("expected 2 unlocks stored and reported, got stored=%d reported=%d", n, total)
	}
}

func TestCheckAchievementsMetrics(t *testing.T) {
	f := newFixture(t)
	seedAchievementCatalog(t, f)
	user := uuid.New()

	_, err := f.uc.CheckAchievements(as(user), user, map[string]int64{"karma": 3})
	wantStatus(t, err, apierr.IsInvalidInput, "invalid input")

	got, err := f.uc.CheckAchievements(as(user), user, map[string]int64{"current_streak": 30, "quizzes_completed": 10})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(got) != 1 || got[0].Achievement.Code != "quiz_taker" || got[0].MetricValue != 10 {
		t.Fatalf("caller metrics must not override server streaks: %v", codes(got))
	}

	_, err = f.uc.CheckAchievements(as(uuid.New()), user, nil)
	wantStatus(t, err, apierr.IsNotFound, "not found")
}

func TestMarkAchievementsViewed(t *testing.T) {
	f := newFixture(t)
	seedAchievementCatalog(t, f)
	user := uuid.New()

	got, err := f.uc.CheckAchievements(as(user), user, map[string]int64{"messages_sent": 50, "content_uploaded": 1})
	if err != nil || len(got) != 2 {
		t.Fatalf("check: %v (%d)", err, len(got))
	}

	n, err := f.uc.MarkAchievementsViewed(as(user), user, []uuid.UUID{got[0].AchievementID})
	if err != nil || n != 1 {
		t.Fatalf("mark one: n=%d err=%v", n, err)
	}
	n, err = f.uc.MarkAchievementsViewed(as(user), user, nil)
	if err != nil || n != 1 {
		t.Fatalf("mark rest: n=%d err=%v", n, err)
	}
	n, err = f.uc.MarkAchievementsViewed(as(user), user, nil)
	if err != nil || n != 0 {
		t.Fatalf("viewing is one-way: n=%d err=%v", n, err)
	}

	rows, err := f.uc.ListAchievements(as(user), user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range rows {
		if r.IsNew || r.ViewedAt == nil || r.Achievement == nil {
			t.Fatalf("row not viewed or missing definition: %+v", r)
		}
	}
}
