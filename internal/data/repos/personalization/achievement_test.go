package personalization

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

func TestAchievementRepo_UnlockExactlyOnce(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewAchievementRepo(db, testutil.Logger(t))

	def := &types.Achievement{
		Code:             "streak_3",
		Name:             "Three in a row",
		RequirementType:  personalization.RequirementCurrentStreak,
		RequirementValue: 3,
		Points:           30,
		Active:           true,
	}
	if err := repo.UpsertDefinitions(dbc, []*types.Achievement{def}); err != nil {
		t.Fatalf("UpsertDefinitions: %v", err)
	}
	defs, err := repo.ListActive(dbc)
	if err != nil || len(defs) != 1 {
		t.Fatalf("ListActive: len=%d err=%v", len(defs), err)
	}
	achievementID := defs[0].ID

	userID := uuid.New()
	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Unlock(dbc, &types.UnlockedAchievement{
				UserID:        userID,
				AchievementID: achievementID,
				MetricValue:   3,
				IsNew:         true,
			})
			if err != nil {
				t.Errorf("Unlock: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("expected exactly one unlock, got %d", created)
	}

	rows, err := repo.ListUnlockedByUser(dbc, userID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListUnlockedByUser: len=%d err=%v", len(rows), err)
	}
	if rows[0].Achievement == nil || rows[0].Achievement.Code != "streak_3" || !rows[0].IsNew {
		t.Fatalf("unexpected unlocked row: %+v", rows[0])
	}

	if n, err := repo.MarkViewed(dbc, userID, nil, time.Now().UTC()); err != nil || n != 1 {
		t.Fatalf("MarkViewed: n=%d err=%v", n, err)
	}
	if n, err := repo.MarkViewed(dbc, userID, nil, time.Now().UTC()); err != nil || n != 0 {
		t.Fatalf("MarkViewed rerun: n=%d err=%v", n, err)
	}
}

func TestAchievementRepo_UpsertDefinitionsByCode(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewAchievementRepo(db, testutil.Logger(t))

	mk := func(points int, active bool) *types.Achievement {
		return &types.Achievement{
			Code:             "first_session",
			Name:             "First session",
			RequirementType:  personalization.RequirementStudySessions,
			RequirementValue: 1,
			Points:           points,
			Active:           active,
		}
	}
	if err := repo.UpsertDefinitions(dbc, []*types.Achievement{mk(10, true)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.UpsertDefinitions(dbc, []*types.Achievement{mk(15, false)}); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	defs, err := repo.ListActive(dbc)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("deactivated definition still listed")
	}
}
