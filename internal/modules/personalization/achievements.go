package personalization

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/achievements"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

// SeedAchievements upserts catalog definitions by code.
func (u Usecases) SeedAchievements(ctx context.Context, defs []*types.Achievement) error {
	if err := u.deps.Achievements.UpsertDefinitions(dbctx.Context{Ctx: ctx}, defs); err != nil {
		return internal("seed_achievements", err)
	}
	u.deps.Log.Info("achievement catalog seeded", "definitions", len(defs))
	return nil
}

// CheckAchievements unlocks every definition whose threshold the user now meets.
// Only rows inserted by this call are returned, highest points first.
func (u Usecases) CheckAchievements(ctx context.Context, userID uuid.UUID, reported map[string]int64) ([]*types.UnlockedAchievement, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	caller, err := achievements.ParseMetrics(reported)
	if err != nil {
		return nil, apierr.InvalidInput("invalid_metrics", err)
	}
	server, err := u.serverMetrics(ctx, userID)
	if err != nil {
		return nil, internal("compute_metrics", err)
	}
	metrics := caller.Merge(server)

	dbc := dbctx.Context{Ctx: ctx}
	defs, err := u.deps.Achievements.ListActive(dbc)
	if err != nil {
		return nil, internal("list_achievements", err)
	}
	have, err := u.deps.Achievements.ListUnlockedByUser(dbc, userID)
	if err != nil {
		return nil, internal("list_unlocked", err)
	}
	unlocked := make(map[uuid.UUID]struct{}, len(have))
	for _, row := range have {
		unlocked[row.AchievementID] = struct{}{}
	}

	now := u.now()
	out := []*types.UnlockedAchievement{}
	for _, m := range achievements.Evaluate(defs, unlocked, metrics) {
		row := &types.UnlockedAchievement{
			ID:            uuid.New(),
			UserID:        userID,
			AchievementID: m.Achievement.ID,
			MetricValue:   m.Value,
			UnlockedAt:    now,
			IsNew:         true,
		}
		inserted, err := u.deps.Achievements.Unlock(dbc, row)
		if err != nil {
			return nil, internal("unlock_achievement", err)
		}
		if !inserted {
			continue
		}
		row.Achievement = m.Achievement
		out = append(out, row)
		u.deps.Metrics.IncAchievementUnlocked(m.Achievement.Code)
	}

	if len(out) > 0 {
		codes := make([]string, 0, len(out))
		for _, row := range out {
			codes = append(codes, row.Achievement.Code)
		}
		u.deps.Log.Info("achievements unlocked", "user_id", userID, "codes", codes)
		u.publish(ctx, userID, realtime.EventAchievementsUnlocked, map[string]any{"codes": codes})
	}
	return out, nil
}

// serverMetrics derives the counters this service owns.
func (u Usecases) serverMetrics(ctx context.Context, userID uuid.UUID) (achievements.Metrics, error) {
	dbc := dbctx.Context{Ctx: ctx}
	days, err := u.studyDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := u.streakFor(userID, days)

	sessions, err := u.deps.Sessions.CountCompletedByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	uses, err := u.deps.Usage.CountByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	tools, err := u.deps.Usage.CountDistinctTools(dbc, userID)
	if err != nil {
		return nil, err
	}
	completed, err := u.deps.Recommendations.CountByStudentAndAction(dbc, userID, personalization.ActionCompleted)
	if err != nil {
		return nil, err
	}
	accepted, err := u.deps.Insights.CountByUserAndResponse(dbc, userID, personalization.InsightAccepted)
	if err != nil {
		return nil, err
	}
	return achievements.Metrics{
		personalization.RequirementCurrentStreak:            int64(st.Current),
		personalization.RequirementLongestStreak:            int64(st.Longest),
		personalization.RequirementStudySessions:            sessions,
		personalization.RequirementToolUses:                 uses,
		personalization.RequirementDistinctTools:            tools,
		personalization.RequirementRecommendationsCompleted: completed,
		personalization.RequirementInsightsAccepted:         accepted,
	}, nil
}

func (u Usecases) ListAchievements(ctx context.Context, userID uuid.UUID) ([]*types.UnlockedAchievement, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := u.deps.Achievements.ListUnlockedByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, internal("list_unlocked", err)
	}
	return rows, nil
}

// MarkAchievementsViewed clears the new badge. An empty id list clears all of them.
func (u Usecases) MarkAchievementsViewed(ctx context.Context, userID uuid.UUID, achievementIDs []uuid.UUID) (int64, error) {
	if err := authorize(ctx, userID); err != nil {
		return 0, err
	}
	n, err := u.deps.Achievements.MarkViewed(dbctx.Context{Ctx: ctx}, userID, achievementIDs, u.now())
	if err != nil {
		return 0, internal("mark_viewed", err)
	}
	return n, nil
}
