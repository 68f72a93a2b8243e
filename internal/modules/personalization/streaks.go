package personalization

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/streak"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

type StreakResult struct {
	UserID     uuid.UUID `json:"user_id"`
	Current    int       `json:"current"`
	Longest    int       `json:"longest"`
	Today      string    `json:"today"`
	LastActive string    `json:"last_active,omitempty"`
}

// Streak computes the study streak in the configured time zone.
func (u Usecases) Streak(ctx context.Context, userID uuid.UUID) (*StreakResult, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	days, err := u.studyDays(ctx, userID)
	if err != nil {
		return nil, internal("compute_streak", err)
	}
	return u.streakFor(userID, days), nil
}

func (u Usecases) streakFor(userID uuid.UUID, days []streak.Day) *StreakResult {
	today := streak.DayOf(u.now(), u.deps.Config.Location)
	res := &StreakResult{
		UserID:  userID,
		Current: streak.Current(days, today),
		Longest: streak.Longest(days),
		Today:   today.String(),
	}
	for _, d := range days {
		if res.LastActive == "" || d.String() > res.LastActive {
			res.LastActive = d.String()
		}
	}
	return res
}

func (u Usecases) studyDays(ctx context.Context, userID uuid.UUID) ([]streak.Day, error) {
	sessions, err := u.deps.Sessions.ListByUser(dbctx.Context{Ctx: ctx}, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	days := make([]streak.Day, 0, len(sessions))
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		days = append(days, streak.DateOf(s.Day()))
	}
	return days, nil
}
