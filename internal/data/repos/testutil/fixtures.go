package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

func BoolPtr(v bool) *bool { return &v }

func SeedCandidate(tb testing.TB, ctx context.Context, tx *gorm.DB, subject string, difficulty int) *types.ContentCandidate {
	tb.Helper()
	c := &types.ContentCandidate{
		ID:               uuid.New(),
		Title:            subject + " basics",
		SubjectArea:      subject,
		Difficulty:       types.DifficultyLevel(difficulty),
		Format:           personalization.FormatText,
		EstimatedMinutes: 20,
		Published:        true,
		SuccessRate:      0.7,
		SampleSize:       10,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed candidate: %v", err)
	}
	return c
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, mutate func(p *types.UserProfile)) *types.UserProfile {
	tb.Helper()
	p := types.DefaultUserProfile(userID)
	p.ID = uuid.New()
	p.Assessed = true
	if mutate != nil {
		mutate(p)
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedUsageEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, tool string, at time.Time, energy int) *types.UsageEvent {
	tb.Helper()
	e := &types.UsageEvent{
		ID:            uuid.New(),
		UserID:        userID,
		ClientEventID: uuid.NewString(),
		ToolName:      tool,
		Kind:          personalization.UsageUsed,
		OccurredAt:    at.UTC(),
		TimeOfDay:     personalization.TimeOfDayForHour(at.Hour()),
		Weekday:       int(at.Weekday()),
		EnergyLevel:   energy,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed usage event: %v", err)
	}
	return e
}

func SeedStudySession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) *types.StudySession {
	tb.Helper()
	y, m, d := day.Date()
	s := &types.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		StudyDate: datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)),
		Minutes:   25,
		Completed: true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed study session: %v", err)
	}
	return s
}
