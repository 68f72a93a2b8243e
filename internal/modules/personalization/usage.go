package personalization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

// maxBatch bounds one ingestion request.
const maxBatch = 500

type UsageEventInput struct {
	ClientEventID   string
	ToolName        string
	Kind            string
	OccurredAt      time.Time
	EnergyLevel     int
	SessionID       string
	DurationSeconds int
}

type IngestResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

// IngestUsageEvents appends events for one user. Re-sent client event ids are
// counted as duplicates and dropped.
func (u Usecases) IngestUsageEvents(ctx context.Context, userID uuid.UUID, in []UsageEventInput) (*IngestResult, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apierr.InvalidInput("empty_batch", fmt.Errorf("at least one event required"))
	}
	if len(in) > maxBatch {
		return nil, apierr.InvalidInput("batch_too_large", fmt.Errorf("at most %d events per request", maxBatch))
	}
	horizon := u.now().Add(5 * time.Minute)
	loc := u.deps.Config.Location
	rows := make([]*types.UsageEvent, 0, len(in))
	for i, ev := range in {
		tool := strings.ToLower(strings.TrimSpace(ev.ToolName))
		if tool == "" {
			return nil, apierr.InvalidInput("invalid_event", fmt.Errorf("event %d: tool name required", i))
		}
		kind, err := personalization.ParseUsageKind(ev.Kind)
		if err != nil {
			return nil, apierr.InvalidInput("invalid_event", fmt.Errorf("event %d: %w", i, err))
		}
		if ev.OccurredAt.IsZero() || ev.OccurredAt.After(horizon) {
			return nil, apierr.InvalidInput("invalid_event", fmt.Errorf("event %d: occurred_at missing or in the future", i))
		}
		if ev.EnergyLevel < 0 || ev.EnergyLevel > 10 {
			return nil, apierr.InvalidInput("invalid_event", fmt.Errorf("event %d: energy level must be 1-10 or 0 for unreported", i))
		}
		if ev.DurationSeconds < 0 {
			return nil, apierr.InvalidInput("invalid_event", fmt.Errorf("event %d: duration must be >= 0", i))
		}
		local := ev.OccurredAt.In(loc)
		rows = append(rows, &types.UsageEvent{
			UserID:          userID,
			ClientEventID:   strings.TrimSpace(ev.ClientEventID),
			ToolName:        tool,
			Kind:            kind,
			OccurredAt:      ev.OccurredAt.UTC(),
			TimeOfDay:       personalization.TimeOfDayForHour(local.Hour()),
			Weekday:         int(local.Weekday()),
			EnergyLevel:     ev.EnergyLevel,
			SessionID:       strings.TrimSpace(ev.SessionID),
			DurationSeconds: ev.DurationSeconds,
		})
	}

	n, err := u.deps.Usage.Append(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return nil, internal("ingest_usage", err)
	}
	res := &IngestResult{Accepted: int(n), Duplicates: len(rows) - int(n)}
	u.deps.Metrics.AddUsageIngested(res.Accepted, res.Duplicates)
	return res, nil
}

type StudySessionInput struct {
	// StudyDate is a calendar date, YYYY-MM-DD.
	StudyDate string
	Subject   string
	Minutes   int
	Completed bool
}

func (u Usecases) RecordStudySession(ctx context.Context, userID uuid.UUID, in StudySessionInput) (*types.StudySession, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(in.StudyDate))
	if err != nil {
		return nil, apierr.InvalidInput("invalid_study_date", fmt.Errorf("study date must be YYYY-MM-DD: %w", err))
	}
	local := u.now().In(u.deps.Config.Location)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.UTC)
	if !day.Before(tomorrow) {
		return nil, apierr.InvalidInput("invalid_study_date", fmt.Errorf("study date %s is in the future", in.StudyDate))
	}
	if in.Minutes < 0 {
		return nil, apierr.InvalidInput("invalid_minutes", fmt.Errorf("minutes must be >= 0"))
	}
	row := &types.StudySession{
		UserID:    userID,
		StudyDate: datatypes.Date(day),
		Subject:   strings.ToLower(strings.TrimSpace(in.Subject)),
		Minutes:   in.Minutes,
		Completed: in.Completed,
	}
	rows, err := u.deps.Sessions.Create(dbctx.Context{Ctx: ctx}, []*types.StudySession{row})
	if err != nil {
		return nil, internal("record_study_session", err)
	}
	return rows[0], nil
}
