package personalization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/insights"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

type insightEvidence struct {
	Dimension string  `json:"dimension"`
	Bucket    string  `json:"bucket"`
	StdDev    float64 `json:"std_dev"`
}

func insightKey(t types.InsightType, bucket string) string { return string(t) + "|" + bucket }

// AnalyzeInsights mines the user's recent usage and stores new findings. Existing
// rows for the same (type, bucket) are refreshed while still unseen and pending,
// and left alone otherwise. Only newly created insights are returned.
func (u Usecases) AnalyzeInsights(ctx context.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	events, err := u.deps.Usage.ListByUser(dbctx.Context{Ctx: ctx}, userID, u.now().Add(-u.deps.Config.InsightLookback))
	if err != nil {
		return nil, internal("list_usage_events", err)
	}
	findings := u.deps.Analyzer.Analyze(events)
	if len(findings) == 0 {
		return []*types.AdaptiveInsight{}, nil
	}

	var created []*types.AdaptiveInsight
	refreshed := 0
	err = u.inTx(ctx, "analyze_insights", func(dbc dbctx.Context) error {
		created, refreshed = nil, 0
		existing, err := u.deps.Insights.ListByUser(dbc, userID)
		if err != nil {
			return err
		}
		byKey := make(map[string]*types.AdaptiveInsight, len(existing))
		for _, row := range existing {
			byKey[insightKey(row.InsightType, row.BucketKey)] = row
		}

		var fresh []*types.AdaptiveInsight
		for _, f := range findings {
			row, err := insightFromFinding(userID, f)
			if err != nil {
				return err
			}
			prev := byKey[insightKey(f.Type, f.BucketKey)]
			if prev == nil {
				fresh = append(fresh, row)
				continue
			}
			if !prev.Refreshable() {
				continue
			}
			row.ID = prev.ID
			ok, err := u.deps.Insights.RefreshStats(dbc, row)
			if err != nil {
				return err
			}
			if ok {
				refreshed++
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		created, err = u.deps.Insights.Create(dbc, fresh)
		return err
	})
	if err != nil {
		return nil, internal("analyze_insights", err)
	}
	if created == nil {
		created = []*types.AdaptiveInsight{}
	}

	for _, row := range created {
		u.deps.Metrics.IncInsightCreated(string(row.InsightType))
	}
	u.deps.Log.Info("insights analyzed",
		"user_id", userID, "events", len(events), "findings", len(findings),
		"created", len(created), "refreshed", refreshed)
	if len(created) > 0 {
		u.publish(ctx, userID, realtime.EventInsightsDetected, map[string]any{"created": len(created)})
	}
	return created, nil
}

func insightFromFinding(userID uuid.UUID, f insights.Finding) (*types.AdaptiveInsight, error) {
	raw, err := json.Marshal(insightEvidence{Dimension: f.Dimension, Bucket: f.Bucket, StdDev: f.StdDev})
	if err != nil {
		return nil, err
	}
	return &types.AdaptiveInsight{
		UserID:      userID,
		InsightType: f.Type,
		BucketKey:   f.BucketKey,
		Title:       f.Title,
		Message:     f.Message,
		Confidence:  f.Confidence,
		Priority:    f.Priority,
		SampleCount: f.SampleCount,
		BucketMean:  f.BucketMean,
		OverallMean: f.OverallMean,
		Deviation:   f.Deviation,
		Evidence:    datatypes.JSON(raw),
		Response:    personalization.InsightPending,
	}, nil
}

// PresentInsights returns the insights that pass the presentation gate and marks
// them presented, so each insight reaches the learner once.
func (u Usecases) PresentInsights(ctx context.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	out := []*types.AdaptiveInsight{}
	err := u.inTx(ctx, "present_insights", func(dbc dbctx.Context) error {
		out = out[:0]
		rows, err := u.deps.Insights.ListPresentable(dbc, userID, personalization.PresentationThreshold)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			if !row.ShouldPresent() {
				continue
			}
			ids = append(ids, row.ID)
			out = append(out, row)
		}
		if len(ids) == 0 {
			return nil
		}
		now := u.now()
		if _, err := u.deps.Insights.MarkPresented(dbc, ids, now); err != nil {
			return err
		}
		for _, row := range out {
			row.Presented = true
			row.PresentedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, internal("present_insights", err)
	}
	u.deps.Metrics.AddInsightsPresented(len(out))
	return out, nil
}

// RespondToInsight records accepted or rejected. The response can be set once.
func (u Usecases) RespondToInsight(ctx context.Context, id uuid.UUID, response types.InsightResponse) (*types.AdaptiveInsight, error) {
	if _, err := personalization.ParseInsightResponse(string(response)); err != nil {
		return nil, apierr.InvalidInput("invalid_response", err)
	}
	if id == uuid.Nil {
		return nil, apierr.InvalidInput("invalid_insight_id", errors.New("insight id required"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := u.deps.Insights.GetByID(dbc, id)
	if err != nil {
		return nil, internal("get_insight", err)
	}
	if row == nil || authorize(ctx, row.UserID) != nil {
		return nil, apierr.NotFound("insight_not_found", fmt.Errorf("insight %s not found", id))
	}
	if row.Response != personalization.InsightPending {
		return nil, apierr.Conflict("already_responded", fmt.Errorf("insight %s already has a response", id))
	}
	ok, err := u.deps.Insights.SetResponse(dbc, id, response, u.now())
	if err != nil {
		return nil, internal("respond_insight", err)
	}
	if !ok {
		return nil, apierr.Conflict("already_responded", fmt.Errorf("insight %s already has a response", id))
	}
	row, err = u.deps.Insights.GetByID(dbc, id)
	if err != nil {
		return nil, internal("get_insight", err)
	}
	return row, nil
}
