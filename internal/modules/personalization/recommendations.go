package personalization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/neurobridge-personalization/internal/data/dberr"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos"
	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/modules/personalization/scoring"
	"github.com/yungbote/neurobridge-personalization/internal/observability"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

// GeneratedRecommendation is one ranked slot of a generation run.
type GeneratedRecommendation struct {
	*types.Recommendation
	// Unchanged is set when an existing active row was kept as is.
	Unchanged bool `json:"unchanged"`
}

type GenerateResult struct {
	Recommendations []GeneratedRecommendation `json:"recommendations"`
	Created         int                       `json:"created"`
	Superseded      int                       `json:"superseded"`
	Kept            int                       `json:"kept"`
	// Expired counts rows past their TTL that generation deactivated ahead of the sweep.
	Expired int `json:"expired"`
}

type reasoning struct {
	Summary string                  `json:"summary"`
	Reasons []string                `json:"reasons,omitempty"`
	Scores  scoring.ComponentScores `json:"scores"`
}

// GenerateRecommendations scores every published candidate for the student and
// reconciles the top results with the student's active recommendations.
func (u Usecases) GenerateRecommendations(ctx context.Context, studentID uuid.UUID, limit int) (*GenerateResult, error) {
	if err := authorize(ctx, studentID); err != nil {
		return nil, err
	}
	switch {
	case limit < 0:
		return nil, apierr.InvalidInput("invalid_limit", fmt.Errorf("limit must be >= 0"))
	case limit == 0:
		limit = u.deps.Config.DefaultLimit
	case limit > u.deps.Config.MaxLimit:
		limit = u.deps.Config.MaxLimit
	}

	ctx, span := observability.StartSpan(ctx, "personalization.generate_recommendations",
		attribute.String("student_id", studentID.String()), attribute.Int("limit", limit))
	defer span.End()

	learner, err := u.loadLearner(ctx, studentID)
	if err != nil {
		return nil, internal("load_learner", err)
	}
	candidates, err := u.deps.Candidates.ListPublished(dbctx.Context{Ctx: ctx}, repos.ContentCandidateFilter{
		Limit: u.deps.Config.CandidateLimit,
	})
	if err != nil {
		return nil, internal("list_candidates", err)
	}

	scored := make([]scoring.Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoring.Scored{Candidate: c, Scores: u.deps.Scoring.Score(learner, c)})
	}
	ranked := scoring.Rank(scored, limit)
	if len(ranked) == 0 {
		return &GenerateResult{Recommendations: []GeneratedRecommendation{}}, nil
	}

	var out *GenerateResult
	err = u.inTx(ctx, "generate_recommendations", func(dbc dbctx.Context) error {
		res, err := u.reconcile(dbc, studentID, ranked)
		if err != nil {
			u.deps.Metrics.IncGenerateTx("conflict")
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, internal("generate_recommendations", err)
	}
	u.deps.Metrics.IncGenerateTx("committed")
	u.deps.Metrics.ObserveGeneration(out.Created, out.Superseded, out.Kept)
	u.deps.Metrics.AddExpired(string(personalization.ExpiryTTL), int64(out.Expired))

	u.deps.Log.Info("recommendations generated",
		"student_id", studentID, "candidates", len(candidates),
		"created", out.Created, "superseded", out.Superseded, "kept", out.Kept, "expired", out.Expired)
	if out.Created > 0 {
		u.publish(ctx, studentID, realtime.EventRecommendationsGenerated, map[string]any{
			"created":    out.Created,
			"superseded": out.Superseded,
		})
	}
	return out, nil
}

// reconcile runs inside the generation transaction. Rows past their TTL are
// expired first so they never count as the pair's active row. The remaining
// active rows are read under lock; the partial unique index catches any writer
// that raced us.
func (u Usecases) reconcile(dbc dbctx.Context, studentID uuid.UUID, ranked []scoring.Scored) (*GenerateResult, error) {
	now := u.now()
	expired, err := u.deps.Recommendations.ExpireDueByStudent(dbc, studentID, now)
	if err != nil {
		return nil, err
	}
	active, err := u.deps.Recommendations.LockActiveByStudent(dbc, studentID)
	if err != nil {
		return nil, err
	}
	byContent := make(map[uuid.UUID]*types.Recommendation, len(active))
	for _, r := range active {
		byContent[r.ContentID] = r
	}

	res := &GenerateResult{
		Recommendations: make([]GeneratedRecommendation, 0, len(ranked)),
		Expired:         int(expired),
	}
	var (
		toCreate    []*types.Recommendation
		toSupersede []uuid.UUID
	)
	for i, item := range ranked {
		existing := byContent[item.Candidate.ID]
		if existing != nil && existing.Responded() {
			continue
		}
		if existing != nil && math.Abs(existing.OverallScore-item.Scores.Overall) <= u.deps.Config.SupersedeDelta {
			res.Kept++
			res.Recommendations = append(res.Recommendations, GeneratedRecommendation{Recommendation: existing, Unchanged: true})
			continue
		}
		if existing != nil {
			toSupersede = append(toSupersede, existing.ID)
		}
		row, err := u.newRecommendation(studentID, item, i+1)
		if err != nil {
			return nil, err
		}
		toCreate = append(toCreate, row)
		res.Recommendations = append(res.Recommendations, GeneratedRecommendation{Recommendation: row})
	}

	if len(toSupersede) > 0 {
		n, err := u.deps.Recommendations.Supersede(dbc, toSupersede, now)
		if err != nil {
			return nil, err
		}
		if int(n) != len(toSupersede) {
			return nil, fmt.Errorf("supersede %d of %d rows: %w", n, len(toSupersede), dberr.ErrConcurrentUpdate)
		}
		res.Superseded = int(n)
	}
	if len(toCreate) > 0 {
		if _, err := u.deps.Recommendations.Create(dbc, toCreate); err != nil {
			return nil, err
		}
		res.Created = len(toCreate)
		for _, row := range toCreate {
			u.deps.Metrics.ObserveScore(row.OverallScore)
		}
	}
	return res, nil
}

func (u Usecases) newRecommendation(studentID uuid.UUID, item scoring.Scored, rank int) (*types.Recommendation, error) {
	now := u.now()
	s := item.Scores
	raw, err := json.Marshal(reasoning{
		Summary: summarize(s),
		Reasons: s.Reasons,
		Scores:  s,
	})
	if err != nil {
		return nil, err
	}
	return &types.Recommendation{
		ID:                 uuid.New(),
		StudentID:          studentID,
		ContentID:          item.Candidate.ID,
		Confidence:         s.Confidence,
		Relevance:          s.Relevance,
		AccessibilityMatch: s.AccessibilityMatch,
		LearningStyleMatch: s.LearningStyleMatch,
		DifficultyMatch:    s.DifficultyMatch,
		SuccessPrediction:  s.SuccessPrediction,
		OverallScore:       s.Overall,
		Status:             personalization.StatusActive,
		IsActive:           true,
		Priority:           personalization.PriorityFor(s.Overall),
		Rank:               rank,
		Reasoning:          datatypes.JSON(raw),
		GeneratedAt:        now,
		ExpiresAt:          now.Add(u.deps.Config.RecommendationTTL),
		Version:            1,
	}, nil
}

func summarize(s scoring.ComponentScores) string {
	if len(s.Reasons) == 0 {
		return fmt.Sprintf("overall match %.0f%%", s.Overall*100)
	}
	return strings.Join(s.Reasons, "; ")
}

// loadLearner assembles profile, mastery and subject history. Missing data falls
// back to defaults inside the scoring engine.
func (u Usecases) loadLearner(ctx context.Context, userID uuid.UUID) (scoring.Learner, error) {
	dbc := dbctx.Context{Ctx: ctx}
	profile, err := u.deps.Profiles.GetOrCreate(dbc, userID)
	if err != nil {
		return scoring.Learner{}, err
	}
	mastery, err := u.deps.Mastery.GetByUserID(dbc, userID)
	if err != nil {
		return scoring.Learner{}, err
	}
	sessions, err := u.deps.Sessions.ListByUser(dbc, userID, u.now().Add(-u.deps.Config.HistoryLookback))
	if err != nil {
		return scoring.Learner{}, err
	}

	l := scoring.Learner{
		Profile: profile,
		Mastery: make(map[string]float64, len(mastery)),
		History: map[string]scoring.SubjectStats{},
	}
	for _, m := range mastery {
		l.Mastery[strings.ToLower(m.Topic)] = m.Mastery
	}
	for _, s := range sessions {
		subject := strings.ToLower(strings.TrimSpace(s.Subject))
		if subject == "" {
			continue
		}
		st := l.History[subject]
		st.Interactions++
		if s.Completed {
			st.Successes++
		}
		l.History[subject] = st
	}
	return l, nil
}

func (u Usecases) ListRecommendations(ctx context.Context, studentID uuid.UUID, includePresented bool) ([]*types.Recommendation, error) {
	if err := authorize(ctx, studentID); err != nil {
		return nil, err
	}
	rows, err := u.deps.Recommendations.ListActiveByStudent(dbctx.Context{Ctx: ctx}, studentID, includePresented, u.now())
	if err != nil {
		return nil, internal("list_recommendations", err)
	}
	return rows, nil
}

// getOwnedRecommendation returns NotFound both for unknown ids and for rows the
// caller may not act on.
func (u Usecases) getOwnedRecommendation(ctx context.Context, dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	if id == uuid.Nil {
		return nil, apierr.InvalidInput("invalid_recommendation_id", errors.New("recommendation id required"))
	}
	row, err := u.deps.Recommendations.GetByID(dbc, id)
	if err != nil {
		return nil, internal("get_recommendation", err)
	}
	if row == nil || authorize(ctx, row.StudentID) != nil {
		return nil, apierr.NotFound("recommendation_not_found", fmt.Errorf("recommendation %s not found", id))
	}
	return row, nil
}

// PresentRecommendation is idempotent: presenting twice keeps the first timestamp.
func (u Usecases) PresentRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	dbc := dbctx.Context{Ctx: ctx}
	row, err := u.getOwnedRecommendation(ctx, dbc, id)
	if err != nil {
		return nil, err
	}
	if row.Presented() {
		return row, nil
	}
	now := u.now()
	if !row.IsActive || row.Expired(now) {
		return nil, apierr.Conflict("recommendation_expired", fmt.Errorf("recommendation %s is no longer active", id))
	}
	if _, err := u.deps.Recommendations.MarkPresented(dbc, id, now); err != nil {
		return nil, internal("present_recommendation", err)
	}
	row, err = u.deps.Recommendations.GetByID(dbc, id)
	if err != nil {
		return nil, internal("get_recommendation", err)
	}
	if row == nil || !row.Presented() {
		return nil, apierr.Conflict("recommendation_expired", fmt.Errorf("recommendation %s is no longer active", id))
	}
	return row, nil
}

// RespondToRecommendation records the student's action. A row accepts one response.
func (u Usecases) RespondToRecommendation(ctx context.Context, id uuid.UUID, action types.ResponseAction) (*types.Recommendation, error) {
	if _, err := personalization.ParseResponseAction(string(action)); err != nil {
		return nil, apierr.InvalidInput("invalid_action", err)
	}
	var out *types.Recommendation
	err := u.inTx(ctx, "respond_recommendation", func(dbc dbctx.Context) error {
		row, err := u.getOwnedRecommendation(ctx, dbc, id)
		if err != nil {
			return err
		}
		now := u.now()
		if row.Responded() {
			return apierr.Conflict("already_responded", fmt.Errorf("recommendation %s already has a response", id))
		}
		if !row.IsActive || row.Expired(now) {
			return apierr.Conflict("recommendation_expired", fmt.Errorf("recommendation %s is no longer active", id))
		}
		ok, err := u.deps.Recommendations.MarkResponded(dbc, id, action, now)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.Conflict("already_responded", fmt.Errorf("recommendation %s changed concurrently", id))
		}
		if action == personalization.ActionViewed || action == personalization.ActionStarted {
			if err := u.deps.Candidates.IncrementViewCount(dbc, row.ContentID); err != nil {
				return err
			}
		}
		out, err = u.deps.Recommendations.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, internal("respond_recommendation", err)
	}
	u.deps.Metrics.IncResponded(string(action))
	return out, nil
}

// SubmitFeedback decorates a responded recommendation with a rating; it never
// changes lifecycle state. Later feedback overwrites earlier feedback.
func (u Usecases) SubmitFeedback(ctx context.Context, id uuid.UUID, rating int, helpful bool) (*types.Recommendation, error) {
	if rating < 1 || rating > 5 {
		return nil, apierr.InvalidInput("invalid_rating", fmt.Errorf("rating must be between 1 and 5, got %d", rating))
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := u.getOwnedRecommendation(ctx, dbc, id)
	if err != nil {
		return nil, err
	}
	if !row.Responded() {
		return nil, apierr.Conflict("not_responded", fmt.Errorf("recommendation %s has no response yet", id))
	}
	ok, err := u.deps.Recommendations.SetFeedback(dbc, id, rating, helpful)
	if err != nil {
		return nil, internal("submit_feedback", err)
	}
	if !ok {
		return nil, apierr.Conflict("not_responded", fmt.Errorf("recommendation %s has no response yet", id))
	}
	row, err = u.deps.Recommendations.GetByID(dbc, id)
	if err != nil {
		return nil, internal("get_recommendation", err)
	}
	return row, nil
}

type ExpireResult struct {
	TTL        int64 `json:"ttl"`
	Unanswered int64 `json:"unanswered"`
}

// ExpireDue deactivates recommendations past their TTL, and presented ones left
// unanswered past the grace period. Safe to run concurrently.
func (u Usecases) ExpireDue(ctx context.Context) (ExpireResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	now := u.now()
	var res ExpireResult
	n, err := u.deps.Recommendations.ExpireDue(dbc, now)
	if err != nil {
		return res, fmt.Errorf("expire ttl: %w", err)
	}
	res.TTL = n
	if grace := u.deps.Config.UnansweredGrace; grace > 0 {
		n, err = u.deps.Recommendations.ExpireUnanswered(dbc, now.Add(-grace), now)
		if err != nil {
			return res, fmt.Errorf("expire unanswered: %w", err)
		}
		res.Unanswered = n
	}
	u.deps.Metrics.AddExpired(string(personalization.ExpiryTTL), res.TTL)
	u.deps.Metrics.AddExpired(string(personalization.ExpiryUnanswered), res.Unanswered)
	return res, nil
}
