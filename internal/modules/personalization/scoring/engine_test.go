package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

func boolPtr(v bool) *bool { return &v }

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func readingNeedsProfile() *types.UserProfile {
	p := types.DefaultUserProfile(uuid.New())
	p.ReadingFluency = 2
	p.Assessed = true
	return p
}

func candidate() *types.ContentCandidate {
	return &types.ContentCandidate{
		ID:               uuid.New(),
		SubjectArea:      "math",
		Difficulty:       personalization.DifficultyIntermediate,
		Format:           personalization.FormatText,
		EstimatedMinutes: 20,
		Published:        true,
		SuccessRate:      0.8,
		SampleSize:       40,
	}
}

func TestAccessibilityScenarios(t *testing.T) {
	e := mustEngine(t)
	learner := Learner{Profile: readingNeedsProfile()}

	friendly := candidate()
	friendly.DyslexiaFriendly = boolPtr(true)
	friendly.ADHDFriendly = boolPtr(false)
	if got := e.Score(learner, friendly).AccessibilityMatch; got != 1.0 {
		t.Fatalf("dyslexia-friendly candidate: accessibility=%v want 1.0", got)
	}

	unclassified := candidate()
	if got := e.Score(learner, unclassified).AccessibilityMatch; got != 0.5 {
		t.Fatalf("unclassified candidate: accessibility=%v want 0.5", got)
	}

	unfriendly := candidate()
	unfriendly.DyslexiaFriendly = boolPtr(false)
	if got := e.Score(learner, unfriendly).AccessibilityMatch; got != 0 {
		t.Fatalf("explicitly unfriendly candidate: accessibility=%v want 0", got)
	}

	noNeeds := Learner{Profile: types.DefaultUserProfile(uuid.New())}
	if got := e.Score(noNeeds, unfriendly).AccessibilityMatch; got != 1.0 {
		t.Fatalf("learner without needs: accessibility=%v want 1.0", got)
	}
}

func TestAccessibilityAveragesNeeds(t *testing.T) {
	e := mustEngine(t)
	p := readingNeedsProfile()
	p.SustainedAttention = 1
	c := candidate()
	c.DyslexiaFriendly = boolPtr(true)
	// ADHD flag unclassified: (1 + 0.5) / 2
	if got := e.Score(Learner{Profile: p}, c).AccessibilityMatch; math.Abs(got-0.75) > 1e-12 {
		t.Fatalf("accessibility=%v want 0.75", got)
	}
}

func TestDifficultyMatch(t *testing.T) {
	e := mustEngine(t)
	p := types.DefaultUserProfile(uuid.New())
	cases := []struct {
		name       string
		difficulty types.DifficultyLevel
		mastery    map[string]float64
		want       float64
	}{
		{"reading level tier exact", personalization.DifficultyIntermediate, nil, 1},
		{"one tier away", personalization.DifficultyAdvanced, nil, 0.5},
		{"two tiers away", personalization.DifficultyBeginner, nil, 0},
		{"mastery tier exact", personalization.DifficultyExpert, map[string]float64{"math": 1}, 1},
		{"mastery tier far", personalization.DifficultyBeginner, map[string]float64{"math": 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := candidate()
			c.Difficulty = tc.difficulty
			got := e.Score(Learner{Profile: p, Mastery: tc.mastery}, c).DifficultyMatch
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("difficulty=%v want %v", got, tc.want)
			}
		})
	}
}

func TestSuccessPredictionBlend(t *testing.T) {
	e := mustEngine(t)
	c := candidate()

	cold := e.Score(Learner{}, c).SuccessPrediction
	if math.Abs(cold-0.8) > 1e-12 {
		t.Fatalf("cold start should use the global rate, got %v", cold)
	}

	thin := e.Score(Learner{History: map[string]SubjectStats{"math": {Interactions: 2, Successes: 0}}}, c).SuccessPrediction
	if math.Abs(thin-0.8) > 1e-12 {
		t.Fatalf("two interactions should not blend, got %v", thin)
	}

	warm := e.Score(Learner{History: map[string]SubjectStats{"math": {Interactions: 4, Successes: 1}}}, c).SuccessPrediction
	want := 0.4*0.8 + 0.6*0.25
	if math.Abs(warm-want) > 1e-12 {
		t.Fatalf("blended prediction=%v want %v", warm, want)
	}

	noSample := candidate()
	noSample.SampleSize = 0
	if got := e.Score(Learner{}, noSample).SuccessPrediction; got != 0.5 {
		t.Fatalf("no global sample should be neutral, got %v", got)
	}
}

func TestScoreRangeAndDeterminism(t *testing.T) {
	e := mustEngine(t)
	formats := []types.ContentFormat{
		personalization.FormatText, personalization.FormatVideo,
		personalization.FormatAudio, personalization.FormatInteractive, "hologram",
	}
	profiles := []*types.UserProfile{nil, types.DefaultUserProfile(uuid.New()), readingNeedsProfile()}
	extreme := types.DefaultUserProfile(uuid.New())
	extreme.SustainedAttention, extreme.SensoryRegulation, extreme.ReadingFluency = 0, 0, 10
	extreme.PreferredSubjects = datatypes.JSON([]byte(`["science"]`))
	extreme.PreferredSessionLength = personalization.SessionShort
	profiles = append(profiles, extreme)

	for _, p := range profiles {
		for _, f := range formats {
			for d := 0; d <= 6; d++ {
				c := candidate()
				c.Format = f
				c.Difficulty = types.DifficultyLevel(d)
				c.EstimatedMinutes = 90
				c.SuccessRate = 1.7
				learner := Learner{Profile: p, History: map[string]SubjectStats{"math": {Interactions: 5, Successes: 5}}}

				a := e.Score(learner, c)
				b := e.Score(learner, c)
				for name, v := range map[string]float64{
					"overall": a.Overall, "confidence": a.Confidence, "relevance": a.Relevance,
					"accessibility": a.AccessibilityMatch, "style": a.LearningStyleMatch,
					"difficulty": a.DifficultyMatch, "success": a.SuccessPrediction,
				} {
					if v < 0 || v > 1 || math.IsNaN(v) {
						t.Fatalf("%s=%v out of range (format=%s difficulty=%d)", name, v, f, d)
					}
				}
				if math.Abs(a.Overall-b.Overall) > 1e-9 {
					t.Fatalf("non-deterministic overall: %v vs %v", a.Overall, b.Overall)
				}
			}
		}
	}
}

func TestOverallWeighting(t *testing.T) {
	e := mustEngine(t)
	s := e.Score(Learner{Profile: readingNeedsProfile()}, candidate())
	want := 0.30*s.Confidence + 0.20*s.Relevance + 0.25*s.AccessibilityMatch + 0.25*s.SuccessPrediction
	if math.Abs(s.Overall-want) > 1e-9 {
		t.Fatalf("overall=%v want %v", s.Overall, want)
	}
}

func TestConfidenceCountsSignals(t *testing.T) {
	e := mustEngine(t)
	c := candidate()
	c.SampleSize = 0
	if got := e.Score(Learner{}, c).Confidence; got != 0 {
		t.Fatalf("no signal at all should give 0 confidence, got %v", got)
	}

	p := readingNeedsProfile()
	p.PreferredSubjects = datatypes.JSON([]byte(`["math"]`))
	full := candidate()
	full.DyslexiaFriendly = boolPtr(true)
	if got := e.Score(Learner{Profile: p}, full).Confidence; got != 1 {
		t.Fatalf("full signal should give confidence 1, got %v", got)
	}
}

func TestRankTieBreaks(t *testing.T) {
	now := time.Now()
	older := &types.ContentCandidate{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)}
	newer := &types.ContentCandidate{ID: uuid.New(), CreatedAt: now}
	best := &types.ContentCandidate{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour)}

	ranked := Rank([]Scored{
		{Candidate: older, Scores: ComponentScores{Overall: 0.5}},
		{Candidate: best, Scores: ComponentScores{Overall: 0.9}},
		{Candidate: newer, Scores: ComponentScores{Overall: 0.5}},
	}, 2)
	if len(ranked) != 2 {
		t.Fatalf("expected limit 2, got %d", len(ranked))
	}
	if ranked[0].Candidate != best || ranked[1].Candidate != newer {
		t.Fatalf("unexpected order: %v, %v", ranked[0].Candidate.ID, ranked[1].Candidate.ID)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.Weights.Confidence = 0.5
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected weight sum error")
	}
	bad = DefaultConfig()
	bad.DifficultyFalloff = 0
	if _, err := New(bad); err == nil {
		t.Fatalf("expected falloff error")
	}
}
