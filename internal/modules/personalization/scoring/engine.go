package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
)

// SubjectStats is a learner's track record in one subject area.
type SubjectStats struct {
	Interactions int
	Successes    int
}

func (s SubjectStats) Rate() float64 {
	if s.Interactions <= 0 {
		return 0
	}
	return clamp01(float64(s.Successes) / float64(s.Interactions))
}

// Learner is everything the engine knows about one student. A nil Profile is
// treated as the default profile.
type Learner struct {
	Profile *types.UserProfile
	// Mastery maps lower-cased subject area to mastery in [0,1].
	Mastery map[string]float64
	// History maps lower-cased subject area to the learner's past outcomes.
	History map[string]SubjectStats
}

// ComponentScores are the per-factor results for one (learner, candidate) pair, each in [0,1].
type ComponentScores struct {
	Confidence         float64  `json:"confidence"`
	Relevance          float64  `json:"relevance"`
	AccessibilityMatch float64  `json:"accessibility_match"`
	LearningStyleMatch float64  `json:"learning_style_match"`
	DifficultyMatch    float64  `json:"difficulty_match"`
	SuccessPrediction  float64  `json:"success_prediction"`
	Overall            float64  `json:"overall"`
	Reasons            []string `json:"reasons,omitempty"`
}

// Engine scores content candidates against learners. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New returns an engine for cfg, or DefaultConfig when cfg is nil.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: *cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Score(learner Learner, c *types.ContentCandidate) ComponentScores {
	p := learner.Profile
	if p == nil {
		p = types.DefaultUserProfile(uuid.Nil)
	}
	if c == nil {
		c = &types.ContentCandidate{}
	}
	subject := strings.ToLower(strings.TrimSpace(c.SubjectArea))

	var out ComponentScores
	signals := 0

	access, accessSignal, accessReasons := e.accessibility(p, c)
	out.AccessibilityMatch = access
	out.Reasons = append(out.Reasons, accessReasons...)
	if accessSignal {
		signals++
	}

	mastery, hasMastery := learner.Mastery[subject]
	out.DifficultyMatch = e.difficulty(p, c, mastery, hasMastery)

	style, styleSignal := e.learningStyle(p, c)
	out.LearningStyleMatch = style
	if styleSignal {
		signals++
	}

	affinity, relevanceSignal := e.subjectAffinity(p, subject)
	if affinity >= e.cfg.PreferredSubjectAffinity && relevanceSignal {
		out.Reasons = append(out.Reasons, "matches a preferred subject")
	}
	out.Relevance = clamp01(
		e.cfg.Relevance.Subject*affinity +
			e.cfg.Relevance.Difficulty*out.DifficultyMatch +
			e.cfg.Relevance.LearningStyle*out.LearningStyleMatch,
	)
	if relevanceSignal || hasMastery {
		signals++
	}
	if out.DifficultyMatch >= 1 {
		out.Reasons = append(out.Reasons, "difficulty fits current level")
	}

	success, successSignal := e.successPrediction(c, learner.History[subject])
	out.SuccessPrediction = success
	if successSignal {
		signals++
	}

	out.Confidence = float64(signals) / 4
	out.Overall = clamp01(
		e.cfg.Weights.Confidence*out.Confidence +
			e.cfg.Weights.Relevance*out.Relevance +
			e.cfg.Weights.Accessibility*out.AccessibilityMatch +
			e.cfg.Weights.SuccessPrediction*out.SuccessPrediction,
	)
	return out
}

// accessibility averages how well the candidate serves each significant need.
// An unclassified flag scores neutral so unlabelled content is not excluded.
func (e *Engine) accessibility(p *types.UserProfile, c *types.ContentCandidate) (float64, bool, []string) {
	type need struct {
		flag   *bool
		reason string
	}
	var needs []need
	if p.HasSignificantReadingNeeds() {
		needs = append(needs, need{c.DyslexiaFriendly, "dyslexia-friendly"})
	}
	if p.HasSignificantAttentionNeeds() {
		needs = append(needs, need{c.ADHDFriendly, "ADHD-friendly"})
	}
	if p.HasSignificantSensoryNeeds() {
		needs = append(needs, need{c.AutismFriendly, "autism-friendly"})
	}
	if len(needs) == 0 {
		return 1.0, p.Assessed, nil
	}

	var (
		sum     float64
		known   bool
		reasons []string
	)
	for _, n := range needs {
		switch {
		case n.flag == nil:
			sum += e.cfg.NeutralScore
		case *n.flag:
			sum += 1
			known = true
			reasons = append(reasons, n.reason)
		default:
			known = true
		}
	}
	return clamp01(sum / float64(len(needs))), known, reasons
}

// difficulty peaks at the learner's tier and falls to 0 DifficultyFalloff tiers away.
func (e *Engine) difficulty(p *types.UserProfile, c *types.ContentCandidate, mastery float64, hasMastery bool) float64 {
	tier := p.ReadingLevel.Tier()
	if hasMastery {
		tier = (&types.TopicMastery{Mastery: mastery}).Tier()
	}
	d := c.Difficulty
	if !d.Valid() {
		d = personalization.DifficultyIntermediate
	}
	dist := math.Abs(float64(int(d) - tier))
	return math.Max(0, 1-dist/e.cfg.DifficultyFalloff)
}

func (e *Engine) learningStyle(p *types.UserProfile, c *types.ContentCandidate) (float64, bool) {
	var affinity float64
	known := true
	switch c.Format {
	case personalization.FormatText:
		affinity = trait(p.ReadingFluency)
	case personalization.FormatVideo:
		affinity = trait(p.VisualProcessing)
	case personalization.FormatAudio:
		affinity = (trait(p.WorkingMemory) + trait(p.SustainedAttention)) / 2
	case personalization.FormatInteractive:
		affinity = ((1 - trait(p.SustainedAttention)) + trait(p.AttentionFlexibility)) / 2
	default:
		affinity = e.cfg.NeutralScore
		known = false
	}

	fit := 1.0
	preferred := p.PreferredSessionLength.Minutes()
	if c.EstimatedMinutes > preferred && c.EstimatedMinutes > 0 {
		fit = float64(preferred) / float64(c.EstimatedMinutes)
	}
	return clamp01(affinity * fit), known && p.Assessed
}

func (e *Engine) subjectAffinity(p *types.UserProfile, subject string) (float64, bool) {
	prefs := p.Subjects()
	if len(prefs) == 0 {
		return e.cfg.NeutralSubjectAffinity, false
	}
	for _, s := range prefs {
		if s == subject {
			return e.cfg.PreferredSubjectAffinity, true
		}
	}
	return e.cfg.OtherSubjectAffinity, true
}

func (e *Engine) successPrediction(c *types.ContentCandidate, hist SubjectStats) (float64, bool) {
	global := e.cfg.NeutralScore
	signal := false
	if c.SampleSize > 0 {
		global = clamp01(c.SuccessRate)
		signal = true
	}
	if hist.Interactions >= e.cfg.MinUserInteractions && hist.Interactions > 0 {
		return clamp01(e.cfg.GlobalWeight*global + (1-e.cfg.GlobalWeight)*hist.Rate()), true
	}
	return global, signal
}

// Scored is a candidate with its scores, ready for ranking.
type Scored struct {
	Candidate *types.ContentCandidate
	Scores    ComponentScores
}

// Rank orders by overall score, then newest candidate, then id, and keeps the top limit.
func Rank(items []Scored, limit int) []Scored {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Scores.Overall != b.Scores.Overall {
			return a.Scores.Overall > b.Scores.Overall
		}
		if !a.Candidate.CreatedAt.Equal(b.Candidate.CreatedAt) {
			return a.Candidate.CreatedAt.After(b.Candidate.CreatedAt)
		}
		return strings.Compare(a.Candidate.ID.String(), b.Candidate.ID.String()) < 0
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func trait(v float64) float64 { return clamp01(v / 10) }

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
