package scoring

import (
	"fmt"
	"math"
)

const weightTolerance = 1e-9

// Weights combine the component scores into the overall score. They must sum to 1.
type Weights struct {
	Confidence        float64 `json:"confidence"`
	Relevance         float64 `json:"relevance"`
	Accessibility     float64 `json:"accessibility"`
	SuccessPrediction float64 `json:"success_prediction"`
}

// RelevanceWeights combine subject affinity, difficulty fit, and learning style
// into relevance. They must sum to 1.
type RelevanceWeights struct {
	Subject       float64 `json:"subject"`
	Difficulty    float64 `json:"difficulty"`
	LearningStyle float64 `json:"learning_style"`
}

type Config struct {
	Weights   Weights          `json:"weights"`
	Relevance RelevanceWeights `json:"relevance"`

	// Subject affinity for a preferred subject, for a learner with no stated
	// preference, and for any other subject.
	PreferredSubjectAffinity float64 `json:"preferred_subject_affinity"`
	NeutralSubjectAffinity   float64 `json:"neutral_subject_affinity"`
	OtherSubjectAffinity     float64 `json:"other_subject_affinity"`

	// NeutralScore is used wherever a component has no signal.
	NeutralScore float64 `json:"neutral_score"`

	// DifficultyFalloff is the tier distance at which difficulty match reaches 0.
	DifficultyFalloff float64 `json:"difficulty_falloff"`

	// MinUserInteractions is the subject history needed before the learner's own
	// success rate is blended in; GlobalWeight is the share kept by the
	// candidate's global rate once it is.
	MinUserInteractions int     `json:"min_user_interactions"`
	GlobalWeight        float64 `json:"global_weight"`
}

func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Confidence:        0.30,
			Relevance:         0.20,
			Accessibility:     0.25,
			SuccessPrediction: 0.25,
		},
		Relevance: RelevanceWeights{
			Subject:       0.40,
			Difficulty:    0.35,
			LearningStyle: 0.25,
		},
		PreferredSubjectAffinity: 1.0,
		NeutralSubjectAffinity:   0.5,
		OtherSubjectAffinity:     0.2,
		NeutralScore:             0.5,
		DifficultyFalloff:        2.0,
		MinUserInteractions:      3,
		GlobalWeight:             0.4,
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("scoring config is nil")
	}
	for name, w := range map[string]float64{
		"weights.confidence":         c.Weights.Confidence,
		"weights.relevance":          c.Weights.Relevance,
		"weights.accessibility":      c.Weights.Accessibility,
		"weights.success_prediction": c.Weights.SuccessPrediction,
		"relevance.subject":          c.Relevance.Subject,
		"relevance.difficulty":       c.Relevance.Difficulty,
		"relevance.learning_style":   c.Relevance.LearningStyle,
	} {
		if w < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, w)
		}
	}
	sum := c.Weights.Confidence + c.Weights.Relevance + c.Weights.Accessibility + c.Weights.SuccessPrediction
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %f", sum)
	}
	rsum := c.Relevance.Subject + c.Relevance.Difficulty + c.Relevance.LearningStyle
	if math.Abs(rsum-1) > weightTolerance {
		return fmt.Errorf("relevance weights must sum to 1, got %f", rsum)
	}

	for name, v := range map[string]float64{
		"preferred_subject_affinity": c.PreferredSubjectAffinity,
		"neutral_subject_affinity":   c.NeutralSubjectAffinity,
		"other_subject_affinity":     c.OtherSubjectAffinity,
		"neutral_score":              c.NeutralScore,
		"global_weight":              c.GlobalWeight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, v)
		}
	}
	if c.DifficultyFalloff <= 0 {
		return fmt.Errorf("difficulty_falloff must be positive, got %f", c.DifficultyFalloff)
	}
	if c.MinUserInteractions < 0 {
		return fmt.Errorf("min_user_interactions must be non-negative, got %d", c.MinUserInteractions)
	}
	return nil
}
