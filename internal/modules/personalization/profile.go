package personalization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/data/repos"
	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
	"github.com/yungbote/neurobridge-personalization/internal/platform/dbctx"
)

type ProfileView struct {
	Profile *types.UserProfile    `json:"profile"`
	Mastery []*types.TopicMastery `json:"mastery"`
}

// GetProfile returns the user's profile, creating the default one on first access.
func (u Usecases) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := u.deps.Profiles.GetOrCreate(dbc, userID)
	if err != nil {
		return nil, internal("get_profile", err)
	}
	m, err := u.deps.Mastery.GetByUserID(dbc, userID)
	if err != nil {
		return nil, internal("get_mastery", err)
	}
	return &ProfileView{Profile: p, Mastery: m}, nil
}

// ProfileUpdate carries the fields to change. Nil fields are left as they are.
// Version must equal the stored version.
type ProfileUpdate struct {
	Version int
	Traits  map[string]float64

	PreferredSessionLength *string
	PreferredEnvironment   *string
	ReadingLevel           *string
	PreferredSubjects      []string
	Assessed               *bool

	Mastery []MasteryUpdate
}

type MasteryUpdate struct {
	Topic      string
	Mastery    float64
	Confidence float64
}

// UpdateProfile supersedes the stored profile under an optimistic version check.
func (u Usecases) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*ProfileView, error) {
	if err := authorize(ctx, userID); err != nil {
		return nil, err
	}
	err := u.inTx(ctx, "update_profile", func(dbc dbctx.Context) error {
		p, err := u.deps.Profiles.GetOrCreate(dbc, userID)
		if err != nil {
			return err
		}
		if in.Version != p.Version {
			return apierr.Conflict("stale_profile", fmt.Errorf("profile version %d does not match %d", in.Version, p.Version))
		}
		if err := applyProfileUpdate(p, in); err != nil {
			return apierr.InvalidInput("invalid_profile", err)
		}
		if err := u.deps.Profiles.Supersede(dbc, p); err != nil {
			if errors.Is(err, repos.ErrStaleVersion) {
				return apierr.Conflict("stale_profile", err)
			}
			return err
		}
		now := u.now()
		for _, m := range in.Mastery {
			if strings.TrimSpace(m.Topic) == "" || m.Mastery < 0 || m.Mastery > 1 || m.Confidence < 0 || m.Confidence > 1 {
				return apierr.InvalidInput("invalid_mastery", fmt.Errorf("mastery for %q must have a topic and values in [0,1]", m.Topic))
			}
			if err := u.deps.Mastery.Upsert(dbc, &types.TopicMastery{
				UserID:         userID,
				Topic:          m.Topic,
				Mastery:        m.Mastery,
				Confidence:     m.Confidence,
				LastObservedAt: &now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internal("update_profile", err)
	}
	return u.GetProfile(ctx, userID)
}

var traitSetters = map[string]func(p *types.UserProfile, v float64){
	"hyperfocus_intensity":  func(p *types.UserProfile, v float64) { p.HyperfocusIntensity = v },
	"attention_flexibility": func(p *types.UserProfile, v float64) { p.AttentionFlexibility = v },
	"sustained_attention":   func(p *types.UserProfile, v float64) { p.SustainedAttention = v },
	"sensory_regulation":    func(p *types.UserProfile, v float64) { p.SensoryRegulation = v },
	"executive_function":    func(p *types.UserProfile, v float64) { p.ExecutiveFunction = v },
	"reading_fluency":       func(p *types.UserProfile, v float64) { p.ReadingFluency = v },
	"working_memory":        func(p *types.UserProfile, v float64) { p.WorkingMemory = v },
	"processing_speed":      func(p *types.UserProfile, v float64) { p.ProcessingSpeed = v },
	"social_communication":  func(p *types.UserProfile, v float64) { p.SocialCommunication = v },
	"visual_processing":     func(p *types.UserProfile, v float64) { p.VisualProcessing = v },
}

func applyProfileUpdate(p *types.UserProfile, in ProfileUpdate) error {
	for name, v := range in.Traits {
		set, ok := traitSetters[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("unknown trait %q", name)
		}
		if v < 0 || v > 10 {
			return fmt.Errorf("trait %q must be in [0,10], got %v", name, v)
		}
		set(p, v)
	}
	if in.PreferredSessionLength != nil {
		v, err := personalization.ParseSessionLength(*in.PreferredSessionLength)
		if err != nil {
			return err
		}
		p.PreferredSessionLength = v
	}
	if in.PreferredEnvironment != nil {
		v, err := personalization.ParseEnvironment(*in.PreferredEnvironment)
		if err != nil {
			return err
		}
		p.PreferredEnvironment = v
	}
	if in.ReadingLevel != nil {
		v, err := personalization.ParseReadingLevel(*in.ReadingLevel)
		if err != nil {
			return err
		}
		p.ReadingLevel = v
	}
	if in.PreferredSubjects != nil {
		subjects := make([]string, 0, len(in.PreferredSubjects))
		for _, s := range in.PreferredSubjects {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				subjects = append(subjects, s)
			}
		}
		raw, err := json.Marshal(subjects)
		if err != nil {
			return err
		}
		p.PreferredSubjects = datatypes.JSON(raw)
	}
	if in.Assessed != nil {
		p.Assessed = *in.Assessed
	} else if len(in.Traits) > 0 {
		p.Assessed = true
	}
	return nil
}

