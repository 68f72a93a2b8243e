package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/http/response"
	uc "github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*uc.ProfileView, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in uc.ProfileUpdate) (*uc.ProfileView, error)
}

type ProfileHandler struct {
	svc ProfileService
}

func NewProfileHandler(svc ProfileService) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	view, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

type masteryRequest struct {
	Topic      string  `json:"topic" binding:"required,max=128"`
	Mastery    float64 `json:"mastery" binding:"min=0,max=1"`
	Confidence float64 `json:"confidence" binding:"min=0,max=1"`
}

type updateProfileRequest struct {
	Version int                `json:"version" binding:"required,min=1"`
	Traits  map[string]float64 `json:"traits"`

	PreferredSessionLength *string  `json:"preferred_session_length"`
	PreferredEnvironment   *string  `json:"preferred_environment"`
	ReadingLevel           *string  `json:"reading_level"`
	PreferredSubjects      []string `json:"preferred_subjects" binding:"max=50"`
	Assessed               *bool    `json:"assessed"`

	Mastery []masteryRequest `json:"mastery" binding:"max=200,dive"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	in := uc.ProfileUpdate{
		Version:                req.Version,
		Traits:                 req.Traits,
		PreferredSessionLength: req.PreferredSessionLength,
		PreferredEnvironment:   req.PreferredEnvironment,
		ReadingLevel:           req.ReadingLevel,
		PreferredSubjects:      req.PreferredSubjects,
		Assessed:               req.Assessed,
	}
	for _, m := range req.Mastery {
		in.Mastery = append(in.Mastery, uc.MasteryUpdate{Topic: m.Topic, Mastery: m.Mastery, Confidence: m.Confidence})
	}
	view, err := h.svc.UpdateProfile(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}
