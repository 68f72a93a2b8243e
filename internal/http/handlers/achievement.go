package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/http/response"
)

type AchievementService interface {
	CheckAchievements(ctx context.Context, userID uuid.UUID, reported map[string]int64) ([]*types.UnlockedAchievement, error)
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]*types.UnlockedAchievement, error)
	MarkAchievementsViewed(ctx context.Context, userID uuid.UUID, achievementIDs []uuid.UUID) (int64, error)
}

type AchievementHandler struct {
	svc AchievementService
}

func NewAchievementHandler(svc AchievementService) *AchievementHandler {
	return &AchievementHandler{svc: svc}
}

type checkAchievementsRequest struct {
	Metrics map[string]int64 `json:"metrics"`
}

// Check evaluates the catalog for the user. The body is optional.
func (h *AchievementHandler) Check(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req checkAchievementsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	unlocked, err := h.svc.CheckAchievements(c.Request.Context(), userID, req.Metrics)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unlocked": unlocked})
}

func (h *AchievementHandler) List(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	rows, err := h.svc.ListAchievements(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": rows})
}

type markViewedRequest struct {
	AchievementIDs []uuid.UUID `json:"achievement_ids"`
}

// MarkViewed clears the new flag for the listed achievements, or all of them when
// the list is empty.
func (h *AchievementHandler) MarkViewed(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req markViewedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.svc.MarkAchievementsViewed(c.Request.Context(), userID, req.AchievementIDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": n})
}
