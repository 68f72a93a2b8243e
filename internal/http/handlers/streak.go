package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/http/response"
	uc "github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
)

type StreakService interface {
	Streak(ctx context.Context, userID uuid.UUID) (*uc.StreakResult, error)
}

type StreakHandler struct {
	svc StreakService
}

func NewStreakHandler(svc StreakService) *StreakHandler { return &StreakHandler{svc: svc} }

func (h *StreakHandler) Get(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	res, err := h.svc.Streak(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
