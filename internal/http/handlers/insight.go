package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/http/response"
)

type InsightService interface {
	AnalyzeInsights(ctx context.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error)
	PresentInsights(ctx context.Context, userID uuid.UUID) ([]*types.AdaptiveInsight, error)
	RespondToInsight(ctx context.Context, id uuid.UUID, resp types.InsightResponse) (*types.AdaptiveInsight, error)
}

type InsightHandler struct {
	svc InsightService
}

func NewInsightHandler(svc InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

func (h *InsightHandler) Analyze(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	created, err := h.svc.AnalyzeInsights(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"insights": created})
}

// List returns insights that pass the presentation gate.
//
// This GET is not read-only: every insight it returns is marked presented and
// will not be returned again. The response is sent with Cache-Control: no-store
// so no intermediary replays it.
func (h *InsightHandler) List(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	rows, err := h.svc.PresentInsights(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, gin.H{"insights": rows})
}

type insightResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

func (h *InsightHandler) Respond(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req insightResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := personalization.ParseInsightResponse(req.Response)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_response", err)
		return
	}
	row, err := h.svc.RespondToInsight(c.Request.Context(), id, resp)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"insight": row})
}
