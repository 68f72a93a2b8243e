package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/domain/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/http/response"
	uc "github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
)

type RecommendationService interface {
	GenerateRecommendations(ctx context.Context, studentID uuid.UUID, limit int) (*uc.GenerateResult, error)
	ListRecommendations(ctx context.Context, studentID uuid.UUID, includePresented bool) ([]*types.Recommendation, error)
	PresentRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)
	RespondToRecommendation(ctx context.Context, id uuid.UUID, action types.ResponseAction) (*types.Recommendation, error)
	SubmitFeedback(ctx context.Context, id uuid.UUID, rating int, helpful bool) (*types.Recommendation, error)
}

type RecommendationHandler struct {
	svc RecommendationService
}

func NewRecommendationHandler(svc RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// POST /api/recommendations/generate/:studentId?limit=
func (h *RecommendationHandler) Generate(c *gin.Context) {
	studentID, ok := uuidParam(c, "studentId")
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	res, err := h.svc.GenerateRecommendations(c.Request.Context(), studentID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/recommendations/student/:studentId?includePresented=
func (h *RecommendationHandler) ListForStudent(c *gin.Context) {
	studentID, ok := uuidParam(c, "studentId")
	if !ok {
		return
	}
	includePresented, ok := boolQuery(c, "includePresented")
	if !ok {
		return
	}
	rows, err := h.svc.ListRecommendations(c.Request.Context(), studentID, includePresented)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendations": rows})
}

func (h *RecommendationHandler) Present(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.svc.PresentRecommendation(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendation": row})
}

type respondRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *RecommendationHandler) Respond(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req respondRequest
	if !bindJSON(c, &req) {
		return
	}
	action, err := personalization.ParseResponseAction(req.Action)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_action", err)
		return
	}
	row, err := h.svc.RespondToRecommendation(c.Request.Context(), id, action)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendation": row})
}

type feedbackRequest struct {
	Rating  int  `json:"rating" binding:"required,min=1,max=5"`
	Helpful bool `json:"helpful"`
}

func (h *RecommendationHandler) Feedback(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.svc.SubmitFeedback(c.Request.Context(), id, req.Rating, req.Helpful)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendation": row})
}
