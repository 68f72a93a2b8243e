package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-personalization/internal/domain"
	"github.com/yungbote/neurobridge-personalization/internal/http/response"
	uc "github.com/yungbote/neurobridge-personalization/internal/modules/personalization"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
)

type UsageService interface {
	IngestUsageEvents(ctx context.Context, userID uuid.UUID, in []uc.UsageEventInput) (*uc.IngestResult, error)
	RecordStudySession(ctx context.Context, userID uuid.UUID, in uc.StudySessionInput) (*types.StudySession, error)
}

type UsageHandler struct {
	svc UsageService
}

func NewUsageHandler(svc UsageService) *UsageHandler { return &UsageHandler{svc: svc} }

type usageEventRequest struct {
	ClientEventID   string    `json:"client_event_id" binding:"required,max=128"`
	ToolName        string    `json:"tool_name" binding:"required,max=64"`
	Kind            string    `json:"kind"`
	OccurredAt      time.Time `json:"occurred_at" binding:"required"`
	EnergyLevel     int       `json:"energy_level" binding:"min=0,max=10"`
	SessionID       string    `json:"session_id" binding:"max=128"`
	DurationSeconds int       `json:"duration_seconds" binding:"min=0"`
}

type ingestUsageRequest struct {
	// UserID is only honoured for service callers; users always write their own events.
	UserID uuid.UUID           `json:"user_id"`
	Events []usageEventRequest `json:"events" binding:"required,min=1,dive"`
}

// targetUser resolves whose data a write applies to.
func targetUser(c *gin.Context, requested uuid.UUID) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	if rd.Role == ctxutil.RoleService {
		if requested == uuid.Nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_user_id", errors.New("user_id required for service callers"))
			return uuid.Nil, false
		}
		return requested, true
	}
	return rd.UserID, true
}

func (h *UsageHandler) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
	var req ingestUsageRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := targetUser(c, req.UserID)
	if !ok {
		return
	}
	in := make([]uc.UsageEventInput, 0, len(req.Events))
	for _, ev := range req.Events {
		in = append(in, uc.UsageEventInput{
			ClientEventID:   ev.ClientEventID,
			ToolName:        ev.ToolName,
			Kind:            ev.Kind,
			OccurredAt:      ev.OccurredAt,
			EnergyLevel:     ev.EnergyLevel,
			SessionID:       ev.SessionID,
			DurationSeconds: ev.DurationSeconds,
		})
	}
	res, err := h.svc.IngestUsageEvents(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type studySessionRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	StudyDate string    `json:"study_date" binding:"required"`
	Subject   string    `json:"subject" binding:"max=128"`
	Minutes   int       `json:"minutes" binding:"min=0"`
	Completed bool      `json:"completed"`
}

func (h *UsageHandler) RecordStudySession(c *gin.Context) {
	var req studySessionRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := targetUser(c, req.UserID)
	if !ok {
		return
	}
	row, err := h.svc.RecordStudySession(c.Request.Context(), userID, uc.StudySessionInput{
		StudyDate: req.StudyDate,
		Subject:   req.Subject,
		Minutes:   req.Minutes,
		Completed: req.Completed,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"study_session": row})
}
