package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-personalization/internal/http/response"
	"github.com/yungbote/neurobridge-personalization/internal/platform/logger"
)

func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if log != nil {
			log.Error("Handler panic", "path", c.Request.URL.Path, "panic", recovered)
		}
		response.RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	})
}
