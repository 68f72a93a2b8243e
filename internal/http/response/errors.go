package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-personalization/internal/platform/apierr"
)

// RespondAPIError maps use-case errors onto the JSON envelope. Anything that is
// not an *apierr.Error with a client status is reported as an opaque 500.
func RespondAPIError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 500 {
		code := ae.Code
		if code == "" {
			code = http.StatusText(ae.Status)
		}
		RespondError(c, ae.Status, code, ae.Err)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		RespondError(c, http.StatusGatewayTimeout, "timeout", nil)
		return
	}
	if errors.Is(err, context.Canceled) {
		// client went away; nothing useful to write
		c.Abort()
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
}
