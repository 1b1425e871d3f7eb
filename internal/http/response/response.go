package response

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aleator-backend/internal/pkg/apierr"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type APIError struct {
	Message  string     `json:"message"`
	Code     string     `json:"code,omitempty"`
	ResumeAt *time.Time `json:"resume_at,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error onto its status. Server-side
// failures are logged and answered with a generic message.
func RespondServiceError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	body := APIError{Message: ae.Error(), Code: ae.Code, ResumeAt: ae.ResumeAt}
	if ae.Internal() {
		if log != nil {
			log.Error("Request failed", "path", c.FullPath(), "error", err)
		}
		body.Message = "internal server error"
	}
	if ae.ResumeAt != nil {
		secs := math.Ceil(ae.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.FormatInt(int64(secs), 10))
	}
	c.JSON(ae.Status, ErrorEnvelope{Error: body})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
