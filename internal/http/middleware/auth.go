package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aleator-backend/internal/http/response"
	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
	"github.com/yungbote/aleator-backend/internal/services"
)

var (
	errBadToken  = errors.New("missing or invalid token")
	errNoSubject = errors.New("token does not name a user")
)

// AuthMiddleware guards the decision API with bearer tokens. Any valid token
// is accepted; ownership checks happen in the services.
type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), auth: auth}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			am.reject(c, http.StatusUnauthorized, "unauthorized", errBadToken)
			return
		}
		ctx, err := am.auth.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Rejected bearer token", "path", routeOf(c), "error", err)
			am.reject(c, http.StatusUnauthorized, "unauthorized", errBadToken)
			return
		}
		if ctxutil.UserID(ctx) == uuid.Nil {
			am.reject(c, http.StatusForbidden, "forbidden", errNoSubject)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, status int, code string, err error) {
	response.RespondError(c, status, code, err)
	c.Abort()
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
