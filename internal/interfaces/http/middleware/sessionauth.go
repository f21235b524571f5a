package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// SessionAuthMiddleware resolves the login session cookie into a subject.
// Session issuance belongs to the surrounding identity provider; this layer
// only reads the session and its second-factor state.
type SessionAuthMiddleware struct {
	sessions mfa.SessionGateway
	logger   logger.Interface
}

func NewSessionAuthMiddleware(sessions mfa.SessionGateway, logger logger.Interface) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession rejects requests without a resolvable session. The session's
// subject and state land in the request context for downstream handlers.
func (m *SessionAuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := utils.GetTokenFromCookie(c, constants.CookieSessionID)
		if sessionID == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
			c.Abort()
			return
		}

		session, err := m.sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			m.logger.Debugw("failed to resolve session", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeySessionID, sessionID)
		c.Set(constants.ContextKeySubjectID, session.SubjectID)
		c.Set(constants.ContextKeySecondFactorState, session.State)

		c.Next()
	}
}

// RequireVerified additionally rejects sessions still awaiting their second
// factor. Must run after RequireSession.
func (m *SessionAuthMiddleware) RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		stateVal, exists := c.Get(constants.ContextKeySecondFactorState)
		if !exists {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
			c.Abort()
			return
		}

		state, ok := stateVal.(mfa.SecondFactorState)
		if !ok || state == mfa.StateAwaitingSecondFactor {
			utils.ErrorResponse(c, http.StatusForbidden, "second factor verification required")
			c.Abort()
			return
		}

		c.Next()
	}
}
