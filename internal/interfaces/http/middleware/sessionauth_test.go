package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

type fakeSessionGateway struct {
	sessions map[string]*mfa.SessionView
}

func (f *fakeSessionGateway) Get(ctx context.Context, sessionID string) (*mfa.SessionView, error) {
	view, exists := f.sessions[sessionID]
	if !exists {
		return nil, errors.NewNotFoundError("session not found")
	}
	return view, nil
}

func (f *fakeSessionGateway) Put(ctx context.Context, sessionID string, subjectID uint, state mfa.SecondFactorState) error {
	f.sessions[sessionID] = &mfa.SessionView{SubjectID: subjectID, State: state}
	return nil
}

func (f *fakeSessionGateway) SetState(ctx context.Context, sessionID string, state mfa.SecondFactorState) error {
	view, exists := f.sessions[sessionID]
	if !exists {
		return errors.NewNotFoundError("session not found")
	}
	view.State = state
	return nil
}

func (f *fakeSessionGateway) Delete(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

type silentLogger struct{}

func (l *silentLogger) Debug(msg string, args ...any)                   {}
func (l *silentLogger) Info(msg string, args ...any)                    {}
func (l *silentLogger) Warn(msg string, args ...any)                    {}
func (l *silentLogger) Error(msg string, args ...any)                   {}
func (l *silentLogger) With(args ...any) logger.Interface               { return l }
func (l *silentLogger) Named(name string) logger.Interface              { return l }
func (l *silentLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *silentLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *silentLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *silentLogger) Errorw(msg string, keysAndValues ...interface{}) {}

func setupTestRouter(gateway *fakeSessionGateway, verified bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	auth := NewSessionAuthMiddleware(gateway, &silentLogger{})

	handlers := []gin.HandlerFunc{auth.RequireSession()}
	if verified {
		handlers = append(handlers, auth.RequireVerified())
	}
	handlers = append(handlers, func(c *gin.Context) {
		subjectID := c.GetUint(constants.ContextKeySubjectID)
		c.JSON(http.StatusOK, gin.H{"subject_id": subjectID})
	})

	engine.GET("/protected", handlers...)
	return engine
}

func doRequest(engine *gin.Engine, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: constants.CookieSessionID, Value: sessionID})
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequireSession_MissingCookie(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{}}
	engine := setupTestRouter(gateway, false)

	w := doRequest(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSession_UnknownSession(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{}}
	engine := setupTestRouter(gateway, false)

	w := doRequest(engine, "missing")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSession_ValidSession(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{
		"sess-1": {SubjectID: 42, State: mfa.StateAwaitingSecondFactor},
	}}
	engine := setupTestRouter(gateway, false)

	w := doRequest(engine, "sess-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestRequireVerified_AwaitingSession(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{
		"sess-1": {SubjectID: 42, State: mfa.StateAwaitingSecondFactor},
	}}
	engine := setupTestRouter(gateway, true)

	// An awaiting session can reach verify endpoints but not management
	w := doRequest(engine, "sess-1")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireVerified_VerifiedSession(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{
		"sess-1": {SubjectID: 42, State: mfa.StateVerified},
	}}
	engine := setupTestRouter(gateway, true)

	w := doRequest(engine, "sess-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireVerified_NoSecondFactorSession(t *testing.T) {
	gateway := &fakeSessionGateway{sessions: map[string]*mfa.SessionView{
		"sess-1": {SubjectID: 42, State: mfa.StateNoSecondFactor},
	}}
	engine := setupTestRouter(gateway, true)

	// Subjects without MFA are not blocked from their own settings
	w := doRequest(engine, "sess-1")
	assert.Equal(t, http.StatusOK, w.Code)
}
