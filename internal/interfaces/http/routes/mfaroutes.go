package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/interfaces/http/handlers"
	"github.com/inkwell-press/inkwell/internal/interfaces/http/middleware"
)

type MfaRouteConfig struct {
	TotpHandler          *handlers.TotpHandler
	WebAuthnHandler      *handlers.WebAuthnHandler
	RecoveryCodeHandler  *handlers.RecoveryCodeHandler
	TrustedDeviceHandler *handlers.TrustedDeviceHandler
	MfaHandler           *handlers.MfaHandler
	SessionAuth          *middleware.SessionAuthMiddleware
}

// SetupMfaRoutes wires the second-factor endpoints. Verification endpoints
// only need a resolvable session, since they are exactly what a session in the
// awaiting state calls to get out of it. Management endpoints additionally
// require the session to be past its second factor.
func SetupMfaRoutes(engine *gin.Engine, config *MfaRouteConfig) {
	mfa := engine.Group("/mfa")
	mfa.Use(config.SessionAuth.RequireSession())
	{
		// Verification endpoints reachable while awaiting the second factor
		mfa.POST("/verify/totp", config.TotpHandler.VerifyLogin)
		mfa.POST("/verify/recovery-code", config.RecoveryCodeHandler.Consume)
		mfa.POST("/verify/device", config.TrustedDeviceHandler.Validate)
		mfa.POST("/webauthn/login/start", config.WebAuthnHandler.StartLogin)
		mfa.POST("/webauthn/login/finish", config.WebAuthnHandler.FinishLogin)

		// Management endpoints require a fully verified session
		verified := mfa.Group("")
		verified.Use(config.SessionAuth.RequireVerified())
		{
			verified.GET("/status", config.MfaHandler.Status)
			verified.GET("/activity", config.MfaHandler.Activity)

			verified.POST("/totp/enroll", config.TotpHandler.BeginEnrollment)
			verified.POST("/totp/activate", config.TotpHandler.Activate)
			verified.DELETE("/totp", config.TotpHandler.Disable)

			verified.POST("/webauthn/register/start", config.WebAuthnHandler.StartRegistration)
			verified.POST("/webauthn/register/finish", config.WebAuthnHandler.FinishRegistration)
			verified.GET("/webauthn/credentials", config.WebAuthnHandler.ListCredentials)
			verified.PATCH("/webauthn/credentials/:id", config.WebAuthnHandler.RenameCredential)
			verified.DELETE("/webauthn/credentials/:id", config.WebAuthnHandler.RevokeCredential)

			verified.POST("/recovery-codes", config.RecoveryCodeHandler.Regenerate)

			verified.POST("/devices/trust", config.TrustedDeviceHandler.Trust)
			verified.GET("/devices", config.TrustedDeviceHandler.List)
			verified.DELETE("/devices", config.TrustedDeviceHandler.RevokeAll)
			verified.DELETE("/devices/:id", config.TrustedDeviceHandler.Revoke)
		}
	}
}

// SetupInternalRoutes wires the hooks called by the surrounding identity
// provider. These run server-to-server and carry the session ID in the body,
// so the session cookie middleware stays out of the way.
func SetupInternalRoutes(engine *gin.Engine, config *MfaRouteConfig) {
	internal := engine.Group("/internal")
	{
		internal.POST("/sessions/resolve", config.MfaHandler.ResolveLoginState)
		internal.POST("/sessions/check", config.MfaHandler.CheckSession)
	}
}
