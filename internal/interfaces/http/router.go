package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/interfaces/http/middleware"
	"github.com/inkwell-press/inkwell/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.Logger(c.log))
	c.engine.Use(middleware.Recovery())
	c.engine.Use(middleware.ErrorHandler())
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	c.engine.Use(middleware.SecurityHeaders())

	c.engine.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routeConfig := &routes.MfaRouteConfig{
		TotpHandler:          c.totpHandler,
		WebAuthnHandler:      c.webAuthnHandler,
		RecoveryCodeHandler:  c.recoveryCodeHandler,
		TrustedDeviceHandler: c.trustedDeviceHandler,
		MfaHandler:           c.mfaHandler,
		SessionAuth:          c.sessionAuth,
	}
	routes.SetupMfaRoutes(c.engine, routeConfig)
	routes.SetupInternalRoutes(c.engine, routeConfig)
}

// GetEngine returns the Gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}
