package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/shared/config"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// SetTrustedDeviceCookie stores the device token as an HttpOnly cookie for
// the trust window.
func SetTrustedDeviceCookie(c *gin.Context, cookieConfig config.CookieConfig, token string, maxAge int) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		constants.CookieTrustedDevice,
		token,
		maxAge,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// ClearTrustedDeviceCookie removes the device token cookie.
func ClearTrustedDeviceCookie(c *gin.Context, cookieConfig config.CookieConfig) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		constants.CookieTrustedDevice,
		"",
		-1,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true,
	)
}

// GetTokenFromCookie retrieves a token from the named cookie, or "" when the
// cookie is absent.
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return ""
	}
	return token
}

// parseSameSite converts string to http.SameSite
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
