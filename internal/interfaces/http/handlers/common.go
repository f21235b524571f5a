package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/shared/constants"
)

// maxNicknameLength is the maximum allowed length for credential and device names
const maxNicknameLength = 100

// subjectIDFromContext extracts the authenticated subject ID set by the
// session middleware.
func subjectIDFromContext(c *gin.Context) (uint, bool) {
	val, exists := c.Get(constants.ContextKeySubjectID)
	if !exists {
		return 0, false
	}
	subjectID, ok := val.(uint)
	return subjectID, ok
}

// sessionIDFromContext extracts the session ID set by the session middleware.
func sessionIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(constants.ContextKeySessionID)
	if !exists {
		return "", false
	}
	sessionID, ok := val.(string)
	return sessionID, ok && sessionID != ""
}

// sanitizeName validates and sanitizes a user-supplied display name, falling
// back to fallback when nothing usable remains.
func sanitizeName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" || !utf8.ValidString(name) {
		return fallback
	}

	// Printable characters only, truncated by rune count
	var result strings.Builder
	runeCount := 0
	for _, r := range name {
		if r >= 32 && r != 127 {
			if runeCount >= maxNicknameLength {
				break
			}
			result.WriteRune(r)
			runeCount++
		}
	}

	sanitized := strings.TrimSpace(result.String())
	if sanitized == "" {
		return fallback
	}
	return sanitized
}

// clientContext pulls the request origin details recorded in security events.
func clientContext(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.GetHeader(constants.HeaderUserAgent)
}
