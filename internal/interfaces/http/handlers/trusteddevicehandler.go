package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	sharedConfig "github.com/inkwell-press/inkwell/internal/shared/config"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/id"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// TrustedDeviceHandler handles remember-this-device requests
type TrustedDeviceHandler struct {
	trustUC      *usecases.TrustDeviceUseCase
	validateUC   *usecases.ValidateTrustedDeviceUseCase
	listUC       *usecases.ListTrustedDevicesUseCase
	revokeUC     *usecases.RevokeTrustedDeviceUseCase
	revokeAllUC  *usecases.RevokeAllTrustedDevicesUseCase
	cookieConfig sharedConfig.CookieConfig
	deviceConfig sharedConfig.TrustedDeviceConfig
	logger       logger.Interface
}

// NewTrustedDeviceHandler creates a new TrustedDeviceHandler
func NewTrustedDeviceHandler(
	trustUC *usecases.TrustDeviceUseCase,
	validateUC *usecases.ValidateTrustedDeviceUseCase,
	listUC *usecases.ListTrustedDevicesUseCase,
	revokeUC *usecases.RevokeTrustedDeviceUseCase,
	revokeAllUC *usecases.RevokeAllTrustedDevicesUseCase,
	cookieConfig sharedConfig.CookieConfig,
	deviceConfig sharedConfig.TrustedDeviceConfig,
	logger logger.Interface,
) *TrustedDeviceHandler {
	return &TrustedDeviceHandler{
		trustUC:      trustUC,
		validateUC:   validateUC,
		listUC:       listUC,
		revokeUC:     revokeUC,
		revokeAllUC:  revokeAllUC,
		cookieConfig: cookieConfig,
		deviceConfig: deviceConfig,
		logger:       logger,
	}
}

// TrustRequest is the request body for remembering the current device
type TrustRequest struct {
	DeviceName string `json:"device_name,omitempty"`
}

// Trust remembers the current device after a completed verification. The
// plaintext token is set as an HttpOnly cookie and also returned for
// non-browser clients.
func (h *TrustedDeviceHandler) Trust(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	var req TrustRequest
	// Optional body
	_ = c.ShouldBindJSON(&req)

	ip, userAgent := clientContext(c)
	result, err := h.trustUC.Execute(c.Request.Context(), usecases.TrustDeviceCommand{
		SessionID:  sessionID,
		DeviceName: sanitizeName(req.DeviceName, ""),
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	maxAge := int(h.deviceConfig.TTL().Seconds())
	utils.SetTrustedDeviceCookie(c, h.cookieConfig, result.Token, maxAge)

	utils.SuccessResponse(c, http.StatusOK, "device trusted", gin.H{
		"token":  result.Token,
		"device": result.Device,
	})
}

// Validate checks the device token cookie for a session awaiting its second
// factor, verifying the session when the trust holds
func (h *TrustedDeviceHandler) Validate(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	token := utils.GetTokenFromCookie(c, constants.CookieTrustedDevice)

	result, err := h.validateUC.Execute(c.Request.Context(), usecases.ValidateTrustedDeviceCommand{
		SessionID: sessionID,
		Token:     token,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	// A dead token is useless to keep around
	if !result.Trusted && token != "" {
		utils.ClearTrustedDeviceCookie(c, h.cookieConfig)
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"trusted": result.Trusted,
		"state":   result.State,
	})
}

// List lists the subject's remembered devices
func (h *TrustedDeviceHandler) List(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.listUC.Execute(c.Request.Context(), usecases.ListTrustedDevicesCommand{
		SubjectID: subjectID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"devices": result.Devices,
	})
}

// Revoke removes one remembered device
func (h *TrustedDeviceHandler) Revoke(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	sid, err := utils.ParseSIDParam(c, "id", id.PrefixTrustedDevice, "trusted device")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ip, userAgent := clientContext(c)
	if err := h.revokeUC.Execute(c.Request.Context(), usecases.RevokeTrustedDeviceCommand{
		SubjectID: subjectID,
		SID:       sid,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "device revoked", nil)
}

// RevokeAll removes every remembered device for the subject
func (h *TrustedDeviceHandler) RevokeAll(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.revokeAllUC.Execute(c.Request.Context(), usecases.RevokeAllTrustedDevicesCommand{
		SubjectID: subjectID,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ClearTrustedDeviceCookie(c, h.cookieConfig)

	utils.SuccessResponse(c, http.StatusOK, "devices revoked", gin.H{
		"revoked": result.Revoked,
	})
}
