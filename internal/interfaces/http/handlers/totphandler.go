package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// TotpHandler handles authenticator-app enrollment and verification requests
type TotpHandler struct {
	beginEnrollmentUC *usecases.BeginTotpEnrollmentUseCase
	activateUC        *usecases.ActivateTotpUseCase
	verifyLoginUC     *usecases.VerifyTotpLoginUseCase
	disableUC         *usecases.DisableTotpUseCase
	logger            logger.Interface
}

// NewTotpHandler creates a new TotpHandler
func NewTotpHandler(
	beginEnrollmentUC *usecases.BeginTotpEnrollmentUseCase,
	activateUC *usecases.ActivateTotpUseCase,
	verifyLoginUC *usecases.VerifyTotpLoginUseCase,
	disableUC *usecases.DisableTotpUseCase,
	logger logger.Interface,
) *TotpHandler {
	return &TotpHandler{
		beginEnrollmentUC: beginEnrollmentUC,
		activateUC:        activateUC,
		verifyLoginUC:     verifyLoginUC,
		disableUC:         disableUC,
		logger:            logger,
	}
}

// BeginEnrollment issues a pending TOTP secret for the authenticated subject
func (h *TotpHandler) BeginEnrollment(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.beginEnrollmentUC.Execute(c.Request.Context(), usecases.BeginTotpEnrollmentCommand{
		SubjectID: subjectID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "enrollment started", gin.H{
		"secret": result.Secret,
		"uri":    result.URI,
	})
}

// ActivateRequest is the request body for proving a pending enrollment
type ActivateRequest struct {
	Code string `json:"code" binding:"required"`
}

// Activate proves a pending enrollment with a first valid code and returns
// the one-time recovery code batch
func (h *TotpHandler) Activate(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.activateUC.Execute(c.Request.Context(), usecases.ActivateTotpCommand{
		SubjectID: subjectID,
		Code:      req.Code,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "two-factor authentication enabled", gin.H{
		"recovery_codes": result.RecoveryCodes,
	})
}

// VerifyRequest is the request body for a login-time code check
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyLogin verifies a TOTP code for the session awaiting its second factor
func (h *TotpHandler) VerifyLogin(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.verifyLoginUC.Execute(c.Request.Context(), usecases.VerifyTotpLoginCommand{
		SessionID: sessionID,
		Code:      req.Code,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "verification successful", gin.H{
		"state": result.State,
	})
}

// Disable removes the subject's TOTP enrollment
func (h *TotpHandler) Disable(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	ip, userAgent := clientContext(c)
	if err := h.disableUC.Execute(c.Request.Context(), usecases.DisableTotpCommand{
		SubjectID: subjectID,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "two-factor authentication disabled", nil)
}
