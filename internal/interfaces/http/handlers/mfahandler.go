package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// MfaHandler serves the second-factor overview endpoints: status, security
// activity, and the post-login state resolution hook.
type MfaHandler struct {
	statusUC       *usecases.MfaStatusUseCase
	activityUC     *usecases.GetSecurityActivityUseCase
	resolveStateUC *usecases.ResolveLoginStateUseCase
	checkUC        *usecases.CheckSecondFactorUseCase
	logger         logger.Interface
}

// NewMfaHandler creates a new MfaHandler
func NewMfaHandler(
	statusUC *usecases.MfaStatusUseCase,
	activityUC *usecases.GetSecurityActivityUseCase,
	resolveStateUC *usecases.ResolveLoginStateUseCase,
	checkUC *usecases.CheckSecondFactorUseCase,
	logger logger.Interface,
) *MfaHandler {
	return &MfaHandler{
		statusUC:       statusUC,
		activityUC:     activityUC,
		resolveStateUC: resolveStateUC,
		checkUC:        checkUC,
		logger:         logger,
	}
}

// Status summarizes the subject's second-factor configuration
func (h *MfaHandler) Status(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.statusUC.Execute(c.Request.Context(), usecases.MfaStatusCommand{
		SubjectID: subjectID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"enabled":                  result.Enabled,
		"totp_active":              result.TotpActive,
		"totp_pending":             result.TotpPending,
		"credentials":              result.Credentials,
		"recovery_codes_remaining": result.RecoveryCodesRemaining,
		"trusted_device_count":     result.TrustedDeviceCount,
	})
}

// Activity pages through the subject's security event log
func (h *MfaHandler) Activity(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	pagination := utils.ParsePagination(c)

	result, err := h.activityUC.Execute(c.Request.Context(), usecases.GetSecurityActivityCommand{
		SubjectID: subjectID,
		Page:      pagination.Page,
		PageSize:  pagination.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Entries, result.Total, result.Page, result.PageSize)
}

// ResolveLoginStateRequest is the request body for the post-login hook
type ResolveLoginStateRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	SubjectID uint   `json:"subject_id" binding:"required"`
}

// ResolveLoginState initializes a session's second-factor state right after
// first-factor login. Called by the surrounding identity provider, not by
// browsers.
func (h *MfaHandler) ResolveLoginState(c *gin.Context) {
	var req ResolveLoginStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.resolveStateUC.Execute(c.Request.Context(), usecases.ResolveLoginStateCommand{
		SessionID: req.SessionID,
		SubjectID: req.SubjectID,
	})
	if err != nil {
		h.logger.Errorw("failed to resolve login state", "subject_id", req.SubjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"state":             result.State,
		"available_methods": result.AvailableMethods,
	})
}

// CheckSessionRequest is the request body for the session gate hook
type CheckSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// CheckSession gates a session on its second-factor state. Sessions still
// awaiting verification get a second-factor-required error. Called by the
// surrounding identity provider before serving protected resources.
func (h *MfaHandler) CheckSession(c *gin.Context) {
	var req CheckSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.checkUC.Execute(c.Request.Context(), usecases.CheckSecondFactorCommand{
		SessionID: req.SessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"subject_id": result.SubjectID,
		"state":      result.State,
	})
}
