package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// RecoveryCodeHandler handles backup code regeneration and login-time consumption
type RecoveryCodeHandler struct {
	regenerateUC *usecases.RegenerateRecoveryCodesUseCase
	consumeUC    *usecases.ConsumeRecoveryCodeUseCase
	logger       logger.Interface
}

// NewRecoveryCodeHandler creates a new RecoveryCodeHandler
func NewRecoveryCodeHandler(
	regenerateUC *usecases.RegenerateRecoveryCodesUseCase,
	consumeUC *usecases.ConsumeRecoveryCodeUseCase,
	logger logger.Interface,
) *RecoveryCodeHandler {
	return &RecoveryCodeHandler{
		regenerateUC: regenerateUC,
		consumeUC:    consumeUC,
		logger:       logger,
	}
}

// Regenerate replaces the subject's recovery codes and returns the new batch
func (h *RecoveryCodeHandler) Regenerate(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.regenerateUC.Execute(c.Request.Context(), usecases.RegenerateRecoveryCodesCommand{
		SubjectID: subjectID,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "recovery codes regenerated", gin.H{
		"recovery_codes": result.RecoveryCodes,
	})
}

// ConsumeRequest is the request body for a login-time recovery code
type ConsumeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Consume verifies a recovery code for the session awaiting its second factor
func (h *RecoveryCodeHandler) Consume(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	var req ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.consumeUC.Execute(c.Request.Context(), usecases.ConsumeRecoveryCodeCommand{
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
		"state":           result.State,
		"remaining_codes": result.RemainingCodes,
	})
}
