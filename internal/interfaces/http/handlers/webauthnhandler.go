package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	"github.com/inkwell-press/inkwell/internal/shared/id"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
	"github.com/inkwell-press/inkwell/internal/shared/utils"
)

// WebAuthnHandler handles security key and passkey HTTP requests
type WebAuthnHandler struct {
	startRegistrationUC  *usecases.StartWebAuthnRegistrationUseCase
	finishRegistrationUC *usecases.FinishWebAuthnRegistrationUseCase
	startLoginUC         *usecases.StartWebAuthnLoginUseCase
	finishLoginUC        *usecases.FinishWebAuthnLoginUseCase
	listCredentialsUC    *usecases.ListWebAuthnCredentialsUseCase
	renameCredentialUC   *usecases.RenameWebAuthnCredentialUseCase
	revokeCredentialUC   *usecases.RevokeWebAuthnCredentialUseCase
	logger               logger.Interface
}

// NewWebAuthnHandler creates a new WebAuthnHandler
func NewWebAuthnHandler(
	startRegistrationUC *usecases.StartWebAuthnRegistrationUseCase,
	finishRegistrationUC *usecases.FinishWebAuthnRegistrationUseCase,
	startLoginUC *usecases.StartWebAuthnLoginUseCase,
	finishLoginUC *usecases.FinishWebAuthnLoginUseCase,
	listCredentialsUC *usecases.ListWebAuthnCredentialsUseCase,
	renameCredentialUC *usecases.RenameWebAuthnCredentialUseCase,
	revokeCredentialUC *usecases.RevokeWebAuthnCredentialUseCase,
	logger logger.Interface,
) *WebAuthnHandler {
	return &WebAuthnHandler{
		startRegistrationUC:  startRegistrationUC,
		finishRegistrationUC: finishRegistrationUC,
		startLoginUC:         startLoginUC,
		finishLoginUC:        finishLoginUC,
		listCredentialsUC:    listCredentialsUC,
		renameCredentialUC:   renameCredentialUC,
		revokeCredentialUC:   revokeCredentialUC,
		logger:               logger,
	}
}

// StartRegistration starts the credential creation ceremony
func (h *WebAuthnHandler) StartRegistration(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.startRegistrationUC.Execute(c.Request.Context(), usecases.StartWebAuthnRegistrationCommand{
		SubjectID: subjectID,
	})
	if err != nil {
		h.logger.Errorw("failed to start credential registration", "subject_id", subjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	// The challenge inside the options keys the stored ceremony state
	c.JSON(http.StatusOK, result.Options)
}

// FinishRegistrationRequest is the request body for finishing registration
type FinishRegistrationRequest struct {
	ID                      string                               `json:"id" binding:"required"`
	RawID                   string                               `json:"rawId" binding:"required"`
	Type                    string                               `json:"type" binding:"required"`
	Response                AuthenticatorAttestationResponseJSON `json:"response" binding:"required"`
	AuthenticatorAttachment string                               `json:"authenticatorAttachment,omitempty"`
	ClientExtensionResults  map[string]interface{}               `json:"clientExtensionResults,omitempty"`
	// Nickname is optional - a friendly name for the credential
	Nickname string `json:"nickname,omitempty"`
}

// AuthenticatorAttestationResponseJSON represents the attestation response from the browser
type AuthenticatorAttestationResponseJSON struct {
	ClientDataJSON    string   `json:"clientDataJSON" binding:"required"`
	AttestationObject string   `json:"attestationObject" binding:"required"`
	Transports        []string `json:"transports,omitempty"`
}

// FinishRegistration completes the creation ceremony and stores the credential
func (h *WebAuthnHandler) FinishRegistration(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req FinishRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	credResponse, err := h.parseCredentialCreationResponse(&req)
	if err != nil {
		h.logger.Errorw("failed to parse credential creation response", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid credential response")
		return
	}

	parsedResponse, err := credResponse.Parse()
	if err != nil {
		h.logger.Errorw("failed to parse credential response",
			"error", err,
			"attestation_object_len", len(credResponse.AttestationResponse.AttestationObject),
		)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid client data")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.finishRegistrationUC.Execute(c.Request.Context(), usecases.FinishWebAuthnRegistrationCommand{
		SubjectID: subjectID,
		Challenge: string(parsedResponse.Response.CollectedClientData.Challenge),
		Response:  parsedResponse,
		Nickname:  sanitizeName(req.Nickname, "Security key"),
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		h.logger.Errorw("failed to finish credential registration", "subject_id", subjectID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	payload := gin.H{
		"credential": result.Credential.GetDisplayInfo(),
	}
	// Present only when this registration became the subject's first second factor
	if len(result.RecoveryCodes) > 0 {
		payload["recovery_codes"] = result.RecoveryCodes
	}

	utils.SuccessResponse(c, http.StatusOK, "credential registered successfully", payload)
}

// StartLogin starts the assertion ceremony for a session awaiting its second factor
func (h *WebAuthnHandler) StartLogin(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	result, err := h.startLoginUC.Execute(c.Request.Context(), usecases.StartWebAuthnLoginCommand{
		SessionID: sessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Options)
}

// FinishLoginRequest is the request body for finishing the assertion ceremony
type FinishLoginRequest struct {
	ID                      string                             `json:"id" binding:"required"`
	RawID                   string                             `json:"rawId" binding:"required"`
	Type                    string                             `json:"type" binding:"required"`
	Response                AuthenticatorAssertionResponseJSON `json:"response" binding:"required"`
	AuthenticatorAttachment string                             `json:"authenticatorAttachment,omitempty"`
	ClientExtensionResults  map[string]interface{}             `json:"clientExtensionResults,omitempty"`
}

// AuthenticatorAssertionResponseJSON represents the assertion response from the browser
type AuthenticatorAssertionResponseJSON struct {
	ClientDataJSON    string `json:"clientDataJSON" binding:"required"`
	AuthenticatorData string `json:"authenticatorData" binding:"required"`
	Signature         string `json:"signature" binding:"required"`
	UserHandle        string `json:"userHandle,omitempty"`
}

// FinishLogin completes the assertion ceremony and verifies the session
func (h *WebAuthnHandler) FinishLogin(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
		return
	}

	var req FinishLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	credResponse, err := h.parseCredentialAssertionResponse(&req)
	if err != nil {
		h.logger.Errorw("failed to parse credential assertion response", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid credential response")
		return
	}

	parsedResponse, err := credResponse.Parse()
	if err != nil {
		h.logger.Errorw("failed to parse client data", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid client data")
		return
	}

	ip, userAgent := clientContext(c)
	result, err := h.finishLoginUC.Execute(c.Request.Context(), usecases.FinishWebAuthnLoginCommand{
		SessionID: sessionID,
		Challenge: string(parsedResponse.Response.CollectedClientData.Challenge),
		Response:  parsedResponse,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "verification successful", gin.H{
		"state":      result.State,
		"credential": result.CredentialSID,
	})
}

// ListCredentials lists the subject's registered credentials
func (h *WebAuthnHandler) ListCredentials(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	result, err := h.listCredentialsUC.Execute(c.Request.Context(), usecases.ListWebAuthnCredentialsCommand{
		SubjectID: subjectID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "success", gin.H{
		"credentials": result.Credentials,
	})
}

// RenameCredentialRequest is the request body for renaming a credential
type RenameCredentialRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// RenameCredential renames one of the subject's credentials
func (h *WebAuthnHandler) RenameCredential(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	sid, err := utils.ParseSIDParam(c, "id", id.PrefixWebAuthnCredential, "credential")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req RenameCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.renameCredentialUC.Execute(c.Request.Context(), usecases.RenameWebAuthnCredentialCommand{
		SubjectID: subjectID,
		SID:       sid,
		Nickname:  sanitizeName(req.Nickname, ""),
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "credential renamed", nil)
}

// RevokeCredential removes one of the subject's credentials
func (h *WebAuthnHandler) RevokeCredential(c *gin.Context) {
	subjectID, ok := subjectIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	sid, err := utils.ParseSIDParam(c, "id", id.PrefixWebAuthnCredential, "credential")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ip, userAgent := clientContext(c)
	if err := h.revokeCredentialUC.Execute(c.Request.Context(), usecases.RevokeWebAuthnCredentialCommand{
		SubjectID: subjectID,
		SID:       sid,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		h.logger.Errorw("failed to revoke credential", "subject_id", subjectID, "sid", sid, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "credential revoked", nil)
}

// decodeBase64 decodes base64 data supporting both standard and URL-safe encoding.
// WebAuthn requires base64url, but some browsers/libraries send standard base64.
func decodeBase64(data string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}

func (h *WebAuthnHandler) parseCredentialCreationResponse(req *FinishRegistrationRequest) (*protocol.CredentialCreationResponse, error) {
	rawID, err := decodeBase64(req.RawID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rawId: %w", err)
	}

	clientDataJSON, err := decodeBase64(req.Response.ClientDataJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode clientDataJSON: %w", err)
	}

	attestationObject, err := decodeBase64(req.Response.AttestationObject)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attestationObject: %w", err)
	}

	return &protocol.CredentialCreationResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{
				ID:   req.ID,
				Type: req.Type,
			},
			RawID:                   rawID,
			ClientExtensionResults:  protocol.AuthenticationExtensionsClientOutputs(req.ClientExtensionResults),
			AuthenticatorAttachment: req.AuthenticatorAttachment,
		},
		AttestationResponse: protocol.AuthenticatorAttestationResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{
				ClientDataJSON: clientDataJSON,
			},
			AttestationObject: attestationObject,
			Transports:        req.Response.Transports,
		},
	}, nil
}

func (h *WebAuthnHandler) parseCredentialAssertionResponse(req *FinishLoginRequest) (*protocol.CredentialAssertionResponse, error) {
	rawID, err := decodeBase64(req.RawID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rawId: %w", err)
	}

	clientDataJSON, err := decodeBase64(req.Response.ClientDataJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode clientDataJSON: %w", err)
	}

	authenticatorData, err := decodeBase64(req.Response.AuthenticatorData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode authenticatorData: %w", err)
	}

	signature, err := decodeBase64(req.Response.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}

	var userHandle []byte
	if req.Response.UserHandle != "" {
		userHandle, err = decodeBase64(req.Response.UserHandle)
		if err != nil {
			return nil, fmt.Errorf("failed to decode userHandle: %w", err)
		}
	}

	return &protocol.CredentialAssertionResponse{
		PublicKeyCredential: protocol.PublicKeyCredential{
			Credential: protocol.Credential{
				ID:   req.ID,
				Type: req.Type,
			},
			RawID:                   rawID,
			ClientExtensionResults:  protocol.AuthenticationExtensionsClientOutputs(req.ClientExtensionResults),
			AuthenticatorAttachment: req.AuthenticatorAttachment,
		},
		AssertionResponse: protocol.AuthenticatorAssertionResponse{
			AuthenticatorResponse: protocol.AuthenticatorResponse{
				ClientDataJSON: clientDataJSON,
			},
			AuthenticatorData: authenticatorData,
			Signature:         signature,
			UserHandle:        userHandle,
		},
	}, nil
}
