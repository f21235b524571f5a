package mfa

import (
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// WebAuthnCredential represents a registered public-key credential. A subject
// may hold many. The signature counter is the clone-detection signal: once an
// authenticator starts reporting counters they must strictly increase on
// every accepted assertion.
type WebAuthnCredential struct {
	id              uint
	sid             string // external API identifier (wac_xxx)
	subjectID       uint
	credentialID    []byte
	publicKey       []byte
	attestationType string
	aaguid          []byte
	signCount       uint32
	backupEligible  bool
	backupState     bool
	transports      []string
	nickname        string
	lastUsedAt      *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewWebAuthnCredential creates a credential from a completed registration
// ceremony.
func NewWebAuthnCredential(
	subjectID uint,
	cred *webauthn.Credential,
	nickname string,
	sidGenerator func() (string, error),
) (*WebAuthnCredential, error) {
	if subjectID == 0 {
		return nil, fmt.Errorf("subject ID is required")
	}
	if cred == nil || len(cred.ID) == 0 {
		return nil, fmt.Errorf("credential ID is required")
	}
	if len(cred.PublicKey) == 0 {
		return nil, fmt.Errorf("public key is required")
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	transports := make([]string, len(cred.Transport))
	for i, t := range cred.Transport {
		transports[i] = string(t)
	}

	now := time.Now().UTC()
	return &WebAuthnCredential{
		sid:             sid,
		subjectID:       subjectID,
		credentialID:    cred.ID,
		publicKey:       cred.PublicKey,
		attestationType: cred.AttestationType,
		aaguid:          cred.Authenticator.AAGUID,
		signCount:       cred.Authenticator.SignCount,
		backupEligible:  cred.Flags.BackupEligible,
		backupState:     cred.Flags.BackupState,
		transports:      transports,
		nickname:        nickname,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructWebAuthnCredential rebuilds a credential from persistence.
func ReconstructWebAuthnCredential(
	id uint,
	sid string,
	subjectID uint,
	credentialID []byte,
	publicKey []byte,
	attestationType string,
	aaguid []byte,
	signCount uint32,
	backupEligible bool,
	backupState bool,
	transports []string,
	nickname string,
	lastUsedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) (*WebAuthnCredential, error) {
	if id == 0 {
		return nil, fmt.Errorf("credential ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("credential SID is required")
	}

	return &WebAuthnCredential{
		id:              id,
		sid:             sid,
		subjectID:       subjectID,
		credentialID:    credentialID,
		publicKey:       publicKey,
		attestationType: attestationType,
		aaguid:          aaguid,
		signCount:       signCount,
		backupEligible:  backupEligible,
		backupState:     backupState,
		transports:      transports,
		nickname:        nickname,
		lastUsedAt:      lastUsedAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (c *WebAuthnCredential) ID() uint                { return c.id }
func (c *WebAuthnCredential) SID() string             { return c.sid }
func (c *WebAuthnCredential) SubjectID() uint         { return c.subjectID }
func (c *WebAuthnCredential) CredentialID() []byte    { return c.credentialID }
func (c *WebAuthnCredential) PublicKey() []byte       { return c.publicKey }
func (c *WebAuthnCredential) AttestationType() string { return c.attestationType }
func (c *WebAuthnCredential) AAGUID() []byte          { return c.aaguid }
func (c *WebAuthnCredential) SignCount() uint32       { return c.signCount }
func (c *WebAuthnCredential) BackupEligible() bool    { return c.backupEligible }
func (c *WebAuthnCredential) BackupState() bool       { return c.backupState }
func (c *WebAuthnCredential) Transports() []string    { return c.transports }
func (c *WebAuthnCredential) Nickname() string        { return c.nickname }
func (c *WebAuthnCredential) LastUsedAt() *time.Time  { return c.lastUsedAt }
func (c *WebAuthnCredential) CreatedAt() time.Time    { return c.createdAt }
func (c *WebAuthnCredential) UpdatedAt() time.Time    { return c.updatedAt }

// SetID sets the internal ID (only for persistence layer use).
func (c *WebAuthnCredential) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("credential ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("credential ID cannot be zero")
	}
	c.id = id
	return nil
}

// UpdateSignCount applies the counter from an accepted assertion.
//
// Counter semantics:
//   - stored 0, reported 0: authenticator never reports counters, skip checking
//   - stored 0, reported > 0: authenticator started counting, accept
//   - stored > 0, reported > stored: normal increment, accept
//   - stored > 0, reported <= stored: possible cloned credential, reject
func (c *WebAuthnCredential) UpdateSignCount(newCount uint32) error {
	if c.signCount > 0 && newCount <= c.signCount {
		return fmt.Errorf("sign count not increasing: got %d, expected > %d (possible cloned credential)", newCount, c.signCount)
	}
	c.signCount = newCount
	c.updatedAt = time.Now().UTC()
	return nil
}

// UpdateLastUsed records a successful assertion with this credential.
func (c *WebAuthnCredential) UpdateLastUsed() {
	now := time.Now().UTC()
	c.lastUsedAt = &now
	c.updatedAt = now
}

// Rename updates the display nickname.
func (c *WebAuthnCredential) Rename(nickname string) {
	c.nickname = nickname
	c.updatedAt = time.Now().UTC()
}

// ToWebAuthnCredential converts to the library credential for ceremonies.
func (c *WebAuthnCredential) ToWebAuthnCredential() webauthn.Credential {
	transports := make([]protocol.AuthenticatorTransport, len(c.transports))
	for i, t := range c.transports {
		transports[i] = protocol.AuthenticatorTransport(t)
	}

	return webauthn.Credential{
		ID:              c.credentialID,
		PublicKey:       c.publicKey,
		AttestationType: c.attestationType,
		Flags: webauthn.CredentialFlags{
			BackupEligible: c.backupEligible,
			BackupState:    c.backupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.aaguid,
			SignCount: c.signCount,
		},
		Transport: transports,
	}
}

// Descriptor returns the credential descriptor used for exclusion and
// allow lists.
func (c *WebAuthnCredential) Descriptor() protocol.CredentialDescriptor {
	transports := make([]protocol.AuthenticatorTransport, len(c.transports))
	for i, t := range c.transports {
		transports[i] = protocol.AuthenticatorTransport(t)
	}
	return protocol.CredentialDescriptor{
		Type:         protocol.PublicKeyCredentialType,
		CredentialID: c.credentialID,
		Transport:    transports,
	}
}

// WebAuthnCredentialDisplayInfo is the client-facing projection.
type WebAuthnCredentialDisplayInfo struct {
	ID         string     `json:"id"`
	Nickname   string     `json:"nickname"`
	Transports []string   `json:"transports"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GetDisplayInfo returns credential information for display.
func (c *WebAuthnCredential) GetDisplayInfo() WebAuthnCredentialDisplayInfo {
	return WebAuthnCredentialDisplayInfo{
		ID:         c.sid,
		Nickname:   c.nickname,
		Transports: c.transports,
		LastUsedAt: c.lastUsedAt,
		CreatedAt:  c.createdAt,
	}
}
