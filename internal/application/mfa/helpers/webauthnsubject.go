// Package helpers contains adapters between the domain model and the
// go-webauthn library types.
package helpers

import (
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
)

// WebAuthnSubject adapts a domain Subject to the webauthn.User interface
type WebAuthnSubject struct {
	subject     *mfa.Subject
	credentials []*mfa.WebAuthnCredential
}

// NewWebAuthnSubject creates a new WebAuthn subject adapter
func NewWebAuthnSubject(s *mfa.Subject, credentials []*mfa.WebAuthnCredential) *WebAuthnSubject {
	return &WebAuthnSubject{
		subject:     s,
		credentials: credentials,
	}
}

// WebAuthnID returns the subject's ID as bytes (big-endian)
func (w *WebAuthnSubject) WebAuthnID() []byte {
	id := w.subject.ID
	return []byte{
		byte(id >> 56),
		byte(id >> 48),
		byte(id >> 40),
		byte(id >> 32),
		byte(id >> 24),
		byte(id >> 16),
		byte(id >> 8),
		byte(id),
	}
}

// WebAuthnName returns the subject's account name (email)
func (w *WebAuthnSubject) WebAuthnName() string {
	return w.subject.Email
}

// WebAuthnDisplayName returns the subject's display name
func (w *WebAuthnSubject) WebAuthnDisplayName() string {
	if w.subject.DisplayName != "" {
		return w.subject.DisplayName
	}
	return w.subject.Email
}

// WebAuthnCredentials returns the subject's registered credentials
func (w *WebAuthnSubject) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(w.credentials))
	for i, c := range w.credentials {
		creds[i] = c.ToWebAuthnCredential()
	}
	return creds
}

// WebAuthnIcon is deprecated but required by the interface
func (w *WebAuthnSubject) WebAuthnIcon() string {
	return ""
}

// Subject returns the underlying domain subject
func (w *WebAuthnSubject) Subject() *mfa.Subject {
	return w.subject
}

// ParseSubjectIDFromBytes converts WebAuthn user handle bytes back to uint
func ParseSubjectIDFromBytes(b []byte) uint {
	if len(b) != 8 {
		return 0
	}
	return uint(b[0])<<56 | uint(b[1])<<48 | uint(b[2])<<40 | uint(b[3])<<32 |
		uint(b[4])<<24 | uint(b[5])<<16 | uint(b[6])<<8 | uint(b[7])
}
