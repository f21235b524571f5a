package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// totpPeriod is the time-step size in seconds (RFC 6238 default).
	totpPeriod = 30
	// totpSkewSteps is how many adjacent steps are accepted on either side of
	// the current one, to absorb clock drift.
	totpSkewSteps = 1
	// totpSecretBytes is the raw secret size before base32 encoding.
	totpSecretBytes = 20
)

// TotpService issues authenticator-app secrets and validates codes.
type TotpService struct {
	issuer string
}

// NewTotpService creates a TOTP service labeling secrets with the given issuer.
func NewTotpService(issuer string) (*TotpService, error) {
	if issuer == "" {
		return nil, fmt.Errorf("TOTP issuer is required")
	}
	return &TotpService{issuer: issuer}, nil
}

// EnrollmentKey is a freshly issued TOTP secret and its provisioning URI.
type EnrollmentKey struct {
	Secret string // base32, for manual entry
	URI    string // otpauth://, for QR rendering
}

// GenerateSecret creates a new secret for the given account name.
func (s *TotpService) GenerateSecret(accountName string) (*EnrollmentKey, error) {
	if accountName == "" {
		return nil, fmt.Errorf("account name is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		SecretSize:  totpSecretBytes,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &EnrollmentKey{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// ValidateCode checks the code against the secret at the given instant,
// accepting the current step and one step on either side. It returns the time
// step the code matched so the caller can enforce single use per step.
//
// All candidate steps are compared in constant time regardless of an early
// match, so accept and reject take the same code path length.
func (s *TotpService) ValidateCode(secret, code string, now time.Time) (matchedStep int64, ok bool, err error) {
	if secret == "" {
		return 0, false, fmt.Errorf("secret is required")
	}
	if len(code) != 6 {
		return 0, false, nil
	}

	currentStep := now.Unix() / totpPeriod

	matched := 0
	for delta := int64(-totpSkewSteps); delta <= totpSkewSteps; delta++ {
		step := currentStep + delta
		at := time.Unix(step*totpPeriod, 0).UTC()

		expected, genErr := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      0,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if genErr != nil {
			return 0, false, fmt.Errorf("failed to compute expected code: %w", genErr)
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 && matched == 0 {
			matched = 1
			matchedStep = step
		}
	}

	return matchedStep, matched == 1, nil
}

// Period returns the time-step size.
func (s *TotpService) Period() time.Duration {
	return totpPeriod * time.Second
}

// StepAt returns the time step containing the given instant.
func (s *TotpService) StepAt(now time.Time) int64 {
	return now.Unix() / totpPeriod
}
