package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// recoveryCodeAlphabet excludes characters that read ambiguously when
	// printed (0/O, 1/I/L).
	recoveryCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	recoveryCodeGroupLen = 5
	recoveryCodeGroups   = 2
)

// RecoveryCodeService generates backup-code batches and verifies submitted
// codes against stored hashes.
type RecoveryCodeService struct {
	batchSize int
	cost      int
}

// NewRecoveryCodeService creates a service producing batches of the given
// size, hashing with the given bcrypt cost.
func NewRecoveryCodeService(batchSize, cost int) *RecoveryCodeService {
	if batchSize <= 0 {
		batchSize = 10
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &RecoveryCodeService{batchSize: batchSize, cost: cost}
}

// GenerateBatch returns plaintext codes (shown to the subject once) and their
// hashes (the only form that gets stored), index-aligned.
func (s *RecoveryCodeService) GenerateBatch() (codes []string, hashes []string, err error) {
	codes = make([]string, s.batchSize)
	hashes = make([]string, s.batchSize)

	for i := 0; i < s.batchSize; i++ {
		code, err := generateRecoveryCode()
		if err != nil {
			return nil, nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(normalizeRecoveryCode(code)), s.cost)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash recovery code: %w", err)
		}
		codes[i] = code
		hashes[i] = string(hash)
	}

	return codes, hashes, nil
}

// Verify reports whether the submitted code matches the stored hash.
// Formatting differences (case, separators, whitespace) are forgiven.
func (s *RecoveryCodeService) Verify(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizeRecoveryCode(code))) == nil
}

// BatchSize returns the number of codes per batch.
func (s *RecoveryCodeService) BatchSize() int {
	return s.batchSize
}

func generateRecoveryCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(recoveryCodeAlphabet)))
	groups := make([]string, recoveryCodeGroups)

	for g := 0; g < recoveryCodeGroups; g++ {
		chars := make([]byte, recoveryCodeGroupLen)
		for i := range chars {
			n, err := rand.Int(rand.Reader, alphabetLen)
			if err != nil {
				return "", fmt.Errorf("failed to generate random character: %w", err)
			}
			chars[i] = recoveryCodeAlphabet[n.Int64()]
		}
		groups[g] = string(chars)
	}

	return strings.Join(groups, "-"), nil
}

func normalizeRecoveryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}
