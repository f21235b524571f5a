package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRecoveryCodeService_GenerateBatch(t *testing.T) {
	svc := NewRecoveryCodeService(10, bcrypt.MinCost)

	codes, hashes, err := svc.GenerateBatch()
	require.NoError(t, err)
	require.Len(t, codes, 10)
	require.Len(t, hashes, 10)

	seen := make(map[string]bool)
	for i, code := range codes {
		// XXXXX-XXXXX from the unambiguous alphabet
		parts := strings.Split(code, "-")
		require.Len(t, parts, 2, "code %q should have two groups", code)
		for _, part := range parts {
			assert.Len(t, part, 5)
			assert.NotContains(t, part, "0")
			assert.NotContains(t, part, "O")
			assert.NotContains(t, part, "1")
			assert.NotContains(t, part, "I")
			assert.NotContains(t, part, "L")
		}

		assert.False(t, seen[code], "codes should be unique within a batch")
		seen[code] = true

		// Hashes are index-aligned with their codes
		assert.True(t, svc.Verify(code, hashes[i]))
	}
}

func TestRecoveryCodeService_Verify_Normalization(t *testing.T) {
	svc := NewRecoveryCodeService(1, bcrypt.MinCost)

	codes, hashes, err := svc.GenerateBatch()
	require.NoError(t, err)
	code, hash := codes[0], hashes[0]

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"exact match", code, true},
		{"lowercase", strings.ToLower(code), true},
		{"without separator", strings.ReplaceAll(code, "-", ""), true},
		{"with spaces", " " + strings.ReplaceAll(code, "-", " ") + " ", true},
		{"wrong code", "AAAAA-BBBBB", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Verify(tt.submitted, hash))
		})
	}
}

func TestNewRecoveryCodeService_Defaults(t *testing.T) {
	svc := NewRecoveryCodeService(0, 100)

	assert.Equal(t, 10, svc.BatchSize())

	// Out-of-range cost falls back to a working default
	codes, hashes, err := svc.GenerateBatch()
	require.NoError(t, err)
	assert.True(t, svc.Verify(codes[0], hashes[0]))
}
