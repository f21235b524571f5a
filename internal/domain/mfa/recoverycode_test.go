package mfa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryCode_MarkUsed(t *testing.T) {
	code, err := NewRecoveryCode(42, "$2a$10$hash")
	require.NoError(t, err)
	assert.False(t, code.IsUsed())

	require.NoError(t, code.MarkUsed())
	assert.True(t, code.IsUsed())
	require.NotNil(t, code.UsedAt())

	// Single use: a consumed code is never accepted again
	assert.Error(t, code.MarkUsed())
}

func TestNewRecoveryCode_Validation(t *testing.T) {
	_, err := NewRecoveryCode(0, "$2a$10$hash")
	assert.Error(t, err)

	_, err = NewRecoveryCode(42, "")
	assert.Error(t, err)
}

func TestReconstructRecoveryCode(t *testing.T) {
	usedAt := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

	code, err := ReconstructRecoveryCode(5, 42, "$2a$10$hash", &usedAt, usedAt.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint(5), code.ID())
	assert.True(t, code.IsUsed())

	_, err = ReconstructRecoveryCode(0, 42, "$2a$10$hash", nil, time.Now())
	assert.Error(t, err)
}

func TestSecondFactorState_IsValid(t *testing.T) {
	assert.True(t, StateNoSecondFactor.IsValid())
	assert.True(t, StateAwaitingSecondFactor.IsValid())
	assert.True(t, StateVerified.IsValid())
	assert.False(t, SecondFactorState("").IsValid())
	assert.False(t, SecondFactorState("logged_in").IsValid())
}
