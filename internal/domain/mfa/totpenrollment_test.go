package mfa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTotpEnrollment(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	assert.Equal(t, uint(42), enrollment.SubjectID())
	assert.Equal(t, "JBSWY3DPEHPK3PXP", enrollment.Secret())
	assert.False(t, enrollment.IsActive())
	assert.Nil(t, enrollment.ActivatedAt())
	assert.Nil(t, enrollment.LastUsedStep())
}

func TestNewTotpEnrollment_Validation(t *testing.T) {
	_, err := NewTotpEnrollment(0, "JBSWY3DPEHPK3PXP")
	assert.Error(t, err)

	_, err = NewTotpEnrollment(42, "")
	assert.Error(t, err)
}

func TestTotpEnrollment_Activate(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	require.NoError(t, enrollment.Activate(1000))

	assert.True(t, enrollment.IsActive())
	require.NotNil(t, enrollment.ActivatedAt())
	require.NotNil(t, enrollment.LastUsedStep())
	assert.Equal(t, int64(1000), *enrollment.LastUsedStep())
}

func TestTotpEnrollment_Activate_Twice(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	require.NoError(t, enrollment.Activate(1000))
	assert.Error(t, enrollment.Activate(1001))
}

func TestTotpEnrollment_ReplacePendingSecret(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	require.NoError(t, enrollment.ReplacePendingSecret("NB2W45DFOIZA===="))
	assert.Equal(t, "NB2W45DFOIZA====", enrollment.Secret())
	assert.Nil(t, enrollment.LastUsedStep())
}

func TestTotpEnrollment_ReplacePendingSecret_ActiveEnrollment(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.NoError(t, enrollment.Activate(1000))

	// An active enrollment must be disabled before re-enrolling
	err = enrollment.ReplacePendingSecret("NB2W45DFOIZA====")
	assert.Error(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", enrollment.Secret())
}

func TestTotpEnrollment_AdvanceUsedStep(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.NoError(t, enrollment.Activate(1000))

	require.NoError(t, enrollment.AdvanceUsedStep(1001))
	assert.Equal(t, int64(1001), *enrollment.LastUsedStep())

	// Repeating the same step is a replay
	assert.Error(t, enrollment.AdvanceUsedStep(1001))

	// So is any earlier step, including the activation one
	assert.Error(t, enrollment.AdvanceUsedStep(1000))
	assert.Error(t, enrollment.AdvanceUsedStep(999))

	// Watermark only ever moves forward
	assert.Equal(t, int64(1001), *enrollment.LastUsedStep())

	require.NoError(t, enrollment.AdvanceUsedStep(1005))
	assert.Equal(t, int64(1005), *enrollment.LastUsedStep())
}

func TestTotpEnrollment_AdvanceUsedStep_Pending(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	assert.Error(t, enrollment.AdvanceUsedStep(1000))
}

func TestTotpEnrollment_SetID(t *testing.T) {
	enrollment, err := NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	assert.Error(t, enrollment.SetID(0))

	require.NoError(t, enrollment.SetID(7))
	assert.Equal(t, uint(7), enrollment.ID())

	assert.Error(t, enrollment.SetID(8))
}

func TestReconstructTotpEnrollment(t *testing.T) {
	activatedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	step := int64(58060800)

	enrollment, err := ReconstructTotpEnrollment(
		7, 42, "JBSWY3DPEHPK3PXP", &activatedAt, &step,
		activatedAt.Add(-time.Hour), activatedAt,
	)
	require.NoError(t, err)

	assert.Equal(t, uint(7), enrollment.ID())
	assert.True(t, enrollment.IsActive())
	assert.Equal(t, step, *enrollment.LastUsedStep())

	_, err = ReconstructTotpEnrollment(0, 42, "JBSWY3DPEHPK3PXP", nil, nil, activatedAt, activatedAt)
	assert.Error(t, err)
}
