package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/token"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/id"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// TrustDeviceCommand represents the command to remember the current device
type TrustDeviceCommand struct {
	SessionID  string
	DeviceName string
	IPAddress  string
	UserAgent  string
}

// TrustDeviceResult carries the plaintext device token, issued once
type TrustDeviceResult struct {
	Token  string
	Device mfa.TrustedDeviceDisplayInfo
}

// TrustDeviceUseCase issues a device token after a completed second-factor
// verification. Only the token hash is stored; the plaintext goes to the
// client and is never recoverable.
type TrustDeviceUseCase struct {
	sessions  mfa.SessionGateway
	devices   mfa.TrustedDeviceRepository
	tokens    token.TokenGenerator
	deviceTTL time.Duration
	recorder  *audit.Recorder
	clock     func() time.Time
	logger    logger.Interface
}

// NewTrustDeviceUseCase creates a new TrustDeviceUseCase
func NewTrustDeviceUseCase(
	sessions mfa.SessionGateway,
	devices mfa.TrustedDeviceRepository,
	tokens token.TokenGenerator,
	deviceTTL time.Duration,
	recorder *audit.Recorder,
	clock func() time.Time,
	logger logger.Interface,
) *TrustDeviceUseCase {
	return &TrustDeviceUseCase{
		sessions:  sessions,
		devices:   devices,
		tokens:    tokens,
		deviceTTL: deviceTTL,
		recorder:  recorder,
		clock:     clock,
		logger:    logger,
	}
}

// Execute issues a trusted device token for the session's subject
func (uc *TrustDeviceUseCase) Execute(ctx context.Context, cmd TrustDeviceCommand) (*TrustDeviceResult, error) {
	session, err := uc.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	// Remembering a device is only meaningful right after proving the factor
	if session.State != mfa.StateVerified {
		return nil, errors.NewSecondFactorRequiredError()
	}

	plainToken, tokenHash, err := uc.tokens.Generate(token.PrefixTrustedDevice)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device token: %w", err)
	}

	deviceName := cmd.DeviceName
	if deviceName == "" {
		deviceName = "Unknown device"
	}

	device, err := mfa.NewTrustedDevice(
		session.SubjectID,
		tokenHash,
		deviceName,
		cmd.UserAgent,
		cmd.IPAddress,
		uc.clock().Add(uc.deviceTTL),
		id.NewTrustedDeviceSID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trusted device: %w", err)
	}

	if err := uc.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to store trusted device: %w", err)
	}

	uc.recorder.Record(session.SubjectID, mfa.EventDeviceTrusted,
		map[string]string{"device": device.SID()},
		cmd.IPAddress, cmd.UserAgent)

	uc.logger.Infow("device trusted", "subject_id", session.SubjectID, "device_sid", device.SID())

	return &TrustDeviceResult{
		Token:  plainToken,
		Device: device.GetDisplayInfo(),
	}, nil
}
