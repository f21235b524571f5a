// Package testutil provides mock implementations for testing the mfa application layer.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// MockLogger is a no-op logger for testing.
type MockLogger struct{}

// NewMockLogger creates a new mock logger.
func NewMockLogger() logger.Interface { return &MockLogger{} }

func (l *MockLogger) Debug(msg string, args ...any)                   {}
func (l *MockLogger) Info(msg string, args ...any)                    {}
func (l *MockLogger) Warn(msg string, args ...any)                    {}
func (l *MockLogger) Error(msg string, args ...any)                   {}
func (l *MockLogger) With(args ...any) logger.Interface               { return l }
func (l *MockLogger) Named(name string) logger.Interface              { return l }
func (l *MockLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *MockLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *MockLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *MockLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// MockSessionGateway is an in-memory implementation of mfa.SessionGateway.
type MockSessionGateway struct {
	mu       sync.RWMutex
	sessions map[string]*mfa.SessionView

	getError      error
	setStateError error
}

// NewMockSessionGateway creates a new mock session gateway.
func NewMockSessionGateway() *MockSessionGateway {
	return &MockSessionGateway{sessions: make(map[string]*mfa.SessionView)}
}

// SetGetError injects an error into Get.
func (m *MockSessionGateway) SetGetError(err error) { m.getError = err }

// SetSetStateError injects an error into SetState.
func (m *MockSessionGateway) SetSetStateError(err error) { m.setStateError = err }

func (m *MockSessionGateway) Get(ctx context.Context, sessionID string) (*mfa.SessionView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}

	view, exists := m.sessions[sessionID]
	if !exists {
		return nil, errors.NewNotFoundError("session not found")
	}
	copied := *view
	return &copied, nil
}

func (m *MockSessionGateway) Put(ctx context.Context, sessionID string, subjectID uint, state mfa.SecondFactorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = &mfa.SessionView{SubjectID: subjectID, State: state}
	return nil
}

func (m *MockSessionGateway) SetState(ctx context.Context, sessionID string, state mfa.SecondFactorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setStateError != nil {
		return m.setStateError
	}

	view, exists := m.sessions[sessionID]
	if !exists {
		return errors.NewNotFoundError("session not found")
	}
	view.State = state
	return nil
}

func (m *MockSessionGateway) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// State returns the stored state for assertions.
func (m *MockSessionGateway) State(sessionID string) mfa.SecondFactorState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view, exists := m.sessions[sessionID]
	if !exists {
		return ""
	}
	return view.State
}

// MockSubjectGateway is an in-memory implementation of mfa.SubjectGateway.
type MockSubjectGateway struct {
	mu       sync.RWMutex
	subjects map[uint]*mfa.Subject

	setMFAEnabledError error
}

// NewMockSubjectGateway creates a new mock subject gateway.
func NewMockSubjectGateway() *MockSubjectGateway {
	return &MockSubjectGateway{subjects: make(map[uint]*mfa.Subject)}
}

// AddSubject seeds a subject.
func (m *MockSubjectGateway) AddSubject(subject *mfa.Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[subject.ID] = subject
}

func (m *MockSubjectGateway) FindByID(ctx context.Context, id uint) (*mfa.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subject, exists := m.subjects[id]
	if !exists {
		return nil, errors.NewNotFoundError("subject not found")
	}
	copied := *subject
	return &copied, nil
}

// SetSetMFAEnabledError injects an error into SetMFAEnabled.
func (m *MockSubjectGateway) SetSetMFAEnabledError(err error) { m.setMFAEnabledError = err }

func (m *MockSubjectGateway) SetMFAEnabled(ctx context.Context, id uint, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setMFAEnabledError != nil {
		return m.setMFAEnabledError
	}

	subject, exists := m.subjects[id]
	if !exists {
		return errors.NewNotFoundError("subject not found")
	}
	subject.MFAEnabled = enabled
	return nil
}

// MockTotpEnrollmentRepository is an in-memory implementation of
// mfa.TotpEnrollmentRepository. AdvanceUsedStep applies the same watermark
// guard as the database implementation.
type MockTotpEnrollmentRepository struct {
	mu          sync.RWMutex
	enrollments map[uint]*mfa.TotpEnrollment
	nextID      uint

	// ActivateHashes records the recovery batch passed to Activate.
	ActivateHashes []string
}

// NewMockTotpEnrollmentRepository creates a new mock enrollment repository.
func NewMockTotpEnrollmentRepository() *MockTotpEnrollmentRepository {
	return &MockTotpEnrollmentRepository{enrollments: make(map[uint]*mfa.TotpEnrollment)}
}

// AddEnrollment seeds an enrollment.
func (m *MockTotpEnrollmentRepository) AddEnrollment(enrollment *mfa.TotpEnrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if enrollment.ID() == 0 {
		m.nextID++
		_ = enrollment.SetID(m.nextID)
	}
	m.enrollments[enrollment.SubjectID()] = enrollment
}

func (m *MockTotpEnrollmentRepository) Create(ctx context.Context, enrollment *mfa.TotpEnrollment) error {
	m.AddEnrollment(enrollment)
	return nil
}

func (m *MockTotpEnrollmentRepository) GetBySubjectID(ctx context.Context, subjectID uint) (*mfa.TotpEnrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enrollment, exists := m.enrollments[subjectID]
	if !exists {
		return nil, errors.NewNotFoundError("TOTP enrollment not found")
	}
	return enrollment, nil
}

func (m *MockTotpEnrollmentRepository) Update(ctx context.Context, enrollment *mfa.TotpEnrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enrollments[enrollment.SubjectID()] = enrollment
	return nil
}

func (m *MockTotpEnrollmentRepository) Activate(ctx context.Context, subjectID uint, step int64, recoveryHashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	enrollment, exists := m.enrollments[subjectID]
	if !exists || enrollment.IsActive() {
		return errors.NewConflictError("TOTP enrollment is missing or already active")
	}
	if err := enrollment.Activate(step); err != nil {
		return err
	}
	m.ActivateHashes = recoveryHashes
	return nil
}

func (m *MockTotpEnrollmentRepository) AdvanceUsedStep(ctx context.Context, subjectID uint, step int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	enrollment, exists := m.enrollments[subjectID]
	if !exists || !enrollment.IsActive() {
		return false, nil
	}
	if err := enrollment.AdvanceUsedStep(step); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MockTotpEnrollmentRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.enrollments[subjectID]; !exists {
		return errors.NewNotFoundError("TOTP enrollment not found")
	}
	delete(m.enrollments, subjectID)
	return nil
}

// MockRecoveryCodeRepository is an in-memory implementation of
// mfa.RecoveryCodeRepository.
type MockRecoveryCodeRepository struct {
	mu     sync.RWMutex
	codes  map[uint]*mfa.RecoveryCode
	nextID uint
}

// NewMockRecoveryCodeRepository creates a new mock recovery code repository.
func NewMockRecoveryCodeRepository() *MockRecoveryCodeRepository {
	return &MockRecoveryCodeRepository{codes: make(map[uint]*mfa.RecoveryCode)}
}

func (m *MockRecoveryCodeRepository) ReplaceBatch(ctx context.Context, subjectID uint, codeHashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, code := range m.codes {
		if code.SubjectID() == subjectID {
			delete(m.codes, id)
		}
	}
	for _, hash := range codeHashes {
		m.nextID++
		code, err := mfa.ReconstructRecoveryCode(m.nextID, subjectID, hash, nil, time.Now().UTC())
		if err != nil {
			return err
		}
		m.codes[m.nextID] = code
	}
	return nil
}

func (m *MockRecoveryCodeRepository) GetUnusedBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.RecoveryCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*mfa.RecoveryCode, 0)
	for _, code := range m.codes {
		if code.SubjectID() == subjectID && !code.IsUsed() {
			result = append(result, code)
		}
	}
	return result, nil
}

func (m *MockRecoveryCodeRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, exists := m.codes[id]
	if !exists || code.IsUsed() {
		return false, nil
	}
	if err := code.MarkUsed(); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MockRecoveryCodeRepository) CountUnusedBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, code := range m.codes {
		if code.SubjectID() == subjectID && !code.IsUsed() {
			count++
		}
	}
	return count, nil
}

func (m *MockRecoveryCodeRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, code := range m.codes {
		if code.SubjectID() == subjectID {
			delete(m.codes, id)
		}
	}
	return nil
}

// MockTrustedDeviceRepository is an in-memory implementation of
// mfa.TrustedDeviceRepository.
type MockTrustedDeviceRepository struct {
	mu      sync.RWMutex
	devices map[uint]*mfa.TrustedDevice
	nextID  uint
}

// NewMockTrustedDeviceRepository creates a new mock trusted device repository.
func NewMockTrustedDeviceRepository() *MockTrustedDeviceRepository {
	return &MockTrustedDeviceRepository{devices: make(map[uint]*mfa.TrustedDevice)}
}

// AddDevice seeds a device.
func (m *MockTrustedDeviceRepository) AddDevice(device *mfa.TrustedDevice) {
	_ = m.Create(context.Background(), device)
}

func (m *MockTrustedDeviceRepository) Create(ctx context.Context, device *mfa.TrustedDevice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if device.ID() == 0 {
		m.nextID++
		if err := device.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.devices[device.ID()] = device
	return nil
}

func (m *MockTrustedDeviceRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*mfa.TrustedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, device := range m.devices {
		if device.TokenHash() == tokenHash {
			return device, nil
		}
	}
	return nil, errors.NewNotFoundError("trusted device not found")
}

func (m *MockTrustedDeviceRepository) GetBySID(ctx context.Context, subjectID uint, sid string) (*mfa.TrustedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, device := range m.devices {
		if device.SubjectID() == subjectID && device.SID() == sid {
			return device, nil
		}
	}
	return nil, errors.NewNotFoundError("trusted device not found")
}

func (m *MockTrustedDeviceRepository) GetBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.TrustedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*mfa.TrustedDevice, 0)
	for _, device := range m.devices {
		if device.SubjectID() == subjectID {
			result = append(result, device)
		}
	}
	return result, nil
}

func (m *MockTrustedDeviceRepository) UpdateLastSeen(ctx context.Context, id uint, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, exists := m.devices[id]
	if !exists {
		return errors.NewNotFoundError("trusted device not found")
	}
	device.Touch(seenAt)
	return nil
}

func (m *MockTrustedDeviceRepository) DeleteBySID(ctx context.Context, subjectID uint, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, device := range m.devices {
		if device.SubjectID() == subjectID && device.SID() == sid {
			delete(m.devices, id)
			return nil
		}
	}
	return errors.NewNotFoundError("trusted device not found")
}

func (m *MockTrustedDeviceRepository) DeleteBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, device := range m.devices {
		if device.SubjectID() == subjectID {
			delete(m.devices, id)
			count++
		}
	}
	return count, nil
}

func (m *MockTrustedDeviceRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, device := range m.devices {
		if device.ExpiresAt().Before(cutoff) {
			delete(m.devices, id)
			count++
		}
	}
	return count, nil
}

// MockWebAuthnCredentialRepository is an in-memory implementation of
// mfa.WebAuthnCredentialRepository.
type MockWebAuthnCredentialRepository struct {
	mu          sync.RWMutex
	credentials map[uint]*mfa.WebAuthnCredential
	nextID      uint

	// RecoveryHashes records the batch passed to CreateWithRecoveryBatch.
	RecoveryHashes []string
}

// NewMockWebAuthnCredentialRepository creates a new mock credential repository.
func NewMockWebAuthnCredentialRepository() *MockWebAuthnCredentialRepository {
	return &MockWebAuthnCredentialRepository{credentials: make(map[uint]*mfa.WebAuthnCredential)}
}

// AddCredential seeds a credential.
func (m *MockWebAuthnCredentialRepository) AddCredential(credential *mfa.WebAuthnCredential) {
	_ = m.Create(context.Background(), credential)
}

func (m *MockWebAuthnCredentialRepository) Create(ctx context.Context, credential *mfa.WebAuthnCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if credential.ID() == 0 {
		m.nextID++
		if err := credential.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.credentials[credential.ID()] = credential
	return nil
}

func (m *MockWebAuthnCredentialRepository) CreateWithRecoveryBatch(ctx context.Context, credential *mfa.WebAuthnCredential, recoveryHashes []string) error {
	if err := m.Create(ctx, credential); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecoveryHashes = recoveryHashes
	return nil
}

func (m *MockWebAuthnCredentialRepository) GetBySID(ctx context.Context, sid string) (*mfa.WebAuthnCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, credential := range m.credentials {
		if credential.SID() == sid {
			return credential, nil
		}
	}
	return nil, errors.NewNotFoundError("credential not found")
}

func (m *MockWebAuthnCredentialRepository) GetByCredentialID(ctx context.Context, credentialID []byte) (*mfa.WebAuthnCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, credential := range m.credentials {
		if bytes.Equal(credential.CredentialID(), credentialID) {
			return credential, nil
		}
	}
	return nil, errors.NewNotFoundError("credential not found")
}

func (m *MockWebAuthnCredentialRepository) GetBySubjectID(ctx context.Context, subjectID uint) ([]*mfa.WebAuthnCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*mfa.WebAuthnCredential, 0)
	for _, credential := range m.credentials {
		if credential.SubjectID() == subjectID {
			result = append(result, credential)
		}
	}
	return result, nil
}

func (m *MockWebAuthnCredentialRepository) Update(ctx context.Context, credential *mfa.WebAuthnCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credentials[credential.ID()] = credential
	return nil
}

func (m *MockWebAuthnCredentialRepository) UpdateSignCount(ctx context.Context, id uint, oldCount, newCount uint32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	credential, exists := m.credentials[id]
	if !exists || credential.SignCount() != oldCount {
		return false, nil
	}
	if err := credential.UpdateSignCount(newCount); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MockWebAuthnCredentialRepository) DeleteBySID(ctx context.Context, subjectID uint, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, credential := range m.credentials {
		if credential.SubjectID() == subjectID && credential.SID() == sid {
			delete(m.credentials, id)
			return nil
		}
	}
	return errors.NewNotFoundError("credential not found")
}

func (m *MockWebAuthnCredentialRepository) CountBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, credential := range m.credentials {
		if credential.SubjectID() == subjectID {
			count++
		}
	}
	return count, nil
}

func (m *MockWebAuthnCredentialRepository) ExistsByCredentialID(ctx context.Context, credentialID []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, credential := range m.credentials {
		if bytes.Equal(credential.CredentialID(), credentialID) {
			return true, nil
		}
	}
	return false, nil
}

// MockSecurityEventRepository is an in-memory implementation of
// mfa.SecurityEventRepository. The audit recorder writes from a detached
// goroutine, so access is mutex guarded.
type MockSecurityEventRepository struct {
	mu     sync.RWMutex
	events []*mfa.SecurityEvent
}

// NewMockSecurityEventRepository creates a new mock security event repository.
func NewMockSecurityEventRepository() *MockSecurityEventRepository {
	return &MockSecurityEventRepository{}
}

func (m *MockSecurityEventRepository) Create(ctx context.Context, event *mfa.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockSecurityEventRepository) ListBySubjectID(ctx context.Context, subjectID uint, limit, offset int) ([]*mfa.SecurityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matching := make([]*mfa.SecurityEvent, 0)
	for _, event := range m.events {
		if event.SubjectID() == subjectID {
			matching = append(matching, event)
		}
	}
	if offset >= len(matching) {
		return []*mfa.SecurityEvent{}, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[offset:end], nil
}

func (m *MockSecurityEventRepository) CountBySubjectID(ctx context.Context, subjectID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, event := range m.events {
		if event.SubjectID() == subjectID {
			count++
		}
	}
	return count, nil
}
