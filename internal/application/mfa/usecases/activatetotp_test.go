package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-press/inkwell/internal/application/mfa/testutil"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

func newTestActivateUseCase(t *testing.T, now time.Time) (*ActivateTotpUseCase, *testutil.MockSubjectGateway, *testutil.MockTotpEnrollmentRepository) {
	t.Helper()

	totpService, err := auth.NewTotpService("Inkwell")
	if err != nil {
		t.Fatalf("NewTotpService() error = %v", err)
	}

	subjects := testutil.NewMockSubjectGateway()
	enrollments := testutil.NewMockTotpEnrollmentRepository()
	recoveryCodes := auth.NewRecoveryCodeService(10, bcrypt.MinCost)
	recorder := audit.NewRecorder(testutil.NewMockSecurityEventRepository(), testutil.NewMockLogger())

	uc := NewActivateTotpUseCase(
		subjects, enrollments, totpService, recoveryCodes,
		recorder, fixedClock(now), testutil.NewMockLogger(),
	)
	return uc, subjects, enrollments
}

func addPendingEnrollment(t *testing.T, enrollments *testutil.MockTotpEnrollmentRepository, subjectID uint) {
	t.Helper()
	enrollment, err := mfa.NewTotpEnrollment(subjectID, testTotpSecret)
	if err != nil {
		t.Fatalf("NewTotpEnrollment() error = %v", err)
	}
	enrollments.AddEnrollment(enrollment)
}

func TestActivateTotp_Success(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, subjects, enrollments := newTestActivateUseCase(t, now)

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: false})
	addPendingEnrollment(t, enrollments, 42)

	result, err := uc.Execute(context.Background(), ActivateTotpCommand{
		SubjectID: 42,
		Code:      totpCodeAt(t, testTotpSecret, now),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if len(result.RecoveryCodes) != 10 {
		t.Errorf("len(result.RecoveryCodes) = %d, want 10", len(result.RecoveryCodes))
	}

	enrollment, err := enrollments.GetBySubjectID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBySubjectID() error = %v", err)
	}
	if !enrollment.IsActive() {
		t.Error("enrollment should be active")
	}
	// The proving step seeds the replay watermark
	if enrollment.LastUsedStep() == nil || *enrollment.LastUsedStep() != now.Unix()/30 {
		t.Errorf("enrollment.LastUsedStep() = %v, want %d", enrollment.LastUsedStep(), now.Unix()/30)
	}

	subject, err := subjects.FindByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !subject.MFAEnabled {
		t.Error("subject MFA flag should be enabled")
	}
}

func TestActivateTotp_WrongCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, subjects, enrollments := newTestActivateUseCase(t, now)

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: false})
	addPendingEnrollment(t, enrollments, 42)

	_, err := uc.Execute(context.Background(), ActivateTotpCommand{SubjectID: 42, Code: "000000"})
	if err == nil {
		t.Fatal("Execute() expected error for wrong code")
	}
	if !errors.IsVerificationFailed(err) {
		t.Errorf("error = %v, want verification failed", err)
	}

	enrollment, err := enrollments.GetBySubjectID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBySubjectID() error = %v", err)
	}
	if enrollment.IsActive() {
		t.Error("enrollment must stay pending after a failed proof")
	}
}

func TestActivateTotp_NotEnrolled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, subjects, _ := newTestActivateUseCase(t, now)

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: false})

	_, err := uc.Execute(context.Background(), ActivateTotpCommand{SubjectID: 42, Code: "000000"})
	if err == nil {
		t.Fatal("Execute() expected not enrolled error")
	}
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Type != errors.ErrorTypeNotEnrolled {
		t.Errorf("error type = %v, want %v", appErr, errors.ErrorTypeNotEnrolled)
	}
}

func TestActivateTotp_AlreadyActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, subjects, enrollments := newTestActivateUseCase(t, now)

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: true})
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	_, err := uc.Execute(context.Background(), ActivateTotpCommand{
		SubjectID: 42,
		Code:      totpCodeAt(t, testTotpSecret, now),
	})
	if err == nil {
		t.Fatal("Execute() expected already enrolled error")
	}
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Type != errors.ErrorTypeAlreadyEnrolled {
		t.Errorf("error type = %v, want %v", appErr, errors.ErrorTypeAlreadyEnrolled)
	}
}

func TestActivateTotp_EnableFlagFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, subjects, enrollments := newTestActivateUseCase(t, now)

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: false})
	addPendingEnrollment(t, enrollments, 42)
	subjects.SetSetMFAEnabledError(fmt.Errorf("profile service unavailable"))

	// The enrollment commits before the profile flag flips: a flag failure
	// surfaces as an error rather than silently half-configuring the account
	_, err := uc.Execute(context.Background(), ActivateTotpCommand{
		SubjectID: 42,
		Code:      totpCodeAt(t, testTotpSecret, now),
	})
	if err == nil {
		t.Fatal("Execute() expected error when the flag cannot be enabled")
	}

	enrollment, getErr := enrollments.GetBySubjectID(context.Background(), 42)
	if getErr != nil {
		t.Fatalf("GetBySubjectID() error = %v", getErr)
	}
	if !enrollment.IsActive() {
		t.Error("activated enrollment must survive the flag failure")
	}

	subject, getErr := subjects.FindByID(context.Background(), 42)
	if getErr != nil {
		t.Fatalf("FindByID() error = %v", getErr)
	}
	if subject.MFAEnabled {
		t.Error("flag must stay off when the gateway write failed")
	}
}
