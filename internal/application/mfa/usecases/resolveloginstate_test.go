package usecases

import (
	"context"
	"testing"

	"github.com/inkwell-press/inkwell/internal/application/mfa/testutil"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/constants"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

func newTestResolveUseCase() (*ResolveLoginStateUseCase, *testutil.MockSessionGateway, *testutil.MockSubjectGateway, *testutil.MockTotpEnrollmentRepository, *testutil.MockRecoveryCodeRepository) {
	sessions := testutil.NewMockSessionGateway()
	subjects := testutil.NewMockSubjectGateway()
	enrollments := testutil.NewMockTotpEnrollmentRepository()
	credentials := testutil.NewMockWebAuthnCredentialRepository()
	recovery := testutil.NewMockRecoveryCodeRepository()

	uc := NewResolveLoginStateUseCase(
		sessions, subjects, enrollments, credentials, recovery, testutil.NewMockLogger(),
	)
	return uc, sessions, subjects, enrollments, recovery
}

func TestResolveLoginState_NoSecondFactor(t *testing.T) {
	uc, sessions, subjects, _, _ := newTestResolveUseCase()

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: false})

	result, err := uc.Execute(context.Background(), ResolveLoginStateCommand{SessionID: "sess-1", SubjectID: 42})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.State != mfa.StateNoSecondFactor {
		t.Errorf("result.State = %v, want %v", result.State, mfa.StateNoSecondFactor)
	}
	if len(result.AvailableMethods) != 0 {
		t.Errorf("result.AvailableMethods = %v, want empty", result.AvailableMethods)
	}
	if sessions.State("sess-1") != mfa.StateNoSecondFactor {
		t.Errorf("session state = %v, want %v", sessions.State("sess-1"), mfa.StateNoSecondFactor)
	}
}

func TestResolveLoginState_AwaitingSecondFactor(t *testing.T) {
	uc, sessions, subjects, enrollments, recovery := newTestResolveUseCase()

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: true})

	enrollment, err := mfa.NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("NewTotpEnrollment() error = %v", err)
	}
	if err := enrollment.Activate(1000); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	enrollments.AddEnrollment(enrollment)

	if err := recovery.ReplaceBatch(context.Background(), 42, []string{"$2a$10$one"}); err != nil {
		t.Fatalf("ReplaceBatch() error = %v", err)
	}

	result, err := uc.Execute(context.Background(), ResolveLoginStateCommand{SessionID: "sess-1", SubjectID: 42})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.State != mfa.StateAwaitingSecondFactor {
		t.Errorf("result.State = %v, want %v", result.State, mfa.StateAwaitingSecondFactor)
	}
	if len(result.AvailableMethods) != 2 {
		t.Fatalf("result.AvailableMethods = %v, want totp and recovery_code", result.AvailableMethods)
	}
	if result.AvailableMethods[0] != constants.MethodTotp || result.AvailableMethods[1] != constants.MethodRecoveryCode {
		t.Errorf("result.AvailableMethods = %v, want [totp recovery_code]", result.AvailableMethods)
	}
	if sessions.State("sess-1") != mfa.StateAwaitingSecondFactor {
		t.Errorf("session state = %v, want %v", sessions.State("sess-1"), mfa.StateAwaitingSecondFactor)
	}
}

func TestResolveLoginState_PendingEnrollmentDoesNotCount(t *testing.T) {
	uc, _, subjects, enrollments, recovery := newTestResolveUseCase()

	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: true})

	// Pending enrollment: secret issued, never proven
	enrollment, err := mfa.NewTotpEnrollment(42, "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("NewTotpEnrollment() error = %v", err)
	}
	enrollments.AddEnrollment(enrollment)

	if err := recovery.ReplaceBatch(context.Background(), 42, []string{"$2a$10$one"}); err != nil {
		t.Fatalf("ReplaceBatch() error = %v", err)
	}

	result, err := uc.Execute(context.Background(), ResolveLoginStateCommand{SessionID: "sess-1", SubjectID: 42})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	for _, method := range result.AvailableMethods {
		if method == constants.MethodTotp {
			t.Error("pending TOTP enrollment must not be offered as a method")
		}
	}
}

func TestResolveLoginState_InconsistentConfiguration(t *testing.T) {
	uc, sessions, subjects, _, _ := newTestResolveUseCase()

	// MFA flag on, but nothing enrolled: fail closed
	subjects.AddSubject(&mfa.Subject{ID: 42, Email: "reader@example.com", MFAEnabled: true})

	_, err := uc.Execute(context.Background(), ResolveLoginStateCommand{SessionID: "sess-1", SubjectID: 42})
	if err == nil {
		t.Fatal("Execute() expected error for inconsistent configuration")
	}
	if sessions.State("sess-1") != "" {
		t.Errorf("no session state should be stored, got %v", sessions.State("sess-1"))
	}
}

func TestResolveLoginState_SubjectNotFound(t *testing.T) {
	uc, _, _, _, _ := newTestResolveUseCase()

	_, err := uc.Execute(context.Background(), ResolveLoginStateCommand{SessionID: "sess-1", SubjectID: 999})
	if err == nil {
		t.Fatal("Execute() expected error for unknown subject")
	}
	if !errors.IsNotFoundError(err) {
		t.Errorf("error = %v, want not found", err)
	}
}
