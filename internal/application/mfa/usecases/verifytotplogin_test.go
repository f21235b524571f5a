package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/inkwell-press/inkwell/internal/application/mfa/testutil"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/ratelimit"
	sharedConfig "github.com/inkwell-press/inkwell/internal/shared/config"
	"github.com/inkwell-press/inkwell/internal/shared/errors"
)

const testTotpSecret = "JBSWY3DPEHPK3PXP"

var testLimits = sharedConfig.RateLimitConfig{MaxAttempts: 5, WindowSeconds: 300}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func totpCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom() error = %v", err)
	}
	return code
}

func newTestTotpVerifyUseCase(t *testing.T, now time.Time) (*VerifyTotpLoginUseCase, *testutil.MockSessionGateway, *testutil.MockTotpEnrollmentRepository, ratelimit.RateLimiter) {
	t.Helper()

	totpService, err := auth.NewTotpService("Inkwell")
	if err != nil {
		t.Fatalf("NewTotpService() error = %v", err)
	}

	sessions := testutil.NewMockSessionGateway()
	enrollments := testutil.NewMockTotpEnrollmentRepository()
	limiter := ratelimit.NewMemoryRateLimiter()
	recorder := audit.NewRecorder(testutil.NewMockSecurityEventRepository(), testutil.NewMockLogger())

	uc := NewVerifyTotpLoginUseCase(
		sessions, enrollments, totpService, limiter, testLimits,
		recorder, fixedClock(now), testutil.NewMockLogger(),
	)
	return uc, sessions, enrollments, limiter
}

func addActiveEnrollment(t *testing.T, enrollments *testutil.MockTotpEnrollmentRepository, subjectID uint, activationStep int64) {
	t.Helper()
	enrollment, err := mfa.NewTotpEnrollment(subjectID, testTotpSecret)
	if err != nil {
		t.Fatalf("NewTotpEnrollment() error = %v", err)
	}
	if err := enrollment.Activate(activationStep); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	enrollments.AddEnrollment(enrollment)
}

func TestVerifyTotpLogin_Success(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	result, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{
		SessionID: "sess-1",
		Code:      totpCodeAt(t, testTotpSecret, now),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.SubjectID != 42 {
		t.Errorf("result.SubjectID = %v, want 42", result.SubjectID)
	}
	if result.State != mfa.StateVerified {
		t.Errorf("result.State = %v, want %v", result.State, mfa.StateVerified)
	}
	if sessions.State("sess-1") != mfa.StateVerified {
		t.Errorf("session state = %v, want %v", sessions.State("sess-1"), mfa.StateVerified)
	}
}

func TestVerifyTotpLogin_WrongCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{
		SessionID: "sess-1",
		Code:      "000000",
	})
	if err == nil {
		t.Fatal("Execute() expected error for wrong code")
	}
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Type != errors.ErrorTypeVerificationFailed {
		t.Errorf("error type = %v, want %v", appErr, errors.ErrorTypeVerificationFailed)
	}
	if sessions.State("sess-1") != mfa.StateAwaitingSecondFactor {
		t.Errorf("session must stay awaiting after a failed attempt")
	}
}

func TestVerifyTotpLogin_Replay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	code := totpCodeAt(t, testTotpSecret, now)

	if _, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: code}); err != nil {
		t.Fatalf("first Execute() unexpected error = %v", err)
	}

	// A second session presenting the same code within its validity window
	_ = sessions.Put(context.Background(), "sess-2", 42, mfa.StateAwaitingSecondFactor)

	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-2", Code: code})
	if err == nil {
		t.Fatal("Execute() expected replay error")
	}
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Type != errors.ErrorTypeReplayDetected {
		t.Errorf("error type = %v, want %v", appErr, errors.ErrorTypeReplayDetected)
	}
	if sessions.State("sess-2") != mfa.StateAwaitingSecondFactor {
		t.Errorf("replayed code must not verify the session")
	}
}

func TestVerifyTotpLogin_ConcurrentSameCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	_ = sessions.Put(context.Background(), "sess-2", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	code := totpCodeAt(t, testTotpSecret, now)

	// Two sessions race with the same code: exactly one wins the step,
	// the other reads as a replay
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, sessionID := range []string{"sess-1", "sess-2"} {
		wg.Add(1)
		go func(i int, sessionID string) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: sessionID, Code: code})
		}(i, sessionID)
	}
	wg.Wait()

	successes, replays := 0, 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		appErr := errors.GetAppError(err)
		if appErr != nil && appErr.Type == errors.ErrorTypeReplayDetected {
			replays++
		} else {
			t.Errorf("unexpected error = %v", err)
		}
	}
	if successes != 1 || replays != 1 {
		t.Errorf("got %d successes and %d replays, want exactly one of each", successes, replays)
	}
}

func TestVerifyTotpLogin_RateLimited(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	for i := 0; i < testLimits.MaxAttempts; i++ {
		_, _ = uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: "000000"})
	}

	// Even the right code is rejected while locked out
	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{
		SessionID: "sess-1",
		Code:      totpCodeAt(t, testTotpSecret, now),
	})
	if err == nil {
		t.Fatal("Execute() expected rate limit error")
	}
	if !errors.IsRateLimitExceeded(err) {
		t.Errorf("error = %v, want rate limit exceeded", err)
	}
}

func TestVerifyTotpLogin_SuccessResetsRateLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, enrollments, limiter := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)
	addActiveEnrollment(t, enrollments, 42, now.Unix()/30-10)

	for i := 0; i < testLimits.MaxAttempts-1; i++ {
		_, _ = uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: "000000"})
	}

	if _, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{
		SessionID: "sess-1",
		Code:      totpCodeAt(t, testTotpSecret, now),
	}); err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}

	// The attempt window starts clean after a successful verification
	key := ratelimit.AttemptKey(42, "totp")
	if err := limiter.Check(context.Background(), key, 1, testLimits.Window(), now); err != nil {
		t.Errorf("rate limit should be reset after success, got %v", err)
	}
}

func TestVerifyTotpLogin_AlreadyVerified(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, _, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateVerified)

	// No code needed: verification is idempotent for the session
	result, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: "000000"})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.State != mfa.StateVerified {
		t.Errorf("result.State = %v, want %v", result.State, mfa.StateVerified)
	}
}

func TestVerifyTotpLogin_NotEnrolled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, _, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateAwaitingSecondFactor)

	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: "000000"})
	if err == nil {
		t.Fatal("Execute() expected not enrolled error")
	}
	appErr := errors.GetAppError(err)
	if appErr == nil || appErr.Type != errors.ErrorTypeNotEnrolled {
		t.Errorf("error type = %v, want %v", appErr, errors.ErrorTypeNotEnrolled)
	}
}

func TestVerifyTotpLogin_NoSecondFactorSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, sessions, _, _ := newTestTotpVerifyUseCase(t, now)

	_ = sessions.Put(context.Background(), "sess-1", 42, mfa.StateNoSecondFactor)

	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "sess-1", Code: "000000"})
	if err == nil {
		t.Fatal("Execute() expected error for session without second factor")
	}
}

func TestVerifyTotpLogin_SessionNotFound(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	uc, _, _, _ := newTestTotpVerifyUseCase(t, now)

	_, err := uc.Execute(context.Background(), VerifyTotpLoginCommand{SessionID: "missing", Code: "000000"})
	if err == nil {
		t.Fatal("Execute() expected error for unknown session")
	}
}
