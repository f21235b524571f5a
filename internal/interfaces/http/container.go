package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/inkwell-press/inkwell/internal/application/mfa/usecases"
	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/infrastructure/audit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/auth"
	"github.com/inkwell-press/inkwell/internal/infrastructure/cache"
	"github.com/inkwell-press/inkwell/internal/infrastructure/config"
	"github.com/inkwell-press/inkwell/internal/infrastructure/ratelimit"
	"github.com/inkwell-press/inkwell/internal/infrastructure/repository"
	"github.com/inkwell-press/inkwell/internal/infrastructure/scheduler"
	"github.com/inkwell-press/inkwell/internal/infrastructure/token"
	"github.com/inkwell-press/inkwell/internal/interfaces/http/handlers"
	"github.com/inkwell-press/inkwell/internal/interfaces/http/middleware"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// Container holds all infrastructure components, repositories, use cases,
// handlers, and middleware. It wires everything together and provides a
// Shutdown() method for graceful termination.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Repositories and gateways
	subjects       mfa.SubjectGateway
	enrollments    mfa.TotpEnrollmentRepository
	credentials    mfa.WebAuthnCredentialRepository
	recoveryCodes  mfa.RecoveryCodeRepository
	trustedDevices mfa.TrustedDeviceRepository
	securityEvents mfa.SecurityEventRepository

	// Infrastructure services
	sessions        *cache.SessionStateStore
	challenges      *cache.WebAuthnChallengeStore
	limiter         ratelimit.RateLimiter
	recorder        *audit.Recorder
	totpService     *auth.TotpService
	webAuthnService *auth.WebAuthnService
	recoveryCodeSvc *auth.RecoveryCodeService
	tokenGenerator  token.TokenGenerator

	// Use cases
	ucs *allUseCases

	// Handlers
	totpHandler          *handlers.TotpHandler
	webAuthnHandler      *handlers.WebAuthnHandler
	recoveryCodeHandler  *handlers.RecoveryCodeHandler
	trustedDeviceHandler *handlers.TrustedDeviceHandler
	mfaHandler           *handlers.MfaHandler

	// Middleware
	sessionAuth *middleware.SessionAuthMiddleware

	// Background services
	maintenanceScheduler *scheduler.MaintenanceScheduler
}

type allUseCases struct {
	beginTotpEnrollment *usecases.BeginTotpEnrollmentUseCase
	activateTotp        *usecases.ActivateTotpUseCase
	verifyTotpLogin     *usecases.VerifyTotpLoginUseCase
	disableTotp         *usecases.DisableTotpUseCase

	startWebAuthnRegistration  *usecases.StartWebAuthnRegistrationUseCase
	finishWebAuthnRegistration *usecases.FinishWebAuthnRegistrationUseCase
	startWebAuthnLogin         *usecases.StartWebAuthnLoginUseCase
	finishWebAuthnLogin        *usecases.FinishWebAuthnLoginUseCase
	listWebAuthnCredentials    *usecases.ListWebAuthnCredentialsUseCase
	renameWebAuthnCredential   *usecases.RenameWebAuthnCredentialUseCase
	revokeWebAuthnCredential   *usecases.RevokeWebAuthnCredentialUseCase

	regenerateRecoveryCodes *usecases.RegenerateRecoveryCodesUseCase
	consumeRecoveryCode     *usecases.ConsumeRecoveryCodeUseCase

	trustDevice            *usecases.TrustDeviceUseCase
	validateTrustedDevice  *usecases.ValidateTrustedDeviceUseCase
	listTrustedDevices     *usecases.ListTrustedDevicesUseCase
	revokeTrustedDevice    *usecases.RevokeTrustedDeviceUseCase
	revokeAllTrustedDevice *usecases.RevokeAllTrustedDevicesUseCase

	mfaStatus           *usecases.MfaStatusUseCase
	getSecurityActivity *usecases.GetSecurityActivityUseCase
	resolveLoginState   *usecases.ResolveLoginStateUseCase
	checkSecondFactor   *usecases.CheckSecondFactorUseCase
}

// NewContainer creates a new Container with all dependencies wired together
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initUseCases()
	c.initHandlers()

	return c, nil
}

// initInfrastructure wires Redis, repositories, and the crypto services
func (c *Container) initInfrastructure() error {
	c.redis = redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.GetAddr(),
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})

	c.subjects = repository.NewSubjectGateway(c.db, c.log)
	c.enrollments = repository.NewTotpEnrollmentRepository(c.db, c.log)
	c.credentials = repository.NewWebAuthnCredentialRepository(c.db, c.log)
	c.recoveryCodes = repository.NewRecoveryCodeRepository(c.db, c.log)
	c.trustedDevices = repository.NewTrustedDeviceRepository(c.db, c.log)
	c.securityEvents = repository.NewSecurityEventRepository(c.db, c.log)

	c.sessions = cache.NewSessionStateStore(c.redis, c.cfg.MFA.Session.StateTTL())
	c.challenges = cache.NewWebAuthnChallengeStore(c.redis)
	c.limiter = ratelimit.NewRedisRateLimiter(c.redis)
	c.recorder = audit.NewRecorder(c.securityEvents, c.log)

	totpService, err := auth.NewTotpService(c.cfg.MFA.TOTP.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize TOTP service: %w", err)
	}
	c.totpService = totpService

	webAuthnService, err := auth.NewWebAuthnService(c.cfg.MFA.WebAuthn)
	if err != nil {
		return fmt.Errorf("failed to initialize WebAuthn service: %w", err)
	}
	c.webAuthnService = webAuthnService

	c.recoveryCodeSvc = auth.NewRecoveryCodeService(
		c.cfg.MFA.RecoveryCodes.BatchSize,
		c.cfg.MFA.RecoveryCodes.BcryptCost,
	)
	c.tokenGenerator = token.NewTokenGenerator()

	c.sessionAuth = middleware.NewSessionAuthMiddleware(c.sessions, c.log)
	c.maintenanceScheduler = scheduler.NewMaintenanceScheduler(c.trustedDevices, c.log)

	return nil
}

// initUseCases wires the application layer
func (c *Container) initUseCases() {
	limits := c.cfg.MFA.RateLimit
	clock := time.Now

	c.ucs = &allUseCases{
		beginTotpEnrollment: usecases.NewBeginTotpEnrollmentUseCase(
			c.subjects, c.enrollments, c.totpService, c.log),
		activateTotp: usecases.NewActivateTotpUseCase(
			c.subjects, c.enrollments, c.totpService, c.recoveryCodeSvc, c.recorder, clock, c.log),
		verifyTotpLogin: usecases.NewVerifyTotpLoginUseCase(
			c.sessions, c.enrollments, c.totpService, c.limiter, limits, c.recorder, clock, c.log),
		disableTotp: usecases.NewDisableTotpUseCase(
			c.subjects, c.enrollments, c.credentials, c.recoveryCodes, c.trustedDevices, c.recorder, c.log),

		startWebAuthnRegistration: usecases.NewStartWebAuthnRegistrationUseCase(
			c.subjects, c.credentials, c.webAuthnService, c.challenges, c.log),
		finishWebAuthnRegistration: usecases.NewFinishWebAuthnRegistrationUseCase(
			c.subjects, c.credentials, c.enrollments, c.webAuthnService, c.challenges, c.recoveryCodeSvc, c.recorder, c.log),
		startWebAuthnLogin: usecases.NewStartWebAuthnLoginUseCase(
			c.sessions, c.subjects, c.credentials, c.webAuthnService, c.challenges, c.log),
		finishWebAuthnLogin: usecases.NewFinishWebAuthnLoginUseCase(
			c.sessions, c.subjects, c.credentials, c.webAuthnService, c.challenges, c.limiter, limits, c.recorder, clock, c.log),
		listWebAuthnCredentials: usecases.NewListWebAuthnCredentialsUseCase(
			c.credentials, c.log),
		renameWebAuthnCredential: usecases.NewRenameWebAuthnCredentialUseCase(
			c.credentials, c.log),
		revokeWebAuthnCredential: usecases.NewRevokeWebAuthnCredentialUseCase(
			c.subjects, c.credentials, c.enrollments, c.recoveryCodes, c.trustedDevices, c.recorder, c.log),

		regenerateRecoveryCodes: usecases.NewRegenerateRecoveryCodesUseCase(
			c.enrollments, c.credentials, c.recoveryCodes, c.recoveryCodeSvc, c.recorder, c.log),
		consumeRecoveryCode: usecases.NewConsumeRecoveryCodeUseCase(
			c.sessions, c.recoveryCodes, c.recoveryCodeSvc, c.limiter, limits, c.recorder, clock, c.log),

		trustDevice: usecases.NewTrustDeviceUseCase(
			c.sessions, c.trustedDevices, c.tokenGenerator, c.cfg.MFA.TrustedDevice.TTL(), c.recorder, clock, c.log),
		validateTrustedDevice: usecases.NewValidateTrustedDeviceUseCase(
			c.sessions, c.trustedDevices, c.tokenGenerator, clock, c.log),
		listTrustedDevices: usecases.NewListTrustedDevicesUseCase(
			c.trustedDevices, c.log),
		revokeTrustedDevice: usecases.NewRevokeTrustedDeviceUseCase(
			c.trustedDevices, c.recorder, c.log),
		revokeAllTrustedDevice: usecases.NewRevokeAllTrustedDevicesUseCase(
			c.trustedDevices, c.recorder, c.log),

		mfaStatus: usecases.NewMfaStatusUseCase(
			c.subjects, c.enrollments, c.credentials, c.recoveryCodes, c.trustedDevices, c.log),
		getSecurityActivity: usecases.NewGetSecurityActivityUseCase(
			c.securityEvents, c.log),
		resolveLoginState: usecases.NewResolveLoginStateUseCase(
			c.sessions, c.subjects, c.enrollments, c.credentials, c.recoveryCodes, c.log),
		checkSecondFactor: usecases.NewCheckSecondFactorUseCase(
			c.sessions, c.log),
	}
}

// initHandlers wires the HTTP handlers
func (c *Container) initHandlers() {
	c.totpHandler = handlers.NewTotpHandler(
		c.ucs.beginTotpEnrollment, c.ucs.activateTotp, c.ucs.verifyTotpLogin, c.ucs.disableTotp, c.log)

	c.webAuthnHandler = handlers.NewWebAuthnHandler(
		c.ucs.startWebAuthnRegistration, c.ucs.finishWebAuthnRegistration,
		c.ucs.startWebAuthnLogin, c.ucs.finishWebAuthnLogin,
		c.ucs.listWebAuthnCredentials, c.ucs.renameWebAuthnCredential, c.ucs.revokeWebAuthnCredential, c.log)

	c.recoveryCodeHandler = handlers.NewRecoveryCodeHandler(
		c.ucs.regenerateRecoveryCodes, c.ucs.consumeRecoveryCode, c.log)

	c.trustedDeviceHandler = handlers.NewTrustedDeviceHandler(
		c.ucs.trustDevice, c.ucs.validateTrustedDevice, c.ucs.listTrustedDevices,
		c.ucs.revokeTrustedDevice, c.ucs.revokeAllTrustedDevice,
		c.cfg.Cookie, c.cfg.MFA.TrustedDevice, c.log)

	c.mfaHandler = handlers.NewMfaHandler(
		c.ucs.mfaStatus, c.ucs.getSecurityActivity, c.ucs.resolveLoginState, c.ucs.checkSecondFactor, c.log)
}

// StartMaintenanceScheduler starts the background cleanup loop
func (c *Container) StartMaintenanceScheduler(ctx context.Context) {
	c.maintenanceScheduler.Start(ctx)
}

// Shutdown gracefully releases the container's resources
func (c *Container) Shutdown() {
	if c.maintenanceScheduler != nil {
		c.maintenanceScheduler.Stop()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close redis client on shutdown", "error", err)
		}
	}
}
