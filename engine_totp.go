package medcore

import (
	"context"
	"encoding/base32"
	"errors"
	"time"

	"github.com/mededlabs/medcore/internal/flows"
)

// GenerateTwoFactorSetup describes the generatetwofactorsetup operation and its observable behavior.
//
// GenerateTwoFactorSetup may return an error when input validation, dependency calls, or security checks fail.
// GenerateTwoFactorSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GenerateTwoFactorSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	if !e.config.TwoFactor.Enabled {
		return nil, ErrTwoFactorDisabled
	}
	if e.totp == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrUserNotFound
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	secretRaw, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, ErrCredentialUnavailable
	}
	if err := e.credentials.SetTwoFactorSecret(ctx, userID, secretRaw); err != nil {
		return nil, ErrCredentialUnavailable
	}

	account := userID
	if record != nil && record.AccountLabel != "" {
		account = record.AccountLabel
	}
	out := &TwoFactorSetup{
		SecretBase32:  secretBase32,
		EnrollmentURI: e.totp.ProvisionURI(secretBase32, account),
	}

	e.metricInc(MetricSetupRequested)
	e.emitAudit(ctx, auditEventSetupRequested, true, userID, nil, nil)
	return out, nil
}

// EnrollmentURI describes the enrollmenturi operation and its observable behavior.
//
// EnrollmentURI may return an error when input validation, dependency calls, or security checks fail.
// EnrollmentURI does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) EnrollmentURI(ctx context.Context, userID string) (string, error) {
	if !e.config.TwoFactor.Enabled {
		return "", ErrTwoFactorDisabled
	}
	if e.totp == nil || e.credentials == nil {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", ErrUserNotFound
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return "", ErrUserNotFound
	}
	if record == nil || len(record.Secret) == 0 {
		return "", ErrTwoFactorNotConfigured
	}

	account := userID
	if record.AccountLabel != "" {
		account = record.AccountLabel
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return e.totp.ProvisionURI(enc.EncodeToString(record.Secret), account), nil
}

// ConfirmTwoFactor describes the confirmtwofactor operation and its observable behavior.
//
// ConfirmTwoFactor may return an error when input validation, dependency calls, or security checks fail.
// ConfirmTwoFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmTwoFactor(ctx context.Context, userID, code string) error {
	if !e.config.TwoFactor.Enabled {
		return ErrTwoFactorDisabled
	}
	if e.totp == nil || e.credentials == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil || record == nil || len(record.Secret) == 0 {
		return ErrTwoFactorNotConfigured
	}

	if code == "" {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrCodeRequired, nil)
		return ErrCodeRequired
	}

	ok, err := e.totp.VerifyCode(record.Secret, code, time.Now())
	if err != nil {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrCredentialUnavailable, nil)
		return ErrCredentialUnavailable
	}
	if !ok {
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrCodeInvalid, nil)
		return ErrCodeInvalid
	}

	if err := e.credentials.ConfirmTwoFactor(ctx, userID, time.Now()); err != nil {
		return ErrCredentialUnavailable
	}

	e.metricInc(MetricTwoFactorConfirmed)
	e.emitAudit(ctx, auditEventTwoFactorConfirmed, true, userID, nil, nil)
	return nil
}

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyCode(ctx context.Context, userID, code string) (bool, error) {
	if !e.config.TwoFactor.Enabled {
		return false, ErrTwoFactorDisabled
	}
	if e.totp == nil || e.credentials == nil {
		return false, ErrEngineNotReady
	}
	if userID == "" {
		return false, ErrUserNotFound
	}

	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return false, ErrCredentialUnavailable
	}
	// A pending secret is verifiable too: confirmation itself depends on a
	// successful verify, and recovery codes issued before confirmation must
	// already work. Confirmed-only gating lives in the login challenge path.
	if len(record.Secret) == 0 {
		return false, ErrTwoFactorNotConfigured
	}

	throttle := e.config.Limits.EnableVerifyThrottle && e.verifyLimiter != nil
	if throttle {
		if err := e.verifyLimiter.Check(ctx, userID); err != nil {
			if errors.Is(err, errVerifyLimited) {
				e.metricInc(MetricCodeVerifyRateLimited)
				e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrVerifyRateLimited, nil)
				return false, ErrVerifyRateLimited
			}
			return false, ErrCredentialUnavailable
		}
	}

	ok, err := e.totp.VerifyCode(record.Secret, code, time.Now())
	if err != nil {
		return false, ErrCredentialUnavailable
	}
	if ok {
		if throttle {
			_ = e.verifyLimiter.Reset(ctx, userID)
		}
		e.metricInc(MetricCodeVerifySuccess)
		e.emitAudit(ctx, auditEventCodeVerifySuccess, true, userID, nil, func() map[string]string {
			return map[string]string{"method": "totp"}
		})
		return true, nil
	}

	// A code that fails the authenticator check may still be a recovery code,
	// whatever its shape. Recovery matching is the silent fallback, never a
	// separately surfaced step.
	err = flows.RunConsumeRecoveryCode(ctx, userID, code, e.recoveryCodeDeps())
	switch {
	case err == nil:
		if throttle {
			_ = e.verifyLimiter.Reset(ctx, userID)
		}
		e.metricInc(MetricCodeVerifySuccess)
		e.emitAudit(ctx, auditEventCodeVerifySuccess, true, userID, nil, func() map[string]string {
			return map[string]string{"method": "recovery_code"}
		})
		return true, nil
	case errors.Is(err, ErrRecoveryCodeInvalid):
		if throttle {
			if recErr := e.verifyLimiter.RecordFailure(ctx, userID); recErr != nil {
				if errors.Is(recErr, errVerifyLimited) {
					e.metricInc(MetricCodeVerifyRateLimited)
					e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrVerifyRateLimited, nil)
					return false, ErrVerifyRateLimited
				}
				return false, ErrCredentialUnavailable
			}
		}
		e.metricInc(MetricCodeVerifyFailure)
		e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrCodeInvalid, nil)
		return false, nil
	case errors.Is(err, ErrRecoveryCodeRateLimited):
		e.metricInc(MetricCodeVerifyRateLimited)
		e.emitAudit(ctx, auditEventCodeVerifyFailure, false, userID, ErrVerifyRateLimited, nil)
		return false, ErrVerifyRateLimited
	default:
		return false, err
	}
}

// DisableTwoFactor describes the disabletwofactor operation and its observable behavior.
//
// DisableTwoFactor may return an error when input validation, dependency calls, or security checks fail.
// DisableTwoFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DisableTwoFactor(ctx context.Context, userID string) error {
	if !e.config.TwoFactor.Enabled {
		return ErrTwoFactorDisabled
	}
	if e.credentials == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if record == nil || len(record.Secret) == 0 {
		return ErrTwoFactorNotConfigured
	}

	// Secret and recovery codes go together; the provider clears both in one
	// atomic operation so a half-disabled credential can never be observed.
	if err := e.credentials.DisableTwoFactor(ctx, userID); err != nil {
		return ErrCredentialUnavailable
	}

	if e.verifyLimiter != nil {
		_ = e.verifyLimiter.Reset(ctx, userID)
	}
	if e.recoveryLimiter != nil {
		_ = e.recoveryLimiter.Reset(ctx, userID)
	}

	e.metricInc(MetricTwoFactorDisabled)
	e.emitAudit(ctx, auditEventTwoFactorDisabled, true, userID, nil, nil)
	return nil
}

func (e *Engine) verifyTOTPOnly(ctx context.Context, userID, code string) error {
	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return ErrCredentialUnavailable
	}
	if !record.Active() {
		return ErrTwoFactorNotConfigured
	}
	if code == "" {
		return ErrCodeRequired
	}

	ok, err := e.totp.VerifyCode(record.Secret, code, time.Now())
	if err != nil {
		return ErrCredentialUnavailable
	}
	if !ok {
		return ErrCodeInvalid
	}
	return nil
}
