package medcore

import (
	"context"
	"errors"

	"github.com/mededlabs/medcore/internal/flows"
)

// GenerateRecoveryCodes describes the generaterecoverycodes operation and its observable behavior.
//
// GenerateRecoveryCodes may return an error when input validation, dependency calls, or security checks fail.
// GenerateRecoveryCodes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunGenerateRecoveryCodes(ctx, userID, e.recoveryCodeDeps())
}

// RegenerateRecoveryCodes describes the regeneraterecoverycodes operation and its observable behavior.
//
// RegenerateRecoveryCodes may return an error when input validation, dependency calls, or security checks fail.
// RegenerateRecoveryCodes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RegenerateRecoveryCodes(ctx context.Context, userID, code string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunRegenerateRecoveryCodes(ctx, userID, code, e.recoveryCodeDeps())
}

// RecoveryCodesRemaining describes the recoverycodesremaining operation and its observable behavior.
//
// RecoveryCodesRemaining may return an error when input validation, dependency calls, or security checks fail.
// RecoveryCodesRemaining does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecoveryCodesRemaining(ctx context.Context, userID string) (int, error) {
	if !e.config.TwoFactor.Enabled {
		return 0, ErrTwoFactorDisabled
	}
	if e.credentials == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrUserNotFound
	}

	records, err := e.credentials.GetRecoveryCodes(ctx, userID)
	if err != nil {
		return 0, ErrRecoveryCodeUnavailable
	}
	return len(records), nil
}

func (e *Engine) recoveryCodeDeps() flows.RecoveryCodeDeps {
	return flows.RecoveryCodeDeps{
		Enabled:            e.config.TwoFactor.Enabled,
		RecoveryCodeCount:  e.config.TwoFactor.RecoveryCodeCount,
		RecoveryCodeLength: e.config.TwoFactor.RecoveryCodeLength,

		UserExists: func(ctx context.Context, userID string) error {
			_, err := e.credentials.GetTwoFactor(ctx, userID)
			return err
		},
		ReplaceCodes: func(ctx context.Context, userID string, records []flows.RecoveryCodeRecord) error {
			out := make([]RecoveryCodeRecord, len(records))
			for i, r := range records {
				out[i] = RecoveryCodeRecord{Hash: r.Hash}
			}
			return e.credentials.ReplaceRecoveryCodes(ctx, userID, out)
		},
		ConsumeCode: func(ctx context.Context, userID string, hash [32]byte) (bool, error) {
			return e.credentials.ConsumeRecoveryCode(ctx, userID, hash)
		},
		VerifyCodeForUser: e.verifyTOTPOnly,

		CheckLimiter:         e.recoveryLimiter.Check,
		RecordLimiterFailure: e.recoveryLimiter.RecordFailure,
		ResetLimiter:         e.recoveryLimiter.Reset,
		IsRateLimited: func(err error) bool {
			return errors.Is(err, errRecoveryLimited)
		},

		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,

		Metrics: flows.RecoveryCodeMetrics{
			RecoveryCodeUsed:      int(MetricRecoveryCodeUsed),
			RecoveryCodeFailed:    int(MetricRecoveryCodeFailed),
			RecoveryCodesReplaced: int(MetricRecoveryCodesReplaced),
		},
		Events: flows.RecoveryCodeEvents{
			RecoveryCodesGenerated: auditEventRecoveryCodesGenerated,
			RecoveryCodeUsed:       auditEventRecoveryCodeUsed,
			RecoveryCodeFailed:     auditEventRecoveryCodeFailed,
		},
		Errors: flows.RecoveryCodeErrors{
			TwoFactorDisabled:       ErrTwoFactorDisabled,
			EngineNotReady:          ErrEngineNotReady,
			UserNotFound:            ErrUserNotFound,
			RecoveryCodeUnavailable: ErrRecoveryCodeUnavailable,
			RecoveryCodeInvalid:     ErrRecoveryCodeInvalid,
			RecoveryCodeRateLimited: ErrRecoveryCodeRateLimited,
		},
	}
}
