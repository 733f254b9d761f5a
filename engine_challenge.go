package medcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BeginLoginChallenge describes the beginloginchallenge operation and its observable behavior.
//
// BeginLoginChallenge may return an error when input validation, dependency calls, or security checks fail.
// BeginLoginChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BeginLoginChallenge(ctx context.Context, userID string) (string, error) {
	if !e.config.Challenge.Enabled {
		return "", ErrChallengeDisabled
	}
	if e.challenges == nil || e.credentials == nil {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", ErrUserNotFound
	}

	record, err := e.credentials.GetTwoFactor(ctx, userID)
	if err != nil {
		return "", ErrUserNotFound
	}
	if !record.Active() {
		return "", ErrTwoFactorNotConfigured
	}

	challengeID := uuid.NewString()
	ttl := e.config.Challenge.TTL
	challenge := &loginChallenge{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}

	if err := e.challenges.Save(ctx, challengeID, challenge, ttl); err != nil {
		return "", ErrChallengeUnavailable
	}

	e.metricInc(MetricChallengeIssued)
	e.emitAudit(ctx, auditEventChallengeIssued, true, userID, nil, nil)
	return challengeID, nil
}

// CompleteLoginChallenge describes the completeloginchallenge operation and its observable behavior.
//
// CompleteLoginChallenge may return an error when input validation, dependency calls, or security checks fail.
// CompleteLoginChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CompleteLoginChallenge(ctx context.Context, challengeID, code string) (string, error) {
	if !e.config.Challenge.Enabled {
		return "", ErrChallengeDisabled
	}
	if e.challenges == nil || e.credentials == nil {
		return "", ErrEngineNotReady
	}
	if challengeID == "" {
		return "", ErrChallengeInvalid
	}

	challenge, err := e.challenges.Get(ctx, challengeID)
	if err != nil {
		switch {
		case errors.Is(err, errChallengeNotFound):
			return "", ErrChallengeInvalid
		case errors.Is(err, errChallengeExpired):
			e.metricInc(MetricChallengeExpired)
			e.emitAudit(ctx, auditEventChallengeFailed, false, "", ErrChallengeExpired, nil)
			return "", ErrChallengeExpired
		default:
			return "", ErrChallengeUnavailable
		}
	}

	ok, err := e.VerifyCode(ctx, challenge.UserID, code)
	if err != nil {
		e.metricInc(MetricChallengeFailed)
		e.emitAudit(ctx, auditEventChallengeFailed, false, challenge.UserID, err, nil)
		return "", err
	}
	if !ok {
		exceeded, recErr := e.challenges.RecordFailure(ctx, challengeID, e.config.Challenge.MaxAttempts)
		if recErr != nil {
			switch {
			case errors.Is(recErr, errChallengeNotFound):
				return "", ErrChallengeInvalid
			case errors.Is(recErr, errChallengeExpired):
				e.metricInc(MetricChallengeExpired)
				return "", ErrChallengeExpired
			default:
				return "", ErrChallengeUnavailable
			}
		}
		e.metricInc(MetricChallengeFailed)
		if exceeded {
			e.emitAudit(ctx, auditEventChallengeFailed, false, challenge.UserID, ErrChallengeAttemptsExceeded, nil)
			return "", ErrChallengeAttemptsExceeded
		}
		e.emitAudit(ctx, auditEventChallengeFailed, false, challenge.UserID, ErrCodeInvalid, nil)
		return "", ErrCodeInvalid
	}

	// One-shot handle: delete wins exactly once even under concurrent
	// completion attempts.
	deleted, err := e.challenges.Delete(ctx, challengeID)
	if err != nil {
		return "", ErrChallengeUnavailable
	}
	if !deleted {
		return "", ErrChallengeInvalid
	}

	e.metricInc(MetricChallengeCompleted)
	e.emitAudit(ctx, auditEventChallengeCompleted, true, challenge.UserID, nil, nil)
	return challenge.UserID, nil
}
