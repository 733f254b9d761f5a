package medcore

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the two-factor engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTwoFactorDisabled is an exported constant or variable used by the two-factor engine.
	ErrTwoFactorDisabled = errors.New("two-factor feature disabled")
	// ErrUserNotFound is an exported constant or variable used by the two-factor engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrTwoFactorNotConfigured is an exported constant or variable used by the two-factor engine.
	ErrTwoFactorNotConfigured = errors.New("two-factor not configured")
	// ErrCodeRequired is an exported constant or variable used by the two-factor engine.
	ErrCodeRequired = errors.New("verification code required")
	// ErrCodeInvalid is an exported constant or variable used by the two-factor engine.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrVerifyRateLimited is an exported constant or variable used by the two-factor engine.
	ErrVerifyRateLimited = errors.New("verification rate limited")
	// ErrCredentialUnavailable is an exported constant or variable used by the two-factor engine.
	ErrCredentialUnavailable = errors.New("credential store unavailable")
	// ErrRecoveryCodeUnavailable is an exported constant or variable used by the two-factor engine.
	ErrRecoveryCodeUnavailable = errors.New("recovery code backend unavailable")
	// ErrRecoveryCodeInvalid is an exported constant or variable used by the two-factor engine.
	ErrRecoveryCodeInvalid = errors.New("recovery code invalid")
	// ErrRecoveryCodeRateLimited is an exported constant or variable used by the two-factor engine.
	ErrRecoveryCodeRateLimited = errors.New("recovery code rate limited")
	// ErrChallengeDisabled is an exported constant or variable used by the two-factor engine.
	ErrChallengeDisabled = errors.New("login challenge disabled")
	// ErrChallengeInvalid is an exported constant or variable used by the two-factor engine.
	ErrChallengeInvalid = errors.New("login challenge invalid")
	// ErrChallengeExpired is an exported constant or variable used by the two-factor engine.
	ErrChallengeExpired = errors.New("login challenge expired")
	// ErrChallengeAttemptsExceeded is an exported constant or variable used by the two-factor engine.
	ErrChallengeAttemptsExceeded = errors.New("login challenge attempts exceeded")
	// ErrChallengeUnavailable is an exported constant or variable used by the two-factor engine.
	ErrChallengeUnavailable = errors.New("login challenge backend unavailable")
)
