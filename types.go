package medcore

import (
	"context"
	"time"
)

// CredentialProvider is the primary interface that callers must implement to
// connect the two-factor engine to their user storage. All mutations are
// assumed atomic per user; in particular [CredentialProvider.ConsumeRecoveryCode]
// must be compare-and-delete so a recovery code can never be redeemed twice.
type CredentialProvider interface {
	// GetTwoFactor returns the user's two-factor credential, or a credential
	// with a nil Secret when two-factor has never been set up. It returns an
	// error only when the store itself fails or the user does not exist.
	GetTwoFactor(ctx context.Context, userID string) (*TwoFactorRecord, error)

	// SetTwoFactorSecret stores a freshly generated pending secret, replacing
	// any prior unconfirmed secret and clearing the confirmation timestamp.
	SetTwoFactorSecret(ctx context.Context, userID string, secret []byte) error

	// ConfirmTwoFactor records the confirmation timestamp, moving the
	// credential from pending to active.
	ConfirmTwoFactor(ctx context.Context, userID string, at time.Time) error

	// DisableTwoFactor clears the secret, all recovery codes, and the
	// confirmation timestamp in one atomic operation.
	DisableTwoFactor(ctx context.Context, userID string) error

	// GetRecoveryCodes returns the hashes of the user's unused recovery codes.
	GetRecoveryCodes(ctx context.Context, userID string) ([]RecoveryCodeRecord, error)

	// ReplaceRecoveryCodes replaces the stored recovery-code set wholesale.
	// Codes from any earlier batch must no longer verify afterwards.
	ReplaceRecoveryCodes(ctx context.Context, userID string, codes []RecoveryCodeRecord) error

	// ConsumeRecoveryCode atomically removes the recovery code with the given
	// hash. It returns true only when the code existed and was removed by this
	// call.
	ConsumeRecoveryCode(ctx context.Context, userID string, codeHash [32]byte) (bool, error)
}

// TwoFactorRecord is retrieved from [CredentialProvider.GetTwoFactor]. It
// carries the credential state machine: Secret nil means unset, Secret set
// with ConfirmedAt nil means pending, both set means active.
type TwoFactorRecord struct {
	// AccountLabel is the human-readable account name (usually the email)
	// embedded in the otpauth enrollment URI.
	AccountLabel string

	// Secret is the raw shared secret. Nil when two-factor is not set up.
	Secret []byte

	// ConfirmedAt is non-nil once the user has proven possession of the
	// secret by submitting a valid code. Enforcement at login only applies
	// to confirmed credentials.
	ConfirmedAt *time.Time
}

// Active reports whether the credential is confirmed and enforced.
func (r *TwoFactorRecord) Active() bool {
	return r != nil && len(r.Secret) > 0 && r.ConfirmedAt != nil
}

// RecoveryCodeRecord is the hash-at-rest form of a single recovery code.
// Plaintext codes are returned to the caller exactly once at generation time
// and never stored.
type RecoveryCodeRecord struct {
	Hash [32]byte
}

// TwoFactorSetup is the result of [Engine.GenerateTwoFactorSetup]: the
// Base32 secret to show alongside the QR code, and the otpauth:// URI the
// caller renders as that QR code.
type TwoFactorSetup struct {
	SecretBase32  string
	EnrollmentURI string
}
