package flows

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"strings"
)

// RecoveryCodeAlphabet deliberately omits the ambiguous characters I, O, 0,
// and 1 so codes survive being read aloud or copied by hand.
const RecoveryCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type RecoveryCodeRecord struct {
	Hash [32]byte
}

type RecoveryCodeMetrics struct {
	RecoveryCodeUsed      int
	RecoveryCodeFailed    int
	RecoveryCodesReplaced int
}

type RecoveryCodeEvents struct {
	RecoveryCodesGenerated string
	RecoveryCodeUsed       string
	RecoveryCodeFailed     string
}

type RecoveryCodeErrors struct {
	TwoFactorDisabled       error
	EngineNotReady          error
	UserNotFound            error
	RecoveryCodeUnavailable error
	RecoveryCodeInvalid     error
	RecoveryCodeRateLimited error
}

type RecoveryCodeDeps struct {
	Enabled            bool
	RecoveryCodeCount  int
	RecoveryCodeLength int

	UserExists        func(context.Context, string) error
	ReplaceCodes      func(context.Context, string, []RecoveryCodeRecord) error
	ConsumeCode       func(context.Context, string, [32]byte) (bool, error)
	VerifyCodeForUser func(context.Context, string, string) error

	CheckLimiter         func(context.Context, string) error
	RecordLimiterFailure func(context.Context, string) error
	ResetLimiter         func(context.Context, string) error
	IsRateLimited        func(error) bool

	RandomIndex func(int) (int, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics RecoveryCodeMetrics
	Events  RecoveryCodeEvents
	Errors  RecoveryCodeErrors
}

// RunGenerateRecoveryCodes issues a batch of recovery codes for a user.
// Any previously stored batch is replaced wholesale, never merged, so every
// call invalidates all earlier codes. Callers that want the replacement
// proof-gated use RunRegenerateRecoveryCodes instead.
func RunGenerateRecoveryCodes(ctx context.Context, userID string, deps RecoveryCodeDeps) ([]string, error) {
	normalizeRecoveryCodeDeps(&deps)

	if !deps.Enabled {
		return nil, deps.Errors.TwoFactorDisabled
	}
	if deps.UserExists == nil || deps.ReplaceCodes == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if userID == "" {
		return nil, deps.Errors.UserNotFound
	}

	if err := deps.UserExists(ctx, userID); err != nil {
		return nil, deps.Errors.UserNotFound
	}

	return runGenerateAndReplaceRecoveryCodes(ctx, userID, deps)
}

// RunRegenerateRecoveryCodes replaces the entire stored batch after the user
// has proven possession with a fresh TOTP code. The old batch is invalidated
// wholesale, never merged.
func RunRegenerateRecoveryCodes(ctx context.Context, userID, verifyCode string, deps RecoveryCodeDeps) ([]string, error) {
	normalizeRecoveryCodeDeps(&deps)

	if !deps.Enabled {
		return nil, deps.Errors.TwoFactorDisabled
	}
	if deps.UserExists == nil || deps.VerifyCodeForUser == nil || deps.ReplaceCodes == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if userID == "" {
		return nil, deps.Errors.UserNotFound
	}

	if err := deps.UserExists(ctx, userID); err != nil {
		return nil, deps.Errors.UserNotFound
	}
	if err := deps.VerifyCodeForUser(ctx, userID, verifyCode); err != nil {
		return nil, err
	}

	return runGenerateAndReplaceRecoveryCodes(ctx, userID, deps)
}

// RunConsumeRecoveryCode redeems a single recovery code. The consume callback
// must be atomic compare-and-delete; a code redeemed here never matches again.
func RunConsumeRecoveryCode(ctx context.Context, userID, code string, deps RecoveryCodeDeps) error {
	normalizeRecoveryCodeDeps(&deps)

	if deps.ConsumeCode == nil || deps.CheckLimiter == nil || deps.RecordLimiterFailure == nil || deps.ResetLimiter == nil {
		return deps.Errors.EngineNotReady
	}
	if userID == "" {
		return deps.Errors.UserNotFound
	}

	if err := deps.CheckLimiter(ctx, userID); err != nil {
		if deps.IsRateLimited(err) {
			return deps.Errors.RecoveryCodeRateLimited
		}
		return deps.Errors.RecoveryCodeUnavailable
	}

	canonical := CanonicalizeRecoveryCode(code)
	if canonical == "" {
		deps.MetricInc(deps.Metrics.RecoveryCodeFailed)
		if err := deps.RecordLimiterFailure(ctx, userID); err != nil {
			if deps.IsRateLimited(err) {
				return deps.Errors.RecoveryCodeRateLimited
			}
			return deps.Errors.RecoveryCodeUnavailable
		}
		return deps.Errors.RecoveryCodeInvalid
	}

	ok, err := deps.ConsumeCode(ctx, userID, RecoveryCodeHash(userID, canonical))
	if err != nil {
		return deps.Errors.RecoveryCodeUnavailable
	}
	if !ok {
		deps.MetricInc(deps.Metrics.RecoveryCodeFailed)
		deps.EmitAudit(ctx, deps.Events.RecoveryCodeFailed, false, userID, deps.Errors.RecoveryCodeInvalid, nil)
		if err := deps.RecordLimiterFailure(ctx, userID); err != nil {
			if deps.IsRateLimited(err) {
				return deps.Errors.RecoveryCodeRateLimited
			}
			return deps.Errors.RecoveryCodeUnavailable
		}
		return deps.Errors.RecoveryCodeInvalid
	}

	_ = deps.ResetLimiter(ctx, userID)
	deps.MetricInc(deps.Metrics.RecoveryCodeUsed)
	deps.EmitAudit(ctx, deps.Events.RecoveryCodeUsed, true, userID, nil, nil)
	return nil
}

func runGenerateAndReplaceRecoveryCodes(ctx context.Context, userID string, deps RecoveryCodeDeps) ([]string, error) {
	count := deps.RecoveryCodeCount
	length := deps.RecoveryCodeLength
	if count <= 0 || length <= 0 {
		return nil, deps.Errors.RecoveryCodeUnavailable
	}

	records := make([]RecoveryCodeRecord, 0, count)
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		raw, err := NewRecoveryCode(length, deps.RandomIndex)
		if err != nil {
			return nil, deps.Errors.RecoveryCodeUnavailable
		}
		canonical := CanonicalizeRecoveryCode(raw)
		records = append(records, RecoveryCodeRecord{Hash: RecoveryCodeHash(userID, canonical)})
		codes = append(codes, FormatRecoveryCode(raw))
	}

	if err := deps.ReplaceCodes(ctx, userID, records); err != nil {
		return nil, deps.Errors.RecoveryCodeUnavailable
	}

	deps.MetricInc(deps.Metrics.RecoveryCodesReplaced)
	deps.EmitAudit(ctx, deps.Events.RecoveryCodesGenerated, true, userID, nil, nil)
	return codes, nil
}

func NewRecoveryCode(length int, randomIndex func(int) (int, error)) (string, error) {
	if randomIndex == nil {
		randomIndex = cryptoRandomIndex
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := randomIndex(len(RecoveryCodeAlphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(RecoveryCodeAlphabet[n])
	}
	return b.String(), nil
}

func FormatRecoveryCode(code string) string {
	n := len(code)
	if n < 8 {
		return code
	}
	mid := n / 2
	return code[:mid] + "-" + code[mid:]
}

func CanonicalizeRecoveryCode(code string) string {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func RecoveryCodeHash(userID, canonicalCode string) [32]byte {
	data := make([]byte, 0, len(userID)+1+len(canonicalCode))
	data = append(data, userID...)
	data = append(data, 0)
	data = append(data, canonicalCode...)
	return sha256.Sum256(data)
}

func cryptoRandomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

func normalizeRecoveryCodeDeps(deps *RecoveryCodeDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.IsRateLimited == nil {
		deps.IsRateLimited = func(error) bool { return false }
	}
	if deps.RandomIndex == nil {
		deps.RandomIndex = cryptoRandomIndex
	}
}
