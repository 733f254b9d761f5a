package internaldefs

import (
	medcore "github.com/mededlabs/medcore"
)

// CounterDef defines a public type used by medcore APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   medcore.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by medcore APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   medcore.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the two-factor engine.
var CounterDefs = []CounterDef{
	{ID: medcore.MetricSetupRequested, Name: "medcore_twofactor_setup_requested_total", Help: "Two-factor setup requests."},
	{ID: medcore.MetricTwoFactorConfirmed, Name: "medcore_twofactor_confirmed_total", Help: "Two-factor confirmations."},
	{ID: medcore.MetricTwoFactorDisabled, Name: "medcore_twofactor_disabled_total", Help: "Two-factor disable operations."},
	{ID: medcore.MetricCodeVerifySuccess, Name: "medcore_code_verify_success_total", Help: "Successful code verifications."},
	{ID: medcore.MetricCodeVerifyFailure, Name: "medcore_code_verify_failure_total", Help: "Failed code verifications."},
	{ID: medcore.MetricCodeVerifyRateLimited, Name: "medcore_code_verify_rate_limited_total", Help: "Rate-limited code verifications."},
	{ID: medcore.MetricRecoveryCodeUsed, Name: "medcore_recovery_code_used_total", Help: "Successful recovery-code redemptions."},
	{ID: medcore.MetricRecoveryCodeFailed, Name: "medcore_recovery_code_failed_total", Help: "Failed recovery-code redemptions."},
	{ID: medcore.MetricRecoveryCodesReplaced, Name: "medcore_recovery_codes_replaced_total", Help: "Recovery-code batch replacements."},
	{ID: medcore.MetricChallengeIssued, Name: "medcore_challenge_issued_total", Help: "Issued login challenges."},
	{ID: medcore.MetricChallengeCompleted, Name: "medcore_challenge_completed_total", Help: "Completed login challenges."},
	{ID: medcore.MetricChallengeFailed, Name: "medcore_challenge_failed_total", Help: "Failed login challenge attempts."},
	{ID: medcore.MetricChallengeExpired, Name: "medcore_challenge_expired_total", Help: "Expired login challenges."},
}

// HistogramDefs is an exported constant or variable used by the two-factor engine.
var HistogramDefs = []HistogramDef{
	{ID: medcore.MetricVerifyLatency, Name: "medcore_verify_latency_seconds", Help: "Code verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the two-factor engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the two-factor engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
