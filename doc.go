// Package medcore provides the core security and intelligence engines of a
// medical-education platform: a TOTP two-factor authentication engine with
// single-use recovery codes, and (under the assistant sub-package) a
// multi-backend AI fallback coordinator.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// medcore is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (TwoFactorSetup, MetricsSnapshot, AuditEvent). Flow orchestration
// for recovery codes lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or hashing details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Decide HTTP status codes, render QR codes, or persist credentials itself;
//     persistence is the [CredentialProvider] implementor's job.
//
// # Consistency contract
//
// Recovery codes are single use. The Engine consumes them through
// [CredentialProvider.ConsumeRecoveryCode], which the store must implement
// with compare-and-delete semantics so that two concurrent verification
// attempts against the same code cannot both succeed.
package medcore
