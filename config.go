package medcore

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by medcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	TwoFactor TwoFactorConfig
	Challenge ChallengeConfig
	Limits    LimitsConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig defines a public type used by medcore APIs.
//
// TwoFactorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TwoFactorConfig struct {
	Enabled            bool
	Issuer             string
	Digits             int
	Period             int
	Algorithm          string
	Skew               int
	RecoveryCodeCount  int
	RecoveryCodeLength int
}

/*
====================================
LOGIN CHALLENGE CONFIG
====================================
*/

// ChallengeConfig defines a public type used by medcore APIs.
//
// ChallengeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeConfig struct {
	Enabled     bool
	TTL         time.Duration
	MaxAttempts int
}

/*
====================================
LIMITS CONFIG
====================================
*/

// LimitsConfig defines a public type used by medcore APIs.
//
// LimitsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LimitsConfig struct {
	EnableVerifyThrottle bool
	VerifyMaxAttempts    int
	VerifyCooldown       time.Duration
	RecoveryMaxAttempts  int
	RecoveryCooldown     time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by medcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by medcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		TwoFactor: TwoFactorConfig{
			Enabled:            false,
			Issuer:             "",
			Digits:             6,
			Period:             30,
			Algorithm:          "SHA1",
			Skew:               1,
			RecoveryCodeCount:  8,
			RecoveryCodeLength: 10,
		},
		Challenge: ChallengeConfig{
			Enabled:     false,
			TTL:         3 * time.Minute,
			MaxAttempts: 5,
		},
		Limits: LimitsConfig{
			EnableVerifyThrottle: true,
			VerifyMaxAttempts:    5,
			VerifyCooldown:       time.Minute,
			RecoveryMaxAttempts:  5,
			RecoveryCooldown:     10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.TwoFactor.Enabled {
		if c.TwoFactor.Issuer == "" {
			return errors.New("TwoFactor Issuer is required when TwoFactor is enabled")
		}
		if c.TwoFactor.Digits != 6 && c.TwoFactor.Digits != 8 {
			return errors.New("TwoFactor Digits must be 6 or 8")
		}
		if c.TwoFactor.Period < 15 {
			return errors.New("TwoFactor Period must be >= 15 seconds")
		}
		if c.TwoFactor.Skew < 0 {
			return errors.New("TwoFactor Skew must be >= 0")
		}
		if c.TwoFactor.RecoveryCodeCount <= 0 {
			return errors.New("TwoFactor RecoveryCodeCount must be > 0")
		}
		if c.TwoFactor.RecoveryCodeLength < 8 {
			return errors.New("TwoFactor RecoveryCodeLength must be >= 8")
		}
		switch strings.ToUpper(c.TwoFactor.Algorithm) {
		case "", "SHA1", "SHA256", "SHA512":
			// valid (empty treated as SHA1)
		default:
			return errors.New("TwoFactor Algorithm must be SHA1, SHA256, or SHA512")
		}
	}
	if c.Challenge.Enabled {
		if !c.TwoFactor.Enabled {
			return errors.New("Challenge requires TwoFactor Enabled")
		}
		if c.Challenge.TTL <= 0 {
			return errors.New("Challenge TTL must be > 0")
		}
		if c.Challenge.MaxAttempts <= 0 {
			return errors.New("Challenge MaxAttempts must be > 0")
		}
	}
	if c.Limits.EnableVerifyThrottle {
		if c.Limits.VerifyMaxAttempts <= 0 {
			return errors.New("Limits VerifyMaxAttempts must be > 0")
		}
		if c.Limits.VerifyCooldown <= 0 {
			return errors.New("Limits VerifyCooldown must be > 0")
		}
		if c.Limits.RecoveryMaxAttempts <= 0 {
			return errors.New("Limits RecoveryMaxAttempts must be > 0")
		}
		if c.Limits.RecoveryCooldown <= 0 {
			return errors.New("Limits RecoveryCooldown must be > 0")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
