package medcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChallengeRoundTrip(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))
	secret := enrollUser(t, engine, "u1")

	challengeID, err := engine.BeginLoginChallenge(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BeginLoginChallenge failed: %v", err)
	}
	if challengeID == "" {
		t.Fatal("expected a challenge id")
	}

	code := codeForNow(t, secret, engine.config.TwoFactor)
	userID, err := engine.CompleteLoginChallenge(context.Background(), challengeID, code)
	if err != nil {
		t.Fatalf("CompleteLoginChallenge failed: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected user u1, got %q", userID)
	}
}

func TestChallengeIsSingleUse(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))
	secret := enrollUser(t, engine, "u1")

	challengeID, err := engine.BeginLoginChallenge(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BeginLoginChallenge failed: %v", err)
	}

	code := codeForNow(t, secret, engine.config.TwoFactor)
	if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, code); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, code); !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid on reuse, got %v", err)
	}
}

func TestChallengeRequiresActiveCredential(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))

	if _, err := engine.BeginLoginChallenge(context.Background(), "u1"); !errors.Is(err, ErrTwoFactorNotConfigured) {
		t.Fatalf("expected ErrTwoFactorNotConfigured, got %v", err)
	}
}

func TestChallengeUnknownID(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))
	enrollUser(t, engine, "u1")

	if _, err := engine.CompleteLoginChallenge(context.Background(), "no-such-id", "123456"); !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid, got %v", err)
	}
}

func TestChallengeWrongCodeCountsAttempts(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Challenge.MaxAttempts = 3
	cfg.Limits.EnableVerifyThrottle = false
	engine, _ := newTestEngine(t, cfg, newMemoryProvider("u1"))
	secret := enrollUser(t, engine, "u1")

	challengeID, err := engine.BeginLoginChallenge(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BeginLoginChallenge failed: %v", err)
	}

	wrong := codeForOffset(t, secret, cfg.TwoFactor, 7)
	for i := 0; i < 2; i++ {
		if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, wrong); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i+1, err)
		}
	}

	if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, wrong); !errors.Is(err, ErrChallengeAttemptsExceeded) {
		t.Fatalf("expected ErrChallengeAttemptsExceeded, got %v", err)
	}

	// The exhausted challenge is gone; even the right code cannot revive it.
	good := codeForNow(t, secret, cfg.TwoFactor)
	if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, good); !errors.Is(err, ErrChallengeInvalid) {
		t.Fatalf("expected ErrChallengeInvalid after exhaustion, got %v", err)
	}
}

func TestChallengeExpires(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Challenge.TTL = 30 * time.Second
	engine, mr := newTestEngine(t, cfg, newMemoryProvider("u1"))
	secret := enrollUser(t, engine, "u1")

	challengeID, err := engine.BeginLoginChallenge(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BeginLoginChallenge failed: %v", err)
	}

	mr.FastForward(time.Minute)

	code := codeForNow(t, secret, cfg.TwoFactor)
	if _, err := engine.CompleteLoginChallenge(context.Background(), challengeID, code); !errors.Is(err, ErrChallengeInvalid) && !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected expired or invalid challenge, got %v", err)
	}
}

func TestChallengeDisabled(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Challenge.Enabled = false
	engine, _ := newTestEngine(t, cfg, newMemoryProvider("u1"))

	if _, err := engine.BeginLoginChallenge(context.Background(), "u1"); !errors.Is(err, ErrChallengeDisabled) {
		t.Fatalf("expected ErrChallengeDisabled, got %v", err)
	}
	if _, err := engine.CompleteLoginChallenge(context.Background(), "x", "123456"); !errors.Is(err, ErrChallengeDisabled) {
		t.Fatalf("expected ErrChallengeDisabled, got %v", err)
	}
}

func TestChallengeAcceptsRecoveryCode(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig(), newMemoryProvider("u1"))
	enrollUser(t, engine, "u1")

	codes, err := engine.GenerateRecoveryCodes(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GenerateRecoveryCodes failed: %v", err)
	}

	challengeID, err := engine.BeginLoginChallenge(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BeginLoginChallenge failed: %v", err)
	}

	userID, err := engine.CompleteLoginChallenge(context.Background(), challengeID, codes[0])
	if err != nil {
		t.Fatalf("expected recovery code to complete the challenge: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected user u1, got %q", userID)
	}
}
