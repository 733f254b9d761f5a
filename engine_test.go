package medcore

import (
	"context"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func engineTestConfig() Config {
	cfg := defaultConfig()
	cfg.TwoFactor.Enabled = true
	cfg.TwoFactor.Issuer = "MedEd Labs"
	cfg.Challenge.Enabled = true
	return cfg
}

// memoryProvider is the in-memory CredentialProvider used across engine tests.
type memoryProvider struct {
	mu      sync.Mutex
	labels  map[string]string
	records map[string]*memoryCredential

	failGet     bool
	failConsume bool
}

type memoryCredential struct {
	secret      []byte
	confirmedAt *time.Time
	codes       map[[32]byte]struct{}
}

func newMemoryProvider(userIDs ...string) *memoryProvider {
	p := &memoryProvider{
		labels:  make(map[string]string),
		records: make(map[string]*memoryCredential),
	}
	for _, id := range userIDs {
		p.labels[id] = id + "@example.com"
	}
	return p
}

func (p *memoryProvider) GetTwoFactor(_ context.Context, userID string) (*TwoFactorRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failGet {
		return nil, fmt.Errorf("store down")
	}
	if _, known := p.labels[userID]; !known {
		return nil, fmt.Errorf("unknown user %s", userID)
	}
	record := &TwoFactorRecord{AccountLabel: p.labels[userID]}
	if stored, ok := p.records[userID]; ok {
		record.Secret = stored.secret
		record.ConfirmedAt = stored.confirmedAt
	}
	return record, nil
}

func (p *memoryProvider) SetTwoFactorSecret(_ context.Context, userID string, secret []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records[userID] = &memoryCredential{
		secret: secret,
		codes:  make(map[[32]byte]struct{}),
	}
	return nil
}

func (p *memoryProvider) ConfirmTwoFactor(_ context.Context, userID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.records[userID]
	if !ok {
		return fmt.Errorf("no pending secret for %s", userID)
	}
	stored.confirmedAt = &at
	return nil
}

func (p *memoryProvider) DisableTwoFactor(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.records, userID)
	return nil
}

func (p *memoryProvider) GetRecoveryCodes(_ context.Context, userID string) ([]RecoveryCodeRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.records[userID]
	if !ok {
		return nil, nil
	}
	out := make([]RecoveryCodeRecord, 0, len(stored.codes))
	for hash := range stored.codes {
		out = append(out, RecoveryCodeRecord{Hash: hash})
	}
	return out, nil
}

func (p *memoryProvider) ReplaceRecoveryCodes(_ context.Context, userID string, codes []RecoveryCodeRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.records[userID]
	if !ok {
		return fmt.Errorf("no credential for %s", userID)
	}
	stored.codes = make(map[[32]byte]struct{}, len(codes))
	for _, c := range codes {
		stored.codes[c.Hash] = struct{}{}
	}
	return nil
}

func (p *memoryProvider) ConsumeRecoveryCode(_ context.Context, userID string, codeHash [32]byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failConsume {
		return false, fmt.Errorf("store down")
	}
	stored, ok := p.records[userID]
	if !ok {
		return false, nil
	}
	if _, exists := stored.codes[codeHash]; !exists {
		return false, nil
	}
	delete(stored.codes, codeHash)
	return true, nil
}

func newTestEngine(t *testing.T, cfg Config, provider CredentialProvider) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mr
}

// enrollUser walks a user through setup and confirmation, returning the
// Base32 secret the authenticator app would hold.
func enrollUser(t *testing.T, engine *Engine, userID string) string {
	t.Helper()

	setup, err := engine.GenerateTwoFactorSetup(context.Background(), userID)
	if err != nil {
		t.Fatalf("GenerateTwoFactorSetup failed: %v", err)
	}
	code := codeForNow(t, setup.SecretBase32, engine.config.TwoFactor)
	if err := engine.ConfirmTwoFactor(context.Background(), userID, code); err != nil {
		t.Fatalf("ConfirmTwoFactor failed: %v", err)
	}
	return setup.SecretBase32
}

func codeForNow(t *testing.T, secret string, cfg TwoFactorConfig) string {
	t.Helper()
	return codeForOffset(t, secret, cfg, 0)
}

func codeForOffset(t *testing.T, secret string, cfg TwoFactorConfig, offset int64) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := (time.Now().Unix() / int64(cfg.Period)) + offset
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}
