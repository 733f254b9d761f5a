package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Config tunes coordinator behavior. The zero value is unusable; start from
// DefaultConfig.
type Config struct {
	// SendTimeout bounds a single backend call.
	SendTimeout time.Duration

	// AvailabilityTTL is how long a backend's Available answer is cached.
	AvailabilityTTL time.Duration

	// MinChatLength is the minimum acceptable response length for text
	// requests. Shorter responses fail quality validation.
	MinChatLength int

	// MinVisionLength is the minimum acceptable response length for image
	// requests.
	MinVisionLength int

	// Baselines maps backend IDs to their confidence baseline. Backends
	// absent from the map use DefaultBaseline.
	Baselines map[string]float64

	// DefaultBaseline is the confidence baseline for unlisted backends.
	DefaultBaseline float64

	// MaxDiagnoses caps the extracted differential list.
	MaxDiagnoses int
}

// DefaultConfig returns the standard coordinator tuning.
func DefaultConfig() Config {
	return Config{
		SendTimeout:     30 * time.Second,
		AvailabilityTTL: 30 * time.Second,
		MinChatLength:   50,
		MinVisionLength: 30,
		Baselines:       map[string]float64{},
		DefaultBaseline: 0.70,
		MaxDiagnoses:    8,
	}
}

// Coordinator routes requests across an ordered backend chain with fallback.
type Coordinator struct {
	chain       []Backend
	visionChain []Backend
	config      Config
	lexicon     Lexicon
	tests       []TestPattern
	avail       *availabilityCache
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Coordinator) {
		c.config = cfg
	}
}

// WithVisionChain sets a separate chain for image requests. Without it,
// ProcessImages walks the primary chain.
func WithVisionChain(chain []Backend) Option {
	return func(c *Coordinator) {
		c.visionChain = chain
	}
}

// WithLexicon replaces the heuristic keyword tables.
func WithLexicon(lex Lexicon) Option {
	return func(c *Coordinator) {
		c.lexicon = lex
	}
}

// WithTestPatterns replaces the recommended-test recognition table.
func WithTestPatterns(patterns []TestPattern) Option {
	return func(c *Coordinator) {
		c.tests = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator over the given backend chain. Chain
// order is priority order; the first healthy backend wins.
func NewCoordinator(chain []Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		chain:   chain,
		config:  DefaultConfig(),
		lexicon: DefaultLexicon(),
		tests:   DefaultTestPatterns(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.avail = newAvailabilityCache(c.config.AvailabilityTTL)
	return c
}

// Process answers a text request. It never returns an error: when the whole
// chain fails, the static fallback Result is returned with every failure
// recorded in Result.Errors.
func (c *Coordinator) Process(ctx context.Context, req Request) *Result {
	return c.run(ctx, c.chain, req, c.config.MinChatLength)
}

// ProcessImages answers a vision request over the vision chain (or the
// primary chain when none was configured).
func (c *Coordinator) ProcessImages(ctx context.Context, req Request) *Result {
	chain := c.visionChain
	if len(chain) == 0 {
		chain = c.chain
	}
	return c.run(ctx, chain, req, c.config.MinVisionLength)
}

// ProcessDifferential answers a text request and additionally extracts the
// differential diagnosis list and recommended tests from the raw response.
func (c *Coordinator) ProcessDifferential(ctx context.Context, req Request) *Result {
	result := c.run(ctx, c.chain, req, c.config.MinChatLength)
	if result.ServiceUsed == FallbackServiceID {
		return result
	}

	limit := c.config.MaxDiagnoses
	if limit <= 0 {
		limit = DefaultConfig().MaxDiagnoses
	}
	result.Diagnoses = extractDiagnoses(result.Text, limit)
	result.RecommendedTests = extractRecommendedTests(result.Text, c.tests)
	return result
}

func (c *Coordinator) run(ctx context.Context, chain []Backend, req Request, minLength int) *Result {
	requestID := uuid.New().String()
	errs := make(map[string]string)

	for i, backend := range chain {
		id := backend.ID()

		if !c.avail.Check(ctx, backend) {
			c.logger.Debug("backend not available, skipping", "request_id", requestID, "backend", id)
			errs[id] = reasonNotAvailable
			continue
		}

		if reporter, ok := backend.(QuotaReporter); ok {
			remaining, err := reporter.RemainingQuota(ctx)
			if err == nil && remaining <= 0 {
				c.logger.Debug("backend out of quota, skipping", "request_id", requestID, "backend", id)
				errs[id] = reasonRateLimited
				continue
			}
		}

		raw, err := c.send(ctx, backend, req)
		if err != nil {
			c.logger.Warn("backend failed, trying fallback",
				"request_id", requestID,
				"backend", id,
				"error", err)
			errs[id] = err.Error()
			c.avail.Invalidate(id)
			continue
		}

		if !c.validQuality(raw, minLength) {
			c.logger.Warn("backend response failed quality validation",
				"request_id", requestID,
				"backend", id,
				"length", len(raw.Text))
			errs[id] = reasonInvalidQuality
			continue
		}

		return c.finishResult(requestID, id, i > 0, raw.Text, errs)
	}

	c.logger.Error("all backends exhausted, returning static fallback",
		"request_id", requestID,
		"attempted", len(chain))
	return fallbackResult(requestID, errs, c.lexicon)
}

func (c *Coordinator) send(ctx context.Context, backend Backend, req Request) (*RawResponse, error) {
	sendCtx := ctx
	if c.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, c.config.SendTimeout)
		defer cancel()
	}
	return backend.Send(sendCtx, req)
}

// validQuality applies the response acceptance gate: strictly longer than the
// minimum for the request kind and free of embedded error markers.
func (c *Coordinator) validQuality(raw *RawResponse, minLength int) bool {
	if raw == nil {
		return false
	}
	text := raw.Text
	if len(text) <= minLength {
		return false
	}
	return !hasErrorMarker(text, c.lexicon)
}

func (c *Coordinator) finishResult(requestID, serviceID string, fellBack bool, text string, errs map[string]string) *Result {
	baseline := c.config.DefaultBaseline
	if b, ok := c.config.Baselines[serviceID]; ok {
		baseline = b
	}

	// Score and classify the raw text before the disclaimers are welded on,
	// so heuristics read what the backend actually said.
	confidence := confidenceScore(text, baseline, c.lexicon)
	urgency := urgencyLevel(text, c.lexicon)
	finalText, warnings := applySafety(text, c.lexicon)

	result := &Result{
		RequestID:       requestID,
		Text:            finalText,
		ConfidenceScore: confidence,
		UrgencyLevel:    urgency,
		SafetyWarnings:  warnings,
		ServiceUsed:     serviceID,
		FallbackUsed:    fellBack,
	}
	if len(errs) > 0 {
		result.Errors = errs
	}
	return result
}
