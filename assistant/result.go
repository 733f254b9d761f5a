package assistant

// Urgency classifies how quickly the described situation needs professional
// attention.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// FallbackServiceID is the ServiceUsed value when every backend was skipped
// or failed and the static response was returned instead.
const FallbackServiceID = "fallback"

// Result is the fully post-processed coordinator output. Process never
// returns an error; a degraded Result with ServiceUsed set to
// [FallbackServiceID] stands in for total failure.
type Result struct {
	// RequestID correlates this result with logs.
	RequestID string `json:"request_id"`

	// Text is the response body with safety warnings already applied.
	Text string `json:"text"`

	// ConfidenceScore is the heuristic confidence in [0.10, 0.95].
	ConfidenceScore float64 `json:"confidence_score"`

	// UrgencyLevel is derived from keyword scanning of the response text.
	UrgencyLevel Urgency `json:"urgency_level"`

	// SafetyWarnings lists the warnings and disclaimers attached to Text,
	// in the order they were applied.
	SafetyWarnings []string `json:"safety_warnings"`

	// ServiceUsed is the ID of the backend that produced Text.
	ServiceUsed string `json:"service_used"`

	// FallbackUsed is true whenever Text did not come from the first
	// backend in the chain.
	FallbackUsed bool `json:"fallback_used"`

	// Errors maps backend IDs to the reason each was skipped or failed
	// before the winning backend answered.
	Errors map[string]string `json:"errors,omitempty"`

	// Diagnoses holds extracted differential diagnoses, primary first.
	// Only populated by ProcessDifferential.
	Diagnoses []string `json:"diagnoses,omitempty"`

	// RecommendedTests holds test names recognized in the response.
	// Only populated by ProcessDifferential.
	RecommendedTests []string `json:"recommended_tests,omitempty"`
}
