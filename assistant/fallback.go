package assistant

// fallbackText is returned when every backend in the chain was skipped or
// failed. It deliberately commits to nothing beyond seeking professional
// care.
const fallbackText = "The AI assistant is temporarily unable to process your question. " +
	"For any health concern, please consult a qualified healthcare provider. " +
	"If symptoms are severe or rapidly worsening, seek immediate medical attention."

// fallbackConfidence is the fixed confidence of the static response.
const fallbackConfidence = 0.30

// fallbackResult builds the degraded Result used when the chain is
// exhausted. Urgency is pinned high because the coordinator cannot assess
// the situation at all.
func fallbackResult(requestID string, errs map[string]string, lex Lexicon) *Result {
	text, warnings := applySafety(fallbackText, lex)
	return &Result{
		RequestID:       requestID,
		Text:            text,
		ConfidenceScore: fallbackConfidence,
		UrgencyLevel:    UrgencyHigh,
		SafetyWarnings:  warnings,
		ServiceUsed:     FallbackServiceID,
		FallbackUsed:    true,
		Errors:          errs,
	}
}
