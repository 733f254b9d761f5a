package assistant

import (
	"sort"
	"strings"
)

// Lexicon holds every keyword table the response heuristics consult. All
// matching is case-insensitive substring matching against the response text.
type Lexicon struct {
	// CertaintyTerms raise the confidence score.
	CertaintyTerms []string

	// HedgingTerms lower the confidence score.
	HedgingTerms []string

	// EmergencyTerms force UrgencyEmergency when present.
	EmergencyTerms []string

	// UrgentTerms force UrgencyHigh when present and no emergency term matched.
	UrgentTerms []string

	// WarningTriggers maps a trigger keyword to the warning prepended to the
	// response when the keyword appears.
	WarningTriggers map[string]string

	// Disclaimers are always appended to every response, triggered or not.
	Disclaimers []string

	// ErrorMarkers are substrings whose presence marks a backend response as
	// an embedded error rather than an answer.
	ErrorMarkers []string
}

// DefaultLexicon returns the standard heuristic tables for medical-education
// content.
func DefaultLexicon() Lexicon {
	return Lexicon{
		CertaintyTerms: []string{
			"definitely",
			"clearly",
			"confirmed",
			"established",
			"well-documented",
			"consistent with",
		},
		HedgingTerms: []string{
			"might",
			"may be",
			"could be",
			"possibly",
			"unclear",
			"uncertain",
			"cannot determine",
			"difficult to say",
			"not sure",
		},
		EmergencyTerms: []string{
			"emergency",
			"urgent",
			"call 911",
			"immediately",
			"life-threatening",
			"anaphylaxis",
			"cardiac arrest",
			"stroke",
		},
		UrgentTerms: []string{
			"as soon as possible",
			"within hours",
			"seek medical attention",
			"see a doctor",
			"consult a physician",
			"worsening",
			"within 24 hours",
		},
		WarningTriggers: map[string]string{
			"medication": "Warning: medication details are educational only; dosing decisions require a licensed prescriber.",
			"dosage":     "Warning: medication details are educational only; dosing decisions require a licensed prescriber.",
			"pregnancy":  "Warning: guidance during pregnancy must come from your obstetric care provider.",
			"pediatric":  "Warning: pediatric cases require evaluation by a qualified pediatric clinician.",
			"child":      "Warning: pediatric cases require evaluation by a qualified pediatric clinician.",
		},
		Disclaimers: []string{
			"This information is for educational purposes only and is not a substitute for professional medical advice.",
			"Always consult a qualified healthcare provider for diagnosis and treatment.",
			"If you believe you are experiencing a medical emergency, contact emergency services immediately.",
		},
		ErrorMarkers: []string{
			"internal error",
			"something went wrong",
			"as an ai",
			"i cannot help with",
			"error:",
		},
	}
}

// confidenceScore derives a heuristic confidence from the response language.
// Certainty terms add a small capped bonus, hedging terms a larger capped
// penalty, and the result is clamped to [0.10, 0.95].
func confidenceScore(text string, baseline float64, lex Lexicon) float64 {
	lower := strings.ToLower(text)

	bonus := 0.0
	for _, term := range lex.CertaintyTerms {
		bonus += 0.02 * float64(strings.Count(lower, term))
	}
	if bonus > 0.10 {
		bonus = 0.10
	}

	penalty := 0.0
	for _, term := range lex.HedgingTerms {
		penalty += 0.05 * float64(strings.Count(lower, term))
	}
	if penalty > 0.25 {
		penalty = 0.25
	}

	score := baseline + bonus - penalty
	if score < 0.10 {
		score = 0.10
	}
	if score > 0.95 {
		score = 0.95
	}
	return score
}

// urgencyLevel scans the response for emergency and urgent keywords.
// Emergency terms dominate urgent terms; no match means routine.
func urgencyLevel(text string, lex Lexicon) Urgency {
	lower := strings.ToLower(text)

	for _, term := range lex.EmergencyTerms {
		if strings.Contains(lower, term) {
			return UrgencyEmergency
		}
	}
	for _, term := range lex.UrgentTerms {
		if strings.Contains(lower, term) {
			return UrgencyHigh
		}
	}
	return UrgencyRoutine
}

// applySafety prepends every triggered warning and appends the standard
// disclaimers. It returns the rewritten text plus the warnings in the order
// applied.
func applySafety(text string, lex Lexicon) (string, []string) {
	lower := strings.ToLower(text)

	var triggered []string
	seen := map[string]bool{}
	for trigger, warning := range lex.WarningTriggers {
		if strings.Contains(lower, trigger) && !seen[warning] {
			seen[warning] = true
			triggered = append(triggered, warning)
		}
	}
	// Deterministic across map iteration order.
	sort.Strings(triggered)

	warnings := make([]string, 0, len(triggered)+len(lex.Disclaimers))
	warnings = append(warnings, triggered...)
	warnings = append(warnings, lex.Disclaimers...)

	var b strings.Builder
	for _, w := range triggered {
		b.WriteString(w)
		b.WriteString("\n\n")
	}
	b.WriteString(text)
	for _, d := range lex.Disclaimers {
		b.WriteString("\n\n")
		b.WriteString(d)
	}

	return b.String(), warnings
}

// hasErrorMarker reports whether the backend response embeds an error
// message instead of an answer.
func hasErrorMarker(text string, lex Lexicon) bool {
	lower := strings.ToLower(text)
	for _, marker := range lex.ErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
