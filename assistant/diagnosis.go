package assistant

import (
	"regexp"
	"strings"
)

// Differential responses follow a loose convention: primary diagnoses come as
// a numbered list, secondary considerations as bullet points. Both are
// extracted, deduplicated case-insensitively, and capped.
var (
	numberedItemRe = regexp.MustCompile(`(?m)^\s*\d{1,2}[.)]\s+(.+)$`)
	bulletItemRe   = regexp.MustCompile(`(?m)^\s*[-*•]\s+(.+)$`)
)

// TestPattern recognizes one category of recommended diagnostic test in free
// text.
type TestPattern struct {
	// Name is the canonical test name recorded in Result.RecommendedTests.
	Name string

	// Pattern matches any phrasing of the test in the response.
	Pattern *regexp.Regexp
}

// DefaultTestPatterns returns the standard recognition table for common
// diagnostic tests.
func DefaultTestPatterns() []TestPattern {
	return []TestPattern{
		{Name: "complete blood count", Pattern: regexp.MustCompile(`(?i)\b(complete blood count|cbc)\b`)},
		{Name: "basic metabolic panel", Pattern: regexp.MustCompile(`(?i)\b(basic metabolic panel|bmp)\b`)},
		{Name: "liver function tests", Pattern: regexp.MustCompile(`(?i)\b(liver function tests?|lfts?)\b`)},
		{Name: "thyroid panel", Pattern: regexp.MustCompile(`(?i)\b(thyroid (panel|function)|tsh)\b`)},
		{Name: "chest x-ray", Pattern: regexp.MustCompile(`(?i)\bchest x-?ray\b`)},
		{Name: "ct scan", Pattern: regexp.MustCompile(`(?i)\bct (scan|imaging)\b`)},
		{Name: "mri", Pattern: regexp.MustCompile(`(?i)\bmri\b`)},
		{Name: "electrocardiogram", Pattern: regexp.MustCompile(`(?i)\b(electrocardiogram|ecg|ekg)\b`)},
		{Name: "urinalysis", Pattern: regexp.MustCompile(`(?i)\burinalysis\b`)},
		{Name: "blood culture", Pattern: regexp.MustCompile(`(?i)\bblood cultures?\b`)},
	}
}

// extractDiagnoses pulls differential diagnoses out of the response text.
// Numbered items rank before bullets, duplicates collapse onto the first
// occurrence, and the list is capped at limit.
func extractDiagnoses(text string, limit int) []string {
	var out []string
	seen := map[string]bool{}

	add := func(matches [][]string) {
		for _, m := range matches {
			if len(out) >= limit {
				return
			}
			item := cleanDiagnosisItem(m[1])
			if item == "" {
				continue
			}
			key := strings.ToLower(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}

	add(numberedItemRe.FindAllStringSubmatch(text, -1))
	add(bulletItemRe.FindAllStringSubmatch(text, -1))

	return out
}

// cleanDiagnosisItem strips markdown emphasis and trailing explanation from a
// single list item, keeping only the diagnosis name.
func cleanDiagnosisItem(item string) string {
	s := strings.TrimSpace(item)
	s = strings.Trim(s, "*_")

	// "Pneumonia - most likely given..." or "Pneumonia: consider when..."
	for _, sep := range []string{" - ", " – ", ": "} {
		if idx := strings.Index(s, sep); idx > 0 {
			s = s[:idx]
			break
		}
	}

	// Emphasis can close right before the separator ("**Pneumonia**: ...").
	return strings.Trim(strings.TrimSpace(s), "*_")
}

// extractRecommendedTests scans the response for tests the patterns
// recognize, preserving table order and deduplicating.
func extractRecommendedTests(text string, patterns []TestPattern) []string {
	var out []string
	for _, p := range patterns {
		if p.Pattern.MatchString(text) {
			out = append(out, p.Name)
		}
	}
	return out
}
