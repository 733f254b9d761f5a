package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDiagnosesNumberedList(t *testing.T) {
	text := `Differential diagnosis:
1. Community-acquired pneumonia
2) Acute bronchitis
3. Pulmonary embolism`

	got := extractDiagnoses(text, 8)
	assert.Equal(t, []string{
		"Community-acquired pneumonia",
		"Acute bronchitis",
		"Pulmonary embolism",
	}, got)
}

func TestExtractDiagnosesBulletsAfterNumbered(t *testing.T) {
	text := `1. Pneumonia
- Tuberculosis
* Lung abscess`

	got := extractDiagnoses(text, 8)
	assert.Equal(t, []string{"Pneumonia", "Tuberculosis", "Lung abscess"}, got)
}

func TestExtractDiagnosesStripsExplanations(t *testing.T) {
	text := `1. Pneumonia - most likely given the productive cough
2. **Pulmonary embolism**: consider when pleuritic pain dominates`

	got := extractDiagnoses(text, 8)
	assert.Equal(t, []string{"Pneumonia", "Pulmonary embolism"}, got)
}

func TestExtractDiagnosesDeduplicates(t *testing.T) {
	text := `1. Pneumonia
2. pneumonia
- PNEUMONIA`

	got := extractDiagnoses(text, 8)
	assert.Equal(t, []string{"Pneumonia"}, got)
}

func TestExtractDiagnosesRespectsLimit(t *testing.T) {
	text := `1. A fib
2. B flutter
3. C block
4. D syndrome`

	got := extractDiagnoses(text, 2)
	assert.Len(t, got, 2)
}

func TestExtractDiagnosesEmptyText(t *testing.T) {
	assert.Empty(t, extractDiagnoses("No structured list here.", 8))
}

func TestExtractRecommendedTests(t *testing.T) {
	text := "Order a CBC, a chest X-ray, and blood cultures. An ECG rules out ischemia."

	got := extractRecommendedTests(text, DefaultTestPatterns())
	assert.Equal(t, []string{
		"complete blood count",
		"chest x-ray",
		"electrocardiogram",
		"blood culture",
	}, got)
}

func TestExtractRecommendedTestsNoMatches(t *testing.T) {
	got := extractRecommendedTests("Supportive care and rest.", DefaultTestPatterns())
	assert.Empty(t, got)
}

func TestExtractRecommendedTestsAlternatePhrasings(t *testing.T) {
	got := extractRecommendedTests("Check TSH and liver function tests; a CT scan if focal signs.", DefaultTestPatterns())
	assert.Equal(t, []string{
		"liver function tests",
		"thyroid panel",
		"ct scan",
	}, got)
}
