package audit

import (
	"regexp"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
)

// maxDerivedKeywords caps the fallback keyword list taken from raw text
const maxDerivedKeywords = 5

var wordRegex = regexp.MustCompile(`\w+`)

// Payload carries the raw, identifying data that may accompany an assessment.
// None of these fields survive anonymization.
type Payload struct {
	OriginalText string `json:"original_text,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Location     string `json:"location,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
}

// Record is a privacy-scrubbed crisis event
type Record struct {
	Timestamp  string          `json:"timestamp"`
	IsCrisis   bool            `json:"is_crisis"`
	Severity   crisis.Severity `json:"severity"`
	RiskScore  float64         `json:"risk_score"`
	Confidence float64         `json:"confidence"`
	Keywords   []string        `json:"keywords"`
}

// Anonymize builds a Record from an assessment, dropping identifying fields.
// When the assessment carries no keywords, up to five word tokens from the
// raw text stand in for them.
func Anonymize(a crisis.RiskAssessment, p Payload) Record {
	keywords := append([]string(nil), a.Keywords...)
	if len(keywords) == 0 && p.OriginalText != "" {
		keywords = wordRegex.FindAllString(p.OriginalText, maxDerivedKeywords)
	}
	if keywords == nil {
		keywords = []string{}
	}

	return Record{
		Timestamp:  a.Timestamp,
		IsCrisis:   a.IsCrisis,
		Severity:   a.Severity,
		RiskScore:  a.RiskScore,
		Confidence: a.Confidence,
		Keywords:   keywords,
	}
}
