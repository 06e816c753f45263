package crisis

import "time"

// Severity is the coarse risk tier assigned to a piece of text
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low" // mapped but never produced by the rule set
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// TimestampLayout is the ISO-8601 layout used for assessment timestamps
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RiskAssessment is the result of classifying one block of text
type RiskAssessment struct {
	IsCrisis   bool     `json:"isCrisis"`
	Severity   Severity `json:"severity"`
	Keywords   []string `json:"keywords"`
	RiskScore  float64  `json:"riskScore"`
	Confidence float64  `json:"confidence"`
	Timestamp  string   `json:"timestamp"`
}

// Time parses the assessment timestamp
func (a RiskAssessment) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, a.Timestamp)
}

// RiskScoreFor maps a severity tier to its risk score
func RiskScoreFor(s Severity) float64 {
	switch s {
	case SeverityHigh:
		return 0.9
	case SeverityMedium:
		return 0.6
	case SeverityLow:
		return 0.3
	default:
		return 0
	}
}

// ConfidenceFor maps a severity tier to its base confidence
func ConfidenceFor(s Severity) float64 {
	switch s {
	case SeverityHigh:
		return 0.9
	case SeverityMedium:
		return 0.6
	case SeverityLow:
		return 0.3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known tiers
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}
