package crisis

import (
	"strings"
	"time"
)

const preventionContext = "suicide prevention"

// Hits groups the phrases matched in each category
type Hits struct {
	Suicidal []string
	SelfHarm []string
	Crisis   []string
	Urgent   []string
}

// Keywords flattens the hits in category order without deduplication
func (h Hits) Keywords() []string {
	keywords := make([]string, 0, len(h.Suicidal)+len(h.SelfHarm)+len(h.Crisis)+len(h.Urgent))
	keywords = append(keywords, h.Suicidal...)
	keywords = append(keywords, h.SelfHarm...)
	keywords = append(keywords, h.Crisis...)
	keywords = append(keywords, h.Urgent...)
	return keywords
}

// Classifier scans free-form text for self-harm and suicide risk signals
// using case-insensitive substring matching.
type Classifier struct {
	phrases *PhraseSet
	now     func() time.Time
}

// Option configures a Classifier
type Option func(*Classifier)

// WithClock overrides the clock used to stamp assessments
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// NewClassifier creates a Classifier. A nil phrase set uses the defaults.
func NewClassifier(phrases *PhraseSet, opts ...Option) *Classifier {
	if phrases == nil {
		phrases = DefaultPhraseSet()
	}
	c := &Classifier{
		phrases: phrases.clone(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Match returns the phrases of each category found in the text
func (c *Classifier) Match(text string) Hits {
	normalized := strings.ToLower(text)
	return Hits{
		Suicidal: matchPhrases(normalized, c.phrases.Suicidal),
		SelfHarm: matchPhrases(normalized, c.phrases.SelfHarm),
		Crisis:   matchPhrases(normalized, c.phrases.Crisis),
		Urgent:   matchPhrases(normalized, c.phrases.Urgent),
	}
}

// Classify produces a RiskAssessment for text. It never fails; empty text
// is classified as no risk.
func (c *Classifier) Classify(text string) RiskAssessment {
	hits := c.Match(text)
	severity := resolveSeverity(hits)

	confidence := ConfidenceFor(severity)
	if Dampened(text) {
		confidence = min(confidence, 0.5)
	}

	return RiskAssessment{
		IsCrisis:   severity != SeverityNone,
		Severity:   severity,
		Keywords:   hits.Keywords(),
		RiskScore:  RiskScoreFor(severity),
		Confidence: confidence,
		Timestamp:  c.now().UTC().Format(TimestampLayout),
	}
}

// Dampened reports whether text reads as preventive or educational context
func Dampened(text string) bool {
	return strings.Contains(strings.ToLower(text), preventionContext)
}

// resolveSeverity applies the tier rules; the first matching rule wins
func resolveSeverity(h Hits) Severity {
	// 1. Direct suicidal or self-harm language
	if len(h.Suicidal) > 0 || len(h.SelfHarm) > 0 {
		return SeverityHigh
	}

	if len(h.Crisis) == 0 {
		return SeverityNone
	}

	// 2. Escalated crisis language
	if contains(h.Crisis, "overwhelming pain") && len(h.Urgent) > 0 {
		return SeverityHigh
	}
	if anyContains(h.Crisis, "plan to end it") {
		return SeverityHigh
	}
	if anyContains(h.Crisis, "no hope left") {
		return SeverityHigh
	}

	// 3. General distress
	return SeverityMedium
}

func matchPhrases(text string, phrases []string) []string {
	var hits []string
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			hits = append(hits, phrase)
		}
	}
	return hits
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func anyContains(list []string, substr string) bool {
	for _, v := range list {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}
