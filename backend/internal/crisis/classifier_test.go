package crisis

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return NewClassifier(nil, WithClock(func() time.Time { return fixedNow }))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		severity   Severity
		keywords   []string
		riskScore  float64
		confidence float64
	}{
		{
			name:     "Empty input",
			input:    "",
			severity: SeverityNone,
			keywords: []string{},
		},
		{
			name:     "Neutral text",
			input:    "Had a nice walk with my dog this morning",
			severity: SeverityNone,
			keywords: []string{},
		},
		{
			name:       "Kill myself in mixed case",
			input:      "Sometimes I think I should just KILL MYSELF",
			severity:   SeverityHigh,
			keywords:   []string{"kill myself"},
			riskScore:  0.9,
			confidence: 0.9,
		},
		{
			name:       "Self harm phrase",
			input:      "I want to cut myself again",
			severity:   SeverityHigh,
			keywords:   []string{"cut myself"},
			riskScore:  0.9,
			confidence: 0.9,
		},
		{
			name:       "No hope alone is medium",
			input:      "I have no hope about this exam",
			severity:   SeverityMedium,
			keywords:   []string{"no hope"},
			riskScore:  0.6,
			confidence: 0.6,
		},
		{
			name:       "Overwhelming pain with urgent modifier",
			input:      "I feel overwhelming pain and I need help tonight",
			severity:   SeverityHigh,
			keywords:   []string{"overwhelming pain", "tonight"},
			riskScore:  0.9,
			confidence: 0.9,
		},
		{
			name:       "Overwhelming pain without urgent modifier",
			input:      "There is overwhelming pain in my chest",
			severity:   SeverityMedium,
			keywords:   []string{"overwhelming pain"},
			riskScore:  0.6,
			confidence: 0.6,
		},
		{
			name:       "Plan to end it overlaps with urgent plan to",
			input:      "I have a plan to end it",
			severity:   SeverityHigh,
			keywords:   []string{"plan to end it", "plan to"},
			riskScore:  0.9,
			confidence: 0.9,
		},
		{
			name:       "No hope left also matches no hope",
			input:      "There is no hope left for me",
			severity:   SeverityHigh,
			keywords:   []string{"no hope", "no hope left"},
			riskScore:  0.9,
			confidence: 0.9,
		},
		{
			name:       "Substring match inside a longer word",
			input:      "I desperately need a break",
			severity:   SeverityMedium,
			keywords:   []string{"desperate"},
			riskScore:  0.6,
			confidence: 0.6,
		},
		{
			name:       "Urgent modifier alone is not a crisis",
			input:      "I am going to the gym today",
			severity:   SeverityNone,
			keywords:   []string{"today", "going to"},
			riskScore:  0,
			confidence: 0,
		},
		{
			name:       "Prevention context dampens confidence only",
			input:      "The suicide prevention hotline helped me",
			severity:   SeverityHigh,
			keywords:   []string{"suicide"},
			riskScore:  0.9,
			confidence: 0.5,
		},
		{
			name:       "Prevention context caps confidence alongside crisis hits",
			input:      "I read about suicide prevention and felt hopeless",
			severity:   SeverityHigh,
			keywords:   []string{"suicide", "hopeless"},
			riskScore:  0.9,
			confidence: 0.5,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.input)

			assert.Equal(t, tt.severity, result.Severity)
			assert.Equal(t, tt.severity != SeverityNone, result.IsCrisis)
			assert.Equal(t, tt.keywords, result.Keywords)
			assert.InDelta(t, tt.riskScore, result.RiskScore, 1e-9)
			assert.InDelta(t, tt.confidence, result.Confidence, 1e-9)
			assert.Equal(t, "2026-10-19T09:30:00.000Z", result.Timestamp)
		})
	}
}

func TestClassifyKeywordOrder(t *testing.T) {
	c := newTestClassifier()

	// Urgent and crisis phrases appear before the suicidal phrase in the text
	result := c.Classify("Tonight I feel hopeless and I might hurt myself, I want to die")

	assert.Equal(t, []string{"want to die", "hurt myself", "hopeless", "tonight"}, result.Keywords)
	assert.Equal(t, SeverityHigh, result.Severity)
}

func TestClassifyIsIdempotent(t *testing.T) {
	c := NewClassifier(nil)
	input := "I can't take it anymore, I feel trapped right now"

	first := c.Classify(input)
	second := c.Classify(input)

	assert.Equal(t, first.Severity, second.Severity)
	assert.Equal(t, first.Keywords, second.Keywords)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestClassifyConcurrent(t *testing.T) {
	c := newTestClassifier()
	inputs := []string{
		"i want to end my life",
		"feeling worthless",
		"just a normal day",
	}
	want := []Severity{SeverityHigh, SeverityMedium, SeverityNone}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx := i % len(inputs)
			assert.Equal(t, want[idx], c.Classify(inputs[idx]).Severity)
		}(i)
	}
	wg.Wait()
}

func TestClassifierCopiesPhraseSet(t *testing.T) {
	set := DefaultPhraseSet()
	c := NewClassifier(set)

	set.Suicidal[0] = "something else"

	assert.Equal(t, SeverityHigh, c.Classify("suicide").Severity)
}

func TestAssessmentTime(t *testing.T) {
	result := newTestClassifier().Classify("hello")

	ts, err := result.Time()
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixedNow))
}

func TestSeverityMappings(t *testing.T) {
	tests := []struct {
		severity Severity
		score    float64
	}{
		{SeverityHigh, 0.9},
		{SeverityMedium, 0.6},
		{SeverityLow, 0.3},
		{SeverityNone, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.score, RiskScoreFor(tt.severity))
			assert.Equal(t, tt.score, ConfidenceFor(tt.severity))
			assert.True(t, tt.severity.Valid())
		})
	}
	assert.False(t, Severity("critical").Valid())
}

func TestParsePhraseSet(t *testing.T) {
	doc := `
suicidal:
  - "  Want To Disappear "
  - ""
urgent:
  - right now
`
	set, err := ParsePhraseSet([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"want to disappear"}, set.Suicidal)
	assert.Equal(t, []string{"right now"}, set.Urgent)
	assert.Equal(t, DefaultPhraseSet().SelfHarm, set.SelfHarm)
	assert.Equal(t, DefaultPhraseSet().Crisis, set.Crisis)

	c := NewClassifier(set)
	result := c.Classify(strings.ToUpper("I want to disappear right now"))
	assert.Equal(t, SeverityHigh, result.Severity)
	assert.Equal(t, []string{"want to disappear", "right now"}, result.Keywords)
}

func TestParsePhraseSetErrors(t *testing.T) {
	_, err := ParsePhraseSet([]byte("suicidal: [unclosed"))
	assert.Error(t, err)

	_, err = ParsePhraseSet([]byte("suicidal: []\nself_harm: []\ncrisis: []\nurgent: []\n"))
	assert.Error(t, err)

	_, err = LoadPhraseSet("does/not/exist.yaml")
	assert.Error(t, err)
}
