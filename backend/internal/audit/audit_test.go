package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func highAssessment() crisis.RiskAssessment {
	return crisis.RiskAssessment{
		IsCrisis:   true,
		Severity:   crisis.SeverityHigh,
		Keywords:   []string{"kill myself", "tonight"},
		RiskScore:  0.9,
		Confidence: 0.9,
		Timestamp:  "2026-10-19T09:30:00.000Z",
	}
}

func TestAnonymize(t *testing.T) {
	payload := Payload{
		OriginalText: "I want to kill myself tonight, call me at 555-123-4567",
		UserID:       "user-42",
		Location:     "52.52,13.40",
		UserEmail:    "someone@example.com",
		PhoneNumber:  "555-123-4567",
	}

	tests := []struct {
		name       string
		assessment crisis.RiskAssessment
		payload    Payload
		keywords   []string
	}{
		{
			name:       "Keeps existing keywords",
			assessment: highAssessment(),
			payload:    payload,
			keywords:   []string{"kill myself", "tonight"},
		},
		{
			name:       "Derives up to five tokens when keywords are missing",
			assessment: crisis.RiskAssessment{Timestamp: "2026-10-19T09:30:00.000Z", Severity: crisis.SeverityNone},
			payload:    Payload{OriginalText: "I can't sleep, again... it's 3am and I'm tired"},
			keywords:   []string{"I", "can", "t", "sleep", "again"},
		},
		{
			name:       "Fewer tokens than the cap",
			assessment: crisis.RiskAssessment{Severity: crisis.SeverityNone},
			payload:    Payload{OriginalText: "so tired"},
			keywords:   []string{"so", "tired"},
		},
		{
			name:       "No text and no keywords",
			assessment: crisis.RiskAssessment{Severity: crisis.SeverityNone},
			payload:    Payload{UserID: "user-1"},
			keywords:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Anonymize(tt.assessment, tt.payload)
			assert.Equal(t, tt.keywords, rec.Keywords)
			assert.Equal(t, tt.assessment.Timestamp, rec.Timestamp)
			assert.Equal(t, tt.assessment.Severity, rec.Severity)
		})
	}
}

func TestAnonymizeDropsIdentifyingFields(t *testing.T) {
	payload := Payload{
		OriginalText: "secret text",
		UserID:       "user-42",
		Location:     "Berlin",
		UserEmail:    "someone@example.com",
		PhoneNumber:  "555-123-4567",
	}

	data, err := json.Marshal(Anonymize(highAssessment(), payload))
	require.NoError(t, err)

	for _, leaked := range []string{"secret text", "user-42", "Berlin", "someone@example.com", "555-123-4567",
		"original_text", "user_id", "location", "user_email", "phone_number"} {
		assert.NotContains(t, string(data), leaked)
	}
}

func TestAnonymizeDoesNotAliasKeywords(t *testing.T) {
	a := highAssessment()
	rec := Anonymize(a, Payload{})
	rec.Keywords[0] = "changed"
	assert.Equal(t, "kill myself", a.Keywords[0])
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewJSONLWriter(&buf), nil)

	require.NoError(t, l.LogCrisisEvent(context.Background(), highAssessment(), Payload{UserID: "user-42"}))
	require.NoError(t, l.LogCrisisEvent(context.Background(), highAssessment(), Payload{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, crisis.SeverityHigh, rec.Severity)
	assert.Equal(t, "2026-10-19T09:30:00.000Z", rec.Timestamp)
	assert.NotContains(t, lines[0], "user-42")
	require.NoError(t, l.Close())
}

func TestJSONLSinkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), Anonymize(highAssessment(), Payload{})))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"high"`)
}

type failingSink struct{}

func (failingSink) Write(context.Context, Record) error { return errors.New("disk full") }
func (failingSink) Close() error                        { return nil }

func TestLoggerPropagatesSinkError(t *testing.T) {
	l := NewLogger(failingSink{}, nil)
	err := l.LogCrisisEvent(context.Background(), highAssessment(), Payload{})
	assert.ErrorContains(t, err, "disk full")
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	older := highAssessment()
	newer := highAssessment()
	newer.Timestamp = "2026-10-19T10:00:00.000Z"
	newer.Severity = crisis.SeverityMedium
	newer.Keywords = []string{"hopeless"}

	l := NewLogger(store, nil)
	require.NoError(t, l.LogCrisisEvent(ctx, older, Payload{UserEmail: "someone@example.com"}))
	require.NoError(t, l.LogCrisisEvent(ctx, newer, Payload{}))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2026-10-19T10:00:00.000Z", records[0].Timestamp)
	assert.Equal(t, crisis.SeverityMedium, records[0].Severity)
	assert.Equal(t, []string{"hopeless"}, records[0].Keywords)
	assert.True(t, records[1].IsCrisis)
	assert.Equal(t, []string{"kill myself", "tonight"}, records[1].Keywords)

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
