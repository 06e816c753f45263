package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
)

// Sink persists anonymized crisis records
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Logger anonymizes crisis assessments and hands them to a Sink
type Logger struct {
	sink   Sink
	logger *log.Logger
}

// NewLogger creates a crisis event logger
func NewLogger(sink Sink, logger *log.Logger) *Logger {
	return &Logger{sink: sink, logger: logger}
}

// LogCrisisEvent scrubs the assessment and persists it keyed by its timestamp
func (l *Logger) LogCrisisEvent(ctx context.Context, a crisis.RiskAssessment, p Payload) error {
	rec := Anonymize(a, p)
	if err := l.sink.Write(ctx, rec); err != nil {
		l.logError("Failed to write crisis event %s: %v", rec.Timestamp, err)
		return fmt.Errorf("write crisis event: %w", err)
	}
	l.logInfo("Crisis event logged: %s severity=%s", rec.Timestamp, rec.Severity)
	return nil
}

// Close closes the underlying sink
func (l *Logger) Close() error {
	return l.sink.Close()
}

func (l *Logger) logInfo(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf("[INFO] "+format, args...)
	}
}

func (l *Logger) logError(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf("[ERROR] "+format, args...)
	}
}

// JSONLSink writes one JSON record per line
type JSONLSink struct {
	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	encoder *json.Encoder
}

// NewJSONLSink opens filePath for appending.
// If filePath is empty, records go to stdout.
func NewJSONLSink(filePath string) (*JSONLSink, error) {
	if filePath == "" {
		return NewJSONLWriter(os.Stdout), nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	s := NewJSONLWriter(file)
	s.closer = file
	return s, nil
}

// NewJSONLWriter wraps an arbitrary writer
func NewJSONLWriter(w io.Writer) *JSONLSink {
	return &JSONLSink{
		out:     w,
		encoder: json.NewEncoder(w),
	}
}

// Write appends a record
func (s *JSONLSink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(rec)
}

// Close closes the file, if the sink owns one
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
