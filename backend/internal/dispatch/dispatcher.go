package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/metrics"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
)

var (
	// ErrResourceNotFound is returned for an unknown resource ID
	ErrResourceNotFound = errors.New("emergency resource not found")
	// ErrWrongChannel is returned when a resource cannot serve the requested channel
	ErrWrongChannel = errors.New("emergency resource does not support this channel")
)

// Directory is the resource lookup the dispatcher needs
type Directory interface {
	Get(id string) (resources.Resource, bool)
	Primary(resourceType string) (resources.Resource, bool)
}

// CallResult reports the outcome of an emergency call attempt
type CallResult struct {
	Success          bool   `json:"success"`
	FallbackProvided bool   `json:"fallback_provided"`
	FallbackID       string `json:"fallback_id,omitempty"`
}

// Dispatcher connects a person to emergency resources
type Dispatcher struct {
	directory Directory
	launcher  Launcher
	breaker   *CircuitBreaker
	logger    *log.Logger
}

// NewDispatcher creates a dispatcher. A nil breaker disables circuit breaking.
func NewDispatcher(directory Directory, launcher Launcher, breaker *CircuitBreaker, logger *log.Logger) *Dispatcher {
	if breaker == nil {
		breaker = NewCircuitBreaker(CircuitBreakerConfig{})
	}
	return &Dispatcher{
		directory: directory,
		launcher:  launcher,
		breaker:   breaker,
		logger:    logger,
	}
}

// CallEmergencyService dials a voice resource. If the dial fails, the
// highest-priority text line is opened instead.
func (d *Dispatcher) CallEmergencyService(ctx context.Context, resourceID string) (CallResult, error) {
	res, err := d.lookup(resourceID, resources.TypeVoice)
	if err != nil {
		return CallResult{}, err
	}

	err = d.open(ctx, TelURI(res))
	if err == nil {
		metrics.RecordDispatch(resources.TypeVoice, "success")
		d.logInfo("Call started: %s", res.ID)
		return CallResult{Success: true}, nil
	}
	metrics.RecordDispatch(resources.TypeVoice, "failure")
	d.logError("Call to %s failed: %v", res.ID, err)

	alt, ok := d.directory.Primary(resources.TypeText)
	if !ok {
		return CallResult{}, nil
	}
	if err := d.open(ctx, SMSURI(alt)); err != nil {
		metrics.RecordDispatch(resources.TypeText, "failure")
		d.logError("Fallback text line %s failed: %v", alt.ID, err)
		return CallResult{}, nil
	}

	metrics.RecordDispatch(resources.TypeText, "fallback")
	d.logInfo("Offered text line %s after failed call", alt.ID)
	return CallResult{FallbackProvided: true, FallbackID: alt.ID}, nil
}

// StartTextSupport opens an SMS composer prefilled with the resource keyword
func (d *Dispatcher) StartTextSupport(ctx context.Context, resourceID string) error {
	res, err := d.lookup(resourceID, resources.TypeText)
	if err != nil {
		return err
	}

	if err := d.open(ctx, SMSURI(res)); err != nil {
		metrics.RecordDispatch(resources.TypeText, "failure")
		return fmt.Errorf("start text support %s: %w", res.ID, err)
	}
	metrics.RecordDispatch(resources.TypeText, "success")
	d.logInfo("Text support started: %s", res.ID)
	return nil
}

// Breaker exposes the circuit breaker for status reporting
func (d *Dispatcher) Breaker() *CircuitBreaker {
	return d.breaker
}

func (d *Dispatcher) lookup(id, channel string) (resources.Resource, error) {
	res, ok := d.directory.Get(id)
	if !ok {
		return resources.Resource{}, fmt.Errorf("%w: %s", ErrResourceNotFound, id)
	}
	if res.Type != channel {
		return resources.Resource{}, fmt.Errorf("%w: %s is %s", ErrWrongChannel, id, res.Type)
	}
	return res, nil
}

func (d *Dispatcher) open(ctx context.Context, uri string) error {
	return d.breaker.Execute(func() error {
		return d.launcher.Open(ctx, uri)
	})
}

// TelURI builds the dial URI for a resource
func TelURI(r resources.Resource) string {
	return "tel:" + r.Number
}

// SMSURI builds the SMS composer URI for a resource
func SMSURI(r resources.Resource) string {
	if r.Keyword == "" {
		return "sms:" + r.Number
	}
	return "sms:" + r.Number + "?body=" + url.QueryEscape(r.Keyword)
}

// logging helpers
func (d *Dispatcher) logInfo(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf("[INFO] "+format, args...)
	}
}

func (d *Dispatcher) logError(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf("[ERROR] "+format, args...)
	}
}
