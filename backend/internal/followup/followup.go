package followup

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/metrics"
	"github.com/google/uuid"
)

// Status represents the state of a follow-up
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// DefaultRecommendation is used when neither the request nor the config names one
const DefaultRecommendation = "24h"

// Request asks for a check-in after a crisis
type Request struct {
	CrisisTimestamp     string `json:"crisis_timestamp"`
	RecommendedFollowUp string `json:"recommended_follow_up"`
}

// FollowUp is a scheduled check-in
type FollowUp struct {
	ID                  string     `json:"id"`
	CrisisTime          time.Time  `json:"crisis_time"`
	FollowUpTime        time.Time  `json:"follow_up_time"`
	ReminderSet         bool       `json:"reminder_set"`
	RecommendedFollowUp string     `json:"recommended_follow_up"`
	Status              Status     `json:"status"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// Notifier delivers reminders for scheduled follow-ups
type Notifier interface {
	// ScheduleReminder is called once when a follow-up is created
	ScheduleReminder(f FollowUp) error
	// OnExpired is called when a follow-up passes its grace window
	OnExpired(f FollowUp) error
}

// Config configures the follow-up manager
type Config struct {
	DefaultFollowUp string        // Go duration string, e.g. "24h"
	Grace           time.Duration // How long past FollowUpTime a follow-up stays pending
}

// Manager schedules and tracks follow-ups
type Manager struct {
	mu        sync.Mutex
	config    Config
	followUps map[string]*FollowUp
	notifier  Notifier
	logger    *log.Logger
	now       func() time.Time
}

// NewManager creates a follow-up manager. A nil notifier means no reminders are set.
func NewManager(config Config, notifier Notifier, logger *log.Logger) (*Manager, error) {
	if config.DefaultFollowUp == "" {
		config.DefaultFollowUp = DefaultRecommendation
	}
	if _, err := parseWindow(config.DefaultFollowUp); err != nil {
		return nil, err
	}
	if config.Grace == 0 {
		config.Grace = 12 * time.Hour
	}
	return &Manager{
		config:    config,
		followUps: make(map[string]*FollowUp),
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// ScheduleFollowUp creates a follow-up at crisis time plus the recommended window
func (m *Manager) ScheduleFollowUp(req Request) (*FollowUp, error) {
	crisisTime, err := time.Parse(time.RFC3339Nano, req.CrisisTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, req.CrisisTimestamp)
	}

	recommended := req.RecommendedFollowUp
	if recommended == "" {
		recommended = m.config.DefaultFollowUp
	}
	window, err := parseWindow(recommended)
	if err != nil {
		return nil, err
	}

	f := &FollowUp{
		ID:                  uuid.NewString(),
		CrisisTime:          crisisTime.UTC(),
		FollowUpTime:        crisisTime.UTC().Add(window),
		RecommendedFollowUp: recommended,
		Status:              StatusPending,
	}

	if m.notifier != nil {
		if err := m.notifier.ScheduleReminder(*f); err != nil {
			m.logError("Reminder for follow-up %s not set: %v", f.ID, err)
		} else {
			f.ReminderSet = true
		}
	}

	m.mu.Lock()
	m.followUps[f.ID] = f
	m.mu.Unlock()

	metrics.RecordFollowUp()
	m.logInfo("Follow-up %s scheduled for %s", f.ID, f.FollowUpTime.Format(time.RFC3339))

	out := *f
	return &out, nil
}

// Get retrieves a follow-up by ID, expiring it if its grace window has passed
func (m *Manager) Get(id string) (*FollowUp, bool) {
	m.mu.Lock()
	f, ok := m.followUps[id]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	expired := m.expireLocked(f, m.now())
	out := *f
	m.mu.Unlock()

	if expired {
		m.notifyExpired(out)
	}
	return &out, true
}

// Complete marks a pending follow-up as done
func (m *Manager) Complete(id string) (*FollowUp, error) {
	m.mu.Lock()
	f, ok := m.followUps[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	now := m.now()
	if m.expireLocked(f, now) {
		out := *f
		m.mu.Unlock()
		m.notifyExpired(out)
		return nil, ErrExpired
	}
	if f.Status != StatusPending {
		m.mu.Unlock()
		return nil, ErrInvalidStatus
	}

	completedAt := now.UTC()
	f.Status = StatusCompleted
	f.CompletedAt = &completedAt
	out := *f
	m.mu.Unlock()

	m.logInfo("Follow-up %s completed", id)
	return &out, nil
}

// Due returns pending follow-ups whose time has come, oldest first.
// Follow-ups past their grace window are expired instead.
func (m *Manager) Due(now time.Time) []FollowUp {
	var due, expired []FollowUp

	m.mu.Lock()
	for _, f := range m.followUps {
		if m.expireLocked(f, now) {
			expired = append(expired, *f)
			continue
		}
		if f.Status == StatusPending && !now.Before(f.FollowUpTime) {
			due = append(due, *f)
		}
	}
	m.mu.Unlock()

	for _, f := range expired {
		m.notifyExpired(f)
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].FollowUpTime.Equal(due[j].FollowUpTime) {
			return due[i].ID < due[j].ID
		}
		return due[i].FollowUpTime.Before(due[j].FollowUpTime)
	})
	return due
}

// expireLocked reports whether f transitioned to expired. Caller holds m.mu.
func (m *Manager) expireLocked(f *FollowUp, now time.Time) bool {
	if f.Status != StatusPending {
		return false
	}
	if now.After(f.FollowUpTime.Add(m.config.Grace)) {
		f.Status = StatusExpired
		return true
	}
	return false
}

func (m *Manager) notifyExpired(f FollowUp) {
	m.logInfo("Follow-up %s expired", f.ID)
	if m.notifier == nil {
		return
	}
	if err := m.notifier.OnExpired(f); err != nil {
		m.logError("Expiry notification for %s failed: %v", f.ID, err)
	}
}

func parseWindow(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
	return d, nil
}

// LogNotifier writes reminders to a logger
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) ScheduleReminder(f FollowUp) error {
	if n.Logger != nil {
		n.Logger.Printf("[INFO] Reminder set for %s at %s", f.ID, f.FollowUpTime.Format(time.RFC3339))
	}
	return nil
}

func (n LogNotifier) OnExpired(f FollowUp) error {
	if n.Logger != nil {
		n.Logger.Printf("[INFO] Follow-up %s missed", f.ID)
	}
	return nil
}

// Errors
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNotFound         = Error("follow-up not found")
	ErrInvalidStatus    = Error("follow-up is not pending")
	ErrExpired          = Error("follow-up has expired")
	ErrInvalidTimestamp = Error("invalid crisis timestamp")
	ErrInvalidWindow    = Error("invalid follow-up window")
)

// logging helpers
func (m *Manager) logInfo(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf("[INFO] "+format, args...)
	}
}

func (m *Manager) logError(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf("[ERROR] "+format, args...)
	}
}
