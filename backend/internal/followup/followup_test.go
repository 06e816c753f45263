package followup

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	reminders []string
	expired   []string
	err       error
}

func (n *recordingNotifier) ScheduleReminder(f FollowUp) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reminders = append(n.reminders, f.ID)
	return nil
}

func (n *recordingNotifier) OnExpired(f FollowUp) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, f.ID)
	return nil
}

func newManager(t *testing.T, n Notifier) *Manager {
	t.Helper()
	m, err := NewManager(Config{Grace: time.Hour}, n, nil)
	require.NoError(t, err)
	return m
}

func TestScheduleFollowUp(t *testing.T) {
	crisis := "2026-10-19T09:30:00.000Z"
	base := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		req          Request
		notifier     Notifier
		wantTime     time.Time
		wantWindow   string
		wantReminder bool
	}{
		{
			name:       "Explicit window",
			req:        Request{CrisisTimestamp: crisis, RecommendedFollowUp: "72h"},
			wantTime:   base.Add(72 * time.Hour),
			wantWindow: "72h",
		},
		{
			name:       "Default window",
			req:        Request{CrisisTimestamp: crisis},
			wantTime:   base.Add(24 * time.Hour),
			wantWindow: "24h",
		},
		{
			name:         "Reminder set when notifier accepts",
			req:          Request{CrisisTimestamp: crisis, RecommendedFollowUp: "2h"},
			notifier:     &recordingNotifier{},
			wantTime:     base.Add(2 * time.Hour),
			wantWindow:   "2h",
			wantReminder: true,
		},
		{
			name:       "Reminder not set when notifier fails",
			req:        Request{CrisisTimestamp: crisis, RecommendedFollowUp: "2h"},
			notifier:   &recordingNotifier{err: errors.New("push service down")},
			wantTime:   base.Add(2 * time.Hour),
			wantWindow: "2h",
		},
		{
			name:       "Offset timestamps are normalised to UTC",
			req:        Request{CrisisTimestamp: "2026-10-19T11:30:00+02:00", RecommendedFollowUp: "1h"},
			wantTime:   base.Add(time.Hour),
			wantWindow: "1h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, tt.notifier)
			f, err := m.ScheduleFollowUp(tt.req)
			require.NoError(t, err)

			assert.NotEmpty(t, f.ID)
			assert.True(t, tt.wantTime.Equal(f.FollowUpTime), "follow-up time %s", f.FollowUpTime)
			assert.Equal(t, time.UTC, f.FollowUpTime.Location())
			assert.Equal(t, tt.wantWindow, f.RecommendedFollowUp)
			assert.Equal(t, tt.wantReminder, f.ReminderSet)
			assert.Equal(t, StatusPending, f.Status)
		})
	}
}

func TestScheduleFollowUpErrors(t *testing.T) {
	m := newManager(t, nil)

	_, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidTimestamp)

	_, err = m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "soon"})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "-1h"})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewManager(Config{DefaultFollowUp: "often"}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestFollowUpLifecycle(t *testing.T) {
	n := &recordingNotifier{}
	m := newManager(t, n)
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	first, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "1h"})
	require.NoError(t, err)
	second, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "3h"})
	require.NoError(t, err)

	assert.Empty(t, m.Due(now))

	due := m.Due(now.Add(90 * time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, first.ID, due[0].ID)

	done, err := m.Complete(first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = m.Complete(first.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// second is due at 12:30 and expires after 13:30
	now = now.Add(5 * time.Hour)
	got, ok := m.Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, StatusExpired, got.Status)
	assert.Equal(t, []string{second.ID}, n.expired)

	_, err = m.Complete(second.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = m.Complete("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestCompleteAfterGraceExpires(t *testing.T) {
	m := newManager(t, nil)
	f, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "1h"})
	require.NoError(t, err)

	m.now = func() time.Time { return f.FollowUpTime.Add(2 * time.Hour) }
	_, err = m.Complete(f.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestDueExpiresStaleFollowUps(t *testing.T) {
	n := &recordingNotifier{}
	m := newManager(t, n)
	f, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z", RecommendedFollowUp: "1h"})
	require.NoError(t, err)

	assert.Empty(t, m.Due(f.FollowUpTime.Add(3*time.Hour)))
	assert.Equal(t, []string{f.ID}, n.expired)
}

func TestReturnedFollowUpIsACopy(t *testing.T) {
	m := newManager(t, nil)
	f, err := m.ScheduleFollowUp(Request{CrisisTimestamp: "2026-10-19T09:30:00Z"})
	require.NoError(t, err)

	m.now = func() time.Time { return f.CrisisTime }
	f.Status = StatusCompleted
	got, ok := m.Get(f.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
}
