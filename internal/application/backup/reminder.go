package backup

import (
	"context"
	"sync"
	"time"
)

// Reminder decides when to nag the user about overdue backups. Dismissals
// are process-scoped: the reminder returns on the next run.
type Reminder struct {
	manager *Manager
	days    int

	mu        sync.Mutex
	dismissed bool
}

// NewReminder creates a reminder with the given nag interval in days.
func NewReminder(manager *Manager, days int) *Reminder {
	return &Reminder{
		manager: manager,
		days:    days,
	}
}

// ShouldRemind reports whether a backup reminder is due at now. A reminder is
// due when no backup was ever taken, or when the last one is older than the
// configured interval. Dismissed reminders stay quiet for the rest of the
// process.
func (r *Reminder) ShouldRemind(ctx context.Context, now time.Time) (bool, error) {
	r.mu.Lock()
	dismissed := r.dismissed
	r.mu.Unlock()
	if dismissed {
		return false, nil
	}

	last, ok, err := r.manager.LastBackupDate(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	age := now.Sub(last)
	return age >= time.Duration(r.days)*24*time.Hour, nil
}

// Dismiss silences the reminder for the rest of the process.
func (r *Reminder) Dismiss() {
	r.mu.Lock()
	r.dismissed = true
	r.mu.Unlock()
}
