package ui

import (
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

const defaultToastTTL = 5 * time.Second

// Toast is a transient user-facing message.
type Toast struct {
	ID      int
	Level   Level
	Message string
	ShownAt time.Time
}

// Toaster keeps the set of currently visible toasts. Toasts stack without
// coalescing and auto-dismiss after the TTL. Server-supplied text is spliced
// into the page, so every message is sanitized before being stored.
type Toaster struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int
	active []Toast
	timers map[int]*time.Timer
	policy *bluemonday.Policy
}

// NewToaster builds a toaster; ttl <= 0 selects the 5 second default.
func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &Toaster{
		ttl:    ttl,
		timers: map[int]*time.Timer{},
		policy: bluemonday.StrictPolicy(),
	}
}

// Show adds a toast and schedules its dismissal.
func (t *Toaster) Show(level Level, message string) Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	toast := Toast{
		ID:      t.nextID,
		Level:   level,
		Message: t.policy.Sanitize(message),
		ShownAt: time.Now(),
	}
	t.active = append(t.active, toast)
	id := toast.ID
	t.timers[id] = time.AfterFunc(t.ttl, func() {
		t.Dismiss(id)
	})
	return toast
}

func (t *Toaster) Success(message string) Toast { return t.Show(LevelSuccess, message) }
func (t *Toaster) Info(message string) Toast    { return t.Show(LevelInfo, message) }
func (t *Toaster) Warning(message string) Toast { return t.Show(LevelWarning, message) }
func (t *Toaster) Danger(message string) Toast  { return t.Show(LevelDanger, message) }

// Dismiss removes a toast. Dismissing a toast that already expired is a
// no-op, so the timer firing after a manual dismissal is harmless.
func (t *Toaster) Dismiss(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	for i, toast := range t.active {
		if toast.ID == id {
			t.active = append(t.active[:i], t.active[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the visible toasts in display order.
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.active))
	copy(out, t.active)
	return out
}

// Close stops all pending dismissal timers.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.active = nil
}
