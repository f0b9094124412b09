package ui

import (
	"sync"
	"time"
)

const copiedResetDelay = 2 * time.Second

// Clipboard abstracts the copy target so affiliate link copying works
// headlessly.
type Clipboard interface {
	Copy(text string) error
}

// MemoryClipboard stores the last copied text.
type MemoryClipboard struct {
	mu   sync.Mutex
	last string
}

func (m *MemoryClipboard) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = text
	return nil
}

// Last returns the most recently copied text.
func (m *MemoryClipboard) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// CopyStatus holds the transient "Copied!" label shown after a successful
// copy, reset after two seconds. Resetting after the status was already
// cleared is a no-op.
type CopyStatus struct {
	mu    sync.Mutex
	label string
	timer *time.Timer
	delay time.Duration
}

// NewCopyStatus builds a status with the standard reset delay.
func NewCopyStatus() *CopyStatus {
	return &CopyStatus{delay: copiedResetDelay}
}

// Mark sets the label and schedules the reset, replacing any pending timer.
func (s *CopyStatus) Mark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = "Copied!"
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.clear)
}

func (s *CopyStatus) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = ""
	s.timer = nil
}

// Label returns the current label, empty when idle.
func (s *CopyStatus) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}
