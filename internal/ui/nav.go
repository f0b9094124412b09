package ui

import (
	"net/url"
	"strings"
	"sync"
)

// Navigator receives page navigations. The concrete Location below is the
// headless stand-in for the browser location; tests can supply recorders.
type Navigator interface {
	Navigate(target string)
}

// Confirmer gates destructive actions. It returns true when the user accepts.
type Confirmer func(prompt string) bool

// ConfirmAll accepts every prompt.
func ConfirmAll(string) bool { return true }

// DenyAll declines every prompt.
func DenyAll(string) bool { return false }

// Location tracks the current path and query and applies navigations.
type Location struct {
	mu    sync.Mutex
	path  string
	query url.Values
	moves int
}

// NewLocation starts at the given path with no query.
func NewLocation(path string) *Location {
	if path == "" {
		path = "/"
	}
	return &Location{path: path, query: url.Values{}}
}

// Navigate parses the target and replaces the current path and query.
// A target without a path keeps the current one (query-only rewrite).
func (l *Location) Navigate(target string) {
	u, err := url.Parse(target)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if u.Path != "" {
		l.path = u.Path
	}
	l.query = u.Query()
	l.moves++
}

// Path returns the current path.
func (l *Location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Query returns a copy of the current query values.
func (l *Location) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := url.Values{}
	for k, vs := range l.query {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Moves counts navigations applied since creation.
func (l *Location) Moves() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moves
}

// String renders the location as path plus encoded query.
func (l *Location) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	b.WriteString(l.path)
	if enc := l.query.Encode(); enc != "" {
		b.WriteByte('?')
		b.WriteString(enc)
	}
	return b.String()
}
