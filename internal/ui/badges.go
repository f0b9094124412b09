package ui

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/gateway"
)

// Badge names used by the storefront header.
const (
	BadgeCart     = "cart"
	BadgeWishlist = "wishlist"
)

// Badges holds the live header counters (cart size, wishlist size). Counts
// are refreshed from a registry of count endpoints injected by configuration
// and patched in place when mutations report a new value.
type Badges struct {
	mu       sync.Mutex
	counts   map[string]int
	registry map[string]string
	gw       *gateway.Client
	log      *zap.Logger
}

// NewBadges builds the counter set. registry maps badge name to the count
// endpoint path; a nil client or empty registry leaves Refresh a no-op.
func NewBadges(gw *gateway.Client, registry map[string]string, log *zap.Logger) *Badges {
	if log == nil {
		log = zap.NewNop()
	}
	return &Badges{
		counts:   map[string]int{},
		registry: registry,
		gw:       gw,
		log:      log,
	}
}

// Refresh fetches every registered count endpoint. Failures are logged and
// otherwise silent; the previous count is kept.
func (b *Badges) Refresh(ctx context.Context) {
	if b.gw == nil {
		b.log.Debug("badge refresh skipped: no gateway client")
		return
	}
	for name, path := range b.registry {
		if path == "" {
			b.log.Debug("badge refresh skipped: no endpoint", zap.String("badge", name))
			continue
		}
		var payload struct {
			Count int `json:"count"`
		}
		if err := b.gw.GetJSON(ctx, path, nil, &payload); err != nil {
			b.log.Debug("badge refresh failed", zap.String("badge", name), zap.Error(err))
			continue
		}
		b.Set(name, payload.Count)
	}
}

// Set replaces a counter value.
func (b *Badges) Set(name string, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[name] = count
}

// Count returns the current value for a badge, zero when never set.
func (b *Badges) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[name]
}
