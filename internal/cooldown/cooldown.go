// Package cooldown spaces out fuel sales. The decision engine is stateless;
// callers ask the tracker before acting on a sale recommendation and mark
// the sale once it is placed.
package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultPeriod is the minimum gap between two fuel sales.
const DefaultPeriod = time.Hour

// Store persists the last sale time per key.
type Store interface {
	LastSale(ctx context.Context, key string) (time.Time, bool, error)
	SetLastSale(ctx context.Context, key string, at time.Time) error
}

type Tracker struct {
	mu     sync.Mutex
	period time.Duration
	store  Store
	now    func() time.Time
	last   map[string]time.Time
}

type Option func(*Tracker)

// WithStore persists sale times so the cooldown survives restarts.
func WithStore(s Store) Option {
	return func(t *Tracker) { t.store = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a tracker. A non-positive period falls back to DefaultPeriod.
func New(period time.Duration, opts ...Option) *Tracker {
	if period <= 0 {
		period = DefaultPeriod
	}
	t := &Tracker{
		period: period,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key identifies the cooldown for one account selling one fuel token.
func Key(account, symbol string) string {
	return account + "/" + symbol
}

func (t *Tracker) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// SetPeriod changes the gap for later checks. Sales already marked are
// measured against the new period.
func (t *Tracker) SetPeriod(period time.Duration) {
	if period <= 0 {
		period = DefaultPeriod
	}
	t.mu.Lock()
	t.period = period
	t.mu.Unlock()
}

// Remaining returns how long until key may sell again, zero when ready.
func (t *Tracker) Remaining(ctx context.Context, key string) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok, err := t.lastLocked(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	left := t.period - t.now().Sub(last)
	if left < 0 {
		return 0, nil
	}
	return left, nil
}

// Ready reports whether key is outside its cooldown.
func (t *Tracker) Ready(ctx context.Context, key string) (bool, error) {
	left, err := t.Remaining(ctx, key)
	if err != nil {
		return false, err
	}
	return left == 0, nil
}

// MarkSold starts a new cooldown for key.
func (t *Tracker) MarkSold(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	at := t.now()
	if t.store != nil {
		if err := t.store.SetLastSale(ctx, key, at); err != nil {
			return fmt.Errorf("cooldown %s: %w", key, err)
		}
	}
	t.last[key] = at
	return nil
}

func (t *Tracker) lastLocked(ctx context.Context, key string) (time.Time, bool, error) {
	if at, ok := t.last[key]; ok {
		return at, true, nil
	}
	if t.store == nil {
		return time.Time{}, false, nil
	}
	at, ok, err := t.store.LastSale(ctx, key)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cooldown %s: %w", key, err)
	}
	if ok {
		t.last[key] = at
	}
	return at, ok, nil
}
