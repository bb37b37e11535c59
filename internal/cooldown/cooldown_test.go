package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memStore struct {
	data map[string]time.Time
	err  error
}

func (m *memStore) LastSale(ctx context.Context, key string) (time.Time, bool, error) {
	if m.err != nil {
		return time.Time{}, false, m.err
	}
	at, ok := m.data[key]
	return at, ok, nil
}

func (m *memStore) SetLastSale(ctx context.Context, key string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = at
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestTracker_Cycle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := New(time.Hour, WithClock(clock.Now))
	key := Key("alice", "SWAP.BLURT")

	ready, err := tr.Ready(ctx, key)
	if err != nil || !ready {
		t.Fatalf("fresh tracker Ready = %v, %v", ready, err)
	}

	if err := tr.MarkSold(ctx, key); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	clock.t = clock.t.Add(20 * time.Minute)
	left, err := tr.Remaining(ctx, key)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if left != 40*time.Minute {
		t.Fatalf("remaining = %s, want 40m", left)
	}
	if ready, _ := tr.Ready(ctx, key); ready {
		t.Fatal("expected cooldown to block")
	}

	clock.t = clock.t.Add(40 * time.Minute)
	if ready, _ := tr.Ready(ctx, key); !ready {
		t.Fatal("expected cooldown to expire after the period")
	}

	if ready, _ := tr.Ready(ctx, Key("bob", "SWAP.BLURT")); !ready {
		t.Fatal("keys must not share a cooldown")
	}
}

func TestTracker_DefaultPeriod(t *testing.T) {
	if got := New(0).Period(); got != DefaultPeriod {
		t.Fatalf("period = %s, want %s", got, DefaultPeriod)
	}
}

func TestTracker_LoadsFromStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{data: map[string]time.Time{"alice/SWAP.BLURT": now.Add(-10 * time.Minute)}}
	tr := New(time.Hour, WithStore(store), WithClock(func() time.Time { return now }))

	left, err := tr.Remaining(ctx, "alice/SWAP.BLURT")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if left != 50*time.Minute {
		t.Fatalf("remaining = %s, want 50m", left)
	}

	if err := tr.MarkSold(ctx, "bob/SWAP.BLURT"); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	if !store.data["bob/SWAP.BLURT"].Equal(now) {
		t.Fatalf("store not updated: %v", store.data)
	}
}

func TestTracker_StoreErrors(t *testing.T) {
	ctx := context.Background()
	store := &memStore{data: map[string]time.Time{}, err: errors.New("disk full")}
	tr := New(time.Hour, WithStore(store))

	if _, err := tr.Ready(ctx, "k"); err == nil {
		t.Fatal("expected read error")
	}
	if err := tr.MarkSold(ctx, "k"); err == nil {
		t.Fatal("expected write error")
	}
	store.err = nil
	if ready, err := tr.Ready(ctx, "k"); err != nil || !ready {
		t.Fatalf("failed MarkSold must not start a cooldown: %v, %v", ready, err)
	}
}

func TestTracker_SetPeriod(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(time.Hour, WithClock(func() time.Time { return now }))
	if err := tr.MarkSold(ctx, "k"); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	now = now.Add(30 * time.Minute)

	tr.SetPeriod(20 * time.Minute)
	if ready, _ := tr.Ready(ctx, "k"); !ready {
		t.Fatal("shorter period should release the cooldown")
	}
	tr.SetPeriod(-1)
	if tr.Period() != DefaultPeriod {
		t.Fatalf("period = %s, want default", tr.Period())
	}
}
