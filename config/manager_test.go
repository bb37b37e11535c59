package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/shopspring/decimal"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.Account = "angelicalist"
	cfg.Policy.TargetBalance = decimal.NewFromInt(40)

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.Account != "angelicalist" {
		t.Fatalf("expected account angelicalist, got %s", updated.Account)
	}
	if !updated.Policy.TargetBalance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected target 40, got %s", updated.Policy.TargetBalance)
	}

	reopened, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Get().Account != "angelicalist" {
		t.Fatalf("update was not persisted")
	}
}

func TestManagerRejectsMisconfiguredPolicy(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.Policy.CriticalBalance = cfg.Policy.MinBalance
	err = mgr.Update(cfg)
	if !errors.Is(err, engine.ErrMisconfiguredPolicy) {
		t.Fatalf("expected ErrMisconfiguredPolicy, got %v", err)
	}
	if mgr.Get().Policy.CriticalBalance.Equal(mgr.Get().Policy.MinBalance) {
		t.Fatalf("rejected config became current")
	}
}

func TestManagerFillsMissingKeysWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"account":"alice","fuel_symbol":"swap.blurt"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mgr, err := NewManager(WithConfigPath(path))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := mgr.Get()
	if cfg.Account != "alice" {
		t.Fatalf("expected alice, got %s", cfg.Account)
	}
	if cfg.BookDepth != 100 {
		t.Fatalf("expected default book depth, got %d", cfg.BookDepth)
	}
	if !cfg.Policy.SlippageBuffer.Equal(decimal.RequireFromString("1.1")) {
		t.Fatalf("expected default slippage, got %s", cfg.Policy.SlippageBuffer)
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.Account = "changed"
	raw, _ := json.MarshalIndent(cfg, "", "  ")
	if err := writeAtomic(mgr.Path(), raw); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.Account != "changed" {
			t.Fatalf("expected reloaded account, got %s", got.Account)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}

func TestManagerIgnoresBrokenEdit(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	before := mgr.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	called := make(chan struct{}, 1)
	if err := mgr.Watch(ctx, func(Config) { called <- struct{}{} }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := writeAtomic(mgr.Path(), []byte(`{"policy": {"critical_balance": `)); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	select {
	case <-called:
		t.Fatalf("broken config was applied")
	case <-time.After(300 * time.Millisecond):
	}
	if mgr.Get().Account != before.Account || mgr.Get().BookDepth != before.BookDepth {
		t.Fatalf("config changed after broken edit")
	}
}
