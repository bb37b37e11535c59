package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "capitalgo.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_SaveAndGetCycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)

	cycle := CycleRecord{ID: "c1", Account: "alice", TakenAt: at, Liquidity: "LOW", FuelKind: "sell_fuel_to_top_order", Report: `{}`}
	recs := []RecommendationRecord{
		{Seq: 1, Component: "fuel", Kind: "sell_fuel_to_top_order", Detail: `{"amount":"1"}`},
		{Seq: 2, Component: "reserve", Kind: "no_power_up"},
	}
	if err := s.SaveCycle(ctx, cycle, recs); err != nil {
		t.Fatalf("SaveCycle: %v", err)
	}

	got, err := s.GetCycle(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCycle: %v", err)
	}
	if got == nil {
		t.Fatal("cycle not found")
	}
	if got.Status != StatusDone || got.Account != "alice" || !got.TakenAt.Equal(at) {
		t.Fatalf("cycle = %+v", got.CycleRecord)
	}

	list, err := s.ListRecommendations(ctx, "c1")
	if err != nil {
		t.Fatalf("ListRecommendations: %v", err)
	}
	if len(list) != 2 || list[0].Component != "fuel" || list[1].Kind != "no_power_up" {
		t.Fatalf("recommendations = %+v", list)
	}

	// saving again replaces recommendations
	if err := s.SaveCycle(ctx, cycle, recs[:1]); err != nil {
		t.Fatalf("SaveCycle again: %v", err)
	}
	list, _ = s.ListRecommendations(ctx, "c1")
	if len(list) != 1 {
		t.Fatalf("recommendations after resave = %d, want 1", len(list))
	}
}

func TestStore_GetCycleMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetCycle(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetCycle: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestStore_ListCyclesNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.SaveCycle(ctx, CycleRecord{ID: id, Account: "alice", TakenAt: time.Now()}, nil); err != nil {
			t.Fatalf("SaveCycle %s: %v", id, err)
		}
	}

	page, err := s.ListCycles(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListCycles: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Fatalf("first page = %+v", page)
	}
	next, err := s.ListCycles(ctx, page[1].RowID, 2)
	if err != nil {
		t.Fatalf("ListCycles next: %v", err)
	}
	if len(next) != 1 || next[0].ID != "a" {
		t.Fatalf("second page = %+v", next)
	}
}

func TestStore_MarkCycleStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveCycle(ctx, CycleRecord{ID: "c1", Account: "alice", TakenAt: time.Now(), Status: StatusRunning}, nil); err != nil {
		t.Fatalf("SaveCycle: %v", err)
	}
	if err := s.MarkCycleStatus(ctx, "c1", StatusError, "rpc down"); err != nil {
		t.Fatalf("MarkCycleStatus: %v", err)
	}
	got, _ := s.GetCycle(ctx, "c1")
	if got.Status != StatusError || got.Error != "rpc down" {
		t.Fatalf("cycle = %+v", got.CycleRecord)
	}
}

func TestStore_LastSale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.LastSale(ctx, "alice/SWAP.BLURT"); err != nil || ok {
		t.Fatalf("LastSale on empty store = %v, %v", ok, err)
	}

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastSale(ctx, "alice/SWAP.BLURT", at); err != nil {
		t.Fatalf("SetLastSale: %v", err)
	}
	later := at.Add(time.Hour)
	if err := s.SetLastSale(ctx, "alice/SWAP.BLURT", later); err != nil {
		t.Fatalf("SetLastSale again: %v", err)
	}

	got, ok, err := s.LastSale(ctx, "alice/SWAP.BLURT")
	if err != nil || !ok {
		t.Fatalf("LastSale = %v, %v", ok, err)
	}
	if !got.Equal(later) {
		t.Fatalf("LastSale = %s, want %s", got, later)
	}
}
