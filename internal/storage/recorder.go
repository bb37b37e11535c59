package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dyike/CapitalGo/internal/engine"
)

type recordKind int

const (
	recordReport recordKind = iota + 1
	recordFailure
)

type recordEvent struct {
	kind    recordKind
	cycleID string
	account string
	takenAt time.Time
	report  engine.Report
	err     error
}

// Recorder writes cycle outcomes to the journal on a background goroutine
// so a slow disk never delays a decision cycle.
type Recorder struct {
	store  *Store
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	events chan recordEvent
	wg     sync.WaitGroup
}

func NewRecorder(store *Store, logger *slog.Logger) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:  store,
		logger: logger,
		events: make(chan recordEvent, 64),
	}

	r.wg.Add(1)
	go r.loop()
	return r, nil
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	ctx := context.Background()
	for ev := range r.events {
		var err error
		switch ev.kind {
		case recordReport:
			err = r.handleReport(ctx, ev)
		case recordFailure:
			err = r.handleFailure(ctx, ev)
		}
		if err != nil {
			r.logger.Error("journal write failed", "cycle_id", ev.cycleID, "error", err)
		}
	}
}

func (r *Recorder) enqueue(ev recordEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.events <- ev
}

// RecordReport journals a completed cycle.
func (r *Recorder) RecordReport(cycleID string, report engine.Report) {
	r.enqueue(recordEvent{
		kind:    recordReport,
		cycleID: cycleID,
		account: report.Account,
		takenAt: report.TakenAt,
		report:  report,
	})
}

// RecordFailure journals a cycle that produced no report.
func (r *Recorder) RecordFailure(cycleID, account string, takenAt time.Time, err error) {
	r.enqueue(recordEvent{
		kind:    recordFailure,
		cycleID: cycleID,
		account: account,
		takenAt: takenAt,
		err:     err,
	})
}

// Close drains pending writes.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) handleReport(ctx context.Context, ev recordEvent) error {
	cycle, recs, err := CycleFromReport(ev.cycleID, ev.report)
	if err != nil {
		return err
	}
	return r.store.SaveCycle(ctx, cycle, recs)
}

func (r *Recorder) handleFailure(ctx context.Context, ev recordEvent) error {
	msg := "unknown error"
	if ev.err != nil {
		msg = ev.err.Error()
	}
	return r.store.SaveCycle(ctx, CycleRecord{
		ID:      ev.cycleID,
		Account: ev.account,
		TakenAt: ev.takenAt,
		Status:  StatusError,
		Error:   msg,
	}, nil)
}

// CycleFromReport flattens a report into journal rows. Recommendations keep
// the report order: fuel, reserve, then each sellable tradeable.
func CycleFromReport(cycleID string, report engine.Report) (CycleRecord, []RecommendationRecord, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return CycleRecord{}, nil, fmt.Errorf("marshal report: %w", err)
	}

	cycle := CycleRecord{
		ID:        cycleID,
		Account:   report.Account,
		TakenAt:   report.TakenAt,
		Status:    StatusDone,
		Liquidity: report.Fuel.Classification.Status.String(),
		Report:    string(body),
	}
	if report.Fuel.Recommendation != nil {
		cycle.FuelKind = string(report.Fuel.Recommendation.Kind())
	}
	if report.Reserve != nil {
		cycle.ReserveKind = string(report.Reserve.Kind())
	}

	var recs []RecommendationRecord
	for i, rec := range report.Recommendations() {
		if rec == nil {
			continue
		}
		detail, err := json.Marshal(rec)
		if err != nil {
			return CycleRecord{}, nil, fmt.Errorf("marshal %s: %w", rec.Kind(), err)
		}
		recs = append(recs, RecommendationRecord{
			CycleID:   cycleID,
			Seq:       i + 1,
			Component: componentOf(i),
			Kind:      string(rec.Kind()),
			Detail:    string(detail),
		})
	}
	return cycle, recs, nil
}

func componentOf(i int) string {
	switch i {
	case 0:
		return "fuel"
	case 1:
		return "reserve"
	default:
		return "tradeable"
	}
}
