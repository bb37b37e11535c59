package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dyike/CapitalGo/config"
	"github.com/dyike/CapitalGo/internal/cooldown"
	"github.com/dyike/CapitalGo/internal/engine"
	"github.com/dyike/CapitalGo/internal/logging"
	"github.com/dyike/CapitalGo/internal/metrics"
	"github.com/dyike/CapitalGo/internal/storage"
	"github.com/dyike/CapitalGo/models"
	"github.com/dyike/CapitalGo/pkg/dataflows"
	"github.com/google/uuid"
)

// app holds everything one invocation needs to run decision cycles.
type app struct {
	cfg       config.Config
	logger    *logging.Logger
	source    dataflows.MarketSource
	collector *dataflows.Collector
	store     *storage.Store
	recorder  *storage.Recorder
	tracker   *cooldown.Tracker
	metrics   *metrics.Metrics

	assets      models.AssetBook
	assetsReady bool
}

// cycleResult is what one cycle produced for the caller to show.
type cycleResult struct {
	ID     string
	Report engine.Report
	// Deferred is the cooldown left on a fuel sale the tracker held back.
	Deferred time.Duration
	// CooldownErr is set when the cooldown could not be read; the fuel sale
	// is held back until it can.
	CooldownErr error
}


// newApp wires the data source, journal, cooldown and metrics for cfg.
// Journal and cooldown persistence are skipped when cfg.DBPath is empty.
func newApp(cfg config.Config, logger *logging.Logger, source dataflows.MarketSource) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		metrics: metrics.New(),
	}
	a.collector = dataflows.NewCollector(source,
		dataflows.WithDepth(cfg.BookDepth),
		dataflows.WithCollectorLogger(logger.Logger))

	var trackerOpts []cooldown.Option
	if cfg.DBPath != "" {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		recorder, err := storage.NewRecorder(store, logger.Logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.store = store
		a.recorder = recorder
		trackerOpts = append(trackerOpts, cooldown.WithStore(store))
	}
	a.tracker = cooldown.New(cfg.Cooldown(), trackerOpts...)
	return a, nil
}

func (a *app) Close() error {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// setConfig swaps the policy and symbols used by later cycles.
func (a *app) setConfig(cfg config.Config) {
	a.cfg = cfg
	a.assetsReady = false
	a.tracker.SetPeriod(cfg.Cooldown())
}

func (a *app) cooldownKey() string {
	return cooldown.Key(a.cfg.Account, models.NormalizeSymbol(a.cfg.FuelSymbol))
}

func (a *app) resolveAssets(ctx context.Context) models.AssetBook {
	if !a.assetsReady {
		a.assets = a.collector.ResolvePrecision(ctx, a.cfg.Assets())
		a.assetsReady = true
	}
	return a.assets
}

// runCycle collects a snapshot and evaluates it. When markSale is set a
// fuel sale outside the cooldown starts a new cooldown.
func (a *app) runCycle(ctx context.Context, markSale bool) (*cycleResult, error) {
	id := uuid.NewString()
	log := a.logger.With("cycle_id", id)
	start := time.Now()

	assets := a.resolveAssets(ctx)
	snap, err := a.collector.Collect(ctx, a.cfg.Account, assets)
	if err != nil {
		a.metrics.CycleError()
		if a.recorder != nil {
			a.recorder.RecordFailure(id, a.cfg.Account, start.UTC(), err)
		}
		log.Error("cycle failed", "error", err)
		return nil, err
	}

	report := engine.Evaluate(snap, assets, a.cfg.Policy)
	res := &cycleResult{ID: id, Report: report}

	plan := report.Fuel
	log.Info("liquidity classified",
		"status", plan.Classification.Status.String(),
		"urgency", plan.Classification.Urgency,
		"balance", plan.Classification.Balance.String(),
		"fuel_decision", string(plan.Recommendation.Kind()))
	if plan.Override {
		log.Warn("critical override: fuel priced below minimum",
			"price", plan.Walk.TopOrder.Price.String(),
			"min_price", a.cfg.Policy.MinFuelPrice.String())
	}
	if plan.Sizing.Shortfall {
		log.Warn("fuel above reserve floor cannot cover the target",
			"needed", plan.Sizing.FuelNeeded.String(),
			"available", plan.Sizing.FuelAvailable.String())
	}

	if engine.IsFuelSale(plan.Recommendation) {
		key := a.cooldownKey()
		left, err := a.tracker.Remaining(ctx, key)
		switch {
		case err != nil:
			// without the last sale time the sale cannot be cleared
			res.CooldownErr = err
			a.metrics.CooldownBlocked()
			log.Error("fuel sale deferred: cooldown lookup failed", "error", err)
		case left > 0:
			res.Deferred = left
			a.metrics.CooldownBlocked()
			log.Info("fuel sale deferred by cooldown", "remaining", left.String())
		case markSale:
			if err := a.tracker.MarkSold(ctx, key); err != nil {
				log.Error("cooldown update failed", "error", err)
			}
		}
	}

	a.metrics.ObserveReport(report, time.Since(start))
	if a.recorder != nil {
		a.recorder.RecordReport(id, report)
	}
	log.Debug("cycle complete", "took", time.Since(start).String())
	return res, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	return newJSONEncoder(w).Encode(v)
}
