package dataflows

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dyike/CapitalGo/models"
	"golang.org/x/sync/errgroup"
)

// Collector assembles a Snapshot from a MarketSource. Balances are required;
// a missing price or book for one symbol only removes that symbol's market
// data.
type Collector struct {
	source      MarketSource
	depth       int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// WithDepth sets how many bids are read per symbol.
func WithDepth(depth int) CollectorOption {
	return func(c *Collector) {
		if depth > 0 {
			c.depth = depth
		}
	}
}

// WithConcurrency bounds the number of in-flight market requests.
func WithConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCollectorLogger sets the logger used for degraded symbols.
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCollector(source MarketSource, opts ...CollectorOption) *Collector {
	c := &Collector{
		source:      source,
		depth:       100,
		concurrency: 4,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect reads balances for account and market data for every market
// symbol in assets.
func (c *Collector) Collect(ctx context.Context, account string, assets models.AssetBook) (*models.Snapshot, error) {
	if account == "" {
		return nil, fmt.Errorf("account is required")
	}

	snap := models.NewSnapshot(account, c.now().UTC())

	balances, err := c.source.GetBalances(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("collect balances: %w", err)
	}
	for symbol, v := range balances {
		snap.Balances[models.NormalizeSymbol(symbol)] = v
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, symbol := range assets.MarketSymbols() {
		symbol := symbol
		g.Go(func() error {
			price, err := c.source.GetMarketPrice(gctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("market metrics unavailable", "symbol", symbol, "error", err)
				return nil
			}
			if price != nil {
				mu.Lock()
				snap.Prices[symbol] = price
				mu.Unlock()
			}
			return nil
		})
		g.Go(func() error {
			book, err := c.source.GetBuyOrders(gctx, symbol, c.depth)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("buy book unavailable", "symbol", symbol, "error", err)
				return nil
			}
			mu.Lock()
			snap.OrderBooks[symbol] = book.Normalize()
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect market data: %w", err)
	}

	c.logger.Debug("snapshot collected",
		"account", account,
		"balances", len(snap.Balances),
		"prices", len(snap.Prices),
		"books", len(snap.OrderBooks))
	return snap, nil
}

// ResolvePrecision fills assets.Precision for every market symbol the source
// can answer for. Lookup failures are logged and leave the symbol unrounded.
func (c *Collector) ResolvePrecision(ctx context.Context, assets models.AssetBook) models.AssetBook {
	ps, ok := c.source.(PrecisionSource)
	if !ok {
		return assets
	}

	out := assets
	out.Precision = make(map[string]int32, len(assets.Precision))
	for k, v := range assets.Precision {
		out.Precision[k] = v
	}
	for _, symbol := range assets.MarketSymbols() {
		if _, ok := out.Precision[symbol]; ok {
			continue
		}
		p, err := ps.GetPrecision(ctx, symbol)
		if err != nil {
			c.logger.Warn("token precision unavailable", "symbol", symbol, "error", err)
			continue
		}
		out.Precision[symbol] = p
	}
	return out
}
