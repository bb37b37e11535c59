package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dyike/CapitalGo/config"
	"github.com/dyike/CapitalGo/models"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// HiveEngineClient reads balances, market metrics and bid books from the
// Hive-Engine contracts RPC.
type HiveEngineClient struct {
	client *resty.Client
	rpcURL string
	cache  *tokenCache
	retry  *RetryConfig
	nextID atomic.Int64
}

// NewHiveEngineClient creates a client from cfg.
func NewHiveEngineClient(cfg *config.Config) *HiveEngineClient {
	client := resty.New()
	client.SetTimeout(cfg.RequestTimeout())
	client.SetHeader("Content-Type", "application/json")

	retry := DefaultRetryConfig()
	if cfg.MaxRetries >= 0 {
		retry.MaxRetries = cfg.MaxRetries
	}

	return &HiveEngineClient{
		client: client,
		rpcURL: cfg.RPCURL,
		cache:  newTokenCache(cacheDir(cfg), 24*time.Hour),
		retry:  retry,
	}
}

func cacheDir(cfg *config.Config) string {
	if !cfg.CacheEnabled || cfg.DataCacheDir == "" {
		return ""
	}
	return filepath.Join(cfg.DataCacheDir, "hive_engine")
}

// SetRetryConfig replaces the retry policy.
func (c *HiveEngineClient) SetRetryConfig(r *RetryConfig) {
	if r != nil {
		c.retry = r
	}
}

// call runs one JSON-RPC request and decodes its result into out. A null
// result leaves out untouched and reports found=false.
func (c *HiveEngineClient) call(ctx context.Context, method string, params rpcParams, out interface{}) (found bool, err error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	err = WithRetry(ctx, c.retry, func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(req).
			Post(c.rpcURL)
		if err != nil {
			if ctx.Err() != nil {
				return permanent(fmt.Errorf("%s.%s: %w", params.Contract, params.Table, err))
			}
			return fmt.Errorf("%s.%s: %w", params.Contract, params.Table, err)
		}
		if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
			return fmt.Errorf("%s.%s: API error %d: %s", params.Contract, params.Table, resp.StatusCode(), resp.String())
		}
		if resp.StatusCode() != 200 {
			return permanent(fmt.Errorf("%s.%s: API error %d: %s", params.Contract, params.Table, resp.StatusCode(), resp.String()))
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
			return permanent(fmt.Errorf("%s.%s: parse response: %w", params.Contract, params.Table, err))
		}
		if rpcResp.Error != nil {
			return permanent(fmt.Errorf("%s.%s: %w", params.Contract, params.Table, rpcResp.Error))
		}

		raw := strings.TrimSpace(string(rpcResp.Result))
		if raw == "" || raw == "null" {
			found = false
			return nil
		}
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return permanent(fmt.Errorf("%s.%s: parse result: %w", params.Contract, params.Table, err))
		}
		found = true
		return nil
	})
	return found, err
}

// GetBalance returns the liquid balance of symbol held by account. An
// account without a balance row holds zero.
func (c *HiveEngineClient) GetBalance(ctx context.Context, account, symbol string) (decimal.Decimal, error) {
	var rows []balanceRow
	_, err := c.call(ctx, "find", rpcParams{
		Contract: "tokens",
		Table:    "balances",
		Query:    map[string]interface{}{"account": account, "symbol": models.NormalizeSymbol(symbol)},
		Limit:    1,
	}, &rows)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance %s/%s: %w", account, symbol, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return parseAmount(rows[0].Balance)
}

// GetBalances returns every liquid balance held by account.
func (c *HiveEngineClient) GetBalances(ctx context.Context, account string) (models.BalanceSnapshot, error) {
	var rows []balanceRow
	_, err := c.call(ctx, "find", rpcParams{
		Contract: "tokens",
		Table:    "balances",
		Query:    map[string]interface{}{"account": account},
		Limit:    1000,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("balances %s: %w", account, err)
	}

	out := models.BalanceSnapshot{}
	for _, row := range rows {
		v, err := parseAmount(row.Balance)
		if err != nil {
			return nil, fmt.Errorf("balances %s: %s: %w", account, row.Symbol, err)
		}
		out[models.NormalizeSymbol(row.Symbol)] = v
	}
	return out, nil
}

// GetMarketPrice returns the metrics row for symbol, or nil when the market
// has none.
func (c *HiveEngineClient) GetMarketPrice(ctx context.Context, symbol string) (*models.MarketPrice, error) {
	symbol = models.NormalizeSymbol(symbol)
	var row metricsRow
	found, err := c.call(ctx, "findOne", rpcParams{
		Contract: "market",
		Table:    "metrics",
		Query:    map[string]interface{}{"symbol": symbol},
	}, &row)
	if err != nil {
		return nil, fmt.Errorf("metrics %s: %w", symbol, err)
	}
	if !found {
		return nil, nil
	}

	return &models.MarketPrice{
		Symbol:    symbol,
		LastPrice: parseOrZero(row.LastPrice),
		BestBid:   parseOrZero(row.HighestBid),
		BestAsk:   parseOrZero(row.LowestAsk),
		Volume:    parseOrZero(row.Volume),
	}, nil
}

// GetBuyOrders returns up to depth bids for symbol, best price first.
func (c *HiveEngineClient) GetBuyOrders(ctx context.Context, symbol string, depth int) (models.OrderBook, error) {
	symbol = models.NormalizeSymbol(symbol)
	var rows []bookRow
	_, err := c.call(ctx, "find", rpcParams{
		Contract: "market",
		Table:    "buyBook",
		Query:    map[string]interface{}{"symbol": symbol},
		Limit:    depth,
		Indexes:  []rpcIndex{{Index: "priceDec", Descending: true}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("buy book %s: %w", symbol, err)
	}

	book := make(models.OrderBook, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			continue
		}
		book = append(book, models.CounterOrder{
			Price:        price,
			Quantity:     qty,
			Counterparty: row.Account,
			TxID:         row.TxID,
		})
	}
	return book.Normalize(), nil
}

// GetPrecision returns the number of decimals symbol trades at. Results are
// cached for a day.
func (c *HiveEngineClient) GetPrecision(ctx context.Context, symbol string) (int32, error) {
	symbol = models.NormalizeSymbol(symbol)

	if cached, ok := c.cache.get(symbol); ok {
		return cached.Precision, nil
	}

	var row tokenRow
	found, err := c.call(ctx, "findOne", rpcParams{
		Contract: "tokens",
		Table:    "tokens",
		Query:    map[string]interface{}{"symbol": symbol},
	}, &row)
	if err != nil {
		return 0, fmt.Errorf("token %s: %w", symbol, err)
	}
	if !found {
		return 0, fmt.Errorf("token %s: not found", symbol)
	}

	_ = c.cache.put(symbol, row)
	return row.Precision, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

func parseOrZero(s string) decimal.Decimal {
	v, err := parseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
