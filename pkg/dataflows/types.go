package dataflows

import (
	"encoding/json"
	"fmt"
)

// rpcRequest is a Hive-Engine contracts JSON-RPC 2.0 call.
type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int64     `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Contract string                 `json:"contract"`
	Table    string                 `json:"table"`
	Query    map[string]interface{} `json:"query"`
	Limit    int                    `json:"limit,omitempty"`
	Offset   int                    `json:"offset,omitempty"`
	Indexes  []rpcIndex             `json:"indexes,omitempty"`
}

type rpcIndex struct {
	Index      string `json:"index"`
	Descending bool   `json:"descending"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// balanceRow is a tokens.balances row.
type balanceRow struct {
	Account string `json:"account"`
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
	Stake   string `json:"stake"`
}

// metricsRow is a market.metrics row.
type metricsRow struct {
	Symbol     string `json:"symbol"`
	Volume     string `json:"volume"`
	LastPrice  string `json:"lastPrice"`
	LowestAsk  string `json:"lowestAsk"`
	HighestBid string `json:"highestBid"`
}

// bookRow is a market.buyBook row.
type bookRow struct {
	TxID     string `json:"txId"`
	Account  string `json:"account"`
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// tokenRow is the subset of tokens.tokens the client reads.
type tokenRow struct {
	Symbol    string `json:"symbol"`
	Precision int32  `json:"precision"`
}
