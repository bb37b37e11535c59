package engine

import (
	"github.com/dyike/CapitalGo/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Fill is the part of one counter-order a walk consumed.
type Fill struct {
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Counterparty string          `json:"counterparty,omitempty"`
}

// WalkResult describes a simulated sale against a bid book.
type WalkResult struct {
	Requested     decimal.Decimal      `json:"requested"`
	Remaining     decimal.Decimal      `json:"remaining"`
	Filled        bool                 `json:"filled"`
	TotalRevenue  decimal.Decimal      `json:"total_revenue"`
	AveragePrice  decimal.Decimal      `json:"average_price"`
	PercentFilled decimal.Decimal      `json:"percent_filled"`
	OrdersFilled  int                  `json:"orders_filled"`
	BookDepth     int                  `json:"book_depth"`
	TopOrder      *models.CounterOrder `json:"top_order,omitempty"`
	Fills         []Fill               `json:"fills,omitempty"`
}

// Consumed is the quantity the walk sold.
func (w WalkResult) Consumed() decimal.Decimal {
	return w.Requested.Sub(w.Remaining)
}

// WalkFullDepth sells quantity into book from the best price down until the
// quantity is exhausted or the book runs out.
func WalkFullDepth(book models.OrderBook, quantity decimal.Decimal) WalkResult {
	return walk(book.Normalize(), quantity)
}

// WalkTopOrder sells at most min(top.Quantity, available) into the single
// best-priced order. It never touches a second price level.
func WalkTopOrder(book models.OrderBook, available decimal.Decimal) WalkResult {
	book = book.Normalize()
	depth := len(book)
	if depth > 1 {
		book = book[:1]
	}
	w := walk(book, available)
	w.BookDepth = depth
	return w
}

func walk(book models.OrderBook, quantity decimal.Decimal) WalkResult {
	if quantity.IsNegative() {
		quantity = decimal.Zero
	}
	w := WalkResult{
		Requested: quantity,
		Remaining: quantity,
		BookDepth: len(book),
	}
	if top, ok := book.Top(); ok {
		w.TopOrder = &top
	}

	for _, order := range book {
		if !w.Remaining.IsPositive() {
			break
		}
		fill := decimal.Min(w.Remaining, order.Quantity)
		w.TotalRevenue = w.TotalRevenue.Add(fill.Mul(order.Price))
		w.Remaining = w.Remaining.Sub(fill)
		w.OrdersFilled++
		w.Fills = append(w.Fills, Fill{Price: order.Price, Quantity: fill, Counterparty: order.Counterparty})
	}

	if quantity.IsZero() {
		return w
	}
	w.Filled = w.Remaining.IsZero()
	w.AveragePrice = w.TotalRevenue.Div(quantity)
	w.PercentFilled = quantity.Sub(w.Remaining).Div(quantity).Mul(hundred)
	return w
}
