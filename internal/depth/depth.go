// Package depth builds read-only order book depth snapshots. It is a
// non-mutating collaborator of internal/engine: nothing here writes to a
// book's ladders or directory, and it sits off the submit/cancel path.
package depth

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ironbook/internal/engine"
)

// Level is the aggregated view of one price level: the total remaining
// quantity resting there and how many orders make it up.
type Level struct {
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	OrderCount int
}

// Snapshot is a point-in-time view of both ladders of a book, best price
// first on each side.
type Snapshot struct {
	InstrumentID uuid.UUID
	Timestamp    time.Time
	Bids         []Level
	Asks         []Level
}

// Of builds a Snapshot from a book. If maxLevels > 0, each side is
// truncated to that many price levels (best prices first); a maxLevels of
// 0 returns every level.
func Of(book *engine.OrderBook, maxLevels int) Snapshot {
	return Snapshot{
		InstrumentID: book.InstrumentID,
		Timestamp:    time.Now(),
		Bids:         levelsOf(book.Bids, maxLevels),
		Asks:         levelsOf(book.Asks, maxLevels),
	}
}

func levelsOf(ladder *engine.PriceLevels, maxLevels int) []Level {
	items := ladder.Items()
	if maxLevels > 0 && len(items) > maxLevels {
		items = items[:maxLevels]
	}
	out := make([]Level, 0, len(items))
	for _, pl := range items {
		total := decimal.Zero
		for _, o := range pl.Orders {
			total = total.Add(o.RemainingQuantity)
		}
		out = append(out, Level{
			Price:      pl.Price,
			Quantity:   total,
			OrderCount: len(pl.Orders),
		})
	}
	return out
}

// BestBid returns the highest resting bid price, if any.
func BestBid(book *engine.OrderBook) (decimal.Decimal, bool) {
	level, ok := book.Bids.Min()
	if !ok {
		return decimal.Zero, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func BestAsk(book *engine.OrderBook) (decimal.Decimal, bool) {
	level, ok := book.Asks.Min()
	if !ok {
		return decimal.Zero, false
	}
	return level.Price, true
}

// Spread returns BestAsk - BestBid. ok is false if either side is empty.
func Spread(book *engine.OrderBook) (decimal.Decimal, bool) {
	bid, okBid := BestBid(book)
	ask, okAsk := BestAsk(book)
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}
