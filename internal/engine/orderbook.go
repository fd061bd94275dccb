package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"ironbook/internal/domain"
)

// PriceLevel is the queue of resting orders at one specific price. Orders
// are served strictly in insertion order (first-come, first-served).
type PriceLevel struct {
	Price  decimal.Decimal
	Orders []*domain.Order
}

// PriceLevels is an ordered map from price to PriceLevel, giving O(log n)
// lookup of the best (min/max) price.
type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is a single in-memory, per-instrument matching engine: a bid
// ladder, an ask ladder, and a directory from order id to its latest view.
//
// The directory is unexported; the Bids and Asks ladders are exported
// fields, and readers such as internal/depth walk them directly without
// taking mu. Submit and Cancel are each an atomic unit of work from the
// caller's perspective, guarded by mu.
type OrderBook struct {
	InstrumentID uuid.UUID

	// Bids are sorted greatest-first (best bid = highest price).
	Bids *PriceLevels
	// Asks are sorted least-first (best ask = lowest price).
	Asks *PriceLevels

	mu       sync.Mutex
	orders   map[uuid.UUID]domain.Order
	lastTime time.Time
}

// NewOrderBook constructs an empty book for a single instrument.
func NewOrderBook(instrumentID uuid.UUID) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &OrderBook{
		InstrumentID: instrumentID,
		Bids:         bids,
		Asks:         asks,
		orders:       make(map[uuid.UUID]domain.Order),
	}
}

// now returns a monotonically non-decreasing instant for this book.
func (b *OrderBook) now() time.Time {
	t := time.Now()
	if !t.After(b.lastTime) {
		t = b.lastTime.Add(time.Nanosecond)
	}
	b.lastTime = t
	return t
}

// Order returns the directory's latest view of an order, if any.
func (b *OrderBook) Order(id uuid.UUID) (domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	return o, ok
}

// Submit accepts a new order against the book. It validates the order's
// preconditions, matches it against the opposite ladder under price-time
// priority, rests any residual limit quantity, and returns the trades
// produced in generation order. The incoming order's status on return is
// always reflected in the directory (Order method).
func (b *OrderBook) Submit(order domain.Order) ([]domain.Trade, error) {
	if order.InstrumentID != b.InstrumentID {
		return nil, ErrWrongInstrument
	}
	if !order.OriginalQuantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	switch order.OrderType {
	case domain.LimitOrder:
		if !order.Price.IsPositive() {
			return nil, ErrMissingPrice
		}
	case domain.MarketOrder:
		if !order.Price.IsZero() {
			return nil, ErrUnexpectedPrice
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	order.Status = domain.Pending
	order.RemainingQuantity = order.OriginalQuantity
	order.CreatedAt = now
	order.UpdatedAt = now

	incoming := &order

	var trades []domain.Trade
	switch incoming.OrderType {
	case domain.LimitOrder:
		trades = b.matchLimit(incoming)
	case domain.MarketOrder:
		trades = b.matchMarket(incoming)
	}

	b.orders[incoming.ID] = *incoming
	return trades, nil
}

// matchLimit implements the LIMIT side of the algorithm in spec.md §4.1:
// cross while crossable, then rest any residual at the incoming order's
// own price.
func (b *OrderBook) matchLimit(incoming *domain.Order) []domain.Trade {
	opposite, own := b.sidesFor(incoming.Side)

	var trades []domain.Trade
	for incoming.RemainingQuantity.IsPositive() {
		level, ok := opposite.MinMut()
		if !ok || !crosses(incoming.Side, incoming.Price, level.Price) {
			break
		}
		trades = append(trades, b.drainLevel(opposite, level, incoming)...)
	}

	if incoming.RemainingQuantity.IsZero() {
		incoming.Status = domain.Filled
		return trades
	}
	if len(trades) > 0 {
		incoming.Status = domain.Partial
	} else {
		incoming.Status = domain.Pending
	}
	b.rest(own, incoming)
	return trades
}

// matchMarket implements the MARKET side of the algorithm: sweep the
// opposite ladder until filled or liquidity is exhausted. A market order
// that cannot be fully filled is REJECTED, but prior partial fills are not
// reversed (spec.md §4.1, §9 open question 1).
func (b *OrderBook) matchMarket(incoming *domain.Order) []domain.Trade {
	opposite, _ := b.sidesFor(incoming.Side)

	var trades []domain.Trade
	for incoming.RemainingQuantity.IsPositive() {
		level, ok := opposite.MinMut()
		if !ok {
			break
		}
		trades = append(trades, b.drainLevel(opposite, level, incoming)...)
	}

	if incoming.RemainingQuantity.IsPositive() {
		incoming.Status = domain.Rejected
	} else {
		incoming.Status = domain.Filled
	}
	return trades
}

// drainLevel consumes resting orders front-of-queue at level until the
// incoming order is exhausted or the level is empty, emitting a trade per
// match. The level is removed from its ladder if it becomes empty.
func (b *OrderBook) drainLevel(ladder *PriceLevels, level *PriceLevel, incoming *domain.Order) []domain.Trade {
	var trades []domain.Trade
	for incoming.RemainingQuantity.IsPositive() && len(level.Orders) > 0 {
		resting := level.Orders[0]

		qty := decimal.Min(incoming.RemainingQuantity, resting.RemainingQuantity)
		trades = append(trades, b.makeTrade(incoming, resting, level.Price, qty))

		incoming.RemainingQuantity = incoming.RemainingQuantity.Sub(qty)
		resting.RemainingQuantity = resting.RemainingQuantity.Sub(qty)
		resting.UpdatedAt = b.now()

		if resting.RemainingQuantity.IsZero() {
			resting.Status = domain.Filled
			level.Orders = level.Orders[1:]
		} else {
			resting.Status = domain.Partial
		}
		b.orders[resting.ID] = *resting
	}
	if len(level.Orders) == 0 {
		ladder.Delete(level)
	}
	return trades
}

// rest inserts the incoming order at the tail of its own side's queue at
// its own price, creating the level if necessary.
func (b *OrderBook) rest(ladder *PriceLevels, order *domain.Order) {
	level, ok := ladder.GetMut(&PriceLevel{Price: order.Price})
	if ok {
		level.Orders = append(level.Orders, order)
		return
	}
	ladder.Set(&PriceLevel{Price: order.Price, Orders: []*domain.Order{order}})
}

// Cancel removes a resting order from the book. Cancelling an unknown or
// terminal order is not an error: it returns (zero, false). Only PENDING
// and PARTIAL orders may be cancelled.
func (b *OrderBook) Cancel(orderID uuid.UUID) (domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok || order.Status.Terminal() {
		return domain.Order{}, false
	}

	ladder, _ := b.sidesFor(order.Side)
	level, ok := ladder.GetMut(&PriceLevel{Price: order.Price})
	if ok {
		for i, o := range level.Orders {
			if o.ID == orderID {
				level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
				break
			}
		}
		if len(level.Orders) == 0 {
			ladder.Delete(level)
		}
	}

	order.Status = domain.Cancelled
	order.UpdatedAt = b.now()
	b.orders[orderID] = order
	return order, true
}

// sidesFor returns (opposite ladder, own ladder) for a given incoming side:
// a BUY matches against asks and rests on bids; a SELL is the mirror.
func (b *OrderBook) sidesFor(side domain.Side) (opposite, own *PriceLevels) {
	if side == domain.Buy {
		return b.Asks, b.Bids
	}
	return b.Bids, b.Asks
}

// crosses reports whether an incoming order at orderPrice is willing to
// trade against a resting level at levelPrice.
func crosses(side domain.Side, orderPrice, levelPrice decimal.Decimal) bool {
	if side == domain.Buy {
		return orderPrice.GreaterThanOrEqual(levelPrice)
	}
	return orderPrice.LessThanOrEqual(levelPrice)
}

// makeTrade produces a trade for a single crossing, price = resting
// (maker) order's price, buyer/seller assigned by side.
func (b *OrderBook) makeTrade(incoming, resting *domain.Order, price, qty decimal.Decimal) domain.Trade {
	var buyerOrderID, sellerOrderID, buyerBrokerID, sellerBrokerID uuid.UUID
	if incoming.Side == domain.Buy {
		buyerOrderID, buyerBrokerID = incoming.ID, incoming.BrokerID
		sellerOrderID, sellerBrokerID = resting.ID, resting.BrokerID
	} else {
		sellerOrderID, sellerBrokerID = incoming.ID, incoming.BrokerID
		buyerOrderID, buyerBrokerID = resting.ID, resting.BrokerID
	}
	return domain.Trade{
		ID:             uuid.New(),
		InstrumentID:   b.InstrumentID,
		BuyerOrderID:   buyerOrderID,
		SellerOrderID:  sellerOrderID,
		BuyerBrokerID:  buyerBrokerID,
		SellerBrokerID: sellerBrokerID,
		Price:          price,
		Quantity:       qty,
		ExecutionTime:  b.now(),
		Status:         domain.PendingSettlement,
	}
}
