package engine

import (
	"sync"

	"github.com/google/uuid"

	"ironbook/internal/domain"
)

// Engine hosts one OrderBook per instrument. It performs no matching logic
// of its own; it is a routing layer that looks up (and lazily creates) the
// book for an instrument and delegates Submit/Cancel to it.
type Engine struct {
	mu    sync.RWMutex
	books map[uuid.UUID]*OrderBook
}

// New constructs an Engine with a book pre-created for each given
// instrument id. Books for instruments not listed here are created lazily
// on first Submit.
func New(instrumentIDs ...uuid.UUID) *Engine {
	e := &Engine{
		books: make(map[uuid.UUID]*OrderBook),
	}
	for _, id := range instrumentIDs {
		e.books[id] = NewOrderBook(id)
	}
	return e
}

// Book returns the book for an instrument, creating it if it does not yet
// exist.
func (e *Engine) Book(instrumentID uuid.UUID) *OrderBook {
	e.mu.RLock()
	book, ok := e.books[instrumentID]
	e.mu.RUnlock()
	if ok {
		return book
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if book, ok = e.books[instrumentID]; ok {
		return book
	}
	book = NewOrderBook(instrumentID)
	e.books[instrumentID] = book
	return book
}

// Submit routes an order to the book for its instrument.
func (e *Engine) Submit(order domain.Order) ([]domain.Trade, error) {
	return e.Book(order.InstrumentID).Submit(order)
}

// Cancel routes a cancellation to the book for the given instrument.
func (e *Engine) Cancel(instrumentID uuid.UUID, orderID uuid.UUID) (domain.Order, bool) {
	e.mu.RLock()
	book, ok := e.books[instrumentID]
	e.mu.RUnlock()
	if !ok {
		return domain.Order{}, false
	}
	return book.Cancel(orderID)
}

// Order returns the directory view of an order within a given instrument's
// book.
func (e *Engine) Order(instrumentID, orderID uuid.UUID) (domain.Order, bool) {
	e.mu.RLock()
	book, ok := e.books[instrumentID]
	e.mu.RUnlock()
	if !ok {
		return domain.Order{}, false
	}
	return book.Order(orderID)
}
