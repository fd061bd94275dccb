package depth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/domain"
	"ironbook/internal/engine"
)

func newOrder(instrumentID uuid.UUID, side domain.Side, price, qty string) domain.Order {
	return domain.Order{
		ID:               uuid.New(),
		BrokerID:         uuid.New(),
		InstrumentID:     instrumentID,
		OrderType:        domain.LimitOrder,
		Side:             side,
		Price:            decimal.RequireFromString(price),
		OriginalQuantity: decimal.RequireFromString(qty),
	}
}

func TestOf_AggregatesLevelsBestFirst(t *testing.T) {
	instrumentID := uuid.New()
	book := engine.NewOrderBook(instrumentID)

	_, err := book.Submit(newOrder(instrumentID, domain.Buy, "99.00", "5"))
	require.NoError(t, err)
	_, err = book.Submit(newOrder(instrumentID, domain.Buy, "100.00", "3"))
	require.NoError(t, err)
	_, err = book.Submit(newOrder(instrumentID, domain.Buy, "100.00", "2"))
	require.NoError(t, err)
	_, err = book.Submit(newOrder(instrumentID, domain.Sell, "101.00", "7"))
	require.NoError(t, err)

	snap := Of(book, 0)
	require.Len(t, snap.Bids, 2)
	assert.True(t, snap.Bids[0].Price.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, snap.Bids[0].Quantity.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, 2, snap.Bids[0].OrderCount)
	assert.True(t, snap.Bids[1].Price.Equal(decimal.RequireFromString("99.00")))

	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Quantity.Equal(decimal.RequireFromString("7")))
}

func TestOf_TruncatesToMaxLevels(t *testing.T) {
	instrumentID := uuid.New()
	book := engine.NewOrderBook(instrumentID)

	for _, p := range []string{"10.00", "11.00", "12.00"} {
		_, err := book.Submit(newOrder(instrumentID, domain.Buy, p, "1"))
		require.NoError(t, err)
	}

	snap := Of(book, 2)
	assert.Len(t, snap.Bids, 2)
	assert.True(t, snap.Bids[0].Price.Equal(decimal.RequireFromString("12.00")))
}

func TestBestBidAskAndSpread(t *testing.T) {
	instrumentID := uuid.New()
	book := engine.NewOrderBook(instrumentID)

	_, noBid := BestBid(book)
	_, noAsk := BestAsk(book)
	_, noSpread := Spread(book)
	assert.False(t, noBid)
	assert.False(t, noAsk)
	assert.False(t, noSpread)

	_, err := book.Submit(newOrder(instrumentID, domain.Buy, "50.00", "1"))
	require.NoError(t, err)
	_, err = book.Submit(newOrder(instrumentID, domain.Sell, "52.00", "1"))
	require.NoError(t, err)

	bid, ok := BestBid(book)
	require.True(t, ok)
	ask, ok := BestAsk(book)
	require.True(t, ok)
	spread, ok := Spread(book)
	require.True(t, ok)

	assert.True(t, bid.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, ask.Equal(decimal.RequireFromString("52.00")))
	assert.True(t, spread.Equal(decimal.RequireFromString("2.00")))
}
