package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an instruction to buy or sell a quantity of a specific
// instrument. The book owns the authoritative copy once an order has been
// submitted; callers should treat a returned Order as a snapshot.
type Order struct {
	ID           uuid.UUID
	BrokerID     uuid.UUID
	InstrumentID uuid.UUID

	OrderType OrderType
	Side      Side
	Status    OrderStatus

	// Price is the limit price. It is the zero Decimal for MARKET orders.
	Price decimal.Decimal

	OriginalQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o Order) String() string {
	return fmt.Sprintf(
		`ID:                %s
BrokerID:          %s
InstrumentID:      %s
OrderType:         %s
Side:              %s
Status:            %s
Price:             %s
Quantity:          %s (Original: %s)
CreatedAt:         %s
UpdatedAt:         %s`,
		o.ID,
		o.BrokerID,
		o.InstrumentID,
		o.OrderType,
		o.Side,
		o.Status,
		o.Price,
		o.RemainingQuantity, o.OriginalQuantity,
		o.CreatedAt.Format(time.RFC3339),
		o.UpdatedAt.Format(time.RFC3339),
	)
}

// Filled reports whether the order has no quantity left to trade.
func (o Order) Filled() bool {
	return o.RemainingQuantity.IsZero()
}
