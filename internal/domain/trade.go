package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is an immutable record of a single crossing between a buyer and a
// seller order. Price is always the maker's (resting order's) price.
type Trade struct {
	ID           uuid.UUID
	InstrumentID uuid.UUID

	BuyerOrderID  uuid.UUID
	SellerOrderID uuid.UUID
	BuyerBrokerID uuid.UUID
	SellerBrokerID uuid.UUID

	Price    decimal.Decimal
	Quantity decimal.Decimal

	ExecutionTime time.Time

	Status         TradeStatus
	SettlementTime *time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`ID:             %s
InstrumentID:   %s
Buyer:          %s (broker %s)
Seller:         %s (broker %s)
Price:          %s
Quantity:       %s
ExecutionTime:  %s
Status:         %s`,
		t.ID,
		t.InstrumentID,
		t.BuyerOrderID, t.BuyerBrokerID,
		t.SellerOrderID, t.SellerBrokerID,
		t.Price,
		t.Quantity,
		t.ExecutionTime.Format(time.RFC3339),
		t.Status,
	)
}
