package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Instrument describes a tradable security. The matcher never mutates an
// Instrument; it only compares an incoming order's InstrumentID against the
// instrument a book was constructed for.
type Instrument struct {
	ID       uuid.UUID
	Symbol   string
	Name     string
	Type     InstrumentType
	Status   InstrumentStatus
	LotSize  int32
	TickSize decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Broker identifies a submitting party. The matcher does not validate
// broker status; that is a risk-gate concern upstream of submit.
type Broker struct {
	ID         uuid.UUID
	BrokerCode string
	Name       string
	Status     BrokerStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CashPosition tracks a broker's cash balance for one currency. Locking and
// unlocking balances around a submitted order is the caller's
// responsibility; the matcher never reads or writes this structure.
type CashPosition struct {
	ID            uuid.UUID
	BrokerID      uuid.UUID
	Currency      string
	TotalBalance  decimal.Decimal
	LockedBalance decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SecurityPosition tracks a broker's holding of one instrument. As with
// CashPosition, locking is an upstream concern the matcher trusts has
// already happened.
type SecurityPosition struct {
	ID              uuid.UUID
	BrokerID        uuid.UUID
	InstrumentID    uuid.UUID
	TotalQuantity   decimal.Decimal
	LockedQuantity  decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
