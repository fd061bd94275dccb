// Package protocol defines ironbook's wire format: a small binary
// client/server protocol for submitting orders, cancelling them, and
// receiving execution/error reports. It carries exact decimal prices and
// quantities and 128-bit order/instrument/broker identifiers, the same
// binary-framing idiom the teacher used for string usernames (a one-byte
// or four-byte length prefix followed by the raw bytes).
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ironbook/internal/domain"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for its declared length")
)

// MessageType identifies an inbound client message.
type MessageType uint8

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

// ReportMessageType identifies an outbound server message.
type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

// Message is any parsed inbound client message.
type Message interface {
	GetType() MessageType
}

// BaseMessage carries the common message-type tag.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

const baseMessageHeaderLen = 1

// ParseMessage reads the type tag off msg and dispatches to the matching
// parser.
func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < baseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(msg[0])
	rest := msg[1:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(rest)
	case CancelOrder:
		return parseCancelOrder(rest)
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage requests that an order be submitted to the engine.
type NewOrderMessage struct {
	BaseMessage
	OrderType    domain.OrderType
	Side         domain.Side
	InstrumentID uuid.UUID
	BrokerID     uuid.UUID
	Price        decimal.Decimal // zero value for MARKET orders
	Quantity     decimal.Decimal
}

// Order builds the domain.Order this message describes, assigning it a
// fresh id.
func (m *NewOrderMessage) Order() domain.Order {
	return domain.Order{
		ID:               uuid.New(),
		BrokerID:         m.BrokerID,
		InstrumentID:     m.InstrumentID,
		OrderType:        m.OrderType,
		Side:             m.Side,
		Price:            m.Price,
		OriginalQuantity: m.Quantity,
	}
}

// Fixed portion: 1 (order type) + 1 (side) + 16 (instrument) + 16 (broker).
const newOrderFixedLen = 1 + 1 + 16 + 16

func parseNewOrder(msg []byte) (*NewOrderMessage, error) {
	if len(msg) < newOrderFixedLen+2 {
		return nil, ErrMessageTooShort
	}
	m := &NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.OrderType = domain.OrderType(msg[0])
	m.Side = domain.Side(msg[1])

	instrumentID, err := uuid.FromBytes(msg[2:18])
	if err != nil {
		return nil, err
	}
	m.InstrumentID = instrumentID

	brokerID, err := uuid.FromBytes(msg[18:34])
	if err != nil {
		return nil, err
	}
	m.BrokerID = brokerID

	offset := 34
	price, n, err := readDecimal(msg, offset)
	if err != nil {
		return nil, err
	}
	offset += n
	if !price.IsZero() {
		m.Price = price
	}

	qty, _, err := readDecimal(msg, offset)
	if err != nil {
		return nil, err
	}
	m.Quantity = qty

	return m, nil
}

func (m *NewOrderMessage) Serialize() []byte {
	priceBytes := writeDecimal(m.Price)
	qtyBytes := writeDecimal(m.Quantity)

	buf := make([]byte, baseMessageHeaderLen+newOrderFixedLen+len(priceBytes)+len(qtyBytes))
	buf[0] = byte(NewOrder)
	buf[1] = byte(m.OrderType)
	buf[2] = byte(m.Side)
	copy(buf[3:19], m.InstrumentID[:])
	copy(buf[19:35], m.BrokerID[:])
	copy(buf[35:], priceBytes)
	copy(buf[35+len(priceBytes):], qtyBytes)
	return buf
}

// CancelOrderMessage requests that a resting order be cancelled.
type CancelOrderMessage struct {
	BaseMessage
	InstrumentID uuid.UUID
	OrderID      uuid.UUID
}

const cancelOrderLen = 16 + 16

func parseCancelOrder(msg []byte) (*CancelOrderMessage, error) {
	if len(msg) < cancelOrderLen {
		return nil, ErrMessageTooShort
	}
	instrumentID, err := uuid.FromBytes(msg[0:16])
	if err != nil {
		return nil, err
	}
	orderID, err := uuid.FromBytes(msg[16:32])
	if err != nil {
		return nil, err
	}
	return &CancelOrderMessage{
		BaseMessage:  BaseMessage{TypeOf: CancelOrder},
		InstrumentID: instrumentID,
		OrderID:      orderID,
	}, nil
}

func (m *CancelOrderMessage) Serialize() []byte {
	buf := make([]byte, baseMessageHeaderLen+cancelOrderLen)
	buf[0] = byte(CancelOrder)
	copy(buf[1:17], m.InstrumentID[:])
	copy(buf[17:33], m.OrderID[:])
	return buf
}

// Report is an outbound execution or error report.
type Report struct {
	MessageType  ReportMessageType
	Side         domain.Side
	InstrumentID uuid.UUID
	OrderID      uuid.UUID
	Status       domain.OrderStatus
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	Err          string
}

const reportFixedLen = 1 + 1 + 16 + 16 + 1

// Serialize converts the report into its wire form.
func (r *Report) Serialize() []byte {
	priceBytes := writeDecimal(r.Price)
	qtyBytes := writeDecimal(r.Quantity)
	errBytes := []byte(r.Err)

	totalSize := reportFixedLen + len(priceBytes) + len(qtyBytes) + 4 + len(errBytes)
	buf := make([]byte, totalSize)

	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Side)
	copy(buf[2:18], r.InstrumentID[:])
	copy(buf[18:34], r.OrderID[:])
	buf[34] = byte(r.Status)

	offset := reportFixedLen
	copy(buf[offset:], priceBytes)
	offset += len(priceBytes)
	copy(buf[offset:], qtyBytes)
	offset += len(qtyBytes)

	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(errBytes)))
	offset += 4
	copy(buf[offset:], errBytes)

	return buf
}

// ParseReport parses a report previously produced by Serialize. Clients use
// this to decode the server's reports.
func ParseReport(msg []byte) (*Report, error) {
	if len(msg) < reportFixedLen {
		return nil, ErrMessageTooShort
	}
	r := &Report{
		MessageType: ReportMessageType(msg[0]),
		Side:        domain.Side(msg[1]),
		Status:      domain.OrderStatus(msg[34]),
	}
	instrumentID, err := uuid.FromBytes(msg[2:18])
	if err != nil {
		return nil, err
	}
	r.InstrumentID = instrumentID
	orderID, err := uuid.FromBytes(msg[18:34])
	if err != nil {
		return nil, err
	}
	r.OrderID = orderID

	offset := reportFixedLen
	price, n, err := readDecimal(msg, offset)
	if err != nil {
		return nil, err
	}
	r.Price = price
	offset += n

	qty, n, err := readDecimal(msg, offset)
	if err != nil {
		return nil, err
	}
	r.Quantity = qty
	offset += n

	if len(msg) < offset+4 {
		return nil, ErrMessageTooShort
	}
	errLen := int(binary.BigEndian.Uint32(msg[offset : offset+4]))
	offset += 4
	if len(msg) < offset+errLen {
		return nil, ErrMessageTooShort
	}
	r.Err = string(msg[offset : offset+errLen])

	return r, nil
}

// TradeReports builds the pair of execution reports owed to a trade's two
// counterparties.
func TradeReports(trade domain.Trade) (buyerReport, sellerReport *Report) {
	buyerReport = &Report{
		MessageType:  ExecutionReport,
		Side:         domain.Buy,
		InstrumentID: trade.InstrumentID,
		OrderID:      trade.BuyerOrderID,
		Status:       domain.Partial, // caller overwrites with the order's true final status
		Price:        trade.Price,
		Quantity:     trade.Quantity,
	}
	sellerReport = &Report{
		MessageType:  ExecutionReport,
		Side:         domain.Sell,
		InstrumentID: trade.InstrumentID,
		OrderID:      trade.SellerOrderID,
		Status:       domain.Partial,
		Price:        trade.Price,
		Quantity:     trade.Quantity,
	}
	return buyerReport, sellerReport
}

// NewErrorReport wraps an error for transmission back to the client that
// triggered it.
func NewErrorReport(err error) *Report {
	return &Report{
		MessageType: ErrorReport,
		Err:         fmt.Sprint(err),
	}
}

// writeDecimal encodes a decimal as a one-byte length prefix followed by
// its decimal string form. Lengths above 255 bytes cannot occur for any
// price/quantity this system produces.
func writeDecimal(d decimal.Decimal) []byte {
	s := d.String()
	buf := make([]byte, 1+len(s))
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	return buf
}

func readDecimal(msg []byte, offset int) (decimal.Decimal, int, error) {
	if len(msg) < offset+1 {
		return decimal.Decimal{}, 0, ErrMessageTooShort
	}
	n := int(msg[offset])
	if len(msg) < offset+1+n {
		return decimal.Decimal{}, 0, ErrMessageTooShort
	}
	s := string(msg[offset+1 : offset+1+n])
	if s == "" {
		return decimal.Decimal{}, 1 + n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}
	return d, 1 + n, nil
}
