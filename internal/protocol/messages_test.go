package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/domain"
)

func TestNewOrderMessage_RoundTrip(t *testing.T) {
	original := &NewOrderMessage{
		OrderType:    domain.LimitOrder,
		Side:         domain.Buy,
		InstrumentID: uuid.New(),
		BrokerID:     uuid.New(),
		Price:        decimal.RequireFromString("123.45"),
		Quantity:     decimal.RequireFromString("10"),
	}

	wire := original.Serialize()
	parsed, err := ParseMessage(wire)
	require.NoError(t, err)

	decoded, ok := parsed.(*NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, original.OrderType, decoded.OrderType)
	assert.Equal(t, original.Side, decoded.Side)
	assert.Equal(t, original.InstrumentID, decoded.InstrumentID)
	assert.Equal(t, original.BrokerID, decoded.BrokerID)
	assert.True(t, original.Price.Equal(decoded.Price))
	assert.True(t, original.Quantity.Equal(decoded.Quantity))
}

func TestNewOrderMessage_MarketOrderHasZeroPrice(t *testing.T) {
	original := &NewOrderMessage{
		OrderType:    domain.MarketOrder,
		Side:         domain.Sell,
		InstrumentID: uuid.New(),
		BrokerID:     uuid.New(),
		Quantity:     decimal.RequireFromString("5"),
	}

	wire := original.Serialize()
	parsed, err := ParseMessage(wire)
	require.NoError(t, err)

	decoded := parsed.(*NewOrderMessage)
	assert.True(t, decoded.Price.IsZero())
}

func TestCancelOrderMessage_RoundTrip(t *testing.T) {
	original := &CancelOrderMessage{
		InstrumentID: uuid.New(),
		OrderID:      uuid.New(),
	}

	wire := original.Serialize()
	parsed, err := ParseMessage(wire)
	require.NoError(t, err)

	decoded, ok := parsed.(*CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, original.InstrumentID, decoded.InstrumentID)
	assert.Equal(t, original.OrderID, decoded.OrderID)
}

func TestReport_RoundTrip(t *testing.T) {
	original := &Report{
		MessageType:  ExecutionReport,
		Side:         domain.Sell,
		InstrumentID: uuid.New(),
		OrderID:      uuid.New(),
		Status:       domain.Partial,
		Price:        decimal.RequireFromString("99.99"),
		Quantity:     decimal.RequireFromString("3"),
	}

	wire := original.Serialize()
	decoded, err := ParseReport(wire)
	require.NoError(t, err)

	assert.Equal(t, original.MessageType, decoded.MessageType)
	assert.Equal(t, original.Side, decoded.Side)
	assert.Equal(t, original.InstrumentID, decoded.InstrumentID)
	assert.Equal(t, original.OrderID, decoded.OrderID)
	assert.Equal(t, original.Status, decoded.Status)
	assert.True(t, original.Price.Equal(decoded.Price))
	assert.True(t, original.Quantity.Equal(decoded.Quantity))
}

func TestReport_ErrorReportCarriesMessage(t *testing.T) {
	report := NewErrorReport(ErrInvalidMessageType)
	wire := report.Serialize()
	decoded, err := ParseReport(wire)
	require.NoError(t, err)

	assert.Equal(t, ErrorReport, decoded.MessageType)
	assert.Equal(t, ErrInvalidMessageType.Error(), decoded.Err)
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := ParseMessage(nil)
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessage_UnknownType(t *testing.T) {
	_, err := ParseMessage([]byte{255})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}
