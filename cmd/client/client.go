package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ironbook/internal/domain"
	"ironbook/internal/protocol"
)

const lengthPrefixSize = 4

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the matching engine server")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel']")

	instrumentStr := flag.String("instrument", "", "Instrument UUID (compulsory)")
	brokerStr := flag.String("broker", "", "Broker UUID (compulsory)")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit' or 'market'")
	priceStr := flag.String("price", "100.00", "Limit price (ignored for market orders)")
	qtyStr := flag.String("qty", "10", "Quantity")

	orderIDStr := flag.String("order", "", "Order UUID to cancel")

	flag.Parse()

	instrumentID, err := uuid.Parse(*instrumentStr)
	if err != nil {
		log.Fatalf("Error: -instrument must be a valid UUID: %v", err)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	go readReports(conn)

	switch strings.ToLower(*action) {
	case "place":
		brokerID, err := uuid.Parse(*brokerStr)
		if err != nil {
			log.Fatalf("Error: -broker must be a valid UUID: %v", err)
		}

		side := domain.Buy
		if strings.ToLower(*sideStr) == "sell" {
			side = domain.Sell
		}
		orderType := domain.LimitOrder
		price := decimal.Zero
		if strings.ToLower(*typeStr) == "market" {
			orderType = domain.MarketOrder
		} else {
			price, err = decimal.NewFromString(*priceStr)
			if err != nil {
				log.Fatalf("Error: -price must be a decimal: %v", err)
			}
		}

		qty, err := decimal.NewFromString(*qtyStr)
		if err != nil {
			log.Fatalf("Error: -qty must be a decimal: %v", err)
		}

		if err := sendNewOrder(conn, instrumentID, brokerID, orderType, side, price, qty); err != nil {
			log.Fatalf("Failed to place order: %v", err)
		}
		fmt.Printf("-> Sent %s %s order: qty %s @ %s\n", orderType, side, qty, price)

	case "cancel":
		orderID, err := uuid.Parse(*orderIDStr)
		if err != nil {
			log.Fatalf("Error: -order must be a valid UUID: %v", err)
		}
		if err := sendCancelOrder(conn, instrumentID, orderID); err != nil {
			log.Fatalf("Failed to send cancel request: %v", err)
		}
		fmt.Printf("-> Sent cancel request for order %s\n", orderID)

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func sendFrame(conn net.Conn, payload []byte) error {
	header := make([]byte, lengthPrefixSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := conn.Write(header); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func sendNewOrder(conn net.Conn, instrumentID, brokerID uuid.UUID, orderType domain.OrderType, side domain.Side, price, qty decimal.Decimal) error {
	msg := &protocol.NewOrderMessage{
		OrderType:    orderType,
		Side:         side,
		InstrumentID: instrumentID,
		BrokerID:     brokerID,
		Price:        price,
		Quantity:     qty,
	}
	return sendFrame(conn, msg.Serialize())
}

func sendCancelOrder(conn net.Conn, instrumentID, orderID uuid.UUID) error {
	msg := &protocol.CancelOrderMessage{
		InstrumentID: instrumentID,
		OrderID:      orderID,
	}
	return sendFrame(conn, msg.Serialize())
}

// readReports continuously reads and prints length-prefixed reports from
// the server until the connection closes.
func readReports(conn net.Conn) {
	header := make([]byte, lengthPrefixSize)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}
		size := binary.BigEndian.Uint32(header)
		payload := make([]byte, size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			log.Printf("Error reading report body: %v", err)
			os.Exit(0)
		}

		report, err := protocol.ParseReport(payload)
		if err != nil {
			log.Printf("Error parsing report: %v", err)
			continue
		}

		if report.MessageType == protocol.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", report.Err)
			continue
		}
		fmt.Printf("\n[EXECUTION] %s | %s | Qty: %s | Price: %s | Order: %s | %s\n",
			time.Now().Format(time.RFC3339), report.Side, report.Quantity, report.Price, report.OrderID, report.Status)
	}
}
