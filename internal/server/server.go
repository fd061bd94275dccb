// Package server hosts the TCP front end for the matching engine: it
// accepts client connections, decodes wire messages into engine calls,
// reports order outcomes and errors back down the originating connection,
// and sends trade execution reports to every open connection.
package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ironbook/internal/domain"
	"ironbook/internal/engine"
	"ironbook/internal/protocol"
	"ironbook/internal/workerpool"
)

const lengthPrefixSize = 4

// clientMessage pairs a decoded wire message with the session it arrived
// on, so a worker can reply to the right connection.
type clientMessage struct {
	session *clientSession
	message protocol.Message
}

// clientSession is one accepted connection, identified by a session id for
// logging.
type clientSession struct {
	id   uuid.UUID
	conn net.Conn
	mu   sync.Mutex // guards writes; reports may be produced concurrently
}

func (s *clientSession) send(report *protocol.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := report.Serialize()
	header := make([]byte, lengthPrefixSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := s.conn.Write(header); err != nil {
		return err
	}
	_, err := s.conn.Write(payload)
	return err
}

// Server accepts client connections on a TCP listener and routes their
// messages into an Engine, reporting results back to the originating
// session. Message handling runs on a fixed worker pool so a single slow
// client cannot starve the others.
type Server struct {
	addr   string
	engine *engine.Engine
	pool   workerpool.Pool

	mu       sync.Mutex
	sessions map[uuid.UUID]*clientSession
}

// New constructs a server bound to addr, routing accepted orders into eng.
// workers sets the size of the message-handling pool.
func New(addr string, eng *engine.Engine, workers int) *Server {
	return &Server{
		addr:     addr,
		engine:   eng,
		pool:     workerpool.New(workers),
		sessions: make(map[uuid.UUID]*clientSession),
	}
}

// Run listens on the server's address and serves connections until t is
// killed. It returns once the listener has been closed; the worker pool and
// connection handlers run as separate goroutines under t and are not waited
// for here.
func (s *Server) Run(t *tomb.Tomb) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	log.Info().Str("addr", s.addr).Msg("server listening")

	t.Go(func() error {
		s.pool.Setup(t, s.handleTask)
		return nil
	})

	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-t.Dying():
				return nil
			default:
				return err
			}
		}
		t.Go(func() error {
			s.handleConnection(t, conn)
			return nil
		})
	}
}

func (s *Server) addSession(session *clientSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.id] = session
}

func (s *Server) removeSession(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// handleConnection reads length-prefixed messages off conn until it closes
// or t is dying, enqueueing each onto the worker pool.
func (s *Server) handleConnection(t *tomb.Tomb, conn net.Conn) {
	session := &clientSession{id: uuid.New(), conn: conn}
	s.addSession(session)
	defer func() {
		s.removeSession(session.id)
		conn.Close()
	}()

	log.Info().Str("session", session.id.String()).Msg("client connected")

	header := make([]byte, lengthPrefixSize)
	for {
		select {
		case <-t.Dying():
			return
		default:
		}

		if _, err := io.ReadFull(conn, header); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error().Err(err).Str("session", session.id.String()).Msg("read header failed")
			}
			return
		}
		size := binary.BigEndian.Uint32(header)
		payload := make([]byte, size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			log.Error().Err(err).Str("session", session.id.String()).Msg("read payload failed")
			return
		}

		msg, err := protocol.ParseMessage(payload)
		if err != nil {
			log.Error().Err(err).Str("session", session.id.String()).Msg("malformed message")
			_ = session.send(protocol.NewErrorReport(err))
			continue
		}
		s.pool.AddTask(clientMessage{session: session, message: msg})
	}
}

// handleTask is the workerpool.Func that executes one decoded message
// against the engine and reports the outcome.
func (s *Server) handleTask(t *tomb.Tomb, task any) error {
	cm, ok := task.(clientMessage)
	if !ok {
		return fmt.Errorf("server: unexpected task type %T", task)
	}

	switch msg := cm.message.(type) {
	case *protocol.NewOrderMessage:
		s.handleNewOrder(cm.session, msg)
	case *protocol.CancelOrderMessage:
		s.handleCancelOrder(cm.session, msg)
	default:
		log.Error().Msg("server: unhandled message type")
	}
	return nil
}

func (s *Server) handleNewOrder(session *clientSession, msg *protocol.NewOrderMessage) {
	order := msg.Order()
	trades, err := s.engine.Submit(order)
	if err != nil {
		log.Error().Err(err).Str("session", session.id.String()).Msg("order rejected")
		_ = session.send(protocol.NewErrorReport(err))
		return
	}

	final, ok := s.engine.Order(order.InstrumentID, order.ID)
	if !ok {
		final = order
	}
	_ = session.send(&protocol.Report{
		MessageType:  protocol.ExecutionReport,
		Side:         final.Side,
		InstrumentID: final.InstrumentID,
		OrderID:      final.ID,
		Status:       final.Status,
		Price:        final.Price,
		Quantity:     final.RemainingQuantity,
	})

	for _, trade := range trades {
		s.reportTrade(trade)
	}
}

// reportTrade sends the trade's buyer and seller execution reports to every
// open session. Sessions are not tied to the orders they submitted, so the
// reports are not limited to the two counterparties. Send errors are
// ignored: trade reporting is best-effort over the wire, the directory
// remains the source of truth.
func (s *Server) reportTrade(trade domain.Trade) {
	buyerReport, sellerReport := protocol.TradeReports(trade)

	if buyer, ok := s.engine.Order(trade.InstrumentID, trade.BuyerOrderID); ok {
		buyerReport.Status = buyer.Status
	}
	if seller, ok := s.engine.Order(trade.InstrumentID, trade.SellerOrderID); ok {
		sellerReport.Status = seller.Status
	}

	s.mu.Lock()
	sessions := make([]*clientSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.send(buyerReport)
		_ = sess.send(sellerReport)
	}
}

func (s *Server) handleCancelOrder(session *clientSession, msg *protocol.CancelOrderMessage) {
	order, ok := s.engine.Cancel(msg.InstrumentID, msg.OrderID)
	if !ok {
		_ = session.send(protocol.NewErrorReport(fmt.Errorf("order %s not cancellable", msg.OrderID)))
		return
	}
	_ = session.send(&protocol.Report{
		MessageType:  protocol.ExecutionReport,
		Side:         order.Side,
		InstrumentID: order.InstrumentID,
		OrderID:      order.ID,
		Status:       order.Status,
		Price:        order.Price,
		Quantity:     order.RemainingQuantity,
	})
}
