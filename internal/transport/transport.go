// Package transport implements the driver's Transport adapter: the
// byte-oriented stream a driver.Source reads frames from and writes
// commands to. The driver core never touches net.Conn directly; it is
// handed a Stream and a set of Callbacks to drive.
package transport

import (
	"bufio"
	"fmt"
	"net"
	"sync"
)

// Callbacks is the consumed interface the driver core registers with a
// Stream. BytesAvailable fires whenever peekable bytes grow; Error fires
// once, after which the stream is considered dead.
type Callbacks interface {
	BytesAvailable(n int)
	Error(reason string)
}

// Stream is the Transport adapter's producer-side contract: peek/consume
// against the inbound buffer, put against the outbound one, plus close.
// The codec never assumes a full frame is present on any call; it is
// driven to a fixed point by repeated Peek/Consume after BytesAvailable.
type Stream interface {
	Peek(n int) ([]byte, error)
	Consume(n int) error
	Put(b []byte) error
	Close(reason string) error
	SetCallbacks(cb Callbacks)

	// Available reports how many bytes are currently buffered and safe
	// to Peek without blocking.
	Available() int
}

// streamConn is the concrete Stream backed by a net.Conn. Reads go
// through a bufio.Reader so Peek can return bytes without consuming them;
// writes go straight to the connection under a write mutex so the driver
// core's sequence counter stays serialized with the bytes actually sent
// (spec.md §5 "Shared resources").
type streamConn struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex

	mu        sync.Mutex
	cb        Callbacks
	closed    bool
	closeOnce sync.Once
}

// NewStream wraps conn as a Stream. bufSize sizes the read buffer; it
// should be comfortably larger than the largest frame the driver expects
// to peek in one call (spec.md §4.1's header plus payload).
func NewStream(conn net.Conn, bufSize int) Stream {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	s := &streamConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, bufSize),
	}
	go s.readLoop()
	return s
}

func (s *streamConn) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

// readLoop blocks on Peek(1), which blocks until at least one byte is
// available or the connection errors, then reports how many bytes are
// currently buffered. It loops for the lifetime of the connection.
func (s *streamConn) readLoop() {
	for {
		if _, err := s.reader.Peek(1); err != nil {
			s.notifyError(fmt.Sprintf("read error: %v", err))
			return
		}

		s.mu.Lock()
		cb := s.cb
		n := s.reader.Buffered()
		s.mu.Unlock()

		if cb != nil {
			cb.BytesAvailable(n)
		}
	}
}

func (s *streamConn) notifyError(reason string) {
	s.mu.Lock()
	cb := s.cb
	already := s.closed
	s.closed = true
	s.mu.Unlock()

	if !already && cb != nil {
		cb.Error(reason)
	}
}

// Peek returns the first n buffered bytes without consuming them. It
// never blocks on the network: if fewer than n bytes are currently
// buffered it returns ErrShortBuffer immediately rather than reading
// more, since the driver core calls Peek from within its instance
// mutex and must not stall holding it.
func (s *streamConn) Peek(n int) ([]byte, error) {
	if s.reader.Buffered() < n {
		return nil, ErrShortBuffer
	}
	return s.reader.Peek(n)
}

// ErrShortBuffer is returned by Peek when fewer than the requested
// number of bytes are currently buffered.
var ErrShortBuffer = fmt.Errorf("transport: fewer bytes buffered than requested")

func (s *streamConn) Available() int {
	return s.reader.Buffered()
}

func (s *streamConn) Consume(n int) error {
	_, err := s.reader.Discard(n)
	return err
}

func (s *streamConn) Put(b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(b)
	return err
}

func (s *streamConn) Close(reason string) error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}
