package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"firestige.xyz/dsdriver/internal/log"
)

// Config selects how a Manager reaches the capture source: a local Unix
// domain socket the driver either listens on or dials, or a TCP address
// for a networked capture process.
type Config struct {
	Mode        string // "unix" | "tcp"
	Address     string
	Listen      bool
	DialTimeout time.Duration
}

// Manager owns the listener (when acting as server) or performs the dial
// (when acting as client) and produces a Stream for the single connection
// the driver uses, per spec.md §1's one-driver-one-source model.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

// NewManager constructs a Manager for cfg. It does not connect yet.
func NewManager(cfg Config) *Manager {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &Manager{cfg: cfg}
}

// Connect returns a Stream for the single connection this driver instance
// uses. In listener mode it blocks until a peer connects or ctx is
// cancelled; in dialer mode it dials immediately.
func (m *Manager) Connect(ctx context.Context) (Stream, error) {
	if m.cfg.Listen {
		return m.accept(ctx)
	}
	return m.dial(ctx)
}

// accept binds a listener (removing a stale Unix socket file first, as
// the teacher's uds_server.go does) and accepts exactly one connection.
func (m *Manager) accept(ctx context.Context) (Stream, error) {
	if m.cfg.Mode == "unix" {
		if err := os.RemoveAll(m.cfg.Address); err != nil {
			return nil, fmt.Errorf("failed to remove existing socket: %w", err)
		}
	}

	listener, err := net.Listen(m.cfg.Mode, m.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s %s: %w", m.cfg.Mode, m.cfg.Address, err)
	}
	if m.cfg.Mode == "unix" {
		if err := os.Chmod(m.cfg.Address, 0600); err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to set socket permissions: %w", err)
		}
	}

	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	if logger := log.GetLogger(); logger != nil {
		logger.WithField("address", m.cfg.Address).Info("transport listening")
	}

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := listener.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		listener.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to accept connection: %w", r.err)
		}
		return NewStream(r.conn, 0), nil
	}
}

// dial connects to a remote listener with a bounded timeout, mirroring
// the teacher's uds_client.go deadline handling.
func (m *Manager) dial(ctx context.Context) (Stream, error) {
	deadline := time.Now().Add(m.cfg.DialTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, m.cfg.Mode, m.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s %s: %w", m.cfg.Mode, m.cfg.Address, err)
	}

	return NewStream(conn, 0), nil
}

// Stop closes the listener, if any. It does not close connections already
// handed out as Streams; callers close those explicitly via Stream.Close.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true

	if m.listener != nil {
		if err := m.listener.Close(); err != nil {
			return err
		}
	}
	if m.cfg.Mode == "unix" && m.cfg.Listen {
		os.RemoveAll(m.cfg.Address)
	}
	return nil
}
