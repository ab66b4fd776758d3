package driver

import (
	"fmt"
	"sync"

	"firestige.xyz/dsdriver/internal/transport"
)

// fakeStream is an in-memory transport.Stream double. feed appends bytes
// to the inbound side and fires BytesAvailable synchronously, so tests
// never need to wait on a goroutine.
type fakeStream struct {
	mu          sync.Mutex
	inbound     []byte
	written     [][]byte
	cb          transport.Callbacks
	closed      bool
	closeReason string
	putErr      error
}

func newFakeStream() *fakeStream {
	return &fakeStream{}
}

func (f *fakeStream) SetCallbacks(cb transport.Callbacks) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *fakeStream) Available() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inbound)
}

func (f *fakeStream) Peek(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbound) < n {
		return nil, transport.ErrShortBuffer
	}
	return f.inbound[:n], nil
}

func (f *fakeStream) Consume(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.inbound) {
		return fmt.Errorf("fakeStream: consume %d exceeds buffered %d", n, len(f.inbound))
	}
	f.inbound = f.inbound[n:]
	return nil
}

func (f *fakeStream) Put(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeStream) Close(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeReason = reason
	return nil
}

// feed simulates b arriving on the wire and drives the registered
// callback the way transport.streamConn's readLoop would.
func (f *fakeStream) feed(b []byte) {
	f.mu.Lock()
	f.inbound = append(f.inbound, b...)
	n := len(f.inbound)
	cb := f.cb
	f.mu.Unlock()

	if cb != nil {
		cb.BytesAvailable(n)
	}
}

func (f *fakeStream) lastWritten() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

func (f *fakeStream) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
