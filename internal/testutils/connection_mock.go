package testutils

import (
	"bytes"
	"net"
	"sync"
	"time"
)

// timeoutError mimics the error a net.Conn read returns when its deadline
// expires while nothing is buffered.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

// ConnectionMock is a mock net.Conn for testing the session without a
// server. Each queued response is delivered by exactly one Read call,
// matching the server's frame-per-read behavior; once the queue is empty,
// Read fails with a timeout, like an idle socket under a read deadline.
type ConnectionMock struct {
	mu        sync.Mutex
	responses [][]byte
	written   bytes.Buffer
	closed    bool

	// ReadHook, if set, runs at the start of every Read. Tests use it to
	// hold a read open while asserting on in-flight state.
	ReadHook func()

	// ReadErr, if set, is returned by every Read instead of data.
	ReadErr error
}

// NewConnectionMock creates a mock connection that will serve the given
// response frames in order, one per Read.
func NewConnectionMock(responses ...[]byte) *ConnectionMock {
	m := &ConnectionMock{}
	for _, r := range responses {
		m.responses = append(m.responses, bytes.Clone(r))
	}
	return m
}

// QueueResponse appends a response frame to be served by a later Read.
func (m *ConnectionMock) QueueResponse(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, bytes.Clone(frame))
}

func (m *ConnectionMock) Read(b []byte) (int, error) {
	if m.ReadHook != nil {
		m.ReadHook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.responses) == 0 {
		return 0, timeoutError{}
	}

	frame := m.responses[0]
	m.responses = m.responses[1:]
	return copy(b, frame), nil
}

func (m *ConnectionMock) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(b)
}

// Written returns all request bytes written so far.
func (m *ConnectionMock) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.written.Bytes())
}

func (m *ConnectionMock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *ConnectionMock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.UnixAddr{Name: "@client", Net: "unix"}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.UnixAddr{Name: "/tmp/scalerize", Net: "unix"}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }
