package scalerize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/scalerize/scalerize-go/protocol"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultAddress is the Unix socket path the server listens on by default.
	DefaultAddress = "/tmp/scalerize"

	// DefaultNetwork is the transport used when Config.Network is empty.
	DefaultNetwork = "unix"

	// defaultReadBufferSize matches the server's frame-per-read delivery;
	// see Config.ReadBufferSize for the caveats.
	defaultReadBufferSize = 4096

	// drainReadTimeout bounds each poll of DrainPending. The drain ends on
	// the first read that times out with nothing buffered.
	drainReadTimeout = 10 * time.Millisecond
)

// Config holds configuration for a session. The zero value connects to
// DefaultAddress over a Unix socket with no logging, rate limiting, or
// circuit breaking.
type Config struct {
	// Network is the transport network, "unix" or "tcp".
	// Defaults to DefaultNetwork.
	Network string

	// Address is the socket path (unix) or host:port (tcp) of the server.
	// Defaults to DefaultAddress.
	Address string

	// Dialer is the net.Dialer used to open the connection.
	// If nil, a default net.Dialer is used.
	Dialer *net.Dialer

	// Logger receives debug-level request/response diagnostics.
	// If nil, diagnostics are discarded.
	Logger *slog.Logger

	// ReadBufferSize is the size of the response read buffer.
	// Defaults to 4096. The server's frames are not self-delimiting, so a
	// response larger than one read cannot be reassembled; raising this is
	// the only mitigation.
	ReadBufferSize int

	// Limiter, if set, is waited on before every request.
	Limiter *rate.Limiter

	// CircuitBreakerSettings, if set, wraps every exchange in a circuit
	// breaker. Settings.Name defaults to the server address.
	CircuitBreakerSettings *gobreaker.Settings
}

// Session owns one connected stream to the server and drives the strictly
// synchronous request/response exchange: at most one request may be in
// flight at any time, enforced by an explicit guard.
//
// A Session is not safe for concurrent use; an overlapping call fails with
// ErrSessionBusy rather than corrupting the stream.
type Session struct {
	conn    net.Conn
	logger  *slog.Logger
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*protocol.Response]

	busy   atomic.Bool
	broken atomic.Bool
	closed atomic.Bool

	// buf receives exactly one response frame per exchange
	buf []byte

	stats statsCollector
}

// Connect opens a connection to the server and returns a ready session.
// This is the sole constructor; a Session has no unconnected state.
func Connect(ctx context.Context, config Config) (*Session, error) {
	network := config.Network
	if network == "" {
		network = DefaultNetwork
	}

	addr := config.Address
	if addr == "" {
		addr = DefaultAddress
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("scalerize: connect %s %s: %w", network, addr, err)
	}

	return newSession(conn, config), nil
}

// newSession wires a session around an established connection.
func newSession(conn net.Conn, config Config) *Session {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bufSize := config.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}

	s := &Session{
		conn:    conn,
		logger:  logger,
		limiter: config.Limiter,
		buf:     make([]byte, bufSize),
	}

	if config.CircuitBreakerSettings != nil {
		settings := *config.CircuitBreakerSettings
		if settings.Name == "" {
			settings.Name = conn.RemoteAddr().String()
		}
		s.breaker = gobreaker.NewCircuitBreaker[*protocol.Response](settings)
	}

	return s
}

// Addr returns the remote address of the underlying connection.
func (s *Session) Addr() string {
	return s.conn.RemoteAddr().String()
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

// Put stores value under key in the given store. The mutation is not
// guaranteed durable or visible to subsequent Gets until a Write.
func (s *Session) Put(ctx context.Context, store protocol.StoreID, key, value []byte) error {
	resp, err := s.exchange(ctx, protocol.NewPut(store, key, value))
	if err != nil {
		s.stats.errors.Add(1)
		return err
	}
	if !resp.OK() {
		s.stats.errors.Add(1)
		return serverError(resp.Payload)
	}
	s.stats.puts.Add(1)
	return nil
}

// Get returns the value stored under key. A missing key is reported by the
// server as a *ServerError, not a transport or protocol failure.
func (s *Session) Get(ctx context.Context, store protocol.StoreID, key []byte) ([]byte, error) {
	resp, err := s.exchange(ctx, protocol.NewGet(store, key))
	if err != nil {
		s.stats.errors.Add(1)
		return nil, err
	}
	if !resp.OK() {
		s.stats.gets.Add(1)
		return nil, serverError(resp.Payload)
	}
	s.stats.gets.Add(1)
	s.stats.getHits.Add(1)

	// The payload aliases the session read buffer; hand the caller a copy.
	return bytes.Clone(resp.Payload), nil
}

// Delete removes key from the given store.
func (s *Session) Delete(ctx context.Context, store protocol.StoreID, key []byte) error {
	resp, err := s.exchange(ctx, protocol.NewDelete(store, key))
	if err != nil {
		s.stats.errors.Add(1)
		return err
	}
	if !resp.OK() {
		s.stats.errors.Add(1)
		return serverError(resp.Payload)
	}
	s.stats.deletes.Add(1)
	return nil
}

// Write asks the server to commit pending mutations so they become durable
// and visible to subsequent Gets. Callers must invoke it after mutating
// operations when cross-operation visibility is required; the protocol does
// not order Put against Get on its own.
func (s *Session) Write(ctx context.Context) error {
	resp, err := s.exchange(ctx, protocol.NewWrite())
	if err != nil {
		s.stats.errors.Add(1)
		return err
	}
	if !resp.OK() {
		s.stats.errors.Add(1)
		return serverError(resp.Payload)
	}
	s.stats.writes.Add(1)
	return nil
}

// DrainPending reads any unsolicited bytes buffered on the connection and
// returns them in read-sized chunks, without interpreting them as response
// frames. It is diagnostic only.
//
// Each poll uses a short read deadline; a timed-out read or EOF ends the
// drain cleanly. Any other I/O error ends it early and is returned together
// with whatever was collected. The blocking read contract is restored on
// every exit path.
func (s *Session) DrainPending() ([][]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.busy.Store(false)
	defer s.conn.SetReadDeadline(time.Time{})

	var chunks [][]byte
	buf := make([]byte, len(s.buf))

	for {
		s.conn.SetReadDeadline(time.Now().Add(drainReadTimeout))

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.logger.Debug("scalerize: drained unsolicited bytes", "len", n)
			chunks = append(chunks, bytes.Clone(buf[:n]))
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return chunks, nil
			}
			if errors.Is(err, io.EOF) {
				return chunks, nil
			}
			return chunks, fmt.Errorf("scalerize: drain: %w", err)
		}
	}
}

// Stats returns a snapshot of the operation counters.
func (s *Session) Stats() Stats {
	return s.stats.snapshot()
}

// BreakerState reports the circuit breaker state. The second return value
// is false when no breaker is configured.
func (s *Session) BreakerState() (gobreaker.State, bool) {
	if s.breaker == nil {
		return gobreaker.StateClosed, false
	}
	return s.breaker.State(), true
}

// exchange runs one full request/response cycle, applying the in-flight
// guard, the rate limiter, and the circuit breaker around the raw exchange.
func (s *Session) exchange(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if s.broken.Load() {
		return nil, ErrSessionBroken
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.busy.Store(false)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("scalerize: rate limit: %w", err)
		}
	}

	if s.breaker != nil {
		return s.breaker.Execute(func() (*protocol.Response, error) {
			return s.roundTrip(ctx, req)
		})
	}
	return s.roundTrip(ctx, req)
}

// roundTrip writes one encoded frame and reads one response frame.
//
// net.Conn.Write transmits the whole frame or fails, so there is no partial
// write state to resume from. The response is taken from a single read: the
// server's frames carry no length and cannot be reassembled across reads.
func (s *Session) roundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetDeadline(deadline)
	} else {
		s.conn.SetDeadline(time.Time{})
	}

	frame := req.Encode()
	s.logger.Debug("scalerize: request", "op", req.Op.String(), "store", uint8(req.Store), "frame_len", len(frame))

	if _, err := s.conn.Write(frame); err != nil {
		s.broken.Store(true)
		return nil, fmt.Errorf("scalerize: write %s: %w", req.Op, err)
	}

	n, err := s.conn.Read(s.buf)
	if err != nil {
		s.broken.Store(true)
		return nil, fmt.Errorf("scalerize: read %s response: %w", req.Op, err)
	}

	resp, err := protocol.DecodeResponse(s.buf[:n])
	if err != nil {
		// Empty or unrecognized frame means the stream is desynchronized
		s.broken.Store(true)
		return nil, err
	}

	s.logger.Debug("scalerize: response", "op", req.Op.String(), "status", resp.Status, "payload_len", len(resp.Payload))
	return resp, nil
}
