package scalerize

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSessionBusy is returned when an operation is attempted while
	// another request is still in flight on the same session. The protocol
	// has no request identifiers, so overlapping exchanges would corrupt
	// framing; the guard fails fast instead.
	ErrSessionBusy = errors.New("scalerize: request already in flight on this session")

	// ErrSessionBroken is returned once a transport or protocol failure has
	// left the connection in an undefined state. The protocol has no
	// resynchronization primitive; the only recovery is a new Connect.
	ErrSessionBroken = errors.New("scalerize: session broken, reconnect required")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("scalerize: session closed")
)

// ServerError is an application-level failure reported by the server in a
// well-formed error response (for example "key not found" on GET). It is an
// expected, recoverable outcome: the session remains usable afterward.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "scalerize: server: " + e.Message
}

// serverError builds a ServerError from an error response payload, decoding
// it as text and replacing invalid UTF-8 sequences.
func serverError(payload []byte) *ServerError {
	msg := string(payload)
	if !utf8.ValidString(msg) {
		msg = strings.ToValidUTF8(msg, string(utf8.RuneError))
	}
	return &ServerError{Message: msg}
}
