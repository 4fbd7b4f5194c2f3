package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when a response frame contains no bytes.
	// A valid frame carries at minimum the one status byte.
	ErrEmptyResponse = errors.New("scalerize: empty response")
)

// UnknownStatusError reports a response whose status byte is neither
// StatusSuccess nor StatusError. It indicates the connection is
// desynchronized, which is distinct from a server-reported application
// error.
type UnknownStatusError struct {
	Status  byte
	Payload []byte
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("scalerize: unknown response status 0x%02x (%d payload bytes)", e.Status, len(e.Payload))
}

// Response is one decoded response frame. On success the payload is the
// value data (possibly empty); on error it is a UTF-8 message from the
// server.
//
// The payload aliases the buffer given to DecodeResponse; callers that
// retain it past the next read must copy it.
type Response struct {
	Status  byte
	Payload []byte
}

// OK reports whether the server accepted the request.
func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}

// DecodeResponse splits a raw response frame into status and payload.
//
// An empty frame yields ErrEmptyResponse. A status byte outside
// {StatusError, StatusSuccess} yields *UnknownStatusError rather than being
// silently accepted.
func DecodeResponse(frame []byte) (*Response, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyResponse
	}

	status, payload := frame[0], frame[1:]

	if status != StatusSuccess && status != StatusError {
		return nil, &UnknownStatusError{Status: status, Payload: payload}
	}

	return &Response{Status: status, Payload: payload}, nil
}
