package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrUnknownOp is returned by ReadRequest for an unrecognized operation tag.
	ErrUnknownOp = errors.New("scalerize: unknown operation")
)

// Request is a single client operation ready to be framed. Fields are set by
// the constructors and must not be mutated afterward.
//
// Wire layout (all integers big-endian):
//
//	PUT    | 0x01 | store(1) | keyLen(4) | key | valueLen(4) | value |
//	GET    | 0x02 | store(1) | keyLen(4) | key |
//	DELETE | 0x03 | store(1) | keyLen(4) | key |
//	WRITE  | 0x04 | store(1)=0x00 |
type Request struct {
	Op    Op
	Store StoreID
	Key   []byte
	Value []byte
}

// NewPut builds a request to store value under key in the given store.
func NewPut(store StoreID, key, value []byte) *Request {
	return &Request{Op: OpPut, Store: store, Key: key, Value: value}
}

// NewGet builds a request to fetch the value stored under key.
func NewGet(store StoreID, key []byte) *Request {
	return &Request{Op: OpGet, Store: store, Key: key}
}

// NewDelete builds a request to remove key from the given store.
func NewDelete(store StoreID, key []byte) *Request {
	return &Request{Op: OpDelete, Store: store, Key: key}
}

// NewWrite builds a request asking the server to commit pending mutations.
// The store id is fixed at GlobalStore.
func NewWrite() *Request {
	return &Request{Op: OpWrite, Store: GlobalStore}
}

// Encode serializes the request per the wire layout above.
//
// A key or value longer than math.MaxUint32 bytes cannot be framed; that is
// a contract violation by the caller and Encode panics rather than
// returning an error.
func (r *Request) Encode() []byte {
	buf := make([]byte, 0, 2+8+len(r.Key)+len(r.Value))
	buf = append(buf, byte(r.Op), byte(r.Store))

	if r.Op == OpWrite {
		return buf
	}

	buf = binary.BigEndian.AppendUint32(buf, fieldLen("key", r.Key))
	buf = append(buf, r.Key...)

	if r.Op == OpPut {
		buf = binary.BigEndian.AppendUint32(buf, fieldLen("value", r.Value))
		buf = append(buf, r.Value...)
	}

	return buf
}

func fieldLen(name string, b []byte) uint32 {
	if uint64(len(b)) > math.MaxUint32 {
		panic(fmt.Sprintf("scalerize: %s length %d exceeds the 32-bit frame limit", name, len(b)))
	}
	return uint32(len(b))
}

// ReadRequest reads and decodes exactly one request frame from r. It is the
// inverse of Encode and blocks until the full frame has been read.
//
// The client never calls this on its own connection; it exists for servers
// and tests that need to consume the client's frames.
func ReadRequest(r io.Reader) (*Request, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	req := &Request{Op: Op(header[0]), Store: StoreID(header[1])}

	switch req.Op {
	case OpWrite:
		return req, nil
	case OpPut, OpGet, OpDelete:
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOp, header[0])
	}

	key, err := readField(r)
	if err != nil {
		return nil, fmt.Errorf("scalerize: read %s key: %w", req.Op, err)
	}
	req.Key = key

	if req.Op == OpPut {
		value, err := readField(r)
		if err != nil {
			return nil, fmt.Errorf("scalerize: read %s value: %w", req.Op, err)
		}
		req.Value = value
	}

	return req, nil
}

// readField reads one (4-byte big-endian length, raw bytes) field.
func readField(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}

	field := make([]byte, length)
	if _, err := io.ReadFull(r, field); err != nil {
		return nil, err
	}
	return field, nil
}
