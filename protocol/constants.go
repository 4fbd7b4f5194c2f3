package protocol

// Op is the operation tag carried in the first byte of every request frame.
type Op byte

const (
	OpPut    Op = 0x01 // Store a value under a key
	OpGet    Op = 0x02 // Fetch the value stored under a key
	OpDelete Op = 0x03 // Remove a key
	OpWrite  Op = 0x04 // Commit pending mutations (global, no key)
)

// String returns the operation name used in errors and debug logs.
func (o Op) String() string {
	switch o {
	case OpPut:
		return "PUT"
	case OpGet:
		return "GET"
	case OpDelete:
		return "DELETE"
	case OpWrite:
		return "WRITE"
	}
	return "UNKNOWN"
}

// StoreID selects a logical namespace within the server. The full byte
// range 0-255 is valid; the client performs no further validation.
type StoreID byte

// GlobalStore is the store id carried by WRITE frames. WRITE commits
// pending mutations across all stores, so it has no store of its own.
const GlobalStore StoreID = 0x00

// Response status bytes. Any other value is a protocol violation.
const (
	StatusError   byte = 0x00 // Application error, payload is a UTF-8 message
	StatusSuccess byte = 0x01 // Success, payload is the value (GET) or empty
)
