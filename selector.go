package scalerize

import (
	"github.com/scalerize/scalerize-go/internal"
	"github.com/scalerize/scalerize-go/protocol"
	"github.com/zeebo/xxh3"
)

// StoreSelector maps a key onto one of storeCount store ids.
type StoreSelector func(key []byte, storeCount int) protocol.StoreID

// StoreForKey assigns a key to one of storeCount stores using Jump Hash
// over an xxh3 digest. The assignment is deterministic, and growing
// storeCount only reassigns the minimal fraction of keys.
//
// storeCount must be between 1 and 256; the server's store id is a single
// byte. Note that store 0 doubles as the WRITE sentinel on the wire, which
// does not prevent using it as a regular store.
func StoreForKey(key []byte, storeCount int) protocol.StoreID {
	if storeCount < 1 || storeCount > 256 {
		panic("scalerize: storeCount must be in [1,256]")
	}
	return protocol.StoreID(internal.JumpHash(xxh3.Hash(key), storeCount))
}

// fixedSelector is used in tests to pin every key to one store.
func fixedSelector(store protocol.StoreID) StoreSelector {
	return func(key []byte, storeCount int) protocol.StoreID {
		return store
	}
}
