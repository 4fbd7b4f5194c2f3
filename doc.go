// Package scalerize is a client for the Scalerize key-value store, reached
// over a local stream socket with a fixed-header binary protocol.
//
// A Session owns one connection and runs strictly synchronous exchanges:
// one request, then one response, never pipelined. The wire codec lives in
// the protocol subpackage.
//
//	session, err := scalerize.Connect(ctx, scalerize.Config{})
//	if err != nil { ... }
//	defer session.Close()
//
//	err = session.Put(ctx, 2, []byte("name"), []byte("Hello, Scalerize!"))
//	err = session.Write(ctx) // commit, so the Get below can see the Put
//	value, err := session.Get(ctx, 2, []byte("name"))
//
// Mutations are not durable or visible to Gets until a Write commits them;
// that ordering is the caller's responsibility.
package scalerize
