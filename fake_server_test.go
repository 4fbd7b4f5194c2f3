package scalerize

import (
	"bufio"
	"net"
	"sync"
	"testing"

	"github.com/scalerize/scalerize-go/protocol"
)

// fakeServer speaks the wire protocol over a real listener with the
// server's commit semantics: PUT stays pending and invisible to GET until a
// WRITE commits it.
type fakeServer struct {
	ln net.Listener

	mu        sync.Mutex
	committed map[protocol.StoreID]map[string][]byte
	pending   map[protocol.StoreID]map[string][]byte
}

func newFakeServer(t *testing.T, network, addr string) *fakeServer {
	t.Helper()

	ln, err := net.Listen(network, addr)
	if err != nil {
		t.Fatalf("failed to start fake server: %v", err)
	}

	s := &fakeServer{
		ln:        ln,
		committed: make(map[protocol.StoreID]map[string][]byte),
		pending:   make(map[protocol.StoreID]map[string][]byte),
	}
	go s.acceptLoop()

	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for {
		req, err := protocol.ReadRequest(reader)
		if err != nil {
			// EOF, closed listener, or a malformed frame: drop the conn
			return
		}

		status, payload := s.apply(req)

		frame := append([]byte{status}, payload...)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

func (s *fakeServer) apply(req *protocol.Request) (byte, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Op {
	case protocol.OpPut:
		if s.pending[req.Store] == nil {
			s.pending[req.Store] = make(map[string][]byte)
		}
		s.pending[req.Store][string(req.Key)] = append([]byte(nil), req.Value...)
		return protocol.StatusSuccess, nil

	case protocol.OpGet:
		value, ok := s.committed[req.Store][string(req.Key)]
		if !ok {
			return protocol.StatusError, []byte("key not found")
		}
		return protocol.StatusSuccess, value

	case protocol.OpDelete:
		key := string(req.Key)
		_, inPending := s.pending[req.Store][key]
		_, inCommitted := s.committed[req.Store][key]
		if !inPending && !inCommitted {
			return protocol.StatusError, []byte("key not found")
		}
		delete(s.pending[req.Store], key)
		delete(s.committed[req.Store], key)
		return protocol.StatusSuccess, nil

	case protocol.OpWrite:
		for store, entries := range s.pending {
			if s.committed[store] == nil {
				s.committed[store] = make(map[string][]byte)
			}
			for key, value := range entries {
				s.committed[store][key] = value
			}
		}
		s.pending = make(map[protocol.StoreID]map[string][]byte)
		return protocol.StatusSuccess, nil
	}

	return protocol.StatusError, []byte("unsupported operation")
}
