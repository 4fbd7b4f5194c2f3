package scalerize

import "sync/atomic"

// Stats is a snapshot of session operation counters.
//
// For Prometheus integration, expose these as counters (with an operation
// label) and derive the GET hit rate as GetHits/Gets.
type Stats struct {
	Puts    uint64 // Successful Put operations
	Gets    uint64 // Get operations answered by the server (hit or miss)
	GetHits uint64 // Get operations that returned a value
	Deletes uint64 // Successful Delete operations
	Writes  uint64 // Successful Write (commit) operations
	Errors  uint64 // Transport, protocol, and non-GET application errors
}

// statsCollector accumulates counters with atomic operations so Stats()
// can be read while a request is in flight.
type statsCollector struct {
	puts    atomic.Uint64
	gets    atomic.Uint64
	getHits atomic.Uint64
	deletes atomic.Uint64
	writes  atomic.Uint64
	errors  atomic.Uint64
}

func (c *statsCollector) snapshot() Stats {
	return Stats{
		Puts:    c.puts.Load(),
		Gets:    c.gets.Load(),
		GetHits: c.getHits.Load(),
		Deletes: c.deletes.Load(),
		Writes:  c.writes.Load(),
		Errors:  c.errors.Load(),
	}
}
