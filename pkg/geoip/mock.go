package geoip

import (
	"net/netip"
	"sync"
	"sync/atomic"
)

// Mock is an in-memory Lookup for tests. It counts calls so tests can
// assert how many times a caller reached the database.
type Mock struct {
	mu      sync.RWMutex
	records map[netip.Addr]*Record
	err     error

	calls atomic.Int64
}

func NewMock() *Mock {
	return &Mock{records: make(map[netip.Addr]*Record)}
}

func (m *Mock) Set(addr netip.Addr, rec *Record) {
	m.mu.Lock()
	m.records[addr] = rec
	m.mu.Unlock()
}

// Fail makes every subsequent Lookup return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

func (m *Mock) Lookup(addr netip.Addr) (*Record, error) {
	m.calls.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[addr.Unmap()]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}
