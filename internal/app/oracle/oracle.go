package oracle

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUnknownRequest = errors.New("unknown randomness request")
	ErrNotResolved    = errors.New("randomness not resolved")
)

// Request is the metadata of a pending randomness request. SeedSlot is the
// slot whose hash seeds the eventual value; commitments are only accepted
// while the seed is one slot old.
type Request struct {
	ID       string
	SeedSlot uint64
}

// Oracle delivers verifiable randomness. Resolve returns the revealed bytes
// once the oracle has produced them, or ErrNotResolved until then.
type Oracle interface {
	Request(ctx context.Context, id string) (Request, error)
	Resolve(ctx context.Context, id string, currentSlot uint64) ([]byte, error)
}

// MemoryOracle is a staged oracle for tests and local development.
type MemoryOracle struct {
	mu       sync.RWMutex
	requests map[string]Request
	values   map[string][]byte
}

var _ Oracle = (*MemoryOracle)(nil)

func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{
		requests: make(map[string]Request),
		values:   make(map[string][]byte),
	}
}

// Stage registers a pending request seeded at the given slot.
func (o *MemoryOracle) Stage(id string, seedSlot uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests[id] = Request{ID: id, SeedSlot: seedSlot}
}

// Fulfill records the revealed bytes for a staged request.
func (o *MemoryOracle) Fulfill(id string, value []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[id] = append([]byte(nil), value...)
}

func (o *MemoryOracle) Request(_ context.Context, id string) (Request, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	req, ok := o.requests[id]
	if !ok {
		return Request{}, ErrUnknownRequest
	}
	return req, nil
}

func (o *MemoryOracle) Resolve(_ context.Context, id string, _ uint64) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if _, ok := o.requests[id]; !ok {
		return nil, ErrUnknownRequest
	}
	value, ok := o.values[id]
	if !ok {
		return nil, ErrNotResolved
	}
	return append([]byte(nil), value...), nil
}
