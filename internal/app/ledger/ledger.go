package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// Authorization proves the right to debit an account. The holder must match
// the debited account; vault addresses authorize themselves because deriving
// the seed path is the proof of control.
type Authorization struct {
	Holder string
}

// Ledger is the external token ledger the protocol moves funds on. Amounts
// are in base units scaled by Decimals.
type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount uint64, auth Authorization) error
	Balance(ctx context.Context, account string) (uint64, error)
	Decimals() uint8
}

// Transfer is a completed ledger movement, kept for audit.
type Transfer struct {
	ID        string
	From      string
	To        string
	Amount    uint64
	CreatedAt time.Time
}

// MemoryLedger is an in-process ledger for tests and local development.
type MemoryLedger struct {
	mu        sync.RWMutex
	decimals  uint8
	balances  map[string]uint64
	transfers []Transfer
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger with the given token precision.
func NewMemoryLedger(decimals uint8) *MemoryLedger {
	return &MemoryLedger{
		decimals: decimals,
		balances: make(map[string]uint64),
	}
}

// Mint credits an account out of thin air. Test and bootstrap use only.
func (l *MemoryLedger) Mint(_ context.Context, account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *MemoryLedger) Transfer(_ context.Context, from, to string, amount uint64, auth Authorization) error {
	if auth.Holder != from {
		return ErrAuthorizationDenied
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return ErrInsufficientFunds
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	l.transfers = append(l.transfers, Transfer{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (l *MemoryLedger) Balance(_ context.Context, account string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) Decimals() uint8 {
	return l.decimals
}

// Transfers returns a copy of the movement log.
func (l *MemoryLedger) Transfers() []Transfer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transfer, len(l.transfers))
	copy(out, l.transfers)
	return out
}
