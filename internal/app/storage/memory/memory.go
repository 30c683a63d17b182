package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draco-labs/draco-protocol/internal/app/domain/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/domain/vesting"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	lotteries     map[string]lottery.Lottery
	tickets       map[string]lottery.Ticket
	ticketsByKey  map[string]string
	factors       *lottery.RewardFactors
	authority     string
	airdrops      map[string]airdrop.Airdrop
	airdropClaims map[string]airdrop.Claim
	cliff         *vesting.Cliff
}

var _ storage.LotteryStore = (*Store)(nil)
var _ storage.RewardFactorsStore = (*Store)(nil)
var _ storage.AuthorityStore = (*Store)(nil)
var _ storage.AirdropStore = (*Store)(nil)
var _ storage.CliffStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:        1,
		lotteries:     make(map[string]lottery.Lottery),
		tickets:       make(map[string]lottery.Ticket),
		ticketsByKey:  make(map[string]string),
		airdrops:      make(map[string]airdrop.Airdrop),
		airdropClaims: make(map[string]airdrop.Claim),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func ticketKey(lotteryID, participant, combination string) string {
	return lotteryID + "|" + participant + "|" + combination
}

func claimKey(airdropID, claimer string) string {
	return airdropID + "|" + claimer
}

// LotteryStore implementation -------------------------------------------------

func (s *Store) CreateLottery(_ context.Context, lot lottery.Lottery) (lottery.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lot.ID == "" {
		lot.ID = s.nextIDLocked()
	} else if _, exists := s.lotteries[lot.ID]; exists {
		return lottery.Lottery{}, fmt.Errorf("lottery %s already exists", lot.ID)
	}

	now := time.Now().UTC()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	s.lotteries[lot.ID] = lot
	return lot, nil
}

func (s *Store) UpdateLottery(_ context.Context, lot lottery.Lottery) (lottery.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.lotteries[lot.ID]
	if !ok {
		return lottery.Lottery{}, fmt.Errorf("lottery %s: %w", lot.ID, storage.ErrNotFound)
	}

	lot.CreatedAt = original.CreatedAt
	lot.UpdatedAt = time.Now().UTC()

	s.lotteries[lot.ID] = lot
	return lot, nil
}

func (s *Store) GetLottery(_ context.Context, id string) (lottery.Lottery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lot, ok := s.lotteries[id]
	if !ok {
		return lottery.Lottery{}, fmt.Errorf("lottery %s: %w", id, storage.ErrNotFound)
	}
	return lot, nil
}

func (s *Store) ListLotteries(_ context.Context) ([]lottery.Lottery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]lottery.Lottery, 0, len(s.lotteries))
	for _, lot := range s.lotteries {
		result = append(result, lot)
	}
	return result, nil
}

func (s *Store) CreateTicket(_ context.Context, tkt lottery.Ticket) (lottery.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ticketKey(tkt.LotteryID, tkt.Participant, tkt.Combination)
	if _, exists := s.ticketsByKey[key]; exists {
		return lottery.Ticket{}, fmt.Errorf("ticket %s already exists", key)
	}

	if tkt.ID == "" {
		tkt.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	tkt.CreatedAt = now
	tkt.UpdatedAt = now

	s.tickets[tkt.ID] = tkt
	s.ticketsByKey[key] = tkt.ID
	return tkt, nil
}

func (s *Store) UpdateTicket(_ context.Context, tkt lottery.Ticket) (lottery.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.tickets[tkt.ID]
	if !ok {
		return lottery.Ticket{}, fmt.Errorf("ticket %s: %w", tkt.ID, storage.ErrNotFound)
	}

	tkt.CreatedAt = original.CreatedAt
	tkt.UpdatedAt = time.Now().UTC()

	s.tickets[tkt.ID] = tkt
	return tkt, nil
}

func (s *Store) GetTicket(_ context.Context, lotteryID, participant, combination string) (lottery.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ticketsByKey[ticketKey(lotteryID, participant, combination)]
	if !ok {
		return lottery.Ticket{}, fmt.Errorf("ticket: %w", storage.ErrNotFound)
	}
	return s.tickets[id], nil
}

func (s *Store) ListTickets(_ context.Context, lotteryID string) ([]lottery.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]lottery.Ticket, 0)
	for _, tkt := range s.tickets {
		if tkt.LotteryID == lotteryID {
			result = append(result, tkt)
		}
	}
	return result, nil
}

func (s *Store) ListTicketsByParticipant(_ context.Context, lotteryID, participant string) ([]lottery.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]lottery.Ticket, 0)
	for _, tkt := range s.tickets {
		if tkt.LotteryID == lotteryID && tkt.Participant == participant {
			result = append(result, tkt)
		}
	}
	return result, nil
}

// RewardFactorsStore implementation -------------------------------------------

func (s *Store) GetRewardFactors(_ context.Context) (lottery.RewardFactors, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.factors == nil {
		return lottery.RewardFactors{}, fmt.Errorf("reward factors: %w", storage.ErrNotFound)
	}
	return cloneFactors(*s.factors), nil
}

func (s *Store) SaveRewardFactors(_ context.Context, f lottery.RewardFactors) (lottery.RewardFactors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if s.factors == nil {
		f.CreatedAt = now
	} else {
		f.CreatedAt = s.factors.CreatedAt
	}
	f.UpdatedAt = now

	stored := cloneFactors(f)
	s.factors = &stored
	return cloneFactors(stored), nil
}

// AuthorityStore implementation -----------------------------------------------

func (s *Store) GetAuthority(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.authority == "" {
		return "", fmt.Errorf("authority: %w", storage.ErrNotFound)
	}
	return s.authority, nil
}

func (s *Store) SaveAuthority(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authority = account
	return nil
}

// AirdropStore implementation -------------------------------------------------

func (s *Store) CreateAirdrop(_ context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if drop.ID == "" {
		drop.ID = s.nextIDLocked()
	} else if _, exists := s.airdrops[drop.ID]; exists {
		return airdrop.Airdrop{}, fmt.Errorf("airdrop %s already exists", drop.ID)
	}

	now := time.Now().UTC()
	drop.CreatedAt = now
	drop.UpdatedAt = now

	s.airdrops[drop.ID] = drop
	return drop, nil
}

func (s *Store) UpdateAirdrop(_ context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.airdrops[drop.ID]
	if !ok {
		return airdrop.Airdrop{}, fmt.Errorf("airdrop %s: %w", drop.ID, storage.ErrNotFound)
	}

	drop.CreatedAt = original.CreatedAt
	drop.UpdatedAt = time.Now().UTC()

	s.airdrops[drop.ID] = drop
	return drop, nil
}

func (s *Store) GetAirdrop(_ context.Context, id string) (airdrop.Airdrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drop, ok := s.airdrops[id]
	if !ok {
		return airdrop.Airdrop{}, fmt.Errorf("airdrop %s: %w", id, storage.ErrNotFound)
	}
	return drop, nil
}

func (s *Store) ListAirdrops(_ context.Context) ([]airdrop.Airdrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]airdrop.Airdrop, 0, len(s.airdrops))
	for _, drop := range s.airdrops {
		result = append(result, drop)
	}
	return result, nil
}

func (s *Store) CreateAirdropClaim(_ context.Context, claim airdrop.Claim) (airdrop.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := claimKey(claim.AirdropID, claim.Claimer)
	if _, exists := s.airdropClaims[key]; exists {
		return airdrop.Claim{}, fmt.Errorf("airdrop claim %s already exists", key)
	}

	if claim.ID == "" {
		claim.ID = s.nextIDLocked()
	}
	claim.CreatedAt = time.Now().UTC()

	s.airdropClaims[key] = claim
	return claim, nil
}

func (s *Store) GetAirdropClaim(_ context.Context, airdropID, claimer string) (airdrop.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.airdropClaims[claimKey(airdropID, claimer)]
	if !ok {
		return airdrop.Claim{}, fmt.Errorf("airdrop claim: %w", storage.ErrNotFound)
	}
	return claim, nil
}

// CliffStore implementation ---------------------------------------------------

func (s *Store) GetCliff(_ context.Context) (vesting.Cliff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cliff == nil {
		return vesting.Cliff{}, fmt.Errorf("cliff: %w", storage.ErrNotFound)
	}
	return *s.cliff, nil
}

func (s *Store) SaveCliff(_ context.Context, c vesting.Cliff) (vesting.Cliff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if s.cliff == nil {
		c.CreatedAt = now
	} else {
		c.CreatedAt = s.cliff.CreatedAt
	}
	c.UpdatedAt = now

	stored := c
	s.cliff = &stored
	return stored, nil
}

func cloneFactors(f lottery.RewardFactors) lottery.RewardFactors {
	f.SuitStreaks = append([]float64(nil), f.SuitStreaks...)
	f.ValueStreaks = append([]float64(nil), f.ValueStreaks...)
	return f
}
