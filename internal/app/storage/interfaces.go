package storage

import (
	"context"
	"errors"

	"github.com/draco-labs/draco-protocol/internal/app/domain/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/domain/vesting"
)

// ErrNotFound is returned by every store when the requested record does not
// exist, so callers can branch without knowing the backend.
var ErrNotFound = errors.New("record not found")

// LotteryStore persists lotteries and their tickets.
type LotteryStore interface {
	CreateLottery(ctx context.Context, lot lottery.Lottery) (lottery.Lottery, error)
	UpdateLottery(ctx context.Context, lot lottery.Lottery) (lottery.Lottery, error)
	GetLottery(ctx context.Context, id string) (lottery.Lottery, error)
	ListLotteries(ctx context.Context) ([]lottery.Lottery, error)

	CreateTicket(ctx context.Context, tkt lottery.Ticket) (lottery.Ticket, error)
	UpdateTicket(ctx context.Context, tkt lottery.Ticket) (lottery.Ticket, error)
	GetTicket(ctx context.Context, lotteryID, participant, combination string) (lottery.Ticket, error)
	ListTickets(ctx context.Context, lotteryID string) ([]lottery.Ticket, error)
	ListTicketsByParticipant(ctx context.Context, lotteryID, participant string) ([]lottery.Ticket, error)
}

// RewardFactorsStore persists the protocol-wide reward parameters.
type RewardFactorsStore interface {
	GetRewardFactors(ctx context.Context) (lottery.RewardFactors, error)
	SaveRewardFactors(ctx context.Context, f lottery.RewardFactors) (lottery.RewardFactors, error)
}

// AuthorityStore persists the protocol authority record.
type AuthorityStore interface {
	GetAuthority(ctx context.Context) (string, error)
	SaveAuthority(ctx context.Context, account string) error
}

// AirdropStore persists airdrops and claim receipts.
type AirdropStore interface {
	CreateAirdrop(ctx context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error)
	UpdateAirdrop(ctx context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error)
	GetAirdrop(ctx context.Context, id string) (airdrop.Airdrop, error)
	ListAirdrops(ctx context.Context) ([]airdrop.Airdrop, error)

	CreateAirdropClaim(ctx context.Context, claim airdrop.Claim) (airdrop.Claim, error)
	GetAirdropClaim(ctx context.Context, airdropID, claimer string) (airdrop.Claim, error)
}

// CliffStore persists the six-month cliff state.
type CliffStore interface {
	GetCliff(ctx context.Context) (vesting.Cliff, error)
	SaveCliff(ctx context.Context, c vesting.Cliff) (vesting.Cliff, error)
}
