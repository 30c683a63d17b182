package vault

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"

	"github.com/draco-labs/draco-protocol/internal/app/ledger"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var (
	ErrArithmeticOverflow       = errors.New("arithmetic overflow")
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")
)

// Seed is the ordered derivation path of a vault. Any caller able to
// reconstruct the path controls the vault; there is no key material.
type Seed [][]byte

// TreasurySeed derives the protocol treasury vault.
func TreasurySeed() Seed {
	return Seed{[]byte("treasury")}
}

// CliffSeed derives the six-month cliff vault.
func CliffSeed() Seed {
	return Seed{[]byte("six_month_cliff")}
}

// LotterySeed derives the prize vault of a single lottery.
func LotterySeed(lotteryID string) Seed {
	return Seed{[]byte("lottery_vault"), []byte(lotteryID)}
}

// DeriveAddress maps a seed path to its ledger address. Each element is
// length-prefixed before hashing so distinct paths can never collide.
func DeriveAddress(seed Seed) string {
	h := sha3.New256()
	for _, elem := range seed {
		var prefix [4]byte
		binary.LittleEndian.PutUint32(prefix[:], uint32(len(elem)))
		h.Write(prefix[:])
		h.Write(elem)
	}
	return base58.Encode(h.Sum(nil))
}

// Service moves protocol funds between derived vaults and participant
// accounts on the external token ledger.
type Service struct {
	ledger ledger.Ledger
	log    *logger.Logger
}

// New constructs a vault service over the given ledger.
func New(l ledger.Ledger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("vault")
	}
	return &Service{ledger: l, log: log}
}

// Scale converts a protocol amount to ledger base units.
func (s *Service) Scale(amount uint64) (uint64, error) {
	scaled := amount
	for i := uint8(0); i < s.ledger.Decimals(); i++ {
		if scaled > math.MaxUint64/10 {
			return 0, ErrArithmeticOverflow
		}
		scaled *= 10
	}
	return scaled, nil
}

// Contribute deposits a participant's tokens into a vault. The amount is in
// protocol units; the participant authorizes their own debit.
func (s *Service) Contribute(ctx context.Context, vault string, amount uint64, from string) error {
	scaled, err := s.Scale(amount)
	if err != nil {
		return err
	}
	if err := s.ledger.Transfer(ctx, from, vault, scaled, ledger.Authorization{Holder: from}); err != nil {
		return fmt.Errorf("contribute to vault %s: %w", vault, err)
	}
	s.log.WithField("vault", vault).Debugf("contributed %d units from %s", scaled, from)
	return nil
}

// Withdraw releases tokens from a vault identified by its seed path. The
// amount is in protocol units.
func (s *Service) Withdraw(ctx context.Context, seed Seed, amount uint64, to string) error {
	scaled, err := s.Scale(amount)
	if err != nil {
		return err
	}
	return s.WithdrawRaw(ctx, seed, scaled, to)
}

// WithdrawRaw releases tokens already expressed in ledger base units. Used
// when sweeping a vault's remaining balance.
func (s *Service) WithdrawRaw(ctx context.Context, seed Seed, scaled uint64, to string) error {
	vault := DeriveAddress(seed)
	err := s.ledger.Transfer(ctx, vault, to, scaled, ledger.Authorization{Holder: vault})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fmt.Errorf("withdraw from vault %s: %w", vault, ErrInsufficientVaultBalance)
		}
		return fmt.Errorf("withdraw from vault %s: %w", vault, err)
	}
	s.log.WithField("vault", vault).Debugf("withdrew %d units to %s", scaled, to)
	return nil
}

// Balance reports a vault's balance in ledger base units.
func (s *Service) Balance(ctx context.Context, vault string) (uint64, error) {
	return s.ledger.Balance(ctx, vault)
}
