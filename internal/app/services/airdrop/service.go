package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	domain "github.com/draco-labs/draco-protocol/internal/app/domain/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/metrics"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/services/vault"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var (
	ErrInvalidAirdropWindow = errors.New("airdrop start must precede end")
	ErrInvalidAirdropSupply = errors.New("airdrop supply must cover at least one claim")
	ErrAirdropNotStarted    = errors.New("airdrop has not started")
	ErrAirdropEnded         = errors.New("airdrop has ended")
	ErrAirdropExhausted     = errors.New("airdrop supply exhausted")
	ErrAlreadyClaimed       = errors.New("airdrop already claimed by this account")
)

// Service manages treasury-funded airdrops.
type Service struct {
	store     storage.AirdropStore
	vault     *vault.Service
	authority *authority.Service
	log       *logger.Logger
}

// New constructs an airdrop service.
func New(store storage.AirdropStore, vlt *vault.Service, auth *authority.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("airdrop")
	}
	return &Service{store: store, vault: vlt, authority: auth, log: log}
}

// CreateParams configures a new airdrop.
type CreateParams struct {
	ID             string
	Name           string
	Supply         uint64
	AmountPerClaim uint64
	StartTime      int64
	EndTime        int64
}

// Create registers a new airdrop. The supply is reserved against the
// treasury, not moved up front.
func (s *Service) Create(ctx context.Context, caller string, params CreateParams) (domain.Airdrop, error) {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return domain.Airdrop{}, err
	}
	if params.StartTime >= params.EndTime {
		return domain.Airdrop{}, ErrInvalidAirdropWindow
	}
	if params.Supply == 0 || params.AmountPerClaim == 0 || params.Supply < params.AmountPerClaim {
		return domain.Airdrop{}, ErrInvalidAirdropSupply
	}
	if strings.TrimSpace(params.Name) == "" {
		return domain.Airdrop{}, fmt.Errorf("airdrop name is required")
	}

	created, err := s.store.CreateAirdrop(ctx, domain.Airdrop{
		ID:             params.ID,
		Name:           params.Name,
		Supply:         params.Supply,
		AmountPerClaim: params.AmountPerClaim,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
	})
	if err != nil {
		return domain.Airdrop{}, fmt.Errorf("create airdrop: %w", err)
	}

	s.log.WithField("airdrop", created.ID).Infof("created airdrop %q with supply %d", created.Name, created.Supply)
	return created, nil
}

// Claim pays one share of the airdrop to the claimer. Each account may claim
// once per airdrop; the window is inclusive on both ends.
func (s *Service) Claim(ctx context.Context, claimer, airdropID string, nowUnix int64) (domain.Claim, error) {
	drop, err := s.store.GetAirdrop(ctx, airdropID)
	if err != nil {
		return domain.Claim{}, err
	}
	if nowUnix < drop.StartTime {
		return domain.Claim{}, ErrAirdropNotStarted
	}
	if nowUnix > drop.EndTime {
		return domain.Claim{}, ErrAirdropEnded
	}

	if _, err := s.store.GetAirdropClaim(ctx, airdropID, claimer); err == nil {
		return domain.Claim{}, ErrAlreadyClaimed
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Claim{}, fmt.Errorf("load airdrop claim: %w", err)
	}

	if drop.Supplied > math.MaxUint64-drop.AmountPerClaim {
		return domain.Claim{}, vault.ErrArithmeticOverflow
	}
	if drop.Supplied+drop.AmountPerClaim > drop.Supply {
		return domain.Claim{}, ErrAirdropExhausted
	}

	if err := s.vault.Withdraw(ctx, vault.TreasurySeed(), drop.AmountPerClaim, claimer); err != nil {
		return domain.Claim{}, err
	}

	claim, err := s.store.CreateAirdropClaim(ctx, domain.Claim{
		AirdropID: airdropID,
		Claimer:   claimer,
		Amount:    drop.AmountPerClaim,
	})
	if err != nil {
		return domain.Claim{}, fmt.Errorf("create airdrop claim: %w", err)
	}

	drop.Supplied += drop.AmountPerClaim
	if _, err := s.store.UpdateAirdrop(ctx, drop); err != nil {
		return domain.Claim{}, fmt.Errorf("update airdrop: %w", err)
	}

	metrics.RecordAirdropClaim()
	s.log.WithField("airdrop", airdropID).Infof("%s claimed %d units", claimer, claim.Amount)
	return claim, nil
}

// Get returns one airdrop.
func (s *Service) Get(ctx context.Context, id string) (domain.Airdrop, error) {
	return s.store.GetAirdrop(ctx, id)
}

// List returns all airdrops.
func (s *Service) List(ctx context.Context) ([]domain.Airdrop, error) {
	return s.store.ListAirdrops(ctx)
}
