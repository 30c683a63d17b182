package vesting

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/draco-labs/draco-protocol/internal/app/domain/vesting"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/services/vault"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var (
	ErrTreasuryInitialized   = errors.New("treasury already initialized")
	ErrCliffNotDue           = errors.New("not enough time passed since the last cliff transfer")
	ErrMaxTransfersPerformed = errors.New("maximum cliff transfers performed")
)

// Service bootstraps the treasury and releases the six-month cliff.
type Service struct {
	store     storage.CliffStore
	vault     *vault.Service
	authority *authority.Service
	log       *logger.Logger
}

// New constructs a vesting service.
func New(store storage.CliffStore, vlt *vault.Service, auth *authority.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("vesting")
	}
	return &Service{store: store, vault: vlt, authority: auth, log: log}
}

// InitializeTreasury funds the treasury and cliff vaults from the funder
// account and opens the cliff schedule. It runs once; the cliff record is the
// idempotence guard.
func (s *Service) InitializeTreasury(ctx context.Context, caller, funder string, nowUnix int64) error {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return err
	}

	if _, err := s.store.GetCliff(ctx); err == nil {
		return ErrTreasuryInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load cliff: %w", err)
	}

	treasury := vault.DeriveAddress(vault.TreasurySeed())
	if err := s.vault.Contribute(ctx, treasury, domain.TreasuryInitialAmount, funder); err != nil {
		return fmt.Errorf("fund treasury: %w", err)
	}

	cliffVault := vault.DeriveAddress(vault.CliffSeed())
	if err := s.vault.Contribute(ctx, cliffVault, domain.CliffAmount*domain.CliffFundedTranches, funder); err != nil {
		return fmt.Errorf("fund cliff vault: %w", err)
	}

	if _, err := s.store.SaveCliff(ctx, domain.Cliff{LastTransferOut: nowUnix}); err != nil {
		return fmt.Errorf("save cliff: %w", err)
	}

	s.log.Infof("treasury initialized with %d units, cliff with %d", domain.TreasuryInitialAmount, domain.CliffAmount*domain.CliffFundedTranches)
	return nil
}

// TransferOut releases one cliff tranche to the caller. Transfers are gated
// by the six-month interval and the inclusive transfer-count bound.
func (s *Service) TransferOut(ctx context.Context, caller string, nowUnix int64) error {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return err
	}

	cliff, err := s.store.GetCliff(ctx)
	if err != nil {
		return err
	}
	if nowUnix-cliff.LastTransferOut < domain.SixMonthsSeconds {
		return ErrCliffNotDue
	}
	if cliff.TransfersPerformed > domain.TransfersPerPeriod {
		return ErrMaxTransfersPerformed
	}

	// Funds move before the record is persisted so a failed withdrawal does
	// not consume a tranche.
	if err := s.vault.Withdraw(ctx, vault.CliffSeed(), domain.CliffAmount, caller); err != nil {
		return err
	}

	cliff.LastTransferOut = nowUnix
	cliff.TransfersPerformed++
	if _, err := s.store.SaveCliff(ctx, cliff); err != nil {
		return fmt.Errorf("save cliff: %w", err)
	}

	s.log.Infof("cliff transfer %d of %d units to %s", cliff.TransfersPerformed, domain.CliffAmount, caller)
	return nil
}

// Cliff returns the current cliff state.
func (s *Service) Cliff(ctx context.Context) (domain.Cliff, error) {
	return s.store.GetCliff(ctx)
}
