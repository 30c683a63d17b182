package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var ErrAlreadyInitialized = errors.New("reward factors already initialized")

// Service manages the protocol-wide reward factor table.
type Service struct {
	store     storage.RewardFactorsStore
	authority *authority.Service
	log       *logger.Logger
}

// New constructs a rewards service.
func New(store storage.RewardFactorsStore, auth *authority.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("rewards")
	}
	return &Service{store: store, authority: auth, log: log}
}

// Initialize writes the launch parameters. It fails if a table already exists.
func (s *Service) Initialize(ctx context.Context, caller string) (lottery.RewardFactors, error) {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return lottery.RewardFactors{}, err
	}

	if _, err := s.store.GetRewardFactors(ctx); err == nil {
		return lottery.RewardFactors{}, ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return lottery.RewardFactors{}, fmt.Errorf("load reward factors: %w", err)
	}

	saved, err := s.store.SaveRewardFactors(ctx, lottery.DefaultRewardFactors())
	if err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("save reward factors: %w", err)
	}
	s.log.Info("reward factors initialized to defaults")
	return saved, nil
}

// Update replaces the full table.
func (s *Service) Update(ctx context.Context, caller string, f lottery.RewardFactors) (lottery.RewardFactors, error) {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return lottery.RewardFactors{}, err
	}

	if len(f.SuitStreaks) != lottery.StreakTableSize || len(f.ValueStreaks) != lottery.StreakTableSize {
		return lottery.RewardFactors{}, fmt.Errorf("streak tables must have %d entries", lottery.StreakTableSize)
	}
	if f.LockDivider <= 0 {
		return lottery.RewardFactors{}, fmt.Errorf("lock divider must be positive")
	}

	saved, err := s.store.SaveRewardFactors(ctx, f)
	if err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("save reward factors: %w", err)
	}
	s.log.Info("reward factors updated")
	return saved, nil
}

// Get returns the active table.
func (s *Service) Get(ctx context.Context) (lottery.RewardFactors, error) {
	return s.store.GetRewardFactors(ctx)
}
