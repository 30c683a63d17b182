package app

import (
	"context"
	"fmt"

	"github.com/draco-labs/draco-protocol/internal/app/ledger"
	"github.com/draco-labs/draco-protocol/internal/app/oracle"
	airdropsvc "github.com/draco-labs/draco-protocol/internal/app/services/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	lotterysvc "github.com/draco-labs/draco-protocol/internal/app/services/lottery"
	rewardsvc "github.com/draco-labs/draco-protocol/internal/app/services/rewards"
	vaultsvc "github.com/draco-labs/draco-protocol/internal/app/services/vault"
	vestingsvc "github.com/draco-labs/draco-protocol/internal/app/services/vesting"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/internal/app/storage/memory"
	"github.com/draco-labs/draco-protocol/internal/app/system"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Lotteries     storage.LotteryStore
	RewardFactors storage.RewardFactorsStore
	Authority     storage.AuthorityStore
	Airdrops      storage.AirdropStore
	Cliff         storage.CliffStore
}

// Collaborators are the external systems the protocol settles against. Nil
// collaborators default to in-memory implementations for local development.
type Collaborators struct {
	Ledger ledger.Ledger
	Oracle oracle.Oracle
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Authority *authority.Service
	Vault     *vaultsvc.Service
	Rewards   *rewardsvc.Service
	Lottery   *lotterysvc.Service
	Airdrop   *airdropsvc.Service
	Vesting   *vestingsvc.Service
}

// New builds a fully initialised application with the provided stores and
// collaborators.
func New(stores Stores, collab Collaborators, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Lotteries == nil {
		stores.Lotteries = mem
	}
	if stores.RewardFactors == nil {
		stores.RewardFactors = mem
	}
	if stores.Authority == nil {
		stores.Authority = mem
	}
	if stores.Airdrops == nil {
		stores.Airdrops = mem
	}
	if stores.Cliff == nil {
		stores.Cliff = mem
	}

	if collab.Ledger == nil {
		collab.Ledger = ledger.NewMemoryLedger(6)
	}
	if collab.Oracle == nil {
		collab.Oracle = oracle.NewMemoryOracle()
	}

	manager := system.NewManager()

	authService := authority.New(stores.Authority, log)
	vaultService := vaultsvc.New(collab.Ledger, log)
	rewardService := rewardsvc.New(stores.RewardFactors, authService, log)
	lotteryService := lotterysvc.New(stores.Lotteries, vaultService, rewardService, authService, collab.Oracle, log)
	airdropService := airdropsvc.New(stores.Airdrops, vaultService, authService, log)
	vestingService := vestingsvc.New(stores.Cliff, vaultService, authService, log)

	for _, name := range []string{"authority", "vault", "rewards", "lottery", "airdrop", "vesting"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		Authority: authService,
		Vault:     vaultService,
		Rewards:   rewardService,
		Lottery:   lotteryService,
		Airdrop:   airdropService,
		Vesting:   vestingService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
