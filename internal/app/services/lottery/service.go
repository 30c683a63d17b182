package lottery

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/draco-labs/draco-protocol/internal/app/domain/cards"
	domain "github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/metrics"
	"github.com/draco-labs/draco-protocol/internal/app/oracle"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/services/rewards"
	"github.com/draco-labs/draco-protocol/internal/app/services/vault"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var (
	ErrInvalidLotteryType         = errors.New("invalid lottery type")
	ErrInvalidLotteryWindow       = errors.New("lottery start must precede end")
	ErrInvalidInitialPrizePool    = errors.New("initial prize pool must be positive")
	ErrInvalidMinTokensPerTicket  = errors.New("minimum tokens per ticket must be positive")
	ErrLotteryNotStarted          = errors.New("lottery has not started")
	ErrLotteryFinished            = errors.New("lottery has finished")
	ErrLotteryNotFinished         = errors.New("lottery has not finished")
	ErrLotteryClosed              = errors.New("lottery is closed")
	ErrInvalidAmount              = errors.New("invalid purchase amount")
	ErrCommitOnActiveLottery      = errors.New("cannot commit randomness while the lottery is active")
	ErrRevealOnActiveLottery      = errors.New("cannot reveal randomness while the lottery is active")
	ErrRandomnessAlreadyRevealed  = errors.New("randomness request is stale or already revealed")
	ErrIncorrectRandomnessRequest = errors.New("randomness request does not match the committed one")
	ErrRandomnessNotResolved      = errors.New("randomness not resolved yet")
	ErrCombinationAlreadySet      = errors.New("winning combination already set")
	ErrWinningCombinationNotSet   = errors.New("winning combination not set yet")
	ErrTicketAlreadyClaimed       = errors.New("ticket already claimed")
	ErrCloseCooldownNotElapsed    = errors.New("close cool-down has not elapsed")
)

// Service drives the lottery lifecycle from start through close, moving funds
// through the vault service and resolving winners via the randomness oracle.
type Service struct {
	store     storage.LotteryStore
	vault     *vault.Service
	rewards   *rewards.Service
	authority *authority.Service
	oracle    oracle.Oracle
	log       *logger.Logger
}

// New constructs a lottery service.
func New(store storage.LotteryStore, vlt *vault.Service, rew *rewards.Service, auth *authority.Service, orc oracle.Oracle, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("lottery")
	}
	return &Service{store: store, vault: vlt, rewards: rew, authority: auth, oracle: orc, log: log}
}

// StartParams configures a new lottery round.
type StartParams struct {
	ID                 string
	Name               string
	Description        string
	Type               domain.Type
	StartTime          int64
	EndTime            int64
	MinTokensPerTicket uint64
	InitialPrizePool   uint64
}

// Start creates a lottery and seeds its prize vault from the treasury.
func (s *Service) Start(ctx context.Context, caller string, params StartParams) (domain.Lottery, error) {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return domain.Lottery{}, err
	}
	if !params.Type.Valid() {
		return domain.Lottery{}, ErrInvalidLotteryType
	}
	if params.StartTime >= params.EndTime {
		return domain.Lottery{}, ErrInvalidLotteryWindow
	}
	if params.InitialPrizePool == 0 {
		return domain.Lottery{}, ErrInvalidInitialPrizePool
	}
	if params.MinTokensPerTicket == 0 {
		return domain.Lottery{}, ErrInvalidMinTokensPerTicket
	}

	if _, err := s.store.GetLottery(ctx, params.ID); err == nil {
		return domain.Lottery{}, fmt.Errorf("lottery %s already exists", params.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Lottery{}, fmt.Errorf("load lottery: %w", err)
	}

	vaultAddr := vault.DeriveAddress(vault.LotterySeed(params.ID))
	if err := s.vault.Withdraw(ctx, vault.TreasurySeed(), params.InitialPrizePool, vaultAddr); err != nil {
		return domain.Lottery{}, fmt.Errorf("fund lottery vault: %w", err)
	}

	created, err := s.store.CreateLottery(ctx, domain.Lottery{
		ID:                   params.ID,
		Name:                 params.Name,
		Description:          params.Description,
		Type:                 params.Type,
		StartTime:            params.StartTime,
		EndTime:              params.EndTime,
		MinTokensPerTicket:   params.MinTokensPerTicket,
		InitialPrizePool:     params.InitialPrizePool,
		AccumulatedPrizePool: params.InitialPrizePool,
		VaultAddress:         vaultAddr,
	})
	if err != nil {
		return domain.Lottery{}, fmt.Errorf("create lottery: %w", err)
	}

	s.log.WithField("lottery", created.ID).Infof("started %s lottery with pool %d", created.Type, created.InitialPrizePool)
	return created, nil
}

// BuyTicket stakes amount on a combination. Repeat purchases of the same
// combination accumulate into the existing ticket; the participant count
// counts purchases, not distinct participants.
func (s *Service) BuyTicket(ctx context.Context, participant, lotteryID, combination string, amount uint64, nowUnix int64) (domain.Ticket, error) {
	lot, err := s.store.GetLottery(ctx, lotteryID)
	if err != nil {
		return domain.Ticket{}, err
	}
	if lot.Closed {
		return domain.Ticket{}, ErrLotteryClosed
	}
	if nowUnix < lot.StartTime {
		return domain.Ticket{}, ErrLotteryNotStarted
	}
	if nowUnix >= lot.EndTime {
		return domain.Ticket{}, ErrLotteryFinished
	}

	if _, err := cards.Validate(combination); err != nil {
		return domain.Ticket{}, err
	}

	switch lot.Type {
	case domain.TypePay:
		if amount < lot.MinTokensPerTicket || amount%lot.MinTokensPerTicket != 0 {
			return domain.Ticket{}, ErrInvalidAmount
		}
	case domain.TypeLock:
		if amount < lot.MinTokensPerTicket {
			return domain.Ticket{}, ErrInvalidAmount
		}
	default:
		return domain.Ticket{}, ErrInvalidLotteryType
	}

	// Debit the participant before touching any record so a failed ledger
	// transfer leaves no partial state.
	if err := s.vault.Contribute(ctx, lot.VaultAddress, amount, participant); err != nil {
		return domain.Ticket{}, err
	}

	tkt, err := s.store.GetTicket(ctx, lotteryID, participant, combination)
	switch {
	case err == nil:
		tkt.Amount, err = checkedAdd(tkt.Amount, amount)
		if err != nil {
			return domain.Ticket{}, err
		}
		tkt, err = s.store.UpdateTicket(ctx, tkt)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("update ticket: %w", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		tkt, err = s.store.CreateTicket(ctx, domain.Ticket{
			LotteryID:   lotteryID,
			Participant: participant,
			Combination: combination,
			Amount:      amount,
		})
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("create ticket: %w", err)
		}
	default:
		return domain.Ticket{}, fmt.Errorf("load ticket: %w", err)
	}

	lot.AccumulatedPrizePool, err = checkedAdd(lot.AccumulatedPrizePool, amount)
	if err != nil {
		return domain.Ticket{}, err
	}
	lot.ParticipantsCount++
	if _, err := s.store.UpdateLottery(ctx, lot); err != nil {
		return domain.Ticket{}, fmt.Errorf("update lottery: %w", err)
	}

	metrics.RecordTicketPurchase(lot.Type.String(), amount)
	s.log.WithField("lottery", lotteryID).Debugf("%s staked %d on %s", participant, amount, combination)
	return tkt, nil
}

// CommitRandomness binds a fresh oracle request to a finished lottery.
func (s *Service) CommitRandomness(ctx context.Context, caller, lotteryID, requestID string, nowUnix int64, currentSlot uint64) error {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return err
	}

	lot, err := s.store.GetLottery(ctx, lotteryID)
	if err != nil {
		return err
	}
	if lot.Closed {
		return ErrLotteryClosed
	}
	if lot.WinningCombination != "" {
		return ErrCombinationAlreadySet
	}
	if !lot.Finished(nowUnix) {
		return ErrCommitOnActiveLottery
	}

	req, err := s.oracle.Request(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load randomness request: %w", err)
	}
	if req.SeedSlot != currentSlot-1 {
		return ErrRandomnessAlreadyRevealed
	}

	lot.RandomnessRequestID = requestID
	if _, err := s.store.UpdateLottery(ctx, lot); err != nil {
		return fmt.Errorf("update lottery: %w", err)
	}

	s.log.WithField("lottery", lotteryID).Infof("randomness request %s committed", requestID)
	return nil
}

// RevealRandomness resolves the committed request and fixes the winning
// combination.
func (s *Service) RevealRandomness(ctx context.Context, caller, lotteryID, requestID string, nowUnix int64, currentSlot uint64) (string, error) {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return "", err
	}

	lot, err := s.store.GetLottery(ctx, lotteryID)
	if err != nil {
		return "", err
	}
	if lot.RandomnessRequestID == "" || lot.RandomnessRequestID != requestID {
		return "", ErrIncorrectRandomnessRequest
	}
	if lot.Closed {
		return "", ErrLotteryClosed
	}
	if lot.WinningCombination != "" {
		return "", ErrCombinationAlreadySet
	}
	if !lot.Finished(nowUnix) {
		return "", ErrRevealOnActiveLottery
	}

	data, err := s.oracle.Resolve(ctx, requestID, currentSlot)
	if err != nil {
		if errors.Is(err, oracle.ErrNotResolved) {
			return "", ErrRandomnessNotResolved
		}
		return "", fmt.Errorf("resolve randomness: %w", err)
	}

	combination, err := drawCombination(data)
	if err != nil {
		return "", err
	}

	lot.WinningCombination = combination
	if _, err := s.store.UpdateLottery(ctx, lot); err != nil {
		return "", fmt.Errorf("update lottery: %w", err)
	}

	metrics.RecordRandomnessReveal()
	s.log.WithField("lottery", lotteryID).Infof("winning combination revealed: %s", combination)
	return combination, nil
}

// ClaimPrize settles one ticket against the winning combination. Claims are
// one-shot: the ticket is marked claimed even when the prize is zero.
func (s *Service) ClaimPrize(ctx context.Context, participant, lotteryID, combination string, nowUnix int64) (uint64, error) {
	lot, err := s.store.GetLottery(ctx, lotteryID)
	if err != nil {
		return 0, err
	}
	if lot.WinningCombination == "" {
		return 0, ErrWinningCombinationNotSet
	}
	if !lot.Finished(nowUnix) {
		return 0, ErrLotteryNotFinished
	}
	if lot.Closed {
		return 0, ErrLotteryClosed
	}

	tkt, err := s.store.GetTicket(ctx, lotteryID, participant, combination)
	if err != nil {
		return 0, err
	}
	if tkt.Claimed {
		return 0, ErrTicketAlreadyClaimed
	}

	factors, err := s.rewards.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reward factors: %w", err)
	}

	pool := lot.AccumulatedPrizePool
	if lot.Type == domain.TypeLock {
		pool = lot.InitialPrizePool
	}

	prize, err := CalculatePrize(lot.WinningCombination, tkt.Combination, lot.Type, tkt.Amount, lot.InitialPrizePool, pool, lot.MinTokensPerTicket, factors)
	if err != nil {
		return 0, err
	}

	if prize > 0 {
		if err := s.payPrize(ctx, lot, prize, participant); err != nil {
			return 0, err
		}
	}

	tkt.Claimed = true
	if _, err := s.store.UpdateTicket(ctx, tkt); err != nil {
		return 0, fmt.Errorf("update ticket: %w", err)
	}

	metrics.RecordPrizeClaim(lot.Type.String(), prize)
	s.log.WithField("lottery", lotteryID).Infof("%s claimed %d on %s", participant, prize, combination)
	return prize, nil
}

// payPrize funds a claim from the lottery vault when it can cover the scaled
// amount, falling back to the treasury otherwise.
func (s *Service) payPrize(ctx context.Context, lot domain.Lottery, prize uint64, to string) error {
	scaled, err := s.vault.Scale(prize)
	if err != nil {
		return err
	}

	balance, err := s.vault.Balance(ctx, lot.VaultAddress)
	if err != nil {
		return fmt.Errorf("check lottery vault balance: %w", err)
	}

	seed := vault.LotterySeed(lot.ID)
	if balance < scaled {
		seed = vault.TreasurySeed()
	}
	return s.vault.WithdrawRaw(ctx, seed, scaled, to)
}

// Close sweeps the lottery vault to the treasury after the claim cool-down.
func (s *Service) Close(ctx context.Context, caller, lotteryID string, nowUnix int64) error {
	if err := s.authority.Enforce(ctx, caller); err != nil {
		return err
	}

	lot, err := s.store.GetLottery(ctx, lotteryID)
	if err != nil {
		return err
	}
	if lot.Closed {
		return ErrLotteryClosed
	}
	if lot.WinningCombination == "" {
		return ErrWinningCombinationNotSet
	}
	if !lot.Finished(nowUnix) {
		return ErrLotteryNotFinished
	}
	if nowUnix <= lot.EndTime+domain.CloseBufferSeconds {
		return ErrCloseCooldownNotElapsed
	}

	balance, err := s.vault.Balance(ctx, lot.VaultAddress)
	if err != nil {
		return fmt.Errorf("check lottery vault balance: %w", err)
	}
	if balance > 0 {
		treasury := vault.DeriveAddress(vault.TreasurySeed())
		if err := s.vault.WithdrawRaw(ctx, vault.LotterySeed(lot.ID), balance, treasury); err != nil {
			return fmt.Errorf("sweep lottery vault: %w", err)
		}
	}

	lot.Closed = true
	if _, err := s.store.UpdateLottery(ctx, lot); err != nil {
		return fmt.Errorf("update lottery: %w", err)
	}

	s.log.WithField("lottery", lotteryID).Infof("closed, swept %d units to treasury", balance)
	return nil
}

// Get returns one lottery.
func (s *Service) Get(ctx context.Context, lotteryID string) (domain.Lottery, error) {
	return s.store.GetLottery(ctx, lotteryID)
}

// List returns all lotteries.
func (s *Service) List(ctx context.Context) ([]domain.Lottery, error) {
	return s.store.ListLotteries(ctx)
}

// GetTicket returns one participant's ticket for a combination.
func (s *Service) GetTicket(ctx context.Context, lotteryID, participant, combination string) (domain.Ticket, error) {
	return s.store.GetTicket(ctx, lotteryID, participant, combination)
}

// ListTickets returns every ticket sold for a lottery.
func (s *Service) ListTickets(ctx context.Context, lotteryID string) ([]domain.Ticket, error) {
	return s.store.ListTickets(ctx, lotteryID)
}

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, vault.ErrArithmeticOverflow
	}
	return a + b, nil
}
