package lottery

import (
	"context"
	"errors"
	"testing"

	domain "github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/ledger"
	"github.com/draco-labs/draco-protocol/internal/app/oracle"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/services/rewards"
	"github.com/draco-labs/draco-protocol/internal/app/services/vault"
	"github.com/draco-labs/draco-protocol/internal/app/storage/memory"
)

const admin = "admin"

type fixture struct {
	svc      *Service
	led      *ledger.MemoryLedger
	orc      *oracle.MemoryOracle
	treasury string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	led := ledger.NewMemoryLedger(0)
	orc := oracle.NewMemoryOracle()

	auth := authority.New(store, nil)
	if err := auth.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize authority: %v", err)
	}

	vlt := vault.New(led, nil)
	rew := rewards.New(store, auth, nil)
	if _, err := rew.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize reward factors: %v", err)
	}

	treasury := vault.DeriveAddress(vault.TreasurySeed())
	led.Mint(ctx, treasury, 100_000_000)

	return &fixture{
		svc:      New(store, vlt, rew, auth, orc, nil),
		led:      led,
		orc:      orc,
		treasury: treasury,
	}
}

func (f *fixture) start(t *testing.T, params StartParams) domain.Lottery {
	t.Helper()
	lot, err := f.svc.Start(context.Background(), admin, params)
	if err != nil {
		t.Fatalf("start lottery: %v", err)
	}
	return lot
}

func payParams(id string) StartParams {
	return StartParams{
		ID:                 id,
		Name:               "weekly draw",
		Type:               domain.TypePay,
		StartTime:          100,
		EndTime:            1000,
		MinTokensPerTicket: 100,
		InitialPrizePool:   1_000_000,
	}
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, "mallory", payParams("1")); !errors.Is(err, authority.ErrInvalidAuthority) {
		t.Fatalf("expected authority error, got %v", err)
	}

	bad := payParams("1")
	bad.Type = domain.Type(7)
	if _, err := f.svc.Start(ctx, admin, bad); !errors.Is(err, ErrInvalidLotteryType) {
		t.Fatalf("expected type error, got %v", err)
	}

	bad = payParams("1")
	bad.StartTime, bad.EndTime = 1000, 100
	if _, err := f.svc.Start(ctx, admin, bad); !errors.Is(err, ErrInvalidLotteryWindow) {
		t.Fatalf("expected window error, got %v", err)
	}

	bad = payParams("1")
	bad.InitialPrizePool = 0
	if _, err := f.svc.Start(ctx, admin, bad); !errors.Is(err, ErrInvalidInitialPrizePool) {
		t.Fatalf("expected pool error, got %v", err)
	}

	bad = payParams("1")
	bad.MinTokensPerTicket = 0
	if _, err := f.svc.Start(ctx, admin, bad); !errors.Is(err, ErrInvalidMinTokensPerTicket) {
		t.Fatalf("expected min tokens error, got %v", err)
	}

	lot := f.start(t, payParams("1"))
	if bal, _ := f.led.Balance(ctx, lot.VaultAddress); bal != 1_000_000 {
		t.Fatalf("lottery vault balance = %d, want initial pool", bal)
	}
	if _, err := f.svc.Start(ctx, admin, payParams("1")); err == nil {
		t.Fatalf("duplicate id accepted")
	}
}

func TestBuyTicketWindowAndAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, payParams("1"))
	f.led.Mint(ctx, "alice", 10_000)

	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 50); !errors.Is(err, ErrLotteryNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 1000); !errors.Is(err, ErrLotteryFinished) {
		t.Fatalf("expected finished at end instant, got %v", err)
	}
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "X2H3C4W5", 300, 500); err == nil {
		t.Fatalf("invalid combination accepted")
	}
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 150, 500); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for non-multiple, got %v", err)
	}
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 50, 500); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount below price, got %v", err)
	}

	tkt, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 500)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if tkt.Amount != 300 {
		t.Fatalf("ticket amount = %d, want 300", tkt.Amount)
	}
}

func TestBuyTicketAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, payParams("1"))
	f.led.Mint(ctx, "alice", 10_000)

	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 500); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	tkt, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 600)
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if tkt.Amount != 600 {
		t.Fatalf("ticket amount = %d, want accumulated 600", tkt.Amount)
	}

	tkts, err := f.svc.ListTickets(ctx, "1")
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tkts) != 1 {
		t.Fatalf("expected one ticket, got %d", len(tkts))
	}

	lot, err := f.svc.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get lottery: %v", err)
	}
	if lot.ParticipantsCount != 2 {
		t.Fatalf("participants count = %d, want 2 (one per purchase)", lot.ParticipantsCount)
	}
	if lot.AccumulatedPrizePool != 1_000_600 {
		t.Fatalf("accumulated pool = %d, want 1000600", lot.AccumulatedPrizePool)
	}
}

func TestCommitFreshness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, payParams("1"))

	f.orc.Stage("req1", 9)

	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 500, 10); !errors.Is(err, ErrCommitOnActiveLottery) {
		t.Fatalf("expected active lottery error, got %v", err)
	}
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 12); !errors.Is(err, ErrRandomnessAlreadyRevealed) {
		t.Fatalf("expected staleness error, got %v", err)
	}
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("fresh commit: %v", err)
	}
}

func TestRevealFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, payParams("1"))

	f.orc.Stage("req1", 9)
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "other", 1001, 10); !errors.Is(err, ErrIncorrectRandomnessRequest) {
		t.Fatalf("expected reference mismatch, got %v", err)
	}
	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10); !errors.Is(err, ErrRandomnessNotResolved) {
		t.Fatalf("expected not resolved, got %v", err)
	}

	f.orc.Fulfill("req1", make([]byte, 8))
	combo, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if combo != "S2S3S4S5" {
		t.Fatalf("winning combination = %q", combo)
	}

	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10); !errors.Is(err, ErrCombinationAlreadySet) {
		t.Fatalf("expected already set, got %v", err)
	}
}

func TestClaimLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.start(t, payParams("1"))
	f.led.Mint(ctx, "alice", 10_000)

	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2S3S4S5", 300, 500); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if _, err := f.svc.ClaimPrize(ctx, "alice", "1", "S2S3S4S5", 1001); !errors.Is(err, ErrWinningCombinationNotSet) {
		t.Fatalf("expected combination not set, got %v", err)
	}

	f.orc.Stage("req1", 9)
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.orc.Fulfill("req1", make([]byte, 8))
	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	before, _ := f.led.Balance(ctx, "alice")
	prize, err := f.svc.ClaimPrize(ctx, "alice", "1", "S2S3S4S5", 1001)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if prize == 0 {
		t.Fatalf("exact match paid zero")
	}
	after, _ := f.led.Balance(ctx, "alice")
	if after-before != prize {
		t.Fatalf("alice received %d, prize was %d", after-before, prize)
	}

	if _, err := f.svc.ClaimPrize(ctx, "alice", "1", "S2S3S4S5", 1001); !errors.Is(err, ErrTicketAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
}

func TestClaimTreasuryBackstop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params := payParams("1")
	params.InitialPrizePool = 1
	lot := f.start(t, params)
	f.led.Mint(ctx, "alice", 10_000)

	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2S3S4S5", 300, 500); err != nil {
		t.Fatalf("buy: %v", err)
	}

	f.orc.Stage("req1", 9)
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.orc.Fulfill("req1", make([]byte, 8))
	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	vaultBefore, _ := f.led.Balance(ctx, lot.VaultAddress)
	treasuryBefore, _ := f.led.Balance(ctx, f.treasury)

	prize, err := f.svc.ClaimPrize(ctx, "alice", "1", "S2S3S4S5", 1001)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if prize <= vaultBefore {
		t.Fatalf("scenario needs a prize (%d) above the vault balance (%d)", prize, vaultBefore)
	}

	vaultAfter, _ := f.led.Balance(ctx, lot.VaultAddress)
	treasuryAfter, _ := f.led.Balance(ctx, f.treasury)
	if vaultAfter != vaultBefore {
		t.Fatalf("lottery vault was debited despite insufficient balance")
	}
	if treasuryBefore-treasuryAfter != prize {
		t.Fatalf("treasury paid %d, want %d", treasuryBefore-treasuryAfter, prize)
	}
}

func TestCloseCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lot := f.start(t, payParams("1"))

	f.orc.Stage("req1", 9)
	if err := f.svc.CommitRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.orc.Fulfill("req1", make([]byte, 8))
	if _, err := f.svc.RevealRandomness(ctx, admin, "1", "req1", 1001, 10); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	if err := f.svc.Close(ctx, admin, "1", 1001); !errors.Is(err, ErrCloseCooldownNotElapsed) {
		t.Fatalf("expected cool-down error, got %v", err)
	}

	closeAt := lot.EndTime + domain.CloseBufferSeconds + 1
	treasuryBefore, _ := f.led.Balance(ctx, f.treasury)
	if err := f.svc.Close(ctx, admin, "1", closeAt); err != nil {
		t.Fatalf("close: %v", err)
	}

	if bal, _ := f.led.Balance(ctx, lot.VaultAddress); bal != 0 {
		t.Fatalf("lottery vault not swept, balance %d", bal)
	}
	treasuryAfter, _ := f.led.Balance(ctx, f.treasury)
	if treasuryAfter-treasuryBefore != 1_000_000 {
		t.Fatalf("treasury received %d, want swept pool", treasuryAfter-treasuryBefore)
	}

	if err := f.svc.Close(ctx, admin, "1", closeAt); !errors.Is(err, ErrLotteryClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 300, 500); !errors.Is(err, ErrLotteryClosed) {
		t.Fatalf("expected closed on buy, got %v", err)
	}
}

func TestLockLotteryAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params := payParams("1")
	params.Type = domain.TypeLock
	f.start(t, params)
	f.led.Mint(ctx, "alice", 10_000)

	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 50, 500); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount below minimum, got %v", err)
	}
	// Lock purchases need not be multiples of the minimum.
	if _, err := f.svc.BuyTicket(ctx, "alice", "1", "S2H3C4W5", 150, 500); err != nil {
		t.Fatalf("lock buy: %v", err)
	}
}
