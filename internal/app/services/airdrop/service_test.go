package airdrop

import (
	"context"
	"errors"
	"testing"

	"github.com/draco-labs/draco-protocol/internal/app/ledger"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/services/vault"
	"github.com/draco-labs/draco-protocol/internal/app/storage/memory"
)

const admin = "admin"

func newService(t *testing.T) (*Service, *ledger.MemoryLedger) {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	led := ledger.NewMemoryLedger(0)

	auth := authority.New(store, nil)
	if err := auth.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize authority: %v", err)
	}

	led.Mint(ctx, vault.DeriveAddress(vault.TreasurySeed()), 1_000_000)
	return New(store, vault.New(led, nil), auth, nil), led
}

func params() CreateParams {
	return CreateParams{
		ID:             "launch",
		Name:           "launch airdrop",
		Supply:         250,
		AmountPerClaim: 100,
		StartTime:      100,
		EndTime:        200,
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "mallory", params()); !errors.Is(err, authority.ErrInvalidAuthority) {
		t.Fatalf("expected authority error, got %v", err)
	}

	bad := params()
	bad.StartTime, bad.EndTime = 200, 100
	if _, err := svc.Create(ctx, admin, bad); !errors.Is(err, ErrInvalidAirdropWindow) {
		t.Fatalf("expected window error, got %v", err)
	}

	bad = params()
	bad.AmountPerClaim = 0
	if _, err := svc.Create(ctx, admin, bad); !errors.Is(err, ErrInvalidAirdropSupply) {
		t.Fatalf("expected supply error for zero claim, got %v", err)
	}

	bad = params()
	bad.Supply = 50
	if _, err := svc.Create(ctx, admin, bad); !errors.Is(err, ErrInvalidAirdropSupply) {
		t.Fatalf("expected supply error for supply below one claim, got %v", err)
	}

	bad = params()
	bad.Name = "  "
	if _, err := svc.Create(ctx, admin, bad); err == nil {
		t.Fatalf("blank name accepted")
	}

	if _, err := svc.Create(ctx, admin, params()); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestClaimWindowInclusive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, admin, params()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Claim(ctx, "alice", "launch", 99); !errors.Is(err, ErrAirdropNotStarted) {
		t.Fatalf("expected not started, got %v", err)
	}
	if _, err := svc.Claim(ctx, "alice", "launch", 201); !errors.Is(err, ErrAirdropEnded) {
		t.Fatalf("expected ended, got %v", err)
	}
	// Both window edges accept claims.
	if _, err := svc.Claim(ctx, "alice", "launch", 100); err != nil {
		t.Fatalf("claim at start: %v", err)
	}
	if _, err := svc.Claim(ctx, "bob", "launch", 200); err != nil {
		t.Fatalf("claim at end: %v", err)
	}
}

func TestClaimOncePerAccount(t *testing.T) {
	svc, led := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, admin, params()); err != nil {
		t.Fatalf("create: %v", err)
	}

	claim, err := svc.Claim(ctx, "alice", "launch", 150)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Amount != 100 {
		t.Fatalf("claim amount = %d, want 100", claim.Amount)
	}
	if bal, _ := led.Balance(ctx, "alice"); bal != 100 {
		t.Fatalf("alice balance = %d, want 100", bal)
	}

	if _, err := svc.Claim(ctx, "alice", "launch", 160); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
}

func TestClaimExhaustsSupply(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, admin, params()); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Supply 250 at 100 per claim funds exactly two claims.
	if _, err := svc.Claim(ctx, "alice", "launch", 150); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := svc.Claim(ctx, "bob", "launch", 150); err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if _, err := svc.Claim(ctx, "carol", "launch", 150); !errors.Is(err, ErrAirdropExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}

	drop, err := svc.Get(ctx, "launch")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if drop.Supplied != 200 {
		t.Fatalf("supplied = %d, want 200", drop.Supplied)
	}
}
