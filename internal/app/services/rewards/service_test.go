package rewards

import (
	"context"
	"errors"
	"testing"

	"github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	"github.com/draco-labs/draco-protocol/internal/app/storage/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store := memory.New()
	auth := authority.New(store, nil)
	if err := auth.Initialize(context.Background(), "admin"); err != nil {
		t.Fatalf("initialize authority: %v", err)
	}
	return New(store, auth, nil)
}

func TestInitializeWritesDefaults(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx, "mallory"); !errors.Is(err, authority.ErrInvalidAuthority) {
		t.Fatalf("expected authority error, got %v", err)
	}

	got, err := svc.Initialize(ctx, "admin")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	want := lottery.DefaultRewardFactors()
	if got.FullMatch != want.FullMatch || got.JackpotPercentage != want.JackpotPercentage || got.LockDivider != want.LockDivider {
		t.Fatalf("factors = %+v, want defaults", got)
	}

	if _, err := svc.Initialize(ctx, "admin"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
}

func TestUpdateValidatesTables(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	bad := lottery.DefaultRewardFactors()
	bad.SuitStreaks = []float64{0, 0}
	if _, err := svc.Update(ctx, "admin", bad); err == nil {
		t.Fatalf("short streak table accepted")
	}

	bad = lottery.DefaultRewardFactors()
	bad.LockDivider = 0
	if _, err := svc.Update(ctx, "admin", bad); err == nil {
		t.Fatalf("zero lock divider accepted")
	}

	next := lottery.DefaultRewardFactors()
	next.FullMatch = 2.0
	saved, err := svc.Update(ctx, "admin", next)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.FullMatch != 2.0 {
		t.Fatalf("full match = %v, want 2.0", saved.FullMatch)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullMatch != 2.0 {
		t.Fatalf("persisted full match = %v, want 2.0", got.FullMatch)
	}
}
