package lottery

import (
	"math"
	"testing"

	domain "github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
)

func TestGrowthFactor(t *testing.T) {
	if got := growthFactor(100, 100, 0.55, 0.9); got != 1.0 {
		t.Fatalf("no growth should yield 1.0, got %v", got)
	}
	if got := growthFactor(100, 50, 0.55, 0.9); got != 1.0 {
		t.Fatalf("shrinkage should yield 1.0, got %v", got)
	}
	if got := growthFactor(0, 100, 0.55, 0.9); got != 1.0 {
		t.Fatalf("zero initial should yield 1.0, got %v", got)
	}

	prev := 1.0
	for _, final := range []uint64{101, 150, 300, 1000, 100000} {
		got := growthFactor(100, final, 0.55, 0.9)
		if got <= prev {
			t.Fatalf("growth factor not strictly increasing at final=%d: %v <= %v", final, got, prev)
		}
		if got >= 1.55 {
			t.Fatalf("growth factor exceeded bound at final=%d: %v", final, got)
		}
		prev = got
	}
}

func TestNumTicketsReward(t *testing.T) {
	if got := numTicketsReward(300, 100, domain.TypePay, 0.55, 0.9); got != 3 {
		t.Fatalf("pay multiplier = %d, want 3", got)
	}
	if got := numTicketsReward(350, 100, domain.TypePay, 0.55, 0.9); got != 3 {
		t.Fatalf("pay multiplier should floor, got %d", got)
	}
	if got := numTicketsReward(100, 100, domain.TypeLock, 0.55, 0.9); got != 1 {
		t.Fatalf("lock multiplier at no growth = %d, want 1", got)
	}
	if got := numTicketsReward(500, 100, domain.Type(9), 0.55, 0.9); got != 1 {
		t.Fatalf("unknown type multiplier = %d, want 1", got)
	}
}

func TestCalculatePrizeExactMatchPay(t *testing.T) {
	f := domain.DefaultRewardFactors()

	const (
		initial = uint64(1_000_000)
		pool    = uint64(1_000_300)
		price   = uint64(100)
		amount  = uint64(300)
	)

	prize, err := CalculatePrize("S2H3C4W5", "S2H3C4W5", domain.TypePay, amount, initial, pool, price, f)
	if err != nil {
		t.Fatalf("calculate prize: %v", err)
	}

	growth := 1.0 + 0.55*(1.0-math.Pow(float64(pool)/float64(initial), -0.9))
	unit := float64(price) * growth
	reward := 4*1.0*unit + 1.2*unit + 2.2*unit + 0.20*float64(pool)
	want := uint64(math.Round(reward)) * 3

	if prize != want {
		t.Fatalf("prize = %d, want %d", prize, want)
	}
}

func TestCalculatePrizeNoMatch(t *testing.T) {
	f := domain.DefaultRewardFactors()

	// Every position differs in both suit and value.
	prize, err := CalculatePrize("S2H3C4W5", "H4C5W6S7", domain.TypePay, 100, 1000, 1000, 100, f)
	if err != nil {
		t.Fatalf("calculate prize: %v", err)
	}
	if prize != 0 {
		t.Fatalf("mismatched ticket paid %d", prize)
	}
}

func TestCalculatePrizePartialStreaks(t *testing.T) {
	f := domain.DefaultRewardFactors()

	// Suits match on positions 0-2, break on 3; values never match.
	// Expect 3 suit-match terms plus the length-3 suit streak bonus.
	prize, err := CalculatePrize("S2H3C4W5", "S3H4C5S6", domain.TypePay, 100, 1000, 1000, 100, f)
	if err != nil {
		t.Fatalf("calculate prize: %v", err)
	}

	want := uint64(math.Round(3*0.3*100 + 0.6*100))
	if prize != want {
		t.Fatalf("prize = %d, want %d", prize, want)
	}
}

func TestCalculatePrizeLockReturnsPrincipal(t *testing.T) {
	f := domain.DefaultRewardFactors()

	// No matches at all: the locked stake still comes back.
	prize, err := CalculatePrize("S2H3C4W5", "H4C5W6S7", domain.TypeLock, 5000, 1000, 1000, 100, f)
	if err != nil {
		t.Fatalf("calculate prize: %v", err)
	}
	if prize != 5000 {
		t.Fatalf("lock claim = %d, want principal 5000", prize)
	}
}

func TestCalculatePrizeRejectsBadCombinations(t *testing.T) {
	f := domain.DefaultRewardFactors()
	if _, err := CalculatePrize("S2H3C4W5", "bogus", domain.TypePay, 100, 1000, 1000, 100, f); err == nil {
		t.Fatalf("expected codec error for bad ticket")
	}
	if _, err := CalculatePrize("bogus", "S2H3C4W5", domain.TypePay, 100, 1000, 1000, 100, f); err == nil {
		t.Fatalf("expected codec error for bad winning hand")
	}
}
