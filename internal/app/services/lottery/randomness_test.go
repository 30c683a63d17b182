package lottery

import (
	"math/rand"
	"testing"

	"github.com/draco-labs/draco-protocol/internal/app/domain/cards"
)

func TestDrawCombinationDeterministic(t *testing.T) {
	// All-zero bytes select index 0 of the shrinking pool every round, which
	// walks the first four cards of the first suit.
	combo, err := drawCombination(make([]byte, 8))
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if combo != "S2S3S4S5" {
		t.Fatalf("combination = %q, want S2S3S4S5", combo)
	}
}

func TestDrawCombinationNeverRepeatsCards(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		buf := make([]byte, 8+rng.Intn(24))
		rng.Read(buf)

		combo, err := drawCombination(buf)
		if err != nil {
			t.Fatalf("draw %x: %v", buf, err)
		}

		hand, err := cards.Validate(combo)
		if err != nil {
			t.Fatalf("draw %x produced invalid combination %q: %v", buf, combo, err)
		}

		seen := make(map[int]bool, cards.HandSize)
		for _, c := range hand {
			if seen[c.Index()] {
				t.Fatalf("draw %x repeated card %d in %q", buf, c.Index(), combo)
			}
			seen[c.Index()] = true
		}
	}
}

func TestDrawCombinationWrapsShortBuffer(t *testing.T) {
	// Three bytes force the cursor back to zero after the first round; the
	// draw must still complete without repeating a card.
	combo, err := drawCombination([]byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	hand, err := cards.Validate(combo)
	if err != nil {
		t.Fatalf("invalid combination %q: %v", combo, err)
	}
	seen := make(map[int]bool)
	for _, c := range hand {
		if seen[c.Index()] {
			t.Fatalf("repeated card in %q", combo)
		}
		seen[c.Index()] = true
	}
}

func TestDrawCombinationRejectsTinyBuffer(t *testing.T) {
	if _, err := drawCombination([]byte{0xff}); err == nil {
		t.Fatalf("expected error for one-byte buffer")
	}
}
