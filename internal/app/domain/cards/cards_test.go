package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoundTrip(t *testing.T) {
	combos := []string{"S2H3C4W5", "SASKSQSJ", "W2W2W2W2", "C9HTCJHA"}
	for _, combo := range combos {
		hand, err := Validate(combo)
		require.NoError(t, err, "validate %q", combo)
		assert.Equal(t, combo, Encode(hand))
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		combo string
		want  error
	}{
		{"", ErrInvalidCombinationLength},
		{"S2H3C4W", ErrInvalidCombinationLength},
		{"S2H3C4W5X", ErrInvalidCombinationLength},
		{"X2H3C4W5", ErrInvalidCombinationSuit},
		{"S2H3D4W5", ErrInvalidCombinationSuit},
		{"S1H3C4W5", ErrInvalidCombinationValue},
		{"S2H3C4W0", ErrInvalidCombinationValue},
	}
	for _, tc := range cases {
		_, err := Validate(tc.combo)
		assert.ErrorIs(t, err, tc.want, "validate %q", tc.combo)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for idx := 0; idx < DeckSize; idx++ {
		assert.Equal(t, idx, FromIndex(idx).Index())
	}
	assert.Equal(t, Card{Suit: 0, Value: 0}, FromIndex(0))
	assert.Equal(t, Card{Suit: 3, Value: 12}, FromIndex(51))
}
