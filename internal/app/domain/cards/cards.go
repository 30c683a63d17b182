package cards

import "errors"

// Deck layout: 4 suits x 13 values, index = suit*ValuesPerSuit + value.
const (
	DeckSize      = 52
	ValuesPerSuit = 13
	HandSize      = 4

	// CombinationLength is the wire length of an encoded hand: one suit
	// character followed by one value character per card.
	CombinationLength = 2 * HandSize
)

var (
	ErrInvalidCombinationLength = errors.New("combination must be exactly 8 characters")
	ErrInvalidCombinationSuit   = errors.New("combination contains an invalid suit character")
	ErrInvalidCombinationValue  = errors.New("combination contains an invalid value character")
)

var (
	suitAlphabet  = [4]byte{'S', 'C', 'H', 'W'}
	valueAlphabet = [13]byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
)

// Card is a single card identified by suit and value ordinals.
type Card struct {
	Suit  int
	Value int
}

// FromIndex maps a deck index in [0, DeckSize) to a card.
func FromIndex(idx int) Card {
	return Card{Suit: idx / ValuesPerSuit, Value: idx % ValuesPerSuit}
}

// Index returns the deck index of the card.
func (c Card) Index() int {
	return c.Suit*ValuesPerSuit + c.Value
}

// Validate parses an encoded combination into its four cards. The returned
// error distinguishes a bad length from a bad suit or value character.
func Validate(combination string) ([HandSize]Card, error) {
	var hand [HandSize]Card
	if len(combination) != CombinationLength {
		return hand, ErrInvalidCombinationLength
	}

	for i := 0; i < HandSize; i++ {
		suit, ok := suitOf(combination[2*i])
		if !ok {
			return hand, ErrInvalidCombinationSuit
		}
		value, ok := valueOf(combination[2*i+1])
		if !ok {
			return hand, ErrInvalidCombinationValue
		}
		hand[i] = Card{Suit: suit, Value: value}
	}
	return hand, nil
}

// Encode renders four cards as the 8-character wire form.
func Encode(hand [HandSize]Card) string {
	buf := make([]byte, 0, CombinationLength)
	for _, c := range hand {
		buf = append(buf, suitAlphabet[c.Suit], valueAlphabet[c.Value])
	}
	return string(buf)
}

func suitOf(ch byte) (int, bool) {
	for i, s := range suitAlphabet {
		if s == ch {
			return i, true
		}
	}
	return 0, false
}

func valueOf(ch byte) (int, bool) {
	for i, v := range valueAlphabet {
		if v == ch {
			return i, true
		}
	}
	return 0, false
}
