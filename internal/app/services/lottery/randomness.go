package lottery

import (
	"encoding/binary"
	"fmt"

	"github.com/draco-labs/draco-protocol/internal/app/domain/cards"
)

// drawCombination maps revealed oracle bytes to a winning combination using
// replacement-free sampling: each round consumes two bytes as a big-endian
// value, reduces it modulo the shrinking pool, and removes the drawn card so
// no combination can repeat a card. The read cursor wraps to the start when
// fewer than two bytes remain.
func drawCombination(data []byte) (string, error) {
	if len(data) < 2 {
		return "", fmt.Errorf("randomness buffer too short: %d bytes", len(data))
	}

	pool := make([]int, cards.DeckSize)
	for i := range pool {
		pool[i] = i
	}

	var hand [cards.HandSize]cards.Card
	cursor := 0
	for round := 0; round < cards.HandSize; round++ {
		if cursor+1 >= len(data) {
			cursor = 0
		}
		v := binary.BigEndian.Uint16(data[cursor : cursor+2])
		cursor += 2

		idx := int(v) % len(pool)
		hand[round] = cards.FromIndex(pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}

	return cards.Encode(hand), nil
}
