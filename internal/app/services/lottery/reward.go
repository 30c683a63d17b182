package lottery

import (
	"math"

	"github.com/draco-labs/draco-protocol/internal/app/domain/cards"
	domain "github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
)

// growthFactor boosts rewards as final grows past initial. It is 1.0 when
// nothing grew and approaches 1+maxBoost asymptotically, concave in between.
func growthFactor(initial, final uint64, maxBoost, curvature float64) float64 {
	if final <= initial || initial == 0 {
		return 1.0
	}
	ratio := float64(final) / float64(initial)
	return 1.0 + maxBoost*(1.0-math.Pow(ratio, -curvature))
}

// numTicketsReward is the prize multiplier earned by a single ticket. Pay
// lotteries grant one multiple per price unit; lock lotteries grant a
// growth-weighted multiple of the locked stake.
func numTicketsReward(amountPaid, unitPrice uint64, typ domain.Type, maxBoost, curvature float64) uint64 {
	switch typ {
	case domain.TypePay:
		if unitPrice == 0 {
			return 1
		}
		return amountPaid / unitPrice
	case domain.TypeLock:
		return uint64(math.Round(growthFactor(unitPrice, amountPaid, maxBoost, curvature)))
	default:
		return 1
	}
}

// CalculatePrize scores a ticket combination against the winning one and
// returns the payout in protocol units. pool is the snapshot the jackpot
// share and the growth multiplier are evaluated against; intermediate math is
// IEEE double throughout so payouts reproduce across platforms.
func CalculatePrize(winning, ticket string, typ domain.Type, amountPaid, initialPool, pool, unitPrice uint64, f domain.RewardFactors) (uint64, error) {
	winHand, err := cards.Validate(winning)
	if err != nil {
		return 0, err
	}
	tktHand, err := cards.Validate(ticket)
	if err != nil {
		return 0, err
	}

	price := float64(unitPrice)
	if typ == domain.TypeLock {
		price = price / f.LockDivider
	}
	price *= growthFactor(initialPool, pool, f.MaxBoost, f.Curvature)

	var reward float64
	exactMatches := 0
	suitStreak, valueStreak := 1, 1

	for i := 0; i < cards.HandSize; i++ {
		suitMatch := winHand[i].Suit == tktHand[i].Suit
		valueMatch := winHand[i].Value == tktHand[i].Value

		switch {
		case suitMatch && valueMatch:
			exactMatches++
			reward += f.FullMatch * price
		case suitMatch:
			reward += f.SuitMatch * price
		case valueMatch:
			reward += f.ValueMatch * price
		}

		if i == 0 {
			continue
		}

		prevSuit := winHand[i-1].Suit == tktHand[i-1].Suit
		prevValue := winHand[i-1].Value == tktHand[i-1].Value

		if prevSuit && suitMatch {
			suitStreak++
		} else {
			if suitStreak > 1 && suitStreak < len(f.SuitStreaks) {
				reward += f.SuitStreaks[suitStreak] * price
			}
			if suitMatch {
				suitStreak = 1
			} else {
				suitStreak = 0
			}
		}

		if prevValue && valueMatch {
			valueStreak++
		} else {
			if valueStreak > 1 && valueStreak < len(f.ValueStreaks) {
				reward += f.ValueStreaks[valueStreak] * price
			}
			if valueMatch {
				valueStreak = 1
			} else {
				valueStreak = 0
			}
		}
	}

	// Streaks still open after the last position pay out as if broken.
	if suitStreak > 1 && suitStreak < len(f.SuitStreaks) {
		reward += f.SuitStreaks[suitStreak] * price
	}
	if valueStreak > 1 && valueStreak < len(f.ValueStreaks) {
		reward += f.ValueStreaks[valueStreak] * price
	}

	if exactMatches == cards.HandSize {
		reward += f.JackpotPercentage * float64(pool)
	}

	n := numTicketsReward(amountPaid, unitPrice, typ, f.MaxBoost, f.Curvature)

	switch typ {
	case domain.TypeLock:
		return amountPaid + uint64(math.Round(reward))*n, nil
	default:
		return uint64(math.Round(reward)) * n, nil
	}
}
