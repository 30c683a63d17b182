package lottery

import "time"

// Type selects how ticket purchases are priced and how prizes pay out.
type Type uint8

const (
	// TypePay sells tickets outright; purchases are burned into the pool.
	TypePay Type = 0
	// TypeLock holds the purchase amount and returns it with the prize.
	TypeLock Type = 1
)

// CloseBufferSeconds is the cool-down after the end time before a lottery
// may be closed, leaving room for late prize claims.
const CloseBufferSeconds int64 = 10 * 24 * 60 * 60

// Valid reports whether t is a known lottery type.
func (t Type) Valid() bool {
	return t == TypePay || t == TypeLock
}

func (t Type) String() string {
	switch t {
	case TypePay:
		return "pay"
	case TypeLock:
		return "lock"
	default:
		return "unknown"
	}
}

// Lottery is a single draw round with its own prize vault.
type Lottery struct {
	ID                   string
	Name                 string
	Description          string
	Type                 Type
	StartTime            int64
	EndTime              int64
	MinTokensPerTicket   uint64
	InitialPrizePool     uint64
	AccumulatedPrizePool uint64
	ParticipantsCount    uint64
	WinningCombination   string
	RandomnessRequestID  string
	VaultAddress         string
	Closed               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Started reports whether the purchase window has opened at the given time.
// The window is inclusive of the start instant and exclusive of the end.
func (l Lottery) Started(nowUnix int64) bool {
	return nowUnix >= l.StartTime
}

// Finished reports whether the purchase window has closed at the given time.
func (l Lottery) Finished(nowUnix int64) bool {
	return l.EndTime < nowUnix
}

// Ticket records one participant's stake on one combination. Repeat purchases
// of the same combination accumulate into the same ticket.
type Ticket struct {
	ID          string
	LotteryID   string
	Participant string
	Combination string
	Amount      uint64
	Claimed     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StreakTableSize is the number of entries in each streak bonus table. The
// entry at a given index is the bonus paid when a streak of that length
// breaks; indices 0 and 1 are never paid.
const StreakTableSize = 5

// RewardFactors parameterises prize calculation for all lotteries.
type RewardFactors struct {
	FullMatch         float64
	SuitMatch         float64
	ValueMatch        float64
	SuitStreaks       []float64
	ValueStreaks      []float64
	JackpotPercentage float64
	MaxBoost          float64
	Curvature         float64
	LockDivider       float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultRewardFactors returns the protocol launch parameters.
func DefaultRewardFactors() RewardFactors {
	return RewardFactors{
		FullMatch:         1.0,
		SuitMatch:         0.3,
		ValueMatch:        0.5,
		SuitStreaks:       []float64{0, 0, 0.25, 0.6, 1.2},
		ValueStreaks:      []float64{0, 0, 0.5, 1.2, 2.2},
		JackpotPercentage: 0.20,
		MaxBoost:          0.55,
		Curvature:         0.9,
		LockDivider:       50.0,
	}
}
