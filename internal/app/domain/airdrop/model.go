package airdrop

import "time"

// Airdrop is a fixed-supply giveaway funded from the treasury.
type Airdrop struct {
	ID             string
	Name           string
	Supply         uint64
	AmountPerClaim uint64
	Supplied       uint64
	StartTime      int64
	EndTime        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Claim is the receipt preventing a second claim by the same account.
type Claim struct {
	ID        string
	AirdropID string
	Claimer   string
	Amount    uint64
	CreatedAt time.Time
}
