package vesting

import "time"

const (
	// TreasuryInitialAmount is contributed to the treasury vault at bootstrap.
	TreasuryInitialAmount uint64 = 300_000_000

	// CliffAmount is released per cliff transfer; the cliff vault is funded
	// with three tranches up front.
	CliffAmount         uint64 = 50_000_000
	CliffFundedTranches uint64 = 3

	// SixMonthsSeconds is the minimum gap between cliff transfers.
	SixMonthsSeconds int64 = 15_768_000

	// TransfersPerPeriod bounds TransfersPerformed; the guard is inclusive,
	// so one more transfer than this value succeeds.
	TransfersPerPeriod uint32 = 2
)

// Cliff tracks six-month release state for the team allocation.
type Cliff struct {
	LastTransferOut    int64
	TransfersPerformed uint32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
