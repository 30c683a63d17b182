package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/draco-labs/draco-protocol/internal/app/domain/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/domain/vesting"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
)

// Store is a PostgreSQL implementation of the storage interfaces.
type Store struct {
	db *sqlx.DB
}

var _ storage.LotteryStore = (*Store)(nil)
var _ storage.RewardFactorsStore = (*Store)(nil)
var _ storage.AuthorityStore = (*Store)(nil)
var _ storage.AirdropStore = (*Store)(nil)
var _ storage.CliffStore = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: db}, nil
}

type lotteryRow struct {
	ID                   string    `db:"id"`
	Name                 string    `db:"name"`
	Description          string    `db:"description"`
	Type                 int16     `db:"lottery_type"`
	StartTime            int64     `db:"start_time"`
	EndTime              int64     `db:"end_time"`
	MinTokensPerTicket   int64     `db:"min_tokens_per_ticket"`
	InitialPrizePool     int64     `db:"initial_prize_pool"`
	AccumulatedPrizePool int64     `db:"accumulated_prize_pool"`
	ParticipantsCount    int64     `db:"participants_count"`
	WinningCombination   string    `db:"winning_combination"`
	RandomnessRequestID  string    `db:"randomness_request_id"`
	VaultAddress         string    `db:"vault_address"`
	Closed               bool      `db:"closed"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (r lotteryRow) toDomain() lottery.Lottery {
	return lottery.Lottery{
		ID:                   r.ID,
		Name:                 r.Name,
		Description:          r.Description,
		Type:                 lottery.Type(r.Type),
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		MinTokensPerTicket:   uint64(r.MinTokensPerTicket),
		InitialPrizePool:     uint64(r.InitialPrizePool),
		AccumulatedPrizePool: uint64(r.AccumulatedPrizePool),
		ParticipantsCount:    uint64(r.ParticipantsCount),
		WinningCombination:   r.WinningCombination,
		RandomnessRequestID:  r.RandomnessRequestID,
		VaultAddress:         r.VaultAddress,
		Closed:               r.Closed,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func fromLottery(lot lottery.Lottery) lotteryRow {
	return lotteryRow{
		ID:                   lot.ID,
		Name:                 lot.Name,
		Description:          lot.Description,
		Type:                 int16(lot.Type),
		StartTime:            lot.StartTime,
		EndTime:              lot.EndTime,
		MinTokensPerTicket:   int64(lot.MinTokensPerTicket),
		InitialPrizePool:     int64(lot.InitialPrizePool),
		AccumulatedPrizePool: int64(lot.AccumulatedPrizePool),
		ParticipantsCount:    int64(lot.ParticipantsCount),
		WinningCombination:   lot.WinningCombination,
		RandomnessRequestID:  lot.RandomnessRequestID,
		VaultAddress:         lot.VaultAddress,
		Closed:               lot.Closed,
		CreatedAt:            lot.CreatedAt,
		UpdatedAt:            lot.UpdatedAt,
	}
}

func (s *Store) CreateLottery(ctx context.Context, lot lottery.Lottery) (lottery.Lottery, error) {
	if lot.ID == "" {
		lot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO lotteries (id, name, description, lottery_type, start_time, end_time,
			min_tokens_per_ticket, initial_prize_pool, accumulated_prize_pool, participants_count,
			winning_combination, randomness_request_id, vault_address, closed, created_at, updated_at)
		VALUES (:id, :name, :description, :lottery_type, :start_time, :end_time,
			:min_tokens_per_ticket, :initial_prize_pool, :accumulated_prize_pool, :participants_count,
			:winning_combination, :randomness_request_id, :vault_address, :closed, :created_at, :updated_at)`,
		fromLottery(lot))
	if err != nil {
		return lottery.Lottery{}, fmt.Errorf("insert lottery: %w", err)
	}
	return lot, nil
}

func (s *Store) UpdateLottery(ctx context.Context, lot lottery.Lottery) (lottery.Lottery, error) {
	lot.UpdatedAt = time.Now().UTC()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE lotteries SET accumulated_prize_pool = :accumulated_prize_pool,
			participants_count = :participants_count, winning_combination = :winning_combination,
			randomness_request_id = :randomness_request_id, closed = :closed, updated_at = :updated_at
		WHERE id = :id`,
		fromLottery(lot))
	if err != nil {
		return lottery.Lottery{}, fmt.Errorf("update lottery: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return lottery.Lottery{}, fmt.Errorf("lottery %s: %w", lot.ID, storage.ErrNotFound)
	}
	return lot, nil
}

func (s *Store) GetLottery(ctx context.Context, id string) (lottery.Lottery, error) {
	var row lotteryRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM lotteries WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lottery.Lottery{}, fmt.Errorf("lottery %s: %w", id, storage.ErrNotFound)
		}
		return lottery.Lottery{}, fmt.Errorf("select lottery: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListLotteries(ctx context.Context) ([]lottery.Lottery, error) {
	var rows []lotteryRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM lotteries ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("select lotteries: %w", err)
	}
	result := make([]lottery.Lottery, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

type ticketRow struct {
	ID          string    `db:"id"`
	LotteryID   string    `db:"lottery_id"`
	Participant string    `db:"participant"`
	Combination string    `db:"combination"`
	Amount      int64     `db:"amount"`
	Claimed     bool      `db:"claimed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r ticketRow) toDomain() lottery.Ticket {
	return lottery.Ticket{
		ID:          r.ID,
		LotteryID:   r.LotteryID,
		Participant: r.Participant,
		Combination: r.Combination,
		Amount:      uint64(r.Amount),
		Claimed:     r.Claimed,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *Store) CreateTicket(ctx context.Context, tkt lottery.Ticket) (lottery.Ticket, error) {
	if tkt.ID == "" {
		tkt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tkt.CreatedAt = now
	tkt.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, lottery_id, participant, combination, amount, claimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tkt.ID, tkt.LotteryID, tkt.Participant, tkt.Combination, int64(tkt.Amount), tkt.Claimed, tkt.CreatedAt, tkt.UpdatedAt)
	if err != nil {
		return lottery.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	return tkt, nil
}

func (s *Store) UpdateTicket(ctx context.Context, tkt lottery.Ticket) (lottery.Ticket, error) {
	tkt.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET amount = $1, claimed = $2, updated_at = $3 WHERE id = $4`,
		int64(tkt.Amount), tkt.Claimed, tkt.UpdatedAt, tkt.ID)
	if err != nil {
		return lottery.Ticket{}, fmt.Errorf("update ticket: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return lottery.Ticket{}, fmt.Errorf("ticket %s: %w", tkt.ID, storage.ErrNotFound)
	}
	return tkt, nil
}

func (s *Store) GetTicket(ctx context.Context, lotteryID, participant, combination string) (lottery.Ticket, error) {
	var row ticketRow
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM tickets WHERE lottery_id = $1 AND participant = $2 AND combination = $3`,
		lotteryID, participant, combination)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lottery.Ticket{}, fmt.Errorf("ticket: %w", storage.ErrNotFound)
		}
		return lottery.Ticket{}, fmt.Errorf("select ticket: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListTickets(ctx context.Context, lotteryID string) ([]lottery.Ticket, error) {
	var rows []ticketRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM tickets WHERE lottery_id = $1 ORDER BY created_at`, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	result := make([]lottery.Ticket, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) ListTicketsByParticipant(ctx context.Context, lotteryID, participant string) ([]lottery.Ticket, error) {
	var rows []ticketRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM tickets WHERE lottery_id = $1 AND participant = $2 ORDER BY created_at`,
		lotteryID, participant)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	result := make([]lottery.Ticket, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

type rewardFactorsRow struct {
	FullMatch         float64   `db:"full_match"`
	SuitMatch         float64   `db:"suit_match"`
	ValueMatch        float64   `db:"value_match"`
	SuitStreaks       []byte    `db:"suit_streaks"`
	ValueStreaks      []byte    `db:"value_streaks"`
	JackpotPercentage float64   `db:"jackpot_percentage"`
	MaxBoost          float64   `db:"max_boost"`
	Curvature         float64   `db:"curvature"`
	LockDivider       float64   `db:"lock_divider"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (s *Store) GetRewardFactors(ctx context.Context) (lottery.RewardFactors, error) {
	var row rewardFactorsRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM reward_factors LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lottery.RewardFactors{}, fmt.Errorf("reward factors: %w", storage.ErrNotFound)
		}
		return lottery.RewardFactors{}, fmt.Errorf("select reward factors: %w", err)
	}

	f := lottery.RewardFactors{
		FullMatch:         row.FullMatch,
		SuitMatch:         row.SuitMatch,
		ValueMatch:        row.ValueMatch,
		JackpotPercentage: row.JackpotPercentage,
		MaxBoost:          row.MaxBoost,
		Curvature:         row.Curvature,
		LockDivider:       row.LockDivider,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := json.Unmarshal(row.SuitStreaks, &f.SuitStreaks); err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("decode suit streaks: %w", err)
	}
	if err := json.Unmarshal(row.ValueStreaks, &f.ValueStreaks); err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("decode value streaks: %w", err)
	}
	return f, nil
}

func (s *Store) SaveRewardFactors(ctx context.Context, f lottery.RewardFactors) (lottery.RewardFactors, error) {
	suitStreaks, err := json.Marshal(f.SuitStreaks)
	if err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("encode suit streaks: %w", err)
	}
	valueStreaks, err := json.Marshal(f.ValueStreaks)
	if err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("encode value streaks: %w", err)
	}

	now := time.Now().UTC()
	f.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reward_factors (singleton, full_match, suit_match, value_match, suit_streaks,
			value_streaks, jackpot_percentage, max_boost, curvature, lock_divider, created_at, updated_at)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (singleton) DO UPDATE SET
			full_match = EXCLUDED.full_match, suit_match = EXCLUDED.suit_match,
			value_match = EXCLUDED.value_match, suit_streaks = EXCLUDED.suit_streaks,
			value_streaks = EXCLUDED.value_streaks, jackpot_percentage = EXCLUDED.jackpot_percentage,
			max_boost = EXCLUDED.max_boost, curvature = EXCLUDED.curvature,
			lock_divider = EXCLUDED.lock_divider, updated_at = EXCLUDED.updated_at`,
		f.FullMatch, f.SuitMatch, f.ValueMatch, suitStreaks, valueStreaks,
		f.JackpotPercentage, f.MaxBoost, f.Curvature, f.LockDivider, now)
	if err != nil {
		return lottery.RewardFactors{}, fmt.Errorf("upsert reward factors: %w", err)
	}
	return f, nil
}

func (s *Store) GetAuthority(ctx context.Context) (string, error) {
	var account string
	err := s.db.GetContext(ctx, &account, `SELECT account FROM authority LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("authority: %w", storage.ErrNotFound)
		}
		return "", fmt.Errorf("select authority: %w", err)
	}
	return account, nil
}

func (s *Store) SaveAuthority(ctx context.Context, account string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authority (singleton, account) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET account = EXCLUDED.account`,
		account)
	if err != nil {
		return fmt.Errorf("upsert authority: %w", err)
	}
	return nil
}

type airdropRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Supply         int64     `db:"supply"`
	AmountPerClaim int64     `db:"amount_per_claim"`
	Supplied       int64     `db:"supplied"`
	StartTime      int64     `db:"start_time"`
	EndTime        int64     `db:"end_time"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r airdropRow) toDomain() airdrop.Airdrop {
	return airdrop.Airdrop{
		ID:             r.ID,
		Name:           r.Name,
		Supply:         uint64(r.Supply),
		AmountPerClaim: uint64(r.AmountPerClaim),
		Supplied:       uint64(r.Supplied),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (s *Store) CreateAirdrop(ctx context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error) {
	if drop.ID == "" {
		drop.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	drop.CreatedAt = now
	drop.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airdrops (id, name, supply, amount_per_claim, supplied, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		drop.ID, drop.Name, int64(drop.Supply), int64(drop.AmountPerClaim), int64(drop.Supplied),
		drop.StartTime, drop.EndTime, drop.CreatedAt, drop.UpdatedAt)
	if err != nil {
		return airdrop.Airdrop{}, fmt.Errorf("insert airdrop: %w", err)
	}
	return drop, nil
}

func (s *Store) UpdateAirdrop(ctx context.Context, drop airdrop.Airdrop) (airdrop.Airdrop, error) {
	drop.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE airdrops SET supplied = $1, updated_at = $2 WHERE id = $3`,
		int64(drop.Supplied), drop.UpdatedAt, drop.ID)
	if err != nil {
		return airdrop.Airdrop{}, fmt.Errorf("update airdrop: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return airdrop.Airdrop{}, fmt.Errorf("airdrop %s: %w", drop.ID, storage.ErrNotFound)
	}
	return drop, nil
}

func (s *Store) GetAirdrop(ctx context.Context, id string) (airdrop.Airdrop, error) {
	var row airdropRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM airdrops WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return airdrop.Airdrop{}, fmt.Errorf("airdrop %s: %w", id, storage.ErrNotFound)
		}
		return airdrop.Airdrop{}, fmt.Errorf("select airdrop: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAirdrops(ctx context.Context) ([]airdrop.Airdrop, error) {
	var rows []airdropRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM airdrops ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("select airdrops: %w", err)
	}
	result := make([]airdrop.Airdrop, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) CreateAirdropClaim(ctx context.Context, claim airdrop.Claim) (airdrop.Claim, error) {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO airdrop_claims (id, airdrop_id, claimer, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		claim.ID, claim.AirdropID, claim.Claimer, int64(claim.Amount), claim.CreatedAt)
	if err != nil {
		return airdrop.Claim{}, fmt.Errorf("insert airdrop claim: %w", err)
	}
	return claim, nil
}

func (s *Store) GetAirdropClaim(ctx context.Context, airdropID, claimer string) (airdrop.Claim, error) {
	var row struct {
		ID        string    `db:"id"`
		AirdropID string    `db:"airdrop_id"`
		Claimer   string    `db:"claimer"`
		Amount    int64     `db:"amount"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT * FROM airdrop_claims WHERE airdrop_id = $1 AND claimer = $2`, airdropID, claimer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return airdrop.Claim{}, fmt.Errorf("airdrop claim: %w", storage.ErrNotFound)
		}
		return airdrop.Claim{}, fmt.Errorf("select airdrop claim: %w", err)
	}
	return airdrop.Claim{
		ID:        row.ID,
		AirdropID: row.AirdropID,
		Claimer:   row.Claimer,
		Amount:    uint64(row.Amount),
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Store) GetCliff(ctx context.Context) (vesting.Cliff, error) {
	var row struct {
		LastTransferOut    int64     `db:"last_transfer_out"`
		TransfersPerformed int32     `db:"transfers_performed"`
		CreatedAt          time.Time `db:"created_at"`
		UpdatedAt          time.Time `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT last_transfer_out, transfers_performed, created_at, updated_at FROM cliff LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vesting.Cliff{}, fmt.Errorf("cliff: %w", storage.ErrNotFound)
		}
		return vesting.Cliff{}, fmt.Errorf("select cliff: %w", err)
	}
	return vesting.Cliff{
		LastTransferOut:    row.LastTransferOut,
		TransfersPerformed: uint32(row.TransfersPerformed),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}

func (s *Store) SaveCliff(ctx context.Context, c vesting.Cliff) (vesting.Cliff, error) {
	now := time.Now().UTC()
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cliff (singleton, last_transfer_out, transfers_performed, created_at, updated_at)
		VALUES (TRUE, $1, $2, $3, $3)
		ON CONFLICT (singleton) DO UPDATE SET
			last_transfer_out = EXCLUDED.last_transfer_out,
			transfers_performed = EXCLUDED.transfers_performed,
			updated_at = EXCLUDED.updated_at`,
		c.LastTransferOut, int32(c.TransfersPerformed), now)
	if err != nil {
		return vesting.Cliff{}, fmt.Errorf("upsert cliff: %w", err)
	}
	return c, nil
}
