package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/draco-labs/draco-protocol/internal/app"
	domain "github.com/draco-labs/draco-protocol/internal/app/domain/lottery"
	"github.com/draco-labs/draco-protocol/internal/app/metrics"
	airdropsvc "github.com/draco-labs/draco-protocol/internal/app/services/airdrop"
	"github.com/draco-labs/draco-protocol/internal/app/services/authority"
	lotterysvc "github.com/draco-labs/draco-protocol/internal/app/services/lottery"
	rewardsvc "github.com/draco-labs/draco-protocol/internal/app/services/rewards"
	vaultsvc "github.com/draco-labs/draco-protocol/internal/app/services/vault"
	vestingsvc "github.com/draco-labs/draco-protocol/internal/app/services/vesting"
	"github.com/draco-labs/draco-protocol/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	now func() int64
}

// NewHandler returns a router exposing the protocol REST API. All routes
// except health and metrics require a bearer token resolving the caller.
func NewHandler(application *app.Application, jwtSecret []byte, allowedOrigins []string) http.Handler {
	h := &handler{app: application, now: func() int64 { return time.Now().Unix() }}

	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(authMiddleware(jwtSecret))

	api.HandleFunc("/authority", h.initializeAuthority).Methods(http.MethodPost)
	api.HandleFunc("/treasury", h.initializeTreasury).Methods(http.MethodPost)
	api.HandleFunc("/cliff", h.getCliff).Methods(http.MethodGet)
	api.HandleFunc("/cliff/transfer-out", h.cliffTransferOut).Methods(http.MethodPost)

	api.HandleFunc("/reward-factors", h.initializeRewardFactors).Methods(http.MethodPost)
	api.HandleFunc("/reward-factors", h.updateRewardFactors).Methods(http.MethodPut)
	api.HandleFunc("/reward-factors", h.getRewardFactors).Methods(http.MethodGet)

	api.HandleFunc("/lotteries", h.startLottery).Methods(http.MethodPost)
	api.HandleFunc("/lotteries", h.listLotteries).Methods(http.MethodGet)
	api.HandleFunc("/lotteries/{id}", h.getLottery).Methods(http.MethodGet)
	api.HandleFunc("/lotteries/{id}/tickets", h.buyTicket).Methods(http.MethodPost)
	api.HandleFunc("/lotteries/{id}/tickets", h.listTickets).Methods(http.MethodGet)
	api.HandleFunc("/lotteries/{id}/commit", h.commitRandomness).Methods(http.MethodPost)
	api.HandleFunc("/lotteries/{id}/reveal", h.revealRandomness).Methods(http.MethodPost)
	api.HandleFunc("/lotteries/{id}/claim", h.claimPrize).Methods(http.MethodPost)
	api.HandleFunc("/lotteries/{id}/close", h.closeLottery).Methods(http.MethodPost)

	api.HandleFunc("/airdrops", h.createAirdrop).Methods(http.MethodPost)
	api.HandleFunc("/airdrops", h.listAirdrops).Methods(http.MethodGet)
	api.HandleFunc("/airdrops/{id}", h.getAirdrop).Methods(http.MethodGet)
	api.HandleFunc("/airdrops/{id}/claim", h.claimAirdrop).Methods(http.MethodPost)

	// CORS wraps the router itself so preflight requests are answered before
	// route matching rejects the OPTIONS method.
	return metrics.InstrumentHandler(corsMiddleware(allowedOrigins)(r))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) initializeAuthority(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Authority.Initialize(r.Context(), caller(r)); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"authority": caller(r)})
}

func (h *handler) initializeTreasury(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Funder string `json:"funder"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	funder := payload.Funder
	if strings.TrimSpace(funder) == "" {
		funder = caller(r)
	}

	if err := h.app.Vesting.InitializeTreasury(r.Context(), caller(r), funder, h.now()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

func (h *handler) getCliff(w http.ResponseWriter, r *http.Request) {
	cliff, err := h.app.Vesting.Cliff(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, cliff)
}

func (h *handler) cliffTransferOut(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Vesting.TransferOut(r.Context(), caller(r), h.now()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *handler) initializeRewardFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.app.Rewards.Initialize(r.Context(), caller(r))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, factors)
}

type rewardFactorsPayload struct {
	FullMatch         float64   `json:"full_match"`
	SuitMatch         float64   `json:"suit_match"`
	ValueMatch        float64   `json:"value_match"`
	SuitStreaks       []float64 `json:"suit_streaks"`
	ValueStreaks      []float64 `json:"value_streaks"`
	JackpotPercentage float64   `json:"jackpot_percentage"`
	MaxBoost          float64   `json:"max_boost"`
	Curvature         float64   `json:"curvature"`
	LockDivider       float64   `json:"lock_divider"`
}

func (h *handler) updateRewardFactors(w http.ResponseWriter, r *http.Request) {
	var payload rewardFactorsPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	factors, err := h.app.Rewards.Update(r.Context(), caller(r), domain.RewardFactors{
		FullMatch:         payload.FullMatch,
		SuitMatch:         payload.SuitMatch,
		ValueMatch:        payload.ValueMatch,
		SuitStreaks:       payload.SuitStreaks,
		ValueStreaks:      payload.ValueStreaks,
		JackpotPercentage: payload.JackpotPercentage,
		MaxBoost:          payload.MaxBoost,
		Curvature:         payload.Curvature,
		LockDivider:       payload.LockDivider,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, factors)
}

func (h *handler) getRewardFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.app.Rewards.Get(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, factors)
}

func (h *handler) startLottery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Description        string `json:"description"`
		Type               string `json:"type"`
		StartTime          int64  `json:"start_time"`
		EndTime            int64  `json:"end_time"`
		MinTokensPerTicket uint64 `json:"min_tokens_per_ticket"`
		InitialPrizePool   uint64 `json:"initial_prize_pool"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	typ, err := parseLotteryType(payload.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lot, err := h.app.Lottery.Start(r.Context(), caller(r), lotterysvc.StartParams{
		ID:                 payload.ID,
		Name:               payload.Name,
		Description:        payload.Description,
		Type:               typ,
		StartTime:          payload.StartTime,
		EndTime:            payload.EndTime,
		MinTokensPerTicket: payload.MinTokensPerTicket,
		InitialPrizePool:   payload.InitialPrizePool,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

func (h *handler) listLotteries(w http.ResponseWriter, r *http.Request) {
	lots, err := h.app.Lottery.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, lots)
}

func (h *handler) getLottery(w http.ResponseWriter, r *http.Request) {
	lot, err := h.app.Lottery.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (h *handler) buyTicket(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Combination string `json:"combination"`
		Amount      uint64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tkt, err := h.app.Lottery.BuyTicket(r.Context(), caller(r), mux.Vars(r)["id"], payload.Combination, payload.Amount, h.now())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, tkt)
}

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	tkts, err := h.app.Lottery.ListTickets(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tkts)
}

func (h *handler) commitRandomness(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RequestID   string `json:"request_id"`
		CurrentSlot uint64 `json:"current_slot"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.app.Lottery.CommitRandomness(r.Context(), caller(r), mux.Vars(r)["id"], payload.RequestID, h.now(), payload.CurrentSlot); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "committed"})
}

func (h *handler) revealRandomness(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RequestID   string `json:"request_id"`
		CurrentSlot uint64 `json:"current_slot"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	combination, err := h.app.Lottery.RevealRandomness(r.Context(), caller(r), mux.Vars(r)["id"], payload.RequestID, h.now(), payload.CurrentSlot)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"winning_combination": combination})
}

func (h *handler) claimPrize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Combination string `json:"combination"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prize, err := h.app.Lottery.ClaimPrize(r.Context(), caller(r), mux.Vars(r)["id"], payload.Combination, h.now())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"prize": prize})
}

func (h *handler) closeLottery(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Lottery.Close(r.Context(), caller(r), mux.Vars(r)["id"], h.now()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *handler) createAirdrop(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Supply         uint64 `json:"supply"`
		AmountPerClaim uint64 `json:"amount_per_claim"`
		StartTime      int64  `json:"start_time"`
		EndTime        int64  `json:"end_time"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	drop, err := h.app.Airdrop.Create(r.Context(), caller(r), airdropsvc.CreateParams{
		ID:             payload.ID,
		Name:           payload.Name,
		Supply:         payload.Supply,
		AmountPerClaim: payload.AmountPerClaim,
		StartTime:      payload.StartTime,
		EndTime:        payload.EndTime,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, drop)
}

func (h *handler) listAirdrops(w http.ResponseWriter, r *http.Request) {
	drops, err := h.app.Airdrop.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, drops)
}

func (h *handler) getAirdrop(w http.ResponseWriter, r *http.Request) {
	drop, err := h.app.Airdrop.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, drop)
}

func (h *handler) claimAirdrop(w http.ResponseWriter, r *http.Request) {
	claim, err := h.app.Airdrop.Claim(r.Context(), caller(r), mux.Vars(r)["id"], h.now())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func parseLotteryType(raw string) (domain.Type, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pay":
		return domain.TypePay, nil
	case "lock":
		return domain.TypeLock, nil
	default:
		return 0, fmt.Errorf("unknown lottery type %q", raw)
	}
}

// statusFor maps service sentinels to HTTP status codes so clients can
// branch on the failure kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authority.ErrInvalidAuthority):
		return http.StatusForbidden
	case errors.Is(err, lotterysvc.ErrRandomnessNotResolved):
		return http.StatusServiceUnavailable
	case errors.Is(err, authority.ErrAlreadyInitialized),
		errors.Is(err, rewardsvc.ErrAlreadyInitialized),
		errors.Is(err, vestingsvc.ErrTreasuryInitialized),
		errors.Is(err, lotterysvc.ErrCombinationAlreadySet),
		errors.Is(err, lotterysvc.ErrTicketAlreadyClaimed),
		errors.Is(err, lotterysvc.ErrLotteryClosed),
		errors.Is(err, airdropsvc.ErrAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, vaultsvc.ErrInsufficientVaultBalance):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
