package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/cache"
	"github.com/openpool/betledger/pkg/types"
	"go.uber.org/zap"
)

type handler struct {
	engine   *ledger.Engine
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func newHandler(engine *ledger.Engine, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *handler {
	return &handler{
		engine:   engine,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (h *handler) handleCreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, ok := h.parseIdentity(w, req.Actor, "actor")
	if !ok {
		return
	}
	mint, ok := h.parseIdentity(w, req.TokenMint, "tokenMint")
	if !ok {
		return
	}

	bet, err := h.engine.CreateBet(r.Context(), actor, req.Title, req.BetAmount, req.EndTime, mint)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toBetResponse(bet))
}

func (h *handler) handleStake(w http.ResponseWriter, r *http.Request) {
	betAddr := common.HexToHash(chi.URLParam(r, "address"))

	var req stakeRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, ok := h.parseIdentity(w, req.Actor, "actor")
	if !ok {
		return
	}

	ub, err := h.engine.Stake(r.Context(), actor, betAddr, req.Direction)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.invalidateBet(betAddr)
	h.writeJSON(w, http.StatusCreated, toUserBetResponse(ub))
}

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	betAddr := common.HexToHash(chi.URLParam(r, "address"))

	var req resolveRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, ok := h.parseIdentity(w, req.Actor, "actor")
	if !ok {
		return
	}

	bet, err := h.engine.Resolve(r.Context(), actor, betAddr, req.Outcome)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.invalidateBet(betAddr)
	h.writeJSON(w, http.StatusOK, toBetResponse(bet))
}

func (h *handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	betAddr := common.HexToHash(chi.URLParam(r, "address"))

	var req claimRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, ok := h.parseIdentity(w, req.Actor, "actor")
	if !ok {
		return
	}

	payout, err := h.engine.Claim(r.Context(), actor, betAddr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, claimResponse{Payout: payout})
}

func (h *handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor, ok := h.parseIdentity(w, req.Actor, "actor")
	if !ok {
		return
	}
	mint, ok := h.parseIdentity(w, req.Mint, "mint")
	if !ok {
		return
	}
	to, ok := h.parseIdentity(w, req.To, "to")
	if !ok {
		return
	}

	balance, err := h.engine.MintTo(r.Context(), actor, mint, to, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, mintResponse{Balance: balance})
}

func (h *handler) handleListBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.engine.Store().ListBets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]betResponse, 0, len(bets))
	for _, bet := range bets {
		out = append(out, toBetResponse(bet))
	}

	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleGetBet(w http.ResponseWriter, r *http.Request) {
	betAddr := common.HexToHash(chi.URLParam(r, "address"))
	key := "bet:" + betAddr.Hex()

	if cached, found := h.cache.Get(key); found {
		if resp, isBet := cached.(betResponse); isBet {
			h.writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	bet, err := h.engine.Store().GetBet(r.Context(), betAddr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := toBetResponse(bet)
	h.cache.Set(key, resp, h.cacheTTL)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleBetPositions(w http.ResponseWriter, r *http.Request) {
	betAddr := common.HexToHash(chi.URLParam(r, "address"))

	userBets, err := h.engine.Store().ListUserBetsByBet(r.Context(), betAddr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeUserBets(w, userBets)
}

func (h *handler) handleUserPositions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.parseIdentity(w, chi.URLParam(r, "user"), "user")
	if !ok {
		return
	}

	userBets, err := h.engine.Store().ListUserBetsByUser(r.Context(), user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeUserBets(w, userBets)
}

func (h *handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	addr := common.HexToHash(chi.URLParam(r, "address"))

	acct, err := h.engine.Store().GetTokenAccount(r.Context(), addr)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, accountResponse{
		Address: acct.Address.Hex(),
		Mint:    acct.Mint.Hex(),
		Balance: acct.Balance,
	})
}

func (h *handler) writeUserBets(w http.ResponseWriter, userBets []*ledger.UserBet) {
	out := make([]userBetResponse, 0, len(userBets))
	for _, ub := range userBets {
		out = append(out, toUserBetResponse(ub))
	}

	h.writeJSON(w, http.StatusOK, out)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "BAD_REQUEST",
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}

	return true
}

func (h *handler) parseIdentity(w http.ResponseWriter, s string, field string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "BAD_REQUEST",
			Message: field + " must be a hex identity",
		})
		return common.Address{}, false
	}

	return common.HexToAddress(s), true
}

func (h *handler) invalidateBet(addr common.Hash) {
	h.cache.Delete("bet:" + addr.Hex())
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	code := types.CodeOf(err)
	if code == "" {
		if errors.Is(err, ledger.ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, errorResponse{
				Code:    string(types.CodeAccountNotInitialized),
				Message: "record not found",
			})
			return
		}

		h.logger.Error("internal-error", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: "internal error",
		})
		return
	}

	h.writeJSON(w, statusForCode(code), errorResponse{
		Code:    string(code),
		Message: err.Error(),
	})
}

// statusForCode maps the ledger error taxonomy onto HTTP statuses. Codes pass
// through verbatim in the body; the status is a transport-level hint only.
func statusForCode(code types.Code) int {
	switch code {
	case types.CodeInvalidTitle, types.CodeInvalidEndTime, types.CodeInvalidAmount:
		return http.StatusBadRequest
	case types.CodeUnauthorized:
		return http.StatusForbidden
	case types.CodeAccountNotInitialized:
		return http.StatusNotFound
	case types.CodeDuplicateBet, types.CodeDuplicateStake, types.CodeBetAlreadyResolved,
		types.CodeBetNotResolved, types.CodeBetNotEnded, types.CodeBetEndTimeExceeded,
		types.CodeAlreadyClaimed, types.CodeNotWinner, types.CodeVaultMismatch:
		return http.StatusConflict
	case types.CodeAmountOverflow, types.CodeNoWinningPool, types.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("response-encode-failed", zap.Error(err))
	}
}
