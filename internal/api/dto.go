package api

import (
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/types"
)

type createBetRequest struct {
	Actor     string       `json:"actor"`
	Title     string       `json:"title"`
	BetAmount types.Amount `json:"betAmount"`
	EndTime   int64        `json:"endTime"`
	TokenMint string       `json:"tokenMint"`
}

type stakeRequest struct {
	Actor     string `json:"actor"`
	Direction bool   `json:"direction"`
}

type resolveRequest struct {
	Actor   string `json:"actor"`
	Outcome bool   `json:"outcome"`
}

type claimRequest struct {
	Actor string `json:"actor"`
}

type mintRequest struct {
	Actor  string       `json:"actor"`
	Mint   string       `json:"mint"`
	To     string       `json:"to"`
	Amount types.Amount `json:"amount"`
}

type betResponse struct {
	Address        string       `json:"address"`
	Creator        string       `json:"creator"`
	Title          string       `json:"title"`
	BetAmount      types.Amount `json:"betAmount"`
	TotalYesAmount types.Amount `json:"totalYesAmount"`
	TotalNoAmount  types.Amount `json:"totalNoAmount"`
	YesBettors     uint64       `json:"yesBettors"`
	NoBettors      uint64       `json:"noBettors"`
	EndTime        int64        `json:"endTime"`
	Resolved       bool         `json:"resolved"`
	Outcome        bool         `json:"outcome"`
	TokenMint      string       `json:"tokenMint"`
	Vault          string       `json:"vault"`
}

type userBetResponse struct {
	Address   string       `json:"address"`
	User      string       `json:"user"`
	Bet       string       `json:"bet"`
	Amount    types.Amount `json:"amount"`
	Direction bool         `json:"direction"`
	Claimed   bool         `json:"claimed"`
}

type accountResponse struct {
	Address string       `json:"address"`
	Mint    string       `json:"mint"`
	Balance types.Amount `json:"balance"`
}

type claimResponse struct {
	Payout types.Amount `json:"payout"`
}

type mintResponse struct {
	Balance types.Amount `json:"balance"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toBetResponse(bet *ledger.Bet) betResponse {
	return betResponse{
		Address:        bet.Address.Hex(),
		Creator:        bet.Creator.Hex(),
		Title:          bet.Title,
		BetAmount:      bet.BetAmount,
		TotalYesAmount: bet.TotalYesAmount,
		TotalNoAmount:  bet.TotalNoAmount,
		YesBettors:     bet.YesBettors,
		NoBettors:      bet.NoBettors,
		EndTime:        bet.EndTime,
		Resolved:       bet.Resolved,
		Outcome:        bet.Outcome,
		TokenMint:      bet.TokenMint.Hex(),
		Vault:          bet.Vault.Hex(),
	}
}

func toUserBetResponse(ub *ledger.UserBet) userBetResponse {
	return userBetResponse{
		Address:   ub.Address.Hex(),
		User:      ub.User.Hex(),
		Bet:       ub.Bet.Hex(),
		Amount:    ub.Amount,
		Direction: ub.Direction,
		Claimed:   ub.Claimed,
	}
}
