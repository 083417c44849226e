package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/openpool/betledger/pkg/types"
)

// EventType identifies a lifecycle transition.
type EventType string

// Lifecycle event types.
const (
	EventBetCreated EventType = "bet_created"
	EventStaked     EventType = "staked"
	EventResolved   EventType = "resolved"
	EventClaimed    EventType = "claimed"
)

// Event describes one committed lifecycle transition. Events are advisory
// read-side notifications; state of record lives in the store.
type Event struct {
	Type      EventType      `json:"type"`
	Bet       common.Hash    `json:"bet"`
	Title     string         `json:"title,omitempty"`
	User      common.Address `json:"user"`
	Amount    types.Amount   `json:"amount,omitempty"`
	Direction bool           `json:"direction,omitempty"`
	Outcome   bool           `json:"outcome,omitempty"`
}

// Publisher receives events after their transaction commits.
type Publisher interface {
	Publish(event Event)
}
