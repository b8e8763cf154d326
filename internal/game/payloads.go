package game

import "github.com/ngoudry/coinche/belote"

// Event payloads. Every struct here marshals into an Envelope's Payload
// field; the envelope itself carries the event id, type, version and
// timestamps.

// RoundStartedPayload announces a fresh deal.
type RoundStartedPayload struct {
	RoundNumber int `json:"roundNumber"`
	Dealer      int `json:"dealer"`
}

// HandPayload carries one seat's full hand. Used by the private hand.dealt
// and hand.updated events.
type HandPayload struct {
	Seat        int           `json:"seat"`
	Cards       []belote.Card `json:"cards"`
	HandVersion uint64        `json:"handVersion"`
}

// TurnChangedPayload announces the seat now permitted to act.
type TurnChangedPayload struct {
	Seat   int    `json:"seat"`
	TurnID string `json:"turnId"`
	Phase  Phase  `json:"phase"`
}

// BidPassedPayload records a pass and the running consecutive-pass count.
type BidPassedPayload struct {
	Seat              int `json:"seat"`
	ConsecutivePasses int `json:"consecutivePasses"`
}

// DoublePayload records a coinche or surcoinche against the standing bid.
type DoublePayload struct {
	Seat int        `json:"seat"`
	Bid  belote.Bid `json:"bid"`
}

// ContractFinalizedPayload publishes the resolved contract. It is re-sent
// with refreshed double state after a surcoinche.
type ContractFinalizedPayload struct {
	belote.Contract
	Declarer int `json:"declarer"`
}

// MoveAcceptedPayload records an accepted card play.
type MoveAcceptedPayload struct {
	MoveID string      `json:"moveId"`
	Seat   int         `json:"seat"`
	Card   belote.Card `json:"card"`
}

// TrickCompletedPayload records a resolved trick.
type TrickCompletedPayload struct {
	belote.CompletedTrick
	TrickNumber int `json:"trickNumber"`
}

// RedealRequiredPayload announces an auction where all four seats passed
// with no bid standing.
type RedealRequiredPayload struct {
	RoundNumber int `json:"roundNumber"`
	Dealer      int `json:"dealer"`
}

// RoundCompletedPayload carries a scored round and the cumulative totals
// after it.
type RoundCompletedPayload struct {
	RoundNumber int                `json:"roundNumber"`
	Contract    belote.Contract    `json:"contract"`
	Result      belote.RoundResult `json:"result"`
	Cumulative  [2]int             `json:"cumulative"`
}

// GameCompletedPayload announces the winning team and final totals.
type GameCompletedPayload struct {
	WinnerTeam int    `json:"winnerTeam"`
	Cumulative [2]int `json:"cumulative"`
	Rounds     int    `json:"rounds"`
}

// GameCancelledPayload records an external cancellation or a fatal
// internal inconsistency.
type GameCancelledPayload struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelledBy"`
}

// MoveInvalidatedPayload flags a move for operator workflow. No rollback
// is attempted.
type MoveInvalidatedPayload struct {
	MoveID      string `json:"moveId"`
	RequestedBy string `json:"requestedBy"`
}
