package game

import (
	"fmt"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
)

// SubmitBid places a contract proposal for the caller's seat.
func (g *Game) SubmitBid(callerID, clientActionID string, expectedVersion *uint64, kind belote.ContractKind, value int) (MoveResult, error) {
	return g.submitAs(callerID, clientActionID, expectedVersion, true, g.applyBid(kind, value))
}

// SubmitBidForSeat is the seat-addressed variant used by the bot driver.
func (g *Game) SubmitBidForSeat(seat int, clientActionID string, system bool, kind belote.ContractKind, value int) (MoveResult, error) {
	return g.submitSeat(seat, clientActionID, nil, true, system, g.applyBid(kind, value))
}

// SubmitPass records a pass. The fourth pass of an empty auction forces a
// redeal; a third pass behind a standing bid finalizes it.
func (g *Game) SubmitPass(callerID, clientActionID string, expectedVersion *uint64) (MoveResult, error) {
	return g.submitAs(callerID, clientActionID, expectedVersion, true, g.applyPass())
}

// SubmitPassForSeat is the seat-addressed variant used by the bot driver
// and the turn-timeout forfeit.
func (g *Game) SubmitPassForSeat(seat int, clientActionID string, system bool) (MoveResult, error) {
	return g.submitSeat(seat, clientActionID, nil, true, system, g.applyPass())
}

// SubmitCoinche doubles the standing bid and closes the auction. Either
// opponent of the bidding team may call it, out of turn.
func (g *Game) SubmitCoinche(callerID, clientActionID string, expectedVersion *uint64) (MoveResult, error) {
	return g.submitAs(callerID, clientActionID, expectedVersion, false, g.applyCoinche())
}

// SubmitCoincheForSeat is the seat-addressed variant.
func (g *Game) SubmitCoincheForSeat(seat int, clientActionID string, system bool) (MoveResult, error) {
	return g.submitSeat(seat, clientActionID, nil, false, system, g.applyCoinche())
}

// SubmitSurcoinche redoubles a coinched contract. Open to the declaring
// team, out of turn, until the first card of the round is played.
func (g *Game) SubmitSurcoinche(callerID, clientActionID string, expectedVersion *uint64) (MoveResult, error) {
	return g.submitAs(callerID, clientActionID, expectedVersion, false, g.applySurcoinche())
}

// SubmitSurcoincheForSeat is the seat-addressed variant.
func (g *Game) SubmitSurcoincheForSeat(seat int, clientActionID string, system bool) (MoveResult, error) {
	return g.submitSeat(seat, clientActionID, nil, false, system, g.applySurcoinche())
}

func (g *Game) applyBid(kind belote.ContractKind, value int) actionFunc {
	return func(seat int, moveID string) error {
		if g.phase != PhaseBidding {
			return &RuleError{Violations: []string{fmt.Sprintf("no bid may be placed in phase %s", g.phase)}}
		}
		bid := belote.Bid{Seat: seat, Kind: kind, Value: value}
		if violations := belote.ValidateBid(g.bidding.currentBid, bid); len(violations) > 0 {
			return &RuleError{Violations: violations}
		}

		g.stateVersion++
		g.bidding.currentBid = &bid
		g.bidding.passes = 0
		g.bidding.history = append(g.bidding.history, AuctionEntry{Seat: seat, Action: "bid", Bid: &bid})
		g.emitLocked(events.TypeBidPlaced, events.ScopePublic, bid)
		g.advanceTurnLocked(belote.NextSeat(seat))
		return nil
	}
}

func (g *Game) applyPass() actionFunc {
	return func(seat int, moveID string) error {
		if g.phase != PhaseBidding {
			return &RuleError{Violations: []string{fmt.Sprintf("no pass may be submitted in phase %s", g.phase)}}
		}

		g.stateVersion++
		g.bidding.passes++
		g.bidding.history = append(g.bidding.history, AuctionEntry{Seat: seat, Action: "pass"})
		g.emitLocked(events.TypeBidPassed, events.ScopePublic, BidPassedPayload{Seat: seat, ConsecutivePasses: g.bidding.passes})

		switch {
		case g.bidding.currentBid == nil && g.bidding.passes == belote.NumSeats:
			// Passed out: same cards never come back, the next dealer
			// redeals.
			g.emitLocked(events.TypeRedealRequired, events.ScopePublic, RedealRequiredPayload{RoundNumber: g.roundNumber, Dealer: g.dealer})
			g.dealRoundLocked()
		case g.bidding.currentBid != nil && g.bidding.passes == belote.NumSeats-1:
			g.finalizeContractLocked(false, false)
		default:
			g.advanceTurnLocked(belote.NextSeat(seat))
		}
		return nil
	}
}

func (g *Game) applyCoinche() actionFunc {
	return func(seat int, moveID string) error {
		if g.phase != PhaseBidding {
			return &RuleError{Violations: []string{fmt.Sprintf("no coinche may be called in phase %s", g.phase)}}
		}
		if violations := belote.ValidateCoinche(g.bidding.currentBid, false, seat); len(violations) > 0 {
			return &RuleError{Violations: violations}
		}

		bid := *g.bidding.currentBid
		g.stateVersion++
		g.bidding.history = append(g.bidding.history, AuctionEntry{Seat: seat, Action: "coinche"})
		g.emitLocked(events.TypeBidDoubled, events.ScopePublic, DoublePayload{Seat: seat, Bid: bid})

		// A coinche ends the auction on the spot; the reply window for a
		// surcoinche stays open until the first card is played.
		g.finalizeContractLocked(true, false)
		return nil
	}
}

func (g *Game) applySurcoinche() actionFunc {
	return func(seat int, moveID string) error {
		if g.phase != PhasePlaying || g.contract == nil {
			return &RuleError{Violations: []string{fmt.Sprintf("no surcoinche may be called in phase %s", g.phase)}}
		}
		if len(g.currentTrick) > 0 || len(g.tricks) > 0 {
			return &RuleError{Violations: []string{"surcoinche window closed after the first card"}}
		}
		if violations := belote.ValidateSurcoinche(g.winningBid, g.contract.Doubled, g.contract.Redoubled, seat); len(violations) > 0 {
			return &RuleError{Violations: violations}
		}

		g.stateVersion++
		g.contract.Redoubled = true
		g.emitLocked(events.TypeBidRedoubled, events.ScopePublic, DoublePayload{Seat: seat, Bid: *g.winningBid})
		g.emitLocked(events.TypeContractFinalized, events.ScopePublic, ContractFinalizedPayload{Contract: *g.contract, Declarer: g.winningBid.Seat})
		return nil
	}
}

// finalizeContractLocked converts the standing bid into the round's
// contract and opens play. Its own version bump; the trick leader is the
// seat left of the dealer regardless of who bid.
func (g *Game) finalizeContractLocked(doubled, redoubled bool) {
	bid := *g.bidding.currentBid

	g.stateVersion++
	contract := belote.Contract{
		Kind:      bid.Kind,
		Value:     bid.Value,
		Team:      belote.TeamOf(bid.Seat),
		Doubled:   doubled,
		Redoubled: redoubled,
	}
	g.contract = &contract
	g.winningBid = &bid
	g.bidding = nil
	g.phase = PhasePlaying

	g.emitLocked(events.TypeContractFinalized, events.ScopePublic, ContractFinalizedPayload{Contract: contract, Declarer: bid.Seat})
	g.advanceTurnLocked(belote.NextSeat(g.dealer))
}
