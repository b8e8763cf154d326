package game

import (
	"fmt"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
)

// StartRound deals the first round of a freshly built game. Later rounds
// deal themselves when the previous one resolves.
func (g *Game) StartRound() (uint64, error) {
	g.mu.Lock()

	if g.phase != PhaseInitial {
		version := g.stateVersion
		g.mu.Unlock()
		return version, fmt.Errorf("%w: round cannot start in phase %s", ErrForbidden, g.phase)
	}

	g.dealRoundLocked()
	if err := g.checkConservationLocked(); err != nil {
		g.logger.Error().Err(err).Msg("deal violated card conservation, cancelling game")
		g.cancelLocked("invariant-violation", "system")
		g.commitLocked()
		version := g.stateVersion
		g.mu.Unlock()
		return version, fmt.Errorf("internal: %v", err)
	}
	g.commitLocked()

	version := g.stateVersion
	var hook func(TurnInfo)
	var info TurnInfo
	if g.turnHook != nil {
		hook = g.turnHook
		info = g.turnInfoLocked()
	}
	g.mu.Unlock()

	if hook != nil {
		hook(info)
	}
	return version, nil
}

// SubmitPlay plays one card for the caller's seat. Completing the fourth
// card of a trick, the eighth trick of a round, or the game itself all
// resolve inside the same call.
func (g *Game) SubmitPlay(callerID, clientActionID string, expectedVersion *uint64, card belote.Card) (MoveResult, error) {
	return g.submitAs(callerID, clientActionID, expectedVersion, true, g.applyPlay(card))
}

// SubmitPlayForSeat is the seat-addressed variant used by the bot driver.
func (g *Game) SubmitPlayForSeat(seat int, clientActionID string, system bool, card belote.Card) (MoveResult, error) {
	return g.submitSeat(seat, clientActionID, nil, true, system, g.applyPlay(card))
}

// dealRoundLocked starts the next round: advance the dealer (except for
// the very first deal), hand out a full deck and open the auction left of
// the dealer. One version bump covers the deal and its events.
func (g *Game) dealRoundLocked() {
	if g.roundNumber > 0 {
		g.dealer = belote.NextSeat(g.dealer)
	}
	g.roundNumber++
	g.stateVersion++

	hands := belote.DealHands(g.newDeck(), g.dealer)

	g.phase = PhaseBidding
	g.bidding = &auction{}
	g.contract = nil
	g.winningBid = nil
	g.currentTrick = nil
	g.tricks = nil
	for seat := 0; seat < belote.NumSeats; seat++ {
		g.hands[seat] = hands[seat]
		g.handVersions[seat]++
	}

	g.emitLocked(events.TypeRoundStarted, events.ScopePublic, RoundStartedPayload{RoundNumber: g.roundNumber, Dealer: g.dealer})
	for seat := 0; seat < belote.NumSeats; seat++ {
		g.emitLocked(events.TypeHandDealt, events.Private(g.seats[seat].Identity), HandPayload{
			Seat:        seat,
			Cards:       append([]belote.Card(nil), g.hands[seat]...),
			HandVersion: g.handVersions[seat],
		})
	}
	g.advanceTurnLocked(belote.NextSeat(g.dealer))
}

func (g *Game) applyPlay(card belote.Card) actionFunc {
	return func(seat int, moveID string) error {
		if g.phase != PhasePlaying {
			return &RuleError{Violations: []string{fmt.Sprintf("no card may be played in phase %s", g.phase)}}
		}
		if violations := belote.ValidatePlay(seat, card, g.hands[seat], g.currentTrick, *g.contract); len(violations) > 0 {
			return &RuleError{Violations: violations}
		}

		g.stateVersion++
		g.hands[seat] = removeCard(g.hands[seat], card)
		g.handVersions[seat]++
		g.currentTrick = append(g.currentTrick, belote.Play{Seat: seat, Card: card})
		g.emitLocked(events.TypeMoveAccepted, events.ScopePublic, MoveAcceptedPayload{MoveID: moveID, Seat: seat, Card: card})
		g.emitLocked(events.TypeHandUpdated, events.Private(g.seats[seat].Identity), HandPayload{
			Seat:        seat,
			Cards:       append([]belote.Card(nil), g.hands[seat]...),
			HandVersion: g.handVersions[seat],
		})

		if len(g.currentTrick) < belote.NumSeats {
			g.advanceTurnLocked(belote.NextSeat(seat))
			return nil
		}
		g.resolveTrickLocked()
		return nil
	}
}

// resolveTrickLocked closes a four-card trick. The winner leads next
// unless this was the round's last trick.
func (g *Game) resolveTrickLocked() {
	g.stateVersion++
	winner := belote.TrickWinner(g.currentTrick, *g.contract)
	completed := belote.CompletedTrick{
		Plays:  g.currentTrick,
		Winner: winner,
		Points: belote.TrickPoints(g.currentTrick, *g.contract),
	}
	g.tricks = append(g.tricks, completed)
	g.currentTrick = nil
	g.emitLocked(events.TypeTrickCompleted, events.ScopePublic, TrickCompletedPayload{CompletedTrick: completed, TrickNumber: len(g.tricks)})

	if len(g.tricks) < belote.TricksPerRound {
		g.advanceTurnLocked(winner)
		return
	}
	g.completeRoundLocked()
}

// completeRoundLocked scores the finished round, then either ends the game
// or deals the next round, all before the lock is released. Nobody ever
// observes eight completed tricks with the round still in play.
func (g *Game) completeRoundLocked() {
	g.stateVersion++
	g.phase = PhaseScoring

	contract := *g.contract
	result := belote.ScoreRound(g.tricks, contract)
	g.cumulative[0] += result.Totals[0]
	g.cumulative[1] += result.Totals[1]
	g.rounds = append(g.rounds, RoundRecord{RoundNumber: g.roundNumber, Contract: contract, Result: result})
	g.emitLocked(events.TypeRoundCompleted, events.ScopePublic, RoundCompletedPayload{
		RoundNumber: g.roundNumber,
		Contract:    contract,
		Result:      result,
		Cumulative:  g.cumulative,
	})

	g.tricks = nil
	g.contract = nil
	g.winningBid = nil

	if winner, over := belote.GameOver(g.cumulative, g.targetScore); over {
		g.stateVersion++
		g.phase = PhaseCompleted
		g.winnerTeam = &winner
		g.emitLocked(events.TypeGameCompleted, events.ScopePublic, GameCompletedPayload{
			WinnerTeam: winner,
			Cumulative: g.cumulative,
			Rounds:     g.roundNumber,
		})
		close(g.done)
		return
	}
	g.dealRoundLocked()
}

func removeCard(hand []belote.Card, card belote.Card) []belote.Card {
	out := make([]belote.Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}
