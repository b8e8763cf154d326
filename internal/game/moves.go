package game

import (
	"fmt"
	"time"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
)

// StatusAccepted is the status of every stored move result. Rejections are
// returned as errors and never recorded.
const StatusAccepted = "accepted"

// MoveResult acknowledges an accepted mutation. Replays of the same
// clientActionId return the stored result unchanged.
type MoveResult struct {
	MoveID          string    `json:"moveId"`
	ClientActionID  string    `json:"clientActionId,omitempty"`
	Status          string    `json:"status"`
	TurnID          string    `json:"turnId,omitempty"`
	StateVersion    uint64    `json:"stateVersion"`
	Effects         []string  `json:"effects"`
	SystemGenerated bool      `json:"systemGenerated,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// actionFunc applies one validated mutation. It must reject before
// touching state: a returned error means nothing changed.
type actionFunc func(seat int, moveID string) error

// submitAs resolves the caller's seat by identity and runs the action.
func (g *Game) submitAs(callerID, clientActionID string, expectedVersion *uint64, requireTurn bool, apply actionFunc) (MoveResult, error) {
	g.mu.Lock()
	seat := g.seatOfLocked(callerID)
	if seat < 0 {
		g.mu.Unlock()
		return MoveResult{}, fmt.Errorf("%w: identity %q holds no seat", ErrUnauthorized, callerID)
	}
	return g.finishSubmit(seat, clientActionID, expectedVersion, requireTurn, false, apply)
}

// submitSeat runs the action for a seat directly. The bot driver and the
// turn-timeout path come in here; system marks the result as not
// player-initiated.
func (g *Game) submitSeat(seat int, clientActionID string, expectedVersion *uint64, requireTurn, system bool, apply actionFunc) (MoveResult, error) {
	g.mu.Lock()
	if seat < 0 || seat >= belote.NumSeats {
		g.mu.Unlock()
		return MoveResult{}, fmt.Errorf("%w: seat %d out of range", ErrInvalidPayload, seat)
	}
	return g.finishSubmit(seat, clientActionID, expectedVersion, requireTurn, system, apply)
}

// finishSubmit completes a submit that already holds the lock, releasing
// it before firing the turn hook.
func (g *Game) finishSubmit(seat int, clientActionID string, expectedVersion *uint64, requireTurn, system bool, apply actionFunc) (MoveResult, error) {
	result, err := g.submitLocked(seat, clientActionID, expectedVersion, requireTurn, system, apply)

	var hook func(TurnInfo)
	var info TurnInfo
	if err == nil && g.turnHook != nil {
		hook = g.turnHook
		info = g.turnInfoLocked()
	}
	g.mu.Unlock()

	if hook != nil {
		hook(info)
	}
	return result, err
}

func (g *Game) submitLocked(seat int, clientActionID string, expectedVersion *uint64, requireTurn, system bool, apply actionFunc) (MoveResult, error) {
	// Idempotency wins over everything else: a replayed action returns
	// its original result even if the game moved on or completed.
	if clientActionID != "" {
		if prior, ok := g.idempotency[clientActionID]; ok {
			return prior, nil
		}
	}

	if g.phase == PhaseCompleted {
		return MoveResult{}, &RuleError{Violations: []string{"game is completed"}}
	}
	if expectedVersion != nil && *expectedVersion != g.stateVersion {
		return MoveResult{}, &ConflictError{Expected: *expectedVersion, CurrentVersion: g.stateVersion}
	}
	if requireTurn && seat != g.turnCursor {
		return MoveResult{}, fmt.Errorf("%w: seat %d is not on turn", ErrForbidden, seat)
	}

	moveID := g.ids.Generate()
	g.effects = g.effects[:0]

	if err := apply(seat, moveID); err != nil {
		return MoveResult{}, err
	}

	if err := g.checkConservationLocked(); err != nil {
		g.logger.Error().Err(err).Msg("card conservation violated, cancelling game")
		g.cancelLocked("invariant-violation", "system")
		g.commitLocked()
		return MoveResult{}, fmt.Errorf("internal: %v", err)
	}

	result := MoveResult{
		MoveID:          moveID,
		ClientActionID:  clientActionID,
		Status:          StatusAccepted,
		TurnID:          g.turnInfoLocked().TurnID,
		StateVersion:    g.stateVersion,
		Effects:         append([]string(nil), g.effects...),
		SystemGenerated: system,
		OccurredAt:      g.clock.Now(),
	}
	if clientActionID != "" {
		g.idempotency[clientActionID] = result
	}
	g.moves[moveID] = true
	g.commitLocked()
	return result, nil
}

// Cancel force-completes a game that has not finished on its own. The
// caller's authority (host or operator) is the transport layer's concern.
func (g *Game) Cancel(requestedBy, reason string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseCompleted {
		return g.stateVersion, fmt.Errorf("%w: game already completed", ErrForbidden)
	}
	if reason == "" {
		reason = "cancelled"
	}
	g.cancelLocked(reason, requestedBy)
	g.commitLocked()
	return g.stateVersion, nil
}

// InvalidateMove flags a past move for audit. The game state is not rolled
// back; the event is the record.
func (g *Game) InvalidateMove(requestedBy, moveID string) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.moves[moveID] {
		return g.stateVersion, fmt.Errorf("%w: move %q", ErrNotFound, moveID)
	}
	g.stateVersion++
	g.emitLocked(events.TypeMoveInvalidated, events.ScopePublic, MoveInvalidatedPayload{MoveID: moveID, RequestedBy: requestedBy})
	g.commitLocked()
	return g.stateVersion, nil
}
