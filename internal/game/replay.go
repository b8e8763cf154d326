package game

import (
	"encoding/json"
	"fmt"

	"github.com/ngoudry/coinche/internal/events"
)

// ReplaySummary is the aggregate outcome folded out of an event log.
type ReplaySummary struct {
	GameID       string
	Rounds       []RoundCompletedPayload
	Cumulative   [2]int
	WinnerTeam   *int
	Completed    bool
	Cancelled    bool
	CancelReason string
	LastVersion  uint64
}

// Replay folds a game's event log back into its cumulative totals,
// cross-checking the running sum against each event's own record. A
// completed game's log reproduces its final score exactly.
func Replay(log []events.Envelope) (ReplaySummary, error) {
	var summary ReplaySummary

	for _, env := range log {
		if env.Version > summary.LastVersion {
			summary.LastVersion = env.Version
		}
		if summary.GameID == "" {
			summary.GameID = env.GameID
		}

		switch env.Type {
		case events.TypeRoundCompleted:
			var payload RoundCompletedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return summary, fmt.Errorf("decoding %s payload: %w", env.Type, err)
			}
			summary.Rounds = append(summary.Rounds, payload)
			summary.Cumulative[0] += payload.Result.Totals[0]
			summary.Cumulative[1] += payload.Result.Totals[1]
			if summary.Cumulative != payload.Cumulative {
				return summary, fmt.Errorf("round %d: replayed score %v disagrees with recorded %v",
					payload.RoundNumber, summary.Cumulative, payload.Cumulative)
			}

		case events.TypeGameCompleted:
			var payload GameCompletedPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return summary, fmt.Errorf("decoding %s payload: %w", env.Type, err)
			}
			if summary.Cumulative != payload.Cumulative {
				return summary, fmt.Errorf("game end: replayed score %v disagrees with recorded %v",
					summary.Cumulative, payload.Cumulative)
			}
			winner := payload.WinnerTeam
			summary.WinnerTeam = &winner
			summary.Completed = true

		case events.TypeGameCancelled:
			var payload GameCancelledPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return summary, fmt.Errorf("decoding %s payload: %w", env.Type, err)
			}
			summary.Cancelled = true
			summary.CancelReason = payload.Reason
		}
	}
	return summary, nil
}
