package game

import (
	"encoding/json"
	"testing"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
)

// Role-indexed fixtures. Role 0 is the trick leader (left of the dealer)
// and role k sits k seats after it, so rotating roles onto seats replays
// the same scripted round from any leader.

type scriptedPlay struct {
	role int
	card string
}

// deck3Roles is a contested round under a spades contract: the leader's
// team takes six tricks including the last (120 trick points plus the dix
// de der), holds the trump king and queen at role 2, and concedes two
// mid-round tricks worth 32.
func deck3Roles(t *testing.T) [belote.NumSeats][]belote.Card {
	t.Helper()
	return [belote.NumSeats][]belote.Card{
		hand(t, "JS", "9S", "8S", "7S", "AH", "KH", "7D", "8D"),
		hand(t, "AS", "10S", "AD", "KD", "QD", "JD", "9H", "7C"),
		hand(t, "KS", "QS", "10H", "JH", "AC", "KC", "QC", "JC"),
		hand(t, "10D", "9D", "10C", "9C", "8C", "QH", "8H", "7H"),
	}
}

var deck3Script = []scriptedPlay{
	{0, "JS"}, {1, "10S"}, {2, "KS"}, {3, "7H"},
	{0, "9S"}, {1, "AS"}, {2, "QS"}, {3, "8H"},
	{0, "8S"}, {1, "7C"}, {2, "JC"}, {3, "8C"},
	{0, "AH"}, {1, "9H"}, {2, "10H"}, {3, "QH"},
	{0, "KH"}, {1, "JD"}, {2, "JH"}, {3, "9C"},
	{0, "7D"}, {1, "AD"}, {2, "QC"}, {3, "9D"},
	{1, "KD"}, {2, "KC"}, {3, "10D"}, {0, "8D"},
	{3, "10C"}, {0, "7S"}, {1, "QD"}, {2, "AC"},
}

// deck1Roles is a capot round under a spades contract: the leader takes
// all eight tricks alone.
func deck1Roles(t *testing.T) [belote.NumSeats][]belote.Card {
	t.Helper()
	return [belote.NumSeats][]belote.Card{
		hand(t, "AS", "JS", "9S", "7S", "AH", "KH", "QH", "7H"),
		hand(t, "10S", "8S", "AD", "KD", "QD", "7D", "8H", "9H"),
		hand(t, "KS", "QS", "AC", "KC", "QC", "7C", "10H", "JH"),
		hand(t, "JD", "10D", "9D", "8D", "JC", "10C", "9C", "8C"),
	}
}

var capotScript = []scriptedPlay{
	{0, "JS"}, {1, "10S"}, {2, "KS"}, {3, "8D"},
	{0, "9S"}, {1, "8S"}, {2, "QS"}, {3, "9D"},
	{0, "AS"}, {1, "8H"}, {2, "7C"}, {3, "10D"},
	{0, "7S"}, {1, "9H"}, {2, "10H"}, {3, "JD"},
	{0, "AH"}, {1, "7D"}, {2, "JH"}, {3, "8C"},
	{0, "KH"}, {1, "QD"}, {2, "QC"}, {3, "9C"},
	{0, "QH"}, {1, "KD"}, {2, "KC"}, {3, "10C"},
	{0, "7H"}, {1, "AD"}, {2, "AC"}, {3, "JC"},
}

// rotated maps role-indexed hands onto seats for the given leader.
func rotated(hands [belote.NumSeats][]belote.Card, leader int) [belote.NumSeats][]belote.Card {
	var out [belote.NumSeats][]belote.Card
	for role := 0; role < belote.NumSeats; role++ {
		out[(leader+role)%belote.NumSeats] = hands[role]
	}
	return out
}

// runScript submits every play in order, resolving roles against the
// round's leader, and returns the final play's result.
func runScript(t *testing.T, g *Game, leader int, script []scriptedPlay) MoveResult {
	t.Helper()
	var last MoveResult
	for i, play := range script {
		seat := (leader + play.role) % belote.NumSeats
		result, err := g.SubmitPlay(identityOf(seat), "", nil, card(t, play.card))
		if err != nil {
			t.Fatalf("play %d (%s by seat %d): %v", i+1, play.card, seat, err)
		}
		last = result
	}
	return last
}

// bidAndPassOut has the leader bid and everyone else pass.
func bidAndPassOut(t *testing.T, g *Game, leader int, kind belote.ContractKind, value int) {
	t.Helper()
	must := acceptor(t)
	must(g.SubmitBid(identityOf(leader), "", nil, kind, value))
	for i := 1; i < belote.NumSeats; i++ {
		must(g.SubmitPass(identityOf((leader+i)%belote.NumSeats), "", nil))
	}
}

func TestFullRoundScoresFulfilledContract(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck3Roles(t))))
	startRound(t, g)
	bidAndPassOut(t, g, 0, belote.KindSpades, 80)

	last := runScript(t, g, 0, deck3Script)

	rounds := g.Rounds()
	if len(rounds) != 1 {
		t.Fatalf("expected 1 completed round, got %d", len(rounds))
	}
	result := rounds[0].Result

	// Leader's team: 120 trick points + 10 dix de der = 130; defenders 32.
	if result.CardPoints != [2]int{130, 32} {
		t.Errorf("expected card points [130 32], got %v", result.CardPoints)
	}
	if result.DerTeam != 0 {
		t.Errorf("expected the last trick to fall to team 0, got team %d", result.DerTeam)
	}
	if result.Belote == nil || result.Belote.Seat != 2 || result.Belote.Team != 0 {
		t.Errorf("expected the trump king and queen pair at seat 2, got %+v", result.Belote)
	}
	if !result.Fulfilled {
		t.Error("expected the 80 contract to be fulfilled")
	}
	// 130 + 20 belote = 150; the defenders' 32 rounds down to 30.
	if result.Totals != [2]int{150, 30} {
		t.Errorf("expected totals [150 30], got %v", result.Totals)
	}

	snap := g.Snapshot()
	if snap.CumulativeScore != [2]int{150, 30} {
		t.Errorf("expected cumulative [150 30], got %v", snap.CumulativeScore)
	}
	// The 1000 target is far away: the next round is already live.
	if snap.Status != PhaseBidding {
		t.Errorf("expected the next auction to be open, got %s", snap.Status)
	}
	if snap.RoundNumber != 2 {
		t.Errorf("expected round 2, got %d", snap.RoundNumber)
	}
	if snap.Dealer != 0 {
		t.Errorf("expected the deal to rotate to seat 0, got %d", snap.Dealer)
	}
	if snap.PublicContainers.TrickHistoryCount != 0 {
		t.Errorf("expected the trick history to reset, got %d", snap.PublicContainers.TrickHistoryCount)
	}

	// The eighth play resolves trick, round and fresh deal inside one
	// committed step.
	checkEffects(t, last.Effects,
		events.TypeMoveAccepted,
		events.TypeHandUpdated,
		events.TypeTrickCompleted,
		events.TypeRoundCompleted,
		events.TypeRoundStarted,
		events.TypeHandDealt,
		events.TypeHandDealt,
		events.TypeHandDealt,
		events.TypeHandDealt,
		events.TypeTurnChanged,
	)
	// deal(1), auction(2..6), seven tricks of five steps each (7..41),
	// last trick (42..46), scoring(47), next deal(48).
	if last.StateVersion != 48 {
		t.Errorf("expected state version 48, got %d", last.StateVersion)
	}

	var trickEvents int
	for _, env := range g.ListEvents("") {
		if env.Type == events.TypeTrickCompleted {
			trickEvents++
		}
		if env.Type == events.TypeHandUpdated && env.VisibleTo("") {
			t.Error("hand.updated must not be visible to spectators")
		}
	}
	if trickEvents != belote.TricksPerRound {
		t.Errorf("expected %d trick.completed events, got %d", belote.TricksPerRound, trickEvents)
	}
}

func TestFullRoundCoincheDoublesScore(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck3Roles(t))))
	must := acceptor(t)
	startRound(t, g)

	must(g.SubmitBid("alice", "", nil, belote.KindSpades, 80))
	must(g.SubmitPass("bob", "", nil))
	// Dave doubles out of turn and the auction closes.
	must(g.SubmitCoinche("dave", "", nil))

	runScript(t, g, 0, deck3Script)

	rounds := g.Rounds()
	if len(rounds) != 1 {
		t.Fatalf("expected 1 completed round, got %d", len(rounds))
	}
	result := rounds[0].Result
	if result.Multiplier != 2 {
		t.Errorf("expected multiplier 2, got %d", result.Multiplier)
	}
	// Twice the [150 30] base round.
	if result.Totals != [2]int{300, 60} {
		t.Errorf("expected totals [300 60], got %v", result.Totals)
	}
}

func TestFullRoundSurcoincheQuadruplesScore(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck3Roles(t))))
	must := acceptor(t)
	startRound(t, g)

	must(g.SubmitBid("alice", "", nil, belote.KindSpades, 80))
	must(g.SubmitCoinche("bob", "", nil))
	must(g.SubmitSurcoinche("carol", "", nil))

	runScript(t, g, 0, deck3Script)

	result := g.Rounds()[0].Result
	if result.Multiplier != 4 {
		t.Errorf("expected multiplier 4, got %d", result.Multiplier)
	}
	if result.Totals != [2]int{600, 120} {
		t.Errorf("expected totals [600 120], got %v", result.Totals)
	}
}

func TestFullRoundFailedContract(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck3Roles(t))))
	startRound(t, g)
	// 150 is the best this deal yields; a 160 bid falls short.
	bidAndPassOut(t, g, 0, belote.KindSpades, 160)

	runScript(t, g, 0, deck3Script)

	result := g.Rounds()[0].Result
	if result.Fulfilled {
		t.Error("expected the 160 contract to fail")
	}
	// Declarers score nothing; defenders take 160 plus all 152 trick
	// points plus the dix de der: 322 rounds to 320.
	if result.Totals != [2]int{0, 320} {
		t.Errorf("expected totals [0 320], got %v", result.Totals)
	}
	if got := g.Snapshot().CumulativeScore; got != [2]int{0, 320} {
		t.Errorf("expected cumulative [0 320], got %v", got)
	}
}

func TestCapotOverridesRoundScore(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck1Roles(t))))
	startRound(t, g)
	bidAndPassOut(t, g, 0, belote.KindSpades, 100)

	runScript(t, g, 0, capotScript)

	result := g.Rounds()[0].Result
	if result.CapotTeam == nil || *result.CapotTeam != 0 {
		t.Fatalf("expected a capot for team 0, got %+v", result.CapotTeam)
	}
	if !result.Fulfilled {
		t.Error("expected the capot to fulfil the contract")
	}
	// The capot bonus replaces card points and belote alike.
	if result.Belote == nil {
		t.Error("expected the trump king and queen pair to be recorded")
	}
	if result.Totals != [2]int{belote.CapotDeclarer, 0} {
		t.Errorf("expected totals [%d 0], got %v", belote.CapotDeclarer, result.Totals)
	}
	if got := g.Snapshot().CumulativeScore; got != [2]int{250, 0} {
		t.Errorf("expected cumulative [250 0], got %v", got)
	}
}

func TestPlayValidationRejectsBadCards(t *testing.T) {
	g := newTestGame(t, WithDealer(3), WithDeckFactory(stackedDeckFor(t, 3, deck3Roles(t))))
	must := acceptor(t)
	startRound(t, g)
	bidAndPassOut(t, g, 0, belote.KindSpades, 80)

	// Out of turn.
	if _, err := g.SubmitPlay("bob", "", nil, card(t, "AS")); ErrorKind(err) != KindForbidden {
		t.Errorf("expected a forbidden error, got %v", err)
	}
	// Not in hand: the ace of spades is bob's.
	if _, err := g.SubmitPlay("alice", "", nil, card(t, "AS")); ErrorKind(err) != KindIllegalMove {
		t.Errorf("expected an illegal move, got %v", err)
	}

	lead := must(g.SubmitPlay("alice", "", nil, card(t, "JS")))

	// The accepted play is broadcast with its move id.
	var accepted MoveAcceptedPayload
	log := g.ListEvents("")
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Type == events.TypeMoveAccepted {
			if err := json.Unmarshal(log[i].Payload, &accepted); err != nil {
				t.Fatalf("decoding move.accepted: %v", err)
			}
			break
		}
	}
	if accepted.MoveID != lead.MoveID {
		t.Errorf("expected move.accepted to carry move id %s, got %s", lead.MoveID, accepted.MoveID)
	}

	// Bob holds trump and must play it.
	_, err := g.SubmitPlay("bob", "", nil, card(t, "AD"))
	if ErrorKind(err) != KindIllegalMove {
		t.Fatalf("expected an illegal move, got %v", err)
	}
	if len(Violations(err)) == 0 {
		t.Error("expected the violations to be reported")
	}
	// The trick is untouched by the rejection.
	if got := len(g.Snapshot().PublicContainers.CurrentTrick); got != 1 {
		t.Errorf("expected 1 card in the trick, got %d", got)
	}

	must(g.SubmitPlay("bob", "", nil, card(t, "10S")))
	if got := len(g.Snapshot().PublicContainers.CurrentTrick); got != 2 {
		t.Errorf("expected 2 cards in the trick, got %d", got)
	}
}

// playCapotSeries runs three capot rounds with the boss hand rotating so
// the score reaches [500 250] against a 400 target.
func playCapotSeries(t *testing.T) (*Game, MoveResult) {
	t.Helper()
	roles := deck1Roles(t)
	decks := deckSequence(
		stackedDeckFor(t, 3, rotated(roles, 0)),
		stackedDeckFor(t, 0, rotated(roles, 1)),
		stackedDeckFor(t, 1, rotated(roles, 2)),
	)
	g := newTestGame(t, WithDealer(3), WithTargetScore(400), WithDeckFactory(decks))
	startRound(t, g)

	var final MoveResult
	for _, leader := range []int{0, 1, 2} {
		bidAndPassOut(t, g, leader, belote.KindSpades, 100)
		final = runScript(t, g, leader, capotScript)
	}
	return g, final
}

func TestGameCompletesAtTargetScore(t *testing.T) {
	g, final := playCapotSeries(t)

	snap := g.Snapshot()
	if snap.Status != PhaseCompleted {
		t.Fatalf("expected phase %s, got %s", PhaseCompleted, snap.Status)
	}
	if snap.CumulativeScore != [2]int{500, 250} {
		t.Errorf("expected cumulative [500 250], got %v", snap.CumulativeScore)
	}
	if snap.WinnerTeam == nil || *snap.WinnerTeam != 0 {
		t.Errorf("expected team 0 to win, got %v", snap.WinnerTeam)
	}
	select {
	case <-g.Done():
	default:
		t.Error("expected the done channel to be closed")
	}

	// The terminal step ends with game.completed and no further turn.
	checkEffects(t, final.Effects,
		events.TypeMoveAccepted,
		events.TypeHandUpdated,
		events.TypeTrickCompleted,
		events.TypeRoundCompleted,
		events.TypeGameCompleted,
	)

	log := g.ListEvents("")
	if last := log[len(log)-1]; last.Type != events.TypeGameCompleted {
		t.Errorf("expected the last event to be %s, got %s", events.TypeGameCompleted, last.Type)
	}

	if _, err := g.SubmitPlay("alice", "", nil, card(t, "AS")); ErrorKind(err) != KindIllegalMove {
		t.Errorf("expected play on a completed game to be illegal, got %v", err)
	}
}

func TestTiedScoreAtTargetContinues(t *testing.T) {
	roles := deck3Roles(t)
	decks := deckSequence(
		stackedDeckFor(t, 3, rotated(roles, 0)),
		stackedDeckFor(t, 0, rotated(roles, 1)),
	)
	g := newTestGame(t, WithDealer(3), WithTargetScore(180), WithDeckFactory(decks))
	startRound(t, g)

	for _, leader := range []int{0, 1} {
		bidAndPassOut(t, g, leader, belote.KindSpades, 80)
		runScript(t, g, leader, deck3Script)
	}

	// Both teams sit at exactly 180 with nobody strictly ahead: the game
	// goes on.
	snap := g.Snapshot()
	if snap.CumulativeScore != [2]int{180, 180} {
		t.Fatalf("expected cumulative [180 180], got %v", snap.CumulativeScore)
	}
	if snap.Status != PhaseBidding {
		t.Errorf("expected the game to continue, got %s", snap.Status)
	}
	if snap.RoundNumber != 3 {
		t.Errorf("expected round 3 to be live, got %d", snap.RoundNumber)
	}
	if snap.WinnerTeam != nil {
		t.Errorf("expected no winner yet, got team %d", *snap.WinnerTeam)
	}
}

func TestReplayRebuildsCompletedGame(t *testing.T) {
	g, _ := playCapotSeries(t)

	summary, err := Replay(g.ListEvents(""))
	if err != nil {
		t.Fatalf("replaying: %v", err)
	}
	if summary.GameID != "game-1" {
		t.Errorf("expected game id game-1, got %s", summary.GameID)
	}
	if len(summary.Rounds) != 3 {
		t.Errorf("expected 3 rounds, got %d", len(summary.Rounds))
	}
	if summary.Cumulative != [2]int{500, 250} {
		t.Errorf("expected cumulative [500 250], got %v", summary.Cumulative)
	}
	if !summary.Completed || summary.WinnerTeam == nil || *summary.WinnerTeam != 0 {
		t.Errorf("expected a completed game won by team 0, got %+v", summary)
	}
	if summary.LastVersion != g.StateVersion() {
		t.Errorf("expected last version %d, got %d", g.StateVersion(), summary.LastVersion)
	}
}

func TestReplayDetectsCancelledGame(t *testing.T) {
	g := newTestGame(t, WithDealer(3))
	startRound(t, g)
	if _, err := g.Cancel("alice", "host left"); err != nil {
		t.Fatalf("cancelling: %v", err)
	}

	summary, err := Replay(g.ListEvents(""))
	if err != nil {
		t.Fatalf("replaying: %v", err)
	}
	if !summary.Cancelled || summary.CancelReason != "host left" {
		t.Errorf("expected a cancelled game with reason, got %+v", summary)
	}
	if summary.Completed {
		t.Error("expected a cancelled game not to count as completed")
	}
}
