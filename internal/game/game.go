// Package game is the state machine for one Coinche game: the sole writer
// to the aggregate, serializing every mutation behind the game's own lock
// and emitting versioned events for each accepted sub-transition.
package game

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
	"github.com/ngoudry/coinche/internal/gameid"
	"github.com/ngoudry/coinche/internal/randutil"
)

// DefaultTargetScore ends a game when a team's cumulative score reaches it
// while strictly ahead.
const DefaultTargetScore = 1000

// Phase is a game's position in its round lifecycle.
type Phase string

const (
	PhaseInitial   Phase = "initial"
	PhaseBidding   Phase = "bidding"
	PhasePlaying   Phase = "playing"
	PhaseScoring   Phase = "scoring"
	PhaseCompleted Phase = "completed"
)

// SeatInfo binds a seat index to the identity occupying it.
type SeatInfo struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`
}

// TurnInfo describes who may act next. Seat is -1 and TurnID empty when no
// seat is on turn.
type TurnInfo struct {
	Phase   Phase  `json:"phase"`
	Seat    int    `json:"seat"`
	TurnID  string `json:"turnId"`
	IsBot   bool   `json:"isBot"`
	Version uint64 `json:"stateVersion"`
}

// AuctionEntry is one action in the bid log.
type AuctionEntry struct {
	Seat   int         `json:"seat"`
	Action string      `json:"action"`
	Bid    *belote.Bid `json:"bid,omitempty"`
}

// auction is the bidding state of the round in progress. Present only
// while phase is bidding.
type auction struct {
	currentBid *belote.Bid
	passes     int
	history    []AuctionEntry
}

// RoundRecord is one completed round: its contract and scored result.
type RoundRecord struct {
	RoundNumber int                `json:"roundNumber"`
	Contract    belote.Contract    `json:"contract"`
	Result      belote.RoundResult `json:"result"`
}

// Publisher receives every envelope the game emits. *events.Dispatcher
// satisfies it.
type Publisher interface {
	Publish(events.Envelope)
}

// Game is the aggregate. All fields behind mu; the exported API locks.
type Game struct {
	mu sync.Mutex

	id     string
	roomID string
	seats  [belote.NumSeats]SeatInfo

	phase       Phase
	roundNumber int
	dealer      int
	turnCursor  int

	hands        [belote.NumSeats][]belote.Card
	handVersions [belote.NumSeats]uint64

	bidding      *auction
	contract     *belote.Contract
	winningBid   *belote.Bid
	currentTrick []belote.Play
	tricks       []belote.CompletedTrick
	rounds       []RoundRecord

	cumulative   [2]int
	winnerTeam   *int
	cancelReason string

	stateVersion uint64
	lastUpdated  time.Time
	effects      []string

	idempotency map[string]MoveResult
	moves       map[string]bool

	notify chan struct{}
	done   chan struct{}

	log       *events.Log
	publisher Publisher
	ids       *gameid.Generator
	clock     quartz.Clock
	rng       *rand.Rand
	newDeck   func() *belote.Deck
	logger    zerolog.Logger

	targetScore int
	turnHook    func(TurnInfo)
}

// Option configures a Game at construction.
type Option func(*Game)

// WithClock injects the time source.
func WithClock(clock quartz.Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// WithRNG injects the game's random stream. Shuffles and generated IDs
// derive from it.
func WithRNG(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithDeckFactory overrides how each round's deck is produced. The factory
// is called once per deal; tests stack decks here.
func WithDeckFactory(factory func() *belote.Deck) Option {
	return func(g *Game) { g.newDeck = factory }
}

// WithTargetScore overrides the game-over target.
func WithTargetScore(target int) Option {
	return func(g *Game) { g.targetScore = target }
}

// WithDealer sets the first round's dealer seat.
func WithDealer(seat int) Option {
	return func(g *Game) { g.dealer = seat }
}

// WithPublisher attaches the event fabric.
func WithPublisher(p Publisher) Option {
	return func(g *Game) { g.publisher = p }
}

// WithLogger attaches a parent logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Game) { g.logger = logger }
}

// WithTurnHook registers a callback fired after every committed mutation
// with the resulting turn. The bot driver hangs off this.
func WithTurnHook(hook func(TurnInfo)) Option {
	return func(g *Game) { g.turnHook = hook }
}

// New builds a Game in the initial phase. StartRound deals the first
// round.
func New(id, roomID string, seats [belote.NumSeats]SeatInfo, opts ...Option) *Game {
	g := &Game{
		id:          id,
		roomID:      roomID,
		seats:       seats,
		phase:       PhaseInitial,
		targetScore: DefaultTargetScore,
		idempotency: make(map[string]MoveResult),
		moves:       make(map[string]bool),
		notify:      make(chan struct{}),
		done:        make(chan struct{}),
		log:         events.NewLog(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.clock == nil {
		g.clock = quartz.NewReal()
	}
	if g.rng == nil {
		g.rng = randutil.New(g.clock.Now().UnixNano())
	}
	if g.ids == nil {
		g.ids = gameid.NewGenerator(gameid.FromRand(g.rng)).WithNow(func() time.Time { return g.clock.Now() })
	}
	if g.newDeck == nil {
		g.newDeck = func() *belote.Deck {
			deck := belote.NewDeck(g.rng)
			deck.Shuffle()
			return deck
		}
	}
	g.logger = g.logger.With().Str("component", "game").Str("game_id", id).Logger()
	g.lastUpdated = g.clock.Now()
	return g
}

// SetTurnHook replaces the turn hook. Install it before the first deal;
// the hook fires after every committed mutation with the resulting turn.
func (g *Game) SetTurnHook(hook func(TurnInfo)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turnHook = hook
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

// RoomID returns the room the game was started from.
func (g *Game) RoomID() string { return g.roomID }

// Seats returns the fixed seating order.
func (g *Game) Seats() [belote.NumSeats]SeatInfo { return g.seats }

// Done is closed when the game completes or is cancelled.
func (g *Game) Done() <-chan struct{} { return g.done }

// StateVersion returns the current version.
func (g *Game) StateVersion() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateVersion
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Turn returns who may act next.
func (g *Game) Turn() TurnInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turnInfoLocked()
}

// Rounds returns the completed round records.
func (g *Game) Rounds() []RoundRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RoundRecord(nil), g.rounds...)
}

// ListEvents returns the event log suffix after the named event; the whole
// log for an empty or unknown id. Private envelopes are included, so the
// transport filters by scope before relaying.
func (g *Game) ListEvents(afterEventID string) []events.Envelope {
	return g.log.ListAfter(afterEventID)
}

// PrivateHand returns the caller's own hand. Only the seat owner may see
// it.
func (g *Game) PrivateHand(identity string) (HandView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOfLocked(identity)
	if seat < 0 {
		return HandView{}, fmt.Errorf("%w: identity %q holds no seat", ErrUnauthorized, identity)
	}
	return HandView{
		SeatIdentity:  identity,
		GameID:        g.id,
		Seat:          seat,
		Cards:         append([]belote.Card(nil), g.hands[seat]...),
		HandVersion:   g.handVersions[seat],
		LastUpdatedAt: g.lastUpdated,
	}, nil
}

// StateSince blocks until the game's version exceeds the given one, then
// returns a snapshot. Returns immediately when the game is already past it
// or completed.
func (g *Game) StateSince(ctx context.Context, version uint64) (Snapshot, error) {
	for {
		g.mu.Lock()
		if g.stateVersion > version || g.phase == PhaseCompleted {
			snap := g.snapshotLocked()
			g.mu.Unlock()
			return snap, nil
		}
		wait := g.notify
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-wait:
		}
	}
}

func (g *Game) seatOfLocked(identity string) int {
	for seat, info := range g.seats {
		if info.Identity == identity {
			return seat
		}
	}
	return -1
}

func (g *Game) turnInfoLocked() TurnInfo {
	info := TurnInfo{Phase: g.phase, Seat: -1, Version: g.stateVersion}
	if g.phase == PhaseBidding || g.phase == PhasePlaying {
		info.Seat = g.turnCursor
		info.TurnID = g.seats[g.turnCursor].Identity
		info.IsBot = g.seats[g.turnCursor].IsBot
	}
	return info
}

// emitLocked appends an envelope to the log at the current version and
// fans it out.
func (g *Game) emitLocked(t events.Type, scope events.Scope, payload any) {
	env := events.Envelope{
		EventID:    g.ids.Generate(),
		Type:       t,
		OccurredAt: g.clock.Now(),
		Source:     "game",
		GameID:     g.id,
		Payload:    events.MarshalPayload(payload),
		Version:    g.stateVersion,
		Scope:      scope,
	}
	g.log.Append(env)
	if g.publisher != nil {
		g.publisher.Publish(env)
	}
	g.effects = append(g.effects, string(t))
}

// advanceTurnLocked moves the cursor and announces it at the current
// version.
func (g *Game) advanceTurnLocked(seat int) {
	g.turnCursor = seat
	g.emitLocked(events.TypeTurnChanged, events.ScopePublic, TurnChangedPayload{
		Seat:   seat,
		TurnID: g.seats[seat].Identity,
		Phase:  g.phase,
	})
}

// commitLocked stamps the mutation time and wakes version waiters.
func (g *Game) commitLocked() {
	g.lastUpdated = g.clock.Now()
	close(g.notify)
	g.notify = make(chan struct{})
}

// cancelLocked force-completes the game. Reused by external cancellation
// and the fatal invariant path.
func (g *Game) cancelLocked(reason, by string) {
	if g.phase == PhaseCompleted {
		return
	}
	g.stateVersion++
	g.phase = PhaseCompleted
	g.cancelReason = reason
	g.bidding = nil
	g.emitLocked(events.TypeGameCancelled, events.ScopePublic, GameCancelledPayload{Reason: reason, CancelledBy: by})
	close(g.done)
}

// checkConservationLocked verifies that the full deck is accounted for
// across hands, the current trick and completed tricks while a round is
// live. A violation is fatal for this game only.
func (g *Game) checkConservationLocked() error {
	if g.phase != PhaseBidding && g.phase != PhasePlaying {
		return nil
	}

	seen := make(map[belote.Card]bool, belote.DeckSize)
	count := 0
	track := func(card belote.Card) error {
		if seen[card] {
			return fmt.Errorf("card %s held twice", card)
		}
		seen[card] = true
		count++
		return nil
	}

	for seat := range g.hands {
		for _, card := range g.hands[seat] {
			if err := track(card); err != nil {
				return err
			}
		}
	}
	for _, play := range g.currentTrick {
		if err := track(play.Card); err != nil {
			return err
		}
	}
	for _, trick := range g.tricks {
		for _, play := range trick.Plays {
			if err := track(play.Card); err != nil {
				return err
			}
		}
	}

	if count != belote.DeckSize {
		return fmt.Errorf("%d cards in play, want %d", count, belote.DeckSize)
	}
	return nil
}
