package bot

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/game"
)

// Config tunes how the driver schedules bot actions.
type Config struct {
	// MinDelay and MaxDelay bound the pause before a bot acts.
	MinDelay time.Duration
	MaxDelay time.Duration
	// OpenProbability is the chance a bot opens the auction when its
	// hand qualifies. OpenValue is the value it opens at.
	OpenProbability float64
	OpenValue       int
}

// DefaultConfig paces bots like a quick human player.
func DefaultConfig() Config {
	return Config{
		MinDelay:        time.Second,
		MaxDelay:        2 * time.Second,
		OpenProbability: 0.2,
		OpenValue:       belote.MinBid,
	}
}

// Driver acts for bot seats and enforces turn timeouts for human seats.
// One driver serves any number of games on a shared clock; it keeps at
// most one pending timer per game, replaced every time the turn moves.
type Driver struct {
	clock  quartz.Clock
	config Config
	logger zerolog.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	pending  map[string]*quartz.Timer
	lastSeen map[string]uint64
}

// NewDriver builds a driver. The rng feeds both the action delay jitter
// and the auction dice.
func NewDriver(clock quartz.Clock, rng *rand.Rand, config Config, logger zerolog.Logger) *Driver {
	if config.MinDelay < 0 {
		config.MinDelay = 0
	}
	if config.MaxDelay < config.MinDelay {
		config.MaxDelay = config.MinDelay
	}
	return &Driver{
		clock:    clock,
		config:   config,
		logger:   logger.With().Str("component", "bot").Logger(),
		rng:      rng,
		pending:  make(map[string]*quartz.Timer),
		lastSeen: make(map[string]uint64),
	}
}

// Attach installs the driver as the game's turn hook. Call it before the
// first deal so the opening turn is observed. turnTimeout bounds human
// turns; zero disables forfeits.
func (d *Driver) Attach(g *game.Game, turnTimeout time.Duration) {
	g.SetTurnHook(func(info game.TurnInfo) { d.onTurn(g, turnTimeout, info) })
}

// Detach drops any pending timer for the game. The room calls this when
// a game ends or is torn down.
func (d *Driver) Detach(gameID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.pending[gameID]; ok {
		timer.Stop()
		delete(d.pending, gameID)
	}
	delete(d.lastSeen, gameID)
}

// onTurn reacts to a committed game mutation. Hooks fire outside the
// game lock, so a slow hook can arrive after a fresher one; the version
// guard drops those.
func (d *Driver) onTurn(g *game.Game, turnTimeout time.Duration, info game.TurnInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if info.Version <= d.lastSeen[g.ID()] {
		return
	}
	d.lastSeen[g.ID()] = info.Version

	if timer, ok := d.pending[g.ID()]; ok {
		timer.Stop()
		delete(d.pending, g.ID())
	}
	if info.Seat < 0 {
		return
	}

	if info.IsBot {
		delay := d.config.MinDelay
		if jitter := d.config.MaxDelay - d.config.MinDelay; jitter > 0 {
			delay += time.Duration(d.rng.Int64N(int64(jitter)))
		}
		d.pending[g.ID()] = d.clock.AfterFunc(delay, func() { d.act(g, info) })
		return
	}
	if turnTimeout > 0 {
		d.pending[g.ID()] = d.clock.AfterFunc(turnTimeout, func() { d.forfeit(g, info) })
	}
}

// act performs the scheduled bot action. The turn may have moved while
// the timer was pending, so it re-checks before submitting; a rejected
// submit is logged and dropped because whoever moved the game fired a
// fresh hook that rescheduled us.
func (d *Driver) act(g *game.Game, scheduled game.TurnInfo) {
	current := g.Turn()
	if current.Phase != scheduled.Phase || current.Seat != scheduled.Seat || current.Version != scheduled.Version {
		return
	}
	seat := scheduled.Seat

	handView, err := g.PrivateHand(g.Seats()[seat].Identity)
	if err != nil {
		d.logger.Warn().Err(err).Str("game_id", g.ID()).Int("seat", seat).Msg("bot cannot read its hand")
		return
	}

	switch current.Phase {
	case game.PhaseBidding:
		var currentBid *belote.Bid
		if auction := g.Snapshot().Bidding; auction != nil {
			currentBid = auction.CurrentBid
		}
		d.mu.Lock()
		roll := d.rng.Float64()
		suitRoll := d.rng.Float64()
		d.mu.Unlock()

		kind, value, open := ChooseBid(handView.Cards, currentBid, roll, suitRoll, d.config.OpenProbability, d.config.OpenValue)
		if open {
			_, err = g.SubmitBidForSeat(seat, "", false, kind, value)
		} else {
			_, err = g.SubmitPassForSeat(seat, "", false)
		}

	case game.PhasePlaying:
		snap := g.Snapshot()
		contract, ok := currentContract(snap)
		if !ok {
			return
		}
		legal := belote.LegalPlays(seat, handView.Cards, snap.PublicContainers.CurrentTrick, contract)
		if len(legal) == 0 {
			d.logger.Error().Str("game_id", g.ID()).Int("seat", seat).Msg("bot has no legal play")
			return
		}
		card := ChooseCard(legal, snap.PublicContainers.CurrentTrick, contract, seat)
		_, err = g.SubmitPlayForSeat(seat, "", false, card)

	default:
		return
	}
	if err != nil {
		d.logger.Warn().Err(err).Str("game_id", g.ID()).Int("seat", seat).Msg("bot action rejected")
	}
}

// forfeit acts for a human seat that outran its turn clock: pass during
// the auction, throw the cheapest legal card during play. The submits
// are marked system generated.
func (d *Driver) forfeit(g *game.Game, scheduled game.TurnInfo) {
	current := g.Turn()
	if current.Phase != scheduled.Phase || current.Seat != scheduled.Seat || current.Version != scheduled.Version {
		return
	}
	seat := scheduled.Seat

	var err error
	switch current.Phase {
	case game.PhaseBidding:
		_, err = g.SubmitPassForSeat(seat, "", true)

	case game.PhasePlaying:
		handView, handErr := g.PrivateHand(g.Seats()[seat].Identity)
		if handErr != nil {
			return
		}
		snap := g.Snapshot()
		contract, ok := currentContract(snap)
		if !ok {
			return
		}
		legal := belote.LegalPlays(seat, handView.Cards, snap.PublicContainers.CurrentTrick, contract)
		if len(legal) == 0 {
			return
		}
		_, err = g.SubmitPlayForSeat(seat, "", true, cheapestCard(legal, contract))

	default:
		return
	}
	if err != nil {
		d.logger.Warn().Err(err).Str("game_id", g.ID()).Int("seat", seat).Msg("turn forfeit rejected")
		return
	}
	d.logger.Info().Str("game_id", g.ID()).Int("seat", seat).Msg("turn forfeited after timeout")
}

// currentContract pulls the live round's contract out of a snapshot.
func currentContract(snap game.Snapshot) (belote.Contract, bool) {
	for _, view := range snap.Contracts {
		if view.RoundNumber == snap.RoundNumber {
			return view.Contract, true
		}
	}
	return belote.Contract{}, false
}
