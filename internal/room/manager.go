package room

import (
	"fmt"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
	"github.com/ngoudry/coinche/internal/game"
	"github.com/ngoudry/coinche/internal/gameid"
	"github.com/ngoudry/coinche/internal/randutil"
)

// Defaults seed new rooms when the creator leaves a knob unset.
type Defaults struct {
	TargetScore int
	TurnTimeout time.Duration
	Visibility  Visibility
}

// GameDriver schedules automated play for started games. *bot.Driver
// satisfies it.
type GameDriver interface {
	Attach(g *game.Game, turnTimeout time.Duration)
	Detach(gameID string)
}

// Manager is the room registry. It creates games from full rooms, hands
// them to the driver, and routes room events through the publisher.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	games map[string]*game.Game

	idMu sync.Mutex
	rng  *rand.Rand
	ids  *gameid.Generator

	defaults  Defaults
	publisher game.Publisher
	driver    GameDriver
	clock     quartz.Clock
	base      zerolog.Logger
	logger    zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaults sets the room defaults.
func WithDefaults(d Defaults) Option {
	return func(m *Manager) { m.defaults = d }
}

// WithPublisher routes room and game events through p.
func WithPublisher(p game.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithDriver hands started games to d for bot play and turn deadlines.
func WithDriver(d GameDriver) Option {
	return func(m *Manager) { m.driver = d }
}

// WithClock substitutes the clock.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithRNG seeds id generation and the per-game deal streams.
func WithRNG(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithLogger sets the root logger; games get their own children of it.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.base = logger }
}

// NewManager returns an empty registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rooms: make(map[string]*Room),
		games: make(map[string]*game.Game),
		defaults: Defaults{
			TargetScore: game.DefaultTargetScore,
			Visibility:  VisibilityPublic,
		},
		clock: quartz.NewReal(),
		base:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = randutil.New(m.clock.Now().UnixNano())
	}
	m.ids = gameid.NewGenerator(gameid.FromRand(m.rng)).WithNow(func() time.Time { return m.clock.Now() })
	m.logger = m.base.With().Str("component", "room").Logger()
	return m
}

// newID and deriveRNG serialize use of the shared rng.
func (m *Manager) newID() string {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	return m.ids.Generate()
}

func (m *Manager) deriveRNG() *rand.Rand {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	return randutil.Derive(m.rng)
}

// emitLocked publishes a room event carrying the room's current revision.
// Callers hold r.mu.
func (m *Manager) emitLocked(r *Room, t events.Type, payload any) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(events.Envelope{
		EventID:    m.newID(),
		Type:       t,
		OccurredAt: m.clock.Now(),
		Source:     "room",
		RoomID:     r.id,
		Payload:    events.MarshalPayload(payload),
		Version:    r.rev,
		Scope:      events.ScopePublic,
	})
}

// CreateOptions are the host-settable knobs. Zero values take the
// manager defaults.
type CreateOptions struct {
	Visibility  Visibility
	TargetScore int
	TurnTimeout time.Duration
}

// Create opens a lobby with the host seated at seat 0, not ready.
func (m *Manager) Create(hostID, hostName string, opts CreateOptions) (View, error) {
	if hostID == "" {
		return View{}, fmt.Errorf("%w: empty host player id", game.ErrInvalidPayload)
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = m.defaults.Visibility
	}
	if visibility != VisibilityPublic && visibility != VisibilityPrivate {
		return View{}, fmt.Errorf("%w: visibility %q", game.ErrInvalidPayload, opts.Visibility)
	}
	target := opts.TargetScore
	if target == 0 {
		target = m.defaults.TargetScore
	}
	if target < 0 {
		return View{}, fmt.Errorf("%w: target score %d", game.ErrInvalidPayload, opts.TargetScore)
	}
	timeout := opts.TurnTimeout
	if timeout == 0 {
		timeout = m.defaults.TurnTimeout
	}
	if timeout < 0 {
		return View{}, fmt.Errorf("%w: turn timeout %s", game.ErrInvalidPayload, opts.TurnTimeout)
	}

	now := m.clock.Now()
	r := &Room{
		id:         m.newID(),
		host:       hostID,
		visibility: visibility,
		status:     StatusLobby,
		spectators: make(map[string]string),
		target:     target,
		timeout:    timeout,
		createdAt:  now,
		updatedAt:  now,
	}
	r.seats[0] = &SeatAssignment{PlayerID: hostID, DisplayName: displayNameOr(hostID, hostName)}

	m.mu.Lock()
	m.rooms[r.id] = r
	m.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked(now)
	m.emitLocked(r, events.TypeRoomUpdated, r.viewLocked())
	m.logger.Info().Str("room_id", r.id).Str("host", hostID).Msg("room created")
	return r.viewLocked(), nil
}

// Filter narrows and pages a listing. Zero fields match everything; a
// Limit of zero or less means no limit.
type Filter struct {
	GameType   string
	Visibility Visibility
	Status     Status
	Limit      int
	Offset     int
}

// List returns matching room views ordered by creation time.
func (m *Manager) List(f Filter) []View {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	views := make([]View, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		view := r.viewLocked()
		r.mu.Unlock()

		if f.GameType != "" && view.GameType != f.GameType {
			continue
		}
		if f.Visibility != "" && view.Visibility != f.Visibility {
			continue
		}
		if f.Status != "" && view.Status != f.Status {
			continue
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.Before(views[j].CreatedAt)
		}
		return views[i].RoomID < views[j].RoomID
	})

	if f.Offset > 0 {
		if f.Offset >= len(views) {
			return nil
		}
		views = views[f.Offset:]
	}
	if f.Limit > 0 && len(views) > f.Limit {
		views = views[:f.Limit]
	}
	return views
}

// Get returns one room's view.
func (m *Manager) Get(roomID string) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked(), nil
}

// Join seats a player, or registers a spectator when spectator is set.
// A nil seat picks the first free one. Spectators may join at any stage;
// seats only while the room is an unlocked lobby.
func (m *Manager) Join(roomID, playerID, displayName string, seat *int, spectator bool) (View, error) {
	if playerID == "" {
		return View{}, fmt.Errorf("%w: empty player id", game.ErrInvalidPayload)
	}
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatOfLocked(playerID) >= 0 {
		return View{}, &game.RuleError{Violations: []string{fmt.Sprintf("player %s already holds a seat", playerID)}}
	}

	if spectator {
		if _, ok := r.spectators[playerID]; !ok {
			r.spectators[playerID] = displayNameOr(playerID, displayName)
			r.touchLocked(m.clock.Now())
			m.emitLocked(r, events.TypeRoomPlayerJoined, PlayerJoinedPayload{
				RoomID:      r.id,
				PlayerID:    playerID,
				DisplayName: r.spectators[playerID],
				Spectator:   true,
			})
		}
		return r.viewLocked(), nil
	}

	if r.status != StatusLobby {
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}
	if r.locked {
		return View{}, fmt.Errorf("%w: room %s is locked", game.ErrForbidden, r.id)
	}

	idx := -1
	if seat != nil {
		if *seat < 0 || *seat >= belote.NumSeats {
			return View{}, fmt.Errorf("%w: seat %d out of range", game.ErrInvalidPayload, *seat)
		}
		if r.seats[*seat] != nil {
			return View{}, &game.RuleError{Violations: []string{fmt.Sprintf("seat %d is occupied", *seat)}}
		}
		idx = *seat
	} else {
		for i, s := range r.seats {
			if s == nil {
				idx = i
				break
			}
		}
		if idx < 0 {
			return View{}, &game.RuleError{Violations: []string{"no free seat"}}
		}
	}

	// A watcher taking a seat stops spectating.
	delete(r.spectators, playerID)
	r.seats[idx] = &SeatAssignment{PlayerID: playerID, DisplayName: displayNameOr(playerID, displayName)}
	r.touchLocked(m.clock.Now())
	taken := idx
	m.emitLocked(r, events.TypeRoomPlayerJoined, PlayerJoinedPayload{
		RoomID:      r.id,
		PlayerID:    playerID,
		DisplayName: r.seats[idx].DisplayName,
		Seat:        &taken,
	})
	return r.viewLocked(), nil
}

// Leave removes a player. Spectators leave at any stage; a seat can only
// be vacated while the room is a lobby. When the host leaves, the first
// seated human inherits the room; an emptied lobby is deleted.
func (m *Manager) Leave(roomID, playerID string) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()

	if _, ok := r.spectators[playerID]; ok {
		delete(r.spectators, playerID)
		r.touchLocked(m.clock.Now())
		m.emitLocked(r, events.TypeRoomPlayerLeft, PlayerLeftPayload{RoomID: r.id, PlayerID: playerID, Reason: "left"})
		view := r.viewLocked()
		r.mu.Unlock()
		return view, nil
	}

	idx := r.seatOfLocked(playerID)
	if idx < 0 {
		r.mu.Unlock()
		return View{}, fmt.Errorf("%w: player %q in room %s", game.ErrNotFound, playerID, roomID)
	}
	if r.status == StatusInProgress {
		r.mu.Unlock()
		return View{}, fmt.Errorf("%w: cannot leave a room in progress", game.ErrForbidden)
	}

	r.seats[idx] = nil
	if r.host == playerID {
		r.host = r.nextHostLocked()
	}
	empty := r.humanCountLocked() == 0 && len(r.spectators) == 0 && r.status == StatusLobby
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomPlayerLeft, PlayerLeftPayload{RoomID: r.id, PlayerID: playerID, Reason: "left"})
	view := r.viewLocked()
	r.mu.Unlock()

	if empty {
		m.mu.Lock()
		delete(m.rooms, roomID)
		m.mu.Unlock()
		m.logger.Info().Str("room_id", roomID).Msg("empty room removed")
	}
	return view, nil
}

// RemoveSeat is the host kick: it vacates a seat, human or bot.
func (m *Manager) RemoveSeat(roomID, callerID string, seat int) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != callerID {
		return View{}, fmt.Errorf("%w: only the host may remove a seat", game.ErrForbidden)
	}
	if r.status != StatusLobby {
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}
	if seat < 0 || seat >= belote.NumSeats {
		return View{}, fmt.Errorf("%w: seat %d out of range", game.ErrInvalidPayload, seat)
	}
	occupant := r.seats[seat]
	if occupant == nil {
		return View{}, fmt.Errorf("%w: seat %d is empty", game.ErrNotFound, seat)
	}
	if occupant.PlayerID == r.host {
		return View{}, &game.RuleError{Violations: []string{"host cannot remove their own seat"}}
	}

	r.seats[seat] = nil
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomPlayerLeft, PlayerLeftPayload{RoomID: r.id, PlayerID: occupant.PlayerID, Reason: "removed"})
	return r.viewLocked(), nil
}

// ToggleReady flips the caller's ready flag.
func (m *Manager) ToggleReady(roomID, playerID string) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}
	idx := r.seatOfLocked(playerID)
	if idx < 0 {
		return View{}, fmt.Errorf("%w: player %q holds no seat", game.ErrNotFound, playerID)
	}

	r.seats[idx].Ready = !r.seats[idx].Ready
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomUpdated, r.viewLocked())
	return r.viewLocked(), nil
}

// Lock stops further seat joins.
func (m *Manager) Lock(roomID, callerID string) (View, error) {
	return m.setLocked(roomID, callerID, true)
}

// Unlock reopens the room to joins.
func (m *Manager) Unlock(roomID, callerID string) (View, error) {
	return m.setLocked(roomID, callerID, false)
}

func (m *Manager) setLocked(roomID, callerID string, locked bool) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != callerID {
		return View{}, fmt.Errorf("%w: only the host may lock or unlock", game.ErrForbidden)
	}
	if r.status != StatusLobby {
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}
	if r.locked == locked {
		return r.viewLocked(), nil
	}

	r.locked = locked
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomUpdated, r.viewLocked())
	return r.viewLocked(), nil
}

// FillWithBots seats an auto-readied bot on every empty seat.
func (m *Manager) FillWithBots(roomID, callerID string) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != callerID {
		return View{}, fmt.Errorf("%w: only the host may fill with bots", game.ErrForbidden)
	}
	if r.status != StatusLobby {
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}

	filled := 0
	for i := range r.seats {
		if r.seats[i] == nil {
			r.seats[i] = &SeatAssignment{
				PlayerID:    fmt.Sprintf("bot-%d", i+1),
				DisplayName: fmt.Sprintf("Bot %d", i+1),
				IsBot:       true,
				Ready:       true,
			}
			filled++
		}
	}
	if filled == 0 {
		return r.viewLocked(), nil
	}

	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomUpdated, r.viewLocked())
	return r.viewLocked(), nil
}

// Start checks the room is full, ready, and unlocked, then builds the
// game from the seat order, locks the room, and deals the first round.
func (m *Manager) Start(roomID, callerID string) (View, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return View{}, err
	}

	r.mu.Lock()

	if r.host != callerID {
		r.mu.Unlock()
		return View{}, fmt.Errorf("%w: only the host may start the game", game.ErrForbidden)
	}
	if r.status != StatusLobby {
		r.mu.Unlock()
		return View{}, fmt.Errorf("%w: room %s is %s", game.ErrForbidden, r.id, r.status)
	}

	var violations []string
	if r.locked {
		violations = append(violations, "room is locked")
	}
	for i, s := range r.seats {
		switch {
		case s == nil:
			violations = append(violations, fmt.Sprintf("seat %d is empty", i))
		case !s.Ready:
			violations = append(violations, fmt.Sprintf("seat %d (%s) is not ready", i, s.PlayerID))
		}
	}
	if len(violations) > 0 {
		r.mu.Unlock()
		return View{}, &game.RuleError{Violations: violations}
	}

	var seats [belote.NumSeats]game.SeatInfo
	order := make([]string, belote.NumSeats)
	for i, s := range r.seats {
		seats[i] = game.SeatInfo{Identity: s.PlayerID, DisplayName: s.DisplayName, IsBot: s.IsBot}
		order[i] = s.PlayerID
		s.Ready = false
	}

	gameID := m.newID()
	g := game.New(gameID, r.id, seats,
		game.WithClock(m.clock),
		game.WithRNG(m.deriveRNG()),
		game.WithTargetScore(r.target),
		game.WithPublisher(m.publisher),
		game.WithLogger(m.base),
	)
	if m.driver != nil {
		m.driver.Attach(g, r.timeout)
	}

	r.status = StatusInProgress
	r.locked = true
	r.game = g
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomGameStarted, GameStartedPayload{RoomID: r.id, GameID: gameID, TurnOrder: order})
	view := r.viewLocked()
	r.mu.Unlock()

	m.mu.Lock()
	m.games[gameID] = g
	m.mu.Unlock()

	if _, err := g.StartRound(); err != nil {
		// The deal fails only on an invariant fault, which already
		// cancelled the game; the watcher below closes out the room.
		m.logger.Error().Err(err).Str("room_id", r.id).Str("game_id", gameID).Msg("initial deal failed")
	}
	go m.watchGame(r, g)

	m.logger.Info().Str("room_id", r.id).Str("game_id", gameID).Msg("game started")
	return view, nil
}

// watchGame flips the room to completed once its game finishes, however
// it finishes.
func (m *Manager) watchGame(r *Room, g *game.Game) {
	<-g.Done()
	if m.driver != nil {
		m.driver.Detach(g.ID())
	}

	r.mu.Lock()
	r.status = StatusCompleted
	r.locked = false
	r.touchLocked(m.clock.Now())
	m.emitLocked(r, events.TypeRoomUpdated, r.viewLocked())
	r.mu.Unlock()

	m.logger.Info().Str("room_id", r.id).Str("game_id", g.ID()).Msg("room completed")
}

// LookupGame resolves a started game by id for the transport layer.
func (m *Manager) LookupGame(gameID string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %q", game.ErrNotFound, gameID)
	}
	return g, nil
}

// GameFor returns the room's running game.
func (m *Manager) GameFor(roomID string) (*game.Game, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return nil, fmt.Errorf("%w: room %s has no game", game.ErrNotFound, r.id)
	}
	return r.game, nil
}

func (m *Manager) lookup(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %q", game.ErrNotFound, roomID)
	}
	return r, nil
}

func displayNameOr(playerID, displayName string) string {
	if displayName == "" {
		return playerID
	}
	return displayName
}
