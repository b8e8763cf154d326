package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/internal/events"
	"github.com/ngoudry/coinche/internal/game"
	"github.com/ngoudry/coinche/internal/room"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. It owns the read/write pumps,
// the bound player identity, and the event subscriptions feeding this
// client.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu         sync.RWMutex
	playerID   string
	playerName string
	subs       map[string][]*events.Subscription
}

// NewConnection creates a connection wrapper around an upgraded socket.
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		server: server,
		logger: server.logger.With().Str("component", "conn").Logger(),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string][]*events.Subscription),
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down and drops its subscriptions.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		for _, subs := range c.subs {
			for _, sub := range subs {
				c.server.dispatcher.Unsubscribe(sub)
			}
		}
		c.subs = make(map[string][]*events.Subscription)
		c.mu.Unlock()

		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer closes the
// connection: a client that cannot keep up replays from the event log on
// reconnect.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown.
			c.logger.Debug().Interface("recovered", r).Msg("send on closed connection")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn().Str("player", c.Player()).Msg("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer binds the connection to a player identity.
func (c *Connection) SetPlayer(playerID, playerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.playerName = playerName
}

// Player returns the bound player identity, empty before hello.
func (c *Connection) Player() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName returns the bound display name.
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// subscribeRoom attaches this connection to a room's public event stream.
// Idempotent per stream.
func (c *Connection) subscribeRoom(roomID string) {
	c.subscribe(roomID, events.ScopePublic)
}

// subscribeGame attaches this connection to a game stream, both the
// public scope and the private scope of the bound identity.
func (c *Connection) subscribeGame(gameID string) {
	c.subscribe(gameID, events.ScopePublic, events.Private(c.Player()))
}

func (c *Connection) subscribe(stream string, scopes ...events.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[stream]; ok {
		return
	}
	subs := make([]*events.Subscription, 0, len(scopes))
	for _, scope := range scopes {
		sub := c.server.dispatcher.Subscribe(stream, scope, events.DefaultBuffer)
		subs = append(subs, sub)
		go c.forwardEvents(sub)
	}
	c.subs[stream] = subs
}

// unsubscribe drops every subscription held on one stream.
func (c *Connection) unsubscribe(stream string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs[stream] {
		c.server.dispatcher.Unsubscribe(sub)
	}
	delete(c.subs, stream)
}

// forwardEvents pushes envelopes from one subscription to the client
// until the subscription is closed.
func (c *Connection) forwardEvents(sub *events.Subscription) {
	for env := range sub.Events() {
		msg, err := NewMessage(MessageTypeEvent, env)
		if err != nil {
			c.logger.Error().Err(err).Str("event_type", string(env.Type)).Msg("encode event")
			continue
		}
		_ = c.SendMessage(msg) // Ignore send errors
	}
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// reply sends a typed response echoing the request's correlation id.
func (c *Connection) reply(requestID string, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error().Err(err).Str("message_type", string(messageType)).Msg("encode reply")
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg) // Ignore send errors
}

// replyError sends an error frame with the given kind.
func (c *Connection) replyError(requestID, kind, message string) {
	c.reply(requestID, MessageTypeError, ErrorData{Kind: kind, Message: message})
}

// errorData maps a domain error onto the wire taxonomy, carrying the
// current version on conflicts and the violation list on illegal moves.
func errorData(err error) ErrorData {
	data := ErrorData{Kind: game.ErrorKind(err), Message: err.Error()}

	var conflict *game.ConflictError
	if errors.As(err, &conflict) {
		current := conflict.CurrentVersion
		data.CurrentVersion = &current
	}
	if violations := game.Violations(err); len(violations) > 0 {
		data.Violations = violations
	}
	return data
}

// requireIdentity returns the bound player id, rejecting the request when
// the connection has not said hello yet.
func (c *Connection) requireIdentity(requestID string) (string, bool) {
	playerID := c.Player()
	if playerID == "" {
		c.replyError(requestID, game.KindUnauthorized, "say hello first")
		return "", false
	}
	return playerID, true
}

// handleMessage dispatches one inbound frame.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug().Str("type", string(msg.Type)).Str("player", c.Player()).Msg("received message")

	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse hello data")
			return
		}
		c.handleHello(msg.RequestID, data)

	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse create room data")
			return
		}
		c.handleCreateRoom(msg.RequestID, data)

	case MessageTypeListRooms:
		var data ListRoomsData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse list rooms data")
				return
			}
		}
		c.handleListRooms(msg.RequestID, data)

	case MessageTypeGetRoom:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse get room data")
			return
		}
		c.handleGetRoom(msg.RequestID, data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse join room data")
			return
		}
		c.handleJoinRoom(msg.RequestID, data)

	case MessageTypeLeaveRoom:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse leave room data")
			return
		}
		c.handleLeaveRoom(msg.RequestID, data)

	case MessageTypeRemoveSeat:
		var data RemoveSeatData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse remove seat data")
			return
		}
		c.handleRemoveSeat(msg.RequestID, data)

	case MessageTypeToggleReady:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse toggle ready data")
			return
		}
		c.handleToggleReady(msg.RequestID, data)

	case MessageTypeLockRoom, MessageTypeUnlockRoom:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse lock room data")
			return
		}
		c.handleSetLocked(msg.RequestID, data, msg.Type == MessageTypeLockRoom)

	case MessageTypeStartGame:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse start game data")
			return
		}
		c.handleStartGame(msg.RequestID, data)

	case MessageTypeFillWithBots:
		var data RoomRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse fill with bots data")
			return
		}
		c.handleFillWithBots(msg.RequestID, data)

	case MessageTypeGetState:
		var data GetStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse get state data")
			return
		}
		c.handleGetState(msg.RequestID, data)

	case MessageTypeGetTurn:
		var data GameRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse get turn data")
			return
		}
		c.handleGetTurn(msg.RequestID, data)

	case MessageTypeGetHand:
		var data GameRef
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse get hand data")
			return
		}
		c.handleGetHand(msg.RequestID, data)

	case MessageTypeSubmitBid:
		var data SubmitBidData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse submit bid data")
			return
		}
		c.handleSubmitBid(msg.RequestID, data)

	case MessageTypeSubmitPass, MessageTypeSubmitCoinche, MessageTypeSubmitSurcoinche:
		var data SubmitActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse submit data")
			return
		}
		c.handleSubmitAction(msg.RequestID, msg.Type, data)

	case MessageTypeSubmitPlay:
		var data SubmitPlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse submit play data")
			return
		}
		c.handleSubmitPlay(msg.RequestID, data)

	case MessageTypeCancelGame:
		var data CancelGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse cancel game data")
			return
		}
		c.handleCancelGame(msg.RequestID, data)

	case MessageTypeInvalidateMove:
		var data InvalidateMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse invalidate move data")
			return
		}
		c.handleInvalidateMove(msg.RequestID, data)

	case MessageTypeListEvents:
		var data ListEventsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.replyError(msg.RequestID, game.KindInvalidPayload, "failed to parse list events data")
			return
		}
		c.handleListEvents(msg.RequestID, data)

	default:
		c.replyError(msg.RequestID, game.KindInvalidPayload, "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) handleHello(requestID string, data HelloData) {
	if data.PlayerID == "" {
		c.replyError(requestID, game.KindInvalidPayload, "player id required")
		return
	}
	if current := c.Player(); current != "" && current != data.PlayerID {
		c.replyError(requestID, game.KindInvalidPayload, "connection already bound to "+current)
		return
	}

	c.SetPlayer(data.PlayerID, data.PlayerName)
	c.logger.Info().Str("player", data.PlayerID).Msg("identity bound")

	c.reply(requestID, MessageTypeWelcome, WelcomeData{
		PlayerID:         data.PlayerID,
		HeartbeatSeconds: int(c.server.heartbeat / time.Second),
	})
}

func (c *Connection) handleCreateRoom(requestID string, data CreateRoomData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.Create(playerID, c.PlayerName(), room.CreateOptions{
		Visibility:  room.Visibility(data.Visibility),
		TargetScore: data.TargetScore,
		TurnTimeout: time.Duration(data.TurnTimeoutSeconds) * time.Second,
	})
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}

	c.subscribeRoom(view.RoomID)
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleListRooms(requestID string, data ListRoomsData) {
	if _, ok := c.requireIdentity(requestID); !ok {
		return
	}

	views := c.server.rooms.List(room.Filter{
		GameType:   data.GameType,
		Visibility: room.Visibility(data.Visibility),
		Status:     room.Status(data.Status),
		Limit:      data.Limit,
		Offset:     data.Offset,
	})
	if views == nil {
		views = []room.View{}
	}
	c.reply(requestID, MessageTypeRoomList, RoomListData{Rooms: views})
}

func (c *Connection) handleGetRoom(requestID string, data RoomRef) {
	if _, ok := c.requireIdentity(requestID); !ok {
		return
	}

	view, err := c.server.rooms.Get(data.RoomID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleJoinRoom(requestID string, data JoinRoomData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.Join(data.RoomID, playerID, c.PlayerName(), data.Seat, data.Spectator)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}

	c.subscribeRoom(view.RoomID)
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleLeaveRoom(requestID string, data RoomRef) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.Leave(data.RoomID, playerID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}

	c.unsubscribe(data.RoomID)
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleRemoveSeat(requestID string, data RemoveSeatData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.RemoveSeat(data.RoomID, playerID, data.Seat)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleToggleReady(requestID string, data RoomRef) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.ToggleReady(data.RoomID, playerID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleSetLocked(requestID string, data RoomRef, locked bool) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	var view room.View
	var err error
	if locked {
		view, err = c.server.rooms.Lock(data.RoomID, playerID)
	} else {
		view, err = c.server.rooms.Unlock(data.RoomID, playerID)
	}
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleStartGame(requestID string, data RoomRef) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	c.logger.Info().Str("room", data.RoomID).Str("player", playerID).Msg("start game request")

	view, err := c.server.rooms.Start(data.RoomID, playerID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}

	if view.GameID != "" {
		c.subscribeGame(view.GameID)
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

func (c *Connection) handleFillWithBots(requestID string, data RoomRef) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}

	view, err := c.server.rooms.FillWithBots(data.RoomID, playerID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeRoomState, view)
}

// lookupGame resolves a game id and attaches the caller to its streams.
func (c *Connection) lookupGame(requestID, gameID string) (*game.Game, bool) {
	g, err := c.server.rooms.LookupGame(gameID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return nil, false
	}
	c.subscribeGame(g.ID())
	return g, true
}

func (c *Connection) handleGetState(requestID string, data GetStateData) {
	if _, ok := c.requireIdentity(requestID); !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	if data.SinceVersion == nil {
		c.reply(requestID, MessageTypeGameState, g.Snapshot())
		return
	}

	// Long poll: hold the reply until the game moves past the version.
	since := *data.SinceVersion
	go func() {
		snap, err := g.StateSince(c.ctx, since)
		if err != nil {
			return
		}
		c.reply(requestID, MessageTypeGameState, snap)
	}()
}

func (c *Connection) handleGetTurn(requestID string, data GameRef) {
	if _, ok := c.requireIdentity(requestID); !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}
	c.reply(requestID, MessageTypeTurnState, g.Turn())
}

func (c *Connection) handleGetHand(requestID string, data GameRef) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	hand, err := g.PrivateHand(playerID)
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeHand, hand)
}

// replyMove acknowledges an accepted move or relays the rejection to the
// submitter. Rejections never reach other clients.
func (c *Connection) replyMove(requestID, gameID string, result game.MoveResult, err error) {
	if err != nil {
		c.reply(requestID, MessageTypeMoveRejected, MoveRejectedData{
			GameID:    gameID,
			ErrorData: errorData(err),
		})
		return
	}
	c.reply(requestID, MessageTypeMoveResult, result)
}

func (c *Connection) handleSubmitBid(requestID string, data SubmitBidData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	kind, err := belote.ParseContractKind(data.Kind)
	if err != nil {
		c.replyMove(requestID, data.GameID, game.MoveResult{}, err)
		return
	}

	result, err := g.SubmitBid(playerID, data.ClientActionID, data.ExpectedVersion, kind, data.Value)
	c.replyMove(requestID, data.GameID, result, err)
}

func (c *Connection) handleSubmitAction(requestID string, msgType MessageType, data SubmitActionData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	var result game.MoveResult
	var err error
	switch msgType {
	case MessageTypeSubmitPass:
		result, err = g.SubmitPass(playerID, data.ClientActionID, data.ExpectedVersion)
	case MessageTypeSubmitCoinche:
		result, err = g.SubmitCoinche(playerID, data.ClientActionID, data.ExpectedVersion)
	case MessageTypeSubmitSurcoinche:
		result, err = g.SubmitSurcoinche(playerID, data.ClientActionID, data.ExpectedVersion)
	}
	c.replyMove(requestID, data.GameID, result, err)
}

func (c *Connection) handleSubmitPlay(requestID string, data SubmitPlayData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	card, err := belote.ParseCard(data.Card)
	if err != nil {
		c.replyMove(requestID, data.GameID, game.MoveResult{}, err)
		return
	}

	result, err := g.SubmitPlay(playerID, data.ClientActionID, data.ExpectedVersion, card)
	c.replyMove(requestID, data.GameID, result, err)
}

// requireHost rejects callers other than the host of the game's room.
// Cancelling and invalidating are host operations; the game itself does
// not check authority.
func (c *Connection) requireHost(requestID, playerID string, g *game.Game) bool {
	view, err := c.server.rooms.Get(g.RoomID())
	if err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return false
	}
	if view.HostPlayer != playerID {
		c.replyError(requestID, game.KindForbidden, "only the host may do that")
		return false
	}
	return true
}

func (c *Connection) handleCancelGame(requestID string, data CancelGameData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}
	if !c.requireHost(requestID, playerID, g) {
		return
	}
	c.logger.Info().Str("game", data.GameID).Str("player", playerID).Msg("cancel game request")

	if _, err := g.Cancel(playerID, data.Reason); err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeGameState, g.Snapshot())
}

func (c *Connection) handleInvalidateMove(requestID string, data InvalidateMoveData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}
	if !c.requireHost(requestID, playerID, g) {
		return
	}
	c.logger.Info().Str("game", data.GameID).Str("move", data.MoveID).Msg("invalidate move request")

	if _, err := g.InvalidateMove(playerID, data.MoveID); err != nil {
		c.reply(requestID, MessageTypeError, errorData(err))
		return
	}
	c.reply(requestID, MessageTypeGameState, g.Snapshot())
}

func (c *Connection) handleListEvents(requestID string, data ListEventsData) {
	playerID, ok := c.requireIdentity(requestID)
	if !ok {
		return
	}
	g, ok := c.lookupGame(requestID, data.GameID)
	if !ok {
		return
	}

	visible := make([]events.Envelope, 0)
	for _, env := range g.ListEvents(data.AfterEventID) {
		if env.VisibleTo(playerID) {
			visible = append(visible, env)
		}
	}
	c.reply(requestID, MessageTypeEventList, EventListData{GameID: data.GameID, Events: visible})
}
