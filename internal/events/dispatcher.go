package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/ngoudry/coinche/internal/gameid"
)

// DefaultBuffer is the per-subscription channel depth.
const DefaultBuffer = 256

type subKey struct {
	stream string
	scope  Scope
}

// Subscription is one registered listener on a (stream, scope) key.
type Subscription struct {
	id  string
	key subKey
	ch  chan Envelope
}

// Events is the subscription's delivery channel. It is closed when the
// subscription is removed.
func (s *Subscription) Events() <-chan Envelope {
	return s.ch
}

// Dispatcher fans envelopes out to subscribers keyed by (stream, scope),
// where a stream is a game or a room. Delivery never blocks the publisher:
// a subscriber whose buffer is full loses the envelope and is expected to
// notice the version gap and replay from the log.
type Dispatcher struct {
	mu     sync.Mutex
	subs   map[subKey]map[string]*Subscription
	latest map[string]uint64
	nextID uint64

	clock  quartz.Clock
	logger zerolog.Logger
}

// NewDispatcher returns a dispatcher with no subscribers.
func NewDispatcher(clock quartz.Clock, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:   make(map[subKey]map[string]*Subscription),
		latest: make(map[string]uint64),
		clock:  clock,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a listener on one (stream, scope) key. A buffer of
// zero or less selects DefaultBuffer.
func (d *Dispatcher) Subscribe(stream string, scope Scope, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	sub := &Subscription{
		id:  fmt.Sprintf("sub-%d", d.nextID),
		key: subKey{stream: stream, scope: scope},
		ch:  make(chan Envelope, buffer),
	}
	byID := d.subs[sub.key]
	if byID == nil {
		byID = make(map[string]*Subscription)
		d.subs[sub.key] = byID
	}
	byID[sub.id] = sub
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Safe to
// call twice.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	byID, ok := d.subs[sub.key]
	if !ok {
		return
	}
	if _, ok := byID[sub.id]; !ok {
		return
	}
	delete(byID, sub.id)
	if len(byID) == 0 {
		delete(d.subs, sub.key)
	}
	close(sub.ch)
}

// Publish routes an envelope to every subscriber of its (stream, scope)
// key and records the stream's latest version.
func (d *Dispatcher) Publish(env Envelope) {
	stream := env.StreamID()

	d.mu.Lock()
	defer d.mu.Unlock()

	if env.Type != TypeSystemHeartbeat && env.Version > d.latest[stream] {
		d.latest[stream] = env.Version
	}
	d.deliverLocked(subKey{stream: stream, scope: env.Scope}, env)
}

func (d *Dispatcher) deliverLocked(key subKey, env Envelope) {
	for _, sub := range d.subs[key] {
		select {
		case sub.ch <- env:
		default:
			d.logger.Warn().
				Str("subscription", sub.id).
				Str("stream", key.stream).
				Str("event_type", string(env.Type)).
				Uint64("version", env.Version).
				Msg("subscriber buffer full, dropping event")
		}
	}
}

// LastVersion returns the highest version published on a stream.
func (d *Dispatcher) LastVersion(stream string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest[stream]
}

// RunHeartbeats emits system.heartbeat to every active subscriber at the
// given cadence until ctx is cancelled. Heartbeats carry the stream's last
// published version so clients can notice gaps; they are not appended to
// any log and do not advance versions.
func (d *Dispatcher) RunHeartbeats(ctx context.Context, interval time.Duration) error {
	waiter := d.clock.TickerFunc(ctx, interval, func() error {
		d.broadcastHeartbeats()
		return nil
	}, "heartbeat")
	return waiter.Wait()
}

type heartbeatPayload struct {
	Stream      string `json:"stream"`
	LastVersion uint64 `json:"lastVersion"`
}

func (d *Dispatcher) broadcastHeartbeats() {
	now := d.clock.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.subs {
		env := Envelope{
			EventID:    gameid.Generate(),
			Type:       TypeSystemHeartbeat,
			OccurredAt: now,
			Source:     "system",
			Payload:    MarshalPayload(heartbeatPayload{Stream: key.stream, LastVersion: d.latest[key.stream]}),
			Version:    d.latest[key.stream],
			Scope:      ScopePublic,
		}
		d.deliverLocked(key, env)
	}
}
