package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

func TestPublishRoutesByScope(t *testing.T) {
	d := NewDispatcher(quartz.NewReal(), zerolog.Nop())

	public := d.Subscribe("g1", ScopePublic, 4)
	alice := d.Subscribe("g1", Private("alice"), 4)
	bob := d.Subscribe("g1", Private("bob"), 4)
	otherGame := d.Subscribe("g2", ScopePublic, 4)

	d.Publish(Envelope{EventID: "e1", Type: TypeRoundStarted, GameID: "g1", Version: 1, Scope: ScopePublic})
	d.Publish(Envelope{EventID: "e2", Type: TypeHandDealt, GameID: "g1", Version: 1, Scope: Private("alice")})

	if env := <-public.Events(); env.EventID != "e1" {
		t.Errorf("public subscriber got %s, want e1", env.EventID)
	}
	if env := <-alice.Events(); env.EventID != "e2" {
		t.Errorf("alice got %s, want e2", env.EventID)
	}
	if len(bob.Events()) != 0 {
		t.Error("bob received an event meant for alice")
	}
	if len(otherGame.Events()) != 0 {
		t.Error("g2 subscriber received a g1 event")
	}
	if len(public.Events()) != 0 {
		t.Error("public subscriber received a private event")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	d := NewDispatcher(quartz.NewReal(), zerolog.Nop())
	sub := d.Subscribe("g1", ScopePublic, 8)

	for v := uint64(1); v <= 5; v++ {
		d.Publish(Envelope{Type: TypeMoveAccepted, GameID: "g1", Version: v, Scope: ScopePublic})
	}

	for v := uint64(1); v <= 5; v++ {
		env := <-sub.Events()
		if env.Version != v {
			t.Fatalf("received version %d, want %d", env.Version, v)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	d := NewDispatcher(quartz.NewReal(), zerolog.Nop())
	sub := d.Subscribe("g1", ScopePublic, 1)

	d.Publish(Envelope{EventID: "e1", Type: TypeMoveAccepted, GameID: "g1", Version: 1, Scope: ScopePublic})
	d.Publish(Envelope{EventID: "e2", Type: TypeMoveAccepted, GameID: "g1", Version: 2, Scope: ScopePublic})

	if env := <-sub.Events(); env.EventID != "e1" {
		t.Errorf("got %s, want e1", env.EventID)
	}
	if len(sub.Events()) != 0 {
		t.Error("overflow event should have been dropped")
	}
	// The stream's version still advanced past the drop.
	if got := d.LastVersion("g1"); got != 2 {
		t.Errorf("last version %d, want 2", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	d := NewDispatcher(quartz.NewReal(), zerolog.Nop())
	sub := d.Subscribe("g1", ScopePublic, 1)

	d.Unsubscribe(sub)
	if _, ok := <-sub.Events(); ok {
		t.Error("channel should be closed after unsubscribe")
	}
	// A second unsubscribe is a no-op, not a double close.
	d.Unsubscribe(sub)

	d.Publish(Envelope{Type: TypeMoveAccepted, GameID: "g1", Version: 1, Scope: ScopePublic})
}

func TestHeartbeatsDoNotAdvanceVersions(t *testing.T) {
	d := NewDispatcher(quartz.NewReal(), zerolog.Nop())
	d.Subscribe("g1", ScopePublic, 4)

	d.Publish(Envelope{Type: TypeMoveAccepted, GameID: "g1", Version: 7, Scope: ScopePublic})
	d.Publish(Envelope{Type: TypeSystemHeartbeat, GameID: "g1", Version: 99, Scope: ScopePublic})

	if got := d.LastVersion("g1"); got != 7 {
		t.Errorf("heartbeat moved last version to %d, want 7", got)
	}
}

func TestRunHeartbeats(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().TickerFunc("heartbeat")
	defer trap.Close()

	d := NewDispatcher(mockClock, zerolog.Nop())
	game := d.Subscribe("g1", ScopePublic, 4)
	seat := d.Subscribe("g1", Private("alice"), 4)
	d.Publish(Envelope{EventID: "e1", Type: TypeRoundStarted, GameID: "g1", Version: 3, Scope: ScopePublic})
	<-game.Events()

	done := make(chan error, 1)
	go func() {
		done <- d.RunHeartbeats(ctx, 15*time.Second)
	}()
	trap.MustWait(ctx).Release(ctx)

	mockClock.Advance(15 * time.Second).MustWait(ctx)

	select {
	case env := <-game.Events():
		if env.Type != TypeSystemHeartbeat {
			t.Errorf("event type %s, want heartbeat", env.Type)
		}
		if env.Version != 3 {
			t.Errorf("heartbeat version %d, want the stream's last version 3", env.Version)
		}
	default:
		t.Fatal("public subscriber got no heartbeat")
	}

	// Private subscribers are active subscribers too.
	select {
	case env := <-seat.Events():
		if env.Type != TypeSystemHeartbeat {
			t.Errorf("event type %s, want heartbeat", env.Type)
		}
	default:
		t.Fatal("private subscriber got no heartbeat")
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("heartbeat loop returned %v", err)
	}
}
