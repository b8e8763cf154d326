package belote

import (
	"testing"

	"github.com/ngoudry/coinche/internal/randutil"
)

func TestNewDeckHas32DistinctCards(t *testing.T) {
	d := NewDeck(randutil.New(42))
	if d.Remaining() != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, d.Remaining())
	}

	seen := make(map[Card]bool)
	for _, card := range d.DealN(DeckSize) {
		if seen[card] {
			t.Errorf("duplicate card %v", card)
		}
		seen[card] = true
	}
	if len(seen) != DeckSize {
		t.Errorf("expected %d distinct cards, got %d", DeckSize, len(seen))
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	d1 := NewDeck(randutil.New(7))
	d2 := NewDeck(randutil.New(7))
	d1.Shuffle()
	d2.Shuffle()

	c1 := d1.DealN(DeckSize)
	c2 := d2.DealN(DeckSize)
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Fatalf("same seed produced different orders at index %d: %v vs %v", i, c1[i], c2[i])
		}
	}

	d3 := NewDeck(randutil.New(8))
	d3.Shuffle()
	c3 := d3.DealN(DeckSize)
	same := true
	for i := range c1 {
		if c1[i] != c3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical orders")
	}
}

func TestStackedDeckKeepsOrder(t *testing.T) {
	cards := []Card{{Spades, Jack}, {Hearts, Ace}, {Clubs, Seven}}
	d := NewStackedDeck(cards)
	d.Shuffle() // no rng, must be a no-op

	dealt := d.DealN(3)
	for i, card := range cards {
		if dealt[i] != card {
			t.Errorf("position %d: expected %v, got %v", i, card, dealt[i])
		}
	}
}

func TestDealHandsPattern(t *testing.T) {
	// With dealer 3, seat 0 receives cards first. The 3-2-3 pattern means
	// seat 0 gets deck positions 0-2, 12-13, and 20-22.
	d := NewDeck(nil)
	all := d.DealN(DeckSize)

	d2 := NewStackedDeck(all)
	hands := DealHands(d2, 3)

	for seat, hand := range hands {
		if len(hand) != TricksPerRound {
			t.Fatalf("seat %d: expected 8 cards, got %d", seat, len(hand))
		}
	}

	wantSeat0 := []Card{all[0], all[1], all[2], all[12], all[13], all[20], all[21], all[22]}
	for i, card := range wantSeat0 {
		if hands[0][i] != card {
			t.Errorf("seat 0 card %d: expected %v, got %v", i, card, hands[0][i])
		}
	}

	// Seat 1 gets the second packet of each pass: positions 3-5, 14-15, 23-25.
	wantSeat1 := []Card{all[3], all[4], all[5], all[14], all[15], all[23], all[24], all[25]}
	for i, card := range wantSeat1 {
		if hands[1][i] != card {
			t.Errorf("seat 1 card %d: expected %v, got %v", i, card, hands[1][i])
		}
	}
}

func TestDealHandsStartsAfterDealer(t *testing.T) {
	d := NewDeck(nil)
	all := d.DealN(DeckSize)

	// Dealer 0 means seat 1 receives the first packet.
	hands := DealHands(NewStackedDeck(all), 0)
	if hands[1][0] != all[0] {
		t.Errorf("expected seat 1 to receive the first card, got %v for seat 1 and %v at deck top", hands[1][0], all[0])
	}
	if hands[0][0] != all[9] {
		t.Errorf("dealer should receive the fourth packet: expected %v, got %v", all[9], hands[0][0])
	}
}
