package belote

import rand "math/rand/v2"

// DeckSize is the number of cards in the Coinche deck.
const DeckSize = 32

// dealPattern is the packet sizes used when dealing a round: each seat
// receives three cards, then two, then three, going clockwise from the seat
// after the dealer.
var dealPattern = [...]int{3, 2, 3}

// Deck represents the 32-card deck. The zero value is not usable; construct
// with NewDeck or NewStackedDeck.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a fresh 32-card deck in canonical order. The provided rng
// drives Shuffle; it may be nil for decks that are never shuffled.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, DeckSize),
		rng:   rng,
	}
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// NewStackedDeck creates a deck that deals the given cards in order. Used by
// tests that need predetermined hands; callers are responsible for supplying
// 32 distinct cards.
func NewStackedDeck(cards []Card) *Deck {
	stacked := make([]Card, len(cards))
	copy(stacked, cards)
	return &Deck{cards: stacked}
}

// Shuffle randomizes the order of cards in the deck. A deck built without an
// rng keeps its stacked order.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// DealN removes and returns the top n cards.
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// DealHands deals eight cards to each of the four seats in the 3-2-3
// pattern, starting with the seat after the dealer and going clockwise.
// The deck must hold all 32 cards.
func DealHands(d *Deck, dealer int) [NumSeats][]Card {
	var hands [NumSeats][]Card
	for i := range hands {
		hands[i] = make([]Card, 0, TricksPerRound)
	}
	for _, packet := range dealPattern {
		for i := 1; i <= NumSeats; i++ {
			seat := (dealer + i) % NumSeats
			hands[seat] = append(hands[seat], d.DealN(packet)...)
		}
	}
	return hands
}
