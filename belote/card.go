// Package belote implements the rules kernel for Belote Coinchée: the
// 32-card deck, contract ordering, bid and play legality, trick resolution,
// and round scoring. Everything here is pure and value-based; game state,
// time, and I/O live in the packages that consume it.
package belote

import (
	"fmt"
	"strings"
)

// NumSeats is the fixed table size for Coinche.
const NumSeats = 4

// TricksPerRound is the number of tricks in a full round (32 cards / 4 seats).
const TricksPerRound = 8

// Suit represents a card suit. The declared order is the contract priority
// order, lowest first.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Code returns the single-letter suit code used on the wire
func (s Suit) Code() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	default:
		return "?"
	}
}

// Name returns the lowercase english suit name
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// Suits lists all four suits in priority order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Rank represents a card rank. Only the eight ranks of the 32-card deck
// exist; numeric values follow the printed rank for the pip cards.
type Rank int

const (
	Seven Rank = iota + 7
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Ranks lists all eight ranks in ascending printed order.
var Ranks = []Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card represents a playing card. Identity is by (rank, suit); values are
// immutable and safe to copy.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the display representation of a card (e.g., "J♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Code returns the wire representation of a card (e.g., "JS", "10H")
func (c Card) Code() string {
	return c.Rank.String() + c.Suit.Code()
}

// ParseCard parses a wire code such as "JS" or "10H" into a Card.
func ParseCard(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return Card{}, fmt.Errorf("card code too short: %q", code)
	}

	suitCode := code[len(code)-1:]
	rankCode := code[:len(code)-1]

	var suit Suit
	switch suitCode {
	case "C":
		suit = Clubs
	case "D":
		suit = Diamonds
	case "H":
		suit = Hearts
	case "S":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("unknown suit code %q in %q", suitCode, code)
	}

	var rank Rank
	switch rankCode {
	case "7":
		rank = Seven
	case "8":
		rank = Eight
	case "9":
		rank = Nine
	case "10", "T":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		return Card{}, fmt.Errorf("unknown rank code %q in %q", rankCode, code)
	}

	return Card{Suit: suit, Rank: rank}, nil
}

// MarshalJSON encodes the card as its wire code.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.Code() + `"`), nil
}

// UnmarshalJSON decodes a card from its wire code.
func (c *Card) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseCard(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TeamOf returns the team index for a seat: seats 0 and 2 form team 0,
// seats 1 and 3 form team 1.
func TeamOf(seat int) int {
	return seat % 2
}

// PartnerOf returns the partner seat, always two seats apart.
func PartnerOf(seat int) int {
	return (seat + 2) % NumSeats
}

// NextSeat returns the seat one position clockwise.
func NextSeat(seat int) int {
	return (seat + 1) % NumSeats
}
