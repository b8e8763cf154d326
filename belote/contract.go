package belote

import (
	"encoding/json"
	"fmt"
)

// MinBid is the lowest value a contract may be bid at.
const MinBid = 80

// ContractKind identifies what is trump for a round. The declared order is
// the priority order used to compare equal-value bids, lowest first.
type ContractKind int

const (
	KindClubs ContractKind = iota
	KindDiamonds
	KindHearts
	KindSpades
	KindNoTrump
	KindAllTrump
)

// String returns the wire name of the contract kind
func (k ContractKind) String() string {
	switch k {
	case KindClubs:
		return "clubs"
	case KindDiamonds:
		return "diamonds"
	case KindHearts:
		return "hearts"
	case KindSpades:
		return "spades"
	case KindNoTrump:
		return "no-trump"
	case KindAllTrump:
		return "all-trump"
	default:
		return "unknown"
	}
}

// ParseContractKind parses a wire name into a ContractKind.
func ParseContractKind(s string) (ContractKind, error) {
	switch s {
	case "clubs":
		return KindClubs, nil
	case "diamonds":
		return KindDiamonds, nil
	case "hearts":
		return KindHearts, nil
	case "spades":
		return KindSpades, nil
	case "no-trump":
		return KindNoTrump, nil
	case "all-trump":
		return KindAllTrump, nil
	default:
		return 0, fmt.Errorf("unknown contract kind %q", s)
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k ContractKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the kind from its wire name.
func (k *ContractKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseContractKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindOfSuit returns the contract kind naming the given suit as trump.
func KindOfSuit(s Suit) ContractKind {
	switch s {
	case Clubs:
		return KindClubs
	case Diamonds:
		return KindDiamonds
	case Hearts:
		return KindHearts
	default:
		return KindSpades
	}
}

// TrumpSuit returns the trump suit for the four suit kinds. The second
// return is false for no-trump and all-trump.
func (k ContractKind) TrumpSuit() (Suit, bool) {
	switch k {
	case KindClubs:
		return Clubs, true
	case KindDiamonds:
		return Diamonds, true
	case KindHearts:
		return Hearts, true
	case KindSpades:
		return Spades, true
	default:
		return 0, false
	}
}

// Priority returns the comparison priority of the kind; higher outranks
// lower at equal bid value.
func (k ContractKind) Priority() int {
	return int(k)
}

// Bid is a single bid in the auction.
type Bid struct {
	Seat  int          `json:"seat"`
	Kind  ContractKind `json:"kind"`
	Value int          `json:"value"`
}

// Dominates reports whether b strictly dominates prev: a higher value, or
// the same value with a higher-priority kind.
func (b Bid) Dominates(prev Bid) bool {
	if b.Value != prev.Value {
		return b.Value > prev.Value
	}
	return b.Kind.Priority() > prev.Kind.Priority()
}

// Contract is a resolved auction: the winning bid plus double state and the
// declaring team.
type Contract struct {
	Kind      ContractKind `json:"kind"`
	Value     int          `json:"value"`
	Team      int          `json:"team"`
	Doubled   bool         `json:"doubled"`
	Redoubled bool         `json:"redoubled"`
}

// Multiplier returns the stake multiplier: 4 when redoubled, 2 when
// doubled, 1 otherwise.
func (c Contract) Multiplier() int {
	switch {
	case c.Redoubled:
		return 4
	case c.Doubled:
		return 2
	default:
		return 1
	}
}

// DefenderTeam returns the team opposing the declarer.
func (c Contract) DefenderTeam() int {
	return 1 - c.Team
}

// effectiveTrump resolves what counts as trump for a trick given the led
// suit: the contract suit for suit kinds, the led suit under all-trump, and
// nothing under no-trump.
func effectiveTrump(c Contract, led Suit) (Suit, bool) {
	switch c.Kind {
	case KindAllTrump:
		return led, true
	case KindNoTrump:
		return 0, false
	default:
		return c.Kind.TrumpSuit()
	}
}
