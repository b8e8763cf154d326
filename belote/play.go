package belote

import "fmt"

// Play is one card laid into a trick by a seat.
type Play struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// CompletedTrick is a finished trick with its resolved winner and point
// total under the round's contract.
type CompletedTrick struct {
	Plays  []Play `json:"plays"`
	Winner int    `json:"winner"`
	Points int    `json:"points"`
}

// LegalPlays returns every card the seat may legally play from its hand
// onto the trick in progress. The follow-suit, overtrump, forced-trump and
// partner-winning rules all apply; an empty trick allows any card.
func LegalPlays(seat int, hand []Card, trick []Play, c Contract) []Card {
	if len(trick) == 0 {
		return append([]Card(nil), hand...)
	}

	led := trick[0].Card.Suit
	trump, hasTrump := effectiveTrump(c, led)

	ofLed := cardsOfSuit(hand, led)
	if len(ofLed) > 0 {
		// Must follow suit. When the led suit is trump, the overtrump
		// obligation applies within it.
		if hasTrump && led == trump {
			if beating := beatingTrumps(ofLed, trick, trump); len(beating) > 0 {
				return beating
			}
		}
		return ofLed
	}

	// Void in the led suit. A seat whose partner holds the trick may
	// discard freely.
	if winner, ok := WinningPlay(trick, c); ok && winner.Seat == PartnerOf(seat) {
		return append([]Card(nil), hand...)
	}

	if hasTrump {
		if trumps := cardsOfSuit(hand, trump); len(trumps) > 0 {
			// Must trump, and must overtrump when the trick already
			// holds a beatable trump.
			if beating := beatingTrumps(trumps, trick, trump); len(beating) > 0 {
				return beating
			}
			return trumps
		}
	}

	return append([]Card(nil), hand...)
}

// ValidatePlay checks one candidate card against the legal set. The
// returned slice lists every violated rule; empty means legal.
func ValidatePlay(seat int, card Card, hand []Card, trick []Play, c Contract) []string {
	if !containsCard(hand, card) {
		return []string{fmt.Sprintf("card %s is not in hand", card)}
	}

	legal := LegalPlays(seat, hand, trick, c)
	if containsCard(legal, card) {
		return nil
	}
	if len(trick) == 0 {
		return nil
	}

	led := trick[0].Card.Suit
	trump, hasTrump := effectiveTrump(c, led)

	var violations []string
	switch {
	case len(cardsOfSuit(hand, led)) > 0 && card.Suit != led:
		violations = append(violations, fmt.Sprintf("must follow %s", led))
	case hasTrump && card.Suit != trump && len(cardsOfSuit(hand, trump)) > 0:
		violations = append(violations, fmt.Sprintf("must play trump %s", trump))
	default:
		violations = append(violations, "must overtrump")
	}
	return violations
}

// WinningPlay returns the play currently holding the trick. ok is false for
// an empty trick.
func WinningPlay(trick []Play, c Contract) (Play, bool) {
	if len(trick) == 0 {
		return Play{}, false
	}

	led := trick[0].Card.Suit
	trump, hasTrump := effectiveTrump(c, led)

	best := trick[0]
	for _, p := range trick[1:] {
		if beats(p.Card, best.Card, led, trump, hasTrump) {
			best = p
		}
	}
	return best, true
}

// TrickWinner returns the seat that takes a complete trick.
func TrickWinner(trick []Play, c Contract) int {
	winner, _ := WinningPlay(trick, c)
	return winner.Seat
}

// TrickPoints sums the card points of a trick under the contract.
func TrickPoints(trick []Play, c Contract) int {
	total := 0
	for _, p := range trick {
		total += Points(p.Card, c)
	}
	return total
}

// beats reports whether the challenger takes the trick from the current
// best card, given the led suit and effective trump.
func beats(challenger, best Card, led, trump Suit, hasTrump bool) bool {
	challengerTrump := hasTrump && challenger.Suit == trump
	bestTrump := hasTrump && best.Suit == trump

	switch {
	case challengerTrump && !bestTrump:
		return true
	case !challengerTrump && bestTrump:
		return false
	case challengerTrump && bestTrump:
		return trumpStrength[challenger.Rank] > trumpStrength[best.Rank]
	case challenger.Suit != best.Suit:
		// An off-suit discard never wins.
		return false
	default:
		return plainStrength[challenger.Rank] > plainStrength[best.Rank]
	}
}

// beatingTrumps filters candidates down to trumps that beat the highest
// trump already in the trick. With no trump in the trick every candidate
// qualifies.
func beatingTrumps(candidates []Card, trick []Play, trump Suit) []Card {
	bestStrength := 0
	for _, p := range trick {
		if p.Card.Suit == trump && trumpStrength[p.Card.Rank] > bestStrength {
			bestStrength = trumpStrength[p.Card.Rank]
		}
	}
	if bestStrength == 0 {
		return candidates
	}

	var beating []Card
	for _, card := range candidates {
		if trumpStrength[card.Rank] > bestStrength {
			beating = append(beating, card)
		}
	}
	return beating
}

func cardsOfSuit(cards []Card, suit Suit) []Card {
	var matched []Card
	for _, card := range cards {
		if card.Suit == suit {
			matched = append(matched, card)
		}
	}
	return matched
}

func containsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}
