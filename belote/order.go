package belote

// Card strength and point tables. Strength is within-suit only: a higher
// strength wins against a lower one when both cards count as the same kind
// (trump against trump, plain against plain in the led suit).

var trumpStrength = map[Rank]int{
	Jack:  8,
	Nine:  7,
	Ace:   6,
	Ten:   5,
	King:  4,
	Queen: 3,
	Eight: 2,
	Seven: 1,
}

var plainStrength = map[Rank]int{
	Ace:   8,
	Ten:   7,
	King:  6,
	Queen: 5,
	Jack:  4,
	Nine:  3,
	Eight: 2,
	Seven: 1,
}

var trumpPoints = map[Rank]int{
	Jack:  20,
	Nine:  14,
	Ace:   11,
	Ten:   10,
	King:  4,
	Queen: 3,
	Eight: 0,
	Seven: 0,
}

var plainPoints = map[Rank]int{
	Ace:   11,
	Ten:   10,
	King:  4,
	Queen: 3,
	Jack:  2,
	Nine:  0,
	Eight: 0,
	Seven: 0,
}

// IsTrumpSuit reports whether cards of the given suit use the trump tables
// under the contract. Under all-trump every suit is trump; under no-trump
// none is.
func IsTrumpSuit(s Suit, c Contract) bool {
	switch c.Kind {
	case KindAllTrump:
		return true
	case KindNoTrump:
		return false
	default:
		trump, _ := c.Kind.TrumpSuit()
		return s == trump
	}
}

// Strength returns the within-suit strength of a card under the contract,
// 8 for the strongest rank down to 1.
func Strength(card Card, c Contract) int {
	if IsTrumpSuit(card.Suit, c) {
		return trumpStrength[card.Rank]
	}
	return plainStrength[card.Rank]
}

// Points returns the point value of a card under the contract.
func Points(card Card, c Contract) int {
	if IsTrumpSuit(card.Suit, c) {
		return trumpPoints[card.Rank]
	}
	return plainPoints[card.Rank]
}

// BasePoints is the card-point total of a full round under the contract,
// not counting the dix-de-der: 152 for suit contracts, 248 under all-trump,
// 120 under no-trump.
func BasePoints(c Contract) int {
	switch c.Kind {
	case KindAllTrump:
		return 62 * 4
	case KindNoTrump:
		return 30 * 4
	default:
		return 62 + 30*3
	}
}
