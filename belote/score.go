package belote

// DixDeDer is the bonus for winning the last trick of a round.
const DixDeDer = 10

// CapotDeclarer and CapotDefender are the round totals awarded for taking
// all eight tricks, depending on which side did it.
const (
	CapotDeclarer = 250
	CapotDefender = 500
)

// BeloteBonus is awarded to a seat's team for playing both the king and
// queen of trump.
const BeloteBonus = 20

// BeloteAward records who earned Belote/Rebelote and in which suit.
type BeloteAward struct {
	Seat int  `json:"seat"`
	Team int  `json:"team"`
	Suit Suit `json:"suit"`
}

// RoundResult is the outcome of scoring one finished round.
type RoundResult struct {
	// CardPoints is each team's raw trick-point total including the
	// dix-de-der, before belote, capot, and multipliers.
	CardPoints [2]int `json:"cardPoints"`
	// DerTeam is the team that won the last trick.
	DerTeam int `json:"derTeam"`
	// Belote is set when a single seat played both the king and queen of
	// a trump suit.
	Belote *BeloteAward `json:"belote,omitempty"`
	// CapotTeam is set when one team took all eight tricks.
	CapotTeam *int `json:"capotTeam,omitempty"`
	// Fulfilled reports whether the declarer reached the contract value.
	Fulfilled bool `json:"fulfilled"`
	// Multiplier is 1, 2 (coinche) or 4 (surcoinche).
	Multiplier int `json:"multiplier"`
	// Totals is each team's awarded score after every step, rounded to
	// the nearest ten.
	Totals [2]int `json:"totals"`
}

// ScoreRound runs the full scoring pipeline over a round's eight completed
// tricks: trick points, dix-de-der, belote, capot, fulfilment, multiplier,
// rounding. The steps apply strictly in that order.
func ScoreRound(tricks []CompletedTrick, c Contract) RoundResult {
	result := RoundResult{Multiplier: c.Multiplier()}

	// Raw trick points per team, and the total across both teams for the
	// failed-contract formula.
	allTrickPoints := 0
	for _, trick := range tricks {
		result.CardPoints[TeamOf(trick.Winner)] += trick.Points
		allTrickPoints += trick.Points
	}

	// Dix-de-der to the winner of the last trick.
	result.DerTeam = TeamOf(tricks[len(tricks)-1].Winner)
	result.CardPoints[result.DerTeam] += DixDeDer

	totals := result.CardPoints

	// Belote/Rebelote: one seat played both K and Q of trump.
	if award := detectBelote(tricks, c); award != nil {
		result.Belote = award
		totals[award.Team] += BeloteBonus
	}

	// Capot overwrites both totals.
	if capotTeam, ok := detectCapot(tricks); ok {
		result.CapotTeam = &capotTeam
		if capotTeam == c.Team {
			totals[capotTeam] = CapotDeclarer
		} else {
			totals[capotTeam] = CapotDefender
		}
		totals[1-capotTeam] = 0
	}

	// Fulfilment: the declarer's total must reach the contract value. In
	// a capot round the capot totals stand as computed; otherwise failure
	// hands the defenders 160 plus every card point in the round plus
	// the dix-de-der.
	result.Fulfilled = totals[c.Team] >= c.Value
	if !result.Fulfilled && result.CapotTeam == nil {
		totals[c.Team] = 0
		totals[c.DefenderTeam()] = 160 + allTrickPoints + DixDeDer
	}

	// Doubling applies to both teams, after the fulfilment reassignment.
	totals[0] *= result.Multiplier
	totals[1] *= result.Multiplier

	result.Totals[0] = roundToTen(totals[0])
	result.Totals[1] = roundToTen(totals[1])
	return result
}

// GameOver reports whether a team has won: its cumulative score reaches the
// target and strictly exceeds the other team's. Equal scores keep the game
// going even when both are past the target.
func GameOver(cumulative [2]int, target int) (winner int, over bool) {
	switch {
	case cumulative[0] >= target && cumulative[0] > cumulative[1]:
		return 0, true
	case cumulative[1] >= target && cumulative[1] > cumulative[0]:
		return 1, true
	default:
		return 0, false
	}
}

// roundToTen rounds to the nearest multiple of ten, halves up.
func roundToTen(v int) int {
	return (v + 5) / 10 * 10
}

// detectBelote scans the round's plays for a seat that played both the king
// and queen of a trump suit. No-trump rounds have no belote; under
// all-trump any suit qualifies but both cards must come from one seat in
// one suit.
func detectBelote(tricks []CompletedTrick, c Contract) *BeloteAward {
	if c.Kind == KindNoTrump {
		return nil
	}

	type kq struct {
		king, queen bool
	}
	played := make(map[int]map[Suit]*kq)

	for _, trick := range tricks {
		for _, play := range trick.Plays {
			if !IsTrumpSuit(play.Card.Suit, c) {
				continue
			}
			if play.Card.Rank != King && play.Card.Rank != Queen {
				continue
			}
			bySuit, ok := played[play.Seat]
			if !ok {
				bySuit = make(map[Suit]*kq)
				played[play.Seat] = bySuit
			}
			entry, ok := bySuit[play.Card.Suit]
			if !ok {
				entry = &kq{}
				bySuit[play.Card.Suit] = entry
			}
			if play.Card.Rank == King {
				entry.king = true
			} else {
				entry.queen = true
			}
		}
	}

	for seat := 0; seat < NumSeats; seat++ {
		for _, suit := range Suits {
			if entry, ok := played[seat][suit]; ok && entry.king && entry.queen {
				return &BeloteAward{Seat: seat, Team: TeamOf(seat), Suit: suit}
			}
		}
	}
	return nil
}

// detectCapot reports the team that won every trick, if any.
func detectCapot(tricks []CompletedTrick) (int, bool) {
	if len(tricks) == 0 {
		return 0, false
	}
	team := TeamOf(tricks[0].Winner)
	for _, trick := range tricks[1:] {
		if TeamOf(trick.Winner) != team {
			return 0, false
		}
	}
	return team, true
}
