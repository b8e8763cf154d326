package belote

import "fmt"

// ValidateBid checks a new bid against the standing bid. A nil prev means
// the auction is open. The returned slice lists every violated rule; an
// empty slice means the bid is legal.
func ValidateBid(prev *Bid, next Bid) []string {
	var violations []string
	if next.Value < MinBid {
		violations = append(violations, fmt.Sprintf("bid value must be at least %d, got %d", MinBid, next.Value))
	}
	if prev != nil && !next.Dominates(*prev) {
		violations = append(violations,
			fmt.Sprintf("bid %s %d does not beat standing bid %s %d",
				next.Kind, next.Value, prev.Kind, prev.Value))
	}
	return violations
}

// ValidateCoinche checks a coinche (double) call. There must be a live bid,
// not already doubled, and the caller must sit on the team opposing the
// bidder.
func ValidateCoinche(current *Bid, doubled bool, callerSeat int) []string {
	var violations []string
	if current == nil {
		return append(violations, "no standing bid to double")
	}
	if doubled {
		violations = append(violations, "bid is already doubled")
	}
	if TeamOf(callerSeat) == TeamOf(current.Seat) {
		violations = append(violations, "cannot double your own team's bid")
	}
	return violations
}

// ValidateSurcoinche checks a surcoinche (redouble) call. The bid must be
// doubled, not yet redoubled, and the caller must sit on the declaring
// team.
func ValidateSurcoinche(current *Bid, doubled, redoubled bool, callerSeat int) []string {
	var violations []string
	if current == nil {
		return append(violations, "no standing bid to redouble")
	}
	if !doubled {
		violations = append(violations, "bid has not been doubled")
	}
	if redoubled {
		violations = append(violations, "bid is already redoubled")
	}
	if TeamOf(callerSeat) != TeamOf(current.Seat) {
		violations = append(violations, "only the declaring team may redouble")
	}
	return violations
}
