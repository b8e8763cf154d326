package belote

import "testing"

func TestFirstBidMinimum(t *testing.T) {
	// 79 is below the floor, 80 is the first legal value.
	if v := ValidateBid(nil, Bid{Seat: 0, Kind: KindSpades, Value: 79}); len(v) == 0 {
		t.Error("expected a violation for a 79 opening bid")
	}
	if v := ValidateBid(nil, Bid{Seat: 0, Kind: KindSpades, Value: 80}); len(v) != 0 {
		t.Errorf("80 opening bid should be legal, got %v", v)
	}
}

func TestBidDominance(t *testing.T) {
	standing := Bid{Seat: 0, Kind: KindHearts, Value: 90}

	cases := []struct {
		name  string
		next  Bid
		legal bool
	}{
		{"higher value lower priority", Bid{Seat: 1, Kind: KindClubs, Value: 100}, true},
		{"same value higher priority", Bid{Seat: 1, Kind: KindSpades, Value: 90}, true},
		{"same value no-trump", Bid{Seat: 1, Kind: KindNoTrump, Value: 90}, true},
		{"same value all-trump", Bid{Seat: 1, Kind: KindAllTrump, Value: 90}, true},
		{"same value lower priority", Bid{Seat: 1, Kind: KindDiamonds, Value: 90}, false},
		{"same value same kind", Bid{Seat: 1, Kind: KindHearts, Value: 90}, false},
		{"lower value higher priority", Bid{Seat: 1, Kind: KindAllTrump, Value: 80}, false},
	}

	for _, tc := range cases {
		violations := ValidateBid(&standing, tc.next)
		if tc.legal && len(violations) != 0 {
			t.Errorf("%s: expected legal, got %v", tc.name, violations)
		}
		if !tc.legal && len(violations) == 0 {
			t.Errorf("%s: expected a violation", tc.name)
		}
	}
}

func TestContractKindPriorityOrder(t *testing.T) {
	// clubs < diamonds < hearts < spades < no-trump < all-trump
	order := []ContractKind{KindClubs, KindDiamonds, KindHearts, KindSpades, KindNoTrump, KindAllTrump}
	for i := 1; i < len(order); i++ {
		if order[i].Priority() <= order[i-1].Priority() {
			t.Errorf("%s should outrank %s", order[i], order[i-1])
		}
	}
}

func TestValidateCoinche(t *testing.T) {
	bid := Bid{Seat: 0, Kind: KindSpades, Value: 80}

	if v := ValidateCoinche(&bid, false, 1); len(v) != 0 {
		t.Errorf("opponent coinche should be legal, got %v", v)
	}
	if v := ValidateCoinche(&bid, false, 2); len(v) == 0 {
		t.Error("partner of the bidder must not coinche")
	}
	if v := ValidateCoinche(&bid, true, 1); len(v) == 0 {
		t.Error("coinche on an already doubled bid must fail")
	}
	if v := ValidateCoinche(nil, false, 1); len(v) == 0 {
		t.Error("coinche without a standing bid must fail")
	}
}

func TestValidateSurcoinche(t *testing.T) {
	bid := Bid{Seat: 0, Kind: KindSpades, Value: 80}

	if v := ValidateSurcoinche(&bid, true, false, 2); len(v) != 0 {
		t.Errorf("declarer-team surcoinche of a doubled bid should be legal, got %v", v)
	}
	if v := ValidateSurcoinche(&bid, true, false, 0); len(v) != 0 {
		t.Errorf("the bidder may surcoinche, got %v", v)
	}
	if v := ValidateSurcoinche(&bid, false, false, 2); len(v) == 0 {
		t.Error("surcoinche before a coinche must fail")
	}
	if v := ValidateSurcoinche(&bid, true, true, 2); len(v) == 0 {
		t.Error("surcoinche of an already redoubled bid must fail")
	}
	if v := ValidateSurcoinche(&bid, true, false, 1); len(v) == 0 {
		t.Error("defender surcoinche must fail")
	}
}

func TestContractMultiplier(t *testing.T) {
	c := Contract{Kind: KindSpades, Value: 80, Team: 0}
	if c.Multiplier() != 1 {
		t.Errorf("plain contract multiplier should be 1, got %d", c.Multiplier())
	}
	c.Doubled = true
	if c.Multiplier() != 2 {
		t.Errorf("doubled contract multiplier should be 2, got %d", c.Multiplier())
	}
	c.Redoubled = true
	if c.Multiplier() != 4 {
		t.Errorf("redoubled contract multiplier should be 4, got %d", c.Multiplier())
	}
}
