package belote

import (
	"encoding/json"
	"testing"
)

func TestParseCard(t *testing.T) {
	cases := []struct {
		code string
		want Card
	}{
		{"JS", Card{Spades, Jack}},
		{"10H", Card{Hearts, Ten}},
		{"TH", Card{Hearts, Ten}},
		{"7C", Card{Clubs, Seven}},
		{"AD", Card{Diamonds, Ace}},
		{"qd", Card{Diamonds, Queen}},
		{" KS ", Card{Spades, King}},
	}

	for _, tc := range cases {
		got, err := ParseCard(tc.code)
		if err != nil {
			t.Errorf("ParseCard(%q) returned error: %v", tc.code, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCard(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestParseCardRejectsGarbage(t *testing.T) {
	for _, code := range []string{"", "J", "JX", "1S", "11H", "JSX"} {
		if _, err := ParseCard(code); err == nil {
			t.Errorf("ParseCard(%q) should have failed", code)
		}
	}
}

func TestCardCodeRoundTrip(t *testing.T) {
	for _, suit := range Suits {
		for _, rank := range Ranks {
			card := NewCard(suit, rank)
			parsed, err := ParseCard(card.Code())
			if err != nil {
				t.Fatalf("ParseCard(%q) returned error: %v", card.Code(), err)
			}
			if parsed != card {
				t.Errorf("round trip of %v via %q gave %v", card, card.Code(), parsed)
			}
		}
	}
}

func TestCardJSON(t *testing.T) {
	card := Card{Spades, Jack}
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"JS"` {
		t.Errorf("expected \"JS\", got %s", data)
	}

	var decoded Card
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != card {
		t.Errorf("expected %v after round trip, got %v", card, decoded)
	}

	if err := json.Unmarshal([]byte(`"ZZ"`), &decoded); err == nil {
		t.Error("unmarshal of invalid code should fail")
	}
}

func TestSeatHelpers(t *testing.T) {
	// Seats 0 and 2 are one team, 1 and 3 the other, partners two apart.
	if TeamOf(0) != TeamOf(2) || TeamOf(1) != TeamOf(3) {
		t.Error("partners must share a team")
	}
	if TeamOf(0) == TeamOf(1) {
		t.Error("adjacent seats must be opponents")
	}
	for seat := 0; seat < NumSeats; seat++ {
		if PartnerOf(PartnerOf(seat)) != seat {
			t.Errorf("partner of partner of %d should be %d", seat, seat)
		}
		if NextSeat(seat) != (seat+1)%4 {
			t.Errorf("NextSeat(%d) = %d", seat, NextSeat(seat))
		}
	}
}
