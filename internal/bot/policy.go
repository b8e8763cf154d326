// Package bot fills seats with automated players. A pure policy picks
// auction and card actions from the information a seated player would
// see, and a Driver schedules those actions on the game clock so bots
// act with a human-feeling delay. The same driver also enforces turn
// timeouts for human seats.
package bot

import (
	"github.com/ngoudry/coinche/belote"
)

// highRanks are the ranks that count toward opening an auction.
var highRanks = map[belote.Rank]bool{
	belote.Ace:  true,
	belote.Ten:  true,
	belote.King: true,
	belote.Jack: true,
}

// ChooseBid decides one auction action for a bot holding hand. The
// policy is deliberately timid: it never overcalls, doubles, or
// redoubles. With no standing bid, at least four high cards in hand,
// and roll under openProbability it opens at openValue on the trump
// suit selected by suitRoll; otherwise it passes. Both rolls are drawn
// from [0,1). ok reports whether a bid should be placed.
func ChooseBid(hand []belote.Card, current *belote.Bid, roll, suitRoll, openProbability float64, openValue int) (kind belote.ContractKind, value int, ok bool) {
	if current != nil {
		return 0, 0, false
	}
	high := 0
	for _, card := range hand {
		if highRanks[card.Rank] {
			high++
		}
	}
	if high < 4 || roll >= openProbability {
		return 0, 0, false
	}
	suit := belote.Suits[min(int(suitRoll*float64(len(belote.Suits))), len(belote.Suits)-1)]
	return belote.KindOfSuit(suit), openValue, true
}

// ChooseCard picks one of the legal cards for the seat to play. Leading,
// it plays the strongest card of its richest suit. Behind a trick its
// partner is winning it throws its cheapest card; behind an opposing
// winner it plays its strongest legal card, which trumps or overtakes
// whenever the legality rules already forced that.
func ChooseCard(legal []belote.Card, trick []belote.Play, c belote.Contract, seat int) belote.Card {
	if len(legal) == 0 {
		return belote.Card{}
	}
	if len(trick) == 0 {
		return leadCard(legal, c)
	}
	if winning, ok := belote.WinningPlay(trick, c); ok && belote.TeamOf(winning.Seat) == belote.TeamOf(seat) {
		return cheapestCard(legal, c)
	}
	return strongestCard(legal, c)
}

// leadCard opens a trick with the strongest card of the suit holding the
// most points among the legal cards.
func leadCard(legal []belote.Card, c belote.Contract) belote.Card {
	points := make(map[belote.Suit]int)
	for _, card := range legal {
		points[card.Suit] += belote.Points(card, c)
	}
	best := legal[0]
	for _, card := range legal[1:] {
		switch {
		case points[card.Suit] > points[best.Suit]:
			best = card
		case card.Suit == best.Suit && belote.Strength(card, c) > belote.Strength(best, c):
			best = card
		}
	}
	return best
}

func cheapestCard(legal []belote.Card, c belote.Contract) belote.Card {
	best := legal[0]
	for _, card := range legal[1:] {
		switch {
		case belote.Points(card, c) < belote.Points(best, c):
			best = card
		case belote.Points(card, c) == belote.Points(best, c) && belote.Strength(card, c) < belote.Strength(best, c):
			best = card
		}
	}
	return best
}

func strongestCard(legal []belote.Card, c belote.Contract) belote.Card {
	best := legal[0]
	for _, card := range legal[1:] {
		if belote.Strength(card, c) > belote.Strength(best, c) {
			best = card
		}
	}
	return best
}
