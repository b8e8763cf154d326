package game

import (
	"time"

	"github.com/ngoudry/coinche/belote"
)

// Snapshot is the public projection of a game. It is built from public
// knowledge only, never by filtering private state, so it can be handed to
// any client or spectator as-is.
type Snapshot struct {
	GameID           string         `json:"gameId"`
	RoomID           string         `json:"roomId"`
	Status           Phase          `json:"status"`
	RoundNumber      int            `json:"roundNumber"`
	Dealer           int            `json:"dealer"`
	TurnSeat         int            `json:"turnSeat"`
	TurnID           string         `json:"turnId"`
	TurnOrder        []string       `json:"turnOrder"`
	StateVersion     uint64         `json:"stateVersion"`
	CumulativeScore  [2]int         `json:"cumulativeScore"`
	Contracts        []ContractView `json:"contracts"`
	Bidding          *AuctionView   `json:"bidding,omitempty"`
	PublicContainers ContainerView  `json:"publicContainers"`
	WinnerTeam       *int           `json:"winnerTeam,omitempty"`
	CancelReason     string         `json:"cancelReason,omitempty"`
	LastUpdatedAt    time.Time      `json:"lastUpdatedAt"`
}

// ContractView is a finalized contract in the snapshot's contract history.
// The round in progress appears here as soon as its contract is finalized.
type ContractView struct {
	RoundNumber int `json:"roundNumber"`
	belote.Contract
}

// AuctionView is the public bidding state while the auction runs.
type AuctionView struct {
	CurrentBid        *belote.Bid    `json:"currentBid,omitempty"`
	ConsecutivePasses int            `json:"consecutivePasses"`
	History           []AuctionEntry `json:"history"`
}

// ContainerView exposes the public card containers. Hand contents and
// per-seat counts stay private.
type ContainerView struct {
	DrawPileCount     int           `json:"drawPileCount"`
	CurrentTrick      []belote.Play `json:"currentTrick"`
	TrickHistoryCount int           `json:"trickHistoryCount"`
}

// HandView is a seat's private hand, visible to its owner only.
type HandView struct {
	SeatIdentity  string        `json:"seatIdentity"`
	GameID        string        `json:"gameId"`
	Seat          int           `json:"seat"`
	Cards         []belote.Card `json:"cards"`
	HandVersion   uint64        `json:"handVersion"`
	LastUpdatedAt time.Time     `json:"lastUpdatedAt"`
}

// Snapshot returns the current public projection.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() Snapshot {
	turn := g.turnInfoLocked()

	order := make([]string, belote.NumSeats)
	for seat, info := range g.seats {
		order[seat] = info.Identity
	}

	contracts := make([]ContractView, 0, len(g.rounds)+1)
	for _, round := range g.rounds {
		contracts = append(contracts, ContractView{RoundNumber: round.RoundNumber, Contract: round.Contract})
	}
	if g.contract != nil {
		contracts = append(contracts, ContractView{RoundNumber: g.roundNumber, Contract: *g.contract})
	}

	var bidding *AuctionView
	if g.bidding != nil {
		view := AuctionView{
			ConsecutivePasses: g.bidding.passes,
			History:           append([]AuctionEntry(nil), g.bidding.history...),
		}
		if g.bidding.currentBid != nil {
			bid := *g.bidding.currentBid
			view.CurrentBid = &bid
		}
		bidding = &view
	}

	// The whole deck is dealt at the start of a round, so the draw pile
	// is empty whenever a round is live.
	drawPile := belote.DeckSize
	if g.phase == PhaseBidding || g.phase == PhasePlaying {
		drawPile = 0
	}

	var winner *int
	if g.winnerTeam != nil {
		team := *g.winnerTeam
		winner = &team
	}

	return Snapshot{
		GameID:          g.id,
		RoomID:          g.roomID,
		Status:          g.phase,
		RoundNumber:     g.roundNumber,
		Dealer:          g.dealer,
		TurnSeat:        turn.Seat,
		TurnID:          turn.TurnID,
		TurnOrder:       order,
		StateVersion:    g.stateVersion,
		CumulativeScore: g.cumulative,
		Contracts:       contracts,
		Bidding:         bidding,
		PublicContainers: ContainerView{
			DrawPileCount:     drawPile,
			CurrentTrick:      append([]belote.Play(nil), g.currentTrick...),
			TrickHistoryCount: len(g.tricks),
		},
		WinnerTeam:    winner,
		CancelReason:  g.cancelReason,
		LastUpdatedAt: g.lastUpdated,
	}
}
