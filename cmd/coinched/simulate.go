package main

import (
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ngoudry/coinche/belote"
	"github.com/ngoudry/coinche/cmd/coinched/shared"
	"github.com/ngoudry/coinche/internal/bot"
	"github.com/ngoudry/coinche/internal/game"
	"github.com/ngoudry/coinche/internal/randutil"
)

// SimulateCmd plays bot-only games at full speed and reports outcomes.
// Every finished game's event log is replayed and checked against the
// final score.
type SimulateCmd struct {
	Games           int     `kong:"default='10',help='Number of games to run'"`
	Target          int     `kong:"default='1000',help='Target score ending a game'"`
	Concurrency     int     `kong:"default='4',help='Games run in parallel'"`
	OpenProbability float64 `kong:"default='0.8',help='Chance a bot opens the bidding on a strong hand'"`
	Seed            int64   `kong:"default='0',help='RNG seed (0 for random)'"`
	Verbose         bool    `kong:"help='Log every finished game'"`
}

type simResult struct {
	gameID   string
	rounds   int
	scores   [2]int
	winner   int
	events   int
	duration time.Duration
}

func (c *SimulateCmd) Run() error {
	if c.Games <= 0 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}

	level := zerolog.WarnLevel
	if c.Verbose {
		level = zerolog.InfoLevel
	}
	logger := shared.SetupLogger(level)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fmt.Printf("Simulating %d games to %d points (seed %d)\n\n", c.Games, c.Target, seed)

	// Bots act without delay; one driver serves every game.
	clock := quartz.NewReal()
	driver := bot.NewDriver(clock, randutil.New(seed), bot.Config{
		OpenProbability: c.OpenProbability,
		OpenValue:       belote.MinBid,
	}, logger)

	var group errgroup.Group
	group.SetLimit(c.Concurrency)
	results := make(chan simResult, c.Games)

	start := time.Now()
	for i := 0; i < c.Games; i++ {
		index := i
		group.Go(func() error {
			res, err := c.runGame(index, seed+int64(index+1), driver, clock, logger)
			if err != nil {
				return err
			}
			results <- res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	close(results)
	elapsed := time.Since(start)

	var wins [2]int
	draws := 0
	totalRounds, totalEvents := 0, 0
	minRounds, maxRounds := -1, 0
	for res := range results {
		if res.winner >= 0 {
			wins[res.winner]++
		} else {
			draws++
		}
		totalRounds += res.rounds
		totalEvents += res.events
		if minRounds < 0 || res.rounds < minRounds {
			minRounds = res.rounds
		}
		if res.rounds > maxRounds {
			maxRounds = res.rounds
		}
	}

	fmt.Printf("Completed %d games in %v (%.1f games/sec)\n", c.Games, elapsed.Round(time.Millisecond), float64(c.Games)/elapsed.Seconds())
	fmt.Printf("Team wins: %d - %d", wins[0], wins[1])
	if draws > 0 {
		fmt.Printf(" (%d without a winner)", draws)
	}
	fmt.Println()
	fmt.Printf("Rounds per game: min %d, avg %.1f, max %d\n", minRounds, float64(totalRounds)/float64(c.Games), maxRounds)
	fmt.Printf("Events per game: avg %.0f\n", float64(totalEvents)/float64(c.Games))
	fmt.Println("Every event log replays to the recorded totals")
	return nil
}

// runGame drives one game to completion through the bot driver and
// cross-checks the event log against the final state.
func (c *SimulateCmd) runGame(index int, seed int64, driver *bot.Driver, clock quartz.Clock, logger zerolog.Logger) (simResult, error) {
	var seats [belote.NumSeats]game.SeatInfo
	for s := range seats {
		seats[s] = game.SeatInfo{
			Identity:    fmt.Sprintf("bot-%d", s+1),
			DisplayName: fmt.Sprintf("Bot %d", s+1),
			IsBot:       true,
		}
	}

	id := fmt.Sprintf("sim-%03d", index+1)
	g := game.New(id, "simulation", seats,
		game.WithClock(clock),
		game.WithRNG(randutil.New(seed)),
		game.WithTargetScore(c.Target),
		game.WithLogger(logger),
	)

	begin := time.Now()
	driver.Attach(g, 0)
	defer driver.Detach(id)

	if _, err := g.StartRound(); err != nil {
		return simResult{}, fmt.Errorf("game %s: %w", id, err)
	}
	<-g.Done()

	snap := g.Snapshot()
	log := g.ListEvents("")
	summary, err := game.Replay(log)
	if err != nil {
		return simResult{}, fmt.Errorf("game %s: replay: %w", id, err)
	}
	if summary.Cumulative != snap.CumulativeScore {
		return simResult{}, fmt.Errorf("game %s: log replays to %v but state says %v", id, summary.Cumulative, snap.CumulativeScore)
	}

	winner := -1
	if snap.WinnerTeam != nil {
		winner = *snap.WinnerTeam
	}
	res := simResult{
		gameID:   id,
		rounds:   snap.RoundNumber,
		scores:   snap.CumulativeScore,
		winner:   winner,
		events:   len(log),
		duration: time.Since(begin),
	}
	logger.Info().
		Str("game", id).
		Int("rounds", res.rounds).
		Int("team0", res.scores[0]).
		Int("team1", res.scores[1]).
		Int("winner", winner).
		Dur("took", res.duration).
		Msg("game finished")
	return res, nil
}
