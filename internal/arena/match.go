package arena

import (
	"context"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/blondie/pkg/rules"
)

// PlayerFactory builds a fresh player for one worker.
type PlayerFactory func(worker int) Player

type MatchConfig struct {
	Games       int
	Concurrency int
	MaxPlies    int
}

type MatchResult struct {
	Wins, Losses, Draws int
	Stat                GameStatistics
}

type gameInfo struct {
	gameNumber     int
	engineAIsWhite bool
}

type matchGame struct {
	gameInfo gameInfo
	result   GameResult
}

// PlayMatch plays cfg.Games games between two players from start,
// alternating colours. Wins, losses and draws are counted for A.
func PlayMatch(
	ctx context.Context,
	cfg MatchConfig,
	start rules.Board,
	newPlayerA, newPlayerB PlayerFactory,
	logger *log.Logger,
) (MatchResult, error) {

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan gameInfo)
	var gameResults = make(chan matchGame)
	var result MatchResult

	g.Go(func() error {
		defer close(gameInfos)
		for i := 0; i < cfg.Games; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- gameInfo{gameNumber: i + 1, engineAIsWhite: i%2 == 0}:
			}
		}
		return nil
	})

	g.Go(func() error {
		result = collectResults(gameResults, logger)
		return nil
	})

	var wg = &sync.WaitGroup{}

	for i := 0; i < max(1, cfg.Concurrency); i++ {
		var worker = i
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			var playerA = newPlayerA(worker)
			var playerB = newPlayerB(worker)
			for info := range gameInfos {
				var white, black = playerA, playerB
				if !info.engineAIsWhite {
					white, black = playerB, playerA
				}
				var res, err = PlayGame(ctx, white, black, start, Options{
					MaxPlies:   cfg.MaxPlies,
					GameNumber: info.gameNumber,
				})
				if err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case gameResults <- matchGame{gameInfo: info, result: res}:
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	if err := g.Wait(); err != nil {
		return MatchResult{}, err
	}
	return result, nil
}

func collectResults(gameResults <-chan matchGame, logger *log.Logger) MatchResult {
	var result MatchResult
	var games = 0
	for gr := range gameResults {
		games++
		var outcome = gr.result.Outcome
		if !gr.gameInfo.engineAIsWhite {
			outcome = -outcome
		}
		switch outcome {
		case OutcomeWinA:
			result.Wins++
		case OutcomeWinB:
			result.Losses++
		default:
			result.Draws++
		}
		result.Stat = ComputeStat(result.Wins, result.Losses, result.Draws)
		if logger != nil {
			logger.Printf("Finished game %v: %v {%v}\n",
				gr.gameInfo.gameNumber, OutcomeString(gr.result.Outcome), gr.result.Reason)
			logger.Printf("Score: %v - %v - %v  [%.3f] %v\n",
				result.Wins, result.Losses, result.Draws, result.Stat.WinningFraction, games)
			logger.Printf("Elo difference: %.1f, LOS: %.1f %%\n",
				result.Stat.EloDifference, result.Stat.LOS*100)
		}
	}
	return result
}

type GameStatistics struct {
	WinningFraction float64
	EloDifference   float64
	LOS             float64
}

// https://www.chessprogramming.org/Match_Statistics
func ComputeStat(wins, losses, draws int) GameStatistics {
	var games = wins + losses + draws
	var winningFraction = (float64(wins) + 0.5*float64(draws)) / float64(games)
	var eloDifference = -math.Log(1/winningFraction-1) * 400 / math.Ln10
	var los = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(wins+losses)))
	return GameStatistics{
		WinningFraction: winningFraction,
		EloDifference:   eloDifference,
		LOS:             los,
	}
}
