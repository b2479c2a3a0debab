package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/ChizhovVadim/blondie/internal/arena"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
	"github.com/ChizhovVadim/blondie/pkg/rules"
	"github.com/ChizhovVadim/blondie/pkg/search"
)

type Config struct {
	netA        string
	netB        string
	games       int
	depth       int
	alphaBeta   bool
	maxPlies    int
	concurrency int
	seed        int64
	backend     string
	fen         string
}

var config Config

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	flag.StringVar(&config.netA, "a", "", "Path to the network of player A")
	flag.StringVar(&config.netB, "b", "", "Path to the network of player B, empty plays a random network")
	flag.IntVar(&config.games, "games", 1, "Number of games")
	flag.IntVar(&config.depth, "depth", 1, "Search depth in plies")
	flag.BoolVar(&config.alphaBeta, "alphabeta", true, "Use alpha-beta instead of minimax")
	flag.IntVar(&config.maxPlies, "maxplies", 400, "Adjudicate a draw after that many plies, 0 = no limit")
	flag.IntVar(&config.concurrency, "concurrency", runtime.NumCPU(), "Number of games played in parallel")
	flag.Int64Var(&config.seed, "seed", 1, "Random seed")
	flag.StringVar(&config.backend, "backend", string(rules.BackendCounter), "Rules backend: counter or notnil")
	flag.StringVar(&config.fen, "fen", rules.StartFEN, "Start position")
	flag.Parse()

	log.Printf("%+v", config)

	var err = run()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	log.Println("arena started")
	defer log.Println("arena finished")

	backend, err := rules.ParseBackend(config.backend)
	if err != nil {
		return err
	}
	start, err := rules.NewBoard(backend, config.fen)
	if err != nil {
		return err
	}

	netA, err := loadNetwork(config.netA, config.seed)
	if err != nil {
		return err
	}
	netB, err := loadNetwork(config.netB, config.seed+1)
	if err != nil {
		return err
	}
	log.Println("A", netA.ID, "B", netB.ID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if config.games == 1 {
		return playSingle(ctx, start, netA, netB)
	}

	result, err := arena.PlayMatch(ctx, arena.MatchConfig{
		Games:       config.games,
		Concurrency: config.concurrency,
		MaxPlies:    config.maxPlies,
	}, start, playerFactory(netA, 0), playerFactory(netB, 1<<20), log.Default())
	if err != nil {
		return err
	}
	fmt.Printf("A: +%v -%v =%v Elo %.1f LOS %.3f\n",
		result.Wins, result.Losses, result.Draws,
		result.Stat.EloDifference, result.Stat.LOS)
	return nil
}

func loadNetwork(path string, seed int64) (*evaluator.Evaluator, error) {
	if path == "" {
		return evaluator.New(rand.New(rand.NewSource(seed)), evaluator.DefaultInputSize), nil
	}
	return evaluator.LoadFile(path)
}

// playerFactory gives every worker its own searcher and random source.
func playerFactory(e *evaluator.Evaluator, seedOffset int64) arena.PlayerFactory {
	return func(worker int) arena.Player {
		var rnd = rand.New(rand.NewSource(config.seed + seedOffset + int64(worker)))
		return newPlayer(e, rnd)
	}
}

func newPlayer(e *evaluator.Evaluator, rnd *rand.Rand) *search.Player {
	return &search.Player{
		Searcher:  search.NewSearcher(e, rnd),
		Depth:     config.depth,
		AlphaBeta: config.alphaBeta,
	}
}

func playSingle(ctx context.Context, start rules.Board, netA, netB *evaluator.Evaluator) error {
	var playerA = newPlayer(netA, rand.New(rand.NewSource(config.seed)))
	var playerB = newPlayer(netB, rand.New(rand.NewSource(config.seed+1)))
	var res, err = arena.PlayGame(ctx, playerA, playerB, start, arena.Options{
		MaxPlies:   config.maxPlies,
		Logger:     log.Default(),
		GameNumber: 1,
	})
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(res.Moves, " "))
	fmt.Printf("%v {%v} %v plies\n", arena.OutcomeString(res.Outcome), res.Reason, res.Plies)
	fmt.Println(res.Final.String())
	fmt.Printf("A nodes %v fallbacks %v, B nodes %v fallbacks %v\n",
		playerA.Searcher.Stats.Nodes, playerA.Searcher.Stats.Fallbacks,
		playerB.Searcher.Stats.Nodes, playerB.Searcher.Stats.Fallbacks)
	return nil
}
