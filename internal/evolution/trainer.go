// Package evolution evolves a population of evaluators: tournament games
// assign fitness, the best half survives and each survivor breeds one
// mutated offspring.
package evolution

import (
	"context"
	"io"
	"log"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/blondie/internal/arena"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
	"github.com/ChizhovVadim/blondie/pkg/rules"
	"github.com/ChizhovVadim/blondie/pkg/search"
)

// GameFunc plays a as the +1 side against b and returns the outcome
// from a's point of view. rnd is private to the game.
type GameFunc func(ctx context.Context, a, b *evaluator.Evaluator, rnd *rand.Rand) (int, error)

// GenerationHook is called after every generation with its record, the
// standings of the evaluated population and the population of the next
// generation.
type GenerationHook func(record GenerationRecord, standings []Standing, next Population) error

type Trainer struct {
	config       Config
	rnd          *rand.Rand
	start        rules.Board
	playGame     GameFunc
	logger       *log.Logger
	history      []GenerationRecord
	lineage      *Lineage
	OnGeneration GenerationHook
}

type Result struct {
	// Final is the last evaluated population, ascending by fitness.
	Final []Standing
	// Population is the next generation: survivors then offspring.
	Population Population
	History    []GenerationRecord
}

func NewTrainer(config Config, logger *log.Logger) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var start, err = rules.InitialBoard(config.Backend)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var t = &Trainer{
		config:  config,
		rnd:     rand.New(rand.NewSource(config.Seed)),
		start:   start,
		logger:  logger,
		lineage: NewLineage(),
	}
	t.playGame = t.searchGame
	return t, nil
}

// SetGameFunc replaces the search-driven game, mostly for tests.
func (t *Trainer) SetGameFunc(f GameFunc) {
	t.playGame = f
}

func (t *Trainer) History() []GenerationRecord {
	return t.history
}

func (t *Trainer) Lineage() *Lineage {
	return t.lineage
}

func (t *Trainer) searchGame(ctx context.Context, a, b *evaluator.Evaluator, rnd *rand.Rand) (int, error) {
	var newPlayer = func(e *evaluator.Evaluator) arena.Player {
		return &search.Player{
			Searcher:  search.NewSearcher(e, rnd),
			Depth:     t.config.SearchDepth,
			AlphaBeta: t.config.UseAlphaBeta,
		}
	}
	var res, err = arena.PlayGame(ctx, newPlayer(a), newPlayer(b), t.start, arena.Options{
		MaxPlies: t.config.MaxPlies,
	})
	if err != nil {
		return 0, err
	}
	return res.Outcome, nil
}

// NewPopulation creates SurvivorCount random evaluators followed by one
// offspring of each.
func (t *Trainer) NewPopulation() Population {
	var survivors = make(Population, t.config.SurvivorCount)
	for i := range survivors {
		survivors[i] = evaluator.New(t.rnd, t.config.InputSize)
	}
	return t.breed(survivors, 0)
}

func (t *Trainer) breed(survivors Population, generation int) Population {
	var next = make(Population, 0, 2*len(survivors))
	next = append(next, survivors...)
	for _, e := range survivors {
		t.lineage.Add(e)
	}
	for _, e := range survivors {
		var child = e.Mutate(t.rnd)
		child.Generation = generation
		t.lineage.Add(child)
		next = append(next, child)
	}
	return next
}

func (t *Trainer) Run(ctx context.Context) (Result, error) {
	return t.Resume(ctx, t.NewPopulation(), 0)
}

// Resume continues training with pop as the population of generation
// startGeneration.
func (t *Trainer) Resume(ctx context.Context, pop Population, startGeneration int) (Result, error) {
	if len(pop) != t.config.PopulationSize() {
		return Result{}, errors.Errorf("population size %v, expected %v", len(pop), t.config.PopulationSize())
	}
	for _, e := range pop {
		if e.InputSize() != t.config.InputSize {
			return Result{}, errors.Wrapf(evaluator.ErrDimensionMismatch,
				"evaluator %v has %v inputs, expected %v", e.ID, e.InputSize(), t.config.InputSize)
		}
		t.lineage.Add(e)
	}

	var result = Result{Population: pop}
	for generation := startGeneration; generation < t.config.Generations; generation++ {
		var record, standings, next, err = t.RunGeneration(ctx, generation, result.Population)
		if err != nil {
			return Result{}, errors.Wrapf(err, "generation %v", generation+1)
		}
		if t.OnGeneration != nil {
			if err := t.OnGeneration(record, standings, next); err != nil {
				return Result{}, err
			}
		}
		result.Population = next
		result.Final = ascending(standings)
	}
	result.History = t.history
	return result, nil
}

// RunGeneration plays the tournament of one generation, then truncates
// and breeds.
func (t *Trainer) RunGeneration(ctx context.Context, generation int, pop Population) (
	GenerationRecord, []Standing, Population, error) {

	t.logger.Printf("Generation: %v/%v; Depth = %v\n", generation+1, t.config.Generations, t.config.SearchDepth)
	var started = time.Now()

	for _, e := range pop {
		e.ResetFitness()
	}
	var pairings, err = t.schedule(len(pop))
	if err != nil {
		return GenerationRecord{}, nil, nil, err
	}
	if err := t.playTournament(ctx, pop, pairings); err != nil {
		return GenerationRecord{}, nil, nil, err
	}

	for i, e := range pop {
		t.logger.Printf("net %v fitness: %v\n", i+1, e.Fitness())
	}
	var record = newRecord(generation, pop, time.Since(started))
	t.history = append(t.history, record)
	t.logger.Printf("Average fitness for generation %v: %v\n", generation+1, record.AverageFitness)

	var standings = rank(pop)
	var survivors = truncate(standings, t.config.SurvivorCount)
	return record, standings, t.breed(survivors, generation+1), nil
}

type pairing struct {
	player, opponent int
	seed             int64
}

// schedule draws distinct opponents for every evaluator up front, so the
// pairings do not depend on how games are scheduled on workers.
func (t *Trainer) schedule(n int) ([]pairing, error) {
	var k = t.config.OpponentsPerEvaluator
	if k > n-1 {
		return nil, errors.Errorf("%v opponents requested from a population of %v", k, n)
	}
	var result = make([]pairing, 0, n*k)
	for i := 0; i < n; i++ {
		for _, j := range t.rnd.Perm(n - 1)[:k] {
			if j >= i {
				j++
			}
			result = append(result, pairing{player: i, opponent: j, seed: t.rnd.Int63()})
		}
	}
	return result, nil
}

func (t *Trainer) playTournament(ctx context.Context, pop Population, pairings []pairing) error {
	g, ctx := errgroup.WithContext(ctx)
	var index int32 = -1
	for w := 0; w < t.config.Concurrency; w++ {
		g.Go(func() error {
			for {
				var i = int(atomic.AddInt32(&index, 1))
				if i >= len(pairings) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				var p = &pairings[i]
				var player = pop[p.player]
				var outcome, err = t.playGame(ctx, player, pop[p.opponent], rand.New(rand.NewSource(p.seed)))
				if err != nil {
					return errors.Wrapf(err, "game %v vs %v", player.ID, pop[p.opponent].ID)
				}
				player.AddFitness(t.config.Reward(outcome))
			}
		})
	}
	return g.Wait()
}

// rank sorts descending by fitness; ties keep their prior order.
func rank(pop Population) []Standing {
	var standings = make([]Standing, len(pop))
	for i, e := range pop {
		standings[i] = Standing{Evaluator: e, Fitness: e.Fitness()}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Fitness > standings[j].Fitness
	})
	return standings
}

// truncate keeps the first survivorCount evaluators and resets their
// fitness.
func truncate(standings []Standing, survivorCount int) Population {
	var survivors = make(Population, 0, survivorCount)
	for _, s := range standings[:min(survivorCount, len(standings))] {
		s.Evaluator.ResetFitness()
		survivors = append(survivors, s.Evaluator)
	}
	return survivors
}

func ascending(standings []Standing) []Standing {
	var result = append([]Standing(nil), standings...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Fitness < result[j].Fitness
	})
	return result
}
