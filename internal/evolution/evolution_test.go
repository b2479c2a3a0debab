package evolution

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ChizhovVadim/blondie/internal/arena"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
)

func testConfig(survivors int) Config {
	var config = DefaultConfig()
	config.Generations = 1
	config.SurvivorCount = survivors
	config.InputSize = evaluator.BoardFeatures
	return config
}

func newTestTrainer(t *testing.T, config Config) *Trainer {
	var trainer, err = NewTrainer(config, nil)
	require.NoError(t, err)
	return trainer
}

func TestConfigValidate(t *testing.T) {
	var config = DefaultConfig()
	require.NoError(t, config.Validate())
	require.Equal(t, 30, config.PopulationSize())

	var tests = []func(c *Config){
		func(c *Config) { c.SurvivorCount = 0 },
		func(c *Config) { c.OpponentsPerEvaluator = 30 },
		func(c *Config) { c.OpponentsPerEvaluator = 0 },
		func(c *Config) { c.SearchDepth = 0 },
		func(c *Config) { c.Concurrency = 0 },
		func(c *Config) { c.InputSize = 10 },
		func(c *Config) { c.Backend = "unknown" },
		func(c *Config) { c.Generations = -1 },
	}
	for i, mutate := range tests {
		var c = DefaultConfig()
		mutate(&c)
		require.Error(t, c.Validate(), i)
	}
}

func TestReward(t *testing.T) {
	var config = DefaultConfig()
	require.Equal(t, int64(1), config.Reward(arena.OutcomeWinA))
	require.Equal(t, int64(-2), config.Reward(arena.OutcomeWinB))
	require.Equal(t, int64(0), config.Reward(arena.OutcomeDraw))
}

func TestSchedule(t *testing.T) {
	var trainer = newTestTrainer(t, testConfig(15))
	var pairings, err = trainer.schedule(30)
	require.NoError(t, err)
	require.Len(t, pairings, 30*5)

	var opponents = make(map[int]map[int]bool)
	for _, p := range pairings {
		require.NotEqual(t, p.player, p.opponent)
		require.True(t, p.opponent >= 0 && p.opponent < 30)
		if opponents[p.player] == nil {
			opponents[p.player] = make(map[int]bool)
		}
		require.False(t, opponents[p.player][p.opponent], "duplicate opponent")
		opponents[p.player][p.opponent] = true
	}
	require.Len(t, opponents, 30)

	_, err = trainer.schedule(5)
	require.Error(t, err)
}

// scriptedGames returns outcomes per acting evaluator in order.
type scriptedGames struct {
	mu       sync.Mutex
	outcomes map[uuid.UUID][]int
	fallback int
	played   int
}

func (s *scriptedGames) play(ctx context.Context, a, b *evaluator.Evaluator, rnd *rand.Rand) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played++
	var script = s.outcomes[a.ID]
	if len(script) == 0 {
		return s.fallback, nil
	}
	s.outcomes[a.ID] = script[1:]
	return script[0], nil
}

func TestFitnessBookkeeping(t *testing.T) {
	var config = testConfig(3)
	var trainer = newTestTrainer(t, config)
	var pop = trainer.NewPopulation()
	var games = &scriptedGames{
		outcomes: map[uuid.UUID][]int{
			pop[0].ID: {arena.OutcomeWinA, arena.OutcomeWinA, arena.OutcomeWinB, arena.OutcomeDraw, arena.OutcomeDraw},
		},
		fallback: arena.OutcomeWinA,
	}
	trainer.SetGameFunc(games.play)

	var record, standings, next, err = trainer.RunGeneration(context.Background(), 0, pop)
	require.NoError(t, err)
	require.Equal(t, 6*5, games.played)
	require.Len(t, next, 6)

	var fitness = make(map[uuid.UUID]int64)
	for _, s := range standings {
		fitness[s.Evaluator.ID] = s.Fitness
	}
	require.Equal(t, int64(0), fitness[pop[0].ID])
	for _, e := range pop[1:] {
		require.Equal(t, int64(5), fitness[e.ID])
	}
	require.InDelta(t, 25.0/6, record.AverageFitness, 1e-12)
	require.Equal(t, 5.0, record.BestFitness)
	require.Equal(t, 0.0, record.WorstFitness)
	require.Equal(t, pop[0].ID, standings[len(standings)-1].Evaluator.ID)

	// survivors were reset, snapshots keep the ranked fitness
	var best = standings[0]
	require.Equal(t, int64(5), best.Fitness)
	require.Equal(t, int64(0), best.Evaluator.Fitness())
	var snapshot = best.Snapshot()
	require.Equal(t, best.Evaluator.ID, snapshot.ID)
	require.Equal(t, int64(5), snapshot.Fitness())
	require.Equal(t, int64(0), best.Evaluator.Fitness())
}

func TestTruncationSelection(t *testing.T) {
	var rnd = rand.New(rand.NewSource(1))
	var pop = make(Population, 30)
	for i := range pop {
		pop[i] = evaluator.New(rnd, evaluator.BoardFeatures)
		// pairs of equal fitness: 0, 0, 1, 1, ... 14, 14
		pop[i].SetFitness(int64(i / 2))
	}
	var standings = rank(pop)
	require.True(t, sort.SliceIsSorted(standings, func(i, j int) bool {
		return standings[i].Fitness > standings[j].Fitness
	}))
	var survivors = truncate(standings, 15)
	require.Len(t, survivors, 15)
	// top 7 pairs and the first of the pair with fitness 7
	var want = []int{28, 29, 26, 27, 24, 25, 22, 23, 20, 21, 18, 19, 16, 17, 14}
	for i, index := range want {
		require.Same(t, pop[index], survivors[i], i)
		require.Equal(t, int64(0), survivors[i].Fitness())
	}
	require.Equal(t, int64(7), pop[15].Fitness())
}

func TestGenerationKeepsPopulationSize(t *testing.T) {
	var config = testConfig(15)
	var trainer = newTestTrainer(t, config)
	var pop = trainer.NewPopulation()
	require.Len(t, pop, 30)

	var winners = make(map[uuid.UUID]bool)
	for _, e := range pop[:15] {
		winners[e.ID] = true
	}
	trainer.SetGameFunc(func(ctx context.Context, a, b *evaluator.Evaluator, rnd *rand.Rand) (int, error) {
		if winners[a.ID] {
			return arena.OutcomeWinA, nil
		}
		return arena.OutcomeWinB, nil
	})

	var record, standings, next, err = trainer.RunGeneration(context.Background(), 0, pop)
	require.NoError(t, err)
	require.Len(t, standings, 30)
	require.Len(t, next, 30)
	require.InDelta(t, (15*5.0-15*10.0)/30, record.AverageFitness, 1e-12)
	for i := 0; i < 15; i++ {
		require.Same(t, pop[i], next[i])
		require.Equal(t, int64(0), next[i].Fitness())
		var child = next[15+i]
		require.Equal(t, next[i].ID, child.ParentID)
		require.Equal(t, 1, child.Generation)
		require.Equal(t, int64(0), child.Fitness())
	}
}

func TestGameErrorAbortsGeneration(t *testing.T) {
	var config = testConfig(3)
	config.Concurrency = 3
	var trainer = newTestTrainer(t, config)
	var broken = errors.New("broken game")
	trainer.SetGameFunc(func(ctx context.Context, a, b *evaluator.Evaluator, rnd *rand.Rand) (int, error) {
		return 0, broken
	})
	var _, err = trainer.Run(context.Background())
	require.True(t, errors.Is(err, broken), err)
}

func TestResumeRejectsWrongPopulation(t *testing.T) {
	var trainer = newTestTrainer(t, testConfig(3))
	var pop = trainer.NewPopulation()
	var _, err = trainer.Resume(context.Background(), pop[:5], 0)
	require.Error(t, err)

	pop[1] = evaluator.New(rand.New(rand.NewSource(1)), evaluator.DefaultInputSize)
	_, err = trainer.Resume(context.Background(), pop, 0)
	require.True(t, errors.Is(err, evaluator.ErrDimensionMismatch), err)
}

func TestRunWithSearchGames(t *testing.T) {
	var config = testConfig(2)
	config.Generations = 2
	config.OpponentsPerEvaluator = 3
	config.MaxPlies = 20
	config.Concurrency = 2
	config.UseAlphaBeta = true
	var trainer = newTestTrainer(t, config)

	var hooks int
	trainer.OnGeneration = func(record GenerationRecord, standings []Standing, next Population) error {
		hooks++
		require.Equal(t, hooks-1, record.Generation)
		require.Len(t, standings, 4)
		require.Len(t, next, 4)
		return nil
	}
	var result, err = trainer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, hooks)
	require.Len(t, result.History, 2)
	require.Len(t, result.Population, 4)
	require.Len(t, result.Final, 4)
	require.True(t, sort.SliceIsSorted(result.Final, func(i, j int) bool {
		return result.Final[i].Fitness < result.Final[j].Fitness
	}))
	for _, s := range result.Final {
		// 3 games, each +1, -2 or 0
		require.True(t, s.Fitness >= -6 && s.Fitness <= 3, s.Fitness)
	}
}

func TestLineage(t *testing.T) {
	var trainer = newTestTrainer(t, testConfig(2))
	var pop = trainer.NewPopulation()
	var grandchild = pop[2].Mutate(rand.New(rand.NewSource(2)))
	trainer.Lineage().Add(grandchild)

	require.Equal(t, 5, trainer.Lineage().Len())
	require.Equal(t, []uuid.UUID{pop[2].ID, pop[0].ID}, trainer.Lineage().Ancestry(grandchild.ID))
	require.Empty(t, trainer.Lineage().Ancestry(pop[1].ID))

	var order, err = trainer.Lineage().Order()
	require.NoError(t, err)
	var position = make(map[uuid.UUID]int)
	for i, id := range order {
		position[id] = i
	}
	require.Less(t, position[pop[0].ID], position[pop[2].ID])
	require.Less(t, position[pop[2].ID], position[grandchild.ID])
}
