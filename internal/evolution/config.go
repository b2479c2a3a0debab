package evolution

import (
	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/internal/arena"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
	"github.com/ChizhovVadim/blondie/pkg/rules"
)

type Config struct {
	Generations           int
	SurvivorCount         int
	OpponentsPerEvaluator int
	SearchDepth           int
	UseAlphaBeta          bool
	WinReward             int64
	LossPenalty           int64
	DrawReward            int64
	MaxPlies              int
	Concurrency           int
	Seed                  int64
	Backend               rules.Backend
	InputSize             int
}

func DefaultConfig() Config {
	return Config{
		Generations:           840,
		SurvivorCount:         15,
		OpponentsPerEvaluator: 5,
		SearchDepth:           1,
		UseAlphaBeta:          false,
		WinReward:             1,
		LossPenalty:           -2,
		DrawReward:            0,
		MaxPlies:              0,
		Concurrency:           1,
		Seed:                  1,
		Backend:               rules.BackendCounter,
		InputSize:             evaluator.DefaultInputSize,
	}
}

// PopulationSize is the size of the evaluation phase: survivors plus
// one offspring each.
func (c *Config) PopulationSize() int {
	return 2 * c.SurvivorCount
}

func (c *Config) Validate() error {
	if c.Generations < 0 {
		return errors.Errorf("generations must be non-negative, got %v", c.Generations)
	}
	if c.SurvivorCount < 1 {
		return errors.Errorf("survivor count must be positive, got %v", c.SurvivorCount)
	}
	if c.OpponentsPerEvaluator < 1 || c.OpponentsPerEvaluator > c.PopulationSize()-1 {
		return errors.Errorf("opponents per evaluator must be in [1, %v], got %v",
			c.PopulationSize()-1, c.OpponentsPerEvaluator)
	}
	if c.SearchDepth < 1 {
		return errors.Errorf("search depth must be positive, got %v", c.SearchDepth)
	}
	if c.MaxPlies < 0 {
		return errors.Errorf("max plies must be non-negative, got %v", c.MaxPlies)
	}
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be positive, got %v", c.Concurrency)
	}
	if c.InputSize < evaluator.BoardFeatures {
		return errors.Errorf("input size must be at least %v, got %v", evaluator.BoardFeatures, c.InputSize)
	}
	if _, err := rules.ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	return nil
}

// Reward maps a game outcome of the acting evaluator to a fitness delta.
func (c *Config) Reward(outcome int) int64 {
	switch outcome {
	case arena.OutcomeWinA:
		return c.WinReward
	case arena.OutcomeWinB:
		return c.LossPenalty
	}
	return c.DrawReward
}
