package evolution

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ChizhovVadim/blondie/pkg/evaluator"
)

type Population []*evaluator.Evaluator

// Standing is an evaluator with the fitness it reached in one
// generation, captured before survivors are reset.
type Standing struct {
	Evaluator *evaluator.Evaluator
	Fitness   int64
}

// Snapshot copies the evaluator with the fitness of this standing, so a
// saved network keeps the score it was ranked by.
func (s Standing) Snapshot() *evaluator.Evaluator {
	var e = s.Evaluator.Clone()
	e.SetFitness(s.Fitness)
	return e
}

type GenerationRecord struct {
	Generation     int
	AverageFitness float64
	BestFitness    float64
	WorstFitness   float64
	Elapsed        time.Duration
}

// newRecord averages over the whole evaluation phase, not over the
// survivors.
func newRecord(generation int, pop Population, elapsed time.Duration) GenerationRecord {
	var fitness = make([]float64, len(pop))
	for i, e := range pop {
		fitness[i] = float64(e.Fitness())
	}
	var record = GenerationRecord{
		Generation: generation,
		Elapsed:    elapsed,
	}
	if len(fitness) != 0 {
		record.AverageFitness = floats.Sum(fitness) / float64(len(fitness))
		record.BestFitness = floats.Max(fitness)
		record.WorstFitness = floats.Min(fitness)
	}
	return record
}
