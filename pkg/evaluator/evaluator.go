// Package evaluator implements the board evaluation network: a fixed
// stack of tanh layers over windowed material features, mutated by a
// self-adaptive evolution strategy.
package evaluator

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ChizhovVadim/blondie/pkg/rules"
)

const (
	initScale    = 0.2
	initialSigma = 0.05
	// Tau is the learning rate of the log-normal step size update.
	Tau = 0.0839
)

var HiddenNeurons = [...]int{91, 40, 10}

var ErrDimensionMismatch = errors.New("feature dimension mismatch")

var (
	lowerBound = math.Nextafter(-1, 0)
	upperBound = math.Nextafter(1, 0)
)

type Evaluator struct {
	ID         uuid.UUID
	ParentID   uuid.UUID
	Generation int
	Sigma      float64

	fitness   int64
	inputSize int
	minWindow int
	weights   []*mat.Dense
	biases    []*mat.VecDense
}

// New creates an evaluator with N(0, 1) * 0.2 parameters.
func New(rnd *rand.Rand, inputSize int) *Evaluator {
	var e = newEmpty(inputSize)
	e.ID = uuid.Must(uuid.NewV4())
	e.Sigma = initialSigma
	e.eachParam(func(data []float64) {
		for i := range data {
			data[i] = initScale * rnd.NormFloat64()
		}
	})
	return e
}

func newEmpty(inputSize int) *Evaluator {
	var minWindow, _ = minWindowFor(inputSize)
	var e = &Evaluator{
		inputSize: inputSize,
		minWindow: minWindow,
	}
	var in = inputSize
	for _, out := range append(HiddenNeurons[:], 1) {
		e.weights = append(e.weights, mat.NewDense(out, in, nil))
		e.biases = append(e.biases, mat.NewVecDense(out, nil))
		in = out
	}
	return e
}

func (e *Evaluator) eachParam(f func(data []float64)) {
	for i := range e.weights {
		f(e.weights[i].RawMatrix().Data)
		f(e.biases[i].RawVector().Data)
	}
}

func (e *Evaluator) InputSize() int {
	return e.inputSize
}

func (e *Evaluator) Params() int {
	var n = 0
	e.eachParam(func(data []float64) { n += len(data) })
	return n
}

func (e *Evaluator) Fitness() int64 {
	return atomic.LoadInt64(&e.fitness)
}

// AddFitness is safe for concurrent use.
func (e *Evaluator) AddFitness(delta int64) {
	atomic.AddInt64(&e.fitness, delta)
}

func (e *Evaluator) SetFitness(value int64) {
	atomic.StoreInt64(&e.fitness, value)
}

func (e *Evaluator) ResetFitness() {
	e.SetFitness(0)
}

// Features extracts the network input for b.
func (e *Evaluator) Features(b rules.Board) ([]float64, error) {
	var features = ExtractFeatures(b, e.minWindow)
	if len(features) != e.inputSize {
		return nil, errors.Wrapf(ErrDimensionMismatch, "got %v features, network expects %v", len(features), e.inputSize)
	}
	return features, nil
}

// Forward returns tanh(W h + b + sum of the raw board features), kept
// strictly inside (-1, 1).
func (e *Evaluator) Forward(features []float64) (float64, error) {
	if len(features) != e.inputSize {
		return 0, errors.Wrapf(ErrDimensionMismatch, "got %v features, network expects %v", len(features), e.inputSize)
	}
	var x mat.Vector = mat.NewVecDense(len(features), features)
	var last = len(e.weights) - 1
	for i, w := range e.weights {
		var rows, _ = w.Dims()
		var out = mat.NewVecDense(rows, nil)
		out.MulVec(w, x)
		out.AddVec(out, e.biases[i])
		if i < last {
			var data = out.RawVector().Data
			for j := range data {
				data[j] = math.Tanh(data[j])
			}
		}
		x = out
	}
	var raw = features[len(features)-min(BoardFeatures, len(features)):]
	var result = math.Tanh(x.AtVec(0) + floats.Sum(raw))
	return math.Max(lowerBound, math.Min(upperBound, result)), nil
}

func (e *Evaluator) Evaluate(b rules.Board) (float64, error) {
	var features, err = e.Features(b)
	if err != nil {
		return 0, err
	}
	return e.Forward(features)
}

// Clone returns an exact deep copy, identity included.
func (e *Evaluator) Clone() *Evaluator {
	var clone = newEmpty(e.inputSize)
	clone.ID = e.ID
	clone.ParentID = e.ParentID
	clone.Generation = e.Generation
	clone.Sigma = e.Sigma
	clone.fitness = e.Fitness()
	for i := range e.weights {
		clone.weights[i].Copy(e.weights[i])
		clone.biases[i].CopyVec(e.biases[i])
	}
	return clone
}

// Mutate returns an offspring: the step size is updated log-normally
// first, then every parameter is perturbed with the new step size.
func (e *Evaluator) Mutate(rnd *rand.Rand) *Evaluator {
	var child = e.Clone()
	child.ID = uuid.Must(uuid.NewV4())
	child.ParentID = e.ID
	child.Sigma = e.Sigma * math.Exp(Tau*rnd.NormFloat64())
	if !(child.Sigma > 0) {
		child.Sigma = math.SmallestNonzeroFloat64
	}
	var sigma = child.Sigma
	child.eachParam(func(data []float64) {
		for i := range data {
			data[i] += sigma * rnd.NormFloat64()
		}
	})
	return child
}
