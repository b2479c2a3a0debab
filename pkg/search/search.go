// Package search turns a leaf evaluator into move choices with minimax
// or alpha-beta. Scores are from the +1 side's point of view: the +1
// mover maximizes, the -1 mover minimizes.
package search

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/pkg/rules"
)

// MateScore lies outside the evaluator range (-1, 1).
const MateScore = 1000.0

var (
	ErrTerminalPosition = errors.New("search started on a terminal position")
	ErrNoLegalMoves     = errors.New("non-terminal position without legal moves")
	ErrInvalidDepth     = errors.New("search depth must be positive")
)

type Evaluator interface {
	Evaluate(b rules.Board) (float64, error)
}

type Result struct {
	Score float64
	Move  rules.Move
}

type Stats struct {
	Nodes     int64
	Leaves    int64
	Cutoffs   int64
	Fallbacks int64
}

// Searcher is not safe for concurrent use; create one per game.
type Searcher struct {
	evaluator Evaluator
	rnd       *rand.Rand
	Stats     Stats
}

func NewSearcher(evaluator Evaluator, rnd *rand.Rand) *Searcher {
	return &Searcher{
		evaluator: evaluator,
		rnd:       rnd,
	}
}

// TerminalScore scores a finished game: a checkmated mover has lost,
// stalemate and insufficient material are exactly 0.
func TerminalScore(b rules.Board, mover int) (float64, bool) {
	if b.IsCheckmate() {
		return -float64(mover) * MateScore, true
	}
	if b.IsStalemate() || b.IsInsufficientMaterial() {
		return 0, true
	}
	return 0, false
}

func (s *Searcher) Search(b rules.Board, mover, depth int, useAlphaBeta bool) (Result, error) {
	if useAlphaBeta {
		return s.AlphaBeta(b, mover, depth)
	}
	return s.Minimax(b, mover, depth)
}

func (s *Searcher) Minimax(b rules.Board, mover, depth int) (Result, error) {
	if err := checkRoot(b, depth); err != nil {
		return Result{}, err
	}
	return s.minimax(b, mover, depth)
}

func (s *Searcher) AlphaBeta(b rules.Board, mover, depth int) (Result, error) {
	if err := checkRoot(b, depth); err != nil {
		return Result{}, err
	}
	return s.alphaBeta(b, mover, depth, math.Inf(-1), math.Inf(1))
}

func checkRoot(b rules.Board, depth int) error {
	if depth < 1 {
		return errors.Wrapf(ErrInvalidDepth, "depth %v", depth)
	}
	if rules.IsTerminal(b) {
		return errors.Wrapf(ErrTerminalPosition, "%v", b)
	}
	return nil
}

// better reports whether score strictly improves best for mover.
// NaN never improves.
func better(mover int, score, best float64) bool {
	if mover > 0 {
		return score > best
	}
	return score < best
}

func (s *Searcher) leaf(b rules.Board, mover, depth int) (Result, bool, error) {
	s.Stats.Nodes++
	if score, ok := TerminalScore(b, mover); ok {
		return Result{Score: score}, true, nil
	}
	if depth == 0 {
		s.Stats.Leaves++
		var score, err = s.evaluator.Evaluate(b)
		return Result{Score: score}, true, err
	}
	return Result{}, false, nil
}

func (s *Searcher) minimax(b rules.Board, mover, depth int) (Result, error) {
	if result, done, err := s.leaf(b, mover, depth); done || err != nil {
		return result, err
	}
	var moves = b.LegalMoves()
	var best = Result{Score: math.Inf(-mover)}
	for _, move := range moves {
		var child, err = b.Apply(move)
		if err != nil {
			return Result{}, errors.Wrap(err, "apply")
		}
		r, err := s.minimax(child, -mover, depth-1)
		if err != nil {
			return Result{}, err
		}
		if better(mover, r.Score, best.Score) {
			best = Result{Score: r.Score, Move: move}
		}
	}
	if best.Move == nil {
		return s.fallback(moves, best.Score)
	}
	return best, nil
}

// alphaBeta is fail-soft: it returns the best score found, which may lie
// outside (alpha, beta) when the window closes.
func (s *Searcher) alphaBeta(b rules.Board, mover, depth int, alpha, beta float64) (Result, error) {
	if result, done, err := s.leaf(b, mover, depth); done || err != nil {
		return result, err
	}
	var moves = b.LegalMoves()
	var best = Result{Score: math.Inf(-mover)}
	for _, move := range moves {
		var child, err = b.Apply(move)
		if err != nil {
			return Result{}, errors.Wrap(err, "apply")
		}
		r, err := s.alphaBeta(child, -mover, depth-1, alpha, beta)
		if err != nil {
			return Result{}, err
		}
		if better(mover, r.Score, best.Score) {
			best = Result{Score: r.Score, Move: move}
		}
		if mover > 0 {
			alpha = math.Max(alpha, best.Score)
			if best.Score >= beta {
				s.Stats.Cutoffs++
				break
			}
		} else {
			beta = math.Min(beta, best.Score)
			if best.Score <= alpha {
				s.Stats.Cutoffs++
				break
			}
		}
	}
	if best.Move == nil {
		return s.fallback(moves, best.Score)
	}
	return best, nil
}

// fallback picks a uniformly random legal move when no branch improved
// the sentinel score.
func (s *Searcher) fallback(moves []rules.Move, score float64) (Result, error) {
	if len(moves) == 0 {
		return Result{}, ErrNoLegalMoves
	}
	s.Stats.Fallbacks++
	return Result{Score: score, Move: moves[s.rnd.Intn(len(moves))]}, nil
}

// Player chooses moves with a fixed search configuration.
type Player struct {
	Searcher  *Searcher
	Depth     int
	AlphaBeta bool
}

func (p *Player) ChooseMove(b rules.Board, mover int) (rules.Move, error) {
	var result, err = p.Searcher.Search(b, mover, p.Depth, p.AlphaBeta)
	if err != nil {
		return nil, err
	}
	return result.Move, nil
}
