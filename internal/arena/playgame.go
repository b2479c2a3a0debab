package arena

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/pkg/rules"
)

// PlayGame plays one game from start. Player A is the +1 side and plays
// white, player B is the -1 side and plays black.
func PlayGame(
	ctx context.Context,
	playerA, playerB Player,
	start rules.Board,
	opts Options,
) (GameResult, error) {

	if opts.Logger != nil {
		opts.Logger.Printf("Started game %v\n", opts.GameNumber)
	}

	var board = start
	var mover = 1
	if !board.WhiteToMove() {
		mover = -1
	}
	var guard = newCycleGuard(mover)
	var moves []string

	var finish = func(outcome int, reason string) (GameResult, error) {
		if opts.Logger != nil {
			opts.Logger.Printf("Finished game %v: %v {%v} %v plies\n",
				opts.GameNumber, OutcomeString(outcome), reason, len(moves))
		}
		return GameResult{
			Outcome: outcome,
			Reason:  reason,
			Plies:   len(moves),
			Moves:   moves,
			Final:   board,
		}, nil
	}

	for {
		if outcome, reason, done := adjudicate(board, mover); done {
			return finish(outcome, reason)
		}
		if len(moves) > 0 && guard.isCycle() {
			return finish(OutcomeDraw, ReasonCycle)
		}
		if opts.MaxPlies > 0 && len(moves) >= opts.MaxPlies {
			return finish(OutcomeDraw, ReasonMaxPlies)
		}
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}

		var player = playerA
		if mover < 0 {
			player = playerB
		}
		var move, err = player.ChooseMove(board, mover)
		if err != nil {
			return GameResult{}, errors.Wrapf(err, "ply %v %v", len(moves)+1, board)
		}
		if move == nil {
			return GameResult{}, errors.Errorf("ply %v: no move chosen in %v", len(moves)+1, board)
		}
		board, err = board.Apply(move)
		if err != nil {
			return GameResult{}, err
		}
		var lan = move.String()
		moves = append(moves, lan)
		guard.observe(mover, lan)
		mover = -mover
	}
}

// adjudicate checks the terminal predicates. mover is the side to move,
// so a checkmate is a win for the other side.
func adjudicate(b rules.Board, mover int) (outcome int, reason string, done bool) {
	if b.IsCheckmate() {
		return -mover, ReasonCheckmate, true
	}
	if b.IsStalemate() {
		return OutcomeDraw, ReasonStalemate, true
	}
	if b.IsInsufficientMaterial() {
		return OutcomeDraw, ReasonInsufficientMaterial, true
	}
	return 0, "", false
}
