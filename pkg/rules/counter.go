package rules

import (
	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/pkg/common"
)

// counterBoard wraps the bitboard engine. The Position is held by value
// so Apply never touches the receiver.
type counterBoard struct {
	pos common.Position
}

func NewCounterBoard(fen string) (Board, error) {
	var pos, err = common.NewPositionFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return counterBoard{pos: pos}, nil
}

func (b counterBoard) LegalMoves() []Move {
	var ml = b.pos.GenerateLegalMoves()
	var result = make([]Move, len(ml))
	for i, m := range ml {
		result[i] = m
	}
	return result
}

func (b counterBoard) Apply(move Move) (Board, error) {
	var m, ok = move.(common.Move)
	if ok {
		ok = b.isPseudoLegal(m)
	} else {
		var found Move
		if found, ok = FindMove(b, move.String()); ok {
			m = found.(common.Move)
		}
	}
	var child counterBoard
	if !ok || !b.pos.MakeMove(m, &child.pos) {
		return nil, errors.Errorf("illegal move %v in %v", move, b.pos.String())
	}
	return child, nil
}

// isPseudoLegal guards MakeMove against moves generated for another
// position.
func (b counterBoard) isPseudoLegal(m common.Move) bool {
	var buffer [common.MaxMoves]common.Move
	for _, pm := range b.pos.GenerateMoves(buffer[:]) {
		if pm == m {
			return true
		}
	}
	return false
}

func (b counterBoard) IsCheckmate() bool            { return b.pos.IsCheckmate() }
func (b counterBoard) IsStalemate() bool            { return b.pos.IsStalemate() }
func (b counterBoard) IsInsufficientMaterial() bool { return b.pos.IsInsufficientMaterial() }
func (b counterBoard) WhiteToMove() bool            { return b.pos.WhiteMove }
func (b counterBoard) String() string               { return b.pos.String() }

func (b counterBoard) PieceAt(sq int) (int, bool) {
	return b.pos.GetPieceTypeAndSide(sq)
}
