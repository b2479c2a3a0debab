package rules

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

var notnilPieceTypes = [...]int{
	chess.NoPieceType: Empty,
	chess.King:        King,
	chess.Queen:       Queen,
	chess.Rook:        Rook,
	chess.Bishop:      Bishop,
	chess.Knight:      Knight,
	chess.Pawn:        Pawn,
}

// notnilBoard adapts github.com/notnil/chess. chess.Position caches its
// move list on first use, so moves and status are resolved eagerly and
// the board stays safe to share between goroutines.
type notnilBoard struct {
	pos    *chess.Position
	moves  []*chess.Move
	status chess.Method
}

func NewNotnilBoard(fen string) (Board, error) {
	var opt, err = chess.FEN(fen)
	if err != nil {
		return nil, errors.Wrapf(err, "parse fen %q", fen)
	}
	return newNotnilBoard(chess.NewGame(opt).Position()), nil
}

func newNotnilBoard(pos *chess.Position) notnilBoard {
	var moves = pos.ValidMoves()
	return notnilBoard{
		pos:    pos,
		moves:  moves,
		status: pos.Status(),
	}
}

func (b notnilBoard) LegalMoves() []Move {
	var result = make([]Move, len(b.moves))
	for i, m := range b.moves {
		result[i] = m
	}
	return result
}

func (b notnilBoard) Apply(move Move) (Board, error) {
	var lan = move.String()
	for _, m := range b.moves {
		if m == move || m.String() == lan {
			return newNotnilBoard(b.pos.Update(m)), nil
		}
	}
	return nil, errors.Errorf("illegal move %v in %v", move, b.pos.String())
}

func (b notnilBoard) IsCheckmate() bool            { return b.status == chess.Checkmate }
func (b notnilBoard) IsStalemate() bool            { return b.status == chess.Stalemate }
func (b notnilBoard) IsInsufficientMaterial() bool { return insufficientMaterial(b) }
func (b notnilBoard) WhiteToMove() bool            { return b.pos.Turn() == chess.White }
func (b notnilBoard) String() string               { return b.pos.String() }

func (b notnilBoard) PieceAt(sq int) (int, bool) {
	var piece = b.pos.Board().Piece(chess.Square(sq))
	if piece == chess.NoPiece {
		return Empty, false
	}
	return notnilPieceTypes[piece.Type()], piece.Color() == chess.White
}
