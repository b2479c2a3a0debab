// Package rules is the chess-rules boundary used by search and play.
// Boards are immutable values: Apply returns a new Board.
package rules

import (
	"fmt"
	"strings"

	"github.com/ChizhovVadim/blondie/pkg/common"
)

const (
	Empty  = common.Empty
	Pawn   = common.Pawn
	Knight = common.Knight
	Bishop = common.Bishop
	Rook   = common.Rook
	Queen  = common.Queen
	King   = common.King
)

const StartFEN = common.InitialPositionFen

// Move is a backend move. String returns long algebraic notation.
type Move interface {
	String() string
}

type Board interface {
	// LegalMoves returns the legal moves in a deterministic order.
	LegalMoves() []Move
	Apply(move Move) (Board, error)
	IsCheckmate() bool
	IsStalemate() bool
	IsInsufficientMaterial() bool
	WhiteToMove() bool
	// PieceAt reports the piece on sq (a1 = 0, h8 = 63).
	PieceAt(sq int) (pieceType int, white bool)
	// String returns the position in FEN.
	String() string
}

func IsTerminal(b Board) bool {
	return b.IsCheckmate() || b.IsStalemate() || b.IsInsufficientMaterial()
}

type Backend string

const (
	BackendCounter Backend = "counter"
	BackendNotnil  Backend = "notnil"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case BackendCounter, BackendNotnil:
		return b, nil
	}
	return "", fmt.Errorf("unknown rules backend %q", s)
}

func NewBoard(backend Backend, fen string) (Board, error) {
	switch backend {
	case BackendCounter, "":
		return NewCounterBoard(fen)
	case BackendNotnil:
		return NewNotnilBoard(fen)
	}
	return nil, fmt.Errorf("unknown rules backend %q", backend)
}

func InitialBoard(backend Backend) (Board, error) {
	return NewBoard(backend, StartFEN)
}

// FindMove returns the legal move of b whose notation equals lan.
func FindMove(b Board, lan string) (Move, bool) {
	for _, m := range b.LegalMoves() {
		if strings.EqualFold(m.String(), lan) {
			return m, true
		}
	}
	return nil, false
}

// insufficientMaterial is the generic form of the draw rule for backends
// that only expose square contents.
func insufficientMaterial(b Board) bool {
	var minors, lightBishops, darkBishops int
	for sq := 0; sq < 64; sq++ {
		var piece, _ = b.PieceAt(sq)
		switch piece {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			minors++
		case Bishop:
			minors++
			if common.IsDarkSquare(sq) {
				darkBishops++
			} else {
				lightBishops++
			}
		}
	}
	if minors <= 1 {
		return true
	}
	return minors == lightBishops || minors == darkBishops
}
