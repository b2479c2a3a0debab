package common

import (
	"strings"
	"unicode"
)

func let(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}

type coloredPiece struct {
	Type int
	Side bool
}

func parsePiece(ch rune) coloredPiece {
	var side = unicode.IsUpper(ch)
	var i = strings.IndexRune("pnbrqk", unicode.ToLower(ch))
	if i < 0 {
		return coloredPiece{Empty, false}
	}
	return coloredPiece{i + Pawn, side}
}

func pieceToChar(pieceType int, side bool) string {
	var result = string("pnbrqk"[pieceType-Pawn])
	if side {
		result = strings.ToUpper(result)
	}
	return result
}
