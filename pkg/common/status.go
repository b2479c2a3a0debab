package common

const darkSquares uint64 = 0xAA55AA55AA55AA55

func (p *Position) IsCheckmate() bool {
	return p.IsCheck() && !p.HasLegalMove()
}

func (p *Position) IsStalemate() bool {
	return !p.IsCheck() && !p.HasLegalMove()
}

// IsInsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or only bishops all standing on
// squares of one colour.
func (p *Position) IsInsufficientMaterial() bool {
	if (p.Pawns | p.Rooks | p.Queens) != 0 {
		return false
	}
	var minors = p.Knights | p.Bishops
	if !MoreThanOne(minors) {
		return true
	}
	if p.Knights != 0 {
		return false
	}
	return (p.Bishops&darkSquares) == 0 || (p.Bishops&^darkSquares) == 0
}
