package common

const (
	f1g1Mask = (uint64(1) << SquareF1) | (uint64(1) << SquareG1)
	b1d1Mask = (uint64(1) << SquareB1) | (uint64(1) << SquareC1) | (uint64(1) << SquareD1)
	f8g8Mask = (uint64(1) << SquareF8) | (uint64(1) << SquareG8)
	b8d8Mask = (uint64(1) << SquareB8) | (uint64(1) << SquareC8) | (uint64(1) << SquareD8)
)

type castleRule struct {
	right      int
	empty      uint64
	kingFrom   int
	passing    int
	move       Move
	attackedBy bool
}

var castleRules = [...]castleRule{
	{WhiteKingSide, f1g1Mask, SquareE1, SquareF1, makeMove(SquareE1, SquareG1, King, Empty), false},
	{WhiteQueenSide, b1d1Mask, SquareE1, SquareD1, makeMove(SquareE1, SquareC1, King, Empty), false},
	{BlackKingSide, f8g8Mask, SquareE8, SquareF8, makeMove(SquareE8, SquareG8, King, Empty), true},
	{BlackQueenSide, b8d8Mask, SquareE8, SquareD8, makeMove(SquareE8, SquareC8, King, Empty), true},
}

func addPromotions(ml []Move, move Move) int {
	ml[0] = move ^ Move(Queen<<18)
	ml[1] = move ^ Move(Rook<<18)
	ml[2] = move ^ Move(Bishop<<18)
	ml[3] = move ^ Move(Knight<<18)
	return 4
}

// GenerateMoves appends pseudo-legal moves to ml. A move may still leave
// the own king in check; MakeMove reports that.
func (p *Position) GenerateMoves(ml []Move) []Move {
	var count = 0
	var ownPieces = p.PiecesByColor(p.WhiteMove)
	var oppPieces = p.PiecesByColor(!p.WhiteMove)
	var allPieces = ownPieces | oppPieces

	var target = ^ownPieces
	if p.Checkers != 0 {
		var kingSq = FirstOne(p.Kings & ownPieces)
		target = p.Checkers | betweenMask[FirstOne(p.Checkers)][kingSq]
	}

	var ownPawns = p.Pawns & ownPieces
	if p.EpSquare != SquareNone {
		for fromBB := PawnAttacks(p.EpSquare, !p.WhiteMove) & ownPawns; fromBB != 0; fromBB &= fromBB - 1 {
			ml[count] = makeMove(FirstOne(fromBB), p.EpSquare, Pawn, Pawn)
			count++
		}
	}

	var forward, startRank, lastRank = 8, Rank2, Rank7
	if !p.WhiteMove {
		forward, startRank, lastRank = -8, Rank7, Rank2
	}
	for fromBB := ownPawns; fromBB != 0; fromBB &= fromBB - 1 {
		var from = FirstOne(fromBB)
		var promote = Rank(from) == lastRank
		var add = func(m Move) {
			if promote {
				count += addPromotions(ml[count:], m)
			} else {
				ml[count] = m
				count++
			}
		}
		var to = from + forward
		if (SquareMask[to] & allPieces) == 0 {
			add(makeMove(from, to, Pawn, Empty))
			if Rank(from) == startRank && (SquareMask[to+forward]&allPieces) == 0 {
				add(makeMove(from, to+forward, Pawn, Empty))
			}
		}
		for attacks := PawnAttacks(from, p.WhiteMove) & oppPieces; attacks != 0; attacks &= attacks - 1 {
			to = FirstOne(attacks)
			add(makeMove(from, to, Pawn, p.WhatPiece(to)))
		}
	}

	for fromBB := p.Knights & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		var from = FirstOne(fromBB)
		count = p.addPieceMoves(ml, count, from, Knight, KnightAttacks[from]&target)
	}
	for fromBB := p.Bishops & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		var from = FirstOne(fromBB)
		count = p.addPieceMoves(ml, count, from, Bishop, BishopAttacks(from, allPieces)&target)
	}
	for fromBB := p.Rooks & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		var from = FirstOne(fromBB)
		count = p.addPieceMoves(ml, count, from, Rook, RookAttacks(from, allPieces)&target)
	}
	for fromBB := p.Queens & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		var from = FirstOne(fromBB)
		count = p.addPieceMoves(ml, count, from, Queen, QueenAttacks(from, allPieces)&target)
	}

	var kingSq = FirstOne(p.Kings & ownPieces)
	count = p.addPieceMoves(ml, count, kingSq, King, KingAttacks[kingSq]&^ownPieces)

	for i := range castleRules {
		var rule = &castleRules[i]
		if rule.attackedBy != p.WhiteMove &&
			(p.CastleRights&rule.right) != 0 &&
			(allPieces&rule.empty) == 0 &&
			!p.isAttackedBySide(rule.kingFrom, rule.attackedBy) &&
			!p.isAttackedBySide(rule.passing, rule.attackedBy) {
			ml[count] = rule.move
			count++
		}
	}

	return ml[:count]
}

func (p *Position) addPieceMoves(ml []Move, count, from, piece int, toBB uint64) int {
	for ; toBB != 0; toBB &= toBB - 1 {
		var to = FirstOne(toBB)
		ml[count] = makeMove(from, to, piece, p.WhatPiece(to))
		count++
	}
	return count
}

func (p *Position) GenerateLegalMoves() []Move {
	var buffer [MaxMoves]Move
	var child Position
	var ml []Move
	for _, m := range p.GenerateMoves(buffer[:]) {
		if p.MakeMove(m, &child) {
			ml = append(ml, m)
		}
	}
	return ml
}

func (p *Position) HasLegalMove() bool {
	var buffer [MaxMoves]Move
	var child Position
	for _, m := range p.GenerateMoves(buffer[:]) {
		if p.MakeMove(m, &child) {
			return true
		}
	}
	return false
}
