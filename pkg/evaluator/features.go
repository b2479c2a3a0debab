package evaluator

import (
	"github.com/ChizhovVadim/blondie/pkg/rules"
)

const (
	// DefaultInputSize is the feature count for windows of size 3x3 and up.
	DefaultInputSize = 9604
	// BoardFeatures is the trailing 8x8 window, the raw board.
	BoardFeatures = 64

	boardSide        = 8
	defaultMinWindow = 3
)

var pieceValues = [...]float64{
	rules.Empty:  0,
	rules.Pawn:   1,
	rules.Knight: 3,
	rules.Bishop: 3,
	rules.Rook:   5,
	rules.Queen:  9,
	rules.King:   0,
}

// FeatureLength returns the number of features produced when every
// rectangular window with both sides in [minWindow, 8] is flattened.
func FeatureLength(minWindow int) int {
	var perAxis = 0
	for size := minWindow; size <= boardSide; size++ {
		perAxis += size * (boardSide - size + 1)
	}
	return perAxis * perAxis
}

// minWindowFor finds the window size whose feature length is inputSize.
func minWindowFor(inputSize int) (int, bool) {
	for minWindow := 1; minWindow <= boardSide; minWindow++ {
		if FeatureLength(minWindow) == inputSize {
			return minWindow, true
		}
	}
	return defaultMinWindow, false
}

// boardGrid lays out material values with row 0 = rank 8 and
// column 0 = file a.
func boardGrid(b rules.Board) (grid [boardSide][boardSide]float64) {
	for sq := 0; sq < 64; sq++ {
		var piece, white = b.PieceAt(sq)
		var value = pieceValues[piece]
		if !white && value != 0 {
			value = -value
		}
		grid[boardSide-1-sq/boardSide][sq%boardSide] = value
	}
	return
}

// ExtractFeatures flattens every window of the board, ordered by height,
// width, top row and left column, each window read row by row.
func ExtractFeatures(b rules.Board, minWindow int) []float64 {
	var grid = boardGrid(b)
	var result = make([]float64, 0, FeatureLength(minWindow))
	for height := minWindow; height <= boardSide; height++ {
		for width := minWindow; width <= boardSide; width++ {
			for row := 0; row+height <= boardSide; row++ {
				for col := 0; col+width <= boardSide; col++ {
					for i := 0; i < height; i++ {
						result = append(result, grid[row+i][col:col+width]...)
					}
				}
			}
		}
	}
	return result
}
