package arena

import (
	"log"

	"github.com/ChizhovVadim/blondie/pkg/rules"
)

// Outcomes from the point of view of player A, the +1 side.
const (
	OutcomeDraw = 0
	OutcomeWinA = 1
	OutcomeWinB = -1
)

const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonInsufficientMaterial = "insufficient material"
	ReasonCycle                = "cycle"
	ReasonMaxPlies             = "max plies"
)

type Player interface {
	ChooseMove(b rules.Board, mover int) (rules.Move, error)
}

type Options struct {
	// MaxPlies adjudicates a draw after that many plies; 0 means no limit.
	MaxPlies int
	// Logger receives per-game progress lines; nil disables them.
	Logger *log.Logger
	// GameNumber only labels log lines.
	GameNumber int
}

type GameResult struct {
	Outcome int
	Reason  string
	Plies   int
	Moves   []string
	Final   rules.Board
}

func OutcomeString(v int) string {
	switch v {
	case OutcomeWinA:
		return "1-0"
	case OutcomeWinB:
		return "0-1"
	case OutcomeDraw:
		return "1/2-1/2"
	}
	return ""
}
