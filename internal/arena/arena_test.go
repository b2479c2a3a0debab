package arena

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChizhovVadim/blondie/pkg/evaluator"
	"github.com/ChizhovVadim/blondie/pkg/rules"
	"github.com/ChizhovVadim/blondie/pkg/search"
)

// scriptedPlayer plays its moves in order, cycling when it runs out.
type scriptedPlayer struct {
	moves []string
	next  int
}

func (p *scriptedPlayer) ChooseMove(b rules.Board, mover int) (rules.Move, error) {
	var lan = p.moves[p.next%len(p.moves)]
	p.next++
	var move, _ = rules.FindMove(b, lan)
	return move, nil
}

func startBoard(t *testing.T) rules.Board {
	var b, err = rules.InitialBoard(rules.BackendCounter)
	require.NoError(t, err)
	return b
}

func TestPlayGame(t *testing.T) {
	var tests = []struct {
		name    string
		a, b    []string
		outcome int
		reason  string
		plies   int
	}{
		{
			name:    "scholar's mate",
			a:       []string{"e2e4", "f1c4", "d1h5", "h5f7"},
			b:       []string{"e7e5", "b8c6", "g8f6"},
			outcome: OutcomeWinA,
			reason:  ReasonCheckmate,
			plies:   7,
		},
		{
			name:    "fool's mate",
			a:       []string{"f2f3", "g2g4"},
			b:       []string{"e7e5", "d8h4"},
			outcome: OutcomeWinB,
			reason:  ReasonCheckmate,
			plies:   4,
		},
		{
			name:    "knight shuffle",
			a:       []string{"g1f3", "f3g1"},
			b:       []string{"g8f6", "f6g8"},
			outcome: OutcomeDraw,
			reason:  ReasonCycle,
			plies:   8,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var res, err = PlayGame(context.Background(),
				&scriptedPlayer{moves: test.a}, &scriptedPlayer{moves: test.b},
				startBoard(t), Options{MaxPlies: 100})
			require.NoError(t, err)
			require.Equal(t, test.outcome, res.Outcome)
			require.Equal(t, test.reason, res.Reason)
			require.Equal(t, test.plies, res.Plies)
			require.Len(t, res.Moves, test.plies)
		})
	}
}

func TestCastlingGame(t *testing.T) {
	for _, backend := range []rules.Backend{rules.BackendCounter, rules.BackendNotnil} {
		var start, err = rules.InitialBoard(backend)
		require.NoError(t, err)
		res, err := PlayGame(context.Background(),
			&scriptedPlayer{moves: []string{"e2e4", "g1f3", "f1c4", "e1g1", "d2d3"}},
			&scriptedPlayer{moves: []string{"e7e5", "b8c6", "f8c5", "g8f6", "e8g8"}},
			start, Options{MaxPlies: 10})
		require.NoError(t, err, backend)
		require.Equal(t, ReasonMaxPlies, res.Reason)
		require.Equal(t, "e1g1", res.Moves[6])
		require.Equal(t, "e8g8", res.Moves[9])

		var piece, white = res.Final.PieceAt(6)
		require.Equal(t, rules.King, piece, backend)
		require.True(t, white)
		piece, _ = res.Final.PieceAt(5)
		require.Equal(t, rules.Rook, piece, backend)
		piece, white = res.Final.PieceAt(62)
		require.Equal(t, rules.King, piece, backend)
		require.False(t, white)
	}
}

func TestCycleGuardBeatsMaxPlies(t *testing.T) {
	var res, err = PlayGame(context.Background(),
		&scriptedPlayer{moves: []string{"b1c3", "c3b1"}},
		&scriptedPlayer{moves: []string{"b8c6", "c6b8"}},
		startBoard(t), Options{MaxPlies: 9})
	require.NoError(t, err)
	require.Equal(t, ReasonCycle, res.Reason)

	res, err = PlayGame(context.Background(),
		&scriptedPlayer{moves: []string{"b1c3", "c3b1"}},
		&scriptedPlayer{moves: []string{"b8c6", "c6b8"}},
		startBoard(t), Options{MaxPlies: 5})
	require.NoError(t, err)
	require.Equal(t, ReasonMaxPlies, res.Reason)
	require.Equal(t, 5, res.Plies)
}

func TestCycleGuard(t *testing.T) {
	var g = newCycleGuard(1)
	var plies = []string{"a", "x", "b", "y", "a", "x", "c", "y", "d", "x", "b", "y"}
	for i, move := range plies {
		g.observe(1-2*(i%2), move)
	}
	// only the third full turn repeated both moves
	require.Equal(t, 1, g.repetitions)
	require.False(t, g.isCycle())

	g = newCycleGuard(-1)
	for i, move := range []string{"x", "a", "y", "b", "x", "a", "y", "b"} {
		g.observe(2*(i%2)-1, move)
	}
	require.True(t, g.isCycle())
}

func TestTerminalStart(t *testing.T) {
	var b, err = rules.NewBoard(rules.BackendCounter, "8/8/4k3/8/8/3K4/8/8 w - - 0 1")
	require.NoError(t, err)
	res, err := PlayGame(context.Background(), &scriptedPlayer{}, &scriptedPlayer{}, b, Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeDraw, res.Outcome)
	require.Equal(t, ReasonInsufficientMaterial, res.Reason)
	require.Zero(t, res.Plies)
}

func TestCancelledGame(t *testing.T) {
	var ctx, cancel = context.WithCancel(context.Background())
	cancel()
	var _, err = PlayGame(ctx, &scriptedPlayer{moves: []string{"e2e4"}}, &scriptedPlayer{moves: []string{"e7e5"}},
		startBoard(t), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func searchPlayer(seed int64, e *evaluator.Evaluator) Player {
	return &search.Player{
		Searcher:  search.NewSearcher(e, rand.New(rand.NewSource(seed))),
		Depth:     1,
		AlphaBeta: true,
	}
}

func TestSearchPlayersFinish(t *testing.T) {
	var rnd = rand.New(rand.NewSource(1))
	var a = evaluator.New(rnd, evaluator.BoardFeatures)
	var b = evaluator.New(rnd, evaluator.BoardFeatures)
	var res, err = PlayGame(context.Background(), searchPlayer(1, a), searchPlayer(2, b),
		startBoard(t), Options{MaxPlies: 200})
	require.NoError(t, err)
	require.Contains(t, []int{OutcomeDraw, OutcomeWinA, OutcomeWinB}, res.Outcome)
	require.LessOrEqual(t, res.Plies, 200)
	require.Len(t, res.Moves, res.Plies)
}

func TestPlayMatch(t *testing.T) {
	var rnd = rand.New(rand.NewSource(3))
	var a = evaluator.New(rnd, evaluator.BoardFeatures)
	var b = evaluator.New(rnd, evaluator.BoardFeatures)
	var res, err = PlayMatch(context.Background(),
		MatchConfig{Games: 4, Concurrency: 2, MaxPlies: 60},
		startBoard(t),
		func(worker int) Player { return searchPlayer(int64(worker), a) },
		func(worker int) Player { return searchPlayer(int64(100+worker), b) },
		nil)
	require.NoError(t, err)
	require.Equal(t, 4, res.Wins+res.Losses+res.Draws)
}

func TestComputeStat(t *testing.T) {
	var stat = ComputeStat(10, 10, 0)
	require.Equal(t, 0.5, stat.WinningFraction)
	require.InDelta(t, 0, stat.EloDifference, 1e-9)
	require.InDelta(t, 0.5, stat.LOS, 1e-9)

	stat = ComputeStat(30, 10, 10)
	require.InDelta(t, 0.7, stat.WinningFraction, 1e-9)
	require.InDelta(t, 147.2, stat.EloDifference, 0.1)
	require.False(t, math.IsNaN(stat.LOS))
	require.Greater(t, stat.LOS, 0.99)
}
