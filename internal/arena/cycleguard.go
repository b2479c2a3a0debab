package arena

// cycleGuard detects search oscillation: it remembers each side's two
// most recent moves, and after every full turn in which both sides
// repeated the move they played two turns earlier it counts one
// repetition. The second repetition is a cycle. Longer periods are
// not detected.
type cycleGuard struct {
	firstMover  int
	recent      [2][2]string // per side: older, newer
	repeated    [2]bool
	repetitions int
}

const cycleRepetitions = 2

func newCycleGuard(firstMover int) cycleGuard {
	return cycleGuard{firstMover: firstMover}
}

func sideIndex(mover int) int {
	if mover > 0 {
		return 0
	}
	return 1
}

func (g *cycleGuard) observe(mover int, move string) {
	var side = sideIndex(mover)
	var recent = &g.recent[side]
	g.repeated[side] = recent[0] != "" && recent[0] == move
	recent[0], recent[1] = recent[1], move
	if mover != g.firstMover && g.repeated[0] && g.repeated[1] {
		g.repetitions++
	}
}

func (g *cycleGuard) isCycle() bool {
	return g.repetitions >= cycleRepetitions
}
