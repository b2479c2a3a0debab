package evolution

import (
	"sync"

	"github.com/gofrs/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ChizhovVadim/blondie/pkg/evaluator"
)

// Lineage is the family tree of every evaluator the trainer has seen,
// with an edge from each parent to its offspring.
type Lineage struct {
	mu    sync.Mutex
	g     *simple.DirectedGraph
	nodes map[uuid.UUID]int64
	ids   map[int64]uuid.UUID
}

func NewLineage() *Lineage {
	return &Lineage{
		g:     simple.NewDirectedGraph(),
		nodes: make(map[uuid.UUID]int64),
		ids:   make(map[int64]uuid.UUID),
	}
}

func (l *Lineage) node(id uuid.UUID) graph.Node {
	if n, ok := l.nodes[id]; ok {
		return l.g.Node(n)
	}
	var n = l.g.NewNode()
	l.g.AddNode(n)
	l.nodes[id] = n.ID()
	l.ids[n.ID()] = id
	return n
}

func (l *Lineage) Add(e *evaluator.Evaluator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var child = l.node(e.ID)
	if e.ParentID != uuid.Nil {
		var parent = l.node(e.ParentID)
		if !l.g.HasEdgeFromTo(parent.ID(), child.ID()) {
			l.g.SetEdge(l.g.NewEdge(parent, child))
		}
	}
}

func (l *Lineage) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Nodes().Len()
}

// Ancestry returns the parent, grandparent and so on of id.
func (l *Lineage) Ancestry(id uuid.UUID) []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []uuid.UUID
	var n, ok = l.nodes[id]
	for ok {
		var parents = l.g.To(n)
		if !parents.Next() {
			break
		}
		n = parents.Node().ID()
		result = append(result, l.ids[n])
	}
	return result
}

// Order lists evaluators so that every parent precedes its offspring.
func (l *Lineage) Order() ([]uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sorted, err = topo.SortStabilized(l.g, nil)
	if err != nil {
		return nil, err
	}
	var result = make([]uuid.UUID, len(sorted))
	for i, n := range sorted {
		result[i] = l.ids[n.ID()]
	}
	return result, nil
}
