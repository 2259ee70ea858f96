package graph

import (
	"slices"

	"github.com/midbel/xlcalc/layout"
)

// Component is a group of formulas to evaluate together. A cyclic component
// holds formulas depending on each other, directly or not.
type Component struct {
	Cells  []layout.Position
	Cyclic bool
}

// Affected lists the formulas to recompute when the given cells change: the
// dirty formulas themselves, every formula depending on them transitively,
// and the volatile formulas with their own dependents.
func (g *Graph) Affected(dirty ...layout.Position) []layout.Position {
	return g.positions(g.affected(dirty, true))
}

func (g *Graph) affected(dirty []layout.Position, volatile bool) set {
	var (
		seen  = make(set)
		res   = make(set)
		queue []ID
	)
	push := func(id ID) {
		if seen.has(id) {
			return
		}
		seen.add(id)
		queue = append(queue, id)
	}
	for _, p := range dirty {
		if id, ok := g.lookup(p); ok {
			push(id)
		}
	}
	if volatile {
		for _, id := range g.volatile.sorted() {
			push(id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if g.formulas.has(id) {
			res.add(id)
		}
		for _, next := range g.successors(id) {
			push(next)
		}
	}
	return res
}

// successors gives the formulas reading id, including the readers of the
// cells filled by id when it spills.
func (g *Graph) successors(id ID) []ID {
	list := g.reverse[id].sorted()
	for _, c := range g.spills[id] {
		list = append(list, g.reverse[c].sorted()...)
	}
	return list
}

// predecessors gives the formulas of among that must be computed before id.
func (g *Graph) predecessors(id ID, among set) []ID {
	var list []ID
	for _, c := range g.forward[id].sorted() {
		if among.has(c) {
			list = append(list, c)
		}
		if a, ok := g.owners[c]; ok && among.has(a) {
			list = append(list, a)
		}
	}
	return list
}

// Components splits the formulas affected by dirty into strongly connected
// components. Components are returned so that a component always comes after
// the components it depends on.
func (g *Graph) Components(dirty ...layout.Position) []Component {
	return g.components(g.affected(dirty, true))
}

// Downstream is like Components but leaves the volatile formulas out when
// nothing they read is dirty.
func (g *Graph) Downstream(dirty ...layout.Position) []Component {
	return g.components(g.affected(dirty, false))
}

func (g *Graph) components(among set) []Component {
	var (
		index = make(map[ID]int)
		low   = make(map[ID]int)
		stack []ID
		onstk = make(set)
		count int
		comps []Component
		visit func(ID)
	)
	visit = func(id ID) {
		index[id] = count
		low[id] = count
		count++
		stack = append(stack, id)
		onstk.add(id)

		var self bool
		for _, p := range g.predecessors(id, among) {
			if p == id {
				self = true
			}
			if _, ok := index[p]; !ok {
				visit(p)
				low[id] = min(low[id], low[p])
			} else if onstk.has(p) {
				low[id] = min(low[id], index[p])
			}
		}
		if low[id] != index[id] {
			return
		}
		var cp Component
		for {
			n := len(stack) - 1
			top := stack[n]
			stack = stack[:n]
			delete(onstk, top)
			cp.Cells = append(cp.Cells, g.cells[top])
			if top == id {
				break
			}
		}
		cp.Cyclic = self || len(cp.Cells) > 1
		SortPositions(cp.Cells)
		comps = append(comps, cp)
	}
	roots := make([]ID, 0, len(among))
	for id := range among {
		roots = append(roots, id)
	}
	slices.SortFunc(roots, func(a, b ID) int {
		return comparePositions(g.cells[a], g.cells[b])
	})
	for _, id := range roots {
		if _, ok := index[id]; !ok {
			visit(id)
		}
	}
	return comps
}

// TryGetRecalculationOrder gives the formulas to evaluate, in order, after
// the given cells changed. When a cycle is found, the order is empty, ok is
// false and cycle holds the cells of the first cyclic component met.
func (g *Graph) TryGetRecalculationOrder(dirty ...layout.Position) ([]layout.Position, []layout.Position, bool) {
	var order []layout.Position
	for _, cp := range g.Components(dirty...) {
		if cp.Cyclic {
			return nil, cp.Cells, false
		}
		order = append(order, cp.Cells...)
	}
	return order, nil, true
}
