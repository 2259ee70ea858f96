package calc

import (
	"math"
	"time"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

// maxPasses bounds the passes made to update the readers of cells covered
// by a new spill.
const maxPasses = 8

// Result summarizes a recalculation. Converged is false when an iterative
// calculation stopped on its iteration limit.
type Result struct {
	Evaluated   int
	HasCycle    bool
	Cycle       []layout.Position
	Converged   bool
	Iterations  int
	Spills      int
	SpillErrors int
}

// RecalculateIfAutomatic recomputes the pending cells unless the workbook
// is in manual calculation mode.
func (e *Engine) RecalculateIfAutomatic() (Result, error) {
	if e.settings.Manual {
		return Result{Converged: true}, nil
	}
	return e.Recalculate()
}

// RecalculateAll recomputes every formula of the workbook.
func (e *Engine) RecalculateAll() (Result, error) {
	return e.Recalculate(e.graph.Formulas()...)
}

// Recalculate recomputes the formulas affected by the given cells and by
// every change made since the last recalculation.
func (e *Engine) Recalculate(dirty ...layout.Position) (Result, error) {
	var (
		now = time.Now()
		res = Result{
			Converged: true,
		}
	)
	dirty = append(e.dirty, dirty...)
	e.dirty = nil
	dirty = append(dirty, e.unblocked(dirty)...)

	comps := e.graph.Components(dirty...)
	for pass := 0; len(comps) > 0 && pass < maxPasses; pass++ {
		var spilled []layout.Position
		for _, cp := range comps {
			var (
				cells []layout.Position
				err   error
			)
			switch {
			case !cp.Cyclic:
				cells, err = e.compute(cp.Cells[0], &res)
			case e.settings.Iterative:
				res.HasCycle = true
				res.Cycle = append(res.Cycle, cp.Cells...)
				cells, err = e.iterate(cp.Cells, &res)
			default:
				res.HasCycle = true
				res.Cycle = append(res.Cycle, cp.Cells...)
				err = e.circular(cp.Cells)
			}
			if err != nil {
				return res, err
			}
			spilled = append(spilled, cells...)
		}
		comps = e.graph.Downstream(spilled...)
	}

	report := Report{
		Result:   res,
		Workbook: e.name,
		When:     now,
		Dirty:    len(dirty),
		Elapsed:  time.Since(now),
	}
	e.logger.Debug("recalculation", "dirty", report.Dirty, "evaluated", res.Evaluated, "elapsed", report.Elapsed)
	if e.settings.Telemetry != nil {
		e.settings.Telemetry.Record(report)
	}
	return res, nil
}

func (e *Engine) circular(cells []layout.Position) error {
	for _, pos := range cells {
		e.clearSpill(pos)
		if err := e.store.SetValue(pos, value.ErrCirc); err != nil {
			return err
		}
	}
	return nil
}

// iterate evaluates the cells of a cycle again and again until no value
// moves more than the tolerance or the iteration limit is reached.
func (e *Engine) iterate(cells []layout.Position, res *Result) ([]layout.Position, error) {
	var spilled []layout.Position
	for i := 1; i <= e.settings.MaxIterations; i++ {
		var delta float64
		for _, pos := range cells {
			before := e.cell(pos)
			list, err := e.compute(pos, res)
			if err != nil {
				return nil, err
			}
			spilled = append(spilled, list...)
			delta = max(delta, distance(before, e.cell(pos)))
		}
		res.Iterations = max(res.Iterations, i)
		if delta < e.settings.Tolerance {
			return spilled, nil
		}
	}
	res.Converged = false
	e.logger.Warn("iterative calculation did not converge", "cells", len(cells), "iterations", e.settings.MaxIterations)
	return spilled, nil
}

func distance(before, after value.ScalarValue) float64 {
	x, ok1 := before.(value.Float)
	y, ok2 := after.(value.Float)
	switch {
	case ok1 && ok2:
		return math.Abs(float64(x - y))
	case value.IsBlank(before) && ok2:
		return math.Abs(float64(y))
	case before.Type() == after.Type() && before.String() == after.String():
		return 0
	default:
		return math.Inf(1)
	}
}

// compute evaluates the formula at pos and writes its result. The cells
// newly covered by its spill are returned.
func (e *Engine) compute(pos layout.Position, res *Result) ([]layout.Position, error) {
	cf, ok := e.formulas[pos.Key()]
	if !ok {
		return nil, nil
	}
	res.Evaluated++

	delete(e.blocks, cf.pos.Key())
	previous := e.clearSpill(pos)
	v := e.cache.Eval(cf.formula, e.env().At(cf.pos))
	arr, ok := v.(value.ArrayValue)
	if !ok {
		return nil, e.store.SetValue(cf.pos, e.env().At(cf.pos).Implicit(v))
	}
	dim := arr.Dimension()
	if dim.Size() == 0 {
		return nil, e.store.SetValue(cf.pos, value.ErrCalc)
	}
	if dim.Single() {
		return nil, e.store.SetValue(cf.pos, arr.At(0, 0))
	}
	area := layout.NewRange(cf.pos, cf.pos.Move(dim.Lines-1, dim.Columns-1))
	if !area.Ends.Valid() || e.blocked(cf.pos, area) {
		if area.Ends.Valid() {
			e.blocks[cf.pos.Key()] = area
		}
		res.SpillErrors++
		return nil, e.store.SetValue(cf.pos, value.ErrSpill)
	}
	for i := int64(0); i < dim.Lines; i++ {
		for j := int64(0); j < dim.Columns; j++ {
			v := arr.At(int(i), int(j))
			if err := e.store.SetValue(cf.pos.Move(i, j), v); err != nil {
				return nil, err
			}
		}
	}
	if err := e.store.SetSpill(area); err != nil {
		return nil, err
	}
	res.Spills++
	cells := area.Positions()
	e.spills[cf.pos.Key()] = area
	e.graph.SetSpill(cf.pos, cells)

	var added []layout.Position
	for _, p := range cells {
		if !p.Equal(cf.pos) && !containsPosition(previous, p) {
			added = append(added, p)
		}
	}
	return added, nil
}

// blocked reports whether a cell of area, other than its anchor, already
// holds something.
func (e *Engine) blocked(anchor layout.Position, area layout.Range) bool {
	for _, p := range area.Positions() {
		if p.Equal(anchor) {
			continue
		}
		if _, ok := e.formulas[p.Key()]; ok {
			return true
		}
		if owner, ok := e.graph.Owner(p); ok && !owner.Equal(anchor) {
			return true
		}
		v, err := e.store.Value(p)
		if err != nil || !value.IsBlank(v) {
			return true
		}
	}
	return false
}

// unblocked gives the anchors whose spill was blocked by one of the dirty
// cells.
func (e *Engine) unblocked(dirty []layout.Position) []layout.Position {
	var list []layout.Position
	for _, area := range e.blocks {
		for _, p := range dirty {
			if area.Contains(p) && !p.Equal(area.Starts) {
				list = append(list, area.Starts)
				break
			}
		}
	}
	return list
}

// clearSpill empties the cells filled by the formula at anchor and returns
// them.
func (e *Engine) clearSpill(anchor layout.Position) []layout.Position {
	area, ok := e.spills[anchor.Key()]
	if !ok {
		return nil
	}
	delete(e.spills, anchor.Key())
	e.graph.SetSpill(anchor, nil)
	if err := e.store.ClearSpill(anchor); err != nil {
		e.logger.Error("fail to forget spill", "cell", anchor.String(), "err", err)
	}

	var list []layout.Position
	for _, p := range area.Positions() {
		if p.Equal(anchor) {
			continue
		}
		if err := e.store.Clear(p); err != nil {
			e.logger.Error("fail to clear spilled cell", "cell", p.String(), "err", err)
		}
		list = append(list, p)
	}
	return list
}

// breakSpill clears the spill covering pos when pos is about to receive
// its own content. The anchor is recomputed at the next recalculation and
// reports the conflict.
func (e *Engine) breakSpill(pos layout.Position) {
	anchor, ok := e.graph.Owner(pos)
	if !ok || anchor.Equal(pos) {
		return
	}
	for _, p := range e.clearSpill(anchor) {
		e.markDirty(p)
	}
	e.markDirty(anchor)
}

func containsPosition(list []layout.Position, pos layout.Position) bool {
	for _, p := range list {
		if p.Equal(pos) {
			return true
		}
	}
	return false
}
