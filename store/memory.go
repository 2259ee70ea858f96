package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type cell struct {
	formula string
	value   value.ScalarValue
}

type sheet struct {
	name   string
	cells  map[[2]int64]*cell
	spills map[[2]int64]layout.Dimension
}

func (s *sheet) positions() []layout.Position {
	var list []layout.Position
	for k := range s.cells {
		list = append(list, layout.NewPosition(s.name, k[0], k[1]))
	}
	slices.SortFunc(list, comparePositions)
	return list
}

// Memory keeps the cells in maps. It is the store used by default.
type Memory struct {
	mu     sync.RWMutex
	sheets []*sheet
}

func NewMemory(sheets ...string) *Memory {
	var m Memory
	for _, s := range sheets {
		m.AddSheet(s)
	}
	return &m
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Sheets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var list []string
	for _, s := range m.sheets {
		list = append(list, s.name)
	}
	return list
}

func (m *Memory) HasSheet(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sheet(name) != nil
}

func (m *Memory) AddSheet(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sheet(name) != nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	m.sheets = append(m.sheets, &sheet{
		name:   name,
		cells:  make(map[[2]int64]*cell),
		spills: make(map[[2]int64]layout.Dimension),
	})
	return nil
}

func (m *Memory) RenameSheet(old, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(old)
	if sh == nil {
		return fmt.Errorf("%w: %s", ErrSheet, old)
	}
	if other := m.sheet(name); other != nil && other != sh {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	sh.name = name
	return nil
}

func (m *Memory) Formula(pos layout.Position) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c := m.cell(pos); c != nil {
		return c.formula, nil
	}
	return "", nil
}

func (m *Memory) SetFormula(pos layout.Position, formula string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.upsert(pos)
	if err != nil {
		return err
	}
	c.formula = formula
	return nil
}

func (m *Memory) Value(pos layout.Position) (value.ScalarValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.cell(pos)
	if c == nil || c.value == nil {
		return value.Blank{}, nil
	}
	return c.value, nil
}

func (m *Memory) SetValue(pos layout.Position, v value.ScalarValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.upsert(pos)
	if err != nil {
		return err
	}
	c.value = v
	return nil
}

func (m *Memory) Clear(pos layout.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(pos.Sheet)
	if sh == nil {
		return fmt.Errorf("%w: %s", ErrSheet, pos.Sheet)
	}
	delete(sh.cells, [2]int64{pos.Line, pos.Column})
	return nil
}

// Cells lists the occupied cells of a sheet line by line.
func (m *Memory) Cells(name string) ([]layout.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sh := m.sheet(name)
	if sh == nil {
		return nil, fmt.Errorf("%w: %s", ErrSheet, name)
	}
	return sh.positions(), nil
}

// SetSpill records the area filled by the formula at the top left cell of
// area.
func (m *Memory) SetSpill(area layout.Range) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(area.Sheet())
	if sh == nil {
		return fmt.Errorf("%w: %s", ErrSheet, area.Sheet())
	}
	sh.spills[[2]int64{area.Starts.Line, area.Starts.Column}] = area.Dimension()
	return nil
}

func (m *Memory) ClearSpill(anchor layout.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(anchor.Sheet)
	if sh == nil {
		return fmt.Errorf("%w: %s", ErrSheet, anchor.Sheet)
	}
	delete(sh.spills, [2]int64{anchor.Line, anchor.Column})
	return nil
}

func (m *Memory) Spills(name string) ([]layout.Range, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sh := m.sheet(name)
	if sh == nil {
		return nil, fmt.Errorf("%w: %s", ErrSheet, name)
	}
	var list []layout.Range
	for k, dim := range sh.spills {
		anchor := layout.NewPosition(sh.name, k[0], k[1])
		list = append(list, layout.NewRange(anchor, anchor.Move(dim.Lines-1, dim.Columns-1)))
	}
	slices.SortFunc(list, func(a, b layout.Range) int {
		return comparePositions(a.Starts, b.Starts)
	})
	return list, nil
}

// Shift moves the cells of a sheet. The recorded spills of the sheet no
// longer match their cells and are dropped.
func (m *Memory) Shift(shift layout.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(shift.Sheet)
	if sh == nil {
		return fmt.Errorf("%w: %s", ErrSheet, shift.Sheet)
	}
	clear(sh.spills)
	moved, dropped := moveCells(sh.positions(), shift)
	for _, p := range dropped {
		delete(sh.cells, [2]int64{p.Line, p.Column})
	}
	cells := make(map[[2]int64]*cell)
	for p, next := range moved {
		k := [2]int64{p.Line, p.Column}
		cells[[2]int64{next.Line, next.Column}] = sh.cells[k]
		delete(sh.cells, k)
	}
	for k, c := range cells {
		sh.cells[k] = c
	}
	return nil
}

func (m *Memory) sheet(name string) *sheet {
	ix := slices.IndexFunc(m.sheets, func(s *sheet) bool {
		return strings.EqualFold(s.name, name)
	})
	if ix < 0 {
		return nil
	}
	return m.sheets[ix]
}

func (m *Memory) cell(pos layout.Position) *cell {
	sh := m.sheet(pos.Sheet)
	if sh == nil {
		return nil
	}
	return sh.cells[[2]int64{pos.Line, pos.Column}]
}

func (m *Memory) upsert(pos layout.Position) (*cell, error) {
	sh := m.sheet(pos.Sheet)
	if sh == nil {
		return nil, fmt.Errorf("%w: %s", ErrSheet, pos.Sheet)
	}
	k := [2]int64{pos.Line, pos.Column}
	c, ok := sh.cells[k]
	if !ok {
		c = &cell{}
		sh.cells[k] = c
	}
	return c, nil
}
