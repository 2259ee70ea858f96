// Package doc reads the description of a workbook (sheets, cells, names and
// tables) from an XML or YAML document and loads it into an engine.
package doc

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/midbel/xlcalc/calc"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

var (
	ErrFile   = errors.New("invalid workbook description")
	ErrFormat = errors.New("unsupported format")
)

type Workbook struct {
	Name   string
	Sheets []*Sheet
	Names  []Name
	Tables []Table
}

func (w *Workbook) sheet(name string) *Sheet {
	ix := slices.IndexFunc(w.Sheets, func(s *Sheet) bool {
		return layout.SameSheet(s.Name, name)
	})
	if ix >= 0 {
		return w.Sheets[ix]
	}
	s := &Sheet{Name: name}
	w.Sheets = append(w.Sheets, s)
	return s
}

type Sheet struct {
	Name  string
	Cells []Cell
}

// Cell holds either a formula or a constant value.
type Cell struct {
	Ref     string
	Formula string
	Value   value.ScalarValue
}

type Name struct {
	Ident   string
	Sheet   string
	Formula string
}

type Table struct {
	Name    string
	Ref     string
	Columns []string
	Totals  bool
}

// Engine creates an engine named after w and loads w into it.
func (w *Workbook) Engine(options ...calc.Option) (*calc.Engine, error) {
	options = append(options, calc.WithName(w.Name))
	e, err := calc.New(options...)
	if err != nil {
		return nil, err
	}
	return e, w.Load(e)
}

// Load creates the sheets of w in e, then its tables, names and cells. The
// engine is not recalculated.
func (w *Workbook) Load(e *calc.Engine) error {
	for _, s := range w.Sheets {
		if slices.ContainsFunc(e.Sheets(), func(name string) bool { return layout.SameSheet(name, s.Name) }) {
			continue
		}
		if err := e.AddSheet(s.Name); err != nil {
			return err
		}
	}
	for _, t := range w.Tables {
		area, err := layout.ParseRange(t.Ref)
		if err != nil {
			return fmt.Errorf("%w: table %s: %w", ErrFile, t.Name, err)
		}
		err = e.AddTable(calc.Table{
			Name:    t.Name,
			Area:    area,
			Columns: slices.Clone(t.Columns),
			Totals:  t.Totals,
		})
		if err != nil {
			return err
		}
	}
	for _, n := range w.Names {
		if err := e.DefineName(n.Sheet, n.Ident, n.Formula); err != nil {
			return err
		}
	}
	for _, s := range w.Sheets {
		for _, c := range s.Cells {
			if err := loadCell(e, s.Name, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadCell(e *calc.Engine, sheet string, c Cell) error {
	pos, err := layout.ParsePosition(c.Ref)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFile, err)
	}
	if pos.Sheet != "" && !layout.SameSheet(pos.Sheet, sheet) {
		return fmt.Errorf("%w: %s: cell outside of sheet %s", ErrFile, c.Ref, sheet)
	}
	if c.Formula != "" {
		return e.SetCellFormula(sheet, pos.Line, pos.Column, c.Formula)
	}
	v := c.Value
	if v == nil {
		v = value.Blank{}
	}
	return e.SetCellValue(sheet, pos.Line, pos.Column, v)
}

// parseValue converts the text of a cell according to kind. An empty kind
// guesses the type from the text.
func parseValue(kind, str string) (value.ScalarValue, error) {
	switch strings.ToLower(kind) {
	case "":
		return GuessValue(str), nil
	case "number", "n":
		n, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: number expected", ErrFile, str)
		}
		return value.Float(n), nil
	case "text", "string", "s":
		return value.Text(str), nil
	case "bool", "boolean", "b":
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: boolean expected", ErrFile, str)
		}
		return value.Boolean(b), nil
	case "error", "e":
		e, ok := value.ErrorFromCode(strings.ToUpper(str))
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown error code", ErrFile, str)
		}
		return e, nil
	case "blank":
		return value.Blank{}, nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown cell type", ErrFile, kind)
	}
}

// GuessValue converts str to a number, a boolean or an error code when it
// looks like one and to text otherwise.
func GuessValue(str string) value.ScalarValue {
	if str == "" {
		return value.Blank{}
	}
	if n, err := strconv.ParseFloat(str, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return value.Float(n)
	}
	switch strings.ToUpper(str) {
	case "TRUE":
		return value.Boolean(true)
	case "FALSE":
		return value.Boolean(false)
	}
	if e, ok := value.ErrorFromCode(strings.ToUpper(str)); ok {
		return e
	}
	return value.Text(str)
}
