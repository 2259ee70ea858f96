// Package store holds the cells of a workbook: the formula text of each cell
// and its last computed value.
package store

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

var (
	ErrSheet  = errors.New("sheet not found")
	ErrExists = errors.New("sheet already exists")
)

const (
	kindBlank  = "blank"
	kindNumber = "number"
	kindText   = "text"
	kindBool   = "bool"
	kindError  = "error"
)

func encode(v value.ScalarValue) (string, string) {
	switch v := v.(type) {
	case value.Float:
		return kindNumber, strconv.FormatFloat(float64(v), 'g', -1, 64)
	case value.Text:
		return kindText, string(v)
	case value.Boolean:
		return kindBool, strconv.FormatBool(bool(v))
	case value.Error:
		return kindError, v.Code()
	default:
		return kindBlank, ""
	}
}

func decode(kind, str string) (value.ScalarValue, error) {
	switch kind {
	case kindNumber:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case kindText:
		return value.Text(str), nil
	case kindBool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, err
		}
		return value.Boolean(b), nil
	case kindError:
		e, ok := value.ErrorFromCode(str)
		if !ok {
			return nil, fmt.Errorf("%s: unknown error code", str)
		}
		return e, nil
	case kindBlank, "":
		return value.Blank{}, nil
	default:
		return nil, fmt.Errorf("%s: unknown value kind", kind)
	}
}

// moveCells computes where each cell goes after a structural change. Cells
// in a deleted span are reported as dropped.
func moveCells(list []layout.Position, shift layout.Shift) (map[layout.Position]layout.Position, []layout.Position) {
	var (
		moved   = make(map[layout.Position]layout.Position)
		dropped []layout.Position
	)
	for _, p := range list {
		if !shift.Applies(p.Sheet) {
			continue
		}
		next, ok := shift.Position(p)
		if !ok || !next.Valid() {
			dropped = append(dropped, p)
			continue
		}
		if next != p {
			moved[p] = next
		}
	}
	return moved, dropped
}

func comparePositions(a, b layout.Position) int {
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}
