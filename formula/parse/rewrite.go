package parse

import (
	"strings"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type EditKind int8

const (
	EditShift EditKind = iota
	EditRenameSheet
	EditRenameTable
	EditRenameColumn
)

// Edit is a structural change of the workbook that formulas have to follow.
type Edit struct {
	Kind  EditKind
	Shift layout.Shift
	Table string
	Old   string
	New   string
}

func ShiftEdit(shift layout.Shift) Edit {
	return Edit{
		Kind:  EditShift,
		Shift: shift,
	}
}

func RenameSheetEdit(old, name string) Edit {
	return Edit{
		Kind: EditRenameSheet,
		Old:  old,
		New:  name,
	}
}

func RenameTableEdit(old, name string) Edit {
	return Edit{
		Kind: EditRenameTable,
		Old:  old,
		New:  name,
	}
}

func RenameColumnEdit(table, old, name string) Edit {
	return Edit{
		Kind:  EditRenameColumn,
		Table: table,
		Old:   old,
		New:   name,
	}
}

// Rewrite applies edit to the references of expr. origin is the position of
// the formula before the edit and newOrigin its position after; they only
// differ when the edit moves the formula itself. References to another
// workbook are left alone.
func Rewrite(expr Expr, edit Edit, origin, newOrigin layout.Position) (Expr, bool) {
	var changed bool
	expr = Transform(expr, func(e Expr) Expr {
		x, ok := rewriteNode(e, edit, origin, newOrigin)
		if ok {
			changed = true
		}
		return x
	})
	return expr, changed
}

func rewriteNode(expr Expr, edit Edit, origin, newOrigin layout.Position) (Expr, bool) {
	switch e := expr.(type) {
	case Ref:
		if e.ref.External() {
			return expr, false
		}
		switch edit.Kind {
		case EditShift:
			return shiftRef(e.ref, edit.Shift, origin, newOrigin)
		case EditRenameSheet:
			ref := e.ref
			if strings.EqualFold(ref.Sheet, edit.Old) {
				ref.Sheet = edit.New
			}
			if strings.EqualFold(ref.EndSheet, edit.Old) {
				ref.EndSheet = edit.New
			}
			return NewRef(ref), ref != e.ref
		}
	case Name:
		if edit.Kind == EditRenameSheet && e.sheet != "" && strings.EqualFold(e.sheet, edit.Old) {
			return NewName(edit.New, e.name), true
		}
	case Structured:
		ref := e.ref
		switch edit.Kind {
		case EditRenameTable:
			if strings.EqualFold(ref.Table, edit.Old) {
				ref.Table = edit.New
			}
		case EditRenameColumn:
			if !strings.EqualFold(ref.Table, edit.Table) {
				break
			}
			if strings.EqualFold(ref.Column, edit.Old) {
				ref.Column = edit.New
			}
			if strings.EqualFold(ref.EndColumn, edit.Old) {
				ref.EndColumn = edit.New
			}
		}
		return NewStructured(ref), ref != e.ref
	}
	return expr, false
}

func shiftRef(ref Reference, shift layout.Shift, origin, newOrigin layout.Position) (Expr, bool) {
	sheet := ref.Sheet
	if sheet == "" {
		sheet = origin.Sheet
	}
	var (
		start   = ref.Start.Resolve(origin)
		end     = start
		applies = shift.Applies(sheet) && !ref.ThreeD()
	)
	if ref.IsRange {
		end = ref.End.Resolve(origin)
		if start.Line > end.Line {
			ref.Start.AbsLine, ref.End.AbsLine = ref.End.AbsLine, ref.Start.AbsLine
			start.Line, end.Line = end.Line, start.Line
		}
		if start.Column > end.Column {
			ref.Start.AbsCols, ref.End.AbsCols = ref.End.AbsCols, ref.Start.AbsCols
			start.Column, end.Column = end.Column, start.Column
		}
	}
	if applies {
		if ref.IsRange {
			rg, ok := shift.Range(layout.Range{Starts: start, Ends: end})
			if !ok {
				return NewLiteral(value.ErrRef), true
			}
			start, end = rg.Starts, rg.Ends
		} else {
			pos, ok := shift.Position(start)
			if !ok {
				return NewLiteral(value.ErrRef), true
			}
			start, end = pos, pos
		}
		if !start.Valid() || !end.Valid() {
			return NewLiteral(value.ErrRef), true
		}
	}
	x := ref
	x.Start = ref.Start.Anchor(start, newOrigin)
	if ref.IsRange {
		x.End = ref.End.Anchor(end, newOrigin)
	}
	return NewRef(x), x != ref
}
