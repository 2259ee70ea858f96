package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type cellStore interface {
	Sheets() []string
	HasSheet(string) bool
	AddSheet(string) error
	RenameSheet(string, string) error
	Formula(layout.Position) (string, error)
	SetFormula(layout.Position, string) error
	Value(layout.Position) (value.ScalarValue, error)
	SetValue(layout.Position, value.ScalarValue) error
	Clear(layout.Position) error
	Cells(string) ([]layout.Position, error)
	Shift(layout.Shift) error
	SetSpill(layout.Range) error
	ClearSpill(layout.Position) error
	Spills(string) ([]layout.Range, error)
	Close() error
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cells.db"))
	if err != nil {
		t.Fatalf("fail to open database: %s", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cells.db")
	s, err := NewSQLite(file)
	if err != nil {
		t.Fatalf("fail to open database: %s", err)
	}
	pos := layout.NewPosition("Data", 2, 3)
	if err := s.AddSheet("Data"); err != nil {
		t.Fatalf("fail to add sheet: %s", err)
	}
	s.SetFormula(pos, "=SUM(A1:A10)")
	s.SetValue(pos, value.Float(0.1))
	s.Close()

	s, err = NewSQLite(file)
	if err != nil {
		t.Fatalf("fail to reopen database: %s", err)
	}
	defer s.Close()

	version, _ := s.Metadata("schema_version")
	if version != SchemaVersion {
		t.Errorf("schema version mismatched! want %s - got %s", SchemaVersion, version)
	}
	formula, _ := s.Formula(pos)
	if formula != "=SUM(A1:A10)" {
		t.Errorf("formula mismatched! want =SUM(A1:A10) - got %s", formula)
	}
	got, _ := s.Value(pos)
	if got != value.Float(0.1) {
		t.Errorf("value mismatched! want 0.1 - got %s", got)
	}
}

func testStore(t *testing.T, s cellStore) {
	t.Helper()
	for _, name := range []string{"Sheet1", "Sheet2"} {
		if err := s.AddSheet(name); err != nil {
			t.Fatalf("%s: fail to add sheet: %s", name, err)
		}
	}
	if err := s.AddSheet("sheet1"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate sheet should fail - got %v", err)
	}
	if got := strings.Join(s.Sheets(), ","); got != "Sheet1,Sheet2" {
		t.Errorf("sheets mismatched! want Sheet1,Sheet2 - got %s", got)
	}

	values := []value.ScalarValue{
		value.Float(42.5),
		value.Text("hello"),
		value.Boolean(true),
		value.ErrDiv0,
		value.Blank{},
	}
	for i, v := range values {
		pos := layout.NewPosition("Sheet1", int64(i+1), 1)
		if err := s.SetValue(pos, v); err != nil {
			t.Fatalf("%s: fail to set value: %s", pos, err)
		}
		got, err := s.Value(pos)
		if err != nil {
			t.Fatalf("%s: fail to get value: %s", pos, err)
		}
		if got != v {
			t.Errorf("%s: value mismatched! want %s - got %s", pos, v, got)
		}
	}

	pos := layout.NewPosition("sheet1", 1, 2)
	s.SetFormula(pos, "=A1*2")
	s.SetValue(pos, value.Float(85))
	if got, _ := s.Formula(layout.NewPosition("SHEET1", 1, 2)); got != "=A1*2" {
		t.Errorf("formula mismatched! want =A1*2 - got %s", got)
	}
	if err := s.SetValue(layout.NewPosition("Other", 1, 1), value.Float(1)); !errors.Is(err, ErrSheet) {
		t.Errorf("unknown sheet should fail - got %v", err)
	}

	spill := layout.NewRange(layout.NewPosition("Sheet2", 1, 3), layout.NewPosition("Sheet2", 2, 4))
	if err := s.SetSpill(spill); err != nil {
		t.Fatalf("fail to record spill: %s", err)
	}
	if err := s.SetSpill(layout.NewRange(layout.NewPosition("Sheet1", 8, 1), layout.NewPosition("Sheet1", 9, 1))); err != nil {
		t.Fatalf("fail to record spill: %s", err)
	}
	list, err := s.Spills("sheet2")
	if err != nil {
		t.Fatalf("fail to list spills: %s", err)
	}
	if len(list) != 1 || list[0].String() != "Sheet2!C1:D2" {
		t.Errorf("spills mismatched! want [Sheet2!C1:D2] - got %v", list)
	}

	if err := s.Shift(layout.InsertLines("Sheet1", 2, 2)); err != nil {
		t.Fatalf("fail to insert lines: %s", err)
	}
	if got, _ := s.Value(layout.NewPosition("Sheet1", 4, 1)); got != value.Text("hello") {
		t.Errorf("A4: value mismatched after insert! want hello - got %s", got)
	}
	if got, _ := s.Value(layout.NewPosition("Sheet1", 2, 1)); got != (value.Blank{}) {
		t.Errorf("A2: cell should be empty after insert - got %s", got)
	}
	if err := s.Shift(layout.DeleteLines("Sheet1", 1, 1)); err != nil {
		t.Fatalf("fail to delete lines: %s", err)
	}
	if got, _ := s.Formula(layout.NewPosition("Sheet1", 1, 2)); got != "" {
		t.Errorf("B1: formula should be deleted - got %s", got)
	}
	if got, _ := s.Value(layout.NewPosition("Sheet1", 3, 1)); got != value.Text("hello") {
		t.Errorf("A3: value mismatched after delete! want hello - got %s", got)
	}

	if err := s.RenameSheet("Sheet1", "Data"); err != nil {
		t.Fatalf("fail to rename sheet: %s", err)
	}
	if s.HasSheet("Sheet1") || !s.HasSheet("data") {
		t.Errorf("sheet should be renamed")
	}
	if list, _ := s.Spills("Data"); len(list) != 0 {
		t.Errorf("spills of shifted sheet should be dropped - got %v", list)
	}
	if err := s.RenameSheet("Sheet2", "Other"); err != nil {
		t.Fatalf("fail to rename sheet: %s", err)
	}
	if list, _ := s.Spills("Other"); len(list) != 1 || list[0].Sheet() != "Other" {
		t.Errorf("spill should follow renamed sheet - got %v", list)
	}
	if err := s.ClearSpill(spill.Starts.OnSheet("Other")); err != nil {
		t.Fatalf("fail to clear spill: %s", err)
	}
	if list, _ := s.Spills("Other"); len(list) != 0 {
		t.Errorf("spill should be cleared - got %v", list)
	}
	cells, err := s.Cells("Data")
	if err != nil {
		t.Fatalf("fail to list cells: %s", err)
	}
	if len(cells) != 4 {
		t.Errorf("cells count mismatched! want 4 - got %d", len(cells))
	}
	s.Clear(layout.NewPosition("Data", 3, 1))
	if got, _ := s.Value(layout.NewPosition("Data", 3, 1)); got != (value.Blank{}) {
		t.Errorf("A3: cell should be cleared - got %s", got)
	}
}
