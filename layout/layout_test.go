package layout

import (
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestColumnName(t *testing.T) {
	for _, ix := range []int64{1, 2, 26, 27, 52, 53, 702, 703, 16384} {
		want, err := excelize.ColumnNumberToName(int(ix))
		if err != nil {
			t.Errorf("%d: unexpected error %s", ix, err)
			continue
		}
		got := ColumnName(ix)
		if got != want {
			t.Errorf("%d: column name mismatched! want %s - got %s", ix, want, got)
		}
		back := ColumnIndex(got)
		if back != ix {
			t.Errorf("%s: column index mismatched! want %d - got %d", got, ix, back)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		Input string
		Want  Position
		Fail  bool
	}{
		{
			Input: "A1",
			Want:  NewPosition("", 1, 1),
		},
		{
			Input: "$C$12",
			Want:  NewPosition("", 12, 3),
		},
		{
			Input: "'My Sheet'!AB3",
			Want:  NewPosition("My Sheet", 3, 28),
		},
		{
			Input: "XFE1",
			Fail:  true,
		},
		{
			Input: "A0",
			Fail:  true,
		},
		{
			Input: "foo",
			Fail:  true,
		},
	}
	for _, c := range tests {
		got, err := ParsePosition(c.Input)
		if c.Fail {
			if err == nil {
				t.Errorf("%s: expected error but got position %s", c.Input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Input, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: position mismatched! want %v - got %v", c.Input, c.Want, got)
		}
	}
}

func TestPositionEqual(t *testing.T) {
	a := NewPosition("Sheet1", 2, 3)
	b := NewPosition("SHEET1", 2, 3)
	if !a.Equal(b) {
		t.Errorf("positions should be equal regardless of sheet case")
	}
	if a.Key() != b.Key() {
		t.Errorf("keys mismatched! %s - %s", a.Key(), b.Key())
	}
	if a.Equal(NewPosition("Sheet2", 2, 3)) {
		t.Errorf("positions on different sheets should not be equal")
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := []struct {
		Input string
		Want  string
	}{
		{Input: "Sheet1", Want: "Sheet1"},
		{Input: "My Sheet", Want: "'My Sheet'"},
		{Input: "O'Brien", Want: "'O''Brien'"},
		{Input: "2024", Want: "'2024'"},
		{Input: "AB12", Want: "'AB12'"},
		{Input: "R1C1", Want: "'R1C1'"},
	}
	for _, c := range tests {
		got := QuoteSheet(c.Input)
		if got != c.Want {
			t.Errorf("%s: quoted name mismatched! want %s - got %s", c.Input, c.Want, got)
		}
	}
}

func TestRange(t *testing.T) {
	rg, err := ParseRange("Sheet1!B2:C4")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if rg.Width() != 2 || rg.Height() != 3 {
		t.Errorf("dimension mismatched! got %dx%d", rg.Height(), rg.Width())
	}
	if !rg.Contains(NewPosition("sheet1", 4, 3)) {
		t.Errorf("range should contain C4 regardless of sheet case")
	}
	if rg.Contains(NewPosition("Sheet1", 5, 3)) {
		t.Errorf("range should not contain C5")
	}
	if n := len(rg.Positions()); n != 6 {
		t.Errorf("positions count mismatched! want 6 - got %d", n)
	}
	other, _ := ParseRange("Sheet1!C3:E9")
	x, ok := rg.Intersect(other)
	if !ok {
		t.Fatalf("ranges should intersect")
	}
	if got := x.String(); got != "Sheet1!C3:C4" {
		t.Errorf("intersection mismatched! want Sheet1!C3:C4 - got %s", got)
	}
	far, _ := ParseRange("Sheet1!F1:F2")
	if _, ok := rg.Intersect(far); ok {
		t.Errorf("ranges should not intersect")
	}
}

func TestShift(t *testing.T) {
	tests := []struct {
		Shift Shift
		Lo    int64
		Hi    int64
		WantL int64
		WantH int64
		Gone  bool
	}{
		{Shift: InsertLines("s", 2, 1), Lo: 2, Hi: 2, WantL: 3, WantH: 3},
		{Shift: InsertLines("s", 2, 1), Lo: 1, Hi: 1, WantL: 1, WantH: 1},
		{Shift: InsertLines("s", 3, 2), Lo: 1, Hi: 5, WantL: 1, WantH: 7},
		{Shift: DeleteLines("s", 2, 1), Lo: 2, Hi: 2, Gone: true},
		{Shift: DeleteLines("s", 2, 2), Lo: 1, Hi: 5, WantL: 1, WantH: 3},
		{Shift: DeleteLines("s", 2, 2), Lo: 3, Hi: 6, WantL: 2, WantH: 4},
		{Shift: DeleteLines("s", 4, 3), Lo: 1, Hi: 5, WantL: 1, WantH: 3},
		{Shift: DeleteLines("s", 1, 3), Lo: 5, Hi: 8, WantL: 2, WantH: 5},
	}
	for _, c := range tests {
		lo, hi, ok := c.Shift.Span(c.Lo, c.Hi)
		if c.Gone {
			if ok {
				t.Errorf("%d:%d: span should be deleted", c.Lo, c.Hi)
			}
			continue
		}
		if !ok {
			t.Errorf("%d:%d: span unexpectedly deleted", c.Lo, c.Hi)
			continue
		}
		if lo != c.WantL || hi != c.WantH {
			t.Errorf("%d:%d: span mismatched! want %d:%d - got %d:%d", c.Lo, c.Hi, c.WantL, c.WantH, lo, hi)
		}
	}
}

func TestSelection(t *testing.T) {
	rg := NewRange(NewPosition("Sheet1", 1, 2), NewPosition("Sheet1", 10, 8))
	tests := []struct {
		Input string
		Want  []int64
	}{
		{"C", []int64{3}},
		{"A", nil},
		{"C:E", []int64{3, 4, 5}},
		{":C", []int64{2, 3}},
		{"F:", []int64{6, 7, 8}},
		{"B:H:3", []int64{2, 5, 8}},
		{"B;D:E", []int64{2, 4, 5}},
	}
	for _, c := range tests {
		sel, err := ParseSelection(c.Input)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Input, err)
			continue
		}
		got := sel.Select(rg)
		if !slices.Equal(got, c.Want) {
			t.Errorf("%s: columns mismatched! want %v - got %v", c.Input, c.Want, got)
		}
		for _, ix := range c.Want {
			if !sel.Match(ix) {
				t.Errorf("%s: column %d should match", c.Input, ix)
			}
		}
	}
	for _, str := range []string{"1", "A:B:C:D", "A:C:0", "A:C:x"} {
		if _, err := ParseSelection(str); err == nil {
			t.Errorf("%s: error expected", str)
		}
	}
}
