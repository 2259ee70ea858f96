package parse

import (
	"testing"

	"github.com/midbel/xlcalc/layout"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		Name    string
		Expr    string
		Edit    Edit
		Want    string
		Changed bool
	}{
		{
			Name:    "insert line before reference",
			Expr:    "A2+Sheet2!A2",
			Edit:    ShiftEdit(layout.InsertLines("Sheet1", 2, 1)),
			Want:    "A3+Sheet2!A2",
			Changed: true,
		},
		{
			Name:    "insert line after reference",
			Expr:    "A2",
			Edit:    ShiftEdit(layout.InsertLines("Sheet1", 3, 1)),
			Want:    "A2",
			Changed: false,
		},
		{
			Name:    "delete referenced line",
			Expr:    "A2*2",
			Edit:    ShiftEdit(layout.DeleteLines("Sheet1", 2, 1)),
			Want:    "#REF!*2",
			Changed: true,
		},
		{
			Name:    "delete inside range",
			Expr:    "SUM(A1:A5)",
			Edit:    ShiftEdit(layout.DeleteLines("Sheet1", 2, 2)),
			Want:    "SUM(A1:A3)",
			Changed: true,
		},
		{
			Name:    "delete whole range",
			Expr:    "SUM(A2:B3)",
			Edit:    ShiftEdit(layout.DeleteLines("Sheet1", 1, 4)),
			Want:    "SUM(#REF!)",
			Changed: true,
		},
		{
			Name:    "insert column keeps absolute markers",
			Expr:    "SUM($B$1:$B$3)*B4",
			Edit:    ShiftEdit(layout.InsertColumns("Sheet1", 1, 1)),
			Want:    "SUM($C$1:$C$3)*C4",
			Changed: true,
		},
		{
			Name:    "other sheet",
			Expr:    "Sheet2!B2",
			Edit:    ShiftEdit(layout.DeleteColumns("Sheet1", 2, 1)),
			Want:    "Sheet2!B2",
			Changed: false,
		},
		{
			Name:    "external workbook",
			Expr:    "'[Book1]Sheet1'!A2",
			Edit:    ShiftEdit(layout.InsertLines("Sheet1", 1, 1)),
			Want:    "'[Book1]Sheet1'!A2",
			Changed: false,
		},
		{
			Name:    "rename sheet",
			Expr:    "'Old Name'!B2+Sheet1!A1+'old name'!Rate",
			Edit:    RenameSheetEdit("Old Name", "Data"),
			Want:    "Data!B2+Sheet1!A1+Data!Rate",
			Changed: true,
		},
		{
			Name:    "rename table",
			Expr:    "SUM(Sales[Amount])",
			Edit:    RenameTableEdit("sales", "Orders"),
			Want:    "SUM(Orders[Amount])",
			Changed: true,
		},
		{
			Name:    "rename column",
			Expr:    "Sales[[#Totals],[Amount]]+Other[Amount]",
			Edit:    RenameColumnEdit("Sales", "Amount", "Total"),
			Want:    "Sales[[#Totals],[Total]]+Other[Amount]",
			Changed: true,
		},
	}
	var (
		origin = layout.NewPosition("Sheet1", 1, 10)
		opts   = FormatOptions{Options: DefaultOptions()}
	)
	for _, c := range tests {
		expr, err := ParseExpr(c.Expr, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Name, err)
			continue
		}
		got, changed := Rewrite(expr, c.Edit, origin, origin)
		if changed != c.Changed {
			t.Errorf("%s: changed flag mismatched! want %t - got %t", c.Name, c.Changed, changed)
		}
		if str := Format(got, opts); str != c.Want {
			t.Errorf("%s: formula mismatched! want %s - got %s", c.Name, c.Want, str)
		}
	}
}

func TestRewriteR1C1(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeR1C1
	expr, err := ParseExpr("R[-1]C", opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var (
		origin    = layout.NewPosition("Sheet1", 5, 1)
		newOrigin = layout.NewPosition("Sheet1", 6, 1)
	)
	got, _ := Rewrite(expr, ShiftEdit(layout.InsertLines("Sheet1", 1, 1)), origin, newOrigin)
	if str := DumpExpr(got); str != "ref(R[-1]C)" {
		t.Errorf("relative reference mismatched! want ref(R[-1]C) - got %s", str)
	}
	rg, err := Unwrap(got).(Ref).Reference().Resolve(newOrigin)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if rg.Starts.Line != 5 {
		t.Errorf("resolved line mismatched! want 5 - got %d", rg.Starts.Line)
	}
}

func TestRewriteReparse(t *testing.T) {
	tests := []struct {
		Expr string
		Want string
	}{
		{
			Expr: "SUM((Sheet1!A1,Sheet1!B5))",
			Want: "SUM((#REF!,Sheet1!B3))",
		},
		{
			Expr: "SUM(Sheet1!A1:A2 Sheet1!A1:B8)",
			Want: "SUM(#REF! Sheet1!A1:B6)",
		},
		{
			Expr: "SUM(Sheet1!A1:B8 Sheet1!A1:A2)",
			Want: "SUM(Sheet1!A1:B6 #REF!)",
		},
	}
	var (
		origin = layout.NewPosition("Sheet2", 1, 1)
		opts   = FormatOptions{Options: DefaultOptions()}
		edit   = ShiftEdit(layout.DeleteLines("Sheet1", 1, 2))
	)
	for _, c := range tests {
		expr, err := ParseExpr(c.Expr, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Expr, err)
			continue
		}
		got, _ := Rewrite(expr, edit, origin, origin)
		str := Format(got, opts)
		if str != c.Want {
			t.Errorf("%s: formula mismatched! want %s - got %s", c.Expr, c.Want, str)
			continue
		}
		again, err := ParseExpr(str, DefaultOptions())
		if err != nil {
			t.Errorf("%s: rewritten formula rejected: %s", str, err)
			continue
		}
		if back := Format(again, opts); back != str {
			t.Errorf("%s: formula mismatched! want %s - got %s", c.Expr, str, back)
		}
	}
}
