package parse

import (
	"testing"

	"github.com/midbel/xlcalc/layout"
)

func TestParse(t *testing.T) {
	tests := []struct {
		Expr string
		Want string
	}{
		{
			Expr: "1+2*3",
			Want: "binary(number(1), binary(number(2), number(3), *), +)",
		},
		{
			Expr: "-2^2",
			Want: "binary(unary(number(2), -), number(2), ^)",
		},
		{
			Expr: "=10%",
			Want: "postfix(number(10), %)",
		},
		{
			Expr: `A1&"x"=B1`,
			Want: "binary(binary(ref(A1), text(x), &), ref(B1), =)",
		},
		{
			Expr: "IF(,1,)",
			Want: "call(IF, blank(), number(1), blank())",
		},
		{
			Expr: "now()",
			Want: "call(NOW)",
		},
		{
			Expr: "SUM((A1,B2:C3))",
			Want: "call(SUM, group(binary(ref(A1), ref(B2:C3), union)))",
		},
		{
			Expr: "A1:B5 B2:C3",
			Want: "binary(ref(A1:B5), ref(B2:C3), isect)",
		},
		{
			Expr: "Sheet1!A1:B2",
			Want: "ref(Sheet1!A1:B2)",
		},
		{
			Expr: "'My Sheet'!$A$1",
			Want: "ref('My Sheet'!$A$1)",
		},
		{
			Expr: "Sheet1:Sheet3!A1",
			Want: "ref(Sheet1:Sheet3!A1)",
		},
		{
			Expr: "'[Book1]Sheet2'!B2",
			Want: "ref('[Book1]Sheet2'!B2)",
		},
		{
			Expr: `{1,-2;"a",TRUE}`,
			Want: "array(number(1), number(-2); text(a), boolean(TRUE))",
		},
		{
			Expr: "Table1[[#This Row],[A]:[C]]",
			Want: "table(Table1, #This Row, A, C)",
		},
		{
			Expr: "Table1[@Col]",
			Want: "table(Table1, #This Row, Col, )",
		},
		{
			Expr: "Table1[[#Headers],[Unit Price]]",
			Want: "table(Table1, #Headers, Unit Price, )",
		},
		{
			Expr: "Table1[]",
			Want: "table(Table1, #Data, , )",
		},
		{
			Expr: "Table1[#Totals]",
			Want: "table(Table1, #Totals, , )",
		},
		{
			Expr: "Sheet1!Rate*2",
			Want: "binary(name(Sheet1!Rate), number(2), *)",
		},
		{
			Expr: "sum(a1)",
			Want: "call(SUM, ref(A1))",
		},
		{
			Expr: "Sheet1!#REF!+1",
			Want: "binary(error(#REF!), number(1), +)",
		},
		{
			Expr: "#REF! Sheet1!A1:B5",
			Want: "binary(error(#REF!), ref(Sheet1!A1:B5), isect)",
		},
		{
			Expr: "SUM((#REF!,B3))",
			Want: "call(SUM, group(binary(error(#REF!), ref(B3), union)))",
		},
	}
	for _, c := range tests {
		expr, err := ParseExpr(c.Expr, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Expr, err)
			continue
		}
		if got := DumpExpr(expr); got != c.Want {
			t.Errorf("%s: tree mismatched!\nwant: %s\ngot:  %s", c.Expr, c.Want, got)
		}
	}
}

func TestParseR1C1(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeR1C1
	expr, err := ParseExpr("R[-1]C[2]+R1C1", opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := "binary(ref(R[-1]C[2]), ref(R1C1), +)"
	if got := DumpExpr(expr); got != want {
		t.Errorf("tree mismatched! want %s - got %s", want, got)
	}
	origin := layout.NewPosition("Sheet1", 5, 5)
	ref := Unwrap(expr).(Binary).Left().(Ref).Reference()
	rg, err := ref.Resolve(origin)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := rg.Starts.Addr(); got != "Sheet1!G4" {
		t.Errorf("resolved address mismatched! want Sheet1!G4 - got %s", got)
	}
	str := Format(expr, FormatOptions{Options: DefaultOptions(), Origin: origin})
	if str != "G4+$A$1" {
		t.Errorf("A1 rendering mismatched! want G4+$A$1 - got %s", str)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"{1,2;3}",
		"SUM(1",
		"1+",
		"(1,2)",
		"A1:",
		"=",
		"Sheet1!1",
		"{A1}",
		"(1",
		"1 2",
		"1:2",
		"SUM(A:A)",
		"Sheet1!A:C",
		"1:1",
		"(#N/A,A1)",
		"#DIV/0! A1",
	}
	for _, str := range tests {
		_, err := ParseExpr(str, DefaultOptions())
		if err == nil {
			t.Errorf("%s: expected parse error", str)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := ParseExpr("=1+{1,2;3}", DefaultOptions())
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Span.Start <= 0 {
		t.Errorf("span should point inside the formula, got %d", perr.Span.Start)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		"1+2*3",
		"-A1^2%",
		`IF(A1>=10,"big ""one""",FALSE)`,
		"SUM(Sheet1!A1:B2,'My Sheet'!$C$3)",
		"SUM((A1,B1:B3))",
		"A1:C5 B2:D3",
		"'[Book1]Sheet2'!B2*2",
		"SUM(Sheet1:Sheet3!A1)",
		"{1,2.5;-3,\"x\"}",
		"Table1[[#Headers],[Unit Price]]&Table1[@Qty]",
		"IF(,1,)",
		"1.5E+300*0.25",
		"#N/A",
		"(1+2)*3",
		"Sheet1!Rate+Rate",
		"SUM((#REF!,B3))",
		"SUM(A1:B5 #REF!)",
	}
	culture := CultureOptions(';', ',')
	for _, str := range tests {
		expr, err := ParseExpr(str, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", str, err)
			continue
		}
		want := DumpExpr(expr)

		text := Format(expr, DefaultFormatOptions())
		again, err := ParseExpr(text, DefaultOptions())
		if err != nil {
			t.Errorf("%s: formatted text %s does not parse: %s", str, text, err)
			continue
		}
		if got := DumpExpr(again); got != want {
			t.Errorf("%s: round trip mismatched!\nwant: %s\ngot:  %s", str, want, got)
		}

		text = Format(expr, FormatOptions{Options: culture})
		again, err = ParseExpr(text, culture)
		if err != nil {
			t.Errorf("%s: culture text %s does not parse: %s", str, text, err)
			continue
		}
		if got := DumpExpr(again); got != want {
			t.Errorf("%s: culture round trip mismatched!\nwant: %s\ngot:  %s", str, want, got)
		}
	}
}

func TestFormatSeparators(t *testing.T) {
	expr, err := ParseExpr("SUM(1,5;2)", CultureOptions(';', ','))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Format(expr, DefaultFormatOptions()); got != "=SUM(1.5,2)" {
		t.Errorf("invariant text mismatched! want =SUM(1.5,2) - got %s", got)
	}
}
