package parse

import (
	"strings"
	"testing"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/xuri/efp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		Input string
		Want  []op.Op
	}{
		{
			Input: "=1+2*3",
			Want:  []op.Op{op.Number, op.Add, op.Number, op.Mul, op.Number},
		},
		{
			Input: `=SUM(A1:B2, "foo")`,
			Want:  []op.Op{op.Ident, op.BegGrp, op.Cell, op.RangeRef, op.Cell, op.Comma, op.Text, op.EndGrp},
		},
		{
			Input: "=A1:B5 B2:C3",
			Want:  []op.Op{op.Cell, op.RangeRef, op.Cell, op.Isect, op.Cell, op.RangeRef, op.Cell},
		},
		{
			Input: "='My Sheet'!$A$1",
			Want:  []op.Op{op.Sheet, op.Cell},
		},
		{
			Input: "=Sheet1:Sheet3!A1",
			Want:  []op.Op{op.Sheet, op.Cell},
		},
		{
			Input: "='[Book1]Sheet2'!B2",
			Want:  []op.Op{op.Sheet, op.Cell},
		},
		{
			Input: "=[Book1]Sheet2!B2",
			Want:  []op.Op{op.Sheet, op.Cell},
		},
		{
			Input: "=Table1[[#Headers],[Col]]",
			Want:  []op.Op{op.Structured},
		},
		{
			Input: "={1,2;3,4}",
			Want:  []op.Op{op.BegArr, op.Number, op.Comma, op.Number, op.Semi, op.Number, op.Comma, op.Number, op.EndArr},
		},
		{
			Input: "=IF(true, #N/A, #div/0!)",
			Want:  []op.Op{op.Ident, op.BegGrp, op.Bool, op.Comma, op.Error, op.Comma, op.Error, op.EndGrp},
		},
		{
			Input: "=LOG10(100)",
			Want:  []op.Op{op.Ident, op.BegGrp, op.Number, op.EndGrp},
		},
		{
			Input: "=XFE1+1",
			Want:  []op.Op{op.Ident, op.Add, op.Number},
		},
		{
			Input: "=1.5E+3%",
			Want:  []op.Op{op.Number, op.Percent},
		},
		{
			Input: "=a1<>b1",
			Want:  []op.Op{op.Cell, op.Ne, op.Cell},
		},
		{
			Input: "=SUM (A1)",
			Want:  []op.Op{op.Ident, op.BegGrp, op.Cell, op.EndGrp},
		},
		{
			Input: "=(A1:B2) (B1:C3)",
			Want:  []op.Op{op.BegGrp, op.Cell, op.RangeRef, op.Cell, op.EndGrp, op.Isect, op.BegGrp, op.Cell, op.RangeRef, op.Cell, op.EndGrp},
		},
	}
	for _, c := range tests {
		tokens, err := Tokenize(c.Input, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Input, err)
			continue
		}
		got := kinds(tokens)
		if !sameKinds(got, c.Want) {
			t.Errorf("%s: tokens mismatched! want %v - got %v", c.Input, c.Want, got)
		}
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		Input string
		Want  string
		Opts  Options
	}{
		{Input: `="say ""hi"""`, Want: `say "hi"`, Opts: DefaultOptions()},
		{Input: "='O''Brien'!A1", Want: "O'Brien", Opts: DefaultOptions()},
		{Input: "=1,5", Want: "1.5", Opts: CultureOptions(';', ',')},
		{Input: "=.25", Want: ".25", Opts: DefaultOptions()},
		{Input: "=#n/a", Want: "#N/A", Opts: DefaultOptions()},
	}
	for _, c := range tests {
		tokens, err := Tokenize(c.Input, c.Opts)
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Input, err)
			continue
		}
		if got := tokens[0].Literal; got != c.Want {
			t.Errorf("%s: literal mismatched! want %s - got %s", c.Input, c.Want, got)
		}
	}
}

func TestTokenizeCulture(t *testing.T) {
	tokens, err := Tokenize("=SUM(1,5;2)", CultureOptions(';', ','))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := []op.Op{op.Ident, op.BegGrp, op.Number, op.Comma, op.Number, op.EndGrp}
	if got := kinds(tokens); !sameKinds(got, want) {
		t.Errorf("tokens mismatched! want %v - got %v", want, got)
	}
	tokens, err = Tokenize("={1\\2;3\\4}", CultureOptions(';', ','))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want = []op.Op{op.BegArr, op.Number, op.Comma, op.Number, op.Semi, op.Number, op.Comma, op.Number, op.EndArr}
	if got := kinds(tokens); !sameKinds(got, want) {
		t.Errorf("array tokens mismatched! want %v - got %v", want, got)
	}
}

func TestTokenizeR1C1(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeR1C1
	tests := []string{"R1C1", "R[-1]C[2]", "RC", "R2C", "RC[3]", "r[1]c"}
	for _, str := range tests {
		tokens, err := Tokenize("="+str, opts)
		if err != nil {
			t.Errorf("%s: unexpected error %s", str, err)
			continue
		}
		if tokens[0].Type != op.Cell || tokens[0].Literal != str {
			t.Errorf("%s: cell token expected, got %s", str, tokens[0])
		}
	}
	tokens, err := Tokenize("=ROUND(1)", opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tokens[0].Type != op.Ident {
		t.Errorf("ROUND should be an identifier, got %s", tokens[0])
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []string{
		`="unterminated`,
		"=#FOO!",
		"='Sheet1!A1",
		"=Table1[Col",
		"=1 ~ 2",
	}
	for _, str := range tests {
		_, err := Tokenize(str, DefaultOptions())
		if err == nil {
			t.Errorf("%s: expected lexical error", str)
			continue
		}
		if _, ok := err.(*LexError); !ok {
			t.Errorf("%s: expected *LexError, got %T", str, err)
		}
	}
}

func TestTokenizeAgainstEfp(t *testing.T) {
	tests := []string{
		`=SUM(A1:B2,C3)*2`,
		`=IF(A1>0,"pos","neg")`,
		`=CONCATENATE("a","b",UPPER("c"))`,
		`=VLOOKUP(B2,Sheet2!A1:C10,3,FALSE)`,
		`=AVERAGE(MIN(A1:A3),MAX(B1:B3))`,
	}
	for _, str := range tests {
		ps := efp.ExcelParser()
		var (
			wantFuncs []string
			wantTexts []string
		)
		for _, tok := range ps.Parse(str) {
			switch {
			case tok.TType == efp.TokenTypeFunction && tok.TSubType == efp.TokenSubTypeStart:
				wantFuncs = append(wantFuncs, strings.ToUpper(tok.TValue))
			case tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeText:
				wantTexts = append(wantTexts, tok.TValue)
			}
		}
		tokens, err := Tokenize(str, DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", str, err)
			continue
		}
		var funcs, texts []string
		for i, tok := range tokens {
			switch {
			case tok.Type == op.Ident && i+1 < len(tokens) && tokens[i+1].Type == op.BegGrp:
				funcs = append(funcs, strings.ToUpper(tok.Literal))
			case tok.Type == op.Text:
				texts = append(texts, tok.Literal)
			}
		}
		if strings.Join(funcs, ",") != strings.Join(wantFuncs, ",") {
			t.Errorf("%s: functions mismatched! want %v - got %v", str, wantFuncs, funcs)
		}
		if strings.Join(texts, ",") != strings.Join(wantTexts, ",") {
			t.Errorf("%s: texts mismatched! want %v - got %v", str, wantTexts, texts)
		}
	}
}

func kinds(tokens []Token) []op.Op {
	var list []op.Op
	for _, tok := range tokens {
		if tok.Type == op.EOF {
			break
		}
		list = append(list, tok.Type)
	}
	return list
}

func sameKinds(got, want []op.Op) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
