package eval

import (
	"strings"
	"testing"

	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type table struct {
	area    layout.Range
	columns []string
}

type testResolver struct {
	cells  map[string]value.ScalarValue
	names  map[string]parse.Expr
	tables map[string]table
}

func (r testResolver) ResolveReference(env *Env, ref parse.Reference) (value.Value, error) {
	rg, err := ref.Resolve(env.Origin)
	if err != nil {
		return nil, value.ErrRef
	}
	if rg.Single() {
		return r.at(rg.Starts), nil
	}
	data := make([][]value.ScalarValue, rg.Height())
	for i := range data {
		data[i] = make([]value.ScalarValue, rg.Width())
		for j := range data[i] {
			pos := rg.Starts
			pos.Line += int64(i)
			pos.Column += int64(j)
			data[i][j] = r.at(pos)
		}
	}
	return value.NewRefArray(rg.Starts, data), nil
}

func (r testResolver) at(pos layout.Position) value.ScalarValue {
	if v, ok := r.cells[pos.Key()]; ok {
		return v
	}
	return value.Blank{}
}

func (r testResolver) ResolveName(_ *Env, sheet, name string) (parse.Expr, error) {
	key := strings.ToUpper(name)
	if sheet != "" {
		key = strings.ToUpper(sheet) + "!" + key
	}
	return r.names[key], nil
}

func (r testResolver) ResolveTable(_ *Env, ref parse.StructuredRef) (parse.Reference, error) {
	t, ok := r.tables[strings.ToUpper(ref.Table)]
	if !ok {
		return parse.Reference{}, value.ErrRef
	}
	rg := t.area
	rg.Starts.Line++
	for i, c := range t.columns {
		if strings.EqualFold(c, ref.Column) {
			rg.Starts.Column += int64(i)
			rg.Ends.Column = rg.Starts.Column
			return parse.RangeReference(rg), nil
		}
	}
	if ref.Column != "" {
		return parse.Reference{}, value.ErrRef
	}
	return parse.RangeReference(rg), nil
}

func testEnv(t *testing.T) (*Env, *int) {
	t.Helper()
	cells := map[string]value.ScalarValue{
		"A1": value.Float(1),
		"A2": value.Float(2),
		"B1": value.Float(3),
		"B2": value.Float(4),
		"C1": value.Text("x"),
		"C2": value.Boolean(true),
		"E1": value.Text("Item"),
		"F1": value.Text("Qty"),
		"E2": value.Text("a"),
		"F2": value.Float(5),
		"E3": value.Text("b"),
		"F3": value.Float(7),
	}
	res := testResolver{
		cells:  make(map[string]value.ScalarValue),
		names:  make(map[string]parse.Expr),
		tables: make(map[string]table),
	}
	for addr, v := range cells {
		pos, err := layout.ParsePosition("Sheet1!" + addr)
		if err != nil {
			t.Fatalf("%s: invalid address: %s", addr, err)
		}
		res.cells[pos.Key()] = v
	}
	define := func(name, str string) {
		expr, err := parse.ParseExpr(str, parse.DefaultOptions())
		if err != nil {
			t.Fatalf("%s: invalid definition: %s", name, err)
		}
		res.names[name] = expr
	}
	define("RATE", "0.5")
	define("DATA", "Sheet1!$A$1:$A$2")
	define("LOOP", "LOOP+1")
	define("SHEET1!LOCAL", "42")

	start, _ := layout.ParsePosition("Sheet1!E1")
	end, _ := layout.ParsePosition("Sheet1!F3")
	res.tables["SALES"] = table{
		area:    layout.NewRange(start, end),
		columns: []string{"Item", "Qty"},
	}

	var calls int
	env := Env{
		Workbook: "Book1",
		Sheet:    "Sheet1",
		Origin:   layout.NewPosition("Sheet1", 2, 4),
		Funcs:    testRegistry(&calls),
		Resolver: res,
	}
	return &env, &calls
}

func testRegistry(calls *int) *Registry {
	reg := NewRegistry()
	reg.Register(Function{
		Name:  "TOTAL",
		Max:   Variadic,
		Modes: []ArgMode{ArgRef},
		Call: func(_ *Env, args []*Arg) value.Value {
			var total float64
			for _, a := range args {
				v := a.Eval()
				if value.IsArray(v) || a.Reference() {
					for _, s := range value.Scalars(v) {
						if e, ok := s.(value.Error); ok {
							return e
						}
						if f, ok := s.(value.Float); ok {
							total += float64(f)
						}
					}
					continue
				}
				f, err := value.CastToFloat(v)
				if err != nil {
					return value.Fail(err)
				}
				total += float64(f)
			}
			return value.Float(total)
		},
	})
	reg.Register(Function{
		Name:  "IF",
		Min:   2,
		Max:   3,
		Modes: []ArgMode{ArgValue, ArgLazy},
		Call: func(_ *Env, args []*Arg) value.Value {
			ok, err := value.CastToBool(args[0].Scalar())
			if err != nil {
				return value.Fail(err)
			}
			if ok {
				return args[1].Eval()
			}
			if len(args) < 3 {
				return value.Boolean(false)
			}
			return args[2].Eval()
		},
	})
	reg.Register(Function{
		Name: "BOOM",
		Call: func(_ *Env, _ []*Arg) value.Value {
			*calls++
			return value.ErrCalc
		},
	})
	reg.Register(Function{
		Name:     "TICK",
		Volatile: true,
		Call: func(env *Env, _ []*Arg) value.Value {
			return value.Float(env.Random())
		},
	})
	reg.Register(Function{
		Name:  "ROWOF",
		Min:   1,
		Max:   1,
		Modes: []ArgMode{ArgRef},
		Call: func(_ *Env, args []*Arg) value.Value {
			list, ok := args[0].Ranges()
			if !ok || len(list) == 0 {
				return value.ErrValue
			}
			return value.Float(list[0].Starts.Line)
		},
	})
	return reg
}

func TestEval(t *testing.T) {
	tests := []struct {
		Expr string
		Want string
	}{
		{Expr: "1+2*3", Want: "7"},
		{Expr: "10%", Want: "0.1"},
		{Expr: "-2^2", Want: "4"},
		{Expr: "2^3^2", Want: "64"},
		{Expr: `"a"&1+1`, Want: "a2"},
		{Expr: "1/0", Want: "#DIV/0!"},
		{Expr: `"3"+2`, Want: "5"},
		{Expr: "TRUE+1", Want: "2"},
		{Expr: `"abc"+1`, Want: "#VALUE!"},
		{Expr: "#N/A+1/0", Want: "#N/A"},
		{Expr: "1/0+#N/A", Want: "#DIV/0!"},
		{Expr: `"a"<"B"`, Want: "TRUE"},
		{Expr: `1<"a"`, Want: "TRUE"},
		{Expr: `"z"<TRUE`, Want: "TRUE"},
		{Expr: `"ABC"="abc"`, Want: "TRUE"},
		{Expr: "Z99=0", Want: "TRUE"},
		{Expr: `Z99=""`, Want: "TRUE"},
		{Expr: "A1+B2", Want: "5"},
		{Expr: "Sheet1!$B$1*2", Want: "6"},
		{Expr: "A1:A2*10", Want: "{10;20}"},
		{Expr: "A1:B2+{1,2}", Want: "{2,5;3,6}"},
		{Expr: "{1,2,3}+{1;2}", Want: "{2,3,4;3,4,5}"},
		{Expr: "{1,2}+{1,2,3}", Want: "{2,4,#VALUE!}"},
		{Expr: "TOTAL(A1:C2)", Want: "10"},
		{Expr: `TOTAL("3",TRUE)`, Want: "4"},
		{Expr: "TOTAL(C1)", Want: "0"},
		{Expr: "TOTAL((A1,B1:B2))", Want: "8"},
		{Expr: "TOTAL(A1:B2 B1:B3)", Want: "7"},
		{Expr: "B1:B2 A2:B3", Want: "4"},
		{Expr: "A1:A2 B1:B2", Want: "#NULL!"},
		{Expr: "TOTAL(A1:A2:B1)", Want: "10"},
		{Expr: "TOTAL(DATA)*RATE", Want: "1.5"},
		{Expr: "DATA B2:C2", Want: "#NULL!"},
		{Expr: "DATA A2:B2", Want: "2"},
		{Expr: "UNKNOWN+1", Want: "#NAME?"},
		{Expr: "LOOP", Want: "#CIRC!"},
		{Expr: "Sheet1!LOCAL", Want: "42"},
		{Expr: "TOTAL(Sales[Qty])", Want: "12"},
		{Expr: "TOTAL(Other[Qty])", Want: "#REF!"},
		{Expr: "NOPE(1)", Want: "#NAME?"},
		{Expr: "IF()", Want: "#VALUE!"},
		{Expr: "IF(TRUE)", Want: "#VALUE!"},
		{Expr: "IF(,1,2)", Want: "2"},
		{Expr: `IF(A1:A2,"big","small")`, Want: "big"},
		{Expr: "ROWOF(B2:C5)", Want: "2"},
		{Expr: "ROWOF(DATA)", Want: "1"},
		{Expr: "ROWOF(1)", Want: "#VALUE!"},
		{Expr: "_xlfn.TOTAL(1,2)", Want: "3"},
	}
	env, _ := testEnv(t)
	cache := NewCache()
	for _, c := range tests {
		f, err := parse.Parse(c.Expr, parse.DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected parse error %s", c.Expr, err)
			continue
		}
		got := Eval(f.Expr, env.At(env.Origin))
		if got.String() != c.Want {
			t.Errorf("%s: result mismatched! want %s - got %s", c.Expr, c.Want, got)
		}
		got = cache.Eval(f, env.At(env.Origin))
		if got.String() != c.Want {
			t.Errorf("%s: compiled result mismatched! want %s - got %s", c.Expr, c.Want, got)
		}
	}
}

func TestEvalR1C1(t *testing.T) {
	env, _ := testEnv(t)
	opts := parse.DefaultOptions()
	opts.Mode = parse.ModeR1C1

	expr, err := parse.ParseExpr("R[-1]C[-3]+R2C2", opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := Eval(expr, env); got.String() != "5" {
		t.Errorf("result mismatched! want 5 - got %s", got)
	}
}

func TestLazyArguments(t *testing.T) {
	env, calls := testEnv(t)
	expr, _ := parse.ParseExpr("IF(TRUE,1,BOOM())", parse.DefaultOptions())
	if got := Eval(expr, env); got.String() != "1" {
		t.Errorf("result mismatched! want 1 - got %s", got)
	}
	if *calls != 0 {
		t.Errorf("unselected branch evaluated %d times", *calls)
	}
	expr, _ = parse.ParseExpr("IF(FALSE,1,BOOM())", parse.DefaultOptions())
	if got := Eval(expr, env); got.String() != "#CALC!" {
		t.Errorf("result mismatched! want #CALC! - got %s", got)
	}
	if *calls != 1 {
		t.Errorf("selected branch evaluated %d times", *calls)
	}
}

func TestImplicitIntersection(t *testing.T) {
	tests := []struct {
		Line   int64
		Column int64
		Expr   string
		Want   string
	}{
		{Line: 2, Column: 4, Expr: "A1:A2", Want: "2"},
		{Line: 1, Column: 4, Expr: "A1:A2", Want: "1"},
		{Line: 5, Column: 4, Expr: "A1:A2", Want: "#VALUE!"},
		{Line: 9, Column: 2, Expr: "A1:B1", Want: "3"},
		{Line: 9, Column: 2, Expr: "A1:B2", Want: "#VALUE!"},
		{Line: 9, Column: 9, Expr: "{7,8}", Want: "7"},
		{Line: 9, Column: 9, Expr: "B2", Want: "4"},
	}
	env, _ := testEnv(t)
	for _, c := range tests {
		expr, err := parse.ParseExpr(c.Expr, parse.DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", c.Expr, err)
			continue
		}
		x := env.At(layout.NewPosition("Sheet1", c.Line, c.Column))
		got := x.Implicit(Eval(expr, x))
		if got.String() != c.Want {
			t.Errorf("%s at %d:%d: value mismatched! want %s - got %s", c.Expr, c.Line, c.Column, c.Want, got)
		}
	}
}

func TestCache(t *testing.T) {
	env, _ := testEnv(t)
	cache := NewCache()

	f, _ := parse.Parse("A1+1", parse.DefaultOptions())
	for i := 0; i < 3; i++ {
		cache.Eval(f, env)
	}
	hits, misses := cache.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("cache stats mismatched! want 2/1 - got %d/%d", hits, misses)
	}
	g, _ := parse.Parse("A1+1", parse.DefaultOptions())
	cache.Eval(g, env)
	if cache.Len() != 2 {
		t.Errorf("formulas parsed twice should have their own entry, got %d entries", cache.Len())
	}
	cache.Forget(f)
	if cache.Len() != 1 {
		t.Errorf("forgotten formula still cached, got %d entries", cache.Len())
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"SUM", "SUMIF", "COUNT", "AVERAGE"} {
		reg.Register(Function{Name: n})
	}
	if _, ok := reg.Lookup("_xlfn.sum"); !ok {
		t.Errorf("prefixed name not found")
	}
	list := reg.Suggest("summ")
	if len(list) == 0 || list[0] != "SUM" {
		t.Errorf("suggestion mismatched! want SUM - got %v", list)
	}
	list = reg.Suggest("cnt")
	if len(list) == 0 || list[0] != "COUNT" {
		t.Errorf("suggestion mismatched! want COUNT - got %v", list)
	}
	if list := reg.Suggest("zzzzzz"); len(list) != 0 {
		t.Errorf("unexpected suggestions %v", list)
	}
}

func TestVolatile(t *testing.T) {
	env, _ := testEnv(t)
	for str, want := range map[string]bool{
		"TICK()+1":      true,
		"IF(A1,TICK())": true,
		"TOTAL(A1:B2)":  false,
		"A1+NOPE(TICK)": false,
	} {
		expr, err := parse.ParseExpr(str, parse.DefaultOptions())
		if err != nil {
			t.Errorf("%s: unexpected error %s", str, err)
			continue
		}
		if got := env.Funcs.Volatile(expr); got != want {
			t.Errorf("%s: volatile flag mismatched! want %t - got %t", str, want, got)
		}
	}
}
