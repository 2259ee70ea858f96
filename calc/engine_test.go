package calc

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/midbel/log"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/store"
	"github.com/midbel/xlcalc/value"
)

func newEngine(t *testing.T, options ...Option) *Engine {
	t.Helper()
	options = append([]Option{WithStore(store.NewMemory("Sheet1", "Sheet2", "Sheet3"))}, options...)
	e, err := New(options...)
	if err != nil {
		t.Fatalf("fail to create engine: %s", err)
	}
	return e
}

func cellAt(t *testing.T, addr string) layout.Position {
	t.Helper()
	pos, err := layout.ParsePosition(addr)
	if err != nil {
		t.Fatalf("%s: invalid address: %s", addr, err)
	}
	if pos.Sheet == "" {
		pos.Sheet = "Sheet1"
	}
	return pos
}

func setFormula(t *testing.T, e *Engine, addr, text string) {
	t.Helper()
	pos := cellAt(t, addr)
	if err := e.SetCellFormula(pos.Sheet, pos.Line, pos.Column, text); err != nil {
		t.Fatalf("%s: fail to set formula %s: %s", addr, text, err)
	}
}

func setValue(t *testing.T, e *Engine, addr string, v value.ScalarValue) {
	t.Helper()
	pos := cellAt(t, addr)
	if err := e.SetCellValue(pos.Sheet, pos.Line, pos.Column, v); err != nil {
		t.Fatalf("%s: fail to set value: %s", addr, err)
	}
}

func recalculate(t *testing.T, e *Engine) Result {
	t.Helper()
	res, err := e.Recalculate()
	if err != nil {
		t.Fatalf("fail to recalculate: %s", err)
	}
	return res
}

func checkValues(t *testing.T, e *Engine, want map[string]string) {
	t.Helper()
	for addr, str := range want {
		got, err := e.Value(cellAt(t, addr))
		if err != nil {
			t.Errorf("%s: unexpected error: %s", addr, err)
			continue
		}
		if got.String() != str {
			t.Errorf("%s: value mismatched! want %s - got %s", addr, str, got)
		}
	}
}

func checkFormula(t *testing.T, e *Engine, addr, want string) {
	t.Helper()
	got, err := e.Formula(cellAt(t, addr))
	if err != nil {
		t.Fatalf("%s: unexpected error: %s", addr, err)
	}
	if got != want {
		t.Errorf("%s: formula mismatched! want %s - got %s", addr, want, got)
	}
}

func TestRecalculate(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "A1", value.Float(1))
	setValue(t, e, "A2", value.Float(2))
	setFormula(t, e, "B1", "=A1+A2")
	setFormula(t, e, "B2", "=B1*10")
	setFormula(t, e, "B3", "=1+2*3")
	setFormula(t, e, "B4", "=10%")
	setFormula(t, e, "B5", "=SUM(Sheet2!A1:A3)")
	setValue(t, e, "Sheet2!A2", value.Float(5))

	res := recalculate(t, e)
	if res.Evaluated != 5 {
		t.Errorf("evaluated mismatched! want 5 - got %d", res.Evaluated)
	}
	checkValues(t, e, map[string]string{
		"B1": "3",
		"B2": "30",
		"B3": "7",
		"B4": "0.1",
		"B5": "5",
	})

	setValue(t, e, "A1", value.Float(10))
	res = recalculate(t, e)
	if res.Evaluated != 2 {
		t.Errorf("only dependents should be evaluated! want 2 - got %d", res.Evaluated)
	}
	checkValues(t, e, map[string]string{
		"B1": "12",
		"B2": "120",
	})

	if err := e.ClearCell("Sheet1", 1, 2); err != nil {
		t.Fatalf("fail to clear cell: %s", err)
	}
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"B1": "",
		"B2": "0",
	})
	checkFormula(t, e, "B1", "")
}

func TestSetCellFormulaErrors(t *testing.T) {
	e := newEngine(t)
	err := e.SetCellFormula("Sheet1", 1, 1, "=SUM(1")
	if !errors.Is(err, ErrFormula) {
		t.Errorf("parse error expected - got %v", err)
	}
	if err := e.SetCellFormula("Other", 1, 1, "=1"); !errors.Is(err, ErrSheet) {
		t.Errorf("sheet error expected - got %v", err)
	}
	if err := e.SetCellFormula("Sheet1", 0, 1, "=1"); !errors.Is(err, ErrPosition) {
		t.Errorf("position error expected - got %v", err)
	}
	if got := e.Dependencies(cellAt(t, "A1")); len(got) != 0 {
		t.Errorf("failed formula should not enter the graph")
	}
}

func TestCycle(t *testing.T) {
	e := newEngine(t)
	setFormula(t, e, "A1", "=B1+1")
	setFormula(t, e, "B1", "=A1+1")
	setFormula(t, e, "C1", "=5")

	res, err := e.Recalculate(cellAt(t, "A1"))
	if err != nil {
		t.Fatalf("fail to recalculate: %s", err)
	}
	if !res.HasCycle {
		t.Fatalf("cycle expected")
	}
	if len(res.Cycle) != 2 {
		t.Errorf("cycle mismatched! want 2 cells - got %d", len(res.Cycle))
	}
	checkValues(t, e, map[string]string{
		"A1": "#CIRC!",
		"B1": "#CIRC!",
		"C1": "5",
	})
}

func TestIterative(t *testing.T) {
	settings := DefaultSettings()
	settings.Iterative = true
	e := newEngine(t, WithSettings(settings))
	setFormula(t, e, "A1", "=0.5*(A1+10)")

	res := recalculate(t, e)
	if !res.HasCycle || !res.Converged {
		t.Fatalf("cycle should converge: %+v", res)
	}
	got, _ := e.Value(cellAt(t, "A1"))
	f, ok := got.(value.Float)
	if !ok || f < 9.9 || f > 10.1 {
		t.Errorf("value mismatched! want 10 - got %s", got)
	}

	settings.MaxIterations = 3
	settings.Tolerance = 1e-9
	e = newEngine(t, WithSettings(settings))
	setFormula(t, e, "A1", "=A1+1")
	res = recalculate(t, e)
	if res.Converged || res.Iterations != 3 {
		t.Errorf("calculation should stop after 3 iterations: %+v", res)
	}
	checkValues(t, e, map[string]string{"A1": "3"})
}

func TestSpill(t *testing.T) {
	e := newEngine(t)
	setFormula(t, e, "A1", "={1,2;3,4}")
	setFormula(t, e, "D1", "=SUM(A1:B2)")
	res := recalculate(t, e)
	if res.Spills != 1 {
		t.Errorf("spills mismatched! want 1 - got %d", res.Spills)
	}
	checkValues(t, e, map[string]string{
		"A1": "1",
		"B1": "2",
		"A2": "3",
		"B2": "4",
		"D1": "10",
	})

	setValue(t, e, "B1", value.Text("data"))
	res = recalculate(t, e)
	if res.SpillErrors != 1 {
		t.Errorf("spill errors mismatched! want 1 - got %d", res.SpillErrors)
	}
	checkValues(t, e, map[string]string{
		"A1": "#SPILL!",
		"B1": "data",
		"A2": "",
		"B2": "",
	})

	if err := e.ClearCell("Sheet1", 1, 2); err != nil {
		t.Fatalf("fail to clear cell: %s", err)
	}
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A1": "1",
		"B1": "2",
		"B2": "4",
		"D1": "10",
	})
}

func TestSpillBlocked(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "B1", value.Float(42))
	setFormula(t, e, "A1", "={1,2;3,4}")
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A1": "#SPILL!",
		"B1": "42",
		"A2": "",
	})
}

func TestSpillReaders(t *testing.T) {
	e := newEngine(t)
	setFormula(t, e, "C1", "=A3*2")
	setValue(t, e, "Z1", value.Float(3))
	setFormula(t, e, "A1", "=SEQUENCE(Z1)")
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A3": "3",
		"C1": "6",
	})

	setValue(t, e, "Z1", value.Float(2))
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A3": "",
		"C1": "0",
	})
}

func TestStructuralEdits(t *testing.T) {
	e := newEngine(t)
	for i := 1; i <= 5; i++ {
		setValue(t, e, "A"+string(rune('0'+i)), value.Float(float64(i)))
	}
	setFormula(t, e, "C1", "=A2")
	setFormula(t, e, "D1", "=SUM(A1:A5)")
	setFormula(t, e, "E1", "='[Other]Sheet1'!A2")
	recalculate(t, e)

	if err := e.InsertRows("Sheet1", 2, 1); err != nil {
		t.Fatalf("fail to insert rows: %s", err)
	}
	checkFormula(t, e, "C1", "=A3")
	checkFormula(t, e, "D1", "=SUM(A1:A6)")
	checkFormula(t, e, "E1", "='[Other]Sheet1'!A2")

	if err := e.DeleteRows("Sheet1", 3, 1); err != nil {
		t.Fatalf("fail to delete rows: %s", err)
	}
	checkFormula(t, e, "C1", "=#REF!")
	checkFormula(t, e, "D1", "=SUM(A1:A5)")

	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"C1": "#REF!",
		"D1": "13",
		"E1": "#REF!",
	})
}

func TestStructuralShrink(t *testing.T) {
	e := newEngine(t)
	for i := 1; i <= 5; i++ {
		setValue(t, e, "A"+string(rune('0'+i)), value.Float(float64(i)))
	}
	setFormula(t, e, "C1", "=SUM(A1:A5)")
	setFormula(t, e, "D1", "=B1")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"C1": "15"})

	if err := e.DeleteRows("Sheet1", 2, 2); err != nil {
		t.Fatalf("fail to delete rows: %s", err)
	}
	checkFormula(t, e, "C1", "=SUM(A1:A3)")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"C1": "10"})

	if err := e.InsertColumns("Sheet1", 2, 1); err != nil {
		t.Fatalf("fail to insert columns: %s", err)
	}
	checkFormula(t, e, "D1", "=SUM(A1:A3)")
	checkFormula(t, e, "E1", "=C1")

	if err := e.DeleteColumns("Sheet1", 1, 1); err != nil {
		t.Fatalf("fail to delete columns: %s", err)
	}
	checkFormula(t, e, "C1", "=SUM(#REF!)")
	checkFormula(t, e, "D1", "=B1")
	if err := e.InsertRows("Sheet1", 1, 0); !errors.Is(err, ErrCount) {
		t.Errorf("count error expected - got %v", err)
	}
	if err := e.DeleteRows("Other", 1, 1); !errors.Is(err, ErrSheet) {
		t.Errorf("sheet error expected - got %v", err)
	}
}

func TestStructuralSpill(t *testing.T) {
	e := newEngine(t)
	setFormula(t, e, "A2", "={1;2;3}")
	recalculate(t, e)
	if err := e.InsertRows("Sheet1", 1, 2); err != nil {
		t.Fatalf("fail to insert rows: %s", err)
	}
	checkValues(t, e, map[string]string{"A5": ""})
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A4": "1",
		"A5": "2",
		"A6": "3",
	})
}

func TestRenameSheet(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "Sheet2!A1", value.Float(4))
	setFormula(t, e, "A1", "=Sheet2!A1*2")
	setFormula(t, e, "Sheet2!B1", "=A1+1")
	recalculate(t, e)

	if err := e.RenameSheet("Sheet2", "Data"); err != nil {
		t.Fatalf("fail to rename sheet: %s", err)
	}
	checkFormula(t, e, "A1", "=Data!A1*2")
	checkFormula(t, e, "Data!B1", "=A1+1")
	if err := e.RenameSheet("Data", "Sheet1"); !errors.Is(err, ErrSheet) {
		t.Errorf("duplicate sheet error expected - got %v", err)
	}

	setValue(t, e, "Data!A1", value.Float(5))
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A1":      "10",
		"Data!B1": "6",
	})
}

func TestNames(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "Z1", value.Float(0.5))
	setValue(t, e, "Z2", value.Float(0.25))
	setFormula(t, e, "A1", "=100*Rate")
	setFormula(t, e, "Sheet2!A1", "=100*Rate")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "#NAME?"})

	if err := e.DefineName("", "Rate", "=Sheet1!$Z$1"); err != nil {
		t.Fatalf("fail to define name: %s", err)
	}
	if err := e.DefineName("Sheet2", "Rate", "=Sheet1!$Z$2"); err != nil {
		t.Fatalf("fail to define name: %s", err)
	}
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A1":        "50",
		"Sheet2!A1": "25",
	})

	setValue(t, e, "Z1", value.Float(0.1))
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "10"})

	if err := e.RemoveName("Sheet2", "Rate"); err != nil {
		t.Fatalf("fail to remove name: %s", err)
	}
	recalculate(t, e)
	checkValues(t, e, map[string]string{"Sheet2!A1": "10"})

	if err := e.DefineName("", "A1", "=1"); !errors.Is(err, ErrName) {
		t.Errorf("name error expected - got %v", err)
	}
	if err := e.RemoveName("", "Unknown"); !errors.Is(err, ErrName) {
		t.Errorf("name error expected - got %v", err)
	}
}

func TestTables(t *testing.T) {
	e := newEngine(t)
	table := Table{
		Name:    "Sales",
		Area:    layout.NewRange(cellAt(t, "A1"), cellAt(t, "B4")),
		Columns: []string{"Item", "Qty"},
		Totals:  true,
	}
	setFormula(t, e, "D1", "=SUM(Sales[Qty])")
	if err := e.AddTable(table); err != nil {
		t.Fatalf("fail to add table: %s", err)
	}
	setValue(t, e, "A2", value.Text("a"))
	setValue(t, e, "B2", value.Float(5))
	setValue(t, e, "A3", value.Text("b"))
	setValue(t, e, "B3", value.Float(7))
	setFormula(t, e, "B4", "=SUM(B2:B3)")
	setFormula(t, e, "D2", "=ROWS(Sales[#All])")
	setFormula(t, e, "D3", "=Sales[[#Headers],[Qty]]")
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"D1": "12",
		"D2": "4",
		"D3": "Qty",
	})

	if err := e.RenameTable("Sales", "Orders"); err != nil {
		t.Fatalf("fail to rename table: %s", err)
	}
	checkFormula(t, e, "D1", "=SUM(Orders[Qty])")
	if err := e.RenameTableColumn("Orders", "Qty", "Count"); err != nil {
		t.Fatalf("fail to rename column: %s", err)
	}
	checkFormula(t, e, "D1", "=SUM(Orders[Count])")
	checkValues(t, e, map[string]string{"B1": "Count"})

	if err := e.AddTable(table); err == nil || !errors.Is(err, ErrTable) {
		t.Errorf("overlapping table error expected - got %v", err)
	}
	if err := e.RenameTable("Sales", "Other"); !errors.Is(err, ErrTable) {
		t.Errorf("unknown table error expected - got %v", err)
	}
}

type readonlyStore struct {
	*store.Memory
	locked string
}

var errLocked = errors.New("sheet is locked")

func (s readonlyStore) SetValue(pos layout.Position, v value.ScalarValue) error {
	if layout.SameSheet(pos.Sheet, s.locked) {
		return errLocked
	}
	return s.Memory.SetValue(pos, v)
}

func TestTableHeaders(t *testing.T) {
	st := readonlyStore{
		Memory: store.NewMemory("Sheet1", "Sheet2"),
		locked: "Sheet2",
	}
	e, err := New(WithStore(st))
	if err != nil {
		t.Fatalf("fail to create engine: %s", err)
	}
	table := Table{
		Name:    "Sales",
		Area:    layout.NewRange(cellAt(t, "A1"), cellAt(t, "B3")),
		Columns: []string{"Item", "Qty"},
	}
	if err := e.AddTable(table); err != nil {
		t.Fatalf("fail to add table: %s", err)
	}
	checkValues(t, e, map[string]string{
		"A1": "Item",
		"B1": "Qty",
	})

	table.Name = "Locked"
	table.Area = layout.NewRange(cellAt(t, "Sheet2!A1"), cellAt(t, "Sheet2!B3"))
	err = e.AddTable(table)
	if !errors.Is(err, errLocked) || !errors.Is(err, ErrTable) {
		t.Fatalf("header write error expected - got %v", err)
	}
	if len(e.Tables()) != 1 {
		t.Errorf("tables mismatched! want 1 - got %d", len(e.Tables()))
	}
}

func TestManual(t *testing.T) {
	settings := DefaultSettings()
	settings.Manual = true
	e := newEngine(t, WithSettings(settings))
	setFormula(t, e, "A1", "=1+1")
	res, err := e.RecalculateIfAutomatic()
	if err != nil || res.Evaluated != 0 {
		t.Fatalf("manual mode should not recalculate")
	}
	checkValues(t, e, map[string]string{"A1": ""})
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "2"})
}

func TestCulture(t *testing.T) {
	settings := DefaultSettings()
	settings.ArgSeparator = ';'
	settings.DecimalSeparator = ','
	e := newEngine(t, WithSettings(settings))
	setFormula(t, e, "A1", "=SUM(1,5;2)")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "3.5"})

	got, err := e.Evaluate("Sheet1", "=A1*2")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got.String() != "7" {
		t.Errorf("evaluate mismatched! want 7 - got %s", got)
	}
}

func TestVolatile(t *testing.T) {
	var (
		calls int
		clock = func() time.Time {
			calls++
			return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
		}
	)
	e := newEngine(t, WithClock(clock))
	setFormula(t, e, "A1", "=YEAR(TODAY())")
	setFormula(t, e, "B1", "=C1")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "2024"})

	setValue(t, e, "C1", value.Float(1))
	res := recalculate(t, e)
	if res.Evaluated != 2 {
		t.Errorf("volatile formula should be evaluated! want 2 - got %d", res.Evaluated)
	}
	if calls != 2 {
		t.Errorf("clock calls mismatched! want 2 - got %d", calls)
	}
}

func TestThreeD(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "Sheet1!A1", value.Float(1))
	setValue(t, e, "Sheet2!A1", value.Float(2))
	setValue(t, e, "Sheet3!A1", value.Float(4))
	setFormula(t, e, "B1", "=SUM(Sheet1:Sheet3!A1)")
	recalculate(t, e)
	checkValues(t, e, map[string]string{"B1": "7"})

	setValue(t, e, "Sheet2!A1", value.Float(10))
	recalculate(t, e)
	checkValues(t, e, map[string]string{"B1": "15"})
}

func TestLink(t *testing.T) {
	other := newEngine(t, WithName("Prices"))
	setValue(t, other, "A1", value.Float(9))

	e := newEngine(t)
	setFormula(t, e, "A1", "='[Prices]Sheet1'!A1*2")
	setFormula(t, e, "A2", "='[Missing]Sheet1'!A1")
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"A1": "#REF!",
		"A2": "#REF!",
	})

	e.Link("Prices", other)
	recalculate(t, e)
	checkValues(t, e, map[string]string{"A1": "18"})
}

func TestTelemetry(t *testing.T) {
	var reports []Report
	settings := DefaultSettings()
	settings.Telemetry = TelemetryFunc(func(r Report) {
		reports = append(reports, r)
	})
	e := newEngine(t, WithSettings(settings))
	setFormula(t, e, "A1", "=1")
	setFormula(t, e, "A2", "=A1+1")
	recalculate(t, e)
	if len(reports) != 1 {
		t.Fatalf("reports count mismatched! want 1 - got %d", len(reports))
	}
	if reports[0].Evaluated != 2 || reports[0].Dirty != 2 {
		t.Errorf("report mismatched: %+v", reports[0])
	}
}

func TestWriterTelemetry(t *testing.T) {
	tests := []struct {
		Structured bool
		Pattern    string
		Want       string
	}{
		{
			Pattern: "%l %n: %m",
			Want:    "INFO Book: dirty=2 evaluated=2 cycle=false",
		},
		{
			Structured: true,
			Pattern:    "%l %n %m",
			Want:       "level=INFO process=Book message=dirty=2 evaluated=2",
		},
	}
	for _, c := range tests {
		var (
			buf bytes.Buffer
			w   log.Writer
			err error
		)
		if c.Structured {
			w, err = log.Structured(&buf, c.Pattern)
		} else {
			w, err = log.Text(&buf, c.Pattern)
		}
		if err != nil {
			t.Fatalf("%s: invalid pattern: %s", c.Pattern, err)
		}
		settings := DefaultSettings()
		settings.Telemetry = WriterTelemetry(w)
		e := newEngine(t, WithSettings(settings), WithName("Book"))
		setFormula(t, e, "A1", "=1")
		setFormula(t, e, "A2", "=A1+1")
		recalculate(t, e)

		if got := buf.String(); !strings.HasPrefix(got, c.Want) {
			t.Errorf("%s: line mismatched! want %s - got %s", c.Pattern, c.Want, got)
		}
	}
}

func TestLint(t *testing.T) {
	e := newEngine(t)
	list, err := e.Lint("=SUMM(A1)+SUM(A2)+SUMM(1)")
	if err != nil {
		t.Fatalf("fail to lint: %s", err)
	}
	if len(list) != 1 || list[0].Function != "SUMM" {
		t.Fatalf("issues mismatched: %+v", list)
	}
	if !slices.ContainsFunc(list[0].Suggestions, func(s string) bool { return strings.EqualFold(s, "SUM") }) {
		t.Errorf("suggestion mismatched! want SUM in %v", list[0].Suggestions)
	}
}

func TestLoad(t *testing.T) {
	s := store.NewMemory("Sheet1")
	s.SetValue(cellAt(t, "A1"), value.Float(2))
	s.SetFormula(cellAt(t, "B1"), "=A1^3")
	e, err := New(WithStore(s))
	if err != nil {
		t.Fatalf("fail to create engine: %s", err)
	}
	recalculate(t, e)
	checkValues(t, e, map[string]string{"B1": "8"})

	s.SetFormula(cellAt(t, "C1"), "=SUM(")
	if _, err := New(WithStore(s)); !errors.Is(err, ErrFormula) {
		t.Errorf("formula error expected - got %v", err)
	}
}

func TestIfIntersection(t *testing.T) {
	e := newEngine(t)
	setValue(t, e, "D1", value.Boolean(true))
	setValue(t, e, "D2", value.Boolean(false))
	setFormula(t, e, "E2", `=IF(D1:D3,"y","n")`)
	setFormula(t, e, "E1", `=IF(D1:D3,"y","n")`)
	setFormula(t, e, "E5", `=IF(D1:D3,"y","n")`)
	setFormula(t, e, "G1", `=IF({TRUE;FALSE},"y","n")`)

	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"E1": "y",
		"E2": "n",
		"E3": "",
		"E5": "#VALUE!",
		"G1": "y",
		"G2": "n",
	})
	if _, ok := e.SpillOwner(cellAt(t, "E3")); ok {
		t.Errorf("E3: unexpected spill from IF over a reference")
	}
}

func TestReopen(t *testing.T) {
	st := store.NewMemory("Sheet1", "Sheet2")
	e, err := New(WithStore(st))
	if err != nil {
		t.Fatalf("fail to create engine: %s", err)
	}
	setValue(t, e, "A1", value.Float(1))
	setValue(t, e, "B5", value.Float(7))
	setFormula(t, e, "D5", "={1,2;3,4}")
	setFormula(t, e, "Sheet2!A1", "=SUM((Sheet1!A1,Sheet1!B5))")
	setFormula(t, e, "Sheet2!A2", "=SUM(Sheet1!A1:A2 Sheet1!A1:B8)")
	recalculate(t, e)
	checkValues(t, e, map[string]string{
		"Sheet2!A1": "8",
		"Sheet2!A2": "1",
		"E6":        "4",
	})

	if err := e.DeleteRows("Sheet1", 1, 2); err != nil {
		t.Fatalf("fail to delete rows: %s", err)
	}
	recalculate(t, e)
	checkFormula(t, e, "Sheet2!A1", "=SUM((#REF!,Sheet1!B3))")
	checkFormula(t, e, "Sheet2!A2", "=SUM(#REF! Sheet1!A1:B6)")

	other, err := New(WithStore(st))
	if err != nil {
		t.Fatalf("fail to reopen store: %s", err)
	}
	res, err := other.RecalculateAll()
	if err != nil {
		t.Fatalf("fail to recalculate: %s", err)
	}
	if res.SpillErrors != 0 {
		t.Errorf("spill errors mismatched! want 0 - got %d", res.SpillErrors)
	}
	checkValues(t, other, map[string]string{
		"D3":        "1",
		"E4":        "4",
		"Sheet2!A1": "#REF!",
		"Sheet2!A2": "#REF!",
	})
	if anchor, ok := other.SpillOwner(cellAt(t, "E4")); !ok || anchor.Cell() != "D3" {
		t.Errorf("E4: spill owner mismatched! want D3 - got %s", anchor)
	}
}
