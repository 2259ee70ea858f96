package doc

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/midbel/xlcalc/calc"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook name="Budget">
  <sheet name="Sheet1">
    <cell ref="A1" value="Item"/>
    <cell ref="B1" value="Qty"/>
    <cell ref="A2" value="pen"/>
    <cell ref="B2" type="number" value="4"/>
    <cell ref="A3" value="ink"/>
    <cell ref="B3" value="6"/>
    <cell ref="D1" formula="=SUM(Stock[Qty])*Rate"/>
    <cell ref="D2" type="error" value="#N/A"/>
    <cell ref="D3" type="bool" value="true"/>
  </sheet>
  <sheet name="Sheet2">
    <cell ref="A1" formula="=Sheet1!D1+1"/>
  </sheet>
  <name ident="Rate" formula="=2"/>
  <table name="Stock" ref="Sheet1!A1:B3" columns="Item, Qty" totals="false"/>
</workbook>`

const sampleYAML = `
name: Budget
sheets:
  - name: Sheet1
    cells:
      A1: Item
      B1: Qty
      A2: pen
      B2: 4
      A3: ink
      B3: 6.0
      D1: =SUM(Stock[Qty])*Rate
      D2: "#N/A"
      D3: true
      E1: "'=not a formula"
  - name: Sheet2
    cells:
      A1: =Sheet1!D1+1
names:
  - name: Rate
    formula: "=2"
tables:
  - name: Stock
    ref: Sheet1!A1:B3
    columns: [Item, Qty]
`

func load(t *testing.T, wb *Workbook) *calc.Engine {
	t.Helper()
	e, err := wb.Engine()
	if err != nil {
		t.Fatalf("fail to load workbook: %s", err)
	}
	if _, err := e.Recalculate(); err != nil {
		t.Fatalf("fail to recalculate: %s", err)
	}
	return e
}

func checkWorkbook(t *testing.T, wb *Workbook) {
	t.Helper()
	if wb.Name != "Budget" {
		t.Errorf("name mismatched! want Budget - got %s", wb.Name)
	}
	if len(wb.Sheets) != 2 || len(wb.Names) != 1 || len(wb.Tables) != 1 {
		t.Fatalf("workbook mismatched: %d sheets, %d names, %d tables", len(wb.Sheets), len(wb.Names), len(wb.Tables))
	}
	e := load(t, wb)
	tests := []struct {
		Addr string
		Want string
	}{
		{"Sheet1!D1", "20"},
		{"Sheet1!D2", "#N/A"},
		{"Sheet1!D3", "TRUE"},
		{"Sheet2!A1", "21"},
	}
	for _, c := range tests {
		pos, _ := layout.ParsePosition(c.Addr)
		got, err := e.Value(pos)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Addr, err)
			continue
		}
		if got.String() != c.Want {
			t.Errorf("%s: value mismatched! want %s - got %s", c.Addr, c.Want, got)
		}
	}
	tb, ok := e.Table("stock")
	if !ok || len(tb.Columns) != 2 || tb.Columns[1] != "Qty" {
		t.Errorf("table mismatched: %+v", tb)
	}
}

func TestReadXML(t *testing.T) {
	wb, err := ReadXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	checkWorkbook(t, wb)
}

func TestReadYAML(t *testing.T) {
	wb, err := ReadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	checkWorkbook(t, wb)

	e := load(t, wb)
	got, _ := e.Value(layout.NewPosition("Sheet1", 1, 5))
	if got.String() != "=not a formula" {
		t.Errorf("escaped text mismatched! want =not a formula - got %s", got)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"book.xml":  sampleXML,
		"book.yaml": sampleYAML,
		"book.txt":  sampleXML,
	}
	for name, content := range files {
		file := filepath.Join(dir, name)
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			t.Fatalf("%s: fail to write: %s", name, err)
		}
		wb, err := Open(file)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", name, err)
			continue
		}
		if len(wb.Sheets) != 2 {
			t.Errorf("%s: sheets mismatched! want 2 - got %d", name, len(wb.Sheets))
		}
	}
}

func TestSnapshot(t *testing.T) {
	wb, err := ReadYAML(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	e := load(t, wb)

	snap, err := Snapshot(e, false)
	if err != nil {
		t.Fatalf("fail to snapshot: %s", err)
	}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, snap); err != nil {
		t.Fatalf("fail to write: %s", err)
	}
	back, err := ReadYAML(&buf)
	if err != nil {
		t.Fatalf("fail to read back: %s", err)
	}
	checkWorkbook(t, back)

	values, err := Snapshot(e, true)
	if err != nil {
		t.Fatalf("fail to snapshot: %s", err)
	}
	for _, c := range values.Sheets[1].Cells {
		if c.Formula != "" {
			t.Errorf("%s: formula should be replaced by its value", c.Ref)
		}
		if c.Ref == "A1" && c.Value.String() != "21" {
			t.Errorf("%s: value mismatched! want 21 - got %s", c.Ref, c.Value)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		Kind string
		Text string
		Want value.ScalarValue
	}{
		{"", "1.5", value.Float(1.5)},
		{"", "true", value.Boolean(true)},
		{"", "#DIV/0!", value.ErrDiv0},
		{"", "abc", value.Text("abc")},
		{"", "", value.Blank{}},
		{"text", "12", value.Text("12")},
		{"number", " 12 ", value.Float(12)},
		{"error", "#ref!", value.ErrRef},
	}
	for _, c := range tests {
		got, err := parseValue(c.Kind, c.Text)
		if err != nil {
			t.Errorf("%s: unexpected error: %s", c.Text, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%s: value mismatched! want %v - got %v", c.Text, c.Want, got)
		}
	}
	for _, kind := range []string{"number", "bool", "error", "date"} {
		if _, err := parseValue(kind, "xyz"); !errors.Is(err, ErrFile) {
			t.Errorf("%s: error expected", kind)
		}
	}
}
