package doc

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
	"gopkg.in/yaml.v3"
)

type yamlWorkbook struct {
	Name   string      `yaml:"name"`
	Sheets []yamlSheet `yaml:"sheets"`
	Names  []yamlName  `yaml:"names"`
	Tables []yamlTable `yaml:"tables"`
}

type yamlSheet struct {
	Name  string         `yaml:"name"`
	Cells map[string]any `yaml:"cells"`
}

type yamlName struct {
	Name    string `yaml:"name"`
	Sheet   string `yaml:"sheet"`
	Formula string `yaml:"formula"`
}

type yamlTable struct {
	Name    string   `yaml:"name"`
	Ref     string   `yaml:"ref"`
	Columns []string `yaml:"columns"`
	Totals  bool     `yaml:"totals"`
}

// ReadYAML reads a workbook description. Cells are given as a mapping from
// address to content: text starting with = is a formula, a leading
// apostrophe keeps the rest of the text as is.
func ReadYAML(r io.Reader) (*Workbook, error) {
	var doc yamlWorkbook
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	wb := Workbook{
		Name: doc.Name,
	}
	for _, s := range doc.Sheets {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: sheet without name", ErrFile)
		}
		sheet := wb.sheet(s.Name)
		for ref, raw := range s.Cells {
			c, err := yamlCell(ref, raw)
			if err != nil {
				return nil, err
			}
			sheet.Cells = append(sheet.Cells, c)
		}
		slices.SortFunc(sheet.Cells, compareCells)
	}
	for _, n := range doc.Names {
		wb.Names = append(wb.Names, Name{
			Ident:   n.Name,
			Sheet:   n.Sheet,
			Formula: n.Formula,
		})
	}
	for _, t := range doc.Tables {
		wb.Tables = append(wb.Tables, Table(t))
	}
	return &wb, nil
}

func yamlCell(ref string, raw any) (Cell, error) {
	c := Cell{
		Ref: ref,
	}
	switch v := raw.(type) {
	case nil:
		c.Value = value.Blank{}
	case bool:
		c.Value = value.Boolean(v)
	case int:
		c.Value = value.Float(v)
	case float64:
		c.Value = value.Float(v)
	case string:
		switch {
		case strings.HasPrefix(v, "="):
			c.Formula = v
		case strings.HasPrefix(v, "'"):
			c.Value = value.Text(v[1:])
		default:
			c.Value = GuessValue(v)
		}
	default:
		return c, fmt.Errorf("%w: %s: unsupported value %v", ErrFile, ref, raw)
	}
	return c, nil
}

func compareCells(a, b Cell) int {
	p1, err1 := layout.ParsePosition(a.Ref)
	p2, err2 := layout.ParsePosition(b.Ref)
	if err1 != nil || err2 != nil {
		return strings.Compare(a.Ref, b.Ref)
	}
	if c := cmp.Compare(p1.Line, p2.Line); c != 0 {
		return c
	}
	return cmp.Compare(p1.Column, p2.Column)
}

// formatCell is the inverse of yamlCell, used when a workbook is written
// back.
func formatCell(c Cell) any {
	if c.Formula != "" {
		return c.Formula
	}
	switch v := c.Value.(type) {
	case nil, value.Blank:
		return nil
	case value.Float:
		return float64(v)
	case value.Boolean:
		return bool(v)
	case value.Text:
		str := string(v)
		if _, ok := GuessValue(str).(value.Text); !ok || strings.HasPrefix(str, "=") || strings.HasPrefix(str, "'") {
			return "'" + str
		}
		return str
	default:
		return c.Value.String()
	}
}

// WriteYAML writes w in the format read by ReadYAML.
func WriteYAML(w io.Writer, wb *Workbook) error {
	doc := yamlWorkbook{
		Name: wb.Name,
	}
	for _, s := range wb.Sheets {
		ys := yamlSheet{
			Name:  s.Name,
			Cells: make(map[string]any),
		}
		for _, c := range s.Cells {
			ys.Cells[c.Ref] = formatCell(c)
		}
		doc.Sheets = append(doc.Sheets, ys)
	}
	for _, n := range wb.Names {
		doc.Names = append(doc.Names, yamlName{
			Name:    n.Ident,
			Sheet:   n.Sheet,
			Formula: n.Formula,
		})
	}
	for _, t := range wb.Tables {
		doc.Tables = append(doc.Tables, yamlTable(t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
