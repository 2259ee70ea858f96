package doc

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/midbel/xlcalc/calc"
)

type Format int

const (
	Unknown Format = iota
	XML
	YAML
)

func (f Format) String() string {
	switch f {
	case XML:
		return "xml"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

func Open(file string) (*Workbook, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rs := bufio.NewReader(r)
	format := detectFormat(file, rs)
	return Read(rs, format)
}

func Read(r io.Reader, format Format) (*Workbook, error) {
	switch format {
	case XML:
		return ReadXML(r)
	case YAML:
		return ReadYAML(r)
	default:
		return nil, ErrFormat
	}
}

// Snapshot describes the current content of e. With values set, formulas
// are replaced by their last computed value.
func Snapshot(e *calc.Engine, values bool) (*Workbook, error) {
	wb := Workbook{
		Name: e.Name(),
	}
	for _, name := range e.Sheets() {
		sheet := wb.sheet(name)
		cells, err := e.Cells(name)
		if err != nil {
			return nil, err
		}
		for _, pos := range cells {
			if _, ok := e.SpillOwner(pos); ok && !values {
				continue
			}
			c := Cell{
				Ref: pos.Cell(),
			}
			if !values {
				if c.Formula, err = e.Formula(pos); err != nil {
					return nil, err
				}
			}
			if c.Formula == "" {
				if c.Value, err = e.Value(pos); err != nil {
					return nil, err
				}
			}
			sheet.Cells = append(sheet.Cells, c)
		}
	}
	if values {
		return &wb, nil
	}
	for _, n := range e.Names().List() {
		wb.Names = append(wb.Names, Name{
			Ident:   n.Ident,
			Sheet:   n.Sheet,
			Formula: n.Formula.Text,
		})
	}
	for _, t := range e.Tables() {
		wb.Tables = append(wb.Tables, Table{
			Name:    t.Name,
			Ref:     t.Area.String(),
			Columns: t.Columns,
			Totals:  t.Totals,
		})
	}
	return &wb, nil
}

func detectFormat(file string, r *bufio.Reader) Format {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xml":
		return XML
	case ".yml", ".yaml":
		return YAML
	default:
	}
	peek, err := r.Peek(64)
	if err != nil && len(peek) == 0 {
		return Unknown
	}
	if bytes.HasPrefix(bytes.TrimSpace(peek), []byte("<")) {
		return XML
	}
	return YAML
}
