package doc

import (
	"fmt"
	"io"
	"strings"

	sax "github.com/midbel/codecs/xml"
)

type xmlReader struct {
	reader   *sax.Reader
	workbook *Workbook
	current  *Sheet
}

// ReadXML reads a workbook description such as
//
//	<workbook name="Book1">
//	  <sheet name="Sheet1">
//	    <cell ref="A1" value="10"/>
//	    <cell ref="B1" formula="=A1*Rate"/>
//	  </sheet>
//	  <name ident="Rate" formula="=0.2"/>
//	  <table name="Sales" ref="Sheet1!D1:E4" columns="Item,Qty" totals="false"/>
//	</workbook>
func ReadXML(r io.Reader) (*Workbook, error) {
	rs := xmlReader{
		reader:   sax.NewReader(r),
		workbook: new(Workbook),
	}
	rs.reader.Element(sax.LocalName("workbook"), rs.onWorkbook)
	rs.reader.Element(sax.LocalName("sheet"), rs.onSheet)
	rs.reader.Element(sax.LocalName("cell"), rs.onCell)
	rs.reader.Element(sax.LocalName("name"), rs.onName)
	rs.reader.Element(sax.LocalName("table"), rs.onTable)
	if err := rs.reader.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}
	return rs.workbook, nil
}

func (r *xmlReader) onWorkbook(_ *sax.Reader, el sax.E) error {
	r.workbook.Name = el.GetAttributeValue("name")
	return nil
}

func (r *xmlReader) onSheet(_ *sax.Reader, el sax.E) error {
	name := el.GetAttributeValue("name")
	if name == "" {
		return fmt.Errorf("sheet without name")
	}
	r.current = r.workbook.sheet(name)
	return nil
}

func (r *xmlReader) onCell(_ *sax.Reader, el sax.E) error {
	if r.current == nil {
		return fmt.Errorf("cell outside of sheet")
	}
	cell := Cell{
		Ref:     el.GetAttributeValue("ref"),
		Formula: el.GetAttributeValue("formula"),
	}
	if cell.Ref == "" {
		return fmt.Errorf("cell without reference")
	}
	if cell.Formula == "" {
		v, err := parseValue(el.GetAttributeValue("type"), el.GetAttributeValue("value"))
		if err != nil {
			return err
		}
		cell.Value = v
	}
	r.current.Cells = append(r.current.Cells, cell)
	return nil
}

func (r *xmlReader) onName(_ *sax.Reader, el sax.E) error {
	n := Name{
		Ident:   el.GetAttributeValue("ident"),
		Sheet:   el.GetAttributeValue("sheet"),
		Formula: el.GetAttributeValue("formula"),
	}
	if n.Ident == "" || n.Formula == "" {
		return fmt.Errorf("name without identifier or formula")
	}
	r.workbook.Names = append(r.workbook.Names, n)
	return nil
}

func (r *xmlReader) onTable(_ *sax.Reader, el sax.E) error {
	t := Table{
		Name:   el.GetAttributeValue("name"),
		Ref:    el.GetAttributeValue("ref"),
		Totals: el.GetAttributeValue("totals") == "true",
	}
	if cols := el.GetAttributeValue("columns"); cols != "" {
		for _, c := range strings.Split(cols, ",") {
			t.Columns = append(t.Columns, strings.TrimSpace(c))
		}
	}
	r.workbook.Tables = append(r.workbook.Tables, t)
	return nil
}
