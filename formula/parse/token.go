package parse

import (
	"fmt"

	"github.com/midbel/xlcalc/formula/op"
)

type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Literal string
	Type    op.Op
	// Space is set when blanks separate the token from the previous one.
	Space bool
	End   int
	Position
}

func (t Token) String() string {
	var str string
	switch t.Type {
	case op.Invalid:
		return "<invalid>"
	case op.EOF:
		return "<eof>"
	case op.Number:
		str = "number"
	case op.Text:
		str = "text"
	case op.Bool:
		str = "boolean"
	case op.Error:
		str = "error"
	case op.Ident:
		str = "identifier"
	case op.Cell:
		str = "cell"
	case op.Sheet:
		str = "sheet"
	case op.Structured:
		str = "structured"
	case op.Comma:
		return "<comma>"
	case op.Semi:
		return "<semicolon>"
	case op.BegGrp:
		return "<beg-group>"
	case op.EndGrp:
		return "<end-group>"
	case op.BegArr:
		return "<beg-array>"
	case op.EndArr:
		return "<end-array>"
	case op.RangeRef:
		return "<range>"
	case op.Isect:
		return "<intersect>"
	case op.Add:
		return "<add>"
	case op.Sub:
		return "<subtract>"
	case op.Mul:
		return "<multiply>"
	case op.Div:
		return "<divide>"
	case op.Percent:
		return "<percent>"
	case op.Pow:
		return "<power>"
	case op.Concat:
		return "<concat>"
	case op.Eq:
		return "<equal>"
	case op.Ne:
		return "<notequal>"
	case op.Lt:
		return "<lesser>"
	case op.Le:
		return "<lesseq>"
	case op.Gt:
		return "<greater>"
	case op.Ge:
		return "<greateq>"
	}
	return fmt.Sprintf("%s(%s)", str, t.Literal)
}

type RefMode int8

const (
	ModeA1 RefMode = iota
	ModeR1C1
)

func (m RefMode) String() string {
	if m == ModeR1C1 {
		return "R1C1"
	}
	return "A1"
}

// Options controls the separators and the reference notation used when
// reading and writing formulas.
type Options struct {
	ArgSeparator         rune
	DecimalSeparator     rune
	ArrayColumnSeparator rune
	ArrayRowSeparator    rune
	Mode                 RefMode
}

func DefaultOptions() Options {
	return Options{
		ArgSeparator:         ',',
		DecimalSeparator:     '.',
		ArrayColumnSeparator: ',',
		ArrayRowSeparator:    ';',
		Mode:                 ModeA1,
	}
}

// CultureOptions derives the array separators from the argument and decimal
// separators of a culture.
func CultureOptions(arg, dec rune) Options {
	opts := DefaultOptions()
	opts.ArgSeparator = arg
	opts.DecimalSeparator = dec
	if arg == ';' {
		opts.ArrayColumnSeparator = '\\'
	}
	return opts
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ArgSeparator == 0 {
		o.ArgSeparator = def.ArgSeparator
	}
	if o.DecimalSeparator == 0 {
		o.DecimalSeparator = def.DecimalSeparator
	}
	if o.ArrayColumnSeparator == 0 {
		o.ArrayColumnSeparator = def.ArrayColumnSeparator
	}
	if o.ArrayRowSeparator == 0 {
		o.ArrayRowSeparator = def.ArrayRowSeparator
	}
	return o
}

type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("(formula) %s: %s", e.Pos, e.Msg)
}

type Span struct {
	Start int
	End   int
}

type ParseError struct {
	Pos  Position
	Span Span
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("(formula) %s: %s", e.Pos, e.Msg)
}
