package parse

import (
	"strconv"
	"strings"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type FormatOptions struct {
	LeadingEqual bool
	Options
	// Origin is the cell holding the formula; it is needed to convert
	// references between A1 and R1C1.
	Origin layout.Position
}

func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		LeadingEqual: true,
		Options:      DefaultOptions(),
	}
}

// Format writes an expression back to formula text.
func Format(expr Expr, opts FormatOptions) string {
	opts.Options = opts.Options.withDefaults()
	var buf strings.Builder
	if opts.LeadingEqual {
		buf.WriteByte('=')
	}
	f := formatter{
		opts: opts,
		buf:  &buf,
	}
	f.format(expr)
	return buf.String()
}

type formatter struct {
	opts FormatOptions
	buf  *strings.Builder
}

func (f formatter) format(expr Expr) {
	switch e := expr.(type) {
	case Literal:
		f.literal(e.value)
	case Ref:
		f.buf.WriteString(e.ref.format(f.opts.Mode, f.opts.Origin))
	case Name:
		if e.sheet != "" {
			f.buf.WriteString(layout.QuoteSheet(e.sheet))
			f.buf.WriteByte('!')
		}
		f.buf.WriteString(e.name)
	case Structured:
		f.buf.WriteString(e.ref.String())
	case Binary:
		f.format(e.left)
		switch e.op {
		case op.Union:
			f.buf.WriteRune(f.opts.ArgSeparator)
		default:
			f.buf.WriteString(op.Symbol(e.op))
		}
		f.format(e.right)
	case Unary:
		f.buf.WriteString(op.Symbol(e.op))
		f.format(e.expr)
	case Postfix:
		f.format(e.expr)
		f.buf.WriteString(op.Symbol(e.op))
	case Call:
		f.buf.WriteString(e.name)
		f.buf.WriteByte('(')
		for i := range e.args {
			if i > 0 {
				f.buf.WriteRune(f.opts.ArgSeparator)
			}
			f.format(e.args[i])
		}
		f.buf.WriteByte(')')
	case ArrayLit:
		f.buf.WriteByte('{')
		for i := range e.rows {
			if i > 0 {
				f.buf.WriteRune(f.opts.ArrayRowSeparator)
			}
			for j := range e.rows[i] {
				if j > 0 {
					f.buf.WriteRune(f.opts.ArrayColumnSeparator)
				}
				f.literal(e.rows[i][j])
			}
		}
		f.buf.WriteByte('}')
	case Group:
		f.buf.WriteByte('(')
		f.format(e.expr)
		f.buf.WriteByte(')')
	}
}

func (f formatter) literal(v value.ScalarValue) {
	switch x := v.(type) {
	case value.Float:
		f.buf.WriteString(f.number(float64(x)))
	case value.Text:
		f.buf.WriteByte('"')
		f.buf.WriteString(strings.ReplaceAll(string(x), `"`, `""`))
		f.buf.WriteByte('"')
	case value.Blank:
	default:
		f.buf.WriteString(v.String())
	}
}

func (f formatter) number(n float64) string {
	str := strconv.FormatFloat(n, 'f', -1, 64)
	if len(str) > 20 {
		str = strconv.FormatFloat(n, 'E', -1, 64)
	}
	if f.opts.DecimalSeparator != '.' {
		str = strings.Replace(str, ".", string(f.opts.DecimalSeparator), 1)
	}
	return str
}
