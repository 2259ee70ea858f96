package parse

import (
	"bytes"
	"io"
	"strings"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/value"
)

// DumpExpr writes the tree in a form independent of separators and culture.
// Two trees are equal when their dumps are.
func DumpExpr(expr Expr) string {
	var buf bytes.Buffer
	dumpExpr(&buf, expr)
	return buf.String()
}

func dumpExpr(w io.Writer, expr Expr) {
	switch e := expr.(type) {
	case Literal:
		dumpLiteral(w, e.value)
	case Ref:
		io.WriteString(w, "ref(")
		io.WriteString(w, e.ref.String())
		io.WriteString(w, ")")
	case Name:
		io.WriteString(w, "name(")
		io.WriteString(w, e.String())
		io.WriteString(w, ")")
	case Structured:
		io.WriteString(w, "table(")
		io.WriteString(w, e.ref.Table)
		io.WriteString(w, ", ")
		io.WriteString(w, e.ref.Scope.String())
		io.WriteString(w, ", ")
		io.WriteString(w, e.ref.Column)
		io.WriteString(w, ", ")
		io.WriteString(w, e.ref.EndColumn)
		io.WriteString(w, ")")
	case Binary:
		io.WriteString(w, "binary(")
		dumpExpr(w, e.left)
		io.WriteString(w, ", ")
		dumpExpr(w, e.right)
		io.WriteString(w, ", ")
		io.WriteString(w, dumpOp(e.op))
		io.WriteString(w, ")")
	case Unary:
		io.WriteString(w, "unary(")
		dumpExpr(w, e.expr)
		io.WriteString(w, ", ")
		io.WriteString(w, op.Symbol(e.op))
		io.WriteString(w, ")")
	case Postfix:
		io.WriteString(w, "postfix(")
		dumpExpr(w, e.expr)
		io.WriteString(w, ", ")
		io.WriteString(w, op.Symbol(e.op))
		io.WriteString(w, ")")
	case Call:
		io.WriteString(w, "call(")
		io.WriteString(w, e.name)
		for i := range e.args {
			io.WriteString(w, ", ")
			dumpExpr(w, e.args[i])
		}
		io.WriteString(w, ")")
	case ArrayLit:
		io.WriteString(w, "array(")
		for i := range e.rows {
			if i > 0 {
				io.WriteString(w, "; ")
			}
			for j := range e.rows[i] {
				if j > 0 {
					io.WriteString(w, ", ")
				}
				dumpLiteral(w, e.rows[i][j])
			}
		}
		io.WriteString(w, ")")
	case Group:
		io.WriteString(w, "group(")
		dumpExpr(w, e.expr)
		io.WriteString(w, ")")
	default:
		io.WriteString(w, "?")
	}
}

func dumpOp(oper op.Op) string {
	switch oper {
	case op.Isect:
		return "isect"
	case op.Union:
		return "union"
	default:
		return op.Symbol(oper)
	}
}

func dumpLiteral(w io.Writer, v value.ScalarValue) {
	var kind string
	switch v.(type) {
	case value.Float:
		kind = "number"
	case value.Text:
		kind = "text"
	case value.Boolean:
		kind = "boolean"
	case value.Error:
		kind = "error"
	default:
		kind = "blank"
	}
	io.WriteString(w, kind)
	io.WriteString(w, "(")
	io.WriteString(w, strings.ReplaceAll(v.String(), ")", "\\)"))
	io.WriteString(w, ")")
}
