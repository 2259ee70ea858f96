package parse

import (
	"fmt"
	"strings"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/value"
)

type Expr interface {
	fmt.Stringer
}

// Formula is the parsed form of a cell formula. Its address identifies the
// tree for the compiled expression cache: a new Formula is created every
// time the text of a cell changes.
type Formula struct {
	Text string
	Expr Expr
}

func (f *Formula) String() string {
	return f.Text
}

type Literal struct {
	value value.ScalarValue
}

func NewLiteral(v value.ScalarValue) Expr {
	return Literal{
		value: v,
	}
}

func NewNumber(f float64) Expr {
	return NewLiteral(value.Float(f))
}

func NewText(str string) Expr {
	return NewLiteral(value.Text(str))
}

func NewBlank() Expr {
	return NewLiteral(value.Blank{})
}

func (i Literal) Value() value.ScalarValue {
	return i.value
}

func (i Literal) String() string {
	return i.value.String()
}

type Ref struct {
	ref Reference
}

func NewRef(ref Reference) Expr {
	return Ref{
		ref: ref,
	}
}

func (r Ref) Reference() Reference {
	return r.ref
}

func (r Ref) String() string {
	return r.ref.String()
}

type Binary struct {
	left  Expr
	right Expr
	op    op.Op
}

func NewBinary(left, right Expr, oper op.Op) Expr {
	return Binary{
		left:  left,
		right: right,
		op:    oper,
	}
}

func (b Binary) Left() Expr {
	return b.left
}

func (b Binary) Right() Expr {
	return b.right
}

func (b Binary) Op() op.Op {
	return b.op
}

func (b Binary) String() string {
	return fmt.Sprintf("%s%s%s", b.left, op.Symbol(b.op), b.right)
}

type Unary struct {
	expr Expr
	op   op.Op
}

func NewUnary(expr Expr, oper op.Op) Expr {
	return Unary{
		expr: expr,
		op:   oper,
	}
}

func (u Unary) Expr() Expr {
	return u.expr
}

func (u Unary) Op() op.Op {
	return u.op
}

func (u Unary) String() string {
	return fmt.Sprintf("%s%s", op.Symbol(u.op), u.expr)
}

type Postfix struct {
	expr Expr
	op   op.Op
}

func NewPostfix(expr Expr, oper op.Op) Expr {
	return Postfix{
		expr: expr,
		op:   oper,
	}
}

func (p Postfix) Expr() Expr {
	return p.expr
}

func (p Postfix) Op() op.Op {
	return p.op
}

func (p Postfix) String() string {
	return fmt.Sprintf("%s%s", p.expr, op.Symbol(p.op))
}

type Call struct {
	name string
	args []Expr
}

func NewCall(name string, args []Expr) Expr {
	return Call{
		name: name,
		args: args,
	}
}

func (c Call) Name() string {
	return c.name
}

func (c Call) Args() []Expr {
	return c.args
}

func (c Call) String() string {
	var args []string
	for i := range c.args {
		args = append(args, c.args[i].String())
	}
	return fmt.Sprintf("%s(%s)", c.name, strings.Join(args, ","))
}

// ArrayLit is an inline array of constants.
type ArrayLit struct {
	rows [][]value.ScalarValue
}

func NewArrayLit(rows [][]value.ScalarValue) Expr {
	return ArrayLit{
		rows: rows,
	}
}

func (a ArrayLit) Rows() [][]value.ScalarValue {
	return a.rows
}

func (a ArrayLit) String() string {
	return value.NewArray(a.rows).String()
}

type Structured struct {
	ref StructuredRef
}

func NewStructured(ref StructuredRef) Expr {
	return Structured{
		ref: ref,
	}
}

func (s Structured) Reference() StructuredRef {
	return s.ref
}

func (s Structured) String() string {
	return s.ref.String()
}

// Name is a defined name. A sheet qualified name only looks at the names
// scoped to that sheet.
type Name struct {
	sheet string
	name  string
}

func NewName(sheet, name string) Expr {
	return Name{
		sheet: sheet,
		name:  name,
	}
}

func (n Name) Sheet() string {
	return n.sheet
}

func (n Name) Ident() string {
	return n.name
}

func (n Name) String() string {
	if n.sheet == "" {
		return n.name
	}
	return n.sheet + "!" + n.name
}

type Group struct {
	expr Expr
}

func NewGroup(expr Expr) Expr {
	return Group{
		expr: expr,
	}
}

func (g Group) Expr() Expr {
	return g.expr
}

func (g Group) String() string {
	return fmt.Sprintf("(%s)", g.expr)
}

// Unwrap removes the parentheses around an expression.
func Unwrap(expr Expr) Expr {
	for {
		g, ok := expr.(Group)
		if !ok {
			return expr
		}
		expr = g.expr
	}
}

// IsReference reports whether expr can produce a reference: cells, names,
// tables, reference operators and function calls. The #REF! literal left by
// a deleted reference counts as one.
func IsReference(expr Expr) bool {
	switch e := Unwrap(expr).(type) {
	case Ref, Name, Structured, Call:
		return true
	case Literal:
		return IsDeletedRef(e)
	case Binary:
		return op.Reference(e.op)
	default:
		return false
	}
}

// IsDeletedRef reports whether expr is the #REF! literal.
func IsDeletedRef(expr Expr) bool {
	lit, ok := Unwrap(expr).(Literal)
	if !ok {
		return false
	}
	err, ok := lit.value.(value.Error)
	return ok && err == value.ErrRef
}
