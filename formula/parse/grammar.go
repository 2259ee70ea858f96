package parse

import (
	"fmt"

	"github.com/midbel/xlcalc/formula/op"
)

const (
	powLowest = iota
	powCmp
	powConcat
	powAdd
	powMul
	powPow
	powPercent
	powUnary
	powIsect
	powRange
)

var defaultBindings = map[op.Op]int{
	op.Add:      powAdd,
	op.Sub:      powAdd,
	op.Mul:      powMul,
	op.Div:      powMul,
	op.Percent:  powPercent,
	op.Pow:      powPow,
	op.Concat:   powConcat,
	op.Eq:       powCmp,
	op.Ne:       powCmp,
	op.Lt:       powCmp,
	op.Le:       powCmp,
	op.Gt:       powCmp,
	op.Ge:       powCmp,
	op.Isect:    powIsect,
	op.RangeRef: powRange,
}

type (
	PrefixFunc func(*Parser) (Expr, error)
	InfixFunc  func(*Parser, Expr) (Expr, error)
)

type Grammar struct {
	name string

	prefix   map[op.Op]PrefixFunc
	infix    map[op.Op]InfixFunc
	postfix  map[op.Op]InfixFunc
	bindings map[op.Op]int
}

func NewGrammar(name string) *Grammar {
	g := Grammar{
		name:     name,
		prefix:   make(map[op.Op]PrefixFunc),
		infix:    make(map[op.Op]InfixFunc),
		postfix:  make(map[op.Op]InfixFunc),
		bindings: make(map[op.Op]int),
	}
	for k, v := range defaultBindings {
		g.bindings[k] = v
	}
	return &g
}

func FormulaGrammar() *Grammar {
	g := NewGrammar("formula")

	g.RegisterPrefix(op.Cell, parseAddress)
	g.RegisterPrefix(op.Sheet, parseQualified)
	g.RegisterPrefix(op.Structured, parseStructured)
	g.RegisterPrefix(op.Ident, parseIdentifier)
	g.RegisterPrefix(op.Number, parseNumber)
	g.RegisterPrefix(op.Text, parseText)
	g.RegisterPrefix(op.Bool, parseBool)
	g.RegisterPrefix(op.Error, parseError)
	g.RegisterPrefix(op.Sub, parseUnary)
	g.RegisterPrefix(op.Add, parseUnary)
	g.RegisterPrefix(op.BegGrp, parseGroup)
	g.RegisterPrefix(op.BegArr, parseArray)

	g.RegisterPostfix(op.BegGrp, parseCall)
	g.RegisterPostfix(op.Percent, parsePercent)

	g.RegisterInfix(op.RangeRef, parseRange)
	g.RegisterInfix(op.Isect, parseBinary)
	g.RegisterInfix(op.Add, parseBinary)
	g.RegisterInfix(op.Sub, parseBinary)
	g.RegisterInfix(op.Mul, parseBinary)
	g.RegisterInfix(op.Div, parseBinary)
	g.RegisterInfix(op.Concat, parseBinary)
	g.RegisterInfix(op.Pow, parseBinary)
	g.RegisterInfix(op.Eq, parseBinary)
	g.RegisterInfix(op.Ne, parseBinary)
	g.RegisterInfix(op.Lt, parseBinary)
	g.RegisterInfix(op.Le, parseBinary)
	g.RegisterInfix(op.Gt, parseBinary)
	g.RegisterInfix(op.Ge, parseBinary)

	return g
}

func (g *Grammar) Context() string {
	return g.name
}

func (g *Grammar) Pow(kind op.Op) int {
	pow, ok := g.bindings[kind]
	if !ok {
		pow = powLowest
	}
	return pow
}

func (g *Grammar) Prefix(tok Token) (PrefixFunc, error) {
	fn, ok := g.prefix[tok.Type]
	if !ok {
		return nil, fmt.Errorf("unexpected %s", tok)
	}
	return fn, nil
}

func (g *Grammar) Infix(tok Token) (InfixFunc, error) {
	fn, ok := g.infix[tok.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported infix operator %s", tok)
	}
	return fn, nil
}

func (g *Grammar) Postfix(tok Token) (InfixFunc, error) {
	fn, ok := g.postfix[tok.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported postfix operator %s", tok)
	}
	return fn, nil
}

func (g *Grammar) RegisterInfix(kd op.Op, fn InfixFunc) {
	g.infix[kd] = fn
}

func (g *Grammar) RegisterPostfix(kd op.Op, fn InfixFunc) {
	g.postfix[kd] = fn
}

func (g *Grammar) RegisterPrefix(kd op.Op, fn PrefixFunc) {
	g.prefix[kd] = fn
}

func (g *Grammar) RegisterBinding(kd op.Op, pow int) {
	g.bindings[kd] = pow
}
