package parse

import (
	"math"
	"strconv"
	"strings"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type Parser struct {
	tokens []Token
	index  int
	curr   Token
	peek   Token

	opts    Options
	grammar *Grammar
}

// Parse reads a formula; a failure leaves nothing behind, the parser does
// not recover.
func Parse(str string, opts Options) (*Formula, error) {
	expr, err := ParseExpr(str, opts)
	if err != nil {
		return nil, err
	}
	f := Formula{
		Text: str,
		Expr: expr,
	}
	return &f, nil
}

func ParseExpr(str string, opts Options) (Expr, error) {
	p := NewParser(FormulaGrammar(), opts)
	return p.ParseString(str)
}

func NewParser(g *Grammar, opts Options) *Parser {
	return &Parser{
		grammar: g,
		opts:    opts.withDefaults(),
	}
}

func (p *Parser) ParseString(str string) (Expr, error) {
	tokens, err := Tokenize(str, p.opts)
	if err != nil {
		return nil, err
	}
	return p.ParseTokens(tokens)
}

func (p *Parser) ParseTokens(tokens []Token) (Expr, error) {
	p.tokens = tokens
	p.index = 0
	p.next()
	p.next()
	if p.done() {
		return nil, p.makeError("empty formula")
	}
	expr, err := p.parse(powLowest)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.makeError("unexpected " + p.curr.String())
	}
	return expr, nil
}

func (p *Parser) parse(pow int) (Expr, error) {
	fn, err := p.grammar.Prefix(p.curr)
	if err != nil {
		return nil, p.wrapError(err)
	}
	left, err := fn(p)
	if err != nil {
		return nil, err
	}
	for {
		fn, err := p.grammar.Postfix(p.curr)
		if err != nil {
			break
		}
		left, err = fn(p, left)
		if err != nil {
			return nil, err
		}
	}
	for !p.done() && pow < p.pow(p.curr.Type) {
		fn, err := p.grammar.Infix(p.curr)
		if err != nil {
			return nil, p.wrapError(err)
		}
		left, err = fn(p, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) next() {
	p.curr = p.peek
	if p.index < len(p.tokens) {
		p.peek = p.tokens[p.index]
		p.index++
		return
	}
	p.peek = Token{Type: op.EOF}
}

func (p *Parser) done() bool {
	return p.is(op.EOF)
}

func (p *Parser) is(kind op.Op) bool {
	return p.curr.Type == kind
}

func (p *Parser) pow(kind op.Op) int {
	return p.grammar.Pow(kind)
}

func (p *Parser) currentLiteral() string {
	return p.curr.Literal
}

func (p *Parser) makeError(msg string) error {
	return &ParseError{
		Pos: p.curr.Position,
		Span: Span{
			Start: p.curr.Offset,
			End:   p.curr.End,
		},
		Msg: msg,
	}
}

func (p *Parser) wrapError(err error) error {
	return p.makeError(err.Error())
}

func parseCall(p *Parser, expr Expr) (Expr, error) {
	name, ok := expr.(Name)
	if !ok || name.sheet != "" {
		return nil, p.makeError("function name expected before '('")
	}
	p.next()
	var args []Expr
	if p.is(op.EndGrp) {
		p.next()
		return NewCall(strings.ToUpper(name.name), args), nil
	}
	for {
		var arg Expr
		if p.is(op.Comma) || p.is(op.EndGrp) {
			arg = NewBlank()
		} else {
			a, err := p.parse(powLowest)
			if err != nil {
				return nil, err
			}
			arg = a
		}
		args = append(args, arg)
		switch p.curr.Type {
		case op.Comma:
			p.next()
			continue
		case op.EndGrp:
			p.next()
		default:
			return nil, p.makeError("unexpected " + p.curr.String() + " in function call")
		}
		break
	}
	return NewCall(strings.ToUpper(name.name), args), nil
}

func parseBinary(p *Parser, left Expr) (Expr, error) {
	oper := p.curr.Type
	p.next()
	right, err := p.parse(p.pow(oper))
	if err != nil {
		return nil, err
	}
	if oper == op.Isect && (!IsReference(left) || !IsReference(right)) {
		return nil, p.makeError("intersection expects references")
	}
	return NewBinary(left, right, oper), nil
}

func parseUnary(p *Parser) (Expr, error) {
	oper := p.curr.Type
	p.next()
	right, err := p.parse(powUnary)
	if err != nil {
		return nil, err
	}
	return NewUnary(right, oper), nil
}

func parsePercent(p *Parser, expr Expr) (Expr, error) {
	expr = NewPostfix(expr, p.curr.Type)
	p.next()
	return expr, nil
}

// parseGroup handles parentheses. A comma separated list of references
// inside them is a union.
func parseGroup(p *Parser) (Expr, error) {
	p.next()
	expr, err := p.parse(powLowest)
	if err != nil {
		return nil, err
	}
	if p.is(op.Comma) && !IsReference(expr) {
		return nil, p.makeError("union expects references")
	}
	for p.is(op.Comma) {
		p.next()
		right, err := p.parse(powLowest)
		if err != nil {
			return nil, err
		}
		if !IsReference(right) {
			return nil, p.makeError("union expects references")
		}
		expr = NewBinary(expr, right, op.Union)
	}
	if !p.is(op.EndGrp) {
		return nil, p.makeError("missing ')' at end of expression")
	}
	p.next()
	return NewGroup(expr), nil
}

func parseArray(p *Parser) (Expr, error) {
	p.next()
	var (
		rows [][]value.ScalarValue
		row  []value.ScalarValue
	)
	for {
		v, err := parseConstant(p)
		if err != nil {
			return nil, err
		}
		row = append(row, v)
		switch p.curr.Type {
		case op.Comma:
			p.next()
			continue
		case op.Semi:
			rows = append(rows, row)
			row = nil
			p.next()
			continue
		case op.EndArr:
			rows = append(rows, row)
			p.next()
		default:
			return nil, p.makeError("unexpected " + p.curr.String() + " in array")
		}
		break
	}
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(rows[0]) {
			return nil, p.makeError("array rows must have the same number of columns")
		}
	}
	return NewArrayLit(rows), nil
}

func parseConstant(p *Parser) (value.ScalarValue, error) {
	var sign float64 = 1
	if p.is(op.Sub) || p.is(op.Add) {
		if p.is(op.Sub) {
			sign = -1
		}
		p.next()
		if !p.is(op.Number) {
			return nil, p.makeError("number expected after sign in array")
		}
	}
	defer p.next()
	switch p.curr.Type {
	case op.Number:
		f, err := strconv.ParseFloat(p.currentLiteral(), 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, p.makeError("invalid number " + p.currentLiteral())
		}
		return value.Float(sign * f), nil
	case op.Text:
		return value.Text(p.currentLiteral()), nil
	case op.Bool:
		return value.Boolean(p.currentLiteral() == "TRUE"), nil
	case op.Error:
		e, _ := value.ErrorFromCode(p.currentLiteral())
		return e, nil
	default:
		return nil, p.makeError("constant expected in array, got " + p.curr.String())
	}
}

func parseNumber(p *Parser) (Expr, error) {
	f, err := strconv.ParseFloat(p.currentLiteral(), 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, p.makeError("invalid number " + p.currentLiteral())
	}
	p.next()
	return NewNumber(f), nil
}

func parseText(p *Parser) (Expr, error) {
	defer p.next()
	return NewText(p.currentLiteral()), nil
}

func parseBool(p *Parser) (Expr, error) {
	defer p.next()
	return NewLiteral(value.Boolean(p.currentLiteral() == "TRUE")), nil
}

func parseError(p *Parser) (Expr, error) {
	e, ok := value.ErrorFromCode(p.currentLiteral())
	if !ok {
		return nil, p.makeError("unknown error " + p.currentLiteral())
	}
	p.next()
	return NewLiteral(e), nil
}

func parseIdentifier(p *Parser) (Expr, error) {
	id := NewName("", p.currentLiteral())
	p.next()
	return id, nil
}

func parseStructured(p *Parser) (Expr, error) {
	ref, err := ParseStructured(p.currentLiteral())
	if err != nil {
		return nil, p.wrapError(err)
	}
	p.next()
	return NewStructured(ref), nil
}

func parseAddress(p *Parser) (Expr, error) {
	end, err := p.parseEndpoint(p.currentLiteral())
	if err != nil {
		return nil, err
	}
	p.next()
	ref := Reference{
		Start: end,
	}
	return NewRef(ref), nil
}

// parseQualified handles everything that can follow a sheet prefix: a cell,
// a sheet scoped name or #REF!.
func parseQualified(p *Parser) (Expr, error) {
	var (
		lit  = p.currentLiteral()
		ref  Reference
		rest = lit
	)
	if ix := strings.LastIndexByte(lit, ']'); ix >= 0 {
		ref.Workbook = strings.Replace(lit[:ix], "[", "", 1)
		rest = lit[ix+1:]
		if ref.Workbook == "" {
			return nil, p.makeError("empty workbook name")
		}
	}
	ref.Sheet, ref.EndSheet, _ = strings.Cut(rest, ":")
	if ref.Sheet == "" {
		return nil, p.makeError("empty sheet name")
	}
	p.next()
	switch p.curr.Type {
	case op.Cell:
		end, err := p.parseEndpoint(p.currentLiteral())
		if err != nil {
			return nil, err
		}
		p.next()
		ref.Start = end
		return NewRef(ref), nil
	case op.Error:
		if p.currentLiteral() != value.ErrRef.Code() {
			break
		}
		p.next()
		return NewLiteral(value.ErrRef), nil
	case op.Ident:
		if ref.Workbook != "" || ref.EndSheet != "" {
			return nil, p.makeError("names can only be qualified by a single sheet")
		}
		name := NewName(ref.Sheet, p.currentLiteral())
		p.next()
		return name, nil
	}
	return nil, p.makeError("cell reference expected after sheet " + lit)
}

func parseRange(p *Parser, left Expr) (Expr, error) {
	p.next()
	right, err := p.parse(powRange)
	if err != nil {
		return nil, err
	}
	lr, ok1 := left.(Ref)
	rr, ok2 := right.(Ref)
	if ok1 && ok2 && !lr.ref.IsRange && !rr.ref.IsRange {
		r := rr.ref
		if r.Sheet != "" && (!layout.SameSheet(r.Sheet, lr.ref.Sheet) || r.Workbook != lr.ref.Workbook || r.EndSheet != lr.ref.EndSheet) {
			return nil, p.makeError("range: both ends should be on the same sheet")
		}
		ref := lr.ref
		ref.End = r.Start
		ref.IsRange = true
		return NewRef(ref), nil
	}
	if (isColumnName(left) && isColumnName(right)) || (isRowNumber(left) && isRowNumber(right)) {
		return nil, p.makeError("range: whole column and row references are not supported")
	}
	if !IsReference(left) || !IsReference(right) {
		return nil, p.makeError("range: address expected")
	}
	return NewBinary(left, right, op.RangeRef), nil
}

// isColumnName reports whether expr is the left or right part of a column
// reference like A:C.
func isColumnName(expr Expr) bool {
	n, ok := expr.(Name)
	return ok && layout.ColumnIndex(strings.ToUpper(n.name)) > 0
}

func isRowNumber(expr Expr) bool {
	lit, ok := expr.(Literal)
	if !ok {
		return false
	}
	f, ok := lit.value.(value.Float)
	return ok && f >= 1 && f <= layout.MaxLines && float64(f) == math.Trunc(float64(f))
}

func (p *Parser) parseEndpoint(lit string) (Endpoint, error) {
	if p.opts.Mode == ModeR1C1 {
		return p.parseR1C1(lit)
	}
	return p.parseA1(lit)
}

func (p *Parser) parseA1(lit string) (Endpoint, error) {
	var (
		end Endpoint
		i   int
	)
	if i < len(lit) && lit[i] == '$' {
		end.AbsCols = true
		i++
	}
	col, n := layout.ParseIndex(lit[i:])
	i += n
	if i < len(lit) && lit[i] == '$' {
		end.AbsLine = true
		i++
	}
	line, err := strconv.ParseInt(lit[i:], 10, 64)
	if err != nil {
		return end, p.makeError("invalid cell address " + lit)
	}
	end.Line, end.Column = line, col
	if !layout.NewPosition("", line, col).Valid() {
		return end, p.makeError("cell address outside of grid " + lit)
	}
	return end, nil
}

func (p *Parser) parseR1C1(lit string) (Endpoint, error) {
	end := Endpoint{
		Offset: true,
	}
	upper := strings.ToUpper(lit)
	ix := strings.IndexByte(upper, 'C')
	if !strings.HasPrefix(upper, "R") || ix < 0 {
		return end, p.makeError("invalid R1C1 address " + lit)
	}
	var err error
	end.Line, end.AbsLine, err = parseAxis(upper[1:ix])
	if err != nil {
		return end, p.makeError("invalid R1C1 address " + lit)
	}
	end.Column, end.AbsCols, err = parseAxis(upper[ix+1:])
	if err != nil {
		return end, p.makeError("invalid R1C1 address " + lit)
	}
	if end.AbsLine && (end.Line < 1 || end.Line > layout.MaxLines) {
		return end, p.makeError("row outside of grid " + lit)
	}
	if end.AbsCols && (end.Column < 1 || end.Column > layout.MaxColumns) {
		return end, p.makeError("column outside of grid " + lit)
	}
	return end, nil
}

func parseAxis(str string) (int64, bool, error) {
	if str == "" {
		return 0, false, nil
	}
	if strings.HasPrefix(str, "[") {
		n, err := strconv.ParseInt(strings.Trim(str, "[]"), 10, 64)
		return n, false, err
	}
	n, err := strconv.ParseInt(str, 10, 64)
	return n, true, err
}
