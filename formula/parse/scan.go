package parse

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type ScannerState struct {
	pos      int
	next     int
	char     rune
	position Position
}

type Scanner struct {
	input []byte
	pos   int
	next  int
	char  rune

	Position

	buf   bytes.Buffer
	opts  Options
	depth int
	err   *LexError
}

// Scan prepares a scanner for a formula. A leading = is skipped.
func Scan(str string, opts Options) *Scanner {
	scan := Scanner{
		input: []byte(str),
		opts:  opts.withDefaults(),
	}
	scan.Position.Line = 1
	scan.read()
	scan.skipBlanks()
	if scan.char == equal {
		scan.read()
	}
	return &scan
}

// Tokenize drains a scanner and inserts the intersection tokens implied by
// blanks between two references.
func Tokenize(str string, opts Options) ([]Token, error) {
	var (
		scan = Scan(str, opts)
		list []Token
	)
	for {
		tok := scan.Scan()
		if tok.Type == op.Invalid {
			return nil, scan.Err()
		}
		if n := len(list); n > 0 && tok.Space {
			last := list[n-1]
			if isRefEnd(last) && isRefStart(tok) && !(last.Type == op.Ident && tok.Type == op.BegGrp) {
				isect := Token{
					Literal:  " ",
					Type:     op.Isect,
					Position: tok.Position,
					End:      tok.Offset,
				}
				list = append(list, isect)
			}
		}
		list = append(list, tok)
		if tok.Type == op.EOF {
			break
		}
	}
	return list, nil
}

func isRefEnd(tok Token) bool {
	switch tok.Type {
	case op.Cell, op.Ident, op.Structured, op.EndGrp:
		return true
	case op.Error:
		return tok.Literal == value.ErrRef.Code()
	default:
		return false
	}
}

func isRefStart(tok Token) bool {
	switch tok.Type {
	case op.Cell, op.Ident, op.Sheet, op.Structured, op.BegGrp:
		return true
	case op.Error:
		return tok.Literal == value.ErrRef.Code()
	default:
		return false
	}
}

func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

func (s *Scanner) Save() ScannerState {
	return ScannerState{
		pos:      s.pos,
		next:     s.next,
		char:     s.char,
		position: s.Position,
	}
}

func (s *Scanner) Restore(state ScannerState) {
	s.Position = state.position
	s.pos = state.pos
	s.next = state.next
	s.char = state.char
}

func (s *Scanner) Peek() Token {
	var (
		state = s.Save()
		depth = s.depth
		err   = s.err
	)
	defer func() {
		s.Restore(state)
		s.depth = depth
		s.err = err
	}()
	return s.Scan()
}

func (s *Scanner) Scan() Token {
	var tok Token
	tok.Space = s.skipBlanks()
	tok.Position = s.Position
	if s.done() {
		tok.Type = op.EOF
		tok.End = s.pos
		return tok
	}
	defer s.reset()
	switch {
	case s.char == dquote:
		s.scanText(&tok)
	case s.char == squote:
		s.scanQuotedSheet(&tok)
	case s.char == pound:
		s.scanError(&tok)
	case isDigit(s.char) || (s.char == s.opts.DecimalSeparator && isDigit(s.peek())):
		s.scanNumber(&tok)
	case s.char == lsquare:
		s.scanBracket(&tok)
	case s.isSeparator():
		s.scanSeparator(&tok)
	case isOperator(s.char):
		s.scanOperator(&tok)
	case isDelimiter(s.char):
		s.scanDelimiter(&tok)
	case isIdentStart(s.char):
		s.scanIdent(&tok)
	default:
		s.fail("unexpected character " + string(s.char))
		tok.Type = op.Invalid
		s.read()
	}
	if tok.Type == op.Invalid && s.err == nil {
		s.fail("invalid token")
	}
	tok.End = s.pos
	return tok
}

func (s *Scanner) isSeparator() bool {
	if s.depth > 0 {
		return s.char == s.opts.ArrayColumnSeparator || s.char == s.opts.ArrayRowSeparator
	}
	return s.char == s.opts.ArgSeparator || s.char == semi
}

func (s *Scanner) scanSeparator(tok *Token) {
	tok.Literal = string(s.char)
	switch {
	case s.depth > 0 && s.char == s.opts.ArrayColumnSeparator:
		tok.Type = op.Comma
	case s.depth > 0:
		tok.Type = op.Semi
	case s.char == s.opts.ArgSeparator:
		tok.Type = op.Comma
	default:
		tok.Type = op.Semi
	}
	s.read()
}

func (s *Scanner) scanText(tok *Token) {
	s.read()
	for !s.done() {
		if s.char == dquote {
			if s.peek() != dquote {
				break
			}
			s.read()
		}
		s.write()
		s.read()
	}
	if s.char != dquote {
		s.fail("unterminated string")
		tok.Type = op.Invalid
		return
	}
	s.read()
	tok.Type = op.Text
	tok.Literal = s.literal()
}

func (s *Scanner) scanQuotedSheet(tok *Token) {
	s.read()
	for !s.done() {
		if s.char == squote {
			if s.peek() != squote {
				break
			}
			s.read()
		}
		s.write()
		s.read()
	}
	if s.char != squote {
		s.fail("unterminated quoted sheet name")
		tok.Type = op.Invalid
		return
	}
	s.read()
	if s.char != bang {
		s.fail("'!' expected after quoted sheet name")
		tok.Type = op.Invalid
		return
	}
	s.read()
	tok.Type = op.Sheet
	tok.Literal = s.literal()
}

func (s *Scanner) scanError(tok *Token) {
	var (
		rest  = string(s.input[s.pos:])
		found value.Error
		size  int
	)
	for _, e := range value.Errors() {
		code := e.Code()
		if len(code) <= size || len(rest) < len(code) {
			continue
		}
		if strings.EqualFold(rest[:len(code)], code) {
			found, size = e, len(code)
		}
	}
	if size == 0 {
		s.fail("unknown error literal")
		tok.Type = op.Invalid
		return
	}
	for i := 0; i < size; i++ {
		s.read()
	}
	tok.Type = op.Error
	tok.Literal = found.Code()
}

func (s *Scanner) scanNumber(tok *Token) {
	tok.Type = op.Number
	for isDigit(s.char) {
		s.write()
		s.read()
	}
	if s.char == s.opts.DecimalSeparator {
		s.buf.WriteRune(dot)
		s.read()
		for isDigit(s.char) {
			s.write()
			s.read()
		}
	}
	if s.char == 'e' || s.char == 'E' {
		state := s.Save()
		size := s.buf.Len()
		s.write()
		s.read()
		if s.char == plus || s.char == minus {
			s.write()
			s.read()
		}
		if !isDigit(s.char) {
			s.Restore(state)
			s.buf.Truncate(size)
		}
		for isDigit(s.char) {
			s.write()
			s.read()
		}
	}
	tok.Literal = s.literal()
}

// scanBracket handles a leading '[': either a workbook qualified sheet like
// [Book1]Sheet1! or a structured reference without table name.
func (s *Scanner) scanBracket(tok *Token) {
	if !s.readBracket() {
		tok.Type = op.Invalid
		return
	}
	state := s.Save()
	size := s.buf.Len()
	if isIdentStart(s.char) {
		for isIdentChar(s.char) {
			s.write()
			s.read()
		}
		if s.char == bang {
			s.read()
			tok.Type = op.Sheet
			tok.Literal = s.literal()
			return
		}
		s.Restore(state)
		s.buf.Truncate(size)
	}
	tok.Type = op.Structured
	tok.Literal = s.literal()
}

func (s *Scanner) readBracket() bool {
	var depth int
	for !s.done() {
		switch s.char {
		case lsquare:
			depth++
		case rsquare:
			depth--
		case squote:
			s.write()
			s.read()
		}
		s.write()
		s.read()
		if depth == 0 {
			return true
		}
	}
	s.fail("unterminated bracket")
	return false
}

func (s *Scanner) scanIdent(tok *Token) {
	if s.opts.Mode == ModeR1C1 && strings.ContainsRune("RrCc", s.char) {
		state := s.Save()
		if s.scanR1C1() {
			tok.Type = op.Cell
			tok.Literal = s.literal()
			return
		}
		s.Restore(state)
		s.reset()
	}
	reco := recognizeCell()
	for isIdentChar(s.char) {
		reco.Update(s.char)
		s.write()
		s.read()
	}
	tok.Type = op.Ident
	tok.Literal = s.literal()
	isCell := reco.IsCell() && inGrid(tok.Literal)

	switch s.char {
	case bang:
		s.read()
		tok.Type = op.Sheet
		return
	case colon:
		if !isCell && s.scanSheetRange() {
			tok.Type = op.Sheet
			tok.Literal = s.literal()
			return
		}
	case lsquare:
		if !s.readBracket() {
			tok.Type = op.Invalid
			return
		}
		tok.Type = op.Structured
		tok.Literal = s.literal()
		return
	}
	if s.char == lparen {
		return
	}
	if up := strings.ToUpper(tok.Literal); up == "TRUE" || up == "FALSE" {
		tok.Type = op.Bool
		tok.Literal = up
		return
	}
	if s.opts.Mode == ModeA1 && isCell {
		tok.Type = op.Cell
	}
}

func (s *Scanner) scanSheetRange() bool {
	var (
		state = s.Save()
		size  = s.buf.Len()
	)
	s.write()
	s.read()
	if !isIdentStart(s.char) {
		s.Restore(state)
		s.buf.Truncate(size)
		return false
	}
	for isIdentChar(s.char) {
		s.write()
		s.read()
	}
	if s.char != bang {
		s.Restore(state)
		s.buf.Truncate(size)
		return false
	}
	s.read()
	return true
}

// scanR1C1 consumes R1C1, R[-1]C[2], RC, R2C or RC[3].
func (s *Scanner) scanR1C1() bool {
	if s.char != 'R' && s.char != 'r' {
		return false
	}
	s.write()
	s.read()
	if !s.scanR1C1Axis() {
		return false
	}
	if s.char != 'C' && s.char != 'c' {
		return false
	}
	s.write()
	s.read()
	if !s.scanR1C1Axis() {
		return false
	}
	return !isIdentChar(s.char) && s.char != lparen && s.char != bang
}

func (s *Scanner) scanR1C1Axis() bool {
	if s.char == lsquare {
		s.write()
		s.read()
		if s.char == minus || s.char == plus {
			s.write()
			s.read()
		}
		if !isDigit(s.char) {
			return false
		}
		for isDigit(s.char) {
			s.write()
			s.read()
		}
		if s.char != rsquare {
			return false
		}
		s.write()
		s.read()
		return true
	}
	for isDigit(s.char) {
		s.write()
		s.read()
	}
	return true
}

func inGrid(addr string) bool {
	addr = strings.ReplaceAll(addr, "$", "")
	_, err := layout.ParsePosition(addr)
	return err == nil
}

func (s *Scanner) scanOperator(tok *Token) {
	tok.Type = op.Invalid
	tok.Literal = string(s.char)
	switch s.char {
	case amper:
		tok.Type = op.Concat
	case percent:
		tok.Type = op.Percent
	case plus:
		tok.Type = op.Add
	case minus:
		tok.Type = op.Sub
	case star:
		tok.Type = op.Mul
	case slash:
		tok.Type = op.Div
	case caret:
		tok.Type = op.Pow
	case langle:
		tok.Type = op.Lt
		if k := s.peek(); k == equal {
			s.read()
			tok.Type = op.Le
		} else if k == rangle {
			s.read()
			tok.Type = op.Ne
		}
	case rangle:
		tok.Type = op.Gt
		if s.peek() == equal {
			s.read()
			tok.Type = op.Ge
		}
	case equal:
		tok.Type = op.Eq
	case colon:
		tok.Type = op.RangeRef
	default:
		s.fail("unexpected character " + string(s.char))
	}
	s.read()
}

func (s *Scanner) scanDelimiter(tok *Token) {
	tok.Type = op.Invalid
	tok.Literal = string(s.char)
	switch s.char {
	case lparen:
		tok.Type = op.BegGrp
	case rparen:
		tok.Type = op.EndGrp
	case lcurly:
		tok.Type = op.BegArr
		s.depth++
	case rcurly:
		tok.Type = op.EndArr
		if s.depth > 0 {
			s.depth--
		}
	}
	s.read()
}

func (s *Scanner) fail(msg string) {
	if s.err != nil {
		return
	}
	s.err = &LexError{
		Pos: s.Position,
		Msg: msg,
	}
}

func (s *Scanner) literal() string {
	return s.buf.String()
}

func (s *Scanner) write() {
	s.buf.WriteRune(s.char)
}

func (s *Scanner) reset() {
	s.buf.Reset()
}

func (s *Scanner) read() {
	if s.next >= len(s.input) {
		s.pos = len(s.input)
		s.next = s.pos
		s.char = 0
		s.Position.Offset = s.pos
		s.Column++
		return
	}
	r, n := utf8.DecodeRune(s.input[s.next:])
	s.char, s.pos, s.next = r, s.next, s.next+n
	s.Column++
	s.Position.Offset = s.pos
}

func (s *Scanner) peek() rune {
	if s.next >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(s.input[s.next:])
	return r
}

func (s *Scanner) done() bool {
	return s.pos >= len(s.input) || s.char == 0
}

func (s *Scanner) skipBlanks() bool {
	var skip bool
	for isBlank(s.char) {
		skip = true
		s.read()
	}
	return skip
}

type recoMode int

const (
	cellCol recoMode = iota
	cellRow
	cellAbsCol
	cellAbsRow
	cellDead
)

type cellRecognizer struct {
	state recoMode
}

func recognizeCell() *cellRecognizer {
	return &cellRecognizer{
		state: cellAbsCol,
	}
}

func (c *cellRecognizer) Update(ch rune) {
	switch c.state {
	case cellAbsCol:
		if ch == dollar {
			c.state = cellCol
			break
		}
		if isLetter(ch) {
			c.toCol()
			break
		}
		c.toDead()
	case cellAbsRow:
		if isDigit(ch) && ch != '0' {
			c.toRow()
			break
		}
		c.toDead()
	case cellCol:
		if isLetter(ch) {
			break
		}
		if ch == dollar {
			c.toAbsRow()
			break
		}
		if isDigit(ch) && ch != '0' {
			c.toRow()
			break
		}
		c.toDead()
	case cellRow:
		if isDigit(ch) {
			break
		}
		c.toDead()
	}
}

func (c *cellRecognizer) IsCell() bool {
	return c.state == cellRow
}

func (c *cellRecognizer) toDead() {
	c.state = cellDead
}

func (c *cellRecognizer) toCol() {
	c.state = cellCol
}

func (c *cellRecognizer) toRow() {
	c.state = cellRow
}

func (c *cellRecognizer) toAbsRow() {
	c.state = cellAbsRow
}

const (
	underscore = '_'
	backslash  = '\\'
	question   = '?'
	bang       = '!'
	semi       = ';'
	rparen     = ')'
	lparen     = '('
	lcurly     = '{'
	rcurly     = '}'
	squote     = '\''
	dquote     = '"'
	space      = ' '
	tab        = '\t'
	nl         = '\n'
	cr         = '\r'
	plus       = '+'
	minus      = '-'
	star       = '*'
	slash      = '/'
	caret      = '^'
	equal      = '='
	langle     = '<'
	rangle     = '>'
	colon      = ':'
	dot        = '.'
	amper      = '&'
	percent    = '%'
	dollar     = '$'
	pound      = '#'
	lsquare    = '['
	rsquare    = ']'
	at         = '@'
)

func isLower(c rune) bool {
	return c >= 'a' && c <= 'z'
}

func isUpper(c rune) bool {
	return c >= 'A' && c <= 'Z'
}

func isLetter(c rune) bool {
	return isLower(c) || isUpper(c)
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c rune) bool {
	return isLetter(c) || c == underscore || c == backslash || c == dollar || (c > 127 && unicode.IsLetter(c))
}

func isIdentChar(c rune) bool {
	return isIdentStart(c) || isDigit(c) || c == dot || c == question
}

func isBlank(c rune) bool {
	return c == space || c == tab || c == nl || c == cr
}

func isDelimiter(c rune) bool {
	return c == lparen || c == rparen || c == lcurly || c == rcurly
}

func isOperator(c rune) bool {
	return c == plus || c == minus || c == slash || c == star ||
		c == langle || c == rangle || c == colon || c == bang ||
		c == equal || c == caret || c == amper || c == percent
}
