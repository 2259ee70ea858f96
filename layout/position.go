package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a 1-based cell address. Sheet names compare without regard to
// case.
type Position struct {
	Sheet  string
	Line   int64
	Column int64
}

func NewPosition(sheet string, line, column int64) Position {
	return Position{
		Sheet:  sheet,
		Line:   line,
		Column: column,
	}
}

// ParsePosition reads an address such as B12 or Sheet1!B12. Dollar signs are
// ignored.
func ParsePosition(addr string) (Position, error) {
	var pos Position
	if ix := strings.LastIndexByte(addr, '!'); ix >= 0 {
		pos.Sheet = strings.Trim(addr[:ix], "'")
		pos.Sheet = strings.ReplaceAll(pos.Sheet, "''", "'")
		addr = addr[ix+1:]
	}
	addr = strings.ReplaceAll(addr, "$", "")
	if !IsAddress(addr) {
		return pos, fmt.Errorf("%w: %s", ErrAddress, addr)
	}
	var offset int
	pos.Column, offset = ParseIndex(addr)
	pos.Line, _ = strconv.ParseInt(addr[offset:], 10, 64)
	if !pos.Valid() {
		return pos, fmt.Errorf("%w: %s out of grid", ErrAddress, addr)
	}
	return pos, nil
}

func (p Position) Valid() bool {
	return p.Line >= 1 && p.Line <= MaxLines && p.Column >= 1 && p.Column <= MaxColumns
}

func (p Position) Equal(other Position) bool {
	return p.Line == other.Line && p.Column == other.Column && strings.EqualFold(p.Sheet, other.Sheet)
}

// Key gives a string usable as map key: two positions that are Equal share
// the same key.
func (p Position) Key() string {
	return strings.ToLower(p.Sheet) + "!" + p.Cell()
}

// Cell returns the address without its sheet.
func (p Position) Cell() string {
	return ColumnName(p.Column) + strconv.FormatInt(p.Line, 10)
}

func (p Position) Addr() string {
	if p.Sheet == "" {
		return p.Cell()
	}
	return QuoteSheet(p.Sheet) + "!" + p.Cell()
}

func (p Position) String() string {
	return p.Addr()
}

func (p Position) Move(lines, columns int64) Position {
	p.Line += lines
	p.Column += columns
	return p
}

func (p Position) OnSheet(sheet string) Position {
	p.Sheet = sheet
	return p
}

func SameSheet(a, b string) bool {
	return strings.EqualFold(a, b)
}

// QuoteSheet quotes a sheet name when it can not be written bare in a
// formula.
func QuoteSheet(name string) string {
	if !needQuote(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func needQuote(name string) bool {
	if name == "" {
		return false
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return true
	}
	for _, c := range name {
		if isLetter(c) || (c >= '0' && c <= '9') || c == '_' || c == '.' || c > 127 {
			continue
		}
		return true
	}
	if IsAddress(name) {
		return true
	}
	up := strings.ToUpper(name)
	if up == "TRUE" || up == "FALSE" {
		return true
	}
	return looksLikeR1C1(up)
}

func looksLikeR1C1(str string) bool {
	if str == "" || (str[0] != 'R' && str[0] != 'C') {
		return false
	}
	for i := 1; i < len(str); i++ {
		c := str[i]
		if c != 'R' && c != 'C' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func IsAddress(addr string) bool {
	size := len(addr)
	if size < 2 {
		return false
	}
	var offset int
	for offset < size && isLetter(rune(addr[offset])) {
		offset++
	}
	if offset == 0 || offset > 3 || offset >= size || addr[offset] == '0' {
		return false
	}
	for offset < size {
		c := addr[offset]
		if c < '0' || c > '9' {
			return false
		}
		offset++
	}
	return offset == size
}

// ParseIndex reads the leading column letters of str and returns the column
// index and the number of bytes consumed.
func ParseIndex(str string) (int64, int) {
	var (
		offset int
		index  int64
	)
	for offset < len(str) && isLetter(rune(str[offset])) {
		delta := byte('A')
		if isLower(rune(str[offset])) {
			delta = 'a'
		}
		index = index*26 + int64(str[offset]-delta+1)
		offset++
	}
	return index, offset
}

// ColumnIndex returns the index of a column name or 0 when name is not a
// valid column.
func ColumnIndex(name string) int64 {
	ix, n := ParseIndex(name)
	if n != len(name) || n == 0 || ix > MaxColumns {
		return 0
	}
	return ix
}

func ColumnName(ix int64) string {
	var buf []byte
	for ix > 0 {
		ix--
		buf = append(buf, byte('A'+ix%26))
		ix /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func isLower(c rune) bool {
	return c >= 'a' && c <= 'z'
}

func isUpper(c rune) bool {
	return c >= 'A' && c <= 'Z'
}

func isLetter(c rune) bool {
	return isLower(c) || isUpper(c)
}
