package format

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type itemKind int8

const (
	itemLiteral itemKind = iota
	itemInteger
	itemFraction
	itemDecimal
	itemExponent
)

type numberItem struct {
	kind  itemKind
	char  rune
	lit   string
	sign  rune
	width int
}

type numberFormatter struct {
	items []numberItem

	minInt int
	maxInt int
	minDec int
	maxDec int

	hasGrouping bool
	hasDecimal  bool
	hasExponent bool
	percent     int
	scale       int
}

func ParseNumberFormatter(pattern string) (Formatter, error) {
	var (
		nf    numberFormatter
		runes []rune
		lits  []string
	)
	scanPattern(pattern, func(lit string, c rune) {
		runes = append(runes, c)
		lits = append(lits, lit)
	})
	placeholder := func(i int) bool {
		return i < len(runes) && lits[i] == "" && strings.ContainsRune("0#?", runes[i])
	}
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if lits[i] != "" {
			nf.literal(lits[i])
			continue
		}
		switch {
		case placeholder(i) && nf.hasExponent:
			last := &nf.items[len(nf.items)-1]
			if last.kind != itemExponent {
				return nil, fmt.Errorf("%w: %s", ErrPattern, pattern)
			}
			last.width++
		case placeholder(i) && nf.hasDecimal:
			nf.items = append(nf.items, numberItem{kind: itemFraction, char: c})
			nf.maxDec++
			if c != '#' {
				nf.minDec = nf.maxDec
			}
		case placeholder(i):
			nf.items = append(nf.items, numberItem{kind: itemInteger, char: c})
			nf.maxInt++
			if c == '0' {
				nf.minInt++
			}
		case c == '.' && !nf.hasDecimal && !nf.hasExponent:
			nf.hasDecimal = true
			nf.items = append(nf.items, numberItem{kind: itemDecimal})
		case c == ',' && nf.maxInt > 0 && !nf.hasDecimal:
			if placeholder(i + 1) {
				nf.hasGrouping = true
				break
			}
			nf.scale++
		case c == ',' && (nf.maxInt > 0 || nf.maxDec > 0):
			nf.scale++
		case c == '%':
			nf.percent++
			nf.literal("%")
		case (c == 'E' || c == 'e') && i+1 < len(runes) && (runes[i+1] == '+' || runes[i+1] == '-'):
			nf.hasExponent = true
			nf.items = append(nf.items, numberItem{kind: itemExponent, sign: runes[i+1]})
			i++
		default:
			nf.literal(string(c))
		}
	}
	if nf.maxInt == 0 && nf.maxDec == 0 {
		return literalFormatter(nf.items), nil
	}
	return nf, nil
}

func (nf *numberFormatter) literal(str string) {
	nf.items = append(nf.items, numberItem{kind: itemLiteral, lit: str})
}

func (nf numberFormatter) Format(n float64, opts Options) (string, error) {
	opts = opts.withDefaults()
	var (
		signed = n < 0
		x      = math.Abs(n)
		exp    int
	)
	x *= math.Pow(100, float64(nf.percent))
	x /= math.Pow(1000, float64(nf.scale))
	if nf.hasExponent && x != 0 {
		digits := max(nf.maxInt, 1)
		exp = int(math.Floor(math.Log10(x))) - (digits - 1)
		x /= math.Pow10(exp)
		if round(x, nf.maxDec) >= math.Pow10(digits) {
			x /= 10
			exp++
		}
	}
	str := strconv.FormatFloat(round(x, nf.maxDec), 'f', nf.maxDec, 64)
	integral, fraction, _ := strings.Cut(str, ".")
	if integral == "0" {
		integral = ""
	}
	if signed && strings.Trim(integral+fraction, "0") == "" && exp == 0 {
		signed = false
	}
	var (
		ints  = nf.integerParts(integral, opts)
		fracs = nf.fractionParts(fraction)
		buf   strings.Builder
	)
	if signed {
		buf.WriteByte('-')
	}
	var ix, fx int
	for _, it := range nf.items {
		switch it.kind {
		case itemLiteral:
			buf.WriteString(it.lit)
		case itemInteger:
			buf.WriteString(ints[ix])
			ix++
		case itemFraction:
			buf.WriteString(fracs[fx])
			fx++
		case itemDecimal:
			buf.WriteRune(opts.Decimal)
		case itemExponent:
			buf.WriteByte('E')
			switch {
			case exp < 0:
				buf.WriteByte('-')
			case it.sign == '+':
				buf.WriteByte('+')
			}
			e := strconv.Itoa(abs(exp))
			if z := it.width - len(e); z > 0 {
				buf.WriteString(strings.Repeat("0", z))
			}
			buf.WriteString(e)
		}
	}
	return buf.String(), nil
}

// integerParts distributes the digits over the integer placeholders from the
// right. Digits that do not fit go to the leftmost placeholder.
func (nf numberFormatter) integerParts(digits string, opts Options) []string {
	var chars []rune
	for _, it := range nf.items {
		if it.kind == itemInteger {
			chars = append(chars, it.char)
		}
	}
	parts := make([]string, len(chars))
	if len(chars) == 0 {
		return parts
	}
	if nf.hasGrouping {
		if z := nf.minInt - len(digits); z > 0 {
			digits = strings.Repeat("0", z) + digits
		}
		parts[0] = group(digits, opts.Group)
		return parts
	}
	for k := len(chars) - 1; k >= 0; k-- {
		pos := len(digits) - (len(chars) - k)
		switch {
		case pos >= 0:
			parts[k] = digits[pos : pos+1]
		case chars[k] == '0':
			parts[k] = "0"
		case chars[k] == '?':
			parts[k] = " "
		}
	}
	if extra := len(digits) - len(chars); extra > 0 {
		parts[0] = digits[:extra] + parts[0]
	}
	return parts
}

func (nf numberFormatter) fractionParts(digits string) []string {
	var chars []rune
	for _, it := range nf.items {
		if it.kind == itemFraction {
			chars = append(chars, it.char)
		}
	}
	parts := make([]string, len(chars))
	trailing := true
	for k := len(chars) - 1; k >= 0; k-- {
		d := "0"
		if k < len(digits) {
			d = digits[k : k+1]
		}
		if trailing && d == "0" && chars[k] != '0' {
			if chars[k] == '?' {
				parts[k] = " "
			}
			continue
		}
		trailing = false
		parts[k] = d
	}
	return parts
}

func group(digits string, sep rune) string {
	if len(digits) <= 3 {
		return digits
	}
	var (
		rs  = []rune(digits)
		out []rune
	)
	slices.Reverse(rs)
	for i := range rs {
		if i > 0 && i%3 == 0 {
			out = append(out, sep)
		}
		out = append(out, rs[i])
	}
	slices.Reverse(out)
	return string(out)
}

type literalFormatter []numberItem

func (f literalFormatter) Format(_ float64, _ Options) (string, error) {
	var buf strings.Builder
	for _, it := range f {
		buf.WriteString(it.lit)
	}
	return buf.String(), nil
}

func round(n float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(n*scale) / scale
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
