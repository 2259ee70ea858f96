package format

import (
	"errors"
	"math"
	"strings"

	"github.com/goodsign/monday"
	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var ErrPattern = errors.New("invalid format pattern")

type Options struct {
	Dates   value.DateSystem
	Locale  language.Tag
	Decimal rune
	Group   rune
}

func DefaultOptions() Options {
	return Options{
		Dates:   value.Date1900,
		Locale:  language.AmericanEnglish,
		Decimal: '.',
		Group:   ',',
	}
}

// CultureOptions picks the separators used by the language tag.
func CultureOptions(tag language.Tag, dates value.DateSystem) Options {
	opts := DefaultOptions()
	opts.Dates = dates
	if tag == language.Und {
		return opts
	}
	opts.Locale = tag
	p := message.NewPrinter(tag)
	rs := []rune(p.Sprintf("%v", number.Decimal(1234567.5, number.MinFractionDigits(1))))
	if n := len(rs); n > 2 && !isDigit(rs[n-2]) {
		opts.Decimal = rs[n-2]
	}
	if len(rs) > 1 && !isDigit(rs[1]) {
		opts.Group = rs[1]
	}
	return opts
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (o Options) withDefaults() Options {
	if o.Decimal == 0 {
		o.Decimal = '.'
	}
	if o.Group == 0 {
		o.Group = ','
	}
	if o.Locale == language.Und {
		o.Locale = language.AmericanEnglish
	}
	return o
}

type Formatter interface {
	Format(float64, Options) (string, error)
}

// Parse reads one section of a format code.
func Parse(pattern string) (Formatter, error) {
	switch {
	case pattern == "" || strings.EqualFold(pattern, "general"):
		return generalFormatter{}, nil
	case isDatePattern(pattern):
		return ParseDateFormatter(pattern)
	default:
		return ParseNumberFormatter(pattern)
	}
}

// Text formats v with an Excel format code made of up to four sections:
// positive, negative, zero and text.
func Text(v value.ScalarValue, code string, opts Options) (string, error) {
	opts = opts.withDefaults()
	var (
		sections = splitSections(code)
		num      float64
	)
	switch x := v.(type) {
	case value.Error:
		return "", x
	case value.Text:
		n, ok := value.ParseNumber(string(x))
		if !ok {
			return formatText(string(x), sections), nil
		}
		num = n
	default:
		n, err := value.CastToFloat(v)
		if err != nil {
			return "", err
		}
		num = float64(n)
	}
	pattern, abs := pickSection(sections, num)
	if abs {
		num = math.Abs(num)
	}
	f, err := Parse(pattern)
	if err != nil {
		return "", err
	}
	return f.Format(num, opts)
}

// Fixed writes n rounded to the given number of decimals with the grouping
// of the locale.
func Fixed(n float64, decimals int, grouping bool, tag language.Tag) string {
	scale := math.Pow10(decimals)
	n = math.Round(n*scale) / scale
	if decimals < 0 {
		decimals = 0
	}
	opts := []number.Option{
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	}
	if !grouping {
		opts = append(opts, number.NoSeparator())
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", number.Decimal(n, opts...))
}

func pickSection(sections []string, n float64) (string, bool) {
	switch {
	case len(sections) == 0:
		return "", false
	case n < 0 && len(sections) >= 2:
		return sections[1], true
	case n == 0 && len(sections) >= 3:
		return sections[2], false
	default:
		return sections[0], false
	}
}

func formatText(str string, sections []string) string {
	var pattern string
	switch {
	case len(sections) >= 4:
		pattern = sections[3]
	case len(sections) == 1 && strings.Contains(sections[0], "@"):
		pattern = sections[0]
	default:
		return str
	}
	var buf strings.Builder
	scanPattern(pattern, func(lit string, c rune) {
		switch {
		case lit != "":
			buf.WriteString(lit)
		case c == '@':
			buf.WriteString(str)
		default:
			buf.WriteRune(c)
		}
	})
	return buf.String()
}

// splitSections cuts a format code on the semicolons found outside of
// quotes and brackets.
func splitSections(code string) []string {
	var (
		list  []string
		start int
		quote bool
		depth int
	)
	for i := 0; i < len(code); i++ {
		switch c := code[i]; {
		case c == '\\' && !quote:
			i++
		case c == '"':
			quote = !quote
		case quote:
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case c == ';' && depth == 0:
			list = append(list, code[start:i])
			start = i + 1
		}
	}
	return append(list, code[start:])
}

// scanPattern walks a pattern calling fn with either a literal coming from
// quotes or escapes, or a single rune to interpret. Brackets are skipped
// except for elapsed time fields.
func scanPattern(pattern string, fn func(string, rune)) {
	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch c := rs[i]; c {
		case '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			fn(string(rs[i+1:min(j, len(rs))]), 0)
			i = j
		case '\\':
			if i+1 < len(rs) {
				i++
				fn(string(rs[i]), 0)
			}
		case '_':
			if i+1 < len(rs) {
				i++
			}
			fn(" ", 0)
		case '*':
			if i+1 < len(rs) {
				i++
			}
		case '[':
			j := i + 1
			for j < len(rs) && rs[j] != ']' {
				j++
			}
			inner := strings.ToLower(string(rs[i+1 : min(j, len(rs))]))
			if inner != "" && strings.Trim(inner, "hms") == "" {
				fn("", '[')
				for _, r := range inner {
					fn("", r)
				}
				fn("", ']')
			}
			i = j
		default:
			fn("", c)
		}
	}
}

func isDatePattern(pattern string) bool {
	var found bool
	scanPattern(pattern, func(lit string, c rune) {
		if lit != "" {
			return
		}
		switch c {
		case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S', '[':
			found = true
		}
	})
	return found
}

type generalFormatter struct{}

func (generalFormatter) Format(n float64, opts Options) (string, error) {
	str := value.FormatNumber(n)
	if opts.Decimal != '.' {
		str = strings.Replace(str, ".", string(opts.Decimal), 1)
	}
	return str, nil
}

var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"tr":    monday.LocaleTrTR,
}

// Locale maps a language tag to the locale used for month and day names.
func Locale(tag language.Tag) monday.Locale {
	key := strings.ToLower(strings.ReplaceAll(tag.String(), "-", "_"))
	if loc, ok := mondayLocales[key]; ok {
		return loc
	}
	base, _ := tag.Base()
	if loc, ok := mondayLocales[base.String()]; ok {
		return loc
	}
	return monday.LocaleEnUS
}
