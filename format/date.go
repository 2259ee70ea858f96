package format

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/midbel/xlcalc/value"
)

func init() {
	slices.SortFunc(dateFieldsWriter, func(a, b dateFieldPattern) int {
		return cmp.Compare(len(b.Pattern), len(a.Pattern))
	})
}

type dateFieldPattern struct {
	Pattern string
	Func    dateWriter
}

type dateParts struct {
	serial float64
	year   int
	month  int
	day    int
	hour   int
	minute int
	second int
	millis int
	hour12 bool

	locale monday.Locale
	opts   Options
}

func (p dateParts) time() time.Time {
	return time.Date(p.year, time.Month(p.month), max(p.day, 1), p.hour, p.minute, p.second, 0, time.UTC)
}

type dateWriter func(*strings.Builder, *dateParts)

var dateFieldsWriter = []dateFieldPattern{
	{Pattern: "yyyy", Func: writeYearLong},
	{Pattern: "yy", Func: writeYearShort},
	{Pattern: "mmmmm", Func: writeMonthLetter},
	{Pattern: "mmmm", Func: writeMonthNameLong},
	{Pattern: "mmm", Func: writeMonthNameShort},
	{Pattern: "mm", Func: writeMonthPadded},
	{Pattern: "m", Func: writeMonth},
	{Pattern: "dddd", Func: writeDayNameLong},
	{Pattern: "ddd", Func: writeDayNameShort},
	{Pattern: "dd", Func: writeDayPadded},
	{Pattern: "d", Func: writeDay},
	{Pattern: "hh", Func: writeHourPadded},
	{Pattern: "h", Func: writeHour},
	{Pattern: "ss", Func: writeSecondPadded},
	{Pattern: "s", Func: writeSecond},
	{Pattern: "am/pm", Func: writeMeridiem},
	{Pattern: "a/p", Func: writeMeridiemShort},
	{Pattern: "[h]", Func: writeElapsedHours},
	{Pattern: "[m]", Func: writeElapsedMinutes},
	{Pattern: "[s]", Func: writeElapsedSeconds},
	{Pattern: ".000", Func: writeMillis(3)},
	{Pattern: ".00", Func: writeMillis(2)},
	{Pattern: ".0", Func: writeMillis(1)},
}

type dateField struct {
	pattern string
	fn      dateWriter
}

type dateFormatter struct {
	fields []dateField
	hour12 bool
}

func ParseDateFormatter(pattern string) (Formatter, error) {
	var (
		df    dateFormatter
		runes []rune
		lits  []string
	)
	scanPattern(pattern, func(lit string, c rune) {
		runes = append(runes, c)
		lits = append(lits, lit)
	})
	lower := strings.ToLower(string(runes))
	for i := 0; i < len(runes); {
		if lits[i] != "" {
			df.fields = append(df.fields, dateField{fn: writeLiteralDate(lits[i])})
			i++
			continue
		}
		var matched bool
		for _, k := range dateFieldsWriter {
			if !strings.HasPrefix(string([]rune(lower)[i:]), k.Pattern) || !unquoted(lits[i:], len(k.Pattern)) {
				continue
			}
			if strings.HasPrefix(k.Pattern, ".") && !afterSeconds(df.fields) {
				continue
			}
			df.fields = append(df.fields, dateField{pattern: k.Pattern, fn: k.Func})
			i += len(k.Pattern)
			matched = true
			break
		}
		if !matched {
			df.fields = append(df.fields, dateField{fn: writeLiteralDate(string(runes[i]))})
			i++
		}
	}
	if len(df.fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPattern, pattern)
	}
	df.resolveMinutes()
	for _, f := range df.fields {
		if f.pattern == "am/pm" || f.pattern == "a/p" {
			df.hour12 = true
		}
	}
	return df, nil
}

// resolveMinutes turns m and mm into minutes when they follow an hour or
// precede a second.
func (df *dateFormatter) resolveMinutes() {
	isMinute := func(p string) bool {
		return p == "m" || p == "mm"
	}
	for i, f := range df.fields {
		if !isMinute(f.pattern) {
			continue
		}
		var prev, next string
		for j := i - 1; j >= 0; j-- {
			if df.fields[j].pattern != "" {
				prev = df.fields[j].pattern
				break
			}
		}
		for j := i + 1; j < len(df.fields); j++ {
			if df.fields[j].pattern != "" {
				next = df.fields[j].pattern
				break
			}
		}
		if strings.HasPrefix(prev, "h") || prev == "[h]" || strings.HasPrefix(next, "s") {
			df.fields[i].fn = writeMinute
			if f.pattern == "mm" {
				df.fields[i].fn = writeMinutePadded
			}
		}
	}
}

func (f dateFormatter) Format(n float64, opts Options) (string, error) {
	opts = opts.withDefaults()
	if n < 0 {
		return "", value.ErrValue
	}
	p := dateParts{
		serial: n,
		hour12: f.hour12,
		locale: Locale(opts.Locale),
		opts:   opts,
	}
	var ok bool
	if p.year, p.month, p.day, ok = opts.Dates.Parts(n); !ok {
		return "", value.ErrValue
	}
	frac := n - math.Floor(n)
	p.hour, p.minute, p.second = value.Clock(n)
	p.millis = int(math.Round(frac*86400000)) % 1000
	var str strings.Builder
	for i := range f.fields {
		f.fields[i].fn(&str, &p)
	}
	return str.String(), nil
}

func unquoted(lits []string, n int) bool {
	if n > len(lits) {
		return false
	}
	for _, l := range lits[:n] {
		if l != "" {
			return false
		}
	}
	return true
}

func afterSeconds(fields []dateField) bool {
	for i := len(fields) - 1; i >= 0; i-- {
		if p := fields[i].pattern; p != "" {
			return p == "s" || p == "ss" || p == "[s]"
		}
	}
	return false
}

func writeLiteralDate(str string) dateWriter {
	return func(w *strings.Builder, _ *dateParts) {
		w.WriteString(str)
	}
}

func writeYearLong(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(p.year))
}

func writeYearShort(w *strings.Builder, p *dateParts) {
	writePadded(w, p.year%100)
}

func writeMonth(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(p.month))
}

func writeMonthPadded(w *strings.Builder, p *dateParts) {
	writePadded(w, p.month)
}

func writeMonthNameShort(w *strings.Builder, p *dateParts) {
	w.WriteString(monday.Format(p.time(), "Jan", p.locale))
}

func writeMonthNameLong(w *strings.Builder, p *dateParts) {
	w.WriteString(monday.Format(p.time(), "January", p.locale))
}

func writeMonthLetter(w *strings.Builder, p *dateParts) {
	name := []rune(monday.Format(p.time(), "January", p.locale))
	if len(name) > 0 {
		w.WriteRune(name[0])
	}
}

func writeDay(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(p.day))
}

func writeDayPadded(w *strings.Builder, p *dateParts) {
	writePadded(w, p.day)
}

// day names follow the serial rather than the calendar so that the fictitious
// 1900-02-29 still gets a name.
func weekdayTime(p *dateParts) time.Time {
	wd := p.opts.Dates.Weekday(p.serial)
	// 2023-01-01 was a Sunday
	return time.Date(2023, 1, 1+int(wd), 0, 0, 0, 0, time.UTC)
}

func writeDayNameShort(w *strings.Builder, p *dateParts) {
	w.WriteString(monday.Format(weekdayTime(p), "Mon", p.locale))
}

func writeDayNameLong(w *strings.Builder, p *dateParts) {
	w.WriteString(monday.Format(weekdayTime(p), "Monday", p.locale))
}

func clockHour(p *dateParts) int {
	if !p.hour12 {
		return p.hour
	}
	if h := p.hour % 12; h != 0 {
		return h
	}
	return 12
}

func writeHour(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(clockHour(p)))
}

func writeHourPadded(w *strings.Builder, p *dateParts) {
	writePadded(w, clockHour(p))
}

func writeMinute(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(p.minute))
}

func writeMinutePadded(w *strings.Builder, p *dateParts) {
	writePadded(w, p.minute)
}

func writeSecond(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(p.second))
}

func writeSecondPadded(w *strings.Builder, p *dateParts) {
	writePadded(w, p.second)
}

func writeMeridiem(w *strings.Builder, p *dateParts) {
	if p.hour < 12 {
		w.WriteString("AM")
	} else {
		w.WriteString("PM")
	}
}

func writeMeridiemShort(w *strings.Builder, p *dateParts) {
	if p.hour < 12 {
		w.WriteString("A")
	} else {
		w.WriteString("P")
	}
}

func writeElapsedHours(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(int(math.Floor(p.serial*24 + 1e-9))))
}

func writeElapsedMinutes(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(int(math.Floor(p.serial*1440 + 1e-9))))
}

func writeElapsedSeconds(w *strings.Builder, p *dateParts) {
	w.WriteString(strconv.Itoa(int(math.Round(p.serial * 86400))))
}

func writeMillis(digits int) dateWriter {
	return func(w *strings.Builder, p *dateParts) {
		str := fmt.Sprintf("%03d", p.millis)
		w.WriteByte('.')
		w.WriteString(str[:digits])
	}
}

func writePadded(w *strings.Builder, n int) {
	if n < 10 {
		w.WriteByte('0')
	}
	w.WriteString(strconv.Itoa(n))
}
