package value

import (
	"math"
	"strconv"
	"strings"
)

type Blank struct{}

func Empty() ScalarValue {
	return Blank{}
}

func (Blank) Type() string {
	return TypeBlank
}

func (Blank) Kind() ValueKind {
	return KindScalar
}

func (Blank) String() string {
	return ""
}

func (Blank) Scalar() any {
	return nil
}

type Float float64

func (Float) Type() string {
	return TypeNumber
}

func (Float) Kind() ValueKind {
	return KindScalar
}

// String renders the number with at most 15 significant digits.
func (f Float) String() string {
	return FormatNumber(float64(f))
}

func (f Float) Scalar() any {
	return float64(f)
}

func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	str := strconv.FormatFloat(f, 'g', 15, 64)
	if strings.ContainsAny(str, "e") {
		str = strings.ToUpper(str)
		if mant, exp, ok := strings.Cut(str, "E"); ok && strings.Contains(mant, ".") {
			mant = strings.TrimRight(mant, "0")
			mant = strings.TrimSuffix(mant, ".")
			str = mant + "E" + exp
		}
	}
	return str
}

// Number returns a Float or #NUM! when f is not finite.
func Number(f float64) ScalarValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrNum
	}
	return Float(f)
}

type Text string

func (Text) Type() string {
	return TypeText
}

func (Text) Kind() ValueKind {
	return KindScalar
}

func (t Text) String() string {
	return string(t)
}

func (t Text) Scalar() any {
	return string(t)
}

type Boolean bool

func (Boolean) Type() string {
	return TypeBool
}

func (Boolean) Kind() ValueKind {
	return KindScalar
}

func (b Boolean) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (b Boolean) Scalar() any {
	return bool(b)
}
