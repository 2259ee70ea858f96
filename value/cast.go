package value

import (
	"strconv"
	"strings"
)

// CastToFloat coerces a value for a numeric context. Booleans become 0 or 1,
// blanks 0 and numeric looking text its number. The error result is always
// an Error value.
func CastToFloat(val Value) (Float, error) {
	switch v := val.(type) {
	case Float:
		return v, nil
	case Boolean:
		if v {
			return 1, nil
		}
		return 0, nil
	case Blank, nil:
		return 0, nil
	case Text:
		f, ok := ParseNumber(string(v))
		if !ok {
			return 0, ErrValue
		}
		return Float(f), nil
	case Error:
		return 0, v
	case ArrayValue:
		return CastToFloat(Single(v))
	default:
		return 0, ErrValue
	}
}

func CastToText(val Value) (Text, error) {
	switch v := val.(type) {
	case Text:
		return v, nil
	case Float:
		return Text(v.String()), nil
	case Boolean:
		return Text(v.String()), nil
	case Blank, nil:
		return "", nil
	case Error:
		return "", v
	case ArrayValue:
		return CastToText(Single(v))
	default:
		return "", ErrValue
	}
}

func CastToBool(val Value) (Boolean, error) {
	switch v := val.(type) {
	case Boolean:
		return v, nil
	case Float:
		return Boolean(v != 0), nil
	case Blank, nil:
		return false, nil
	case Text:
		switch strings.ToUpper(strings.TrimSpace(string(v))) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		default:
			return false, ErrValue
		}
	case Error:
		return false, v
	case ArrayValue:
		return CastToBool(Single(v))
	default:
		return false, ErrValue
	}
}

// CastToInt truncates toward zero after numeric coercion.
func CastToInt(val Value) (int, error) {
	f, err := CastToFloat(val)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ParseNumber recognizes the text forms Excel accepts as numbers in
// arithmetic: optional sign, decimal digits, exponent and a trailing
// percent.
func ParseNumber(str string) (float64, bool) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, false
	}
	var percent bool
	if strings.HasSuffix(str, "%") {
		percent = true
		str = strings.TrimSpace(str[:len(str)-1])
	}
	var digits bool
	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
		default:
			return 0, false
		}
	}
	if !digits {
		return 0, false
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}
