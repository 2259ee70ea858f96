package value

import (
	"testing"
	"time"
)

func TestCastToFloat(t *testing.T) {
	tests := []struct {
		Input Value
		Want  Float
		Err   Value
	}{
		{Input: Float(1.5), Want: 1.5},
		{Input: Boolean(true), Want: 1},
		{Input: Blank{}, Want: 0},
		{Input: Text(" 12.5 "), Want: 12.5},
		{Input: Text("1e3"), Want: 1000},
		{Input: Text("50%"), Want: 0.5},
		{Input: Text("abc"), Err: ErrValue},
		{Input: Text("Inf"), Err: ErrValue},
		{Input: ErrDiv0, Err: ErrDiv0},
	}
	for _, c := range tests {
		got, err := CastToFloat(c.Input)
		if c.Err != nil {
			if err == nil || Fail(err) != c.Err {
				t.Errorf("%v: expected error %s, got %v", c.Input, c.Err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: unexpected error %s", c.Input, err)
			continue
		}
		if got != c.Want {
			t.Errorf("%v: number mismatched! want %s - got %s", c.Input, c.Want, got)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		Left  ScalarValue
		Right ScalarValue
		Want  int
	}{
		{Left: Float(1), Right: Float(2), Want: -1},
		{Left: Float(100), Right: Text("1"), Want: -1},
		{Left: Text("zzz"), Right: Boolean(false), Want: -1},
		{Left: Text("abc"), Right: Text("ABC"), Want: 0},
		{Left: Text("apple"), Right: Text("Banana"), Want: -1},
		{Left: Boolean(true), Right: Boolean(false), Want: 1},
		{Left: Blank{}, Right: Float(0), Want: 0},
		{Left: Blank{}, Right: Text(""), Want: 0},
		{Left: Blank{}, Right: Boolean(false), Want: 0},
		{Left: Blank{}, Right: Float(-1), Want: 1},
	}
	for _, c := range tests {
		got := Compare(c.Left, c.Right)
		if got != c.Want {
			t.Errorf("%v <=> %v: result mismatched! want %d - got %d", c.Left, c.Right, c.Want, got)
		}
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		Name string
		Got  ScalarValue
		Want ScalarValue
	}{
		{Name: "add", Got: Add(Float(1), Text("2")), Want: Float(3)},
		{Name: "add-bool", Got: Add(Boolean(true), Float(2)), Want: Float(3)},
		{Name: "div0", Got: Div(Float(1), Float(0)), Want: ErrDiv0},
		{Name: "left-error", Got: Add(ErrNA, ErrDiv0), Want: ErrNA},
		{Name: "text", Got: Mul(Text("x"), Float(2)), Want: ErrValue},
		{Name: "concat", Got: Concat(Float(1.5), Boolean(true)), Want: Text("1.5TRUE")},
		{Name: "eq-case", Got: Eq(Text("Foo"), Text("FOO")), Want: Boolean(true)},
		{Name: "lt-rank", Got: Lt(Float(9), Text("1")), Want: Boolean(true)},
		{Name: "cmp-error", Got: Gt(Float(1), ErrRef), Want: ErrRef},
		{Name: "percent", Got: Percent(Float(10)), Want: Float(0.1)},
		{Name: "pow", Got: Pow(Float(2), Float(10)), Want: Float(1024)},
	}
	for _, c := range tests {
		if c.Got != c.Want {
			t.Errorf("%s: result mismatched! want %v - got %v", c.Name, c.Want, c.Got)
		}
	}
}

func TestBroadcast(t *testing.T) {
	left := NewArray([][]ScalarValue{
		{Float(1), Float(2)},
		{Float(3), Float(4)},
	})
	got := ToArray(Broadcast(left, Float(10), Add))
	if got.String() != "{11,12;13,14}" {
		t.Errorf("scalar broadcast mismatched! got %s", got)
	}
	col := Column([]ScalarValue{Float(1), Float(2)})
	row := Row([]ScalarValue{Float(10), Float(20), Float(30)})
	got = ToArray(Broadcast(col, row, Add))
	if got.String() != "{11,21,31;12,22,32}" {
		t.Errorf("axis broadcast mismatched! got %s", got)
	}
	three := Row([]ScalarValue{Float(1), Float(2), Float(3)})
	got = ToArray(Broadcast(left, three, Add))
	if got.String() != "{2,4,#VALUE!;4,6,#VALUE!}" {
		t.Errorf("mismatched broadcast! got %s", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		Input float64
		Want  string
	}{
		{Input: 0.1 + 0.2, Want: "0.3"},
		{Input: 42, Want: "42"},
		{Input: -3.25, Want: "-3.25"},
		{Input: 1.0 / 3, Want: "0.333333333333333"},
		{Input: 1e21, Want: "1E+21"},
	}
	for _, c := range tests {
		got := FormatNumber(c.Input)
		if got != c.Want {
			t.Errorf("%v: formatted number mismatched! want %s - got %s", c.Input, c.Want, got)
		}
	}
}

func TestDateSystem(t *testing.T) {
	tests := []struct {
		Year   int
		Month  int
		Day    int
		System DateSystem
		Want   float64
	}{
		{Year: 1900, Month: 1, Day: 1, System: Date1900, Want: 1},
		{Year: 1900, Month: 2, Day: 28, System: Date1900, Want: 59},
		{Year: 1900, Month: 2, Day: 29, System: Date1900, Want: 60},
		{Year: 1900, Month: 3, Day: 1, System: Date1900, Want: 61},
		{Year: 2024, Month: 3, Day: 5, System: Date1900, Want: 45356},
		{Year: 1904, Month: 1, Day: 1, System: Date1904, Want: 0},
		{Year: 2024, Month: 3, Day: 5, System: Date1904, Want: 45356 - 1462},
		{Year: 2024, Month: 14, Day: 1, System: Date1900, Want: 45689},
	}
	for _, c := range tests {
		got, ok := c.System.FromParts(c.Year, c.Month, c.Day)
		if !ok {
			t.Errorf("%d-%d-%d: invalid date", c.Year, c.Month, c.Day)
			continue
		}
		if got != c.Want {
			t.Errorf("%d-%d-%d: serial mismatched! want %v - got %v", c.Year, c.Month, c.Day, c.Want, got)
		}
	}
	y, m, d, _ := Date1900.Parts(60)
	if y != 1900 || m != 2 || d != 29 {
		t.Errorf("serial 60: want 1900-02-29 - got %d-%d-%d", y, m, d)
	}
	when, _ := Date1900.Time(45356.75)
	if !when.Equal(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("serial 45356.75: unexpected time %s", when)
	}
}
