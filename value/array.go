package value

import (
	"fmt"
	"strings"

	"github.com/midbel/xlcalc/layout"
)

// Array is a dense grid of scalars. Arrays built from a cell range keep the
// position of their top left cell and are flagged as references.
type Array struct {
	Data   [][]ScalarValue
	Anchor layout.Position
	ref    bool
}

func NewArray(data [][]ScalarValue) Array {
	return Array{
		Data: data,
	}
}

func NewRefArray(anchor layout.Position, data [][]ScalarValue) Array {
	return Array{
		Data:   data,
		Anchor: anchor,
		ref:    true,
	}
}

// Filled creates an array of the given dimension with every cell set to v.
func Filled(lines, columns int, v ScalarValue) Array {
	data := make([][]ScalarValue, lines)
	for i := range data {
		data[i] = make([]ScalarValue, columns)
		for j := range data[i] {
			data[i][j] = v
		}
	}
	return NewArray(data)
}

func Column(list []ScalarValue) Array {
	data := make([][]ScalarValue, len(list))
	for i := range list {
		data[i] = []ScalarValue{list[i]}
	}
	return NewArray(data)
}

func Row(list []ScalarValue) Array {
	return NewArray([][]ScalarValue{list})
}

func (a Array) Type() string {
	return TypeArray
}

func (Array) Kind() ValueKind {
	return KindArray
}

func (a Array) String() string {
	var rows []string
	for i := range a.Data {
		var cols []string
		for j := range a.Data[i] {
			cols = append(cols, a.Data[i][j].String())
		}
		rows = append(rows, strings.Join(cols, ","))
	}
	return fmt.Sprintf("{%s}", strings.Join(rows, ";"))
}

// Reference tells whether the array comes from dereferencing cells.
func (a Array) Reference() bool {
	return a.ref
}

func (a Array) Dimension() layout.Dimension {
	var (
		d layout.Dimension
		n = len(a.Data)
	)
	if n > 0 {
		d.Lines = int64(n)
		d.Columns = int64(len(a.Data[0]))
	}
	return d
}

func (a Array) At(row, col int) ScalarValue {
	if row < 0 || row >= len(a.Data) {
		return ErrNA
	}
	v := a.Data[row]
	if col < 0 || col >= len(v) {
		return ErrNA
	}
	if v[col] == nil {
		return Blank{}
	}
	return v[col]
}

// Values flattens the array line by line.
func (a Array) Values() []ScalarValue {
	var list []ScalarValue
	for i := range a.Data {
		for j := range a.Data[i] {
			list = append(list, a.At(i, j))
		}
	}
	return list
}

func (a Array) Transpose() Array {
	dim := a.Dimension()
	data := make([][]ScalarValue, dim.Columns)
	for j := range data {
		data[j] = make([]ScalarValue, dim.Lines)
		for i := range data[j] {
			data[j][i] = a.At(i, j)
		}
	}
	return NewArray(data)
}

func (a Array) Map(do func(ScalarValue) ScalarValue) Array {
	data := make([][]ScalarValue, len(a.Data))
	for i := range a.Data {
		data[i] = make([]ScalarValue, len(a.Data[i]))
		for j := range a.Data[i] {
			data[i][j] = do(a.At(i, j))
		}
	}
	return NewArray(data)
}

// Single reduces an array to its top left cell.
func Single(arr ArrayValue) ScalarValue {
	dim := arr.Dimension()
	if dim.Lines == 0 || dim.Columns == 0 {
		return ErrValue
	}
	return arr.At(0, 0)
}

// ToArray wraps a scalar into a 1x1 array and returns arrays unchanged.
func ToArray(v Value) Array {
	switch x := v.(type) {
	case Array:
		return x
	case ArrayValue:
		dim := x.Dimension()
		data := make([][]ScalarValue, dim.Lines)
		for i := range data {
			data[i] = make([]ScalarValue, dim.Columns)
			for j := range data[i] {
				data[i][j] = x.At(i, j)
			}
		}
		return NewArray(data)
	case ScalarValue:
		return NewArray([][]ScalarValue{{x}})
	default:
		return NewArray([][]ScalarValue{{Blank{}}})
	}
}

// Scalars flattens any value to its scalars.
func Scalars(v Value) []ScalarValue {
	switch x := v.(type) {
	case ArrayValue:
		return ToArray(x).Values()
	case ScalarValue:
		return []ScalarValue{x}
	default:
		return nil
	}
}
