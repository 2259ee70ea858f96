package layout

import (
	"errors"
)

const (
	MaxLines   = 1048576
	MaxColumns = 16384
)

var ErrAddress = errors.New("invalid address")

type Dimension struct {
	Lines   int64
	Columns int64
}

func (d Dimension) Max(other Dimension) Dimension {
	if other.Lines > d.Lines {
		d.Lines = other.Lines
	}
	if other.Columns > d.Columns {
		d.Columns = other.Columns
	}
	return d
}

func (d Dimension) Size() int64 {
	return d.Lines * d.Columns
}

func (d Dimension) Single() bool {
	return d.Lines == 1 && d.Columns == 1
}
