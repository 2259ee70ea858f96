package op

type Op rune

const (
	Invalid Op = iota
	EOF
	Number
	Text
	Bool
	Error
	Ident
	Cell
	Sheet
	Structured
	Comma
	Semi
	BegGrp
	EndGrp
	BegArr
	EndArr
	RangeRef
	Isect
	Union
	Add
	Sub
	Mul
	Div
	Percent
	Pow
	Concat
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var mapping = map[Op]string{
	Add:      "+",
	Sub:      "-",
	Mul:      "*",
	Pow:      "^",
	Div:      "/",
	Percent:  "%",
	Concat:   "&",
	Eq:       "=",
	Ne:       "<>",
	Lt:       "<",
	Le:       "<=",
	Gt:       ">",
	Ge:       ">=",
	RangeRef: ":",
	Isect:    " ",
	Union:    ",",
}

func Symbol(oper Op) string {
	return mapping[oper]
}

// Comparison reports whether oper is one of the six comparison operators.
func Comparison(oper Op) bool {
	switch oper {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	default:
		return false
	}
}

// Reference reports whether oper combines references rather than values.
func Reference(oper Op) bool {
	return oper == RangeRef || oper == Isect || oper == Union
}
