package builtins

import (
	"github.com/midbel/xlcalc/formula/eval"
)

// maxText is the longest text a cell can hold.
const maxText = 32767

// Default returns a registry holding every built-in function.
func Default() *eval.Registry {
	reg := eval.NewRegistry()
	Register(reg)
	return reg
}

func Register(reg *eval.Registry) {
	reg.Register(mathFunctions...)
	reg.Register(criteriaFunctions...)
	reg.Register(logicalFunctions...)
	reg.Register(infoFunctions...)
	reg.Register(lookupFunctions...)
	reg.Register(textFunctions...)
	reg.Register(dateFunctions...)
	reg.Register(arrayFunctions...)
}
