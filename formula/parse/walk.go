package parse

// Children lists the direct sub expressions of expr.
func Children(expr Expr) []Expr {
	switch e := expr.(type) {
	case Binary:
		return []Expr{e.left, e.right}
	case Unary:
		return []Expr{e.expr}
	case Postfix:
		return []Expr{e.expr}
	case Group:
		return []Expr{e.expr}
	case Call:
		return e.args
	default:
		return nil
	}
}

// Walk visits expr depth first. Children are skipped when fn returns false.
func Walk(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	for _, c := range Children(expr) {
		Walk(c, fn)
	}
}

// Transform rebuilds expr bottom up, replacing each node by the result of fn.
func Transform(expr Expr, fn func(Expr) Expr) Expr {
	switch e := expr.(type) {
	case Binary:
		e.left = Transform(e.left, fn)
		e.right = Transform(e.right, fn)
		expr = e
	case Unary:
		e.expr = Transform(e.expr, fn)
		expr = e
	case Postfix:
		e.expr = Transform(e.expr, fn)
		expr = e
	case Group:
		e.expr = Transform(e.expr, fn)
		expr = e
	case Call:
		args := make([]Expr, len(e.args))
		for i := range e.args {
			args[i] = Transform(e.args[i], fn)
		}
		e.args = args
		expr = e
	}
	return fn(expr)
}

// Functions lists the names of the functions called by expr.
func Functions(expr Expr) []string {
	var list []string
	Walk(expr, func(e Expr) bool {
		if c, ok := e.(Call); ok {
			list = append(list, c.name)
		}
		return true
	})
	return list
}
