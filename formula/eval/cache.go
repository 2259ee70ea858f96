package eval

import (
	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/value"
)

type compiled func(*Env) value.Value

// Cache keeps the compiled form of formulas. Entries are keyed by the
// identity of the formula: a formula replaced by a new parse gets a new
// entry. A Cache is not safe for concurrent use.
type Cache struct {
	entries map[*parse.Formula]compiled

	hits   int
	misses int
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[*parse.Formula]compiled),
	}
}

func (c *Cache) Eval(f *parse.Formula, env *Env) value.Value {
	fn, ok := c.entries[f]
	if ok {
		c.hits++
	} else {
		c.misses++
		fn = Compile(f.Expr)
		c.entries[f] = fn
	}
	return fn(env)
}

func (c *Cache) Forget(f *parse.Formula) {
	delete(c.entries, f)
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) Stats() (int, int) {
	return c.hits, c.misses
}

// Compile turns expr into a closure. Trees rooted at a union or an
// intersection are interpreted at each call since the shape of their result
// depends on where they are evaluated.
func Compile(expr parse.Expr) func(*Env) value.Value {
	if b, ok := parse.Unwrap(expr).(parse.Binary); ok && (b.Op() == op.Union || b.Op() == op.Isect) {
		return func(env *Env) value.Value {
			return Eval(expr, env)
		}
	}
	return compile(expr)
}

func compile(expr parse.Expr) compiled {
	switch e := expr.(type) {
	case parse.Literal:
		v := e.Value()
		return func(_ *Env) value.Value {
			return v
		}
	case parse.ArrayLit:
		v := value.NewArray(e.Rows())
		return func(_ *Env) value.Value {
			return v
		}
	case parse.Ref:
		ref := e.Reference()
		return func(env *Env) value.Value {
			return env.resolve(ref)
		}
	case parse.Group:
		return compile(e.Expr())
	case parse.Unary:
		return compileUnary(e.Expr(), e.Op())
	case parse.Postfix:
		return compileUnary(e.Expr(), e.Op())
	case parse.Binary:
		if op.Reference(e.Op()) {
			return func(env *Env) value.Value {
				return evalSet(e, env)
			}
		}
		var (
			left  = compile(e.Left())
			right = compile(e.Right())
			do    = binaryFunc(e.Op())
		)
		return func(env *Env) value.Value {
			return value.Broadcast(left(env), right(env), do)
		}
	case parse.Call:
		return compileCall(e)
	default:
		return func(env *Env) value.Value {
			return Eval(expr, env)
		}
	}
}

func compileUnary(expr parse.Expr, oper op.Op) compiled {
	var (
		inner = compile(expr)
		do    = unaryFunc(oper)
	)
	return func(env *Env) value.Value {
		return value.Apply(inner(env), do)
	}
}

func compileCall(e parse.Call) compiled {
	var (
		list = e.Args()
		runs = make([]compiled, len(list))
	)
	for i := range list {
		runs[i] = compile(list[i])
	}
	return func(env *Env) value.Value {
		fn, ok := env.Funcs.Lookup(e.Name())
		if !ok {
			return value.ErrName
		}
		args := make([]*Arg, len(list))
		for i := range list {
			args[i] = newArg(list[i], env, fn.Mode(i), runs[i])
		}
		return fn.invoke(env, args)
	}
}
