package calc

import (
	"cmp"
	"slices"
	"strings"

	"github.com/midbel/xlcalc/formula/parse"
)

// Name is a defined name. A name with a sheet is only visible from formulas
// of that sheet and hides a workbook name with the same identifier.
type Name struct {
	Ident   string
	Sheet   string
	Formula *parse.Formula
}

func (n *Name) Scoped() bool {
	return n.Sheet != ""
}

type NameEvent struct {
	Ident   string
	Sheet   string
	Removed bool
}

type nameKey struct {
	ident string
	sheet string
}

func makeNameKey(sheet, ident string) nameKey {
	return nameKey{
		ident: strings.ToUpper(ident),
		sheet: strings.ToUpper(sheet),
	}
}

// Names holds the workbook and sheet scoped names of a workbook.
type Names struct {
	defs map[nameKey]*Name
	subs []func(NameEvent)
}

func NewNames() *Names {
	return &Names{
		defs: make(map[nameKey]*Name),
	}
}

// Subscribe registers fn to be called after a name is defined, redefined or
// removed.
func (n *Names) Subscribe(fn func(NameEvent)) {
	n.subs = append(n.subs, fn)
}

func (n *Names) Define(sheet, ident string, f *parse.Formula) {
	n.defs[makeNameKey(sheet, ident)] = &Name{
		Ident:   ident,
		Sheet:   sheet,
		Formula: f,
	}
	n.notify(NameEvent{
		Ident: ident,
		Sheet: sheet,
	})
}

func (n *Names) Remove(sheet, ident string) bool {
	key := makeNameKey(sheet, ident)
	if _, ok := n.defs[key]; !ok {
		return false
	}
	delete(n.defs, key)
	n.notify(NameEvent{
		Ident:   ident,
		Sheet:   sheet,
		Removed: true,
	})
	return true
}

// Lookup finds a name in one scope only: the workbook when sheet is empty.
func (n *Names) Lookup(sheet, ident string) (*Name, bool) {
	def, ok := n.defs[makeNameKey(sheet, ident)]
	return def, ok
}

// Resolve finds the name visible from a formula of sheet.
func (n *Names) Resolve(sheet, ident string) (*Name, bool) {
	if sheet != "" {
		if def, ok := n.Lookup(sheet, ident); ok {
			return def, ok
		}
	}
	return n.Lookup("", ident)
}

// List gives the workbook names first then the sheet names, each group
// sorted by identifier.
func (n *Names) List() []*Name {
	var list []*Name
	for _, def := range n.defs {
		list = append(list, def)
	}
	slices.SortFunc(list, func(a, b *Name) int {
		if c := cmp.Compare(strings.ToUpper(a.Sheet), strings.ToUpper(b.Sheet)); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToUpper(a.Ident), strings.ToUpper(b.Ident))
	})
	return list
}

func (n *Names) Len() int {
	return len(n.defs)
}

func (n *Names) notify(evt NameEvent) {
	for _, fn := range n.subs {
		fn(evt)
	}
}

// rename moves the names scoped to a sheet after the sheet was renamed.
// Subscribers are not notified: the formulas are rebuilt by the caller.
func (n *Names) rename(old, name string) {
	var list []*Name
	for key, def := range n.defs {
		if def.Sheet == "" || !strings.EqualFold(def.Sheet, old) {
			continue
		}
		delete(n.defs, key)
		list = append(list, def)
	}
	for _, def := range list {
		def.Sheet = name
		n.defs[makeNameKey(name, def.Ident)] = def
	}
}
