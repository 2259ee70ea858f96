package builtins

import (
	"strings"
	"unicode"
)

type globKind int8

const (
	globChar globKind = iota
	globAny
	globOne
)

type globToken struct {
	kind globKind
	char rune
}

// glob is a compiled wildcard pattern: * matches any run of characters, ?
// a single one and ~ escapes the character following it.
type glob []globToken

func compileGlob(pattern string) glob {
	var (
		g  glob
		rs = []rune(pattern)
	)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '*':
			if len(g) > 0 && g[len(g)-1].kind == globAny {
				continue
			}
			g = append(g, globToken{kind: globAny})
		case '?':
			g = append(g, globToken{kind: globOne})
		case '~':
			if i+1 < len(rs) && strings.ContainsRune("*?~", rs[i+1]) {
				i++
			}
			g = append(g, globToken{char: rs[i]})
		default:
			g = append(g, globToken{char: rs[i]})
		}
	}
	return g
}

// hasWildcard reports whether the pattern contains an unescaped wildcard or
// an escape.
func hasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?~")
}

func (g glob) Match(str string) bool {
	return g.match([]rune(str), true)
}

// Index gives the position of the first match found in str from start, or
// -1.
func (g glob) Index(str []rune, start int) int {
	for i := start; i <= len(str); i++ {
		if g.match(str[i:], false) {
			return i
		}
	}
	return -1
}

func (g glob) match(rs []rune, full bool) bool {
	if len(g) == 0 {
		return !full || len(rs) == 0
	}
	switch g[0].kind {
	case globAny:
		for i := 0; i <= len(rs); i++ {
			if g[1:].match(rs[i:], full) {
				return true
			}
		}
		return false
	case globOne:
		return len(rs) > 0 && g[1:].match(rs[1:], full)
	default:
		return len(rs) > 0 && sameRune(rs[0], g[0].char) && g[1:].match(rs[1:], full)
	}
}

func sameRune(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}
