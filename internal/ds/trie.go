package ds

import "slices"

type Node[T any] struct {
	name     string
	value    T
	setted   bool
	children map[string]*Node[T]
}

func createNode[T any](name string) *Node[T] {
	return &Node[T]{
		name:     name,
		children: make(map[string]*Node[T]),
	}
}

type Trie[T any] struct {
	root *Node[T]
}

func NewTrie[T any]() *Trie[T] {
	trie := Trie[T]{
		root: createNode[T](""),
	}
	return &trie
}

func (t *Trie[T]) Get(path []string) (T, bool) {
	node, ok := t.find(path)
	if !ok {
		var z T
		return z, false
	}
	return node.value, node.setted
}

// Walk calls fn for every value registered under prefix, in lexical order
// of the paths.
func (t *Trie[T]) Walk(prefix []string, fn func(path []string, v T)) {
	node, ok := t.find(prefix)
	if !ok {
		return
	}
	var walk func(n *Node[T], path []string)

	walk = func(n *Node[T], path []string) {
		if n.setted {
			fn(slices.Clone(path), n.value)
		}
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			walk(n.children[name], append(path, name))
		}
	}
	walk(node, slices.Clone(prefix))
}

func (t *Trie[T]) Register(path []string, value T) {
	node := t.root
	for _, name := range path {
		if node.children[name] == nil {
			node.children[name] = createNode[T](name)
		}
		node = node.children[name]
	}
	node.value = value
	node.setted = true
}

func (t *Trie[T]) find(path []string) (*Node[T], bool) {
	node := t.root
	for _, name := range path {
		child, ok := node.children[name]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}
