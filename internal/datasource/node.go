// Package datasource loads the record trees listbind displays. Trees are read
// from JSON, JSONL, YAML or SQLite files; a SQLite store can also serve
// children lazily, one level at a time.
package datasource

import (
	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// Node is one record of a tree.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Kind     string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Points   int      `json:"points,omitempty" yaml:"points,omitempty"`
	Done     bool     `json:"done,omitempty" yaml:"done,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// String returns the label, which is what the text column shows.
func (n *Node) String() string { return n.Label }

// HasChildren reports whether the node holds any children in memory.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Items converts nodes into list items.
func Items(nodes []*Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// TreeSource describes in-memory node trees to an obslist.
func TreeSource() obslist.TreeSource {
	return obslist.TreeSource{
		Children:    accessor.Attr("Children"),
		HasChildren: accessor.Attr("HasChildren"),
	}
}

// Count returns the number of nodes in the trees, children included.
func Count(nodes []*Node) int {
	n := 0
	Walk(nodes, func(*Node, int) bool {
		n++
		return true
	})
	return n
}

// Walk visits nodes depth-first with their depth. Returning false stops the
// walk.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) bool {
	return walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(*Node, int) bool) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}
