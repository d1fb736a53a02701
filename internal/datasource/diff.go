package datasource

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// TreeDiff lists the node IDs that differ between two loads of the same
// data. Nodes without an ID are not compared.
type TreeDiff struct {
	// Added contains IDs present only in the new trees
	Added []string
	// Removed contains IDs present only in the old trees
	Removed []string
	// Changed contains IDs whose scalar fields or tags differ
	Changed []string
	// Moved contains IDs whose parent differs
	Moved  []string
	CountA int
	CountB int
}

// Empty reports whether the two loads hold the same nodes.
func (d TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && len(d.Moved) == 0
}

// Summary returns a human-readable summary of the differences
func (d TreeDiff) Summary() string {
	if d.Empty() {
		return fmt.Sprintf("no changes (%d nodes)", d.CountB)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d -> %d nodes", d.CountA, d.CountB)
	for _, part := range []struct {
		name string
		ids  []string
	}{
		{"added", d.Added},
		{"removed", d.Removed},
		{"changed", d.Changed},
		{"moved", d.Moved},
	} {
		if len(part.ids) == 0 {
			continue
		}
		fmt.Fprintf(&b, ", %d %s", len(part.ids), part.name)
		if len(part.ids) <= 5 {
			fmt.Fprintf(&b, " (%s)", strings.Join(part.ids, " "))
		}
	}
	return b.String()
}

type indexed struct {
	node   *Node
	parent string
}

func index(nodes []*Node) map[string]indexed {
	m := make(map[string]indexed)
	var visit func(parent string, level []*Node)
	visit = func(parent string, level []*Node) {
		for _, n := range level {
			if n == nil {
				continue
			}
			if n.ID != "" {
				m[n.ID] = indexed{node: n, parent: parent}
			}
			visit(n.ID, n.Children)
		}
	}
	visit("", nodes)
	return m
}

// Diff compares two loads by node ID. Result slices are sorted.
func Diff(before, after []*Node) TreeDiff {
	a, b := index(before), index(after)
	d := TreeDiff{CountA: len(a), CountB: len(b)}

	for id := range a {
		if _, ok := b[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	for id, nb := range b {
		na, ok := a[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if na.parent != nb.parent {
			d.Moved = append(d.Moved, id)
		}
		if !sameFields(na.node, nb.node) {
			d.Changed = append(d.Changed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	sort.Strings(d.Moved)
	return d
}

func sameFields(a, b *Node) bool {
	return a.Label == b.Label &&
		a.Kind == b.Kind &&
		a.Points == b.Points &&
		a.Done == b.Done &&
		slices.Equal(a.Tags, b.Tags)
}
