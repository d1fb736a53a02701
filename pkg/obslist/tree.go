package obslist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/metrics"
)

// SetTreeSource turns the list into a tree (or back into a flat list when ts
// is zero). Loaded children are discarded.
func (l *List) SetTreeSource(ts TreeSource) {
	l.tree = ts
	clear(l.children)
}

// TreeSource returns the list's child configuration.
func (l *List) TreeSource() TreeSource { return l.tree }

// HasChildren reports whether item should show an expander. Without a
// Children source it is always false.
func (l *List) HasChildren(item any) (bool, error) {
	if l.tree.Children == nil {
		return false, nil
	}
	if l.tree.HasChildren == nil {
		return true, nil
	}
	v, err := accessor.Retrieve(item, l.tree.HasChildren)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// LoadChildren resolves the children of the item at i into a new child list
// and reports it through OnLoadChildren. Loading an index that is already
// loaded discards the old child list and loads again. Without a Children
// source this does nothing.
func (l *List) LoadChildren(i int) error {
	if l.tree.Children == nil {
		return nil
	}
	i, err := l.position(i)
	if err != nil {
		return err
	}
	defer metrics.Timer(metrics.LoadChildren)()

	v, err := accessor.Retrieve(l.items[i], l.tree.Children)
	if err != nil {
		return fmt.Errorf("obslist: children of item %d: %w", i, err)
	}
	items, err := ToItems(v)
	if err != nil {
		return fmt.Errorf("obslist: children of item %d: %w", i, err)
	}
	child := newLevel(items, l.handles[i], l.tree, l.hub)
	l.children[i] = child
	l.hub.loadChildren(child)
	return nil
}

// Children returns the child list of the item at i, loading it first if
// needed. It returns nil without error when the list has no Children source.
func (l *List) Children(i int) (*List, error) {
	i, err := l.position(i)
	if err != nil {
		return nil, err
	}
	if l.children[i] == nil {
		if err := l.LoadChildren(i); err != nil {
			return nil, err
		}
	}
	return l.children[i], nil
}

// ChildAt returns the loaded child list at i, or nil. It never loads.
func (l *List) ChildAt(i int) *List { return l.children[i] }

// Walk visits every item of the loaded tree depth-first: an item, then its
// loaded children, then its next sibling. Returning false stops the walk.
func (l *List) Walk(fn func(l *List, i int, item any) bool) bool {
	for i, it := range l.items {
		if !fn(l, i, it) {
			return false
		}
		if c := l.children[i]; c != nil {
			if !c.Walk(fn) {
				return false
			}
		}
	}
	return true
}

// Find locates item in the loaded tree and returns the list holding it and
// its position there. This level is searched before any child list. Nothing
// is loaded while searching.
func (l *List) Find(item any) (*List, int, error) {
	defer metrics.Timer(metrics.TreeSearch)()
	p, err := l.findPath(func(sub *List) int { return sub.indexOf(item) })
	if err != nil {
		return nil, 0, fmt.Errorf("%w: item %v", ErrNotFound, item)
	}
	return l.Resolve(p)
}

// FindByHandle locates the item with view handle h in the loaded tree.
func (l *List) FindByHandle(h Handle) (*List, int, error) {
	defer metrics.Timer(metrics.TreeSearch)()
	p, err := l.FindPathByHandle(h)
	if err != nil {
		return nil, 0, err
	}
	return l.Resolve(p)
}

// FindPath is like Find but returns the full path from this list.
func (l *List) FindPath(item any) (Path, error) {
	p, err := l.findPath(func(sub *List) int { return sub.indexOf(item) })
	if err != nil {
		return nil, fmt.Errorf("%w: item %v", ErrNotFound, item)
	}
	return p, nil
}

// FindPathByHandle is like FindByHandle but returns the full path.
func (l *List) FindPathByHandle(h Handle) (Path, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil handle", ErrNotFound)
	}
	p, err := l.findPath(func(sub *List) int {
		for i, hh := range sub.handles {
			if same(hh, h) {
				return i
			}
		}
		return -1
	})
	if err != nil {
		return nil, fmt.Errorf("%w: handle %v", ErrNotFound, h)
	}
	return p, nil
}

func (l *List) findPath(match func(*List) int) (Path, error) {
	if i := match(l); i >= 0 {
		return Path{Index(i)}, nil
	}
	for i, c := range l.children {
		if c == nil {
			continue
		}
		if p, err := c.findPath(match); err == nil {
			return append(Path{Index(i)}, p...), nil
		}
	}
	return nil, ErrNotFound
}

// Resolve follows p from this list. Every step but the last descends into
// the loaded children of that index. A final Index step yields the list and
// position of an item; a final ChildrenOf step (or an empty path) yields a
// list and -1.
func (l *List) Resolve(p Path) (*List, int, error) {
	cur := l
	for k, step := range p {
		last := k == len(p)-1
		if step.IsChildrenOf() {
			if !last {
				return nil, 0, fmt.Errorf("%w: ChildrenOf must be the last step of %v", ErrNotFound, p)
			}
			return cur, -1, nil
		}
		i, err := cur.position(step.index)
		if err != nil {
			return nil, 0, err
		}
		if last {
			return cur, i, nil
		}
		next := cur.children[i]
		if next == nil {
			return nil, 0, fmt.Errorf("%w: children of %v not loaded", ErrNotFound, p[:k+1])
		}
		cur = next
	}
	return cur, -1, nil
}

// Step is one element of a Path: either an item position or the child list
// reached through the previous position.
type Step struct {
	index    int
	children bool
}

// Index addresses the item at position i.
func Index(i int) Step { return Step{index: i} }

// ChildrenOf addresses a child list itself rather than one of its items.
var ChildrenOf = Step{children: true}

// Position returns the item position and true, or false for ChildrenOf.
func (s Step) Position() (int, bool) { return s.index, !s.children }

// IsChildrenOf reports whether s is the ChildrenOf step.
func (s Step) IsChildrenOf() bool { return s.children }

func (s Step) String() string {
	if s.children {
		return "children"
	}
	return strconv.Itoa(s.index)
}

// Path addresses a node in a tree of lists, from the root down.
type Path []Step

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Check verifies that items, handles and children stay index-aligned on
// every loaded level and that each loaded child list records its parent's
// handle.
func (l *List) Check() error {
	if len(l.items) != len(l.handles) || len(l.items) != len(l.children) {
		return fmt.Errorf("obslist: misaligned level under %v: %d items, %d handles, %d children",
			l.parent, len(l.items), len(l.handles), len(l.children))
	}
	for i, c := range l.children {
		if c == nil {
			continue
		}
		if !same(c.parent, l.handles[i]) {
			return fmt.Errorf("obslist: child list at %d has parent %v, want %v", i, c.parent, l.handles[i])
		}
		if err := c.Check(); err != nil {
			return err
		}
	}
	return nil
}
