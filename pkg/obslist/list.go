// Package obslist implements an observable, optionally tree-shaped list of
// arbitrary domain items.
//
// A List behaves like a slice of items, with two parallel arrays kept
// index-aligned with it at all times:
//
//   - handles: the opaque view handle returned by the view for each item
//   - children: the lazily loaded child list of each item (nil until loaded)
//
// Every structural change (insert, replace, remove, children loaded, sort) is
// reported synchronously through a Sinks bundle that the whole tree shares.
// The list never depends on the concrete view; a view is anything that
// answers OnInsert with a handle.
package obslist

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vanderheijden86/listbind/pkg/accessor"
)

var (
	// ErrNotFound is returned when an item or handle is not in the loaded
	// part of the tree.
	ErrNotFound = errors.New("obslist: not found")
	// ErrIndexOutOfRange is returned for positions outside [-len, len).
	ErrIndexOutOfRange = errors.New("obslist: index out of range")
	// ErrDetached is returned when the selection of a detached list is
	// queried.
	ErrDetached = errors.New("obslist: list is detached from its view")
)

// TreeSource turns a flat list into a tree. Children resolves an item's
// child collection; HasChildren decides whether the item shows an expander.
// With Children set and HasChildren nil every item is assumed expandable.
//
// The tree source of a child list is a copy taken when the child is loaded;
// later changes to the parent's source do not reach existing children.
type TreeSource struct {
	Children    accessor.Source
	HasChildren accessor.Source
}

// List is one level of an observable tree.
type List struct {
	items    []any
	handles  []Handle
	children []*List
	parent   Handle
	tree     TreeSource
	hub      *hub
	sorted   bool
}

// Option configures a List created by New.
type Option func(*listOptions)

type listOptions struct {
	sinks  *Sinks
	parent Handle
	tree   TreeSource
}

// WithSinks attaches the sinks before any item is added, so each initial
// item is reported through OnInsert, in order, before New returns.
func WithSinks(s Sinks) Option {
	return func(o *listOptions) {
		o.sinks = &s
	}
}

// WithParent sets the handle reported as parent for inserts into the list.
func WithParent(h Handle) Option {
	return func(o *listOptions) {
		o.parent = h
	}
}

// WithTreeSource makes the list a tree root.
func WithTreeSource(ts TreeSource) Option {
	return func(o *listOptions) {
		o.tree = ts
	}
}

// New creates a list holding a copy of items.
func New(items []any, opts ...Option) *List {
	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}
	l := newLevel(slices.Clone(items), o.parent, o.tree, &hub{})
	if o.sinks != nil {
		l.hub.sinks = *o.sinks
		l.Replay()
	}
	return l
}

func newLevel(items []any, parent Handle, tree TreeSource, h *hub) *List {
	if items == nil {
		items = []any{}
	}
	return &List{
		items:    items,
		handles:  make([]Handle, len(items)),
		children: make([]*List, len(items)),
		parent:   parent,
		tree:     tree,
		hub:      h,
	}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at i. Like slice indexing it panics when i is out of
// range.
func (l *List) At(i int) any { return l.items[i] }

// Items returns a copy of the items in list order.
func (l *List) Items() []any { return slices.Clone(l.items) }

// Handles returns a copy of the view handles, index-aligned with Items.
func (l *List) Handles() []Handle { return slices.Clone(l.handles) }

// HandleAt returns the view handle of the item at i.
func (l *List) HandleAt(i int) Handle { return l.handles[i] }

// SetHandle records the view handle for the item at i. Views call this when
// they render items outside an OnInsert call.
func (l *List) SetHandle(i int, h Handle) error {
	i, err := l.position(i)
	if err != nil {
		return err
	}
	l.handles[i] = h
	return nil
}

// ParentHandle is the handle of the node whose children this list holds
// (nil for a root list).
func (l *List) ParentHandle() Handle { return l.parent }

// Sorted reports whether the last reordering was a column sort and nothing
// was inserted, replaced or mutated since.
func (l *List) Sorted() bool { return l.sorted }

// Insert inserts item before position i and returns the position actually
// used. Positions are clamped like slice bounds: negative values count
// from the end and anything beyond the ends goes to the nearest end.
// OnInsert is called before Insert returns and its result becomes the
// item's handle.
func (l *List) Insert(i int, item any) (int, any) {
	n := len(l.items)
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	} else if i > n {
		i = n
	}
	l.items = slices.Insert(l.items, i, item)
	l.handles = slices.Insert(l.handles, i, Handle(nil))
	l.children = slices.Insert(l.children, i, (*List)(nil))
	l.sorted = false
	h := l.hub.insert(i, item, l.parent)
	l.storeHandle(i, item, h)
	return i, item
}

// storeHandle puts h at i, unless a re-entrant sink moved the item, in which
// case the first unsynced occurrence of item gets it.
func (l *List) storeHandle(i int, item any, h Handle) {
	if i < len(l.items) && same(l.items[i], item) && l.handles[i] == nil {
		l.handles[i] = h
		return
	}
	for j, it := range l.items {
		if same(it, item) && l.handles[j] == nil {
			l.handles[j] = h
			return
		}
	}
}

// Append adds item at the end.
func (l *List) Append(item any) {
	l.Insert(len(l.items), item)
}

// Extend appends each item in order.
func (l *List) Extend(items ...any) {
	for _, it := range items {
		l.Append(it)
	}
}

// Replace puts item at position i. The old item's children are discarded
// and the view is told to refresh the row; the handle stays the same.
func (l *List) Replace(i int, item any) error {
	i, err := l.position(i)
	if err != nil {
		return err
	}
	l.items[i] = item
	l.children[i] = nil
	l.sorted = false
	l.hub.replace(l.handles[i], item)
	return nil
}

// Remove deletes the item at i. OnRemove sees the handle before the item,
// handle and children slot are dropped.
func (l *List) Remove(i int) error {
	i, err := l.position(i)
	if err != nil {
		return err
	}
	l.hub.remove(l.handles[i])
	if i >= len(l.items) {
		return nil
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.handles = slices.Delete(l.handles, i, i+1)
	l.children = slices.Delete(l.children, i, i+1)
	return nil
}

// Pop removes and returns the item at i.
func (l *List) Pop(i int) (any, error) {
	i, err := l.position(i)
	if err != nil {
		return nil, err
	}
	item := l.items[i]
	return item, l.Remove(i)
}

// RemoveItem removes the first occurrence of item from this level.
func (l *List) RemoveItem(item any) error {
	i := l.indexOf(item)
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrNotFound, item)
	}
	return l.Remove(i)
}

// Index returns the position of the first occurrence of item on this
// level, or -1.
func (l *List) Index(item any) int { return l.indexOf(item) }

// ItemMutated tells the view that item (already in this list) changed in
// place. Unlike Replace it keeps the loaded children.
func (l *List) ItemMutated(item any) error {
	i := l.indexOf(item)
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrNotFound, item)
	}
	l.sorted = false
	l.hub.replace(l.handles[i], item)
	return nil
}

// Replay reports every current item through OnInsert, in order, and stores
// the returned handles. Views call it from OnLoadChildren to render a fresh
// child list; bindings call it to reseed a view.
func (l *List) Replay() {
	for i := 0; i < len(l.items); i++ {
		l.handles[i] = l.hub.insert(i, l.items[i], l.parent)
	}
}

// Selection asks the view for the currently selected items.
func (l *List) Selection() ([]any, error) {
	if l.hub.detached {
		return nil, ErrDetached
	}
	if l.hub.sinks.OnGetSelection == nil {
		return nil, nil
	}
	return l.hub.sinks.OnGetSelection(), nil
}

// Attach replaces the sinks of the whole tree this list belongs to.
func (l *List) Attach(s Sinks) {
	l.hub.sinks = s
	l.hub.detached = false
}

// Detach clears all sinks of the tree. A detached list still works as a
// plain list but reports nothing.
func (l *List) Detach() {
	l.hub.sinks = Sinks{}
	l.hub.detached = true
}

// Isolate makes l the root of a tree of its own. l and its loaded
// descendants move onto a new sink bundle, carrying over the current sinks,
// so Attach and Detach on l no longer reach the tree l was loaded into and
// the reverse. l's parent handle is cleared; it belonged to the old tree.
func (l *List) Isolate() {
	h := &hub{sinks: l.hub.sinks, detached: l.hub.detached}
	l.parent = nil
	l.rehome(h)
}

func (l *List) rehome(h *hub) {
	l.hub = h
	for _, c := range l.children {
		if c != nil {
			c.rehome(h)
		}
	}
}

// SharesSinks reports whether l and other belong to the same tree and so
// use the same sinks.
func (l *List) SharesSinks(other *List) bool {
	return other != nil && l.hub == other.hub
}

// Detached reports whether Detach was called since the last Attach.
func (l *List) Detached() bool { return l.hub.detached }

func (l *List) position(i int) (int, error) {
	n := len(l.items)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	return i, nil
}

func (l *List) indexOf(item any) int {
	for i, it := range l.items {
		if same(it, item) {
			return i
		}
	}
	return -1
}
