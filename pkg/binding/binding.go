// Package binding connects an obslist tree to a view through named columns.
//
// A Binding owns the column declarations and their accessor sources, the
// sort state, and the root list. It forwards every list notification to its
// View after doing its own bookkeeping, and turns view gestures (expand,
// heading click, cell edit, add, remove, move) into list operations.
package binding

import (
	"errors"
	"fmt"
	"maps"

	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/metrics"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

var (
	// ErrUnknownColumn is returned for column ids that were never declared.
	ErrUnknownColumn = errors.New("binding: unknown column")
	// ErrDuplicateColumn is returned when a column id is declared twice.
	ErrDuplicateColumn = errors.New("binding: duplicate column")
	// ErrNoFactory is returned when a row is added without an item factory.
	ErrNoFactory = errors.New("binding: no item factory set")
	// ErrNilList is returned when a nil list is bound.
	ErrNilList = errors.New("binding: nil list")
)

// View is what a Binding keeps in sync: the adapter to a concrete widget.
// Each method answers one list notification.
type View interface {
	// Insert renders a row and returns its handle, which must stay valid
	// until Remove.
	Insert(idx int, item any, parent obslist.Handle) obslist.Handle
	// Replace refreshes the displayed values of a row in place.
	Replace(h obslist.Handle, item any)
	// Remove drops a row.
	Remove(h obslist.Handle)
	// LoadChildren renders a freshly loaded child list, usually by calling
	// children.Replay().
	LoadChildren(children *obslist.List)
	// Sort reorders the rows under l.ParentHandle() to match l.Handles().
	Sort(l *obslist.List, info obslist.SortInfo)
	// Selection returns the items currently selected by the user.
	Selection() []any
}

// Resetter is implemented by views that can drop all rows. A Binding calls
// Reset before reseeding the view with a new list.
type Resetter interface {
	Reset()
}

// Binding binds a list to a view through columns.
type Binding struct {
	columns []Column
	sources map[string]accessor.Source
	list    *obslist.List
	view    View
	factory func() (any, error)

	allowSorting bool
	// displayed sort state, cleared by foreign sorts
	sortKey       string
	sortAscending bool
	sorted        bool
	// last column sort, for Restore
	restoreKey string
	restoreAsc bool
	canRestore bool
}

// Option configures a Binding.
type Option func(*Binding)

// WithView sets the view notified of list changes.
func WithView(v View) Option {
	return func(b *Binding) { b.view = v }
}

// WithFactory sets the constructor used for rows added through the view.
func WithFactory(f func() (any, error)) Option {
	return func(b *Binding) { b.factory = f }
}

// WithTreeSource makes the initial (empty) list a tree.
func WithTreeSource(ts obslist.TreeSource) Option {
	return func(b *Binding) { b.list.SetTreeSource(ts) }
}

// WithAllowSorting enables or disables sorting. Sorting is enabled by
// default.
func WithAllowSorting(allow bool) Option {
	return func(b *Binding) { b.allowSorting = allow }
}

// New creates a binding over an empty list. Every column id defaults to the
// member of the same name; the label column (id "") always exists and
// defaults to the item's text, declared or not.
func New(columns []Column, opts ...Option) (*Binding, error) {
	b := &Binding{
		sources:       make(map[string]accessor.Source, len(columns)+1),
		allowSorting:  true,
		sortAscending: true,
	}
	for _, c := range columns {
		if _, dup := b.sources[c.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.ID)
		}
		if c.ID == "" {
			b.sources[c.ID] = accessor.Text{}
		} else {
			b.sources[c.ID] = accessor.Attr(c.ID)
		}
		b.columns = append(b.columns, c)
	}
	if _, ok := b.sources[""]; !ok {
		b.sources[""] = accessor.Text{}
	}

	b.list = obslist.New(nil)
	for _, opt := range opts {
		opt(b)
	}
	b.list.Attach(b.sinks())
	return b, nil
}

// Columns returns the declared columns in order.
func (b *Binding) Columns() []Column {
	return append([]Column(nil), b.columns...)
}

// Column returns the declared column with the given id.
func (b *Binding) Column(id string) (Column, bool) {
	for _, c := range b.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// Sources rebinds columns to new accessor sources. updates maps column ids
// to anything accessor.Parse accepts; text, when not nil, rebinds the label
// column. Nothing is changed if any id is undeclared or any source is
// invalid.
func (b *Binding) Sources(updates map[string]any, text any) error {
	parsed := make(map[string]accessor.Source, len(updates)+1)
	for id, v := range updates {
		if _, ok := b.Column(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, id)
		}
		src, err := accessor.Parse(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", id, err)
		}
		parsed[id] = src
	}
	if text != nil {
		src, err := accessor.Parse(text)
		if err != nil {
			return fmt.Errorf("label column: %w", err)
		}
		parsed[""] = src
	}
	maps.Copy(b.sources, parsed)
	return nil
}

// Source returns the accessor source bound to a column.
func (b *Binding) Source(col string) (accessor.Source, error) {
	src, ok := b.sources[col]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	return src, nil
}

// Retrieve reads the value of column col from item.
func (b *Binding) Retrieve(item any, col string) (any, error) {
	src, err := b.Source(col)
	if err != nil {
		return nil, err
	}
	return accessor.Retrieve(item, src)
}

// Store writes value into column col of item.
func (b *Binding) Store(item, value any, col string) error {
	src, err := b.Source(col)
	if err != nil {
		return err
	}
	return accessor.Store(item, value, src)
}

// List returns the bound root list.
func (b *Binding) List() *obslist.List { return b.list }

// SetList rebinds the binding to v: a *obslist.List is used as is, any other
// collection is copied into a new list that keeps the previous list's tree
// source. The old list is detached before the new one is attached, then the
// view is reset and sent one insert per item.
//
// A list that belongs to the currently bound tree (a loaded child list) is
// split off it first, so the old tree stays detached.
func (b *Binding) SetList(v any) error {
	defer metrics.Timer(metrics.Rebind)()
	defer debug.Trace("binding.SetList")()

	next, ok := v.(*obslist.List)
	if ok && next == nil {
		return ErrNilList
	}
	if ok && next == b.list {
		return nil
	}
	if ok && next.SharesSinks(b.list) {
		next.Isolate()
	}
	if !ok {
		items, err := obslist.ToItems(v)
		if err != nil {
			return err
		}
		next = obslist.New(items, obslist.WithTreeSource(b.list.TreeSource()))
	}

	b.list.Detach()
	b.list = next
	if r, ok := b.view.(Resetter); ok {
		r.Reset()
	}
	next.Attach(b.sinks())
	next.Replay()
	debug.Log("binding: rebound to %d items", next.Len())
	return nil
}

// Selection returns the items selected in the view.
func (b *Binding) Selection() ([]any, error) {
	return b.list.Selection()
}

// HasChildren reports whether item should show an expander.
func (b *Binding) HasChildren(item any) (bool, error) {
	return b.list.HasChildren(item)
}

// Factory returns the item factory, or nil.
func (b *Binding) Factory() func() (any, error) { return b.factory }

// SetFactory replaces the item factory.
func (b *Binding) SetFactory(f func() (any, error)) { b.factory = f }

// sinks forwards list notifications to the view after bookkeeping.
func (b *Binding) sinks() obslist.Sinks {
	return obslist.Sinks{
		OnInsert: func(idx int, item any, parent obslist.Handle) obslist.Handle {
			if b.view == nil {
				return nil
			}
			return b.view.Insert(idx, item, parent)
		},
		OnReplace: func(h obslist.Handle, item any) {
			if b.view != nil {
				b.view.Replace(h, item)
			}
		},
		OnRemove: func(h obslist.Handle) {
			if b.view != nil {
				b.view.Remove(h)
			}
		},
		OnLoadChildren: func(children *obslist.List) {
			if b.view != nil {
				b.view.LoadChildren(children)
			}
		},
		OnSort: func(l *obslist.List, info obslist.SortInfo) {
			b.onSort(info)
			if b.view != nil {
				b.view.Sort(l, info)
			}
		},
		OnGetSelection: func() []any {
			metrics.Selections.Inc()
			if b.view == nil {
				return nil
			}
			return b.view.Selection()
		},
	}
}
