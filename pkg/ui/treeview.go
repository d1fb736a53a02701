// Package ui renders a bound obslist tree as a terminal table.
//
// TreeView is both the binding's View (it answers the list notifications
// and mints row handles) and a bubbletea Model (it turns key presses into
// binding gestures).
package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/google/uuid"

	"github.com/vanderheijden86/listbind/pkg/binding"
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// row is one displayed node. Its id is the handle the list stores.
type row struct {
	id       uuid.UUID
	item     any
	parent   *row
	kids     []*row
	cells    []string
	depth    int
	hasKids  bool
	loaded   bool
	expanded bool
	marked   bool
}

// Option configures a TreeView.
type Option func(*TreeView)

// WithIcons replaces the default glyphs.
func WithIcons(icons Icons) Option {
	return func(v *TreeView) { v.icons = icons }
}

// WithReorder lets J/K move root rows.
func WithReorder(allow bool) Option {
	return func(v *TreeView) { v.allowReorder = allow }
}

// WithAutoEdit starts editing the label of every row added from the keyboard.
func WithAutoEdit(on bool) Option {
	return func(v *TreeView) { v.autoEdit = on }
}

// WithLoader sets the function the reload key calls. Its result is passed
// to Binding.SetList.
func WithLoader(load func() (any, string, error)) Option {
	return func(v *TreeView) { v.loader = load }
}

// WithClipboard replaces the function used to copy cell text.
func WithClipboard(write func(string) error) Option {
	return func(v *TreeView) { v.copy = write }
}

// TreeView displays the rows of a binding.
type TreeView struct {
	b     *binding.Binding
	theme Theme
	icons Icons
	keys  keyMap
	help  help.Model
	input textinput.Model

	roots []*row
	byID  map[uuid.UUID]*row
	flat  []*row
	dirty bool

	cursor  int
	offset  int
	col     int
	width   int
	height  int
	editing bool
	status  string
	err     error

	allowReorder bool
	autoEdit     bool
	loader       func() (any, string, error)
	copy         func(string) error
}

// NewTreeView creates an empty view. Call Bind before the binding's list
// receives items.
func NewTreeView(theme Theme, opts ...Option) *TreeView {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	v := &TreeView{
		theme:  theme,
		icons:  DefaultIcons(),
		keys:   newKeyMap(),
		help:   help.New(),
		input:  ti,
		byID:   make(map[uuid.UUID]*row),
		width:  80,
		height: 24,
		copy:   writeClipboard,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.help.Styles.ShortKey = theme.Status.Bold(true)
	v.help.Styles.ShortDesc = theme.Status
	return v
}

// Bind connects the view to the binding whose gestures it drives.
func (v *TreeView) Bind(b *binding.Binding) {
	v.b = b
	v.col = 0
}

// Binding returns the bound binding.
func (v *TreeView) Binding() *binding.Binding { return v.b }

// Insert adds a row under parent at position idx and returns its handle.
func (v *TreeView) Insert(idx int, item any, parent obslist.Handle) obslist.Handle {
	r := &row{id: uuid.New(), item: item}
	v.fill(r)
	v.byID[r.id] = r

	siblings := &v.roots
	if p := v.lookup(parent); p != nil {
		r.parent = p
		siblings = &p.kids
	} else if parent != nil {
		debug.Log("ui: insert under unknown parent %v", parent)
	}
	idx = max(0, min(idx, len(*siblings)))
	*siblings = slices.Insert(*siblings, idx, r)
	v.dirty = true
	return r.id
}

// Replace refreshes the row's cells. If the list dropped the item's
// children the row collapses.
func (v *TreeView) Replace(h obslist.Handle, item any) {
	r := v.lookup(h)
	if r == nil {
		return
	}
	r.item = item
	v.fill(r)
	if r.loaded && v.b != nil {
		if sub, i, err := v.b.List().FindByHandle(h); err == nil && sub.ChildAt(i) == nil {
			v.forget(r.kids)
			r.kids, r.loaded, r.expanded = nil, false, false
		}
	}
	v.dirty = true
}

// Remove drops the row and everything below it.
func (v *TreeView) Remove(h obslist.Handle) {
	r := v.lookup(h)
	if r == nil {
		return
	}
	siblings := &v.roots
	if r.parent != nil {
		siblings = &r.parent.kids
	}
	if i := slices.Index(*siblings, r); i >= 0 {
		*siblings = slices.Delete(*siblings, i, i+1)
	}
	v.forget([]*row{r})
	v.dirty = true
}

// LoadChildren replaces the rows under the child list's parent and expands
// it.
func (v *TreeView) LoadChildren(children *obslist.List) {
	p := v.lookup(children.ParentHandle())
	if p == nil {
		return
	}
	v.forget(p.kids)
	p.kids = nil
	p.loaded, p.expanded = true, true
	p.hasKids = true
	children.Replay()
	v.dirty = true
}

// Sort reorders the rows under l's parent to match the list.
func (v *TreeView) Sort(l *obslist.List, info obslist.SortInfo) {
	siblings := &v.roots
	if p := v.lookup(l.ParentHandle()); p != nil {
		siblings = &p.kids
	}
	ordered := make([]*row, 0, len(*siblings))
	for _, h := range l.Handles() {
		if r := v.lookup(h); r != nil {
			ordered = append(ordered, r)
		}
	}
	*siblings = ordered
	v.dirty = true
}

// Selection returns the marked items in display order, or the item under the
// cursor when nothing is marked.
func (v *TreeView) Selection() []any {
	var out []any
	var walk func([]*row)
	walk = func(rows []*row) {
		for _, r := range rows {
			if r.marked {
				out = append(out, r.item)
			}
			walk(r.kids)
		}
	}
	walk(v.roots)
	if len(out) == 0 {
		if r := v.current(); r != nil {
			out = append(out, r.item)
		}
	}
	return out
}

// Reset drops every row.
func (v *TreeView) Reset() {
	v.roots = nil
	v.flat = nil
	clear(v.byID)
	v.cursor, v.offset = 0, 0
	v.editing = false
	v.dirty = true
}

// Rows returns the label text of the visible rows, indented two spaces per
// level.
func (v *TreeView) Rows() []string {
	v.refresh()
	out := make([]string, len(v.flat))
	for i, r := range v.flat {
		out[i] = indent(r.depth) + v.label(r)
	}
	return out
}

// Cursor returns the index of the highlighted visible row.
func (v *TreeView) Cursor() int {
	v.refresh()
	return v.cursor
}

// Status returns the status line message.
func (v *TreeView) Status() string {
	if v.err != nil {
		return v.err.Error()
	}
	return v.status
}

// Editing reports whether a cell edit is in progress.
func (v *TreeView) Editing() bool { return v.editing }

func (v *TreeView) lookup(h obslist.Handle) *row {
	id, ok := h.(uuid.UUID)
	if !ok {
		return nil
	}
	return v.byID[id]
}

// fill caches the display text of every column.
func (v *TreeView) fill(r *row) {
	if v.b == nil {
		r.cells = []string{formatCell(r.item)}
		return
	}
	cols := v.b.Columns()
	r.cells = make([]string, len(cols))
	for i, c := range cols {
		val, err := v.b.Retrieve(r.item, c.ID)
		if err != nil {
			debug.Log("ui: column %q: %v", c.ID, err)
			r.cells[i] = "?"
			continue
		}
		r.cells[i] = formatCell(val)
	}
	has, err := v.b.HasChildren(r.item)
	if err != nil {
		debug.Log("ui: has children: %v", err)
	}
	r.hasKids = has
}

func (v *TreeView) forget(rows []*row) {
	for _, r := range rows {
		delete(v.byID, r.id)
		v.forget(r.kids)
	}
}

// refresh rebuilds the visible row list, keeping the cursor on the same row
// when it still exists.
func (v *TreeView) refresh() {
	if !v.dirty {
		return
	}
	var sel *row
	if v.cursor >= 0 && v.cursor < len(v.flat) {
		sel = v.flat[v.cursor]
	}

	v.flat = v.flat[:0]
	var visit func(rows []*row, depth int)
	visit = func(rows []*row, depth int) {
		for _, r := range rows {
			r.depth = depth
			v.flat = append(v.flat, r)
			if r.expanded {
				visit(r.kids, depth+1)
			}
		}
	}
	visit(v.roots, 0)
	v.dirty = false

	if sel != nil {
		if i := slices.Index(v.flat, sel); i >= 0 {
			v.cursor = i
		}
	}
	v.clampCursor()
}

func (v *TreeView) clampCursor() {
	if v.cursor >= len(v.flat) {
		v.cursor = len(v.flat) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	v.ensureCursorVisible()
}

func (v *TreeView) current() *row {
	v.refresh()
	if v.cursor >= 0 && v.cursor < len(v.flat) {
		return v.flat[v.cursor]
	}
	return nil
}

// moveTo puts the cursor on the row with handle h.
func (v *TreeView) moveTo(h obslist.Handle) {
	r := v.lookup(h)
	if r == nil {
		return
	}
	for p := r.parent; p != nil; p = p.parent {
		if !p.expanded {
			p.expanded = true
			v.dirty = true
		}
	}
	v.refresh()
	if i := slices.Index(v.flat, r); i >= 0 {
		v.cursor = i
		v.ensureCursorVisible()
	}
}

// labelColumn is the index of the column that carries the tree prefix.
func (v *TreeView) labelColumn() int {
	if v.b == nil {
		return 0
	}
	for i, c := range v.b.Columns() {
		if c.ID == "" {
			return i
		}
	}
	return 0
}

func (v *TreeView) label(r *row) string {
	i := v.labelColumn()
	if i < len(r.cells) {
		return r.cells[i]
	}
	return ""
}

func indent(depth int) string { return strings.Repeat("  ", depth) }
