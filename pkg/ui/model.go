package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/listbind/pkg/binding"
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/metrics"
)

// ReloadMsg replaces the bound list with Items. Summary, when set, is shown
// in the status line.
type ReloadMsg struct {
	Items   any
	Summary string
}

// ErrMsg reports a background failure in the status line.
type ErrMsg struct{ Err error }

// ErrNotReorderable is reported when J/K is pressed on a row that cannot be
// moved.
var ErrNotReorderable = errors.New("only root rows can be moved")

const (
	minColWidth = 4
	maxColWidth = 24
	colGap      = 1
)

func writeClipboard(s string) error { return clipboard.WriteAll(s) }

// Init implements tea.Model.
func (v *TreeView) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (v *TreeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.help.Width = msg.Width
		v.ensureCursorVisible()
		return v, nil

	case ReloadMsg:
		v.setErr(v.b.SetList(msg.Items))
		if v.err == nil {
			v.status = msg.Summary
		}
		return v, nil

	case ErrMsg:
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v, v.updateEdit(msg)
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *TreeView) handleKey(msg tea.KeyMsg) tea.Cmd {
	v.err = nil
	v.status = ""
	r := v.current()

	// Number keys act as heading clicks on the n-th column.
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		v.clickHeading(int(s[0] - '1'))
		return nil
	}

	switch {
	case key.Matches(msg, v.keys.quit):
		return tea.Quit
	case key.Matches(msg, v.keys.down):
		v.moveCursor(1)
	case key.Matches(msg, v.keys.up):
		v.moveCursor(-1)
	case key.Matches(msg, v.keys.top):
		v.cursor = 0
		v.clampCursor()
	case key.Matches(msg, v.keys.bottom):
		v.cursor = len(v.flat) - 1
		v.clampCursor()
	case key.Matches(msg, v.keys.expand):
		v.expand(r)
	case key.Matches(msg, v.keys.collapse):
		v.collapse(r)
	case key.Matches(msg, v.keys.toggleAll):
		v.collapseAll()
	case key.Matches(msg, v.keys.mark):
		if r != nil {
			r.marked = !r.marked
			v.moveCursor(1)
		}
	case key.Matches(msg, v.keys.nextCol):
		v.focusColumn(1)
	case key.Matches(msg, v.keys.prevCol):
		v.focusColumn(-1)
	case key.Matches(msg, v.keys.sort):
		v.clickHeading(v.col)
	case key.Matches(msg, v.keys.restore):
		v.setErr(v.b.Restore())
	case key.Matches(msg, v.keys.edit):
		v.startEdit(r, v.col)
	case key.Matches(msg, v.keys.addAfter):
		v.add(r, false)
	case key.Matches(msg, v.keys.addChild):
		v.add(r, true)
	case key.Matches(msg, v.keys.remove):
		if r != nil {
			v.setErr(v.b.RemoveRow(r.id))
		}
	case key.Matches(msg, v.keys.moveDown):
		v.move(r, 1)
	case key.Matches(msg, v.keys.moveUp):
		v.move(r, -1)
	case key.Matches(msg, v.keys.copyCell):
		v.copyCell(r)
	case key.Matches(msg, v.keys.reload):
		return v.reload()
	}
	return nil
}

func (v *TreeView) setErr(err error) {
	if err != nil {
		debug.Log("ui: %v", err)
	}
	v.err = err
}

func (v *TreeView) moveCursor(delta int) {
	v.refresh()
	v.cursor += delta
	v.clampCursor()
}

func (v *TreeView) ensureCursorVisible() {
	n := v.bodyHeight()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+n {
		v.offset = v.cursor - n + 1
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

// bodyHeight is the number of row lines: the screen minus header, status and
// help lines.
func (v *TreeView) bodyHeight() int {
	return max(1, v.height-3)
}

// expand loads the row's children the first time and toggles them after
// that.
func (v *TreeView) expand(r *row) {
	if r == nil || !r.hasKids {
		return
	}
	if !r.loaded {
		v.setErr(v.b.Expand(r.id))
		return
	}
	if r.expanded && len(r.kids) > 0 {
		// Second press on an open row steps into it.
		v.moveCursor(1)
		return
	}
	r.expanded = true
	v.dirty = true
}

func (v *TreeView) collapse(r *row) {
	if r == nil {
		return
	}
	if r.expanded {
		r.expanded = false
		v.dirty = true
		v.refresh()
		return
	}
	if r.parent != nil {
		v.moveTo(r.parent.id)
	}
}

func (v *TreeView) collapseAll() {
	var walk func([]*row)
	walk = func(rows []*row) {
		for _, r := range rows {
			r.expanded = false
			walk(r.kids)
		}
	}
	walk(v.roots)
	v.dirty = true
	v.refresh()
}

func (v *TreeView) focusColumn(delta int) {
	n := len(v.b.Columns())
	if n == 0 {
		return
	}
	v.col = ((v.col+delta)%n + n) % n
}

func (v *TreeView) clickHeading(i int) {
	cols := v.b.Columns()
	if i < 0 || i >= len(cols) {
		return
	}
	v.col = i
	if !v.b.AllowSorting() {
		v.status = "sorting is disabled"
		return
	}
	v.setErr(v.b.HeadingClicked(cols[i].ID))
}

func (v *TreeView) add(r *row, child bool) {
	var h any
	if r != nil {
		h = r.id
	}
	var (
		nh  any
		err error
	)
	if child {
		nh, err = v.b.AddChild(h)
	} else {
		nh, err = v.b.AddAfter(h)
	}
	if err != nil {
		v.setErr(err)
		return
	}
	v.moveTo(nh)
	if v.autoEdit {
		v.startEdit(v.current(), v.labelColumn())
	}
}

func (v *TreeView) move(r *row, delta int) {
	if r == nil {
		return
	}
	if !v.allowReorder {
		v.status = "reordering is disabled"
		return
	}
	if r.parent != nil {
		v.setErr(ErrNotReorderable)
		return
	}
	from := -1
	for i, root := range v.roots {
		if root == r {
			from = i
		}
	}
	to := from + delta
	if from < 0 || to < 0 || to >= len(v.roots) {
		return
	}
	if err := v.b.MoveRow(from, to); err != nil {
		v.setErr(err)
		return
	}
	v.refresh()
	v.moveTo(v.roots[to].id)
}

func (v *TreeView) copyCell(r *row) {
	if r == nil || v.col >= len(r.cells) {
		return
	}
	if err := v.copy(r.cells[v.col]); err != nil {
		v.setErr(fmt.Errorf("clipboard: %w", err))
		return
	}
	v.status = "copied " + truncate(r.cells[v.col], 30)
}

func (v *TreeView) reload() tea.Cmd {
	if v.loader == nil {
		return nil
	}
	load := v.loader
	return func() tea.Msg {
		items, summary, err := load()
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ReloadMsg{Items: items, Summary: summary}
	}
}

func (v *TreeView) startEdit(r *row, col int) {
	if r == nil {
		return
	}
	cols := v.b.Columns()
	if col < 0 || col >= len(cols) {
		return
	}
	if !cols[col].Editable {
		v.status = fmt.Sprintf("column %q is read-only", columnTitle(cols[col]))
		return
	}
	v.col = col
	v.editing = true
	v.input.SetValue(r.cells[col])
	v.input.CursorEnd()
	v.input.Focus()
}

func (v *TreeView) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.stopEdit()
		return nil
	case tea.KeyEnter:
		r := v.current()
		value := v.input.Value()
		v.stopEdit()
		if r != nil {
			col := v.b.Columns()[v.col]
			v.setErr(v.b.CellEdited(r.id, col.ID, value))
		}
		return nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *TreeView) stopEdit() {
	v.editing = false
	v.input.Blur()
	v.input.SetValue("")
}

// View implements tea.Model.
func (v *TreeView) View() string {
	defer metrics.Timer(metrics.UIRender)()
	v.refresh()

	widths := v.columnWidths()
	var sb strings.Builder
	sb.WriteString(v.renderHeader(widths))
	sb.WriteString("\n")

	if len(v.flat) == 0 {
		sb.WriteString(v.theme.Status.Render("  (no rows)"))
		sb.WriteString("\n")
	}
	end := min(len(v.flat), v.offset+v.bodyHeight())
	for i := v.offset; i < end; i++ {
		line := v.renderRow(v.flat[i], widths)
		if i == v.cursor {
			line = v.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(v.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(v.help.View(v.keys))
	return sb.String()
}

func columnTitle(c binding.Column) string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// columnWidths sizes every column to its widest visible cell within bounds;
// the label column takes whatever width is left.
func (v *TreeView) columnWidths() []int {
	cols := v.b.Columns()
	widths := make([]int, len(cols))
	label := v.labelColumn()
	used := 0
	for i, c := range cols {
		if i == label {
			continue
		}
		w := runewidth.StringWidth(columnTitle(c)) + 2
		for _, r := range v.flat {
			if i < len(r.cells) {
				w = max(w, runewidth.StringWidth(r.cells[i]))
			}
		}
		widths[i] = max(minColWidth, min(maxColWidth, w))
		used += widths[i] + colGap
	}
	if len(cols) > 0 {
		widths[label] = max(minColWidth*2, v.width-used-1)
	}
	return widths
}

func (v *TreeView) renderHeader(widths []int) string {
	cols := v.b.Columns()
	sortKey, sorted := v.b.SortKey()
	sorted = sorted && v.b.Sorted()

	parts := make([]string, len(cols))
	for i, c := range cols {
		title := columnTitle(c)
		if sorted && c.ID == sortKey {
			icon := v.icons.SortAsc
			if !v.b.SortAscending() {
				icon = v.icons.SortDesc
			}
			title += " " + icon
		}
		style := v.theme.Header
		if i == v.col {
			style = v.theme.HeaderFocus
		}
		parts[i] = style.Render(fit(title, widths[i]))
	}
	return strings.Join(parts, strings.Repeat(" ", colGap))
}

func (v *TreeView) renderRow(r *row, widths []int) string {
	label := v.labelColumn()
	parts := make([]string, len(widths))
	for i, w := range widths {
		text := ""
		if i < len(r.cells) {
			text = r.cells[i]
		}
		if i != label {
			parts[i] = fit(text, w)
			continue
		}
		prefix := indent(r.depth) + v.expander(r) + " "
		if r.marked {
			prefix += v.icons.Marked + " "
		}
		cell := fit(text, max(0, w-runewidth.StringWidth(prefix)))
		if r.marked {
			cell = v.theme.Marked.Render(cell)
		}
		parts[i] = v.theme.Tree.Render(prefix) + cell
	}
	return strings.Join(parts, strings.Repeat(" ", colGap))
}

func (v *TreeView) expander(r *row) string {
	switch {
	case !r.hasKids:
		return v.icons.Leaf
	case r.expanded:
		return v.icons.Expanded
	default:
		return v.icons.Collapsed
	}
}

func (v *TreeView) renderStatus() string {
	if v.editing {
		col := v.b.Columns()[v.col]
		return v.theme.Edit.Render("edit "+columnTitle(col)+": ") + v.input.View()
	}
	if v.err != nil {
		return v.theme.Error.Render(v.err.Error())
	}
	count := fmt.Sprintf("%d/%d", min(v.cursor+1, len(v.flat)), len(v.flat))
	msg := v.status
	if msg == "" {
		msg = count
	} else {
		msg = count + "  " + msg
	}
	return v.theme.Status.Render(truncate(msg, max(v.width, 10)))
}

var (
	_ binding.View     = (*TreeView)(nil)
	_ binding.Resetter = (*TreeView)(nil)
	_ tea.Model        = (*TreeView)(nil)
)
