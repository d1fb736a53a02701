package binding

import (
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// SortBy sorts the root list by the values of column col.
func (b *Binding) SortBy(col string, ascending bool) error {
	if !b.allowSorting {
		return nil
	}
	if _, err := b.Source(col); err != nil {
		return err
	}
	key := func(item any) (any, error) { return b.Retrieve(item, col) }
	return b.list.Sort(key, ascending, obslist.SortInfo{Key: col, Ascending: ascending, ByColumn: true})
}

// SortFunc sorts the root list with a caller-supplied key. Such a sort does
// not match any column, so afterwards the binding reports no sort column.
// The last column sort is still remembered for Restore.
func (b *Binding) SortFunc(key obslist.KeyFunc, ascending bool) error {
	if !b.allowSorting {
		return nil
	}
	return b.list.Sort(key, ascending, obslist.SortInfo{Ascending: ascending})
}

// Restore repeats the last column sort. It does nothing if no column sort
// happened yet.
func (b *Binding) Restore() error {
	if !b.canRestore {
		return nil
	}
	return b.SortBy(b.restoreKey, b.restoreAsc)
}

// HeadingClicked sorts by col: ascending the first time, toggling the
// direction while the list stays sorted by the same column.
func (b *Binding) HeadingClicked(col string) error {
	ascending := true
	if key, ok := b.SortKey(); ok && key == col {
		ascending = !b.sortAscending
	}
	return b.SortBy(col, ascending)
}

// SortKey returns the column the list is currently sorted by.
func (b *Binding) SortKey() (string, bool) {
	return b.sortKey, b.sorted
}

// SortAscending reports the direction of the current column sort.
func (b *Binding) SortAscending() bool { return b.sortAscending }

// Sorted reports whether the root list is currently sorted by a column:
// a column sort happened and nothing was inserted or changed since.
func (b *Binding) Sorted() bool {
	return b.sorted && b.list.Sorted()
}

// AllowSorting reports whether sorting is enabled.
func (b *Binding) AllowSorting() bool { return b.allowSorting }

// SetAllowSorting enables or disables SortBy, SortFunc, Restore and
// HeadingClicked.
func (b *Binding) SetAllowSorting(allow bool) { b.allowSorting = allow }

func (b *Binding) onSort(info obslist.SortInfo) {
	if info.ByColumn {
		b.sorted = true
		b.sortKey, b.sortAscending = info.Key, info.Ascending
		b.restoreKey, b.restoreAsc, b.canRestore = info.Key, info.Ascending, true
		return
	}
	b.sorted = false
	b.sortKey, b.sortAscending = "", true
}
