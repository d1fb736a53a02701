package obslist

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/metrics"
)

// KeyFunc extracts the sort key of an item. Keys are ordered with
// accessor.Compare.
type KeyFunc func(item any) (any, error)

// SortInfo describes a sort to the view. Key and Ascending are only
// meaningful when ByColumn is set.
type SortInfo struct {
	Key       string
	Ascending bool
	ByColumn  bool
}

// Sort reorders this level by key. Items, handles and children move together
// as one permutation. The sort is stable in both directions: items with
// equal keys keep their relative order even when descending.
//
// All keys are computed and compared before anything moves, so a key error
// or a pair of keys that cannot be ordered leaves the list untouched.
// Loaded child lists keep their own order; only this level is sorted.
//
// A nil key sorts by the items themselves.
func (l *List) Sort(key KeyFunc, ascending bool, info SortInfo) error {
	defer metrics.Timer(metrics.ListSort)()
	if key == nil {
		key = func(item any) (any, error) { return item, nil }
	}

	keys := make([]any, len(l.items))
	for i, it := range l.items {
		k, err := key(it)
		if err != nil {
			return fmt.Errorf("obslist: sort key of item %d: %w", i, err)
		}
		keys[i] = k
	}

	perm := make([]int, len(l.items))
	for i := range perm {
		perm[i] = i
	}
	var cmpErr error
	slices.SortStableFunc(perm, func(a, b int) int {
		c, err := accessor.Compare(keys[a], keys[b])
		if err != nil {
			if cmpErr == nil {
				cmpErr = err
			}
			return 0
		}
		if !ascending {
			return -c
		}
		return c
	})
	if cmpErr != nil {
		return fmt.Errorf("obslist: sort: %w", cmpErr)
	}

	items := make([]any, len(perm))
	handles := make([]Handle, len(perm))
	children := make([]*List, len(perm))
	for to, from := range perm {
		items[to] = l.items[from]
		handles[to] = l.handles[from]
		children[to] = l.children[from]
	}
	l.items, l.handles, l.children = items, handles, children
	l.sorted = info.ByColumn
	l.hub.sort(l, info)
	return nil
}
