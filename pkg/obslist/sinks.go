package obslist

import (
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/metrics"
)

// Handle is an opaque per-node identifier minted by the view on insert.
// The list never interprets it; nil means "not synced yet" and is also the
// parent handle of a root list.
type Handle = any

// Sinks are the callbacks a list invokes to keep a view in sync. Every field
// is optional; a nil sink is a no-op (and a nil OnInsert yields a nil
// handle).
//
// Each sink runs synchronously, before the mutating call returns, exactly
// once per structural change. Sinks may call back into the list (load
// children, sort, mutate further); the list does not guard against that,
// so a handler that mutates from inside its own notification must prevent
// unbounded recursion itself. Sinks should not panic: the list has already
// applied its own change when a sink runs and does not roll it back.
type Sinks struct {
	OnInsert       func(idx int, item any, parent Handle) Handle
	OnReplace      func(h Handle, item any)
	OnRemove       func(h Handle)
	OnLoadChildren func(children *List)
	OnSort         func(l *List, info SortInfo)
	// OnGetSelection is a query, not a notification. It is only called when
	// Selection is read.
	OnGetSelection func() []any
}

// hub is the sink bundle shared by a root list and every child list loaded
// beneath it. Replacing the sinks on any list of the tree therefore affects
// the whole tree.
type hub struct {
	sinks    Sinks
	detached bool
}

func (h *hub) insert(idx int, item any, parent Handle) Handle {
	metrics.Inserts.Inc()
	if h.sinks.OnInsert == nil {
		return nil
	}
	debug.Log("obslist: insert idx=%d parent=%v", idx, parent)
	return h.sinks.OnInsert(idx, item, parent)
}

func (h *hub) replace(handle Handle, item any) {
	metrics.Replaces.Inc()
	if h.sinks.OnReplace == nil {
		return
	}
	debug.Log("obslist: replace handle=%v", handle)
	h.sinks.OnReplace(handle, item)
}

func (h *hub) remove(handle Handle) {
	metrics.Removes.Inc()
	if h.sinks.OnRemove == nil {
		return
	}
	debug.Log("obslist: remove handle=%v", handle)
	h.sinks.OnRemove(handle)
}

func (h *hub) loadChildren(children *List) {
	metrics.ChildLoads.Inc()
	if h.sinks.OnLoadChildren == nil {
		return
	}
	debug.Log("obslist: children loaded parent=%v n=%d", children.parent, children.Len())
	h.sinks.OnLoadChildren(children)
}

func (h *hub) sort(l *List, info SortInfo) {
	metrics.Sorts.Inc()
	if h.sinks.OnSort == nil {
		return
	}
	debug.Log("obslist: sorted parent=%v key=%q asc=%v", l.parent, info.Key, info.Ascending)
	h.sinks.OnSort(l, info)
}
