// Package testutil provides a recording view and deterministic tree fixtures
// for tests.
package testutil

import (
	"fmt"

	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// Event kinds recorded by Recorder.
const (
	KindInsert  = "insert"
	KindReplace = "replace"
	KindRemove  = "remove"
	KindLoad    = "load"
	KindSort    = "sort"
	KindReset   = "reset"
)

// Event is one notification received by a Recorder.
type Event struct {
	Kind   string
	Index  int
	Item   any
	Handle obslist.Handle
	Parent obslist.Handle
	List   *obslist.List
	Info   obslist.SortInfo
}

func (e Event) String() string {
	switch e.Kind {
	case KindInsert:
		return fmt.Sprintf("insert %d %v -> %v (parent %v)", e.Index, e.Item, e.Handle, e.Parent)
	case KindReplace:
		return fmt.Sprintf("replace %v %v", e.Handle, e.Item)
	case KindRemove:
		return fmt.Sprintf("remove %v", e.Handle)
	case KindLoad:
		return fmt.Sprintf("load under %v", e.Parent)
	case KindSort:
		return fmt.Sprintf("sort under %v %+v", e.Parent, e.Info)
	}
	return e.Kind
}

// Recorder is a view that records every notification and mints handles
// "h1", "h2", ... on insert. It satisfies binding.View and can also be
// attached to a list directly through Sinks.
type Recorder struct {
	Events []Event
	// Selected is returned by Selection.
	Selected []any
	// ReplayChildren makes LoadChildren render the new child list right
	// away, the way an interactive view does on expand.
	ReplayChildren bool

	next int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Sinks returns a sink bundle that forwards to r.
func (r *Recorder) Sinks() obslist.Sinks {
	return obslist.Sinks{
		OnInsert:       r.Insert,
		OnReplace:      r.Replace,
		OnRemove:       r.Remove,
		OnLoadChildren: r.LoadChildren,
		OnSort:         r.Sort,
		OnGetSelection: r.Selection,
	}
}

func (r *Recorder) Insert(idx int, item any, parent obslist.Handle) obslist.Handle {
	r.next++
	h := fmt.Sprintf("h%d", r.next)
	r.Events = append(r.Events, Event{Kind: KindInsert, Index: idx, Item: item, Handle: h, Parent: parent})
	return h
}

func (r *Recorder) Replace(h obslist.Handle, item any) {
	r.Events = append(r.Events, Event{Kind: KindReplace, Handle: h, Item: item})
}

func (r *Recorder) Remove(h obslist.Handle) {
	r.Events = append(r.Events, Event{Kind: KindRemove, Handle: h})
}

func (r *Recorder) LoadChildren(children *obslist.List) {
	r.Events = append(r.Events, Event{Kind: KindLoad, List: children, Parent: children.ParentHandle()})
	if r.ReplayChildren {
		children.Replay()
	}
}

func (r *Recorder) Sort(l *obslist.List, info obslist.SortInfo) {
	r.Events = append(r.Events, Event{Kind: KindSort, List: l, Parent: l.ParentHandle(), Info: info})
}

func (r *Recorder) Selection() []any { return r.Selected }

// Reset records a reset; bindings call it before reseeding the view.
func (r *Recorder) Reset() {
	r.Events = append(r.Events, Event{Kind: KindReset})
}

// Kinds returns the kinds of all recorded events in order.
func (r *Recorder) Kinds() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent event, or the zero Event.
func (r *Recorder) Last() Event {
	if len(r.Events) == 0 {
		return Event{}
	}
	return r.Events[len(r.Events)-1]
}

// Clear forgets recorded events. Handle numbering continues.
func (r *Recorder) Clear() { r.Events = nil }
