package obslist_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/obslist"
	"github.com/vanderheijden86/listbind/pkg/testutil"
)

func byN(item any) (any, error) {
	switch v := item.(type) {
	case map[string]any:
		return v["n"], nil
	case *rec:
		return v.N, nil
	}
	return nil, fmt.Errorf("no n in %T", item)
}

func TestEndToEndScenario(t *testing.T) {
	n1, n2, n3 := map[string]any{"n": 1}, map[string]any{"n": 2}, map[string]any{"n": 3}

	r := testutil.NewRecorder()
	l := obslist.New([]any{n1, n2}, obslist.WithSinks(r.Sinks()))

	l.Insert(1, n3)
	if diff := cmp.Diff([]any{n1, n3, n2}, l.Items()); diff != "" {
		t.Fatalf("after insert (-want +got):\n%s", diff)
	}
	if err := l.Sort(byN, true, obslist.SortInfo{}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{n1, n2, n3}, l.Items()); diff != "" {
		t.Fatalf("after sort (-want +got):\n%s", diff)
	}
	if err := l.Remove(0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{n2, n3}, l.Items()); diff != "" {
		t.Fatalf("after remove (-want +got):\n%s", diff)
	}

	// Two inserts come from construction, one from Insert.
	want := []string{"insert", "insert", "insert", "sort", "remove"}
	if diff := cmp.Diff(want, r.Kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if r.Events[4].Handle != "h1" {
		t.Errorf("removed handle = %v, want h1", r.Events[4].Handle)
	}
	testutil.AssertAligned(t, l)
}

func TestEndToEndScenarioAttachedLater(t *testing.T) {
	l := obslist.New([]any{map[string]any{"n": 1}, map[string]any{"n": 2}})
	r := testutil.NewRecorder()
	l.Attach(r.Sinks())

	l.Insert(1, map[string]any{"n": 3})
	if err := l.Sort(byN, true, obslist.SortInfo{}); err != nil {
		t.Fatal(err)
	}
	if err := l.Remove(0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"insert", "sort", "remove"}, r.Kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestSortMovesHandlesAndChildren(t *testing.T) {
	c, a, b := &rec{N: 3, Kids: []*rec{{N: 30}}}, &rec{N: 1}, &rec{N: 2, Kids: []*rec{{N: 20}}}
	r := testutil.NewRecorder()
	l := obslist.New([]any{c, a, b}, obslist.WithSinks(r.Sinks()), obslist.WithTreeSource(recTree()))
	for _, i := range []int{0, 2} {
		if err := l.LoadChildren(i); err != nil {
			t.Fatal(err)
		}
	}
	handleOf := map[*rec]obslist.Handle{c: l.HandleAt(0), a: l.HandleAt(1), b: l.HandleAt(2)}
	childOf := map[*rec]*obslist.List{c: l.ChildAt(0), a: nil, b: l.ChildAt(2)}

	if err := l.Sort(byN, true, obslist.SortInfo{Key: "n", Ascending: true, ByColumn: true}); err != nil {
		t.Fatal(err)
	}
	for i := range l.Len() {
		it := l.At(i).(*rec)
		if it.N != i+1 {
			t.Errorf("item %d has N=%d", i, it.N)
		}
		if l.HandleAt(i) != handleOf[it] {
			t.Errorf("item %d handle %v, want %v", i, l.HandleAt(i), handleOf[it])
		}
		if l.ChildAt(i) != childOf[it] {
			t.Errorf("item %d children did not move with it", i)
		}
	}
	if e := r.Last(); e.Kind != testutil.KindSort || e.List != l || !e.Info.ByColumn || e.Info.Key != "n" {
		t.Errorf("last event = %v", e)
	}
	testutil.AssertAligned(t, l)
}

func TestSortDescendingIsStable(t *testing.T) {
	type row struct {
		N   int
		Tag string
	}
	items := []any{&row{1, "a"}, &row{2, "b"}, &row{1, "c"}, &row{2, "d"}}
	l := obslist.New(items)
	key := func(item any) (any, error) { return item.(*row).N, nil }

	if err := l.Sort(key, false, obslist.SortInfo{}); err != nil {
		t.Fatal(err)
	}
	var got string
	for _, it := range l.Items() {
		got += it.(*row).Tag
	}
	if got != "bdac" {
		t.Errorf("descending order = %s, want bdac", got)
	}
}

func TestSortFailureLeavesListUntouched(t *testing.T) {
	tests := []struct {
		name  string
		items []any
		key   obslist.KeyFunc
		want  error
	}{
		{
			name:  "key_error",
			items: []any{map[string]any{"n": 2}, "stray"},
			key:   byN,
		},
		{
			name:  "unorderable",
			items: []any{map[string]any{"n": 2}, map[string]any{"n": "x"}, map[string]any{"n": 1}},
			key:   byN,
			want:  accessor.ErrUnorderable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewRecorder()
			l := obslist.New(tt.items, obslist.WithSinks(r.Sinks()))
			before, handles := l.Items(), l.Handles()
			r.Clear()

			err := l.Sort(tt.key, true, obslist.SortInfo{ByColumn: true})
			if err == nil {
				t.Fatal("Sort succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if diff := cmp.Diff(before, l.Items()); diff != "" {
				t.Errorf("items changed (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(handles, l.Handles()); diff != "" {
				t.Errorf("handles changed (-want +got):\n%s", diff)
			}
			if len(r.Events) != 0 || l.Sorted() {
				t.Errorf("failed sort notified: %v", r.Events)
			}
		})
	}
}

func TestSortIsNotRecursive(t *testing.T) {
	root := &rec{N: 1, Kids: []*rec{{N: 3}, {N: 2}}}
	l := obslist.New([]any{root, &rec{N: 0}}, obslist.WithTreeSource(recTree()))
	child, err := l.Children(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Sort(byN, true, obslist.SortInfo{}); err != nil {
		t.Fatal(err)
	}
	if child.At(0).(*rec).N != 3 {
		t.Error("sorting the root reordered a child list")
	}
	if l.ChildAt(1) != child {
		t.Error("child list did not follow its item")
	}
}

func TestSortedFlag(t *testing.T) {
	l := obslist.New([]any{2, 1})
	if err := l.Sort(nil, true, obslist.SortInfo{Key: "", Ascending: true, ByColumn: true}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{1, 2}, l.Items()); diff != "" {
		t.Errorf("nil key sort (-want +got):\n%s", diff)
	}
	if !l.Sorted() {
		t.Error("column sort did not mark the list sorted")
	}
	l.Append(0)
	if l.Sorted() {
		t.Error("insert kept the list marked sorted")
	}

	if err := l.Sort(nil, false, obslist.SortInfo{}); err != nil {
		t.Fatal(err)
	}
	if l.Sorted() {
		t.Error("foreign sort marked the list sorted")
	}
}
