package obslist_test

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/listbind/pkg/obslist"
	"github.com/vanderheijden86/listbind/pkg/testutil"
)

// TestAlignmentProperty runs random mutation sequences against a tree and
// checks after every step that items, handles and children stay aligned,
// that every item is synced and that the list matches a plain slice model.
func TestAlignmentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := testutil.NewRecorder()
		r.ReplayChildren = true
		next := 0
		fresh := func(t *rapid.T) *rec {
			next++
			kids := make([]*rec, rapid.IntRange(0, 3).Draw(t, "kids"))
			for i := range kids {
				next++
				kids[i] = &rec{N: next}
			}
			return &rec{N: next, Kids: kids}
		}

		l := obslist.New(nil, obslist.WithSinks(r.Sinks()), obslist.WithTreeSource(recTree()))
		var model []any

		t.Repeat(map[string]func(*rapid.T){
			"insert": func(t *rapid.T) {
				it := fresh(t)
				at := rapid.IntRange(-len(model)-2, len(model)+2).Draw(t, "at")
				pos, _ := l.Insert(at, it)
				model = slices.Insert(model, pos, any(it))
			},
			"remove": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("empty")
				}
				i := rapid.IntRange(0, len(model)-1).Draw(t, "i")
				if err := l.Remove(i); err != nil {
					t.Fatal(err)
				}
				model = slices.Delete(model, i, i+1)
			},
			"replace": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("empty")
				}
				i := rapid.IntRange(0, len(model)-1).Draw(t, "i")
				it := fresh(t)
				if err := l.Replace(i, it); err != nil {
					t.Fatal(err)
				}
				model[i] = it
			},
			"load": func(t *rapid.T) {
				if len(model) == 0 {
					t.Skip("empty")
				}
				if err := l.LoadChildren(rapid.IntRange(0, len(model)-1).Draw(t, "i")); err != nil {
					t.Fatal(err)
				}
			},
			"sort": func(t *rapid.T) {
				asc := rapid.Bool().Draw(t, "asc")
				if err := l.Sort(byN, asc, obslist.SortInfo{}); err != nil {
					t.Fatal(err)
				}
				slices.SortStableFunc(model, func(a, b any) int {
					if asc {
						return a.(*rec).N - b.(*rec).N
					}
					return b.(*rec).N - a.(*rec).N
				})
			},
			"": func(t *rapid.T) {
				if err := l.Check(); err != nil {
					t.Fatal(err)
				}
				if !slices.Equal(model, l.Items()) {
					t.Fatalf("items %v, model %v", l.Items(), model)
				}
				l.Walk(func(sub *obslist.List, i int, item any) bool {
					if sub.HandleAt(i) == nil {
						t.Fatalf("item %v unsynced", item)
					}
					return true
				})
			},
		})
	})
}

// TestSortPermutationProperty checks that a sort applies one permutation to
// items and handles alike.
func TestSortPermutationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ns := rapid.SliceOfN(rapid.IntRange(-5, 5), 0, 30).Draw(t, "ns")
		items := make([]any, len(ns))
		for i, n := range ns {
			items[i] = &rec{N: n}
		}
		r := testutil.NewRecorder()
		l := obslist.New(items, obslist.WithSinks(r.Sinks()))
		pairs := make(map[any]obslist.Handle, l.Len())
		for i := range l.Len() {
			pairs[l.At(i)] = l.HandleAt(i)
		}

		asc := rapid.Bool().Draw(t, "asc")
		if err := l.Sort(byN, asc, obslist.SortInfo{}); err != nil {
			t.Fatal(err)
		}
		for i := range l.Len() {
			if pairs[l.At(i)] != l.HandleAt(i) {
				t.Fatalf("item %d lost its handle", i)
			}
			if i > 0 {
				prev, cur := l.At(i-1).(*rec).N, l.At(i).(*rec).N
				if (asc && prev > cur) || (!asc && prev < cur) {
					t.Fatalf("out of order at %d: %d then %d", i, prev, cur)
				}
			}
		}
	})
}
