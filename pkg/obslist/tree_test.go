package obslist_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vanderheijden86/listbind/pkg/obslist"
	"github.com/vanderheijden86/listbind/pkg/testutil"
)

// fixture: a(a1, a2(a21)), b(b1); a and a2 loaded.
func loadedTree(t *testing.T) (*obslist.List, map[string]*rec) {
	t.Helper()
	a21 := &rec{Name: "a21"}
	a1, a2 := &rec{Name: "a1"}, &rec{Name: "a2", Kids: []*rec{a21}}
	b1 := &rec{Name: "b1"}
	a, b := &rec{Name: "a", Kids: []*rec{a1, a2}}, &rec{Name: "b", Kids: []*rec{b1}}

	r := testutil.NewRecorder()
	r.ReplayChildren = true
	l := obslist.New([]any{a, b}, obslist.WithSinks(r.Sinks()), obslist.WithTreeSource(recTree()))
	ca, err := l.Children(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ca.Children(1); err != nil {
		t.Fatal(err)
	}
	return l, map[string]*rec{"a": a, "a1": a1, "a2": a2, "a21": a21, "b": b, "b1": b1}
}

func TestFind(t *testing.T) {
	l, recs := loadedTree(t)

	tests := []struct {
		name     string
		wantPath string
	}{
		{"a", "(0)"},
		{"b", "(1)"},
		{"a1", "(0, 0)"},
		{"a2", "(0, 1)"},
		{"a21", "(0, 1, 0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := l.FindPath(recs[tt.name])
			if err != nil {
				t.Fatal(err)
			}
			if p.String() != tt.wantPath {
				t.Errorf("FindPath = %s, want %s", p, tt.wantPath)
			}
			sub, i, err := l.Find(recs[tt.name])
			if err != nil {
				t.Fatal(err)
			}
			if sub.At(i) != recs[tt.name] {
				t.Errorf("Find returned %v", sub.At(i))
			}
			hp, err := l.FindPathByHandle(sub.HandleAt(i))
			if err != nil || hp.String() != tt.wantPath {
				t.Errorf("FindPathByHandle = %v, %v; want %s", hp, err, tt.wantPath)
			}
		})
	}
}

func TestFindDoesNotLoad(t *testing.T) {
	l, recs := loadedTree(t)

	if _, _, err := l.Find(recs["b1"]); !errors.Is(err, obslist.ErrNotFound) {
		t.Errorf("Find(b1) error = %v, want ErrNotFound", err)
	}
	if l.ChildAt(1) != nil {
		t.Error("Find loaded b's children")
	}
	if _, err := l.FindPathByHandle(nil); !errors.Is(err, obslist.ErrNotFound) {
		t.Errorf("FindPathByHandle(nil) error = %v", err)
	}
	if _, _, err := l.FindByHandle("nope"); !errors.Is(err, obslist.ErrNotFound) {
		t.Errorf("FindByHandle(nope) error = %v", err)
	}
}

func TestFindSearchesLevelFirst(t *testing.T) {
	shared := &rec{Name: "shared"}
	a := &rec{Name: "a", Kids: []*rec{shared}}
	l := obslist.New([]any{a, shared}, obslist.WithTreeSource(recTree()))
	if _, err := l.Children(0); err != nil {
		t.Fatal(err)
	}

	p, err := l.FindPath(shared)
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != "(1)" {
		t.Errorf("FindPath = %s, want (1)", p)
	}
}

func TestResolve(t *testing.T) {
	l, recs := loadedTree(t)

	sub, i, err := l.Resolve(obslist.Path{obslist.Index(0), obslist.Index(1), obslist.Index(0)})
	if err != nil || sub.At(i) != recs["a21"] {
		t.Errorf("Resolve(0,1,0) = %v, %d, %v", sub, i, err)
	}

	sub, i, err = l.Resolve(obslist.Path{obslist.Index(0), obslist.ChildrenOf})
	if err != nil || i != -1 || sub != l.ChildAt(0) {
		t.Errorf("Resolve(0, children) = %v, %d, %v", sub, i, err)
	}

	sub, i, err = l.Resolve(nil)
	if err != nil || sub != l || i != -1 {
		t.Errorf("Resolve() = %v, %d, %v", sub, i, err)
	}

	if _, _, err := l.Resolve(obslist.Path{obslist.Index(1), obslist.Index(0)}); !errors.Is(err, obslist.ErrNotFound) {
		t.Errorf("Resolve into unloaded children error = %v", err)
	}
	if _, _, err := l.Resolve(obslist.Path{obslist.ChildrenOf, obslist.Index(0)}); !errors.Is(err, obslist.ErrNotFound) {
		t.Errorf("Resolve with inner ChildrenOf error = %v", err)
	}
	if _, _, err := l.Resolve(obslist.Path{obslist.Index(5)}); !errors.Is(err, obslist.ErrIndexOutOfRange) {
		t.Errorf("Resolve(5) error = %v", err)
	}
}

func TestStep(t *testing.T) {
	if i, ok := obslist.Index(3).Position(); !ok || i != 3 {
		t.Errorf("Index(3).Position() = %d, %v", i, ok)
	}
	if _, ok := obslist.ChildrenOf.Position(); ok {
		t.Error("ChildrenOf has a position")
	}
	p := obslist.Path{obslist.Index(2), obslist.ChildrenOf}
	if p.String() != "(2, children)" {
		t.Errorf("String() = %s", p)
	}
}

func TestWalk(t *testing.T) {
	l, _ := loadedTree(t)

	var names []string
	l.Walk(func(_ *obslist.List, _ int, item any) bool {
		names = append(names, item.(*rec).Name)
		return true
	})
	want := "a a1 a2 a21 b"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("Walk order = %q, want %q", got, want)
	}

	count := 0
	l.Walk(func(*obslist.List, int, any) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Walk did not stop: %d visits", count)
	}
}
