package datasource

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	before := []*Node{
		{ID: "a", Label: "A", Children: []*Node{
			{ID: "a1", Label: "A1"},
			{ID: "a2", Label: "A2"},
		}},
		{ID: "b", Label: "B", Tags: []string{"x"}},
		{Label: "no id"},
	}
	after := []*Node{
		{ID: "a", Label: "A", Children: []*Node{
			{ID: "a1", Label: "A1 renamed"},
		}},
		{ID: "b", Label: "B", Tags: []string{"x", "y"}, Children: []*Node{
			{ID: "a2", Label: "A2"},
		}},
		{ID: "c", Label: "C"},
	}

	d := Diff(before, after)
	want := TreeDiff{
		Added:   []string{"c"},
		Removed: nil,
		Changed: []string{"a1", "b"},
		Moved:   []string{"a2"},
		CountA:  4,
		CountB:  5,
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
	if d.Empty() {
		t.Error("expected non-empty diff")
	}
	s := d.Summary()
	for _, part := range []string{"4 -> 5 nodes", "1 added (c)", "2 changed (a1 b)", "1 moved (a2)"} {
		if !strings.Contains(s, part) {
			t.Errorf("summary %q missing %q", s, part)
		}
	}
}

func TestDiffIdentical(t *testing.T) {
	nodes := []*Node{{ID: "a", Label: "A", Children: []*Node{{ID: "b", Label: "B"}}}}
	d := Diff(nodes, nodes)
	if !d.Empty() {
		t.Errorf("expected empty diff, got %+v", d)
	}
	if got := d.Summary(); got != "no changes (2 nodes)" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestDiffSummaryElidesLongLists(t *testing.T) {
	var after []*Node
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		after = append(after, &Node{ID: id})
	}
	s := Diff(nil, after).Summary()
	if s != "0 -> 6 nodes, 6 added" {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestParseJSONStringArray(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"null", nil},
		{"[]", nil},
		{`["a","b"]`, []string{"a", "b"}},
		{`[a, "b" ,c]`, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := parseJSONStringArray(tt.in); !cmp.Equal(got, tt.want) {
			t.Errorf("parseJSONStringArray(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCountAndWalk(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Children: []*Node{{ID: "a1", Children: []*Node{{ID: "a11"}}}}},
		nil,
		{ID: "b"},
	}
	if got := Count(nodes); got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}

	var seen []string
	Walk(nodes, func(n *Node, depth int) bool {
		seen = append(seen, strings.Repeat(">", depth)+n.ID)
		return n.ID != "a1"
	})
	if want := []string{"a", ">a1"}; !cmp.Equal(seen, want) {
		t.Errorf("Walk visited %v, want %v", seen, want)
	}
}
