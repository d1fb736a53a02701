package datasource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/testutil"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		format datasource.Format
		data   string
		want   []string
	}{
		{"json array", datasource.FormatJSON, `[{"id":"a","label":"A"},{"id":"b","label":"B"}]`, []string{"a", "b"}},
		{"json object", datasource.FormatJSON, `{"id":"r","label":"Root","children":[{"id":"c"}]}`, []string{"r"}},
		{"json empty", datasource.FormatJSON, "  \n", nil},
		{"jsonl", datasource.FormatJSONL, "{\"id\":\"a\"}\n\n{\"id\":\"b\"}\n", []string{"a", "b"}},
		{"yaml list", datasource.FormatYAML, "- id: a\n- id: b\n  children:\n    - id: b1\n", []string{"a", "b"}},
		{"yaml mapping", datasource.FormatYAML, "id: r\nlabel: Root\n", []string{"r"}},
		{"yaml empty", datasource.FormatYAML, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := datasource.Decode(tt.format, []byte(tt.data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			var ids []string
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("roots (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := datasource.Decode(datasource.FormatJSONL, []byte("{\"id\":\"a\"}\nnot json\n")); err == nil {
		t.Error("expected JSONL error")
	}
	if _, err := datasource.Decode(datasource.FormatJSON, []byte("[{")); err == nil {
		t.Error("expected JSON error")
	}
	if _, err := datasource.Decode("toml", nil); !errors.Is(err, datasource.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	nodes := testutil.QuickTree(3, 2)
	nodes[0].Tags = []string{"urgent", "ui"}

	for _, name := range []string{"tree.json", "tree.jsonl", "tree.yaml", "tree.db"} {
		t.Run(name, func(t *testing.T) {
			path := testutil.WriteNodesFile(t, t.TempDir(), name, nodes)
			got, err := datasource.LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if diff := cmp.Diff(nodes, got); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	gen := testutil.NewDefault()
	first := gen.Flat(2)
	second := gen.Tree(2, 1)

	paths := []string{
		testutil.WriteNodesFile(t, dir, "first.json", first),
		testutil.WriteFile(t, dir, "broken.yaml", "- id: [unclosed"),
		testutil.WriteNodesFile(t, dir, "second.yaml", second),
		dir + "/missing.jsonl",
	}

	all, results, err := datasource.LoadAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if diff := cmp.Diff(append(first, second...), all); diff != "" {
		t.Errorf("roots (-want +got):\n%s", diff)
	}
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		failed := i == 1 || i == 3
		if (r.Error != nil) != failed {
			t.Errorf("result %d (%s): error %v", i, r.Path, r.Error)
		}
		if r.Path != paths[i] {
			t.Errorf("result %d: path %s, want %s", i, r.Path, paths[i])
		}
	}
}

func TestLoadAllCanceled(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteNodesFile(t, dir, "a.json", testutil.QuickTree(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	all, results, err := datasource.LoadAll(ctx, []string{path})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 0 || !errors.Is(results[0].Error, context.Canceled) {
		t.Errorf("expected canceled load, got %v / %v", all, results[0].Error)
	}
}
