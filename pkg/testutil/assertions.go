package testutil

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// AssertAligned fails the test when any loaded level of l has items,
// handles and children out of step.
func AssertAligned(t *testing.T, l *obslist.List) {
	t.Helper()
	if err := l.Check(); err != nil {
		t.Fatal(err)
	}
}

// AssertSynced fails the test when an item of the loaded tree has no view
// handle.
func AssertSynced(t *testing.T, l *obslist.List) {
	t.Helper()
	l.Walk(func(sub *obslist.List, i int, item any) bool {
		if sub.HandleAt(i) == nil {
			t.Errorf("item %v at %d (parent %v) has no handle", item, i, sub.ParentHandle())
		}
		return true
	})
}

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// WriteNodesFile writes nodes to dir/name in the format the extension names
// and returns the path.
func WriteNodesFile(t *testing.T, dir, name string, nodes []*datasource.Node) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := datasource.WriteFile(path, nodes); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteFile writes raw content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Labels returns the labels of nodes in order.
func Labels(items []any) []string {
	out := make([]string, len(items))
	for i, it := range items {
		if n, ok := it.(*datasource.Node); ok {
			out[i] = n.Label
		}
	}
	return out
}
