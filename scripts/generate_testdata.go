//go:build ignore
// +build ignore

// generate_testdata.go creates standard tree datasets for benchmarking and
// manual runs of lb.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.json   (~100 nodes)
//	testdata/benchmark/medium.yaml  (~1000 nodes)
//	testdata/benchmark/large.jsonl  (~5000 nodes)
//	testdata/benchmark/huge.db      (~20000 nodes, for -lazy)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/testutil"
)

type datasetSpec struct {
	name     string
	size     int
	maxDepth int
}

var datasets = []datasetSpec{
	{"small.json", 100, 3},
	{"medium.yaml", 1000, 4},
	{"large.jsonl", 5000, 5},
	{"huge.db", 20000, 6},
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s (%d nodes)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // Reproducible per-size
		cfg.IDPrefix = "bench-"

		nodes := testutil.New(cfg).Random(ds.size, ds.maxDepth)
		addLabels(nodes)

		outputPath := filepath.Join(outputDir, ds.name)
		_ = os.Remove(outputPath)
		if err := datasource.WriteFile(outputPath, nodes); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d nodes, %d roots)\n", outputPath, datasource.Count(nodes), len(nodes))
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}

func addLabels(nodes []*datasource.Node) {
	titles := []string{
		"Implement authentication flow",
		"Fix memory leak in cache",
		"Add API rate limiting",
		"Refactor database queries",
		"Update documentation",
		"Add unit tests for parser",
		"Optimize tree traversal",
		"Fix race condition in worker",
		"Add metrics dashboard",
		"Implement retry logic",
	}
	i := 0
	datasource.Walk(nodes, func(n *datasource.Node, depth int) bool {
		n.Label = fmt.Sprintf("%s #%d", titles[i%len(titles)], i)
		i++
		return true
	})
}
