package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/debug"
)

// resolveFiles turns the configured paths into data files. A directory
// contributes its best source; a file is used as is.
func resolveFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		sources, err := datasource.Discover(p)
		if err != nil {
			return nil, err
		}
		best, err := datasource.SelectBestSource(sources)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		debug.Log("lb: %s -> %s", p, best)
		files = append(files, best.Path)
	}
	if len(files) == 0 {
		return nil, datasource.ErrNoSource
	}
	return files, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// reloader reloads the data files and remembers the previous load so every
// reload can be summarized. The watcher and the reload key share it.
type reloader struct {
	files []string

	mu   sync.Mutex
	prev []*datasource.Node
}

func newReloader(files []string, initial []*datasource.Node) *reloader {
	return &reloader{files: files, prev: initial}
}

// Load reads every file again. It fails only when no file could be read.
func (r *reloader) Load() (any, string, error) {
	nodes, results, err := datasource.LoadAll(context.Background(), r.files)
	if err != nil {
		return nil, "", err
	}
	var errs []error
	for _, res := range results {
		if res.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Path, res.Error))
		}
	}
	if len(errs) == len(results) {
		return nil, "", errors.Join(errs...)
	}

	r.mu.Lock()
	summary := datasource.Diff(r.prev, nodes).Summary()
	r.prev = nodes
	r.mu.Unlock()

	if len(errs) > 0 {
		summary += fmt.Sprintf(" (%d files failed)", len(errs))
	}
	return datasource.Items(nodes), summary, nil
}
