package datasource

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/metrics"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// LoadFile reads the node trees stored in path, picking the decoder from the
// file extension.
func LoadFile(path string) ([]*Node, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(DataSource{Format: format, Path: path})
}

// LoadFromSource reads the node trees of a discovered source.
func LoadFromSource(source DataSource) ([]*Node, error) {
	defer metrics.Timer(metrics.DataLoad)()

	if source.Format == FormatSQLite {
		store, err := OpenSQLite(source.Path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer store.Close()
		return store.LoadTree(context.Background())
	}

	data, err := os.ReadFile(source.Path)
	if err != nil {
		return nil, err
	}
	nodes, err := Decode(source.Format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source.Path, err)
	}
	debug.Log("datasource: loaded %d roots from %s", len(nodes), source.Path)
	return nodes, nil
}

// Decode parses file contents in one of the text formats. A JSON or YAML
// document may hold either a list of roots or a single root object.
func Decode(format Format, data []byte) ([]*Node, error) {
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			return nil, nil
		}
		if trimmed[0] == '{' {
			var root Node
			if err := json.Unmarshal(trimmed, &root); err != nil {
				return nil, err
			}
			return []*Node{&root}, nil
		}
		var nodes []*Node
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, err
		}
		return nodes, nil

	case FormatJSONL:
		return decodeJSONL(data)

	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if len(doc.Content) == 0 {
			return nil, nil
		}
		if doc.Content[0].Kind == yaml.MappingNode {
			var root Node
			if err := doc.Content[0].Decode(&root); err != nil {
				return nil, err
			}
			return []*Node{&root}, nil
		}
		var nodes []*Node
		if err := doc.Content[0].Decode(&nodes); err != nil {
			return nil, err
		}
		return nodes, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func decodeJSONL(data []byte) ([]*Node, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var nodes []*Node
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var n Node
		if err := json.Unmarshal([]byte(text), &n); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		nodes = append(nodes, &n)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// WriteFile stores node trees in path using the format its extension names.
// SQLite files get the schema created if needed.
func WriteFile(path string, nodes []*Node) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	var data []byte
	switch format {
	case FormatSQLite:
		store, err := OpenSQLite(path, false)
		if err != nil {
			return err
		}
		defer store.Close()
		ctx := context.Background()
		if err := store.CreateSchema(ctx); err != nil {
			return err
		}
		return store.InsertTree(ctx, "", nodes)
	case FormatJSON:
		data, err = json.MarshalIndent(nodes, "", "  ")
	case FormatJSONL:
		var buf bytes.Buffer
		for _, n := range nodes {
			line, merr := json.Marshal(n)
			if merr != nil {
				return merr
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		data = buf.Bytes()
	case FormatYAML:
		data, err = yaml.Marshal(nodes)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadResult is the outcome of loading one file in LoadAll.
type LoadResult struct {
	Path  string
	Nodes []*Node
	Error error
}

// LoadAll loads several files concurrently and concatenates their roots in
// path order. A file that fails to load is reported in its LoadResult and
// skipped; it does not fail the others.
func LoadAll(ctx context.Context, paths []string) ([]*Node, []LoadResult, error) {
	start := time.Now()
	results := make([]LoadResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = LoadResult{Path: path, Error: ctx.Err()}
				return nil
			default:
			}
			nodes, err := LoadFile(path)
			results[i] = LoadResult{Path: path, Nodes: nodes, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}

	var all []*Node
	for _, r := range results {
		if r.Error != nil {
			debug.Log("datasource: skipping %s: %v", r.Path, r.Error)
			continue
		}
		all = append(all, r.Nodes...)
	}
	debug.LogTiming("datasource.LoadAll", time.Since(start))
	return all, results, nil
}
