package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Format identifies how a data file is encoded.
type Format string

const (
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// Priority values per format (higher = preferred when mod times tie)
var formatPriority = map[Format]int{
	FormatSQLite: 100,
	FormatJSON:   80,
	FormatJSONL:  60,
	FormatYAML:   50,
}

var (
	// ErrUnknownFormat is returned for files whose extension names no
	// supported format.
	ErrUnknownFormat = errors.New("datasource: unknown data format")
	// ErrNoSource is returned when discovery finds nothing loadable.
	ErrNoSource = errors.New("datasource: no valid data source")
	// ErrNodeNotFound is returned when a stored node is looked up by an ID
	// the database does not hold.
	ErrNodeNotFound = errors.New("datasource: node not found")
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// DataSource is a data file that may be loaded.
type DataSource struct {
	Format Format `json:"format"`
	// Path is the file path as discovered
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
	// Valid is set by ValidateSource
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	// NodeCount is the number of nodes found during validation
	NodeCount int `json:"node_count"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, nodes=%d, %s)",
		s.Path, s.Format, s.ModTime.Format(time.RFC3339), s.NodeCount, status)
}

// Stat builds a DataSource for a single file.
func Stat(path string) (DataSource, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return DataSource{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, err
	}
	return DataSource{
		Format:  format,
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Discover lists the data files directly inside dir, freshest first. Backups,
// merge leftovers and hidden files are skipped.
func Discover(dir string) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") ||
			strings.HasSuffix(name, "~") ||
			strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") {
			continue
		}
		format, err := DetectFormat(name)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{
			Format:  format,
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return formatPriority[sources[i].Format] > formatPriority[sources[j].Format]
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}

// ValidateSource loads s and records whether that worked.
func ValidateSource(s *DataSource) error {
	nodes, err := LoadFromSource(*s)
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.NodeCount = Count(nodes)
	return nil
}

// SelectBestSource validates sources in order and returns the first valid
// one. Discover already orders them freshest first.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for i := range sources {
		if sources[i].Valid {
			return sources[i], nil
		}
		if sources[i].ValidationError != "" {
			continue
		}
		if err := ValidateSource(&sources[i]); err == nil {
			return sources[i], nil
		}
	}
	return DataSource{}, ErrNoSource
}
