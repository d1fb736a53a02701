package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/listbind/pkg/accessor"
	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id        TEXT PRIMARY KEY,
	parent_id TEXT,
	position  INTEGER NOT NULL DEFAULT 0,
	label     TEXT NOT NULL DEFAULT '',
	kind      TEXT NOT NULL DEFAULT '',
	points    INTEGER NOT NULL DEFAULT 0,
	done      INTEGER NOT NULL DEFAULT 0,
	tags      TEXT
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
`

const nodeColumns = `id, parent_id, label, kind, points, done, tags`

// SQLiteStore serves node trees from a SQLite database. Nodes it returns
// carry no children; use Children or TreeSource to load them level by level.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path.
func OpenSQLite(path string, readOnly bool) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	if readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// One connection keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s: %v", pragma, err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// CreateSchema creates the nodes table if it does not exist.
func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// InsertTree inserts nodes and all their children below parentID ("" for
// roots) in one transaction. Nodes without an ID get one derived from their
// position.
func (s *SQLiteStore) InsertTree(ctx context.Context, parentID string, nodes []*Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (`+nodeColumns+`, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if err := insertLevel(ctx, stmt, parentID, nodes); err != nil {
		return err
	}
	return tx.Commit()
}

func insertLevel(ctx context.Context, stmt *sql.Stmt, parentID string, nodes []*Node) error {
	for pos, n := range nodes {
		if n == nil {
			continue
		}
		id := n.ID
		if id == "" {
			id = fmt.Sprintf("%s/%d", parentID, pos)
		}
		if err := insertRow(ctx, stmt, id, parentID, pos, n); err != nil {
			return err
		}
		if err := insertLevel(ctx, stmt, id, n.Children); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, stmt execer, id, parentID string, pos int, n *Node) error {
	var parent sql.NullString
	if parentID != "" {
		parent = sql.NullString{String: parentID, Valid: true}
	}
	tags, err := tagsColumn(n.Tags)
	if err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, id, parent, n.Label, n.Kind, n.Points, n.Done, tags, pos); err != nil {
		return fmt.Errorf("insert node %s: %w", id, err)
	}
	return nil
}

func tagsColumn(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Roots returns the top-level nodes in stored order.
func (s *SQLiteStore) Roots(ctx context.Context) ([]*Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes
		WHERE parent_id IS NULL ORDER BY position, id`)
}

// Children returns the direct children of the node with the given ID.
func (s *SQLiteStore) Children(ctx context.Context, id string) ([]*Node, error) {
	return s.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes
		WHERE parent_id = ? ORDER BY position, id`, id)
}

// HasChildren reports whether any node names id as its parent.
func (s *SQLiteStore) HasChildren(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ?)`, id).Scan(&exists)
	return exists, err
}

// CountNodes returns the number of stored nodes.
func (s *SQLiteStore) CountNodes(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

// LoadTree reads every node in one query and assembles the full trees.
func (s *SQLiteStore) LoadTree(ctx context.Context) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		node   *Node
		parent string
	}
	var all []row
	byID := make(map[string]*Node)
	for rows.Next() {
		n, parent, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, row{n, parent})
		byID[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var roots []*Node
	for _, r := range all {
		if p, ok := byID[r.parent]; ok && r.parent != "" {
			p.Children = append(p.Children, r.node)
			continue
		}
		roots = append(roots, r.node)
	}
	return roots, nil
}

// UpdateNode writes the scalar fields of n back to its row. It returns
// ErrNodeNotFound when no row has n's ID.
func (s *SQLiteStore) UpdateNode(ctx context.Context, n *Node) error {
	tags, err := tagsColumn(n.Tags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE nodes SET label = ?, kind = ?, points = ?, done = ?, tags = ? WHERE id = ?`,
		n.Label, n.Kind, n.Points, n.Done, tags, n.ID)
	if err != nil {
		return err
	}
	if k, err := res.RowsAffected(); err == nil && k == 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.ID)
	}
	return nil
}

// SaveNode updates the row of n, or inserts it below parentID ("" for
// roots) at position when the database does not know n yet. Children of n
// are not written.
func (s *SQLiteStore) SaveNode(ctx context.Context, parentID string, position int, n *Node) error {
	err := s.UpdateNode(ctx, n)
	if !errors.Is(err, ErrNodeNotFound) {
		return err
	}
	if n.ID == "" {
		return fmt.Errorf("%w: node without ID", ErrNodeNotFound)
	}
	debug.Log("datasource: inserting new node %s under %q", n.ID, parentID)
	stmt := stmtFunc(func(ctx context.Context, args ...any) (sql.Result, error) {
		return s.db.ExecContext(ctx, `INSERT INTO nodes (`+nodeColumns+`, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	})
	return insertRow(ctx, stmt, n.ID, parentID, position, n)
}

type stmtFunc func(ctx context.Context, args ...any) (sql.Result, error)

func (f stmtFunc) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return f(ctx, args...)
}

// TreeSource makes an obslist load children from the database on expand.
// Items must be *Node values returned by this store.
func (s *SQLiteStore) TreeSource(ctx context.Context) obslist.TreeSource {
	return obslist.TreeSource{
		Children: accessor.Func(func(item any, value ...any) (any, error) {
			if len(value) > 0 {
				return nil, fmt.Errorf("%w: children are read-only", accessor.ErrNotSettable)
			}
			n, ok := item.(*Node)
			if !ok {
				return nil, fmt.Errorf("%w: %T is not a node", accessor.ErrTypeMismatch, item)
			}
			return s.Children(ctx, n.ID)
		}),
		HasChildren: accessor.Func(func(item any, value ...any) (any, error) {
			if len(value) > 0 {
				return nil, fmt.Errorf("%w: children are read-only", accessor.ErrNotSettable)
			}
			n, ok := item.(*Node)
			if !ok {
				return nil, fmt.Errorf("%w: %T is not a node", accessor.ErrTypeMismatch, item)
			}
			return s.HasChildren(ctx, n.ID)
		}),
	}
}

func (s *SQLiteStore) queryNodes(ctx context.Context, query string, args ...any) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, _, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func scanNode(rows *sql.Rows) (*Node, string, error) {
	var n Node
	var parent, tags sql.NullString
	if err := rows.Scan(&n.ID, &parent, &n.Label, &n.Kind, &n.Points, &n.Done, &tags); err != nil {
		return nil, "", err
	}
	if tags.Valid {
		n.Tags = parseJSONStringArray(tags.String)
	}
	return &n, parent.String, nil
}

// parseJSONStringArray parses a JSON array of strings
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return nil
	}

	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// Fallback to simple parser for malformed JSON
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		if s == "" {
			return nil
		}
		for _, item := range strings.Split(s, ",") {
			item = strings.TrimSpace(item)
			item = strings.Trim(item, `"`)
			if item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
