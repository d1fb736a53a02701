package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/listbind/internal/datasource"
)

// GeneratorConfig controls node generation.
type GeneratorConfig struct {
	Seed     int64    // Random seed for determinism
	IDPrefix string   // Prefix for node IDs (default: "n")
	Kinds    []string // Kind distribution (nil = all "task")
	MaxPoint int      // Points are drawn from [0, MaxPoint] (0 = no points)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "n",
		Kinds:    []string{"epic", "story", "task"},
		MaxPoint: 8,
	}
}

// Generator creates deterministic node trees.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []string{"task"}
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node() *datasource.Node {
	id := fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next)
	g.next++
	n := &datasource.Node{
		ID:    id,
		Label: "Node " + id,
		Kind:  g.cfg.Kinds[g.rng.Intn(len(g.cfg.Kinds))],
		Done:  g.rng.Intn(4) == 0,
	}
	if g.cfg.MaxPoint > 0 {
		n.Points = g.rng.Intn(g.cfg.MaxPoint + 1)
	}
	return n
}

// Flat creates n roots without children.
func (g *Generator) Flat(n int) []*datasource.Node {
	out := make([]*datasource.Node, n)
	for i := range out {
		out[i] = g.node()
	}
	return out
}

// Tree creates `breadth` roots, each with `breadth` children per level down
// to the given depth. Depth 1 yields only roots.
func (g *Generator) Tree(depth, breadth int) []*datasource.Node {
	if depth < 1 || breadth < 1 {
		return nil
	}
	level := g.Flat(breadth)
	if depth > 1 {
		for _, n := range level {
			n.Children = g.Tree(depth-1, breadth)
		}
	}
	return level
}

// Random creates n nodes spread over random parents, no deeper than
// maxDepth levels.
func (g *Generator) Random(n, maxDepth int) []*datasource.Node {
	if maxDepth < 1 {
		maxDepth = 1
	}
	type placed struct {
		node  *datasource.Node
		depth int
	}
	var roots []*datasource.Node
	var all []placed
	for i := 0; i < n; i++ {
		nd := g.node()
		if len(all) == 0 || g.rng.Intn(3) == 0 {
			roots = append(roots, nd)
			all = append(all, placed{nd, 1})
			continue
		}
		p := all[g.rng.Intn(len(all))]
		if p.depth >= maxDepth {
			roots = append(roots, nd)
			all = append(all, placed{nd, 1})
			continue
		}
		p.node.Children = append(p.node.Children, nd)
		all = append(all, placed{nd, p.depth + 1})
	}
	return roots
}

// QuickTree returns a default-seeded tree.
func QuickTree(depth, breadth int) []*datasource.Node {
	return NewDefault().Tree(depth, breadth)
}
