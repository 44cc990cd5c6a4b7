// Package hierarchy loads a root schematic together with every sheet below
// it.
//
// Sibling sheets are fetched concurrently. A sheet that cannot be fetched
// or parsed only marks its own node as failed; the rest of the tree is
// still loaded.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/kisch/pkg/kicad/schematic"
)

var (
	// ErrCycle marks a sheet that includes one of its own ancestors
	ErrCycle = errors.New("sheet recursion cycle")
	// ErrMaxDepth marks a sheet below the configured depth limit
	ErrMaxDepth = errors.New("sheet hierarchy too deep")
)

// Node is one document in a loaded hierarchy.
type Node struct {
	Name      string                 // Resolved file name
	Sheet     *schematic.Sheet       // Sheet in the parent referring here; nil for the root
	Context   schematic.SheetContext // Context this document's own sheets resolve against
	Schematic *schematic.Schematic   // nil when Err is set
	Err       error
	Children  []*Node // One per sheet, in document order
}

// Walk calls fn for n and every node below it, parents before children.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Errors returns the nodes that failed to load
func (n *Node) Errors() []*Node {
	var failed []*Node
	n.Walk(func(node *Node, _ int) {
		if node.Err != nil {
			failed = append(failed, node)
		}
	})
	return failed
}

// Loader loads sheet hierarchies through a ContentProvider, caching parsed
// documents by resolved name. A document referenced by several sheets is
// shared between their nodes.
type Loader struct {
	provider ContentProvider
	config   *Config
	logger   *slog.Logger
	cache    *lru.Cache[string, *schematic.Schematic]
}

// NewLoader creates a loader. A nil config means DefaultConfig and a nil
// logger means slog.Default().
func NewLoader(provider ContentProvider, config *Config, logger *slog.Logger) (*Loader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, *schematic.Schematic](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Loader{
		provider: provider,
		config:   config,
		logger:   logger,
		cache:    cache,
	}, nil
}

// Purge drops every cached document
func (l *Loader) Purge() {
	l.cache.Purge()
}

// Load fetches the root document and every sheet below it. Only a failure
// of the root itself is returned as an error; sheet failures are recorded
// on their nodes. If ctx is cancelled the partial tree is returned together
// with the context's error.
func (l *Loader) Load(ctx context.Context, root string) (*Node, error) {
	name := filepath.Clean(root)

	sch, err := l.fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	node := &Node{
		Name:      name,
		Context:   schematic.ContextFor(sch),
		Schematic: sch,
	}
	l.loadChildren(ctx, node, 1)

	if failed := node.Errors(); len(failed) > 0 {
		l.logger.Warn("hierarchy loaded with errors", "root", name, "failed", len(failed))
	}
	return node, ctx.Err()
}

func (l *Loader) fetch(ctx context.Context, name string) (*schematic.Schematic, error) {
	if sch, ok := l.cache.Get(name); ok {
		l.logger.Debug("sheet cache hit", "file", name)
		return sch, nil
	}

	text, err := l.provider.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}

	sch, err := schematic.Parse(text, name)
	if err != nil {
		return nil, err
	}

	l.cache.Add(name, sch)
	l.logger.Debug("sheet loaded", "file", name, "elements", len(sch.Elements))
	return sch, nil
}

func (l *Loader) loadChildren(ctx context.Context, parent *Node, depth int) {
	sheets := parent.Schematic.Sheets()
	if len(sheets) == 0 {
		return
	}

	parent.Children = make([]*Node, len(sheets))
	var g errgroup.Group
	g.SetLimit(l.config.Concurrency)

	for i, sheet := range sheets {
		child := &Node{
			Name:  schematic.FilenameForSheet(sheet, parent.Context),
			Sheet: sheet,
		}
		parent.Children[i] = child

		g.Go(func() error {
			l.loadNode(ctx, parent.Context, child, depth)
			return nil
		})
	}

	// Goroutines never fail; errors stay on the nodes
	_ = g.Wait()
}

func (l *Loader) loadNode(ctx context.Context, parentCtx schematic.SheetContext, node *Node, depth int) {
	switch {
	case parentCtx.Contains(node.Name):
		node.Err = fmt.Errorf("%s: %w", node.Name, ErrCycle)
	case depth > l.config.MaxDepth:
		node.Err = fmt.Errorf("%s at depth %d: %w", node.Name, depth, ErrMaxDepth)
	default:
		node.Err = ctx.Err()
	}
	if node.Err != nil {
		l.logger.Warn("sheet skipped", "file", node.Name, "error", node.Err)
		return
	}

	sch, err := l.fetch(ctx, node.Name)
	if err != nil {
		node.Err = err
		l.logger.Warn("failed to load sheet", "file", node.Name, "error", err)
		return
	}

	node.Schematic = sch
	node.Context = parentCtx.Child(node.Sheet)
	l.loadChildren(ctx, node, depth+1)
}
