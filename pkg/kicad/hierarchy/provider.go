package hierarchy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ContentProvider returns the text of the document with the given resolved
// name. Implementations must be safe for concurrent use.
type ContentProvider interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// FSProvider reads documents from the file system. Relative names are
// taken relative to Root.
type FSProvider struct {
	Root string
}

// Fetch reads the named file
func (p FSProvider) Fetch(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := name
	if p.Root != "" && !filepath.IsAbs(name) {
		path = filepath.Join(p.Root, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}
