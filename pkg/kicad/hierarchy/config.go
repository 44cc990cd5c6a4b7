package hierarchy

import "fmt"

// Config controls how a sheet hierarchy is loaded.
type Config struct {
	MaxDepth    int // Deepest sheet level loaded below the root (default: 32)
	Concurrency int // Sibling sheets fetched at once per level (default: 4)
	CacheSize   int // Parsed documents kept by resolved name (default: 128)
}

// DefaultConfig returns a Config suitable for typical projects.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:    32,
		Concurrency: 4,
		CacheSize:   128,
	}
}

// Validate checks the configuration, raising too-small limits to their
// minimum.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}

	if c.Concurrency < 1 {
		c.Concurrency = 1
	}

	if c.CacheSize < 1 {
		c.CacheSize = 1
	}

	return nil
}
