package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture path to a decoded NRGBA image.
type Resolver interface {
	Resolve(texPath string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache shared by all render workers.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error // load failure, remembered so broken files are read once
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a texture. Returns nil if the path is not in
// the index or the file cannot be decoded.
func (c *Cache) Resolve(texPath string) *image.NRGBA {
	img, _ := c.Load(texPath)
	return img
}

// Load is Resolve with the load error reported. A path missing from the
// index returns (nil, nil).
func (c *Cache) Load(texPath string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(texPath)
	if !ok {
		return nil, nil
	}

	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := LoadTexture(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of files loaded so far, failed loads included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
