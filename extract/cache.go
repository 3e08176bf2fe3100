package extract

import (
	"sync"
	"sync/atomic"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.Cache = (*MemoryCache)(nil)

// MemoryCache is an in-process Cache keyed by URL. It is safe for
// concurrent use.
type MemoryCache struct {
	m sync.Map
	n atomic.Int64
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(url string) (*webextract.ExtractionRecord, bool) {
	v, ok := c.m.Load(url)
	if !ok {
		return nil, false
	}
	return v.(*webextract.ExtractionRecord), true
}

func (c *MemoryCache) Set(url string, record *webextract.ExtractionRecord) {
	if _, loaded := c.m.Swap(url, record); !loaded {
		c.n.Add(1)
	}
}

func (c *MemoryCache) Delete(url string) {
	if _, loaded := c.m.LoadAndDelete(url); loaded {
		c.n.Add(-1)
	}
}

func (c *MemoryCache) Clear() {
	c.m.Range(func(k, _ any) bool {
		c.Delete(k.(string))
		return true
	})
}

func (c *MemoryCache) Len() int {
	return int(c.n.Load())
}
