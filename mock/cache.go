package mock

import (
	"context"

	"github.com/HimashaHerath/webextract"
)

var _ webextract.Cache = (*Cache)(nil)

// Cache is a mock implementation of webextract.Cache.
type Cache struct {
	GetFn    func(key string) (*webextract.ExtractionRecord, bool)
	SetFn    func(key string, record *webextract.ExtractionRecord)
	DeleteFn func(key string)
	ClearFn  func()
	LenFn    func() int
}

func (c *Cache) Get(key string) (*webextract.ExtractionRecord, bool) {
	return c.GetFn(key)
}

func (c *Cache) Set(key string, record *webextract.ExtractionRecord) {
	c.SetFn(key, record)
}

func (c *Cache) Delete(key string) {
	c.DeleteFn(key)
}

func (c *Cache) Clear() {
	c.ClearFn()
}

func (c *Cache) Len() int {
	return c.LenFn()
}

var _ webextract.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of webextract.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
