package extract_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("returns stored records", func(t *testing.T) {
		t.Parallel()

		c := extract.NewMemoryCache()
		rec := &webextract.ExtractionRecord{URL: "https://example.com", Confidence: 0.8}
		c.Set("https://example.com", rec)

		got, ok := c.Get("https://example.com")

		require.True(t, ok)
		assert.Same(t, rec, got)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("misses unknown keys", func(t *testing.T) {
		t.Parallel()

		c := extract.NewMemoryCache()

		_, ok := c.Get("https://example.com")

		assert.False(t, ok)
	})

	t.Run("overwriting does not grow the cache", func(t *testing.T) {
		t.Parallel()

		c := extract.NewMemoryCache()
		c.Set("k", &webextract.ExtractionRecord{Confidence: 0.5})
		c.Set("k", &webextract.ExtractionRecord{Confidence: 0.9})

		got, _ := c.Get("k")
		assert.InDelta(t, 0.9, got.Confidence, 1e-9)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("delete and clear", func(t *testing.T) {
		t.Parallel()

		c := extract.NewMemoryCache()
		c.Set("a", &webextract.ExtractionRecord{})
		c.Set("b", &webextract.ExtractionRecord{})
		c.Set("c", &webextract.ExtractionRecord{})

		c.Delete("a")
		c.Delete("missing")
		assert.Equal(t, 2, c.Len())

		c.Clear()
		assert.Equal(t, 0, c.Len())
		_, ok := c.Get("b")
		assert.False(t, ok)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		c := extract.NewMemoryCache()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Go(func() {
				key := fmt.Sprintf("k%d", i%10)
				c.Set(key, &webextract.ExtractionRecord{URL: key})
				c.Get(key)
			})
		}
		wg.Wait()

		assert.Equal(t, 10, c.Len())
	})
}
