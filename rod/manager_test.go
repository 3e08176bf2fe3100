//go:build integration

package rod_test

import (
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager(t *testing.T) {
	t.Parallel()

	t.Run("relaunches after the page budget", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(2))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		for range 2 {
			page, err := manager.Page()
			require.NoError(t, err)
			_ = page.Close()
		}

		assert.NotSame(t, first, manager.Browser())
	})

	t.Run("keeps the browser within the budget", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
		require.NoError(t, err)
		defer manager.Close()

		first := manager.Browser()
		page, err := manager.Page()
		require.NoError(t, err)
		_ = page.Close()

		assert.Same(t, first, manager.Browser())
	})

	t.Run("refuses pages after close", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager()
		require.NoError(t, err)
		require.NoError(t, manager.Close())
		require.NoError(t, manager.Close())

		_, err = manager.Page()

		assert.Equal(t, webextract.EINVALID, webextract.ErrorCode(err))
	})
}
