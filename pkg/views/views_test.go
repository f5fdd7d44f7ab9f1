package views

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmbeddedStaticAssets verifies that all required static assets are embedded
// and have valid content.
func TestEmbeddedStaticAssets(t *testing.T) {
	requiredAssets := []string{
		"static/app.css",
		"static/icons.svg",
		"static/favicon.svg",
	}

	t.Run("AllRequiredFilesPresent", func(t *testing.T) {
		for _, assetPath := range requiredAssets {
			data, err := fs.ReadFile(staticFS, assetPath)
			require.NoError(t, err, assetPath)
			assert.NotEmpty(t, data, assetPath)
		}
	})

	t.Run("SpriteHasUsedIcons", func(t *testing.T) {
		data, err := fs.ReadFile(staticFS, "static/icons.svg")
		require.NoError(t, err)
		for _, id := range []string{"chevron-left", "chevron-right", "folder", "file", "search", "log-out", "refresh"} {
			assert.Contains(t, string(data), `id="`+id+`"`)
		}
	})

	t.Run("FaviconEmbedded", func(t *testing.T) {
		assert.NotEmpty(t, faviconFS)
	})
}
