package readability_test

import (
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Ocean Currents Explained</title>
<meta property="og:site_name" content="Science Weekly">
<meta name="author" content="Dana Reyes">
<meta property="og:image" content="https://example.com/waves.png">
<meta name="description" content="How ocean currents move heat around the planet.">
<meta property="article:published_time" content="2024-05-01T10:00:00Z">
</head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Ocean Currents Explained</h1>
<p>Ocean currents are continuous, directed movements of seawater generated by forces acting upon the water.</p>
<p>They move warm water from the equator toward the poles and cold water back toward the tropics, shaping climate.</p>
<p>Surface currents are driven by wind, while deep currents are driven by differences in water density.</p>
</article>
</body>
</html>`

func TestEnricher_Enrich(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		err := readability.NewEnricher().Enrich("", &webextract.ExtractedContent{})

		assert.Equal(t, webextract.EINVALID, webextract.ErrorCode(err))
	})

	t.Run("adds article metadata", func(t *testing.T) {
		t.Parallel()

		content := &webextract.ExtractedContent{URL: "https://example.com/ocean"}

		err := readability.NewEnricher().Enrich(articleHTML, content)

		require.NoError(t, err)
		assert.Equal(t, "Science Weekly", content.Metadata["site_name"])
		assert.Equal(t, "Dana Reyes", content.Metadata["byline"])
		assert.Equal(t, "https://example.com/waves.png", content.Metadata["image"])
		assert.NotEmpty(t, content.Metadata["excerpt"])
	})

	t.Run("keeps existing keys", func(t *testing.T) {
		t.Parallel()

		content := &webextract.ExtractedContent{
			URL:      "https://example.com/ocean",
			Metadata: map[string]string{"site_name": "kept", "language": "en-GB"},
		}

		err := readability.NewEnricher().Enrich(articleHTML, content)

		require.NoError(t, err)
		assert.Equal(t, "kept", content.Metadata["site_name"])
		assert.Equal(t, "en-GB", content.Metadata["language"])
	})
}
