package webextract_test

import (
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedContent_AddMetadata(t *testing.T) {
	t.Parallel()

	c := &webextract.ExtractedContent{}

	assert.True(t, c.AddMetadata("author", "Ada"))
	assert.False(t, c.AddMetadata("author", "Grace"), "existing keys are kept")
	assert.False(t, c.AddMetadata("language", ""), "empty values are skipped")
	assert.Equal(t, map[string]string{"author": "Ada"}, c.Metadata)
}

func TestExtractionRecord_Failed(t *testing.T) {
	t.Parallel()

	ok := &webextract.ExtractionRecord{
		StructuredInfo: webextract.NewResultBuilder().Set(webextract.FieldSummary, "s").Default(),
	}
	failed := &webextract.ExtractionRecord{StructuredInfo: webextract.NewErrorResult("boom")}

	assert.False(t, ok.Failed())
	assert.True(t, failed.Failed())
	assert.True(t, (&webextract.ExtractionRecord{}).Failed())
}

func TestExtractionRecord_WithSummary(t *testing.T) {
	t.Parallel()

	rec := &webextract.ExtractionRecord{
		URL: "https://example.com",
		Content: webextract.ExtractedContent{
			Links:    []string{"https://example.com/a"},
			Metadata: map[string]string{"author": "Ada"},
		},
		StructuredInfo: webextract.NewResultBuilder().Set(webextract.FieldSummary, "long summary").Default(),
		Confidence:     0.6,
	}

	other := rec.WithSummary("short")
	other.Content.Metadata["author"] = "Grace"
	other.Content.Links[0] = "changed"

	got, ok := other.StructuredInfo.Get(webextract.FieldSummary)
	require.True(t, ok)
	assert.Equal(t, "short", got)
	assert.InDelta(t, 0.6, other.Confidence, 1e-9)

	orig, _ := rec.StructuredInfo.Get(webextract.FieldSummary)
	assert.Equal(t, "long summary", orig)
	assert.Equal(t, "Ada", rec.Content.Metadata["author"])
	assert.Equal(t, "https://example.com/a", rec.Content.Links[0])
}
