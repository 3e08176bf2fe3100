package goquery_test

import (
	"strings"
	"testing"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMainContent(t *testing.T) {
	t.Parallel()

	t.Run("picks the longest semantic candidate", func(t *testing.T) {
		t.Parallel()

		short := strings.Repeat("m", 40)
		long := strings.TrimSpace(strings.Repeat("word ", 120))
		doc := parse(t, `<html><body>
			<main>`+short+`</main>
			<div class="article-content">`+long+`</div>
		</body></html>`)

		got, err := goquery.SelectMainContent(doc, webextract.DefaultMaxContentLength)

		require.NoError(t, err)
		assert.Equal(t, long, got)
	})

	t.Run("strips page chrome from candidates", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("Real article text. ", 10)
		doc := parse(t, `<html><body><article>
			<nav>Home About</nav>
			<script>var x = 1;</script>
			<div class="social-share">Share this</div>
			<div id="comments">Nice post</div>
			<p>`+text+`</p>
		</article></body></html>`)

		got, err := goquery.SelectMainContent(doc, 0)

		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(text), got)
	})

	t.Run("falls back to the densest container", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body>
			<div id="links"><a href="/1">one</a> <a href="/2">two</a></div>
			<div id="block">
				<h2>Heading</h2>
				<p>First paragraph with enough words to count for something here.</p>
				<p>Second paragraph that also carries some reasonable text.</p>
			</div>
		</body></html>`)

		got, err := goquery.SelectMainContent(doc, 0)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "Heading First paragraph"))
	})

	t.Run("uses body fragments when no container scores", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body>
			<p>This paragraph is long enough to keep.</p>
			<p>too short</p>
			<form><p>This form paragraph is dropped entirely.</p></form>
		</body></html>`)

		got, err := goquery.SelectMainContent(doc, 0)

		require.NoError(t, err)
		assert.Equal(t, "This paragraph is long enough to keep.", got)
	})

	t.Run("reports oversize content", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<article>`+strings.Repeat("é", 200)+`</article>`)

		_, err := goquery.SelectMainContent(doc, 199)
		assert.Equal(t, webextract.ETOOLARGE, webextract.ErrorCode(err))

		got, err := goquery.SelectMainContent(doc, 200)
		require.NoError(t, err)
		assert.Len(t, []rune(got), 200)
	})
}

func TestScoreContainer(t *testing.T) {
	t.Parallel()

	t.Run("rewards paragraphs and headings", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<div><h1>Title</h1><p>0123456789</p></div>`)

		// 15 characters, one paragraph, one heading.
		assert.InDelta(t, 1.5+10+5, goquery.ScoreContainer(doc.Find("div")), 1e-9)
	})

	t.Run("is never negative", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<div><nav>a</nav><footer>b</footer></div>`)

		assert.Zero(t, goquery.ScoreContainer(doc.Find("div")))
	})

	t.Run("halves link-heavy containers", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<div><p><a href="/a">aaaa</a> bbbb</p></div>`)

		// 8 characters and one paragraph, halved for one link over two words.
		assert.InDelta(t, (0.8+10)/2, goquery.ScoreContainer(doc.Find("div")), 1e-9)
	})
}
