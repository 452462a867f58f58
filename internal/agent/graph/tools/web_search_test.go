package tools

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
  <a class="result__snippet">Build simple, secure, scalable systems with Go.</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/">Go Packages</a>
  <a class="result__snippet">Package discovery for Go modules.</a>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/blog/">The Go Blog</a>
  <a class="result__snippet">News from the Go project.</a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPage), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev/", results[0].URL, "redirect link should be unwrapped")
	assert.Equal(t, "Build simple, secure, scalable systems with Go.", results[0].Snippet)
	assert.Equal(t, "https://pkg.go.dev/", results[1].URL)
}

func TestParseSearchResultsHonorsMax(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPage), 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParseSearchResultsEmptyPage(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader("<html><body></body></html>"), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResolveResultURLPassthrough(t *testing.T) {
	assert.Equal(t, "https://example.com/x", resolveResultURL("https://example.com/x"))
}

func TestValidatePageURL(t *testing.T) {
	_, err := validatePageURL("ftp://example.com")
	assert.Error(t, err)

	_, err = validatePageURL("/relative/path")
	assert.Error(t, err)

	_, err = validatePageURL("")
	assert.Error(t, err)

	u, err := validatePageURL("  https://example.com/page ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", u)
}

func TestExtractVisibleTextStripsScripts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><title>t</title></head><body><script>var x=1;</script><p>hello</p> <p>world</p></body></html>`))
	require.NoError(t, err)

	text, truncated := extractVisibleText(doc)
	assert.Equal(t, "hello world", text)
	assert.False(t, truncated)
}

func TestGetToolInfos(t *testing.T) {
	infos, err := GetToolInfos(t.Context(), GetChatTools())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	names := []string{infos[0].Name, infos[1].Name}
	assert.Contains(t, names, ToolWebSearch)
	assert.Contains(t, names, ToolReadPage)
}
