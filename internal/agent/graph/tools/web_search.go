package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	logx "github.com/agent-chat-demo/server/pkg/logger"
)

// searchBaseURL is a var so tests can point it at a local server.
var searchBaseURL = "https://html.duckduckgo.com/html/"

const (
	defaultSearchResults = 5
	maxSearchResults     = 10
)

type WebSearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type WebSearchOutput struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

func createWebSearchTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the web and return a list of results with title, URL, and snippet. Use for current events, facts, and anything outside your training data.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search keywords, in any language.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of results to return (default: 5, max: 10)",
				},
			}),
		},
		func(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			max := in.MaxResults
			if max <= 0 {
				max = defaultSearchResults
			}
			if max > maxSearchResults {
				max = maxSearchResults
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchBaseURL+"?q="+url.QueryEscape(query), nil)
			if err != nil {
				return nil, fmt.Errorf("build search request: %w", err)
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; agent-chat-demo)")

			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("search request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
			}

			results, err := parseSearchResults(io.LimitReader(resp.Body, maxFetchBytes), max)
			if err != nil {
				return nil, err
			}

			logx.Debug().Str("query", query).Int("results", len(results)).Msg("web search completed")
			return &WebSearchOutput{Results: results, Total: len(results)}, nil
		},
	)
}

// parseSearchResults extracts results from the DuckDuckGo HTML endpoint.
func parseSearchResults(r io.Reader, max int) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results []SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     resolveResultURL(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return len(results) < max
	})

	return results, nil
}

// resolveResultURL unwraps DuckDuckGo redirect links (/l/?uddg=<target>).
func resolveResultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
