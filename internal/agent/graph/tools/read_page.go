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

const (
	// maxFetchBytes bounds how much of a response body is read.
	maxFetchBytes = 2 << 20
	// maxPageChars bounds the extracted text handed back to the model.
	maxPageChars = 8000
)

type ReadPageInput struct {
	URL string `json:"url"`
}

type ReadPageOutput struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

func createReadPageTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolReadPage,
			Desc: "Fetch a web page over http(s) and return its title and visible text. Use after web_search to read a promising result.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"url": {
					Type:     "string",
					Desc:     "Absolute http or https URL to fetch.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ReadPageInput) (*ReadPageOutput, error) {
			target, err := validatePageURL(in.URL)
			if err != nil {
				return nil, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, fmt.Errorf("build page request: %w", err)
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; agent-chat-demo)")

			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetch page: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
			}

			doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxFetchBytes))
			if err != nil {
				return nil, fmt.Errorf("parse page: %w", err)
			}

			title := strings.TrimSpace(doc.Find("title").First().Text())
			text, truncated := extractVisibleText(doc)

			logx.Debug().Str("url", target).Int("chars", len(text)).Bool("truncated", truncated).Msg("page read")
			return &ReadPageOutput{URL: target, Title: title, Text: text, Truncated: truncated}, nil
		},
	)
}

// validatePageURL accepts absolute http(s) URLs only.
func validatePageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url must be absolute")
	}
	return u.String(), nil
}

// extractVisibleText strips non-content elements and collapses whitespace.
func extractVisibleText(doc *goquery.Document) (string, bool) {
	doc.Find("script, style, noscript, iframe, svg").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := strings.Join(strings.Fields(body.Text()), " ")

	if len(text) > maxPageChars {
		return text[:maxPageChars], true
	}
	return text, false
}
