package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// WebPage is what web extraction recovers from a content URL.
type WebPage struct {
	Title string
	Text  string
}

// WebExtractor pulls readable text from a hotspot's landing page. Used
// to supplement thin transcripts; many trend items link to article
// pages rather than raw media.
type WebExtractor struct {
	client *http.Client
}

// NewWebExtractor creates the page text extractor.
func NewWebExtractor(timeout time.Duration) *WebExtractor {
	return &WebExtractor{
		client: &http.Client{Timeout: timeout},
	}
}

// Extract fetches pageURL and returns its readable text. Falls back to
// OpenGraph metadata when the readability pass finds nothing.
func (w *WebExtractor) Extract(ctx context.Context, pageURL string) (WebPage, error) {
	var page WebPage

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "hotradar/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return page, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("fetch page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return page, fmt.Errorf("parse page: %w", err)
	}

	html, err := doc.Html()
	if err != nil {
		return page, fmt.Errorf("render page: %w", err)
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		page.Title = article.Title
		page.Text = compactWhitespace(article.TextContent)
		return page, nil
	}

	// Readability found no article body. OpenGraph tags usually still
	// carry a usable summary.
	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		page.Title = og
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		page.Text = strings.TrimSpace(desc)
	}
	if page.Text == "" {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			page.Text = strings.TrimSpace(desc)
		}
	}

	if page.Text == "" {
		return page, fmt.Errorf("no readable content at %s", pageURL)
	}
	return page, nil
}

func compactWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
