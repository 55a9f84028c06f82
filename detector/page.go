package detector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

// Page is the navigable tree the engine extracts from: a parsed document
// plus the page URL, host and OpenGraph metadata. Any HTML source works
// (live fetch, saved file, test fixture); no browser is required.
type Page struct {
	Doc  *goquery.Document
	URL  string
	Host string

	og *opengraph.OpenGraph
}

// NewPage parses raw HTML into a Page
func NewPage(html string, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Host
	}

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err != nil {
		// Metadata is a fallback tier only; a page without readable og
		// tags still goes through the selector tiers.
		og = opengraph.NewOpenGraph()
	}

	return &Page{
		Doc:  doc,
		URL:  pageURL,
		Host: host,
		og:   og,
	}, nil
}

// OpenGraphTitle returns the og:title value, empty when absent
func (p *Page) OpenGraphTitle() string {
	if p.og == nil {
		return ""
	}
	return strings.TrimSpace(p.og.Title)
}

// OpenGraphImage returns the first og:image URL, empty when absent
func (p *Page) OpenGraphImage() string {
	if p.og == nil || len(p.og.Images) == 0 {
		return ""
	}
	return strings.TrimSpace(p.og.Images[0].URL)
}

// metaContent returns the content of a <meta property=...> tag
func (p *Page) metaContent(property string) string {
	content, _ := p.Doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(content)
}

func attrOr(sel *goquery.Selection, name, fallback string) string {
	if v, ok := sel.Attr(name); ok {
		return v
	}
	return fallback
}

// collapseWhitespace trims and folds any internal whitespace run into a
// single space
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isVisible reports whether an element would be rendered. A static tree
// has no layout, so this checks the hidden attributes and inline styles
// on the element and its ancestors.
func isVisible(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return false
	}
	for cur := sel; cur.Length() > 0; cur = cur.Parent() {
		if goquery.NodeName(cur) == "body" {
			break
		}
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		if attrOr(cur, "aria-hidden", "") == "true" {
			return false
		}
		if attrOr(cur, "type", "") == "hidden" {
			return false
		}
		style := strings.ToLower(attrOr(cur, "style", ""))
		style = strings.ReplaceAll(style, " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// inlineStyleValue extracts a single property from an inline style attribute
func inlineStyleValue(sel *goquery.Selection, property string) string {
	style := attrOr(sel, "style", "")
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), property) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
