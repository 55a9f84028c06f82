package detector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// IsActionElement reports whether a single element represents an
// add-to-cart action. Two independent strategies are OR-combined: a
// structural match against the selector catalog, then a lexical match of
// the element's text, aria-label, title and value against the locale
// keyword set. Only the given element is inspected; walking candidate
// ancestors is the caller's job.
func IsActionElement(sel *goquery.Selection) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}

	for _, m := range defaultCatalog.action {
		if sel.IsMatcher(m) {
			return true
		}
	}

	text := strings.ToLower(sel.Text())
	ariaLabel := strings.ToLower(attrOr(sel, "aria-label", ""))
	title := strings.ToLower(attrOr(sel, "title", ""))
	// Submit inputs carry their label in the value attribute.
	value := strings.ToLower(attrOr(sel, "value", ""))
	combined := text + " " + ariaLabel + " " + title + " " + value

	for _, keyword := range defaultCatalog.keywords {
		if strings.Contains(combined, keyword) {
			return true
		}
	}
	return false
}
