package detector

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"cart-tracker/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// Title candidates from the selector tiers must fall inside this band;
// anything shorter is a fragment, anything longer is page chrome.
const (
	minTitleLen = 6
	maxTitleLen = 299
)

// extractTitle resolves the product title: container selector tiers
// first, then the page og:title, then the document title with trailing
// separator segments stripped, then the sentinel.
func extractTitle(page *Page, container *goquery.Selection) string {
	for _, m := range defaultCatalog.title {
		found := container.FindMatcher(m).First()
		if found.Length() == 0 {
			continue
		}
		title := collapseWhitespace(found.Text())
		if n := utf8.RuneCountInString(title); n >= minTitleLen && n <= maxTitleLen {
			return title
		}
	}

	if ogTitle := page.OpenGraphTitle(); ogTitle != "" {
		return ogTitle
	}

	pageTitle := page.Doc.Find("title").First().Text()
	pageTitle, _, _ = strings.Cut(pageTitle, "|")
	pageTitle, _, _ = strings.Cut(pageTitle, "-")
	if pageTitle = strings.TrimSpace(pageTitle); pageTitle != "" {
		return pageTitle
	}

	return types.UnknownTitle
}

// extractImage resolves the product image URL: container selector tiers
// accepting the first absolute URL that is not a placeholder, then the
// page og:image, then empty (never a broken sentinel URL).
func extractImage(page *Page, container *goquery.Selection) string {
	for _, m := range defaultCatalog.image {
		img := container.FindMatcher(m).First()
		src, ok := img.Attr("src")
		if !ok || !strings.HasPrefix(src, "http") {
			continue
		}
		if isPlaceholderImage(src) {
			continue
		}
		return src
	}

	return page.OpenGraphImage()
}

func isPlaceholderImage(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractQuantity reads the quantity control inside the container. Only
// values in (0, 1000) are accepted; everything else falls through to the
// default of 1.
func extractQuantity(container *goquery.Selection) int {
	for _, m := range defaultCatalog.quantity {
		control := container.FindMatcher(m).First()
		if control.Length() == 0 {
			continue
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(controlValue(control)))
		if err != nil {
			continue
		}
		if quantity > 0 && quantity < 1000 {
			return quantity
		}
	}
	return 1
}

// controlValue reads the effective value of a form control. A select
// reports its selected option (first option when none is marked); other
// controls report their value attribute, falling back to their text.
func controlValue(control *goquery.Selection) string {
	if goquery.NodeName(control) == "select" {
		option := control.Find("option[selected]").First()
		if option.Length() == 0 {
			option = control.Find("option").First()
		}
		if v := attrOr(option, "value", ""); v != "" {
			return v
		}
		return option.Text()
	}
	if v := attrOr(control, "value", ""); v != "" {
		return v
	}
	return control.Text()
}
