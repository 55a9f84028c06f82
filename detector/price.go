package detector

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"cart-tracker/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// priceCandidate is one scored match competing for selection. Lives only
// for the duration of a single resolution.
type priceCandidate struct {
	text  string
	rank  int
	score int
}

// resolvePrice resolves the displayed price of the product in strictly
// ordered tiers, returning at the first tier that yields a result:
// structured data, scored selector candidates, container text, document
// text, price meta tags, sentinel. The result is always a non-empty
// string: either a cleaned price or types.PriceNotFound.
func resolvePrice(page *Page, container *goquery.Selection) string {
	if price := priceFromStructuredData(page); price != "" {
		return price
	}

	if best := bestPriceCandidate(container); best != "" {
		return cleanPriceText(best)
	}

	// Container text rescues pages whose price markup matched no
	// selector. Only the four strongest patterns run here; the bare
	// numeric ones produce too many false positives on free text.
	containerText := container.Text()
	for _, p := range defaultCatalog.patterns[:4] {
		if match := p.find(containerText); match != "" {
			return cleanPriceText(match)
		}
	}

	// Whole-document scan, last resort before metadata. Three strongest
	// patterns only, and the match must carry a currency symbol.
	bodyText := page.Doc.Find("body").Text()
	for _, p := range defaultCatalog.patterns[:3] {
		for _, match := range p.findAll(bodyText) {
			cleaned := cleanPriceText(match)
			if containsCurrencySymbol(cleaned) {
				return cleaned
			}
		}
	}

	if amount := page.metaContent("product:price:amount"); amount != "" {
		currency := page.metaContent("product:price:currency")
		return strings.TrimSpace(currency + " " + amount)
	}

	return types.PriceNotFound
}

// priceFromStructuredData scans the page's JSON-LD blocks for a Product
// offer. Structured data has absolute priority over anything visible.
func priceFromStructuredData(page *Page) string {
	var result string
	page.Doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if typ, _ := data["@type"].(string); typ != "Product" {
			return true
		}

		offers := data["offers"]
		if list, ok := offers.([]interface{}); ok {
			if len(list) == 0 {
				return true
			}
			offers = list[0]
		}
		offer, ok := offers.(map[string]interface{})
		if !ok {
			return true
		}

		price := jsonScalar(offer["price"])
		if price == "" {
			return true
		}
		if currency, _ := offer["priceCurrency"].(string); currency != "" {
			result = currency + " " + price
		} else {
			result = price
		}
		return false
	})
	return result
}

// jsonScalar renders a JSON price value, which sites emit as either a
// string or a number
func jsonScalar(v interface{}) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

// bestPriceCandidate scans every element matched by the price selector
// catalog, scores each pattern match and returns the single best one.
// Ties break by encounter order. Elements carrying an explicit data-price
// or content attribute short-circuit the scoring entirely.
func bestPriceCandidate(container *goquery.Selection) string {
	var best priceCandidate
	var shortCircuit string

	for _, m := range defaultCatalog.price {
		if shortCircuit != "" {
			break
		}
		container.FindMatcher(m).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if !isVisible(el) {
				return true
			}

			if attrPrice := firstAttr(el, "data-price", "content"); attrPrice != "" {
				shortCircuit = attrPrice
				return false
			}

			text := strings.TrimSpace(el.Text())
			for _, p := range defaultCatalog.patterns {
				match := p.find(text)
				if match == "" {
					continue
				}
				score := scorePriceCandidate(el, match, p.rank)
				if score > best.score {
					best = priceCandidate{text: match, rank: p.rank, score: score}
				}
				break
			}
			return true
		})
	}

	if shortCircuit != "" {
		return shortCircuit
	}
	return best.text
}

// scorePriceCandidate rates how likely a matched string is the displayed
// price. More specific patterns score higher; sale/current class names
// add, stale markers subtract (struck-through original prices score
// themselves out), visual prominence adds, wordy matches subtract.
func scorePriceCandidate(el *goquery.Selection, match string, rank int) int {
	score := len(defaultCatalog.patterns) - rank

	class := strings.ToLower(attrOr(el, "class", ""))
	if strings.Contains(class, "current") || strings.Contains(class, "sale") {
		score += 5
	}
	if strings.Contains(class, "final") {
		score += 5
	}
	if strings.Contains(class, "regular") {
		score -= 2
	}
	if strings.Contains(class, "old") || strings.Contains(class, "was") {
		score -= 10
	}

	if size := fontSizePixels(el); size > 20 {
		score += 3
		if size > 30 {
			score += 5
		}
	}
	if isBoldText(el) {
		score += 2
	}

	if len(strings.Fields(match)) > 3 {
		score -= 2
	}

	return score
}

// fontSizePixels reads an inline font-size declaration. Zero when absent;
// pages without inline styles simply get no prominence signal.
func fontSizePixels(el *goquery.Selection) float64 {
	value := inlineStyleValue(el, "font-size")
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	size, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return size
}

func isBoldText(el *goquery.Selection) bool {
	weight := strings.ToLower(inlineStyleValue(el, "font-weight"))
	if weight == "bold" || weight == "bolder" {
		return true
	}
	if n, err := strconv.Atoi(weight); err == nil && n >= 600 {
		return true
	}
	switch goquery.NodeName(el) {
	case "strong", "b", "h1", "h2", "h3":
		return true
	}
	return el.ParentsFiltered("strong, b").Length() > 0
}

func firstAttr(el *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(attrOr(el, name, "")); v != "" {
			return v
		}
	}
	return ""
}

var (
	codeAfterNumber  = regexp.MustCompile(`([\d.,]+)([A-Z]{3})`)
	codeBeforeNumber = regexp.MustCompile(`([A-Z]{3})([\d.,]+)`)
)

// cleanPriceText collapses whitespace and enforces a single space between
// a numeric run and an adjacent 3-letter currency code in either order
func cleanPriceText(price string) string {
	cleaned := collapseWhitespace(price)
	cleaned = codeAfterNumber.ReplaceAllString(cleaned, "$1 $2")
	cleaned = codeBeforeNumber.ReplaceAllString(cleaned, "$1 $2")
	return cleaned
}

func containsCurrencySymbol(s string) bool {
	return strings.ContainsAny(s, "$€£₪₹")
}
