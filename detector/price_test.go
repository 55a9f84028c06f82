package detector

import (
	"testing"

	"cart-tracker/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrice_StructuredDataHasAbsolutePriority(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
			{"@type":"Product","name":"Mouse","offers":{"price":"19.99","priceCurrency":"USD"}}
		</script>
	</head><body><div id="c" class="product">
		<span class="current-price">$24.99</span>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "USD 19.99", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_StructuredDataVariants(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"offers list", `{"@type":"Product","offers":[{"price":"10.50","priceCurrency":"EUR"}]}`, "EUR 10.50"},
		{"numeric price", `{"@type":"Product","offers":{"price":19.99,"priceCurrency":"USD"}}`, "USD 19.99"},
		{"price without currency", `{"@type":"Product","offers":{"price":"42"}}`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><head><script type="application/ld+json">` + tt.json +
				`</script></head><body><div id="c"></div></body></html>`
			page := mustPage(t, html, "https://shop.test/p")
			assert.Equal(t, tt.want, resolvePrice(page, findOne(t, page, "#c")))
		})
	}
}

func TestResolvePrice_IgnoresNonProductStructuredData(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@type":"Organization","name":"Shop"}</script>
		<script type="application/ld+json">not even json</script>
	</head><body><div id="c"><span class="price">$5.00</span></div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "$5.00", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_CurrentBeatsOldAtSameRank(t *testing.T) {
	html := `<html><body><div id="c" class="product">
		<span class="old-price">$49.99</span>
		<span class="current-price">$29.99</span>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "$29.99", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_CapitalizedPriceClasses(t *testing.T) {
	// The old price comes first in text order, so a fallback to container
	// text would surface $99.99; only a case-insensitive class match on
	// both spans picks the current price.
	html := `<html><body><div id="c" class="product">
		<span class="Old-Price">$99.99</span>
		<span class="Current-Price">$29.99</span>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "$29.99", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_DataAttributeShortCircuits(t *testing.T) {
	html := `<html><body><div id="c" class="product">
		<span data-price="29.99"></span>
		<span class="sale-price">$39.99</span>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "29.99", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_SkipsHiddenElements(t *testing.T) {
	html := `<html><body><div id="c" class="product">
		<span class="sale-price" style="display: none">$99.00</span>
		<span class="price-tag">$10.00</span>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "$10.00", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_ContainerTextFallback(t *testing.T) {
	html := `<html><body><div id="c" class="checkout">
		<p>Grand total today only 99.99USD with free shipping</p>
	</div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "99.99 USD", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_DocumentTierRequiresCurrencySymbol(t *testing.T) {
	// The container carries nothing price-like; the page-wide scan only
	// accepts matches containing a recognized currency symbol.
	html := `<html><body>
		<div id="c"><button>Add</button></div>
		<footer><p>Flash sale: €15.99 on all accessories</p></footer>
	</body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "€15.99", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_MetaTagTier(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="49.00" />
		<meta property="product:price:currency" content="ILS" />
	</head><body><div id="c"><button>Add</button></div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	assert.Equal(t, "ILS 49.00", resolvePrice(page, findOne(t, page, "#c")))
}

func TestResolvePrice_NeverEmpty(t *testing.T) {
	html := `<html><body><div id="c"><p>Model 12345 in stock</p></div></body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	price := resolvePrice(page, findOne(t, page, "#c"))
	require.NotEmpty(t, price)
	assert.Equal(t, types.PriceNotFound, price)
}

func TestScorePriceCandidate(t *testing.T) {
	html := `<html><body>
		<span id="plain" class="price-tag">$10.00</span>
		<span id="sale" class="sale-price">$10.00</span>
		<span id="old" class="old-price">$10.00</span>
		<span id="big" class="price-tag" style="font-size: 24px">$10.00</span>
		<span id="huge" class="price-tag" style="font-size: 36px; font-weight: 700">$10.00</span>
	</body></html>`
	page := mustPage(t, html, "https://shop.test/p")

	score := func(id string) int {
		return scorePriceCandidate(findOne(t, page, "#"+id), "$10.00", 0)
	}

	plain := score("plain")
	assert.Greater(t, score("sale"), plain)
	assert.Less(t, score("old"), plain)
	assert.Equal(t, plain+3, score("big"))
	assert.Equal(t, plain+3+5+2, score("huge"))
}

func TestScorePriceCandidate_WordCountPenalty(t *testing.T) {
	html := `<html><body><span id="s" class="price-tag">x</span></body></html>`
	page := mustPage(t, html, "https://shop.test/p")
	el := findOne(t, page, "#s")

	short := scorePriceCandidate(el, "$10.00", 0)
	wordy := scorePriceCandidate(el, "now only 10 USD today", 0)
	assert.Equal(t, short-2, wordy)
}

func TestCleanPriceText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  $ 19.99 ", "$ 19.99"},
		{"99.99USD", "99.99 USD"},
		{"ILS49.90", "ILS 49.90"},
		{"1,299.00\n EUR", "1,299.00 EUR"},
		{"$24.99", "$24.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanPriceText(tt.in))
	}
}

func TestPricePatternRanking(t *testing.T) {
	// The ranking is a data structure, not control flow: rank equals
	// index and the strongest patterns come first.
	require.Len(t, currencyPatterns, 6)
	for i, p := range currencyPatterns {
		assert.Equal(t, i, p.rank)
	}

	assert.Equal(t, "$99.99", currencyPatterns[0].find("was $99.99 yesterday"))
	assert.Equal(t, "99€", currencyPatterns[1].find("pay 99€ now"))
	assert.Equal(t, "15.50 USD", currencyPatterns[2].find("about 15.50 USD total"))
	assert.Equal(t, "USD 15.50", currencyPatterns[3].find("USD 15.50 total"))
	assert.Equal(t, "99.99", currencyPatterns[4].find("around 99.99 or so"))
	assert.Equal(t, "1299", currencyPatterns[5].find("item 1299 in stock"))
}

func TestDecimalPairPatternRejectsTrailingDigit(t *testing.T) {
	// 99.999 is a precision number, not a price; the decimal-pair
	// pattern must not carve "99.99" out of it.
	assert.Equal(t, "", currencyPatterns[4].find("tolerance 99.999"))
	assert.Equal(t, "99.99", currencyPatterns[4].find("price 99.99!"))
}
