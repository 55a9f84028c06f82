package detector

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// actionSelectors matches add-to-cart controls structurally. Ordering is
// only short-circuit efficiency, not priority: any single match wins.
// Substring attribute matchers carry the CSS `i` flag; storefront markup
// capitalizes class and value attributes freely.
var actionSelectors = []string{
	// Class-based selectors
	`button[class*="add-to-cart" i]`,
	`button[class*="add-cart" i]`,
	`button[class*="addtocart" i]`,
	`button[class*="add-to-bag" i]`,
	`button[class*="addtobag" i]`,
	`button[class*="add-to-basket" i]`,
	`button[class*="buy-now" i]`,
	`button[class*="buynow" i]`,
	`button[class*="purchase" i]`,
	`button[class*="add-item" i]`,

	// ID-based selectors
	`button[id*="add-to-cart" i]`,
	`button[id*="addtocart" i]`,
	`button[id*="add-cart" i]`,
	`button[id*="buy-now" i]`,

	// Data attribute selectors
	`button[data-action*="cart" i]`,
	`button[data-action*="add" i]`,
	`button[data-testid*="add-to-cart" i]`,
	`button[data-testid*="add-cart" i]`,
	`[data-add-to-cart]`,
	`[data-cart-add]`,

	// Input and link elements
	`input[type="submit"][value*="add to cart" i]`,
	`input[type="button"][value*="add to cart" i]`,
	`a[class*="add-to-cart" i]`,
	`a[class*="add-cart" i]`,

	// Role-based
	`[role="button"][class*="cart" i]`,
	`[role="button"][class*="add" i]`,

	// Amazon specific
	`#add-to-cart-button`,
	`[name="submit.add-to-cart"]`,

	// Shopify specific
	`[name="add"]`,
	`button[type="submit"][name="add"]`,
	`.product-form__submit`,

	// WooCommerce specific
	`.single_add_to_cart_button`,
	`.add_to_cart_button`,

	// Magento specific
	`#product-addtocart-button`,
	`.tocart`,
}

// cartCountSelectors matches page elements that display the cart size
var cartCountSelectors = []string{
	`[class*="cart-count" i]`,
	`[class*="cart-quantity" i]`,
	`[id*="cart-count" i]`,
	`[data-cart-count]`,
	`.minicart-quantity`,
	`.cart-badge`,
}

// cartKeywords are substring-matched against a control's combined text,
// aria-label and title, all case-folded first
var cartKeywords = []string{
	// English
	"add to cart",
	"add to bag",
	"add to basket",
	"add item",
	"buy now",
	"purchase",
	"add now",
	"quick buy",

	// Hebrew
	"הוסף לסל",
	"הוספה לסל",
	"קנה עכשיו",
	"הוסף לעגלה",
	"רכישה",
	"הוסף",

	// Spanish
	"añadir al carrito",
	"añadir al carro",
	"agregar al carrito",
	"comprar ahora",

	// French
	"ajouter au panier",
	"acheter maintenant",
	"ajouter",

	// German
	"in den warenkorb",
	"zum warenkorb",
	"jetzt kaufen",

	// Italian
	"aggiungi al carrello",
	"compra ora",

	// Portuguese
	"adicionar ao carrinho",
	"adicionar à sacola",
	"comprar agora",

	// Russian
	"добавить в корзину",
	"купить сейчас",
	"в корзину",

	// Arabic
	"أضف إلى السلة",
	"اشتر الآن",
	"إضافة للسلة",

	// Chinese
	"加入购物车",
	"添加到购物车",
	"立即购买",
	"加入",

	// Japanese
	"カートに入れる",
	"カートに追加",
	"今すぐ購入",

	// Korean
	"장바구니에 추가",
	"장바구니",
	"구매하기",

	// Dutch
	"toevoegen aan winkelwagen",
	"in winkelwagen",

	// Polish
	"dodaj do koszyka",
	"do koszyka",

	// Turkish
	"sepete ekle",
	"hemen al",
}

// containerKeywords mark an ancestor as the likely product container when
// found in its class or id
var containerKeywords = []string{"product", "item", "card", "listing", "detail"}

var titleSelectors = []string{
	`[itemprop="name"]`,
	`[class*="product-title" i]`,
	`[class*="product-name" i]`,
	`[class*="product_title" i]`,
	`[id*="product-title" i]`,
	`[data-testid*="product-title" i]`,
	`[data-testid*="product-name" i]`,
	`h1[class*="product" i]`,
	`h1[class*="title" i]`,
	`h1`,
	`h2`,
	`.product-name`,
	`#product-name`,
	`.title`,
}

var imageSelectors = []string{
	`img[itemprop="image"]`,
	`img[class*="product" i]`,
	`img[class*="main" i]`,
	`img[alt*="product" i]`,
	`[class*="product-image" i] img`,
	`[class*="product_image" i] img`,
	`[data-testid*="product-image" i] img`,
	`.product-image img`,
	`#product-image img`,
	`img`,
}

// placeholderMarkers disqualify an image URL when present in its path
var placeholderMarkers = []string{"placeholder", "loading", "spinner"}

var quantitySelectors = []string{
	`input[name="quantity"]`,
	`input[id="quantity"]`,
	`input[class*="quantity" i]`,
	`input[data-quantity]`,
	`select[name="quantity"]`,
	`select[class*="quantity" i]`,
	`[class*="qty" i] input`,
	`input[type="number"]`,
}

// priceSelectors generate scored candidates, most reliable sources first
var priceSelectors = []string{
	// Data attributes (most reliable)
	`[data-price]`,
	`[data-product-price]`,
	`[data-price-amount]`,

	// Schema.org
	`[itemprop="price"]`,
	`[itemprop="priceCurrency"]`,

	// Specific price classes (current/sale)
	`[class*="current-price" i]`,
	`[class*="sale-price" i]`,
	`[class*="final-price" i]`,
	`[class*="special-price" i]`,
	`[class*="offer-price" i]`,

	// General price classes, excluding struck-through originals
	`[class*="price" i]:not([class*="old" i]):not([class*="was" i]):not([class*="original" i]):not([class*="regular" i])`,
	`span[class*="price" i]`,
	`div[class*="price" i]`,
	`p[class*="price" i]`,
	`strong[class*="price" i]`,

	// ID-based
	`#price`,
	`[id*="price" i]`,

	// Cost/Amount
	`[class*="cost" i]`,
	`[class*="amount" i]`,
	`[class*="value" i]`,

	// Platform-specific
	`.product-price`,
	`.price-box`,
	`.price-container`,
	`.price__amount`,
	`.product__price`,
	`.gl-price`,

	// Fallback price-related attributes
	`[aria-label*="price" i]`,
	`[title*="price" i]`,
}

// pricePattern is one ranked currency pattern. Rank equals list index;
// lower rank means a more specific pattern and a higher base score.
type pricePattern struct {
	rank int
	re   *regexp.Regexp
	// noTrailingDigit rejects matches directly followed by another digit,
	// standing in for the lookahead RE2 does not support
	noTrailingDigit bool
}

func (p pricePattern) find(text string) string {
	if !p.noTrailingDigit {
		return p.re.FindString(text)
	}
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if loc[1] >= len(text) || text[loc[1]] < '0' || text[loc[1]] > '9' {
			return text[loc[0]:loc[1]]
		}
	}
	return ""
}

func (p pricePattern) findAll(text string) []string {
	if !p.noTrailingDigit {
		return p.re.FindAllString(text, -1)
	}
	var out []string
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if loc[1] >= len(text) || text[loc[1]] < '0' || text[loc[1]] > '9' {
			out = append(out, text[loc[0]:loc[1]])
		}
	}
	return out
}

const isoCurrencyCodes = `USD|EUR|GBP|ILS|JPY|CNY|INR|RUB|BRL|CAD|AUD|CHF|NZD|ZAR`

// currencyPatterns, strongest first. The last two are weak by construction
// and the container/document fallback tiers skip them.
var currencyPatterns = []pricePattern{
	// Symbol before number: $99.99, €99,99, ₪99.99
	{rank: 0, re: regexp.MustCompile(`[$£€¥₪₹₽¢]\s*[\d,]+\.?\d*`)},
	// Number before symbol: 99.99$, 99€
	{rank: 1, re: regexp.MustCompile(`[\d,]+\.?\d*\s*[$£€¥₪₹₽]`)},
	// Currency code after number: 99.99 USD
	{rank: 2, re: regexp.MustCompile(`(?i)[\d,]+\.?\d*\s*(` + isoCurrencyCodes + `)`)},
	// Currency code before number: USD 99.99
	{rank: 3, re: regexp.MustCompile(`(?i)(` + isoCurrencyCodes + `)\s*[\d,]+\.?\d*`)},
	// Decimal pair: 99.99, 1.299,99
	{rank: 4, re: regexp.MustCompile(`[\d,]+[.,]\d{2}`), noTrailingDigit: true},
	// Bare 2-5 digit numbers that look like prices
	{rank: 5, re: regexp.MustCompile(`\b\d{2,5}\b`)},
}

// catalog holds the compiled pattern sets. Selectors the parser rejects
// are dropped at construction instead of failing the whole catalog.
type catalog struct {
	action    []goquery.Matcher
	cartCount []goquery.Matcher
	title     []goquery.Matcher
	image     []goquery.Matcher
	quantity  []goquery.Matcher
	price     []goquery.Matcher
	keywords  []string
	patterns  []pricePattern
}

func compileMatchers(selectors []string) []goquery.Matcher {
	matchers := make([]goquery.Matcher, 0, len(selectors))
	for _, s := range selectors {
		m, err := cascadia.Compile(s)
		if err != nil {
			continue
		}
		matchers = append(matchers, m)
	}
	return matchers
}

func newCatalog() *catalog {
	return &catalog{
		action:    compileMatchers(actionSelectors),
		cartCount: compileMatchers(cartCountSelectors),
		title:     compileMatchers(titleSelectors),
		image:     compileMatchers(imageSelectors),
		quantity:  compileMatchers(quantitySelectors),
		price:     compileMatchers(priceSelectors),
		keywords:  cartKeywords,
		patterns:  currencyPatterns,
	}
}

var defaultCatalog = newCatalog()
