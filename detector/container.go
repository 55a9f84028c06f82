package detector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// containerWalkDepth bounds the upward walk from the clicked element
const containerWalkDepth = 10

// locateContainer walks upward from the clicked element looking for the
// ancestor most likely to represent the product. It stops at the first
// ancestor whose class or id contains a container keyword; when the depth
// bound runs out the highest ancestor reached is used. The locator never
// fails, it only loses precision.
func locateContainer(clicked *goquery.Selection) *goquery.Selection {
	container := clicked
	for i := 0; i < containerWalkDepth; i++ {
		parent := container.Parent()
		if parent.Length() == 0 {
			break
		}
		container = parent
		if isProductContainer(container) {
			break
		}
	}
	return container
}

func isProductContainer(sel *goquery.Selection) bool {
	class := strings.ToLower(attrOr(sel, "class", ""))
	id := strings.ToLower(attrOr(sel, "id", ""))

	for _, keyword := range containerKeywords {
		if strings.Contains(class, keyword) || strings.Contains(id, keyword) {
			return true
		}
	}
	return false
}
