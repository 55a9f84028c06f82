package detector

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultObserverInterval is the polling cadence for cart-count watching
const DefaultObserverInterval = 500 * time.Millisecond

// ObserverHandle stops a running cart-count observation
type ObserverHandle struct {
	stop chan struct{}
	once sync.Once
}

// Stop ends the observation. Safe to call more than once.
func (h *ObserverHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// ObserveCartCount watches the page's cart-count display elements and
// invokes onChange with the parsed count whenever one of them changes to
// a parseable integer. The provider returns the current document
// snapshot; how the snapshot is refreshed is up to the caller. Returns
// nil when no cart-count element exists on the initial snapshot: nothing
// to observe is a no-op, not a failure.
func ObserveCartCount(provider func() *goquery.Document, interval time.Duration, onChange func(count int)) *ObserverHandle {
	doc := provider()
	if doc == nil {
		return nil
	}
	last := cartCountTexts(doc)
	if len(last) == 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultObserverInterval
	}

	handle := &ObserverHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-handle.stop:
				return
			case <-ticker.C:
				doc := provider()
				if doc == nil {
					continue
				}
				current := cartCountTexts(doc)
				// Positions only line up when the element set is stable; a
				// snapshot of a different length is a structural change, not
				// a count change, and fires nothing.
				if len(current) == len(last) {
					for i, text := range current {
						if text == last[i] {
							continue
						}
						if count, err := strconv.Atoi(text); err == nil {
							onChange(count)
						}
					}
				}
				last = current
			}
		}
	}()
	return handle
}

// cartCountTexts snapshots the text of every matched cart-count element,
// in document order
func cartCountTexts(doc *goquery.Document) []string {
	var texts []string
	for _, m := range defaultCatalog.cartCount {
		doc.FindMatcher(m).Each(func(_ int, sel *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(sel.Text()))
		})
	}
	return texts
}
