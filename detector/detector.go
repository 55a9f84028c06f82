package detector

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"cart-tracker/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// clickWalkDepth bounds the classifier walk to five nodes: the clicked
// node plus four ancestors. Clicks frequently land on an icon or span
// inside the actual control.
const clickWalkDepth = 5

// Outcome is the result of handling one activation event
type Outcome int

const (
	// OutcomeAdded means a record was extracted and persisted
	OutcomeAdded Outcome = iota
	// OutcomeNotAction means the clicked element is not an add-to-cart control
	OutcomeNotAction
	// OutcomeIgnored means another detection was in flight or the same
	// signature fired again within the cooldown
	OutcomeIgnored
	// OutcomeInvalid means the title could not be resolved, so the
	// classifier most likely false-positived; dropped silently
	OutcomeInvalid
	// OutcomeDuplicate means the product was persisted within the last
	// five minutes; the caller should signal "recently added"
	OutcomeDuplicate
	// OutcomeCancelled means the confirmation prompt was declined
	OutcomeCancelled
	// OutcomeFailed means the storage collaborator rejected the record
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeNotAction:
		return "not-action"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Detector recognizes add-to-cart activations on arbitrary page
// structures and extracts product records from the surrounding markup.
// It is best-effort by design: unresolved fields degrade to sentinel
// values and a detection never fails hard.
type Detector struct {
	settings   types.Settings
	store      types.CartStore
	logger     types.Logger
	confirmer  types.Confirmer
	notifier   types.Notifier
	guard      *inflightGuard
	signatures *signatureCache
	dupWindow  time.Duration
	now        func() time.Time
}

// New creates a detector backed by the given cart store
func New(settings types.Settings, store types.CartStore, logger types.Logger) *Detector {
	return &Detector{
		settings:   settings,
		store:      store,
		logger:     logger,
		guard:      newInflightGuard(guardReleaseDelay),
		signatures: newSignatureCache(signatureTTL),
		dupWindow:  duplicateWindow,
		now:        time.Now,
	}
}

// SetConfirmer installs the optional confirmation-prompt collaborator.
// It is only consulted when the ShowConfirmation setting is on.
func (d *Detector) SetConfirmer(c types.Confirmer) {
	d.confirmer = c
}

// SetNotifier installs the optional notification sink
func (d *Detector) SetNotifier(n types.Notifier) {
	d.notifier = n
}

// HandleClick processes one click event. The clicked node and up to four
// of its ancestors are tested against the classifier; when one of them
// is an action element a detection runs: locate the container, extract
// the fields, filter duplicates, optionally confirm, sanitize and hand
// the record to the store. At most one detection is in flight at a time;
// concurrent triggers are coalesced into OutcomeIgnored.
func (d *Detector) HandleClick(ctx context.Context, page *Page, clicked *goquery.Selection) (Outcome, *types.Product) {
	action := clicked
	found := false
	for i := 0; i < clickWalkDepth; i++ {
		if IsActionElement(action) {
			found = true
			break
		}
		parent := action.Parent()
		if parent.Length() == 0 {
			break
		}
		action = parent
	}
	if !found {
		return OutcomeNotAction, nil
	}

	if !d.guard.tryAcquire() {
		d.logger.Debug("detection already in flight, ignoring trigger")
		return OutcomeIgnored, nil
	}
	defer d.guard.release()

	product := d.Extract(page, action)

	if d.signatures.Seen(detectionSignature(product)) {
		d.logger.Debugf("signature cooldown hit for %q", product.Title)
		return OutcomeIgnored, nil
	}

	if product.Title == "" || product.Title == types.UnknownTitle {
		// Most likely a false positive on a non-product control.
		d.logger.Debug("title unresolved, dropping detection")
		return OutcomeInvalid, nil
	}

	if d.checkDuplicate(ctx, product) {
		d.logger.Infof("duplicate within window: %q", product.Title)
		d.notify("This item was recently added!", types.NotifyInfo)
		return OutcomeDuplicate, nil
	}

	if d.settings.ShowConfirmation && d.confirmer != nil {
		confirmed, err := d.confirmer.Confirm(ctx, product)
		if err != nil {
			d.logger.Warnf("confirmation prompt failed: %v", err)
			confirmed = false
		}
		if !confirmed {
			d.logger.Infof("addition cancelled: %q", product.Title)
			return OutcomeCancelled, nil
		}
	}

	sanitized := sanitizeProduct(product)
	if err := d.store.AddToCart(ctx, sanitized); err != nil {
		d.logger.Errorf("failed to persist %q: %v", sanitized.Title, err)
		d.notify("Failed to add item to cart", types.NotifyError)
		return OutcomeFailed, nil
	}

	d.logger.Infof("added %q from %s", sanitized.Title, sanitized.Store)
	d.notify(successMessage(sanitized.Title), types.NotifySuccess)
	return OutcomeAdded, &sanitized
}

// Extract builds an unsanitized product record from the markup around an
// action element. Every field is always populated; unresolved fields
// carry their sentinel values.
func (d *Detector) Extract(page *Page, action *goquery.Selection) types.Product {
	now := d.now()
	container := locateContainer(action)

	return types.Product{
		ID:        generateProductID(page.Host, now),
		Title:     extractTitle(page, container),
		Price:     resolvePrice(page, container),
		Image:     extractImage(page, container),
		Quantity:  extractQuantity(container),
		URL:       page.URL,
		Store:     page.Host,
		Timestamp: now,
	}
}

// ScanPage returns every action element on the page, for callers that
// drive detection without live click events
func (d *Detector) ScanPage(page *Page) []*goquery.Selection {
	var actions []*goquery.Selection
	page.Doc.Find(`button, a, input[type="submit"], input[type="button"], [role="button"]`).
		Each(func(_ int, sel *goquery.Selection) {
			if IsActionElement(sel) {
				actions = append(actions, sel)
			}
		})
	return actions
}

// checkDuplicate consults the persisted record set. A store read failure
// is logged and treated as "no duplicates": losing one dedupe check is
// better than losing the detection.
func (d *Detector) checkDuplicate(ctx context.Context, product types.Product) bool {
	cart, err := d.store.GetCart(ctx)
	if err != nil {
		d.logger.Warnf("duplicate check unavailable: %v", err)
		return false
	}
	return isRecentDuplicate(cart, product, d.now(), d.dupWindow)
}

func (d *Detector) notify(message string, kind types.NotificationKind) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify(message, kind)
}

func successMessage(title string) string {
	short := truncateRunes(title, 30)
	if short != title {
		short += "..."
	}
	return fmt.Sprintf("Added %q to cart!", short)
}

// detectionSignature keys the short-TTL cooldown set
func detectionSignature(product types.Product) string {
	return product.Store + "|" + strings.ToLower(collapseWhitespace(product.Title))
}

// generateProductID derives a short opaque identifier from the store and
// the detection instant. Collision-tolerant, not cryptographic.
func generateProductID(host string, t time.Time) string {
	base := fmt.Sprintf("%s-%d", host, t.UnixMilli())
	encoded := base64.StdEncoding.EncodeToString([]byte(base))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	return encoded
}

// sanitizeProduct enforces the field caps before a record leaves the
// engine
func sanitizeProduct(p types.Product) types.Product {
	p.Title = truncateRunes(p.Title, 200)
	p.Price = truncateRunes(p.Price, 50)
	p.Image = truncateRunes(p.Image, 500)
	p.URL = truncateRunes(p.URL, 500)
	p.Store = truncateRunes(p.Store, 100)
	if p.Quantity < 1 {
		p.Quantity = 1
	}
	if p.Quantity > 999 {
		p.Quantity = 999
	}
	return p
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
