package detector

import (
	"sync"
	"time"

	"cart-tracker/internal/types"
)

const (
	// signatureTTL suppresses re-detection of the same product signature
	// from rapid repeated triggers
	signatureTTL = 3 * time.Second
	// duplicateWindow is the semantic window: a record sharing a URL or
	// title with one persisted inside it is a duplicate
	duplicateWindow = 5 * time.Minute
	// guardReleaseDelay keeps the in-flight guard held after a detection
	// completes, absorbing duplicate event sources
	guardReleaseDelay = 1 * time.Second
)

// signatureCache is a short-TTL set of detection signatures. Entries
// self-expire; expiry is checked lazily on access.
type signatureCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newSignatureCache(ttl time.Duration) *signatureCache {
	return &signatureCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Seen reports whether the signature was recorded within the TTL, and
// records it when it was not
func (c *signatureCache) Seen(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for sig, recorded := range c.entries {
		if now.Sub(recorded) >= c.ttl {
			delete(c.entries, sig)
		}
	}

	if _, ok := c.entries[signature]; ok {
		return true
	}
	c.entries[signature] = now
	return false
}

// inflightGuard is the single-slot lock around a detection. Concurrent
// triggers are coalesced into "ignored", never queued, and the slot is
// released on a timer after the detection completes regardless of its
// outcome.
type inflightGuard struct {
	mu           sync.Mutex
	busy         bool
	releaseAfter time.Duration
}

func newInflightGuard(releaseAfter time.Duration) *inflightGuard {
	return &inflightGuard{releaseAfter: releaseAfter}
}

func (g *inflightGuard) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

func (g *inflightGuard) release() {
	if g.releaseAfter <= 0 {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
		return
	}
	time.AfterFunc(g.releaseAfter, func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	})
}

// isRecentDuplicate reports whether the candidate shares a URL or title
// with any persisted record added within the duplicate window. A record
// with no usable instant counts as old, never as recent.
func isRecentDuplicate(cart []types.Product, candidate types.Product, now time.Time, window time.Duration) bool {
	for _, item := range cart {
		added := item.AddedAt
		if added.IsZero() {
			added = item.Timestamp
		}
		if added.IsZero() || now.Sub(added) >= window {
			continue
		}
		if item.URL == candidate.URL || item.Title == candidate.Title {
			return true
		}
	}
	return false
}
