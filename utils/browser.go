package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"cart-tracker/internal/types"

	"github.com/chromedp/chromedp"
)

// BrowserClient fetches pages through a headless browser, for storefronts
// that render their product markup client-side
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// GetPageContent retrieves the rendered HTML of a page. A non-empty
// waitFor selector blocks the snapshot until that element is visible,
// for storefronts that render their price widgets late.
func (b *BrowserClient) GetPageContent(ctx context.Context, url, waitFor string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if waitFor != "" {
		actions = append(actions, chromedp.WaitVisible(waitFor))
	}
	actions = append(actions,
		chromedp.Sleep(500*time.Millisecond), // let late-loading price widgets settle
		chromedp.OuterHTML("html", &html),
	)

	err := chromedp.Run(browserCtx, actions...)
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", url, len(html))
	return html, nil
}
