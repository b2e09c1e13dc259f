package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// BrowserReader reads remaining power through a headless Chrome session.
// Use it when the billing page only fills the power label from script.
type BrowserReader struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	visible   bool
}

// NewBrowserReader creates a chromedp-backed reader
func NewBrowserReader(baseURL, userAgent string, timeout time.Duration) *BrowserReader {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &BrowserReader{
		baseURL:   baseURL,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// SetVisible sets whether to show the browser window
func (b *BrowserReader) SetVisible(visible bool) {
	b.visible = visible
}

// Read returns the room's remaining power
func (b *BrowserReader) Read(ctx context.Context, room models.Room) (float64, error) {
	page, err := b.FetchPage(ctx, room)
	if err != nil {
		return 0, err
	}

	value, err := ParsePowerPage(strings.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("room %s: %w", room.ID, err)
	}
	return value, nil
}

// FetchPage returns the rendered billing page HTML for a room
func (b *BrowserReader) FetchPage(ctx context.Context, room models.Room) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !b.visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
		chromedp.UserAgent(b.userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	var page string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(PageURL(b.baseURL, room)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("loading billing page in browser: %w", err)
	}

	return page, nil
}
