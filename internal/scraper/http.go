package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// maxPageSize caps how much of a response is read. The billing page is a few KiB.
const maxPageSize = 1 << 20

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPReader reads remaining power by fetching the billing page directly
type HTTPReader struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewHTTPReader creates a reader for the billing page at baseURL
func NewHTTPReader(baseURL, userAgent string, timeout time.Duration) *HTTPReader {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPReader{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Read returns the room's remaining power
func (r *HTTPReader) Read(ctx context.Context, room models.Room) (float64, error) {
	body, err := r.fetch(ctx, room)
	if err != nil {
		return 0, err
	}

	value, err := ParsePowerPage(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("room %s: %w", room.ID, err)
	}
	return value, nil
}

// FetchPage returns the raw billing page for a room
func (r *HTTPReader) FetchPage(ctx context.Context, room models.Room) (string, error) {
	body, err := r.fetch(ctx, room)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (r *HTTPReader) fetch(ctx context.Context, room models.Room) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", PageURL(r.baseURL, room), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// The page rejects requests that don't look like a browser
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", r.baseURL)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxPageSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrUnexpectedPage, maxPageSize)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("billing page returned status %d", resp.StatusCode)
	}

	return body, nil
}

// PageURL builds the billing page URL for a room
func PageURL(baseURL string, room models.Room) string {
	params := url.Values{}
	params.Set("xid", room.ID)
	params.Set("type", room.Type)
	params.Set("opid", "a")
	return fmt.Sprintf("%s?%s", baseURL, params.Encode())
}
