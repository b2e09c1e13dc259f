// Package scraper reads remaining power for a room from the billing website.
package scraper

import (
	"context"
	"fmt"

	"github.com/jgoulah/dormwatch/internal/config"
	"github.com/jgoulah/dormwatch/pkg/models"
)

// Reader is a power reader that can also hand back the raw page
type Reader interface {
	Read(ctx context.Context, room models.Room) (float64, error)
	FetchPage(ctx context.Context, room models.Room) (string, error)
}

var (
	_ Reader = (*HTTPReader)(nil)
	_ Reader = (*BrowserReader)(nil)
)

// New returns the reader selected by reader.mode
func New(cfg *config.Config) (Reader, error) {
	switch mode := cfg.GetReaderMode(); mode {
	case "http":
		return NewHTTPReader(cfg.GetReaderBaseURL(), cfg.Reader.UserAgent, cfg.GetReaderTimeout()), nil
	case "browser":
		return NewBrowserReader(cfg.GetReaderBaseURL(), cfg.Reader.UserAgent, cfg.GetReaderTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown reader mode: %s (available: http, browser)", mode)
	}
}
