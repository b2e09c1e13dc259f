package scraper

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/jgoulah/dormwatch/pkg/models"
)

// ErrUnexpectedPage means the billing page did not have the expected shape
var ErrUnexpectedPage = errors.New("unexpected billing page")

// unsupportedText is what the billing page shows for rooms without a meter feed
const unsupportedText = "暂不支持查询"

// powerSpanIDs are tried in order; older page versions use Label1
var powerSpanIDs = []string{"lblSYDL", "Label1"}

var powerPattern = regexp.MustCompile(`^\d+\.\d+$`)

// ParsePowerPage extracts the remaining power value from the billing page HTML
func ParsePowerPage(r io.Reader) (float64, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parsing HTML: %w", err)
	}

	for _, id := range powerSpanIDs {
		if span := findSpan(doc, id); span != nil {
			return ParsePowerText(nodeText(span))
		}
	}

	return 0, fmt.Errorf("%w: power label not found", ErrUnexpectedPage)
}

// ParsePowerText interprets the text of the power label
func ParsePowerText(text string) (float64, error) {
	text = strings.TrimSpace(text)

	switch {
	case powerPattern.MatchString(text):
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: parsing power %q: %v", ErrUnexpectedPage, text, err)
		}
		return value, nil
	case text == unsupportedText:
		return 0, models.ErrUnsupported
	default:
		return 0, fmt.Errorf("%w: power text %q", ErrUnexpectedPage, text)
	}
}

// findSpan returns the first <span> with the given id, depth first
func findSpan(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "span" {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSpan(c, id); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
