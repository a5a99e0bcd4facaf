package fetcher

import (
	"errors"
	"io"
	"net/url"

	"golang.org/x/net/html"

	"github.com/andybalholm/cascadia"
)

var ErrUnexpectedNode = errors.New("unexpected html node")

// DefaultAdPageSelector matches the download link of OptiFine-style
// ad landing pages.
const DefaultAdPageSelector = "#Download > a"

var defaultAdPage = cascadia.MustCompile(DefaultAdPageSelector)

// Don’t read HTML pages larger than 1MiB.
const maxAdPage = 1024 * 1024

// adPageLink returns the absolute URL of the first link matched by sel
// in the page served from pageURL.
func adPageLink(sel cascadia.Selector, pageURL string, r io.Reader) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	root, err := html.Parse(io.LimitReader(r, maxAdPage))
	if err != nil {
		return "", err
	}
	n := sel.MatchFirst(root)
	if n == nil || n.Type != html.ElementNode {
		return "", ErrUnexpectedNode
	}
	if n.Namespace != "" || n.Data != "a" {
		return "", ErrUnexpectedNode
	}
	for _, attr := range n.Attr {
		if attr.Namespace != "" {
			continue
		}
		if attr.Key != "href" {
			continue
		}
		ref, err := url.Parse(attr.Val)
		if err != nil {
			return "", err
		}
		return base.ResolveReference(ref).String(), nil
	}
	return "", ErrUnexpectedNode
}
