package collector

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Listing is one machine item extracted from a shop's inventory page.
type Listing struct {
	Name     string
	Price    int64
	ImageURL string
}

var priceRe = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)\s*원`)

// ParseListings extracts inventory entries from a shop page. It looks for
// elements carrying an item-like class and pulls the name from the first
// heading or anchor, the price from the first "N원" text, and the image from
// the first img src.
func ParseListings(page []byte) ([]Listing, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var listings []Listing
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !isItemNode(n) {
			return true
		}

		l := Listing{
			Name:     strings.TrimSpace(firstText(n, "h1", "h2", "h3", "h4", "a", "strong")),
			Price:    parsePrice(textContent(n)),
			ImageURL: firstAttr(n, "img", "src"),
		}
		if l.Name != "" {
			listings = append(listings, l)
		}
		return false
	})

	return listings, nil
}

// parsePrice extracts the first Korean won amount from text, returning 0
// when none is present.
func parsePrice(text string) int64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// isItemNode reports whether the element looks like a single inventory
// entry. Matching on class tokens ending in "item" keeps list containers
// like "product-list" out.
func isItemNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(strings.ToLower(attr.Val)) {
			if token == "item" || token == "product" || strings.HasSuffix(token, "-item") {
				return true
			}
		}
	}
	return false
}

// walk runs fn over the tree depth-first. fn returning false prunes the
// subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func firstText(n *html.Node, tags ...string) string {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}

	var found string
	walk(n, func(c *html.Node) bool {
		if found != "" {
			return false
		}
		if c.Type == html.ElementNode {
			if _, ok := want[c.Data]; ok {
				found = strings.TrimSpace(textContent(c))
				return false
			}
		}
		return true
	})
	return found
}

func firstAttr(n *html.Node, tag, key string) string {
	var found string
	walk(n, func(c *html.Node) bool {
		if found != "" {
			return false
		}
		if c.Type == html.ElementNode && c.Data == tag {
			for _, attr := range c.Attr {
				if attr.Key == key {
					found = attr.Val
					return false
				}
			}
		}
		return true
	})
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
		return true
	})
	return sb.String()
}
