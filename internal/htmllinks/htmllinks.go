// Package htmllinks pulls anchor targets out of saved HTML pages so they can
// be imported as dataset records.
package htmllinks

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Options controls which links Extract keeps.
type Options struct {
	// Base resolves relative hrefs. Relative links are dropped when nil.
	Base *url.URL
	// OnionOnly keeps only links whose host ends in ".onion".
	OnionOnly bool
}

// Extract returns the absolute http(s) href of every <a> element in document
// order, each URL once.
func Extract(r io.Reader, opts Options) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []string
	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link, ok := resolve(attr(n, "href"), opts); ok {
				if _, dup := seen[link]; !dup {
					seen[link] = struct{}{}
					out = append(out, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func resolve(href string, opts Options) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if opts.Base == nil {
			return "", false
		}
		u = opts.Base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if opts.OnionOnly && !strings.HasSuffix(strings.ToLower(u.Hostname()), ".onion") {
		return "", false
	}
	u.Fragment, u.RawFragment = "", ""
	return u.String(), true
}
