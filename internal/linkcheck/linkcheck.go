// Package linkcheck scans generated HTML for internal links that do not
// resolve to any generated output. It runs after a generation as an advisory
// pass; broken links are reported, never fatal.
package linkcheck

import (
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Link is one reference extracted from generated HTML.
type Link struct {
	URL        string // raw attribute value
	Tag        string // a, img, script, link, source
	Attribute  string // href or src
	IsInternal bool
}

// Broken is one internal link with no matching output file.
type Broken struct {
	SourceURL string // output file the link appeared in
	Link      Link
}

// ExtractLinks parses HTML and collects link-bearing attributes.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node) (Link, bool) {
	var attr string
	switch n.Data {
	case "a", "link":
		attr = "href"
	case "img", "script", "video", "audio", "source":
		attr = "src"
	default:
		return Link{}, false
	}

	val := getAttr(n, attr)
	if val == "" {
		return Link{}, false
	}
	return Link{
		URL:        val,
		Tag:        n.Data,
		Attribute:  attr,
		IsInternal: isInternal(val),
	}, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isInternal reports whether a reference targets the generated site itself.
func isInternal(link string) bool {
	if strings.HasPrefix(link, "#") ||
		strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") ||
		strings.HasPrefix(link, "data:") ||
		strings.HasPrefix(link, "javascript:") {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Check resolves every internal link in outputs against the set of generated
// files. Keys of outputs are output-relative URLs; values are the HTML bytes.
func Check(outputs map[string]string) ([]Broken, error) {
	known := make(map[string]struct{}, len(outputs))
	for u := range outputs {
		known[path.Clean("/"+u)] = struct{}{}
	}

	var broken []Broken
	for sourceURL, content := range outputs {
		links, err := ExtractLinks(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if !l.IsInternal {
				continue
			}
			if !resolves(sourceURL, l.URL, known) {
				broken = append(broken, Broken{SourceURL: sourceURL, Link: l})
			}
		}
	}
	return broken, nil
}

// resolves checks a link target against the generated file set, trying the
// path itself and its index.html form.
func resolves(sourceURL, link string, known map[string]struct{}) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		// Query- or fragment-only reference back to the same file.
		return true
	}

	if !strings.HasPrefix(target, "/") {
		target = path.Join("/", path.Dir("/"+sourceURL), target)
	}
	target = path.Clean(target)

	if _, ok := known[target]; ok {
		return true
	}
	if _, ok := known[path.Join(target, "index.html")]; ok {
		return true
	}
	return false
}
