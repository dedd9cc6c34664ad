package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/proton2025/widgetd/pkg/models"
)

const maxMenuBytes = 4 << 20

var serviceLink = regexp.MustCompile(`/admin/services/(.+)$`)

// MenuSlugs extracts service names from the console's menu links
// (/admin/services/<slug>). Links inside #mainmenu are used when that element
// exists, otherwise every link in the document.
func MenuSlugs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	root := findByID(doc, "mainmenu")
	if root == nil {
		root = doc
	}

	var (
		out  []string
		seen = make(map[string]struct{})
	)

	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}

		slug, ok := slugFromHref(attr(n, "href"))
		if !ok {
			return
		}

		if _, dup := seen[slug]; dup {
			return
		}

		seen[slug] = struct{}{}

		out = append(out, slug)
	})

	return out, nil
}

func slugFromHref(href string) (string, bool) {
	m := serviceLink.FindStringSubmatch(href)
	if m == nil {
		return "", false
	}

	raw := m[1]
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}

	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	slug, _, _ := strings.Cut(raw, "/")

	if slug == "" || slug == "services" || !models.IsValidServiceName(slug) {
		return "", false
	}

	return slug, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}

	return nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// FetchMenu downloads the console page at menuURL and extracts its service slugs.
func FetchMenu(ctx context.Context, client *http.Client, menuURL string) ([]string, error) {
	if menuURL == "" {
		return nil, errMenuURLRequired
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, menuURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errMenuStatus, resp.StatusCode)
	}

	return MenuSlugs(io.LimitReader(resp.Body, maxMenuBytes))
}
