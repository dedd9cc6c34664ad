package i18n

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var langClass = regexp.MustCompile(`(?i)\blang_([a-z]{2})\b`)

// DetectPage finds the language of a console page: body data-lang, a body
// lang_xx class, the html lang attribute, then <meta name="language">.
// It returns "" when the page does not say.
func DetectPage(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var bodyLang, classLang, htmlLang, metaLang string

	var visit func(n *html.Node)

	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				htmlLang = attr(n, "lang")
			case "body":
				bodyLang = attr(n, "data-lang")
				if m := langClass.FindStringSubmatch(attr(n, "class")); m != nil {
					classLang = m[1]
				}
			case "meta":
				if strings.EqualFold(attr(n, "name"), "language") {
					metaLang = attr(n, "content")
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	visit(doc)

	for _, candidate := range []string{bodyLang, classLang, htmlLang, metaLang} {
		if lang := Normalize(candidate); lang != "" && lang != DefaultLanguage {
			return lang
		}
	}

	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}
