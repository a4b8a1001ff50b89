package extract

import (
	"bytes"
	"html"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hyperjump/jidai/pkg/utils"
)

// Article is the readable content of an HTML page.
type Article struct {
	Title   string
	Summary string
	Text    string
}

var strictPolicy = bluemonday.StrictPolicy()

// ParseArticle extracts the title, description and main body text of an HTML page.
// Body text comes from readability; pages it cannot handle fall back to their
// paragraph text. A page with no usable text yields an empty Text.
func ParseArticle(body []byte, pageURL *url.URL) Article {
	var a Article
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		a.Title = firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
			strings.TrimSpace(doc.Find("h1").First().Text()),
		)
		a.Summary = firstNonEmpty(
			metaContent(doc, `meta[property="og:description"]`),
			metaContent(doc, `meta[name="description"]`),
		)
		if strings.TrimSpace(doc.Find("body").Text()) != "" {
			a.Text = readableText(body, pageURL)
			if a.Text == "" {
				a.Text = paragraphText(doc)
			}
		}
	} else {
		a.Text = plainText(string(body))
	}
	a.Title = plainText(a.Title)
	a.Summary = plainText(a.Summary)
	return a
}

// plainText strips markup that survived attribute decoding and collapses whitespace.
func plainText(s string) string {
	return utils.CollapseSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func readableText(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("article p, main p, p").Each(func(_ int, s *goquery.Selection) {
		if t := utils.CollapseSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(dedupe(parts), "\n")
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
