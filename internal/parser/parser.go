// Package parser extracts titles and outbound links from fetched HTML.
package parser

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result is the best-effort outcome of parsing one page. Partial is set when
// the document or base URL could not be parsed; the remaining fields then
// hold whatever could be recovered.
type Result struct {
	Title   string
	Links   []string
	Partial bool
}

// Extract parses body and returns the page title plus the ordered,
// per-page-deduplicated list of absolute http(s) links, with relative hrefs
// resolved against baseURL. It never fails outright: broken input yields a
// partial Result instead of an error.
func Extract(body []byte, baseURL string) Result {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Result{Partial: true}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{Partial: true}
	}

	res := Result{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		res.Links = append(res.Links, link)
	})
	return res
}
