package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

const (
	SocialWebsite  = "website"
	SocialTwitter  = "twitter"
	SocialTelegram = "telegram"
)

var socialHosts = map[string][]string{
	SocialTwitter:  {"twitter.com", "x.com"},
	SocialTelegram: {"t.me", "telegram.me"},
}

// SocialProber checks that links published for a token resolve to live pages.
type SocialProber struct {
	client *fetch.Client
	opts   fetch.Options
}

func NewSocialProber(client *fetch.Client, cfg *config.Config) *SocialProber {
	p := cfg.Providers.Socials
	return &SocialProber{
		client: client,
		opts: fetch.Options{
			Retries:     cfg.RetriesFor(p),
			Timeout:     cfg.Timeout(p),
			BackoffBase: cfg.BackoffBase(),
		},
	}
}

// SocialLinks picks the first website, twitter and telegram link from a pair.
func SocialLinks(pair *Pair) map[string]string {
	links := map[string]string{}
	if pair == nil {
		return links
	}
	if len(pair.Websites) > 0 {
		links[SocialWebsite] = pair.Websites[0]
	}
	for _, s := range pair.Socials {
		kind := s.Type
		if kind == "x" {
			kind = SocialTwitter
		}
		if kind != SocialTwitter && kind != SocialTelegram {
			kind = kindFromHost(s.URL)
		}
		if kind == "" {
			continue
		}
		if _, seen := links[kind]; !seen {
			links[kind] = s.URL
		}
	}
	return links
}

func kindFromHost(raw string) string {
	for kind := range socialHosts {
		if hostMatches(raw, kind) {
			return kind
		}
	}
	return ""
}

func hostMatches(raw, kind string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return false
	}
	for _, h := range socialHosts[kind] {
		if root == h {
			return true
		}
	}
	return false
}

// Probe fetches link and checks it looks like a live page of the given kind.
// An empty link means nothing was published, so the source is not attempted.
func (s *SocialProber) Probe(ctx context.Context, kind, link string) SocialRecord {
	rec := SocialRecord{Kind: kind, URL: link}
	if link == "" {
		rec.Status = skipped("no link published")
		return rec
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		rec.Status = failed(fmt.Sprintf("invalid link %q", link))
		return rec
	}
	if kind != SocialWebsite && !hostMatches(link, kind) {
		rec.Status = failed(fmt.Sprintf("%s link points to %s", kind, u.Hostname()))
		return rec
	}

	res := s.client.FetchResilient(ctx, link, fetch.RequestOptions{
		Method:  http.MethodGet,
		Headers: map[string]string{"Accept": "text/html"},
	}, s.opts)
	rec.Status = statusFrom(res)
	if !res.OK {
		return rec
	}

	doc, err := html.Parse(bytes.NewReader(res.Data))
	if err != nil {
		rec.Status = failed(fmt.Sprintf("parse page: %v", err))
		rec.MS = res.MS
		return rec
	}

	rec.Title = pageTitle(doc)
	if kind == SocialTelegram {
		title := findByClass(doc, "tgme_page_title")
		if title == "" {
			rec.Status = failed("telegram channel not found")
			rec.MS = res.MS
			return rec
		}
		rec.Title = title
	}
	return rec
}

func pageTitle(n *html.Node) string {
	var title string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return title
}

func findByClass(n *html.Node, class string) string {
	var found string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "class" && containsField(a.Val, class) {
					found = strings.TrimSpace(textContent(n))
					if found != "" {
						return
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return found
}

func containsField(list, want string) bool {
	for _, f := range strings.Fields(list) {
		if f == want {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
