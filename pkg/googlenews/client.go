// Package googlenews searches the Google News RSS endpoint.
package googlenews

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://news.google.com/rss/search"

// Client searches Google News.
type Client interface {
	Search(ctx context.Context, query string) ([]Item, error)
}

// Item is a single news entry from the feed. URL is a news.google.com
// redirect; SourceURL is the publisher's site.
type Item struct {
	Title       string
	URL         string
	Source      string // publisher name
	SourceURL   string
	Description string
	Published   *time.Time
}

// Option configures the client.
type Option func(*rssClient)

// WithBaseURL overrides the RSS search endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *rssClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *rssClient) {
		c.http = hc
	}
}

// WithLocale sets the hl/gl/ceid parameters, e.g. ("en-US", "US", "US:en").
func WithLocale(hl, gl, ceid string) Option {
	return func(c *rssClient) {
		c.hl, c.gl, c.ceid = hl, gl, ceid
	}
}

type rssClient struct {
	baseURL      string
	hl, gl, ceid string
	http         *http.Client
}

// NewClient creates a Google News RSS client.
func NewClient(opts ...Option) Client {
	c := &rssClient{
		baseURL: defaultBaseURL,
		hl:      "en-US",
		gl:      "US",
		ceid:    "US:en",
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// sourceTranslator keeps the RSS <source url="..."> element, which the
// universal feed model drops, in Item.Custom.
type sourceTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *sourceTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	raw, ok := feed.(*rss.Feed)
	if !ok {
		return nil, eris.New("googlenews: feed is not RSS")
	}
	f, err := t.DefaultRSSTranslator.Translate(raw)
	if err != nil {
		return nil, err
	}
	for i, it := range raw.Items {
		if i >= len(f.Items) || it.Source == nil {
			continue
		}
		if f.Items[i].Custom == nil {
			f.Items[i].Custom = map[string]string{}
		}
		f.Items[i].Custom["source"] = strings.TrimSpace(it.Source.Title)
		f.Items[i].Custom["source_url"] = strings.TrimSpace(it.Source.URL)
	}
	return f, nil
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// stripHTML removes tags and entities from a feed description.
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func (c *rssClient) Search(ctx context.Context, query string) ([]Item, error) {
	u := fmt.Sprintf("%s?q=%s&hl=%s&gl=%s&ceid=%s",
		c.baseURL,
		url.QueryEscape(query),
		url.QueryEscape(c.hl),
		url.QueryEscape(c.gl),
		url.QueryEscape(c.ceid),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "googlenews: create request")
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "googlenews: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("googlenews: unexpected status %d", resp.StatusCode)
	}

	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTranslator{}
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "googlenews: parse feed")
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := Item{
			Title:       strings.TrimSpace(it.Title),
			URL:         strings.TrimSpace(it.Link),
			Description: stripHTML(it.Description),
			Published:   it.PublishedParsed,
			Source:      it.Custom["source"],
			SourceURL:   it.Custom["source_url"],
		}
		if i := strings.LastIndex(item.Title, " - "); i > 0 && item.Source == "" {
			item.Source = item.Title[i+3:]
		}
		items = append(items, item)
	}
	return items, nil
}
