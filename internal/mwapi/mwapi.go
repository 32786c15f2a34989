// Package mwapi is a small MediaWiki action API client: page revision
// lookups, page content downloads and the recent changes feed.
//
// Requests are throttled to a minimum interval and retried with exponential
// backoff on transport errors, 429 and 5xx responses.
package mwapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMaxRetries is the number of retries after a failed request.
const DefaultMaxRetries = 3

// APIError is an error document returned by the wiki.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mwapi: %s: %s", e.Code, e.Info)
}

// Client talks to one wiki's api.php endpoint.
type Client struct {
	endpoint   string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	newBackOff func() backoff.BackOff
	userAgent  string
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithInterval sets the minimum delay between requests. Zero disables
// throttling.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = uint64(max(n, 0)) }
}

// WithBackOff sets the retry delay policy.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = fn }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the api.php URL endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(5*time.Second), 1),
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		userAgent:  "dexcheck/0.1 (wiki consistency checker)",
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the api.php URL.
func (c *Client) Endpoint() string { return c.endpoint }

// errRetryable marks a response worth retrying.
var errRetryable = errors.New("mwapi: retryable response")

// Query performs a GET request with params and returns the decoded JSON
// document. format=json and formatversion=2 are always sent.
func (c *Client) Query(ctx context.Context, params url.Values) (gjson.Result, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("format", "json")
	q.Set("formatversion", "2")
	u := c.endpoint + "?" + q.Encode()

	var body []byte
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		c.log.Debug("API request", zap.String("url", u))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %s", errRetryable, resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("mwapi: unexpected status %s", resp.Status))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("API request failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return gjson.Result{}, fmt.Errorf("mwapi: %s: %w", params.Get("action"), err)
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("mwapi: invalid JSON response")
	}
	doc := gjson.ParseBytes(body)
	if e := doc.Get("error"); e.Exists() {
		return gjson.Result{}, &APIError{Code: e.Get("code").String(), Info: e.Get("info").String()}
	}
	return doc, nil
}

// PageInfo is the current state of a page on the wiki.
type PageInfo struct {
	// Title is the title as requested.
	Title   string
	Missing bool
	// LastRevID is the id of the latest revision; zero for missing pages.
	LastRevID int64
}

// Page is a page's latest revision with its wikitext.
type Page struct {
	Title    string
	RevID    int64
	Contents string
}

// requested maps normalised titles in a query response back to the titles
// that were sent.
func requested(doc gjson.Result) map[string]string {
	m := map[string]string{}
	doc.Get("query.normalized").ForEach(func(_, n gjson.Result) bool {
		m[n.Get("to").String()] = n.Get("from").String()
		return true
	})
	return m
}

func titleParam(titles []string) string {
	return strings.Join(titles, "|")
}

// PageRevisions returns the latest revision id of each title. Invalid titles
// are reported as missing. Redirects are not followed.
func (c *Client) PageRevisions(ctx context.Context, titles []string) ([]PageInfo, error) {
	doc, err := c.Query(ctx, url.Values{
		"action": {"query"},
		"prop":   {"info"},
		"titles": {titleParam(titles)},
	})
	if err != nil {
		return nil, err
	}
	from := requested(doc)
	var out []PageInfo
	doc.Get("query.pages").ForEach(func(_, p gjson.Result) bool {
		title := p.Get("title").String()
		if orig, ok := from[title]; ok {
			title = orig
		}
		info := PageInfo{Title: title}
		if p.Get("missing").Bool() || p.Get("invalid").Bool() {
			info.Missing = true
		} else {
			info.LastRevID = p.Get("lastrevid").Int()
		}
		out = append(out, info)
		return true
	})
	return out, nil
}

// PageContents downloads the latest revision of each title. Missing pages are
// left out of the result.
func (c *Client) PageContents(ctx context.Context, titles []string) ([]Page, error) {
	doc, err := c.Query(ctx, url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"rvprop":  {"ids|content"},
		"rvslots": {"main"},
		"titles":  {titleParam(titles)},
	})
	if err != nil {
		return nil, err
	}
	from := requested(doc)
	var out []Page
	doc.Get("query.pages").ForEach(func(_, p gjson.Result) bool {
		rev := p.Get("revisions.0")
		if !rev.Exists() {
			return true
		}
		title := p.Get("title").String()
		if orig, ok := from[title]; ok {
			title = orig
		}
		out = append(out, Page{
			Title:    title,
			RevID:    rev.Get("revid").Int(),
			Contents: rev.Get("slots.main.content").String(),
		})
		return true
	})
	return out, nil
}

// Change is one entry of the recent changes feed. RevID is zero for log
// entries.
type Change struct {
	Title     string
	RevID     int64
	User      string
	Timestamp time.Time
}

// RecentChanges returns up to limit changes, newest first, starting at the
// continuation token cont ("" for the newest). The returned token is empty
// when the feed is exhausted.
func (c *Client) RecentChanges(ctx context.Context, cont string, limit int) ([]Change, string, error) {
	params := url.Values{
		"action":  {"query"},
		"list":    {"recentchanges"},
		"rcprop":  {"title|ids|user|timestamp"},
		"rclimit": {fmt.Sprint(limit)},
	}
	if cont != "" {
		params.Set("rccontinue", cont)
	}
	doc, err := c.Query(ctx, params)
	if err != nil {
		return nil, "", err
	}
	var out []Change
	doc.Get("query.recentchanges").ForEach(func(_, rc gjson.Result) bool {
		ts, _ := time.Parse(time.RFC3339, rc.Get("timestamp").String())
		out = append(out, Change{
			Title:     rc.Get("title").String(),
			RevID:     rc.Get("revid").Int(),
			User:      rc.Get("user").String(),
			Timestamp: ts,
		})
		return true
	})
	return out, doc.Get("continue.rccontinue").String(), nil
}
