// Package scraper fetches a web page and reduces it to its readable text.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// UnavailableContent stands in for the text of a page that could not be fetched.
const UnavailableContent = "Website took too long to load"

var (
	// ErrNoContent is returned when a page has no readable text.
	ErrNoContent = errors.New("page has no readable content")
	// ErrBlockedHost is returned for targets outside the public internet.
	ErrBlockedHost = errors.New("scrape target is not a public host")
)

// stripped are removed before text extraction.
const stripped = "script, style, noscript, nav, footer, aside"

// Scraper is safe for concurrent use; each fetch gets its own collector.
type Scraper struct {
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
	userAgent string
	maxChars  int

	allowPrivate bool
	transport    http.RoundTripper
}

func New(cfg config.ScraperConfig) *Scraper {
	s := &Scraper{
		timeout:      cfg.Timeout,
		attempts:     cfg.Attempts,
		retryWait:    cfg.RetryWait,
		userAgent:    cfg.UserAgent,
		maxChars:     cfg.MaxChars,
		allowPrivate: cfg.AllowPrivate,
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	if s.attempts <= 0 {
		s.attempts = 1
	}
	if s.maxChars <= 0 {
		s.maxChars = 8000
	}
	if !s.allowPrivate {
		s.transport = publicTransport(s.timeout)
	}
	return s
}

// Scrape fetches rawURL and returns its text. Failures are logged and produce
// a page with OK=false and UnavailableContent.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) models.ScrapedPage {
	target := NormalizeURL(rawURL)
	page := models.ScrapedPage{URL: target, Platform: DetectPlatform(target)}

	text, err := s.Fetch(ctx, target)
	if err != nil {
		slog.Warn("scrape failed", "url", target, "error", err)
		page.Content = UnavailableContent
		return page
	}
	page.Content = text
	page.OK = true
	return page
}

// Fetch retrieves target, retrying up to the configured number of attempts.
func (s *Scraper) Fetch(ctx context.Context, target string) (string, error) {
	if !s.allowPrivate {
		if err := CheckTarget(target); err != nil {
			return "", err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryWait):
			}
		}
		text, err := s.fetchOnce(ctx, target)
		if err == nil {
			return text, nil
		}
		lastErr = err
		slog.Debug("scrape attempt failed", "url", target, "attempt", attempt, "error", err)
	}
	return "", fmt.Errorf("fetching %s after %d attempts: %w", target, s.attempts, lastErr)
}

func (s *Scraper) fetchOnce(ctx context.Context, target string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}
	c.SetRequestTimeout(s.timeout)

	var text string
	c.OnHTML("html", func(e *colly.HTMLElement) {
		text = Extract(e.DOM, s.maxChars)
	})

	if err := c.Visit(target); err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// CheckTarget rejects URLs that are not http(s), name localhost, or carry a
// literal address that is not publicly routable. Hostnames that resolve to
// such addresses are refused at dial time.
func CheckTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrBlockedHost, u.Scheme)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrBlockedHost, u.Host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !publicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
	}
	return nil
}

func publicAddr(a netip.Addr) bool {
	a = a.Unmap()
	return a.IsGlobalUnicast() && !a.IsPrivate()
}

// publicTransport dials only publicly routable addresses, after DNS resolution.
func publicTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrBlockedHost, address)
			}
			if !publicAddr(ap.Addr()) {
				return fmt.Errorf("%w: %s", ErrBlockedHost, ap.Addr())
			}
			return nil
		},
	}
	return &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        10,
	}
}

// Extract returns the whitespace-collapsed text of doc's main element (or
// body), truncated to maxChars runes.
func Extract(doc *goquery.Selection, maxChars int) string {
	doc.Find(stripped).Remove()

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc
	}

	var parts []string
	collectText(root, &parts)
	return truncate(strings.Join(strings.Fields(strings.Join(parts, " ")), " "), maxChars)
}

// collectText appends every text node under sel, so adjacent elements stay
// separated by a space.
func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			*parts = append(*parts, child.Text())
			return
		}
		collectText(child, parts)
	})
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// NormalizeURL trims raw and adds https:// when it has no scheme.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

// DetectPlatform names the social network a URL belongs to.
func DetectPlatform(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(NormalizeURL(rawURL)); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	switch {
	case strings.Contains(host, "linkedin"):
		return models.PlatformLinkedIn
	case strings.Contains(host, "twitter"), host == "x.com", strings.HasSuffix(host, ".x.com"):
		return models.PlatformTwitter
	case strings.Contains(host, "facebook"):
		return models.PlatformFacebook
	case strings.Contains(host, "instagram"):
		return models.PlatformInstagram
	case strings.Contains(host, "youtube"):
		return models.PlatformYouTube
	default:
		return models.PlatformOther
	}
}
