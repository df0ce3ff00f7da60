package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/internal/scraper"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>Acme</title><style>body{color:red}</style></head>
<body>
  <nav>Home About Careers</nav>
  <main>
    <h1>Acme   Logistics</h1>
    <p>Same-day delivery<br>across the UAE.</p>
    <script>var tracking = "secret";</script>
    <aside>Sidebar ad</aside>
  </main>
  <footer>Copyright 2026</footer>
</body></html>`

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		Timeout:   2 * time.Second,
		Attempts:  2,
		RetryWait: time.Millisecond,
		UserAgent: "compass-test",
		MaxChars:  8000,

		AllowPrivate: true,
	}
}

func htmlServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

func TestScrape_ExtractsMainText(t *testing.T) {
	var ua atomic.Value
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		writeHTML(w, page)
	})

	got := scraper.New(testConfig()).Scrape(context.Background(), srv.URL)

	assert.True(t, got.OK)
	assert.Equal(t, "Acme Logistics Same-day delivery across the UAE.", got.Content)
	assert.Equal(t, models.PlatformOther, got.Platform)
	assert.Equal(t, "compass-test", ua.Load())
}

func TestScrape_FallsBackToBody(t *testing.T) {
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<html><body><nav>menu</nav><div>Hello</div><div>world</div></body></html>`)
	})

	got := scraper.New(testConfig()).Scrape(context.Background(), srv.URL)
	assert.True(t, got.OK)
	assert.Equal(t, "Hello world", got.Content)
}

func TestScrape_Truncates(t *testing.T) {
	long := strings.Repeat("دبي ", 50)
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, "<html><body><main>"+long+"</main></body></html>")
	})

	cfg := testConfig()
	cfg.MaxChars = 10
	got := scraper.New(cfg).Scrape(context.Background(), srv.URL)
	assert.True(t, got.OK)
	assert.Equal(t, "دبي دبي دب", got.Content)
}

func TestScrape_RetriesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeHTML(w, page)
	})

	got := scraper.New(testConfig()).Scrape(context.Background(), srv.URL)
	assert.True(t, got.OK)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScrape_FailureReturnsPlaceholder(t *testing.T) {
	var calls atomic.Int32
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	})

	got := scraper.New(testConfig()).Scrape(context.Background(), srv.URL)
	assert.False(t, got.OK)
	assert.Equal(t, scraper.UnavailableContent, got.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScrape_Timeout(t *testing.T) {
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.Attempts = 1

	start := time.Now()
	got := scraper.New(cfg).Scrape(context.Background(), srv.URL)
	assert.False(t, got.OK)
	assert.Equal(t, scraper.UnavailableContent, got.Content)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_EmptyPage(t *testing.T) {
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<html><body><script>only()</script></body></html>`)
	})

	cfg := testConfig()
	cfg.Attempts = 1
	_, err := scraper.New(cfg).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, scraper.ErrNoContent)
}

func TestFetch_BlocksNonPublicTargets(t *testing.T) {
	cfg := testConfig()
	cfg.AllowPrivate = false
	s := scraper.New(cfg)

	targets := []string{
		"http://localhost:8080/",
		"http://app.localhost/",
		"http://127.0.0.1/",
		"http://10.0.0.5/admin",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]:9000/",
		"http://[::ffff:127.0.0.1]/",
		"http://0.0.0.0/",
		"file:///etc/passwd",
	}
	for _, target := range targets {
		_, err := s.Fetch(context.Background(), target)
		assert.ErrorIs(t, err, scraper.ErrBlockedHost, target)
	}
}

func TestScrape_BlocksLoopbackServer(t *testing.T) {
	var hits atomic.Int32
	srv := htmlServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeHTML(w, page)
	})

	cfg := testConfig()
	cfg.AllowPrivate = false
	got := scraper.New(cfg).Scrape(context.Background(), srv.URL)

	assert.False(t, got.OK)
	assert.Equal(t, scraper.UnavailableContent, got.Content)
	assert.Zero(t, hits.Load())
}

func TestCheckTarget_AllowsPublicHosts(t *testing.T) {
	for _, target := range []string{"https://example.com/about", "http://93.184.216.34/", "https://[2606:4700::1111]/"} {
		assert.NoError(t, scraper.CheckTarget(target), target)
	}
}

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Acme Logistics Same-day", scraper.Extract(doc.Selection, 23))
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.linkedin.com/company/acme", models.PlatformLinkedIn},
		{"https://twitter.com/acme", models.PlatformTwitter},
		{"https://x.com/acme", models.PlatformTwitter},
		{"facebook.com/acme", models.PlatformFacebook},
		{"https://instagram.com/acme", models.PlatformInstagram},
		{"https://www.youtube.com/@acme", models.PlatformYouTube},
		{"https://box.com/acme", models.PlatformOther},
		{"https://acme.ae", models.PlatformOther},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, scraper.DetectPlatform(tt.url))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://acme.ae", scraper.NormalizeURL("  acme.ae "))
	assert.Equal(t, "http://acme.ae", scraper.NormalizeURL("http://acme.ae"))
	assert.Equal(t, "", scraper.NormalizeURL(""))
}
