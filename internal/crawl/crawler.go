// Package crawl fetches prospect pages and extracts contact details.
package crawl

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector-cli/internal/config"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 512 * 1024

// contactPaths are tried in order against the page's origin when the landing
// page yields no email. The first path with at least one address wins.
var contactPaths = []string{"/contact", "/contact-us", "/contact/", "/contact-us/"}

// Fetcher retrieves pages over HTTP with a shared rate limit and extracts
// title, description, and email addresses from each.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher builds a Fetcher from crawl settings, applying defaults for
// zero or negative values.
func NewFetcher(cfg config.CrawlConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.FetchRate
	if rps <= 0 {
		rps = 1
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; ProspectorBot/1.0)"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		userAgent: ua,
	}
}

// Fetch retrieves one URL and extracts contact details from it. It never
// returns an error: transport failures produce a result with status "error"
// and a truncated message, HTTP errors carry the numeric status. When the
// landing page has no email, contact-page fallbacks are tried; their
// failures are swallowed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.FetchResult {
	res := model.FetchResult{URL: rawURL}

	status, body, err := f.get(ctx, rawURL)
	if err != nil {
		res.Status = model.FetchStatusError
		res.Error = truncateMessage(err.Error())
		zap.L().Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return res
	}
	res.Status = strconv.Itoa(status)
	if status >= 400 {
		res.Error = "http status " + res.Status
		return res
	}

	page := stripScriptStyle(body)
	res.Title = extractTitle(page)
	res.Description = extractDescription(page)

	emails := extractEmails(visibleText(page))
	if len(emails) == 0 {
		emails = f.fallbackEmails(ctx, rawURL)
	}
	if len(emails) > 0 {
		res.PrimaryEmail = emails[0]
		res.AllEmails = strings.Join(emails, ",")
	}
	return res
}

// get performs one rate-limited GET and returns the status code and decoded
// body. Invalid UTF-8 bytes are replaced rather than rejected.
func (f *Fetcher) get(ctx context.Context, url string) (int, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, strings.ToValidUTF8(string(raw), "�"), nil
}

// fallbackEmails walks the contact paths on the page's origin and returns
// the first non-empty email set found.
func (f *Fetcher) fallbackEmails(ctx context.Context, pageURL string) []string {
	origin := urlnorm.Origin(pageURL)
	if origin == "" {
		return nil
	}
	for _, p := range contactPaths {
		status, body, err := f.get(ctx, origin+p)
		if err != nil || status >= 400 {
			continue
		}
		emails := extractEmails(visibleText(stripScriptStyle(body)))
		if len(emails) > 0 {
			zap.L().Debug("contact page fallback hit",
				zap.String("url", origin+p),
				zap.Int("emails", len(emails)),
			)
			return emails
		}
	}
	return nil
}

func truncateMessage(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
