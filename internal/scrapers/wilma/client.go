// client.go contains the transport shared by every wilma operation, it holds
// no session state so that one Client can serve many users.

package wilma

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"wilma-backend/internal/components/assert"
	"wilma-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_authenticate     = "client.authenticate"
	report_client_resolve_identity = "client.resolve-identity"
	report_client_get_schedule     = "client.get-schedule"
	report_client_get_messages     = "client.get-messages"
	report_client_fetch            = "client.fetch"
)

const (
	defaultTimeout   = time.Second * 30
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	maxRedirects     = 10
)

type ClientOptions struct {
	// Timeout bounds every http request, it defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond limits the rate of requests across all sessions,
	// zero means unlimited.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport with cloudflare-bp-go.
	CloudflareBypass bool
	UserAgent        string
	// Output receives full request/response dumps, it may be nil.
	Output telemetry.InstrumentOutput
}

type Client struct {
	// follows redirects on the same host
	follow *resty.Client
	// returns 3xx responses as is
	manual *resty.Client

	tel telemetry.API
}

func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Host != via[0].URL.Host {
		return http.ErrUseLastResponse
	}
	return nil
}

func noRedirectPolicy(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func NewClient(tel telemetry.API, opts ClientOptions) (*Client, error) {
	assert.NotNil(tel)

	if opts.Timeout < 0 {
		return nil, fmt.Errorf("wilma: negative timeout %v", opts.Timeout)
	}
	if opts.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("wilma: negative request rate %v", opts.RequestsPerSecond)
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	tel = telemetry.NewScopedAPI("wilma_scraper", tel)

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		burst := max(int(opts.RequestsPerSecond), 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	newHttp := func(policy resty.RedirectPolicyFunc) *resty.Client {
		httpClient := resty.New()
		// cookies always come from the session passed to each call
		httpClient.SetCookieJar(nil)
		if opts.CloudflareBypass {
			httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
		}
		httpClient.SetHeader("user-agent", opts.UserAgent)
		httpClient.SetRedirectPolicy(policy)
		httpClient.SetTimeout(opts.Timeout)

		if limiter != nil {
			httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
				return limiter.Wait(req.Context())
			})
		}

		telemetry.InstrumentResty(httpClient, tel, opts.Output)
		return httpClient
	}

	return &Client{
		follow: newHttp(sameHostRedirectPolicy),
		manual: newHttp(noRedirectPolicy),
		tel:    tel,
	}, nil
}

// page is a fetched portal page, doc is parsed from body.
type page struct {
	body []byte
	doc  *goquery.Document
}

// the login form is served in place of any page once the session cookie
// is no longer accepted
func isLoginPage(finalUrl *url.URL, doc *goquery.Document) bool {
	if finalUrl != nil {
		query := finalUrl.Query()
		if query.Has("loginrequired") || query.Has("loginfailed") {
			return true
		}
	}
	return doc.Find(`form[action$="/login"] input[name="Password"]`).Length() > 0
}

// fetch performs an authenticated GET of a portal page following same
// host redirects, it fails with ErrNotAuthenticated when the portal answers
// with its login form.
func (c *Client) fetch(ctx context.Context, s *Session, path string) (page, error) {
	if !s.Authenticated() {
		return page{}, ErrNotAuthenticated
	}

	res, err := c.follow.R().
		SetContext(ctx).
		SetCookies(s.Cookies()).
		Get(s.url(path))
	if err != nil {
		// transport failures are reported by the resty instrumentation
		if ctxErr := ctx.Err(); ctxErr != nil {
			return page{}, errors.Join(ErrFetchFailed, ctxErr)
		}
		return page{}, fmt.Errorf("%w: GET %s: %w", ErrFetchFailed, path, err)
	}

	switch code := res.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return page{}, fmt.Errorf("GET %s: status %d: %w", path, code, ErrNotAuthenticated)
	case code >= 400:
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("GET %s: status %d", path, code))
		return page{}, fmt.Errorf("%w: GET %s: status %d", ErrFetchFailed, path, code)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("parse %s: %w", path, err))
		return page{}, fmt.Errorf("%w: parse %s: %w", ErrFetchFailed, path, err)
	}

	var finalUrl *url.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL
	}
	if isLoginPage(finalUrl, doc) {
		c.tel.ReportWarning(report_client_fetch, "session expired", "path", path)
		return page{}, fmt.Errorf("GET %s: login page served: %w", path, ErrNotAuthenticated)
	}
	return page{body: res.Body(), doc: doc}, nil
}
