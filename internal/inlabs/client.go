/*
Package inlabs implements the authenticated client for the INLABS portal,
the DOU distribution site: login, daily catalog listing and artifact download.
*/
package inlabs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

const (
	loginPath = "/logar.php"
	indexPath = "/index.php"

	// The portal renders a "sair" (logout) link when a session is live and
	// falls back to its login form otherwise. Neither marker is a stable
	// contract; both live here so they can be adjusted in one place.
	logoutMarker    = "sair"
	loginFormMarker = `name="password"`

	defaultListTimeout     = 30 * time.Second
	defaultDownloadTimeout = 60 * time.Second
	defaultAttempts        = 3
	defaultBackoffFactor   = 2.0

	userAgent = "dou-antt-clipping/1.0"
)

// Credentials identify the INLABS account used for login.
type Credentials struct {
	Email    string
	Password string
}

// Client is an authenticated INLABS session. It is not safe for concurrent
// use; the pipeline is strictly sequential.
type Client struct {
	baseURL string
	creds   Credentials

	httpClient *http.Client

	listTimeout     time.Duration
	downloadTimeout time.Duration
	attempts        int
	backoffFactor   float64

	// sleep is swapped out in tests so backoff waits don't run in real time.
	sleep func(time.Duration)
}

// NewClient builds a client for the portal at baseURL. The session cookie
// jar is created here; Login must be called before listing or downloading.
func NewClient(baseURL string, creds Credentials) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		creds:           creds,
		httpClient:      &http.Client{Jar: jar},
		listTimeout:     defaultListTimeout,
		downloadTimeout: defaultDownloadTimeout,
		attempts:        defaultAttempts,
		backoffFactor:   defaultBackoffFactor,
		sleep:           time.Sleep,
	}
}

// Login establishes an authenticated session. The portal answers the login
// POST with a page containing the logout link when credentials are accepted.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"email":    {c.creds.Email},
		"password": {c.creds.Password},
	}

	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport("login", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport("login", err)
	}

	if resp.StatusCode != http.StatusOK || !strings.Contains(strings.ToLower(string(body)), logoutMarker) {
		return fmt.Errorf("%w: portal did not confirm login for %s", ErrAuthentication, c.creds.Email)
	}

	return nil
}

// EnsureSession probes the portal with a lightweight request and re-logs-in
// if the session cookie has gone stale.
func (c *Client) EnsureSession(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.listTimeout)
	_, err := c.fetchPage(probeCtx, c.baseURL+indexPath)
	cancel()
	if errors.Is(err, ErrSessionExpired) {
		log.Printf("inlabs: session expired on probe, logging in again")
		return c.Login(ctx)
	}
	return err
}

// ListArtifacts fetches the catalog page for a date and extracts the
// downloadable bundles belonging to the given section (e.g. DO1, including
// the DO1E extra edition). The portal's markup is not a stable contract, so
// a page with no recognizable filenames yields an empty list, not an error.
func (c *Client) ListArtifacts(ctx context.Context, day time.Time, section string) ([]types.Artifact, error) {
	pageURL := c.dayPageURL(day)
	pattern := sectionPattern(section)

	var artifacts []types.Artifact
	err := c.withSession(ctx, func() error {
		return c.withRetry(ctx, c.listTimeout, func(opCtx context.Context) error {
			body, err := c.fetchPage(opCtx, pageURL)
			if err != nil {
				return err
			}
			artifacts = c.extractArtifacts(body, day, pattern)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts for %s/%s: %w", day.Format("2006-01-02"), section, err)
	}

	return artifacts, nil
}

// Download fetches the raw bytes of one artifact. An HTML response here is
// never the artifact: it is either the login page (session expiry) or some
// portal error page.
func (c *Client) Download(ctx context.Context, artifact types.Artifact) ([]byte, error) {
	var data []byte
	err := c.withSession(ctx, func() error {
		return c.withRetry(ctx, c.downloadTimeout, func(opCtx context.Context) error {
			req, err := http.NewRequestWithContext(opCtx, http.MethodGet, artifact.URL, nil)
			if err != nil {
				return fmt.Errorf("build download request: %w", err)
			}
			req.Header.Set("User-Agent", userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return classifyTransport("download", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%w: status %d for %s", ErrUnexpectedContent, resp.StatusCode, artifact.Name)
			}

			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return classifyTransport("download", err)
			}

			if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
				if containsLoginForm(string(payload)) {
					return fmt.Errorf("%w: login page served for %s", ErrSessionExpired, artifact.Name)
				}
				return fmt.Errorf("%w: portal served HTML instead of %s", ErrUnexpectedContent, artifact.Name)
			}

			data = payload
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) dayPageURL(day time.Time) string {
	return fmt.Sprintf("%s%s?p=%s", c.baseURL, indexPath, day.Format("2006-01-02"))
}

func (c *Client) downloadURL(day time.Time, filename string) string {
	return fmt.Sprintf("%s%s?p=%s&dl=%s", c.baseURL, indexPath, day.Format("2006-01-02"), url.QueryEscape(filename))
}

// fetchPage GETs a portal page and rejects it when the login form is served
// instead of content.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport("fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 4xx is the portal's answer, not a glitch; retrying it only burns
		// backoff time. Server errors stay retryable.
		kind := ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = ErrUnexpectedContent
		}
		return "", fmt.Errorf("%w: status %d from %s", kind, resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport("fetch", err)
	}

	page := string(body)
	if containsLoginForm(page) {
		return "", fmt.Errorf("%w: login page served for %s", ErrSessionExpired, pageURL)
	}

	return page, nil
}

// extractArtifacts pulls section filenames out of the catalog page anchors,
// deduplicated by download URL.
func (c *Client) extractArtifacts(page string, day time.Time, pattern *regexp.Regexp) []types.Artifact {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		log.Printf("inlabs: cannot parse catalog page: %v", err)
		return nil
	}

	var artifacts []types.Artifact
	seen := map[string]struct{}{}

	add := func(candidate string) {
		name := pattern.FindString(candidate)
		if name == "" {
			return
		}
		u := c.downloadURL(day, name)
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		artifacts = append(artifacts, types.Artifact{
			Name: name,
			URL:  u,
			Kind: types.KindFromName(name),
		})
	}

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			add(href)
		}
		add(strings.TrimSpace(a.Text()))
	})

	return artifacts
}

// sectionPattern matches the portal's date-stamped bundle names for one
// section, e.g. 2025-06-10-DO1.zip and the extra edition 2025-06-10-DO1E.zip.
func sectionPattern(section string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`\d{4}-\d{2}-\d{2}-%sE?\.(?:zip|pdf|xml)`, regexp.QuoteMeta(section)))
}

// withRetry runs op up to c.attempts times. Only transient failures are
// retried; each retry doubles the per-attempt timeout and sleeps
// timeout × (factor−1) first.
func (c *Client) withRetry(ctx context.Context, base time.Duration, op func(context.Context) error) error {
	timeout := base
	var err error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			timeout = time.Duration(float64(timeout) * c.backoffFactor)
			wait := time.Duration(float64(timeout) * (c.backoffFactor - 1))
			log.Printf("inlabs: attempt %d/%d failed (%v), retrying in %s", attempt-1, c.attempts, err, wait)
			c.sleep(wait)
		}

		opCtx, cancel := context.WithTimeout(ctx, timeout)
		err = op(opCtx)
		cancel()

		if err == nil || !errors.Is(err, ErrTransient) {
			return err
		}
	}

	return err
}

// withSession retries op once behind a fresh login when the portal reports
// an expired session.
func (c *Client) withSession(ctx context.Context, op func() error) error {
	err := op()
	if !errors.Is(err, ErrSessionExpired) {
		return err
	}

	log.Printf("inlabs: session expired, re-authenticating")
	if loginErr := c.Login(ctx); loginErr != nil {
		return loginErr
	}

	return op()
}

func containsLoginForm(page string) bool {
	return strings.Contains(page, loginFormMarker)
}

// classifyTransport folds timeouts and connection failures into ErrTransient
// so the retry loop can tell them apart from content errors.
func classifyTransport(stage string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || isConnError(err) {
		return fmt.Errorf("%w: %s: %v", ErrTransient, stage, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

func isConnError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
