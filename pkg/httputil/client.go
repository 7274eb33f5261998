package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/observability"
)

// DefaultTimeout bounds a single download attempt. The immigration workbook
// is a few hundred kilobytes; the incident CSV can be much larger.
const DefaultTimeout = 60 * time.Second

// MaxBodySize caps how much of a response is read.
const MaxBodySize = 256 << 20

// Client downloads whole files over HTTP with retries.
type Client struct {
	HTTP     *http.Client
	Attempts int
	Delay    time.Duration
}

// NewClient returns a client with [DefaultTimeout] and three attempts.
func NewClient() *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: DefaultTimeout},
		Attempts: 3,
		Delay:    time.Second,
	}
}

// GetBytes fetches rawURL and returns the body. Network failures, 5xx and
// 429 responses are retried; 404 fails with FILE_NOT_FOUND and other
// statuses with NETWORK_ERROR.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := errs.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse URL")
	}

	var body []byte
	err = Retry(ctx, c.Attempts, c.Delay, func() error {
		body, err = c.get(ctx, u)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "build request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(errs.Wrap(errs.ErrCodeNetwork, err, "GET %s", u.Redacted()))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, u); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, Retryable(errs.Wrap(errs.ErrCodeNetwork, err, "read body of %s", u.Redacted()))
	}
	return data, nil
}

func checkStatus(code int, u *url.URL) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errs.New(errs.ErrCodeFileNotFound, "%s: not found", u.Redacted())
	case code == http.StatusTooManyRequests || code >= 500:
		return Retryable(errs.New(errs.ErrCodeNetwork, "%s: status %d", u.Redacted(), code))
	default:
		return errs.New(errs.ErrCodeNetwork, "%s: status %d %s", u.Redacted(), code, http.StatusText(code))
	}
}
