// Package httputil provides abstractions around the common needs of HTTP. It
// also allows swapping in and out the HTTP client.
package httputil

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Rapptz/discord.py-sub002/internal/backoff"
	"github.com/Rapptz/discord.py-sub002/utils/httputil/httpdriver"
	"github.com/Rapptz/discord.py-sub002/utils/json"
)

// StatusTooManyRequests is the HTTP status code Discord sends on
// rate-limiting.
const StatusTooManyRequests = 429

// Retries is the default number of attempts for requests that fail with a
// server error (5xx) or a transport error before giving up. Rate-limited
// requests (429) never count against this budget. If the value is smaller
// than 1, such requests retry forever.
var Retries uint = 5

// Retry backoff bounds for 5xx and transport errors.
var (
	MinBackoff = 500 * time.Millisecond
	MaxBackoff = 10 * time.Second
)

type Client struct {
	httpdriver.Client
	SchemaEncoder

	// OnRequest, if not nil, will be copied and prefixed on each Request.
	OnRequest []RequestOption

	// OnResponse is called after every Do() call. Response might be nil if
	// Do() errors out. The error returned will override Do's if it's not nil.
	OnResponse []ResponseFunc

	// Default to the global Retries variable (5).
	Retries uint

	context context.Context
}

func NewClient() *Client {
	return &Client{
		Client:        httpdriver.NewClient(),
		SchemaEncoder: &DefaultSchema{},
		Retries:       Retries,
		context:       context.Background(),
	}
}

// Copy returns a shallow copy of the client.
func (c *Client) Copy() *Client {
	cl := new(Client)
	*cl = *c
	return cl
}

// WithContext returns a copy of the client with the given context.
func (c *Client) WithContext(ctx context.Context) *Client {
	c = c.Copy()
	c.context = ctx
	return c
}

// Context is a shared context for all future calls. It's Background by
// default.
func (c *Client) Context() context.Context {
	return c.context
}

func applyOptions(r httpdriver.Request, opts []RequestOption) error {
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return err
		}
	}
	return nil
}

// MeanwhileMultipart streams a multipart body from the given writer callback
// while the request is being sent.
func (c *Client) MeanwhileMultipart(
	writer func(*multipart.Writer) error,
	method, url string, opts ...RequestOption) (httpdriver.Response, error) {

	// We want to cancel the request if our bodyWriter fails.
	ctx, cancel := context.WithCancel(c.context)
	defer cancel()

	r, w := io.Pipe()
	body := multipart.NewWriter(w)

	var bgErr error

	go func() {
		if err := writer(body); err != nil {
			bgErr = err
			cancel()
		}

		// Close the writer so the body gets flushed to the HTTP reader.
		w.Close()
	}()

	// Prepend the multipart writer and the correct Content-Type header
	// options.
	opts = PrependOptions(
		opts,
		WithBody(r),
		WithContentType(body.FormDataContentType()),
	)

	// Request with the current client and our own context:
	resp, err := c.WithContext(ctx).Request(method, url, opts...)
	if err != nil && bgErr != nil {
		return nil, bgErr
	}
	return resp, err
}

// FastRequest performs a request and discards the body.
func (c *Client) FastRequest(method, url string, opts ...RequestOption) error {
	r, err := c.Request(method, url, opts...)
	if err != nil {
		return err
	}

	return r.GetBody().Close()
}

// RequestJSON performs a request and decodes the JSON response into to. A
// 204 leaves to untouched.
func (c *Client) RequestJSON(to interface{}, method, url string, opts ...RequestOption) error {
	opts = PrependOptions(opts, JSONRequest)

	r, err := c.Request(method, url, opts...)
	if err != nil {
		return err
	}

	var body, status = r.GetBody(), r.GetStatus()
	defer body.Close()

	// No content, working as intended (tm)
	if status == httpdriver.NoContent || to == nil {
		return nil
	}

	if err := json.DecodeStream(body, to); err != nil {
		return JSONError{err}
	}

	return nil
}

// Request performs an HTTP request. Rate-limited responses (429) are waited
// out and retried for as long as the server asks; they never consume the
// retry budget. Server errors (5xx) and transport errors are retried with an
// exponential backoff up to Retries attempts. A 401 fails immediately with
// *AuthError. Any other non-2xx status returns *HTTPError.
func (c *Client) Request(method, url string, opts ...RequestOption) (httpdriver.Response, error) {
	var doErr error

	var r httpdriver.Response
	var status int

	wait := backoff.NewBackoff(MinBackoff, MaxBackoff)

	for attempt := uint(0); c.Retries < 1 || attempt < c.Retries; {
		q, err := c.Client.NewRequest(c.context, method, url)
		if err != nil {
			return nil, RequestError{err}
		}

		// The OnRequest hooks run first; if one of them fails, nothing was
		// acquired yet.
		if err := applyOptions(q, c.OnRequest); err != nil {
			return nil, errors.Wrap(err, "failed to apply request hooks")
		}

		if err := applyOptions(q, opts); err != nil {
			// The hooks may hold the route's rate-limit bucket by now; run
			// OnResponse so it gets released.
			for _, fn := range c.OnResponse {
				fn(q, nil)
			}
			return nil, errors.Wrap(err, "failed to apply options")
		}

		r, doErr = c.Client.Do(q)

		// Call OnResponse() even if the request failed.
		for _, fn := range c.OnResponse {
			if err := fn(q, r); err != nil {
				return nil, err
			}
		}

		if doErr != nil {
			attempt++
			if err := c.sleep(wait.Next()); err != nil {
				return nil, RequestError{err}
			}
			continue
		}

		status = r.GetStatus()

		if status == StatusTooManyRequests {
			// Free attempt. Honor the server's retry_after; an attached
			// rate limiter will additionally gate the next try on its own
			// bookkeeping.
			if err := c.sleep(retryAfter(r)); err != nil {
				return nil, RequestError{err}
			}
			continue
		}

		if status >= 500 {
			attempt++
			if err := c.sleep(wait.Next()); err != nil {
				return nil, RequestError{err}
			}
			continue
		}

		break
	}

	// If all retries failed:
	if doErr != nil {
		return nil, RequestError{doErr}
	}

	// Response received, but with a failure status code:
	if status < 200 || status > 299 {
		// Try and parse the body.
		var body = r.GetBody()
		defer body.Close()

		buf := bytes.Buffer{}
		buf.ReadFrom(body)

		httpErr := HTTPError{
			Status: status,
			Body:   buf.Bytes(),
		}

		// Optionally unmarshal the error.
		json.Unmarshal(httpErr.Body, &httpErr)

		if status == 401 {
			return nil, &AuthError{httpErr}
		}

		return nil, &httpErr
	}

	return r, nil
}

// sleep blocks for the given duration or until the client context is done.
func (c *Client) sleep(d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-c.context.Done():
		return c.context.Err()
	}
}

// retryAfter extracts the rate limit delay from a 429 response, preferring
// the Retry-After header and falling back to the JSON body's retry_after
// field (fractional seconds).
func retryAfter(r httpdriver.Response) time.Duration {
	if h := r.GetHeader().Get("Retry-After"); h != "" {
		if secs, err := strconv.ParseFloat(h, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}

	body := r.GetBody()
	defer body.Close()

	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.DecodeStream(body, &payload); err == nil {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}

	return 0
}
