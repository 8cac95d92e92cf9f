package httpretry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"friends_sync_service/pkg/logger"
	"friends_sync_service/pkg/token"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries retry attempts after the first request
	DefaultMaxRetries = 3
	// DefaultInitialBackoff first retry delay, doubled on each further retry
	DefaultInitialBackoff = 500 * time.Millisecond
)

// errServerStatus marks a >=500 response inside the retry loop
var errServerStatus = errors.New("server error status")

// StatusError returned by the JSON helpers when the backend answers non-2xx
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Config retry client setting
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
	Transport      http.RoundTripper
}

// Client wraps outbound REST calls with bounded retry and doubling backoff.
// Transport failures and >=500 responses are retried; any other status is
// handed back untouched, interpreting non-2xx is the caller's job.
type Client struct {
	http  *http.Client
	conf  Config
	creds token.Provider
}

// New create a retry client; creds may be nil for unauthenticated calls
func New(conf Config, creds token.Provider) *Client {
	if conf.InitialBackoff <= 0 {
		conf.InitialBackoff = DefaultInitialBackoff
	}
	if conf.MaxRetries < 0 {
		conf.MaxRetries = 0
	}
	tr := conf.Transport
	if tr == nil {
		tr = &http.Transport{
			DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			MaxIdleConns:    16,
			IdleConnTimeout: 90 * time.Second,
		}
	}
	return &Client{
		http:  &http.Client{Transport: tr, Timeout: conf.Timeout},
		conf:  conf,
		creds: creds,
	}
}

// Do issue the request, retrying transport failures and >=500 responses up to
// MaxRetries times. After exhaustion the last failing response is returned
// (not an error) when one was received, otherwise the last transport error.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		body = b
	}

	var lastResp *http.Response
	operation := func() (*http.Response, error) {
		attempt := req.Clone(ctx)
		if body != nil {
			attempt.Body = io.NopCloser(bytes.NewReader(body))
		}
		if c.creds != nil && attempt.Header.Get("Authorization") == "" {
			t, err := c.creds.Token(ctx)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			if t != "" {
				attempt.Header.Set("Authorization", "Bearer "+t)
			}
		}

		resp, err := c.http.Do(attempt)
		if err != nil {
			logger.Log.Warn("request transport failure, will retry",
				zap.String("url", req.URL.String()), zap.Error(err))
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			// keep the freshest failing response, the caller gets it on exhaustion
			if lastResp != nil {
				drain(lastResp)
			}
			lastResp = resp
			logger.Log.Warn("server error status, will retry",
				zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
			return nil, errServerStatus
		}
		return resp, nil
	}

	// the source backs off without jitter; the retry bound tests rely on
	// the deterministic 1x/2x/4x delay sequence
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.conf.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0

	resp, err := backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.conf.MaxRetries)), ctx))
	if err != nil {
		if errors.Is(err, errServerStatus) && lastResp != nil {
			return lastResp, nil
		}
		if lastResp != nil {
			drain(lastResp)
		}
		return nil, err
	}
	if lastResp != nil && lastResp != resp {
		drain(lastResp)
	}
	return resp, nil
}

// GetJSON issue a GET and decode a 2xx body into out
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, req, out)
}

// SendJSON issue a request with a JSON body and decode a 2xx response into out;
// out may be nil when the body does not matter
func (c *Client) SendJSON(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doJSON(ctx, req, out)
}

func (c *Client) doJSON(ctx context.Context, req *http.Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
