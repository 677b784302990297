package openf1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ohler55/ojg/oj"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/version"
)

const (
	DefaultBaseURL = "https://api.openf1.org/v1"
	// upper bound for a single response body
	maxBodySize = 256 << 20
	// upper bound for the body snippet kept in errors
	maxErrorBody = 240
)

// Record is one flat JSON object returned by the API
type Record map[string]any

type (
	Option func(*Client)
	Client struct {
		baseURL    string
		httpClient *http.Client
		delay      time.Duration
		limiter    *rate.Limiter
		retries    int
		retryDelay time.Duration
		debug      bool
		cb         *gobreaker.CircuitBreaker[[]Record]
		log        *log.Logger
	}
)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithDelay sets the pause after each call
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithRate limits the number of requests per second. Values <= 0 disable the limit.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryDelay = delay
	}
}

func WithDebug(b bool) Option {
	return func(c *Client) {
		c.debug = b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		retries:    2,
		retryDelay: time.Second,
		log:        log.Default().Named("openf1"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = c.newBreaker()
	return c
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[[]Record] {
	return gobreaker.NewCircuitBreaker[[]Record](gobreaker.Settings{
		Name:        "openf1",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// only an unreachable or failing upstream trips the breaker
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !IsTransport(err) && !isRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				log.String("from", from.String()),
				log.String("to", to.String()))
		},
	})
}

// URL returns the request url for endpoint and params
func (c *Client) URL(endpoint string, params ...Param) string {
	u := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
	if q := EncodeParams(params...); q != "" {
		u += "?" + q
	}
	return u
}

// Fetch issues a GET request for endpoint and returns the records of the
// response. A 422 response and a JSON payload which is not a list yield an
// empty result. Throttling and server errors are retried.
func (c *Client) Fetch(ctx context.Context, endpoint string, params ...Param) (
	[]Record, error,
) {
	reqURL := c.URL(endpoint, params...)
	defer c.pause(ctx)

	var ret []Record
	err := retry.Do(
		func() error {
			records, err := c.cb.Execute(func() ([]Record, error) {
				return c.get(ctx, reqURL)
			})
			if errors.Is(err, gobreaker.ErrOpenState) ||
				errors.Is(err, gobreaker.ErrTooManyRequests) {
				return &FetchError{Kind: KindTransport, URL: reqURL, Err: err}
			}
			ret = records
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.retries+1)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("retrying request",
				log.String("url", reqURL),
				log.Uint32("attempt", uint32(n+1)),
				log.ErrorField(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	if c.debug {
		c.log.Debug("fetched", log.String("url", reqURL), log.Int("rows", len(ret)))
	}
	return ret, nil
}

//nolint:funlen // sequential steps
func (c *Client) get(ctx context.Context, reqURL string) ([]Record, error) {
	if c.debug {
		c.log.Debug("GET", log.String("url", reqURL))
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Kind: KindTransport, URL: reqURL, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, URL: reqURL, Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &FetchError{Kind: KindTransport, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		if c.debug {
			c.log.Debug("no matching data (422)", log.String("url", reqURL))
		}
		//nolint:errcheck // drain body for connection reuse
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       KindStatus,
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, URL: reqURL, Err: err}
	}
	return parseRecords(reqURL, body)
}

func parseRecords(reqURL string, body []byte) ([]Record, error) {
	v, err := oj.Parse(body)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, URL: reqURL, Err: err}
	}
	list, ok := v.([]any)
	if !ok {
		// error objects like {"detail": "..."} carry no records
		return nil, nil
	}
	ret := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			ret = append(ret, Record(m))
		}
	}
	return ret, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

func (c *Client) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
