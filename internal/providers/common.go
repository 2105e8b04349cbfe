package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
)

const maxBodyBytes = 8 << 20

var tracer = otel.Tracer("github.com/i474232898/dashboard-data-aggregation/internal/providers")

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Option customizes a provider.
type Option func(*settings)

type settings struct {
	baseURL    string
	maxRetries int
}

// WithBaseURL points the provider at a different host, e.g. a test server or a
// proxy.
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithMaxRetries enables automatic retries of network, 429 and 5xx failures.
// The default is zero: failures surface to the cache immediately.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func applyOptions(defaultBaseURL string, opts []Option) settings {
	s := settings{baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func newHTTPConfig(client *http.Client, maxRetries int) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// newCircuitBreaker trips on transport, rate-limit and server failures only; a
// 404 for an unknown city says nothing about upstream health.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          name,
		MaxRequests:   5,
		Interval:      1 * time.Minute,
		Timeout:       2 * time.Minute,
		IsSuccessful:  breakerSuccess,
		OnStateChange: logStateChange,
	})
}

func breakerSuccess(err error) bool {
	return err == nil || !retryable(err)
}

func logStateChange(name string, from, to gobreaker.State) {
	log.Printf("INFO: providers: circuit %s changed from %s to %s", name, from, to)
}

// doRequestWithResilience executes the HTTP request through the circuit breaker,
// retrying retryable failures with exponential backoff, and returns the body of
// the first 2xx response. Errors are *apierr.Error values tagged with source.
func doRequestWithResilience(
	ctx context.Context,
	source string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, apierr.Configuration(source, errNoHTTPClient.Error())
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, apierr.Configuration(source, errInvalidConfig.Error())
	}

	ctx, span := tracer.Start(ctx, source+".request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, fail(span, apierr.Network(source, ctx.Err()))
		}

		req, err := buildRequest()
		if err != nil {
			return nil, fail(span, apierr.Configuration(source, err.Error()))
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)
		span.SetAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("server.address", req.URL.Host),
			attribute.String("url.path", req.URL.Path),
			attribute.Int("http.request.resend_count", attempt),
		)

		result, err := cb.Execute(func() (interface{}, error) {
			return execute(cfg.Client, source, req)
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, fail(span, apierr.Upstream(source, 0, "unexpected result type from circuit breaker"))
			}
			span.SetStatus(codes.Ok, "")
			return body, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fail(span, apierr.UpstreamWrap(source, 0, fmt.Errorf("%w: %v", errCircuitOpen, err)))
		}

		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, fail(span, err)
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}
		log.Printf("DEBUG: providers: %s attempt %d failed, retrying in %s: %v", source, attempt+1, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fail(span, apierr.Network(source, ctx.Err()))
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

func execute(client *http.Client, source string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, apierr.Network(source, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apierr.Network(source, redact(err))
	}

	// Handle rate limiting and server errors explicitly.
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apierr.UpstreamWrap(source, resp.StatusCode, withDetail(errRateLimited, body))
	case resp.StatusCode >= 500:
		return nil, apierr.UpstreamWrap(source, resp.StatusCode, withDetail(errServerError, body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, apierr.UpstreamWrap(source, resp.StatusCode,
			withDetail(fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode), body))
	}
	return body, nil
}

// withDetail appends the upstream's own "message" field when the error body
// carries one (OpenWeatherMap and NewsAPI both do).
func withDetail(err error, body []byte) error {
	if !gjson.ValidBytes(body) {
		return err
	}
	if msg := gjson.GetBytes(body, "message").String(); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// retryable reports whether err is worth another attempt: transport failures,
// rate limiting and server errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch apierr.KindOf(err) {
	case apierr.KindNetwork:
		return true
	case apierr.KindUpstream:
		status := apierr.StatusOf(err)
		return status == http.StatusTooManyRequests || status >= 500
	default:
		return false
	}
}

// redact strips query strings from URLs embedded in transport errors so
// credentials passed as query parameters never reach logs or responses.
func redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
	}
	return &url.Error{Op: ue.Op, URL: "<redacted>", Err: ue.Err}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func requireKey(source, key string) error {
	if key == "" {
		return apierr.Configuration(source, source+" api key is not configured")
	}
	return nil
}
