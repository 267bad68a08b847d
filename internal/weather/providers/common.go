package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-lookup/internal/apperror"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker settings.
type HTTPClientConfig struct {
	Client *http.Client
	// BreakerTimeout is how long an open breaker waits before probing again.
	BreakerTimeout time.Duration
	// BreakerFailures is the number of consecutive failures that trips the breaker.
	BreakerFailures uint32
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// statusError is returned through the breaker for non-2xx responses.
type statusError struct {
	status int
	text   string
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.status)
}

func newBreaker(name string, cfg HTTPClientConfig) *gobreaker.CircuitBreaker {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// 4xx answers are the caller's problem, not an unhealthy upstream.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.status < 500 && se.status != http.StatusTooManyRequests
			}
			return err == nil
		},
	})
}

// fetchJSON executes one GET through the circuit breaker and decodes a 2xx body into out.
// failKind classifies non-2xx answers and undecodable bodies; transport failures are
// reported as network errors. There is no retry.
func fetchJSON(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	url string,
	failKind apperror.Kind,
	out any,
) error {
	if cfg.Client == nil {
		return apperror.Wrap(apperror.KindUnknown, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperror.Wrap(failKind, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{status: resp.StatusCode, text: http.StatusText(resp.StatusCode), body: data}
		}
		return data, nil
	})
	if err != nil {
		return mapFetchError(err, failKind)
	}

	data, ok := body.([]byte)
	if !ok {
		return apperror.Wrap(failKind, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.Wrap(failKind, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// errorPayload covers the error bodies of both upstreams. OpenWeatherMap sends cod
// (a number or a numeric string) with message; Open-Meteo sends error with reason.
type errorPayload struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
}

func (p errorPayload) text() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Reason
}

func mapFetchError(err error, failKind apperror.Kind) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperror.Wrap(apperror.KindNetwork, fmt.Errorf("%w: %v", errCircuitOpen, err))
	}

	var se *statusError
	if !errors.As(err, &se) {
		return apperror.Wrap(apperror.KindNetwork, err)
	}

	ae := apperror.Wrap(failKind, se).WithCode(se.status).WithMessage(se.text)
	var p errorPayload
	if len(se.body) > 0 && json.Unmarshal(se.body, &p) == nil && p.text() != "" {
		ae = ae.WithMessage(p.text())
	}
	return ae
}
