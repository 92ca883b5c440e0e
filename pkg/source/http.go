package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// maxBodyBytes bounds a workspace document.
const maxBodyBytes = 4 << 20

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	// BaseURL is prefixed to bare ids. References that are already absolute
	// URLs are fetched as given.
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// BreakerFailures is how many consecutive failures open the breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultHTTPConfig returns the default HTTP source settings.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:         15 * time.Second,
		UserAgent:       "deskspin/1.0 (+https://github.com/otherjamesbrown/deskspin)",
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
}

// HTTPSource fetches JSON workspace documents over HTTP. Calls go through a
// circuit breaker; while it is open, Fetch fails fast with an error wrapping
// errors.ErrUnavailable.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*Workspace]
	logger logging.Logger
}

// NewHTTPSource creates an HTTPSource. A nil client gets one with cfg.Timeout.
func NewHTTPSource(cfg HTTPConfig, client *http.Client, logger logging.Logger) *HTTPSource {
	def := DefaultHTTPConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.F("component", "http_source"))

	s := &HTTPSource{cfg: cfg, client: client, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker[*Workspace](gobreaker.Settings{
		Name:        "workspace-source",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return !tripsBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				logging.F("breaker", name),
				logging.F("from", from.String()),
				logging.F("to", to.String()))
		},
	})
	return s
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, ref string) (*Workspace, error) {
	target, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	ws, err := s.cb.Execute(func() (*Workspace, error) {
		return s.get(ctx, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("fetch %s: %v: %w", ref, err, dserrors.ErrUnavailable)
	}
	if err != nil {
		return nil, err
	}

	if ws.ID == "" {
		ws.ID = WorkspaceID(target)
	}
	if ws.URL == "" {
		ws.URL = target
	}
	return ws, nil
}

// StatusError is returned for a non-2xx response. It wraps
// errors.ErrFetchFailed.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error { return dserrors.ErrFetchFailed }

// tripsBreaker reports whether err counts against the upstream. Only
// transport failures and 5xx responses do; a 4xx or an undecodable page is a
// problem with that one workspace, and cancellation is the caller's doing.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct {
	url string
	err error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decoding %s: %v", e.url, e.err) }

func (e *decodeError) Unwrap() error { return e.err }

// State reports the breaker state, for logging.
func (s *HTTPSource) State() string {
	return s.cb.State().String()
}

func (s *HTTPSource) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if s.cfg.BaseURL == "" {
		return "", fmt.Errorf("fetch %q: not a URL and no base URL configured: %w", ref, dserrors.ErrValidation)
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + url.PathEscape(ref), nil
}

func (s *HTTPSource) get(ctx context.Context, target string) (*Workspace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}

	var ws Workspace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&ws); err != nil {
		return nil, &decodeError{url: target, err: err}
	}
	return &ws, nil
}
