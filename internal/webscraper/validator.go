package webscraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// OutcomeKind classifies the result of probing a link.
type OutcomeKind int

const (
	Healthy OutcomeKind = iota
	BrokenStatus
	BrokenError
)

func (k OutcomeKind) String() string {
	switch k {
	case Healthy:
		return "healthy"
	case BrokenStatus:
		return "broken_status"
	case BrokenError:
		return "broken_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of validating one link.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int    // set for Healthy and BrokenStatus
	Message    string // set for BrokenError
}

// Prober performs a lightweight status request against a URL, following redirects.
type Prober interface {
	Head(ctx context.Context, url string) (int, error)
}

// LinkValidator decides whether a link is healthy.
type LinkValidator interface {
	Validate(ctx context.Context, url string) Outcome
}

// HTTPProber issues HEAD requests through a shared http.Client.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber builds a prober whose transport negotiates HTTP/2 where the server offers it.
func NewHTTPProber(timeout time.Duration, userAgent string) (*HTTPProber, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   timeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}

	return &HTTPProber{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
	}, nil
}

// Head returns the final status code of a HEAD request to url.
func (p *HTTPProber) Head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Close releases idle connections held by the transport.
func (p *HTTPProber) Close() {
	p.client.CloseIdleConnections()
}

// Validator probes a link once and classifies the response.
type Validator struct {
	prober  Prober
	timeout time.Duration
}

func NewValidator(prober Prober, timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Validator{prober: prober, timeout: timeout}
}

// Validate makes a single probe of url. Only a final status of exactly 200 is healthy.
func (v *Validator) Validate(ctx context.Context, url string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	status, err := v.prober.Head(ctx, url)
	if err != nil {
		return Outcome{Kind: BrokenError, Message: err.Error()}
	}
	if status != http.StatusOK {
		return Outcome{Kind: BrokenStatus, StatusCode: status}
	}
	return Outcome{Kind: Healthy, StatusCode: status}
}
