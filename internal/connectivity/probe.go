package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"chordbook/internal/chordbook"
)

// HTTPProber checks reachability with a GET of the server's health path.
// A check fails only after Attempts consecutive failed requests, so a single
// dropped request does not flip the monitor offline.
type HTTPProber struct {
	http     *resty.Client
	path     string
	attempts uint
	delay    time.Duration
}

// NewHTTPProber creates a prober for baseURL+healthPath. attempts below one
// are treated as one.
func NewHTTPProber(baseURL, healthPath string, timeout time.Duration, attempts uint, delay time.Duration) *HTTPProber {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0)
	return NewHTTPProberFromResty(rc, healthPath, attempts, delay)
}

func NewHTTPProberFromResty(rc *resty.Client, healthPath string, attempts uint, delay time.Duration) *HTTPProber {
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPProber{http: rc, path: healthPath, attempts: attempts, delay: delay}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	err := retry.Do(
		func() error {
			resp, err := p.http.R().SetContext(ctx).Get(p.path)
			if err != nil {
				return err
			}
			if !resp.IsSuccess() {
				return fmt.Errorf("health check answered %d", resp.StatusCode())
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", chordbook.ErrConnectivityUnknown, err)
	}
	return nil
}
