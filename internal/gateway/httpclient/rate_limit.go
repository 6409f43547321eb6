package httpclient

import (
	"math"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport ждет разрешения лимитера перед каждым запросом
type RateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport оборачивает base. perSecond <= 0 снимает ограничение.
func NewRateLimitedTransport(base http.RoundTripper, perSecond float64) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(math.Max(1, math.Ceil(perSecond)))
	}
	return &RateLimitedTransport{
		base:    base,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// RoundTrip реализует http.RoundTripper
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
