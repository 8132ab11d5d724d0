package request

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Const here define individual functionality sub types for rate limiting
const (
	Unset EndpointLimit = iota
	Auth
	UnAuth
)

// EndpointLimit defines individual endpoint rate limit classes that are set
// when New is called.
type EndpointLimit int

// Limiter interface groups rate limit functionality defined in the REST
// wrapper for extended rate limiting configuration.
type Limiter interface {
	Limit(context.Context, EndpointLimit) error
}

// BasicLimit denotes a rate limit with separate reservations for
// authenticated and unauthenticated endpoint classes.
type BasicLimit struct {
	auth   *rate.Limiter
	unauth *rate.Limiter
}

// Limit blocks until the reservation for the endpoint class is met or the
// context is done.
func (b *BasicLimit) Limit(ctx context.Context, ep EndpointLimit) error {
	l := b.unauth
	if ep == Auth {
		l = b.auth
	}
	return l.Wait(ctx)
}

// NewRateLimit creates a new rate.Limiter based on a time interval and how
// many actions are allowed within it, broken down to an actions-per-second
// basis. Burst is kept at one for outbound requests.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		// Unrestricted
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewBasicRateLimit returns a Limiter with the same reservation applied to
// both endpoint classes.
func NewBasicRateLimit(interval time.Duration, actions int) *BasicLimit {
	return &BasicLimit{
		auth:   NewRateLimit(interval, actions),
		unauth: NewRateLimit(interval, actions),
	}
}

// NewSplitRateLimit returns a Limiter with independent authenticated and
// unauthenticated reservations.
func NewSplitRateLimit(authInterval time.Duration, authActions int, unauthInterval time.Duration, unauthActions int) *BasicLimit {
	return &BasicLimit{
		auth:   NewRateLimit(authInterval, authActions),
		unauth: NewRateLimit(unauthInterval, unauthActions),
	}
}
