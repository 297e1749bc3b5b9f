package wsutil

import (
	"time"

	"golang.org/x/time/rate"
)

// NewSendLimiter allows 120 commands per minute, which is the gateway's
// documented send limit. A few slots are reserved for heartbeats.
func NewSendLimiter() *rate.Limiter {
	const perMinute = 115
	return rate.NewLimiter(rate.Every(time.Minute/perMinute), perMinute)
}

func NewDialLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(5*time.Second), 1)
}

func NewIdentityLimiter() *rate.Limiter {
	return NewDialLimiter() // same
}

// NewGlobalIdentityLimiter covers the daily IDENTIFY allowance shared by all
// shards of a token.
func NewGlobalIdentityLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(24*time.Hour), 1000)
}
