// Package rate implements Discord's per-route rate limiting.
//
// Buckets start out keyed by route (method + normalized path). Once the
// server reveals its own bucket hash through the X-RateLimit-Bucket header,
// the route is re-keyed onto hash + major parameter, so routes that Discord
// groups together share a single bucket.
package rate

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-csync"

	"github.com/Rapptz/discord.py-sub002/discord"
)

// ExtraDelay is tacked onto every reset as a safety margin against clock
// skew between us and Discord.
const ExtraDelay = 250 * time.Millisecond

// ErrTimedOutEarly is the error returned by Limiter.Acquire if a rate limit
// exceeds the deadline of the context.Context or AcquireOptions.DontWait is
// set to true.
var ErrTimedOutEarly = errors.New(
	"rate: rate limit exceeds context deadline or is blocked by acquire options")

type Limiter struct {
	// Only 1 per bucket
	CustomLimits []*CustomRateLimit

	Prefix string

	// global is a pointer to prevent ARM-compatibility alignment.
	global *int64 // atomic guarded, unixnano

	mu      sync.Mutex
	buckets map[string]*bucket // route key or hash key
	hashes  map[string]string  // route key -> hash key
}

type CustomRateLimit struct {
	Contains string
	Reset    time.Duration
}

// TooManyRequests is the JSON body of a 429 response. It is the fallback
// source of truth when the rate limit headers are missing.
type TooManyRequests struct {
	Message    string          `json:"message"`
	RetryAfter discord.Seconds `json:"retry_after"`
	Global     bool            `json:"global"`
}

type contextKey uint8

const (
	acquireOptionsKey contextKey = iota
)

type AcquireOptions struct {
	// DontWait prevents rate.Limiters from waiting for a rate limit. Instead
	// they will return a rate.ErrTimedOutEarly.
	DontWait bool
}

// Context wraps the given ctx to have the AcquireOptions.
func (opts AcquireOptions) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, acquireOptionsKey, opts)
}

type bucket struct {
	lock   csync.Mutex
	custom *CustomRateLimit

	remaining uint64

	reset     time.Time
	lastReset time.Time // only for custom
}

func newBucket() *bucket {
	return &bucket{
		remaining: 1,
	}
}

func NewLimiter(prefix string) *Limiter {
	return &Limiter{
		Prefix:       prefix,
		global:       new(int64),
		buckets:      map[string]*bucket{},
		hashes:       map[string]string{},
		CustomLimits: []*CustomRateLimit{},
	}
}

// routeKey derives the client-side bucket key. The method is part of the key
// since Discord rate-limits, say, message deletion separately from creation
// on the same path.
func (l *Limiter) routeKey(method, path string) string {
	return method + " " + ParseBucketKey(strings.TrimPrefix(path, l.Prefix))
}

func (l *Limiter) getBucket(method, path string, store bool) *bucket {
	key := l.routeKey(method, path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if hashed, ok := l.hashes[key]; ok {
		key = hashed
	}

	bc, ok := l.buckets[key]
	if !ok && !store {
		return nil
	}

	if !ok {
		bc := newBucket()

		for _, limit := range l.CustomLimits {
			if strings.Contains(key, limit.Contains) {
				bc.custom = limit
				break
			}
		}

		l.buckets[key] = bc
		return bc
	}

	return bc
}

// Acquire acquires the rate limiter for the given URL bucket. It blocks
// until the bucket has a turn to give or ctx expires.
func (l *Limiter) Acquire(ctx context.Context, method, path string) error {
	var options AcquireOptions

	if untypedOptions := ctx.Value(acquireOptionsKey); untypedOptions != nil {
		// Zero value are default anyways, so we can ignore ok.
		options, _ = untypedOptions.(AcquireOptions)
	}

	b := l.getBucket(method, path, true)

	if err := b.lock.CLock(ctx); err != nil {
		return err
	}

	// Deadline until the limiter is released.
	until := time.Time{}
	now := time.Now()

	if b.remaining == 0 && b.reset.After(now) {
		// out of turns, gotta wait
		until = b.reset
	} else {
		// maybe global rate limit has it
		until = time.Unix(0, atomic.LoadInt64(l.global))
	}

	if until.After(now) {
		if options.DontWait {
			b.lock.Unlock()
			return ErrTimedOutEarly
		}
		if deadline, ok := ctx.Deadline(); ok && until.After(deadline) {
			b.lock.Unlock()
			return ErrTimedOutEarly
		}

		select {
		case <-ctx.Done():
			b.lock.Unlock()
			return ctx.Err()
		case <-time.After(until.Sub(now)):
		}
	}

	if b.remaining > 0 {
		b.remaining--
	}

	return nil
}

// Release releases the URL from the locks and updates the bucket from the
// response headers. It must be called exactly once after each successful
// Acquire. headers may be nil if the request never reached the server;
// body429 carries the decoded 429 body, if there was one.
func (l *Limiter) Release(method, path string, headers http.Header, body429 *TooManyRequests) error {
	b := l.getBucket(method, path, false)
	if b == nil {
		return nil
	}
	defer b.lock.Unlock()

	// Check custom limiter
	if b.custom != nil {
		now := time.Now()

		if now.Sub(b.lastReset) >= b.custom.Reset {
			b.lastReset = now
			b.reset = now.Add(b.custom.Reset)
		}

		return nil
	}

	if headers == nil && body429 == nil {
		return nil
	}
	if headers == nil {
		headers = http.Header{}
	}

	if hash := headers.Get("X-RateLimit-Bucket"); hash != "" {
		l.rekey(method, path, hash, b)
	}

	var (
		// boolean
		global = headers.Get("X-RateLimit-Global")

		remaining = headers.Get("X-RateLimit-Remaining")
		// Reset-After is preferred: it's relative, so it doesn't care what
		// our wall clock thinks.
		resetAfter = headers.Get("X-RateLimit-Reset-After")
		reset      = headers.Get("X-RateLimit-Reset") // unix float
		retryAfter = headers.Get("Retry-After")
	)

	switch {
	case retryAfter != "":
		secs, err := strconv.ParseFloat(retryAfter, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid Retry-After %q", retryAfter)
		}

		at := time.Now().Add(time.Duration(secs * float64(time.Second)))

		if global != "" { // probably "true"
			atomic.StoreInt64(l.global, at.UnixNano())
		} else {
			b.reset = at
		}

	case resetAfter != "":
		secs, err := strconv.ParseFloat(resetAfter, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid X-RateLimit-Reset-After %q", resetAfter)
		}

		b.reset = time.Now().Add(time.Duration(secs * float64(time.Second)))

	case reset != "":
		unix, err := strconv.ParseFloat(reset, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid X-RateLimit-Reset %q", reset)
		}

		sec := int64(unix)
		nsec := int64((unix - float64(sec)) * float64(time.Second))

		b.reset = time.Unix(sec, nsec).Add(ExtraDelay)
	}

	// The 429 body is only consulted when the headers didn't already say
	// when to come back.
	if body429 != nil && retryAfter == "" && resetAfter == "" && reset == "" {
		at := time.Now().Add(body429.RetryAfter.Duration())

		if body429.Global {
			atomic.StoreInt64(l.global, at.UnixNano())
		} else {
			b.reset = at
		}
	}

	if remaining != "" {
		u, err := strconv.ParseUint(remaining, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid X-RateLimit-Remaining %q", remaining)
		}

		b.remaining = u
	}

	return nil
}

// rekey moves a route's bucket under the server-provided hash. Routes that
// resolve to the same hash and major parameter end up sharing one bucket.
func (l *Limiter) rekey(method, path, hash string, b *bucket) {
	routeKey := l.routeKey(method, path)
	hashKey := hash + ":" + MajorParameter(strings.TrimPrefix(path, l.Prefix))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hashes[routeKey] == hashKey {
		return
	}

	l.hashes[routeKey] = hashKey

	if _, ok := l.buckets[hashKey]; !ok {
		l.buckets[hashKey] = b
	}
	delete(l.buckets, routeKey)
}
