package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

var (
	_ RateLimiter = (*TokenBucketLimiter)(nil)
	_ RateLimiter = (*SlidingWindowLimiter)(nil)
	_ RateLimiter = (*DistributedRateLimiter)(nil)
	_ RateLimiter = (*FallbackLimiter)(nil)
)

// TokenBucketLimiter implements token bucket rate limiting
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
	now        func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a token bucket limiter and starts its cleanup loop.
// Call Stop to end the loop.
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	limiter := &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	go limiter.cleanup(5 * time.Minute)
	return limiter
}

// Allow takes one token from the key's bucket
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	if refill := int(now.Sub(b.lastRefill) / l.refillRate); refill > 0 {
		b.tokens = min(b.tokens+refill, l.maxTokens)
		b.lastRefill = b.lastRefill.Add(time.Duration(refill) * l.refillRate)
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Reset resets the rate limit for a key
func (l *TokenBucketLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// Stop ends the cleanup loop
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, b := range l.buckets {
				if now.Sub(b.lastRefill) > time.Hour {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// SlidingWindowLimiter implements sliding window rate limiting
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records the request if fewer than limit requests fall inside the window
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)

	requests := l.windows[key]
	kept := requests[:0]
	for _, at := range requests {
		if at.After(windowStart) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.windows[key] = kept
		return false, nil
	}
	l.windows[key] = append(kept, now)
	return true, nil
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// FallbackLimiter asks the primary limiter and consults the fallback whenever the
// primary reports an error
type FallbackLimiter struct {
	primary  RateLimiter
	fallback RateLimiter
	onError  func(error)
}

// NewFallbackLimiter creates a limiter that degrades to fallback. onError is optional.
func NewFallbackLimiter(primary, fallback RateLimiter, onError func(error)) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, onError: onError}
}

// Allow checks the primary limiter first
func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := l.primary.Allow(ctx, key)
	if err == nil {
		return allowed, nil
	}
	if l.onError != nil {
		l.onError(err)
	}
	return l.fallback.Allow(ctx, key)
}

// Reset resets both limiters
func (l *FallbackLimiter) Reset(ctx context.Context, key string) error {
	if err := l.primary.Reset(ctx, key); err != nil {
		return err
	}
	return l.fallback.Reset(ctx, key)
}

// CompositeRateLimiter combines multiple rate limiters
type CompositeRateLimiter struct {
	limiters []RateLimiter
}

// NewCompositeRateLimiter creates a new composite rate limiter
func NewCompositeRateLimiter(limiters ...RateLimiter) *CompositeRateLimiter {
	return &CompositeRateLimiter{limiters: limiters}
}

// Allow checks if a request is allowed by all limiters
func (l *CompositeRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	for _, limiter := range l.limiters {
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}
	return true, nil
}

// Reset resets all limiters for a key
func (l *CompositeRateLimiter) Reset(ctx context.Context, key string) error {
	for _, limiter := range l.limiters {
		if err := limiter.Reset(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
